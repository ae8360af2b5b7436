package repository

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"cybersafe_backend/internal/model"
	"cybersafe_backend/internal/store"
	"cybersafe_backend/pkg/logger"

	"go.uber.org/zap"
)

const (
	progressKeyPrefix = "progress:"
	flushTimeout      = 5 * time.Second
)

// ProgressRepository is the single choke point for progress state. Reads are
// served from an in-memory cache that is the authoritative value for the
// session; persistence is best-effort and happens behind the cache update,
// so UI-visible state never waits on storage I/O. Writes are serialized per
// user key and coalesced to the newest snapshot, so a slow earlier write can
// never clobber a faster later one.
//
// None of the public operations return errors: on any internal failure they
// fall back to the default document and log.
type ProgressRepository struct {
	store store.Store

	mu       sync.Mutex
	cache    map[string]model.ProgressDocument
	flushers map[string]chan flushOp

	// available reports the adapter's durability flag when the store is a
	// Fallback; plain stores count as available.
	available func() bool
}

// flushOp is one unit of background persistence: a snapshot to write, or a
// tombstone that deletes the stored record. Both travel the same per-key
// channel, so a reset can never be overtaken by an earlier write.
type flushOp struct {
	doc    model.ProgressDocument
	remove bool
}

func NewProgressRepository(s store.Store) *ProgressRepository {
	r := &ProgressRepository{
		store:     s,
		cache:     make(map[string]model.ProgressDocument),
		flushers:  make(map[string]chan flushOp),
		available: func() bool { return true },
	}
	if f, ok := s.(*store.Fallback); ok {
		r.available = f.Available
	}
	return r
}

func progressKey(userKey string) string {
	if userKey == "" {
		userKey = model.AnonymousKey
	}
	return progressKeyPrefix + userKey
}

// Load returns the current document for the user key: the cached value if
// this session has one, otherwise the validated store contents, otherwise
// the default document. It never fails.
func (r *ProgressRepository) Load(ctx context.Context, userKey string) model.ProgressDocument {
	r.mu.Lock()
	if doc, ok := r.cache[progressKey(userKey)]; ok {
		r.mu.Unlock()
		return doc.Clone()
	}
	r.mu.Unlock()

	raw, found, err := r.store.Get(ctx, progressKey(userKey))
	if err != nil {
		logger.Log.Error("progress load failed, using defaults",
			zap.String("key", userKey), zap.Error(err))
	}
	doc := model.DefaultProgress()
	if found {
		doc = model.ValidateProgress(raw)
	}

	r.mu.Lock()
	// Another Load may have raced us; the cache stays authoritative.
	if cached, ok := r.cache[progressKey(userKey)]; ok {
		doc = cached
	} else {
		r.cache[progressKey(userKey)] = doc
	}
	r.mu.Unlock()
	return doc.Clone()
}

// Save validates the document, updates the cache synchronously and schedules
// a background write. A Load in the same tick observes the new value even
// though the storage write has not settled.
func (r *ProgressRepository) Save(ctx context.Context, userKey string, doc model.ProgressDocument) {
	doc = model.RepairProgress(doc)
	key := progressKey(userKey)

	r.mu.Lock()
	r.cache[key] = doc.Clone()
	r.mu.Unlock()

	r.enqueue(key, flushOp{doc: doc})
}

// enqueue hands an operation to the key's flusher, coalescing: any
// not-yet-flushed operation is dropped in favor of this one.
func (r *ProgressRepository) enqueue(key string, op flushOp) {
	r.mu.Lock()
	ch, ok := r.flushers[key]
	if !ok {
		ch = make(chan flushOp, 1)
		r.flushers[key] = ch
		go r.flushLoop(key, ch)
	}
	r.mu.Unlock()

	for {
		select {
		case ch <- op:
			return
		default:
			select {
			case <-ch:
			default:
			}
		}
	}
}

func (r *ProgressRepository) flushLoop(key string, ch chan flushOp) {
	for op := range ch {
		ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
		if op.remove {
			if err := r.store.Delete(ctx, key); err != nil {
				logger.Log.Error("progress reset failed", zap.String("key", key), zap.Error(err))
			}
			cancel()
			continue
		}
		data, err := json.Marshal(op.doc)
		if err != nil {
			logger.Log.Error("progress marshal failed", zap.String("key", key), zap.Error(err))
			cancel()
			continue
		}
		if err := r.store.Put(ctx, key, data); err != nil {
			logger.Log.Error("progress flush failed", zap.String("key", key), zap.Error(err))
		}
		cancel()
	}
}

// Reset clears the stored record and resets the cache to the default
// document. The delete rides the same per-key flusher as writes, so a flush
// still in flight can never resurrect the old document. Calling it again
// when nothing remains is a no-op.
func (r *ProgressRepository) Reset(ctx context.Context, userKey string) {
	key := progressKey(userKey)

	r.mu.Lock()
	r.cache[key] = model.DefaultProgress()
	r.mu.Unlock()

	r.enqueue(key, flushOp{remove: true})
}

// Forget drops the in-memory cache entry without touching the store. Used
// when a session's identity changes and the old key should re-read on next
// use.
func (r *ProgressRepository) Forget(userKey string) {
	r.mu.Lock()
	delete(r.cache, progressKey(userKey))
	r.mu.Unlock()
}

// Available reports whether progress survives a restart in this session.
func (r *ProgressRepository) Available() bool {
	return r.available()
}
