package store

import (
	"context"
	"sync"

	"cybersafe_backend/pkg/logger"

	"go.uber.org/zap"
)

// Fallback routes operations to the healthiest backend: primary, then
// secondary, then in-process memory. Selection happens once per session via
// a probe; a backend that starts erroring mid-session is demoted in place.
// Backend errors never reach callers; they are logged here and the only
// outward signal is Available() turning false once only memory is left.
type Fallback struct {
	tiers []tier
	mem   *MemoryStore

	mu     sync.Mutex
	probed bool
	active int // index into tiers; len(tiers)-1 is always memory
}

type tier struct {
	name  string
	store Store
}

// NewFallback builds the adapter. Either backend may be nil (that tier is
// simply skipped), so a deployment without Redis still works.
func NewFallback(primary, secondary Store) *Fallback {
	mem := NewMemoryStore()
	f := &Fallback{mem: mem}
	if primary != nil {
		f.tiers = append(f.tiers, tier{name: "primary", store: primary})
	}
	if secondary != nil {
		f.tiers = append(f.tiers, tier{name: "secondary", store: secondary})
	}
	f.tiers = append(f.tiers, tier{name: "memory", store: mem})
	return f
}

var _ Store = (*Fallback)(nil)

// selectBackend runs the session's one-time probe sequence. Callers hold mu.
func (f *Fallback) selectBackend(ctx context.Context) {
	if f.probed {
		return
	}
	f.probed = true
	for i, t := range f.tiers {
		if t.store.Probe(ctx) {
			f.active = i
			if i > 0 {
				logger.Log.Warn("preferred progress store unavailable, falling back",
					zap.String("backend", t.name))
			}
			return
		}
		logger.Log.Warn("progress store failed probe", zap.String("backend", t.name))
	}
	f.active = len(f.tiers) - 1
}

// demote moves past the currently active tier after an operation error.
func (f *Fallback) demote(from int, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.active != from || f.active >= len(f.tiers)-1 {
		return
	}
	logger.Log.Error("progress store error, demoting backend",
		zap.String("backend", f.tiers[f.active].name), zap.Error(err))
	f.active++
}

func (f *Fallback) current(ctx context.Context) (int, Store) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.selectBackend(ctx)
	return f.active, f.tiers[f.active].store
}

// Available reports whether anything more durable than process memory is
// holding progress. The UI surfaces this as a "progress is not being saved"
// banner; no operation is ever blocked on it.
func (f *Fallback) Available() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.selectBackend(context.Background())
	return f.active < len(f.tiers)-1
}

func (f *Fallback) Get(ctx context.Context, key string) ([]byte, bool, error) {
	for {
		i, s := f.current(ctx)
		val, ok, err := s.Get(ctx, key)
		if err == nil {
			return val, ok, nil
		}
		f.demote(i, err)
	}
}

func (f *Fallback) Put(ctx context.Context, key string, value []byte) error {
	for {
		i, s := f.current(ctx)
		err := s.Put(ctx, key, value)
		if err == nil {
			return nil
		}
		f.demote(i, err)
	}
}

func (f *Fallback) Delete(ctx context.Context, key string) error {
	for {
		i, s := f.current(ctx)
		err := s.Delete(ctx, key)
		if err == nil {
			return nil
		}
		f.demote(i, err)
	}
}

func (f *Fallback) Probe(ctx context.Context) bool {
	_, s := f.current(ctx)
	return s.Probe(ctx)
}

// Reprobe discards the session's backend selection so the next operation
// runs the probe sequence again. Used after a config reload, when a backend
// that was down at startup may have come back.
func (f *Fallback) Reprobe() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.probed = false
	f.active = 0
}
