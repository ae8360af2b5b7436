package service

import (
	"context"
	"sync"

	"cybersafe_backend/internal/model"
	"cybersafe_backend/internal/repository"
	"cybersafe_backend/pkg/monitoring"
)

// Subscriber receives every committed progress document.
type Subscriber func(userKey string, doc model.ProgressDocument)

// committedHook lets the sync coordinator observe commits without a
// dependency cycle between the two services.
type committedHook interface {
	NotifyCommit(userKey string, doc model.ProgressDocument)
	NotifyReset(userKey string)
}

// ProgressService applies the named mutation operations: load the current
// document, run the pure transition, commit through the repository, then
// fan the result out to subscribers and the sync coordinator. No method
// here returns an error; all failure is absorbed below and logged.
type ProgressService struct {
	Repo      *repository.ProgressRepository
	Catalogue *CatalogueService

	mu      sync.Mutex
	subs    map[int]Subscriber
	nextSub int
	hook    committedHook
}

func NewProgressService(repo *repository.ProgressRepository, catalogue *CatalogueService) *ProgressService {
	return &ProgressService{
		Repo:      repo,
		Catalogue: catalogue,
		subs:      make(map[int]Subscriber),
	}
}

// SetCommitHook attaches the sync coordinator. Wired once at startup.
func (s *ProgressService) SetCommitHook(h committedHook) {
	s.hook = h
}

// Current returns the cached document synchronously.
func (s *ProgressService) Current(ctx context.Context, userKey string) model.ProgressDocument {
	return s.Repo.Load(ctx, userKey)
}

// Subscribe registers a callback invoked after every committed mutation.
// The returned function unsubscribes.
func (s *ProgressService) Subscribe(fn Subscriber) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *ProgressService) commit(ctx context.Context, userKey, op string, doc model.ProgressDocument) model.ProgressDocument {
	s.Repo.Save(ctx, userKey, doc)
	monitoring.ProgressEventCounter.WithLabelValues(op).Inc()

	s.mu.Lock()
	subs := make([]Subscriber, 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(userKey, doc)
	}
	if s.hook != nil {
		s.hook.NotifyCommit(userKey, doc)
	}
	return doc
}

func (s *ProgressService) AddPoints(ctx context.Context, userKey string, n int) model.ProgressDocument {
	doc := AddPoints(s.Repo.Load(ctx, userKey), n)
	return s.commit(ctx, userKey, "add_points", doc)
}

func (s *ProgressService) AwardBadge(ctx context.Context, userKey, badgeID string) model.ProgressDocument {
	doc := AwardBadge(s.Repo.Load(ctx, userKey), badgeID)
	return s.commit(ctx, userKey, "award_badge", doc)
}

func (s *ProgressService) MarkSlideViewed(ctx context.Context, userKey, moduleID, slideID string) model.ProgressDocument {
	doc := MarkSlideViewed(s.Repo.Load(ctx, userKey), moduleID, slideID)
	return s.commit(ctx, userKey, "slide_viewed", doc)
}

func (s *ProgressService) MarkQuizResult(ctx context.Context, userKey, moduleID, quizID string, points int) model.ProgressDocument {
	doc := MarkQuizResult(s.Repo.Load(ctx, userKey), moduleID, quizID, points)
	return s.commit(ctx, userKey, "quiz_result", doc)
}

func (s *ProgressService) MarkChallengeDone(ctx context.Context, userKey, moduleID, challengeID string) model.ProgressDocument {
	doc := MarkChallengeDone(s.Repo.Load(ctx, userKey), moduleID, challengeID)
	return s.commit(ctx, userKey, "challenge_done", doc)
}

func (s *ProgressService) MarkModuleCompleted(ctx context.Context, userKey, moduleID string) model.ProgressDocument {
	doc := MarkModuleCompleted(s.Repo.Load(ctx, userKey), moduleID)
	return s.commit(ctx, userKey, "module_completed", doc)
}

// ReplaceDocument validates and commits an externally supplied document
// (the server-side progress endpoint and the sync coordinator use this).
func (s *ProgressService) ReplaceDocument(ctx context.Context, userKey string, doc model.ProgressDocument) model.ProgressDocument {
	return s.commit(ctx, userKey, "replace", model.RepairProgress(doc))
}

// FullReset wipes the stored document and re-broadcasts the default.
func (s *ProgressService) FullReset(ctx context.Context, userKey string) model.ProgressDocument {
	s.Repo.Reset(ctx, userKey)
	doc := model.DefaultProgress()
	monitoring.ProgressEventCounter.WithLabelValues("reset").Inc()

	s.mu.Lock()
	subs := make([]Subscriber, 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()
	for _, fn := range subs {
		fn(userKey, doc)
	}
	if s.hook != nil {
		s.hook.NotifyReset(userKey)
	}
	return doc
}

// StorageAvailable reports whether progress survives a restart; the UI
// shows a degraded-mode banner when false.
func (s *ProgressService) StorageAvailable() bool {
	return s.Repo.Available()
}

// CanCompleteModule checks the business precondition for module completion:
// every catalogue quiz attempted and every challenge done. Modules unknown
// to the catalogue can always complete (permissive by design).
func (s *ProgressService) CanCompleteModule(doc model.ProgressDocument, moduleID string) bool {
	if s.Catalogue == nil {
		return true
	}
	mod, ok := s.Catalogue.Module(moduleID)
	if !ok {
		return true
	}
	mp := doc.Module(moduleID)
	for _, q := range mod.Quizzes {
		if _, attempted := mp.Quizzes[q.ID]; !attempted {
			return false
		}
	}
	for _, c := range mod.Challenges {
		if !mp.Challenges[c.ID] {
			return false
		}
	}
	return true
}
