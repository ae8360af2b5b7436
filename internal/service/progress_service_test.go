package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cybersafe_backend/internal/model"
	"cybersafe_backend/internal/repository"
	"cybersafe_backend/internal/store"
)

func newProgressFixture(t *testing.T) (*ProgressService, *repository.ProgressRepository) {
	t.Helper()
	repo := repository.NewProgressRepository(store.NewMemoryStore())
	return NewProgressService(repo, nil), repo
}

func TestMutationsCommitThroughRepository(t *testing.T) {
	svc, repo := newProgressFixture(t)
	ctx := context.Background()

	svc.AddPoints(ctx, "alice", 10)
	svc.AwardBadge(ctx, "alice", "phishing-expert")
	doc := svc.MarkSlideViewed(ctx, "alice", "phishing", "phishing-intro")

	assert.Equal(t, 10, doc.Points)
	assert.Equal(t, []string{"phishing-expert"}, doc.Badges)
	assert.True(t, doc.Modules["phishing"].Slides["phishing-intro"])

	assert.Equal(t, doc, repo.Load(ctx, "alice"))
}

func TestSubscribersSeeEveryCommit(t *testing.T) {
	svc, _ := newProgressFixture(t)
	ctx := context.Background()

	var got []model.ProgressDocument
	unsubscribe := svc.Subscribe(func(userKey string, doc model.ProgressDocument) {
		assert.Equal(t, "alice", userKey)
		got = append(got, doc)
	})

	svc.AddPoints(ctx, "alice", 5)
	svc.AddPoints(ctx, "alice", 5)

	require.Len(t, got, 2)
	assert.Equal(t, 5, got[0].Points)
	assert.Equal(t, 10, got[1].Points)

	unsubscribe()
	svc.AddPoints(ctx, "alice", 5)
	assert.Len(t, got, 2, "unsubscribed callbacks stop firing")
}

type hookRecorder struct {
	commits []string
	resets  []string
}

func (h *hookRecorder) NotifyCommit(userKey string, doc model.ProgressDocument) {
	h.commits = append(h.commits, userKey)
}

func (h *hookRecorder) NotifyReset(userKey string) {
	h.resets = append(h.resets, userKey)
}

func TestCommitHookInvoked(t *testing.T) {
	svc, _ := newProgressFixture(t)
	hook := &hookRecorder{}
	svc.SetCommitHook(hook)
	ctx := context.Background()

	svc.AddPoints(ctx, "alice", 1)
	svc.FullReset(ctx, "alice")

	assert.Equal(t, []string{"alice"}, hook.commits)
	assert.Equal(t, []string{"alice"}, hook.resets)
}

func TestFullResetBroadcastsDefault(t *testing.T) {
	svc, repo := newProgressFixture(t)
	ctx := context.Background()

	svc.AddPoints(ctx, "alice", 99)

	var last model.ProgressDocument
	svc.Subscribe(func(_ string, doc model.ProgressDocument) { last = doc })

	got := svc.FullReset(ctx, "alice")

	assert.Equal(t, model.DefaultProgress(), got)
	assert.Equal(t, model.DefaultProgress(), last)
	assert.Equal(t, model.DefaultProgress(), repo.Load(ctx, "alice"))
}

func TestReplaceDocumentRepairs(t *testing.T) {
	svc, _ := newProgressFixture(t)
	ctx := context.Background()

	doc := svc.ReplaceDocument(ctx, "alice", model.ProgressDocument{Points: -3})
	assert.Equal(t, 0, doc.Points)
	assert.NotNil(t, doc.Modules)
}

func catalogueFromYAML(t *testing.T, files map[string]string) *CatalogueService {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		writeFile(t, dir, name, content)
	}
	svc, err := NewCatalogueService(dir)
	require.NoError(t, err)
	return svc
}

func TestCanCompleteModule(t *testing.T) {
	catalogue := catalogueFromYAML(t, map[string]string{
		"phishing.yaml": `
id: phishing
title: Phishing Recognition
quizzes:
  - id: q1
    points: 10
  - id: q2
    points: 15
challenges:
  - id: c1
    points: 30
`,
	})

	repo := repository.NewProgressRepository(store.NewMemoryStore())
	svc := NewProgressService(repo, catalogue)

	doc := model.DefaultProgress()
	assert.False(t, svc.CanCompleteModule(doc, "phishing"), "nothing attempted")

	doc = MarkQuizResult(doc, "phishing", "q1", 10)
	doc = MarkQuizResult(doc, "phishing", "q2", 0)
	assert.False(t, svc.CanCompleteModule(doc, "phishing"), "challenge outstanding")

	doc = MarkChallengeDone(doc, "phishing", "c1")
	assert.True(t, svc.CanCompleteModule(doc, "phishing"),
		"a zero-score quiz still counts as attempted")

	assert.True(t, svc.CanCompleteModule(doc, "unknown-module"),
		"modules outside the catalogue can always complete")
}
