package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cybersafe_backend/internal/model"
)

func TestAddPointsClampsPerStep(t *testing.T) {
	doc := model.DefaultProgress()

	doc = AddPoints(doc, 10)
	assert.Equal(t, 10, doc.Points)

	// The clamp applies after every application, not just at the end:
	// 10 - 30 floors at 0, then +5 lands on 5.
	doc = AddPoints(doc, -30)
	assert.Equal(t, 0, doc.Points)

	doc = AddPoints(doc, 5)
	assert.Equal(t, 5, doc.Points)
}

func TestAwardBadgeIdempotent(t *testing.T) {
	doc := model.DefaultProgress()

	doc = AwardBadge(doc, "phishing-expert")
	doc = AwardBadge(doc, "phishing-expert")
	doc = AwardBadge(doc, "email-guardian")
	doc = AwardBadge(doc, "")

	assert.Equal(t, []string{"phishing-expert", "email-guardian"}, doc.Badges)
}

func TestMarkSlideViewedCreatesModuleEntry(t *testing.T) {
	doc := model.DefaultProgress()

	doc = MarkSlideViewed(doc, "phishing", "phishing-intro")

	m, ok := doc.Modules["phishing"]
	require.True(t, ok)
	assert.True(t, m.Slides["phishing-intro"])
	assert.NotEmpty(t, m.LastVisited)
	assert.False(t, m.Completed)
}

func TestMarkQuizResultOverwrites(t *testing.T) {
	doc := model.DefaultProgress()

	doc = MarkQuizResult(doc, "phishing", "phishing-quiz-1", 10)
	doc = MarkQuizResult(doc, "phishing", "phishing-quiz-1", 0)

	assert.Equal(t, model.QuizScore(0), doc.Modules["phishing"].Quizzes["phishing-quiz-1"])
}

func TestOpsDoNotMutateInput(t *testing.T) {
	orig := model.DefaultProgress()
	orig.Points = 10

	out := MarkChallengeDone(orig, "phishing", "phishing-challenge-1")

	assert.Empty(t, orig.Modules)
	assert.True(t, out.Modules["phishing"].Challenges["phishing-challenge-1"])
}

// Walks a learner through the phishing module end to end the way the
// handlers drive the pure ops.
func TestModuleWalkthrough(t *testing.T) {
	doc := model.DefaultProgress()

	for _, slide := range []string{"phishing-intro", "phishing-types", "phishing-signs", "phishing-protection"} {
		doc = MarkSlideViewed(doc, "phishing", slide)
	}
	doc = MarkQuizResult(doc, "phishing", "phishing-quiz-1", 10)
	doc = AddPoints(doc, 10)
	doc = MarkQuizResult(doc, "phishing", "phishing-quiz-2", 15)
	doc = AddPoints(doc, 15)
	doc = MarkQuizResult(doc, "phishing", "phishing-quiz-3", 15)
	doc = AddPoints(doc, 15)
	doc = MarkChallengeDone(doc, "phishing", "phishing-challenge-1")
	doc = AddPoints(doc, 30)
	doc = MarkModuleCompleted(doc, "phishing")
	doc = AwardBadge(doc, "phishing-expert")

	assert.Equal(t, 70, doc.Points)
	assert.Equal(t, []string{"phishing-expert"}, doc.Badges)

	m := doc.Modules["phishing"]
	assert.True(t, m.Completed)
	assert.Len(t, m.Slides, 4)
	assert.Len(t, m.Quizzes, 3)
}
