package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateProgressGarbage(t *testing.T) {
	cases := map[string][]byte{
		"empty":      nil,
		"not json":   []byte("not json at all"),
		"number":     []byte("42"),
		"truncated":  []byte(`{"modules": {"phishing"`),
		"wrong type": []byte(`{"modules": "nope"}`),
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			doc := ValidateProgress(raw)
			assert.NotNil(t, doc.Modules)
			assert.NotNil(t, doc.Badges)
			assert.Equal(t, 0, doc.Points)
		})
	}
}

func TestValidateProgressPartialDocument(t *testing.T) {
	doc := ValidateProgress([]byte(`{"points": 55}`))
	assert.Equal(t, 55, doc.Points)
	assert.NotNil(t, doc.Modules)
	assert.NotNil(t, doc.Badges)
}

func TestValidateProgressNilModuleMaps(t *testing.T) {
	raw := []byte(`{"modules": {"phishing": {"completed": true}}, "points": 10}`)
	doc := ValidateProgress(raw)

	m := doc.Modules["phishing"]
	assert.True(t, m.Completed)
	require.NotNil(t, m.Slides)
	require.NotNil(t, m.Quizzes)
	require.NotNil(t, m.Challenges)
}

func TestQuizScoreLegacyBooleans(t *testing.T) {
	raw := []byte(`{"modules": {"phishing": {"quizzes": {
		"q1": true, "q2": false, "q3": null, "q4": 15
	}}}}`)
	doc := ValidateProgress(raw)

	q := doc.Modules["phishing"].Quizzes
	assert.Equal(t, QuizScore(1), q["q1"])
	assert.Equal(t, QuizScore(0), q["q2"])
	assert.Equal(t, QuizScore(0), q["q3"])
	assert.Equal(t, QuizScore(15), q["q4"])
}

func TestRepairProgressClampsAndDedupes(t *testing.T) {
	doc := RepairProgress(ProgressDocument{
		Points: -20,
		Badges: []string{"phishing-expert", "", "email-guardian", "phishing-expert"},
	})
	assert.Equal(t, 0, doc.Points)
	assert.Equal(t, []string{"phishing-expert", "email-guardian"}, doc.Badges)
}

func TestProgressRoundTrip(t *testing.T) {
	orig := DefaultProgress()
	m := DefaultModuleProgress()
	m.Slides["phishing-intro"] = true
	m.Quizzes["phishing-quiz-1"] = 10
	m.Challenges["phishing-challenge-1"] = true
	m.Completed = true
	m.LastVisited = "2026-01-02T03:04:05Z"
	orig.Modules["phishing"] = m
	orig.Points = 70
	orig.Badges = []string{"phishing-expert"}

	data, err := json.Marshal(orig)
	require.NoError(t, err)

	back := ValidateProgress(data)
	assert.Equal(t, orig, back)
}

func TestCloneIsDeep(t *testing.T) {
	orig := DefaultProgress()
	orig.Modules["phishing"] = DefaultModuleProgress()
	orig.Badges = []string{"phishing-expert"}

	clone := orig.Clone()
	clone.Modules["phishing"].Slides["phishing-intro"] = true
	clone.Badges[0] = "changed"

	assert.False(t, orig.Modules["phishing"].Slides["phishing-intro"])
	assert.Equal(t, "phishing-expert", orig.Badges[0])
}

func TestModuleDefaultsAbsentEntries(t *testing.T) {
	doc := DefaultProgress()
	m := doc.Module("never-started")
	assert.False(t, m.Completed)
	assert.NotNil(t, m.Slides)
	assert.Empty(t, m.Slides)
}

func TestMergeProgressTakesBestOfBoth(t *testing.T) {
	local := DefaultProgress()
	lm := DefaultModuleProgress()
	lm.Slides["s1"] = true
	lm.Quizzes["q1"] = 15
	lm.LastVisited = "2026-02-01T00:00:00Z"
	local.Modules["phishing"] = lm
	local.Points = 40
	local.Badges = []string{"phishing-expert"}

	remote := DefaultProgress()
	rm := DefaultModuleProgress()
	rm.Slides["s2"] = true
	rm.Quizzes["q1"] = 10
	rm.Quizzes["q2"] = 15
	rm.Completed = true
	rm.LastVisited = "2026-01-01T00:00:00Z"
	remote.Modules["phishing"] = rm
	remote.Modules["email"] = DefaultModuleProgress()
	remote.Points = 55
	remote.Badges = []string{"phishing-expert", "email-guardian"}

	out := MergeProgress(local, remote)

	assert.Equal(t, 55, out.Points)
	assert.ElementsMatch(t, []string{"phishing-expert", "email-guardian"}, out.Badges)

	m := out.Modules["phishing"]
	assert.True(t, m.Completed)
	assert.True(t, m.Slides["s1"])
	assert.True(t, m.Slides["s2"])
	assert.Equal(t, QuizScore(15), m.Quizzes["q1"], "keeps the higher score per quiz")
	assert.Equal(t, QuizScore(15), m.Quizzes["q2"])
	assert.Equal(t, "2026-02-01T00:00:00Z", m.LastVisited)

	_, ok := out.Modules["email"]
	assert.True(t, ok, "remote-only modules carry over")
}

func TestMergeProgressDoesNotMutateInputs(t *testing.T) {
	local := DefaultProgress()
	local.Modules["phishing"] = DefaultModuleProgress()

	remote := DefaultProgress()
	rm := DefaultModuleProgress()
	rm.Slides["s1"] = true
	remote.Modules["phishing"] = rm

	MergeProgress(local, remote)
	assert.False(t, local.Modules["phishing"].Slides["s1"])
}
