package service

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

func TestCatalogueLoadsModulesAndBadges(t *testing.T) {
	svc := catalogueFromYAML(t, map[string]string{
		"phishing.yaml": `
id: phishing
title: Phishing Recognition
order: 1
points_available: 70
slides:
  - id: phishing-intro
    title: Introduction to Phishing
    type: intro
quizzes:
  - id: phishing-quiz-1
    points: 10
challenges:
  - id: phishing-challenge-1
    points: 30
    items: 8
`,
		"email.yaml": `
id: email
title: Email Safety
order: 2
`,
		"badges.yaml": `
- id: phishing-expert
  title: Phishing Master
  module_id: phishing
- id: email-guardian
  title: Email Guardian
  module_id: email
`,
	})

	mods := svc.AllModules()
	require.Len(t, mods, 2)
	assert.Equal(t, "phishing", mods[0].ID, "ordered by module order")
	assert.Equal(t, "email", mods[1].ID)

	phishing, ok := svc.Module("phishing")
	require.True(t, ok)
	assert.Equal(t, 70, phishing.PointsAvailable)
	assert.Len(t, phishing.Slides, 1)
	assert.Equal(t, 8, phishing.Challenges[0].Items)

	assert.Len(t, svc.AllBadges(), 2)
}

func TestCataloguePassThresholdDefault(t *testing.T) {
	svc := catalogueFromYAML(t, map[string]string{
		"m.yaml": "id: m1\ntitle: Module One\n",
		"n.yaml": "id: n1\ntitle: Module Two\npass_threshold: 0.9\n",
	})

	m, _ := svc.Module("m1")
	assert.InDelta(t, 0.7, m.PassThreshold, 0.001)

	n, _ := svc.Module("n1")
	assert.InDelta(t, 0.9, n.PassThreshold, 0.001)
}

func TestCatalogueBadgeForModule(t *testing.T) {
	svc := catalogueFromYAML(t, map[string]string{
		"badges.yaml": `
- id: cyber-champion
  title: Cyber Champion
  module_id: final-challenge
`,
	})

	badge, ok := svc.BadgeForModule("final-challenge")
	require.True(t, ok)
	assert.Equal(t, "cyber-champion", badge.ID)

	_, ok = svc.BadgeForModule("unknown")
	assert.False(t, ok)
}

func TestCatalogueSkipsInvalidYAML(t *testing.T) {
	svc := catalogueFromYAML(t, map[string]string{
		"good.yaml":   "id: good\ntitle: Good\n",
		"broken.yaml": "{{{ not yaml",
		"notes.txt":   "ignored entirely",
	})

	assert.Len(t, svc.AllModules(), 1)
}

func TestCatalogueUnknownModule(t *testing.T) {
	svc := catalogueFromYAML(t, map[string]string{
		"m.yaml": "id: m1\ntitle: Module\n",
	})

	_, ok := svc.Module("missing")
	assert.False(t, ok)
}
