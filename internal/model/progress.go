package model

import (
	"bytes"
	"encoding/json"
	"time"

	"cybersafe_backend/pkg/logger"

	"go.uber.org/zap"
)

// AnonymousKey is the progress key used before an identity is attached.
const AnonymousKey = "anonymous"

// QuizScore is the points earned for a quiz. Older records stored a plain
// correct/incorrect boolean; those decode as 1 or 0 so the two historical
// representations collapse into one.
type QuizScore int

func (q *QuizScore) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch string(data) {
	case "true":
		*q = 1
		return nil
	case "false", "null":
		*q = 0
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*q = QuizScore(n)
	return nil
}

// ModuleProgress tracks a learner's state within a single training module.
type ModuleProgress struct {
	Completed   bool                 `json:"completed"`
	Slides      map[string]bool      `json:"slides"`
	Quizzes     map[string]QuizScore `json:"quizzes"`
	Challenges  map[string]bool      `json:"challenges"`
	LastVisited string               `json:"lastVisited,omitempty"`
}

// ProgressDocument is the root progress aggregate, one per user key.
// Module keys absent from Modules mean "not yet started".
type ProgressDocument struct {
	Modules map[string]ModuleProgress `json:"modules"`
	Points  int                       `json:"points"`
	Badges  []string                  `json:"badges"`
	UserID  string                    `json:"userId,omitempty"`
}

func DefaultModuleProgress() ModuleProgress {
	return ModuleProgress{
		Slides:     map[string]bool{},
		Quizzes:    map[string]QuizScore{},
		Challenges: map[string]bool{},
	}
}

func DefaultProgress() ProgressDocument {
	return ProgressDocument{
		Modules: map[string]ModuleProgress{},
		Badges:  []string{},
	}
}

// Clone returns a deep copy, so pure mutation functions never alias the
// cached document's maps.
func (d ProgressDocument) Clone() ProgressDocument {
	out := d
	out.Modules = make(map[string]ModuleProgress, len(d.Modules))
	for id, m := range d.Modules {
		out.Modules[id] = m.clone()
	}
	out.Badges = append([]string{}, d.Badges...)
	return out
}

func (m ModuleProgress) clone() ModuleProgress {
	out := m
	out.Slides = make(map[string]bool, len(m.Slides))
	for k, v := range m.Slides {
		out.Slides[k] = v
	}
	out.Quizzes = make(map[string]QuizScore, len(m.Quizzes))
	for k, v := range m.Quizzes {
		out.Quizzes[k] = v
	}
	out.Challenges = make(map[string]bool, len(m.Challenges))
	for k, v := range m.Challenges {
		out.Challenges[k] = v
	}
	return out
}

// HasBadge reports whether the badge id is already held.
func (d ProgressDocument) HasBadge(id string) bool {
	for _, b := range d.Badges {
		if b == id {
			return true
		}
	}
	return false
}

// Module returns the progress for a module, defaulting absent entries.
func (d ProgressDocument) Module(moduleID string) ModuleProgress {
	if m, ok := d.Modules[moduleID]; ok {
		return m
	}
	return DefaultModuleProgress()
}

// Touch stamps LastVisited with the current UTC time.
func (m *ModuleProgress) Touch() {
	m.LastVisited = time.Now().UTC().Format(time.RFC3339)
}

// ValidateProgress parses arbitrary persisted bytes into a trusted
// ProgressDocument. Progress data crosses storage and network boundaries and
// schema evolution leaves old records missing newer fields, so this never
// fails: garbage input yields a fresh default document with a warning.
func ValidateProgress(raw []byte) ProgressDocument {
	if len(raw) == 0 {
		return DefaultProgress()
	}
	var doc ProgressDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		logger.Log.Warn("malformed progress record, starting fresh", zap.Error(err))
		return DefaultProgress()
	}
	return RepairProgress(doc)
}

// RepairProgress coerces a decoded document into a well-formed one: nil maps
// are allocated, negative points clamp to zero and duplicate badges collapse
// (first occurrence wins).
func RepairProgress(doc ProgressDocument) ProgressDocument {
	if doc.Modules == nil {
		doc.Modules = map[string]ModuleProgress{}
	}
	for id, m := range doc.Modules {
		if m.Slides == nil {
			m.Slides = map[string]bool{}
		}
		if m.Quizzes == nil {
			m.Quizzes = map[string]QuizScore{}
		}
		if m.Challenges == nil {
			m.Challenges = map[string]bool{}
		}
		doc.Modules[id] = m
	}
	if doc.Points < 0 {
		doc.Points = 0
	}
	seen := make(map[string]bool, len(doc.Badges))
	badges := make([]string, 0, len(doc.Badges))
	for _, b := range doc.Badges {
		if b == "" || seen[b] {
			continue
		}
		seen[b] = true
		badges = append(badges, b)
	}
	doc.Badges = badges
	return doc
}
