package service

import (
	"cybersafe_backend/internal/model"
)

// Pure progress transitions. Each function takes a document by value,
// returns a new one and never touches shared state; committing the result
// is ProgressService's job. Unknown module/slide/quiz identifiers are
// accepted as-is; checking them against the catalogue belongs to callers.

// AddPoints adds a delta to the point total. Negative deltas are allowed
// (partial-credit deductions) but the total clamps at zero after every
// application, so banked points can be reduced to zero and no further.
func AddPoints(doc model.ProgressDocument, n int) model.ProgressDocument {
	out := doc.Clone()
	out.Points += n
	if out.Points < 0 {
		out.Points = 0
	}
	return out
}

// AwardBadge inserts a badge id. Awarding a held badge is a no-op.
func AwardBadge(doc model.ProgressDocument, id string) model.ProgressDocument {
	out := doc.Clone()
	if id == "" || out.HasBadge(id) {
		return out
	}
	out.Badges = append(out.Badges, id)
	return out
}

// MarkSlideViewed flags a slide as seen.
func MarkSlideViewed(doc model.ProgressDocument, moduleID, slideID string) model.ProgressDocument {
	out := doc.Clone()
	m := out.Module(moduleID)
	m.Slides[slideID] = true
	m.Touch()
	out.Modules[moduleID] = m
	return out
}

// MarkQuizResult records the points earned for a quiz. Re-answering a quiz
// overwrites the stored score.
func MarkQuizResult(doc model.ProgressDocument, moduleID, quizID string, points int) model.ProgressDocument {
	out := doc.Clone()
	m := out.Module(moduleID)
	m.Quizzes[quizID] = model.QuizScore(points)
	m.Touch()
	out.Modules[moduleID] = m
	return out
}

// MarkChallengeDone flags a challenge as completed.
func MarkChallengeDone(doc model.ProgressDocument, moduleID, challengeID string) model.ProgressDocument {
	out := doc.Clone()
	m := out.Module(moduleID)
	m.Challenges[challengeID] = true
	m.Touch()
	out.Modules[moduleID] = m
	return out
}

// MarkModuleCompleted sets the module's completed flag unconditionally. The
// caller is responsible for having checked the completion precondition; see
// ProgressService.CanCompleteModule.
func MarkModuleCompleted(doc model.ProgressDocument, moduleID string) model.ProgressDocument {
	out := doc.Clone()
	m := out.Module(moduleID)
	m.Completed = true
	m.Touch()
	out.Modules[moduleID] = m
	return out
}
