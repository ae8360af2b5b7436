package service

import (
	"strings"
	"time"

	"cybersafe_backend/internal/model"
	"cybersafe_backend/internal/repository"
	"cybersafe_backend/internal/util"
)

// CompletionService records learners finishing the full training.
type CompletionService struct {
	Completions *repository.CompletionRepository
}

func NewCompletionService(completions *repository.CompletionRepository) *CompletionService {
	return &CompletionService{Completions: completions}
}

// Record upserts a completion. The access ID is digested before storage so
// the table never holds a usable credential; the date defaults to now.
func (s *CompletionService) Record(rec model.CompletionRecord) (*model.CompletionRecord, error) {
	rec.AccessID = HashAccessID(rec.AccessID)
	rec.DisplayName = strings.TrimSpace(rec.DisplayName)
	if rec.CompletionDate == "" {
		rec.CompletionDate = time.Now().UTC().Format(util.TimeFormat)
	}
	if err := s.Completions.Upsert(&rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *CompletionService) ListAll() ([]model.CompletionRecord, error) {
	return s.Completions.All()
}

func (s *CompletionService) ForAccessID(accessID string) (*model.CompletionRecord, error) {
	return s.Completions.FindByAccessID(HashAccessID(accessID))
}
