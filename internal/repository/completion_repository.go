package repository

import (
	"errors"

	"cybersafe_backend/internal/model"
	"cybersafe_backend/internal/util"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CompletionRepository struct {
	DB *gorm.DB
}

func NewCompletionRepository(db *gorm.DB) *CompletionRepository {
	return &CompletionRepository{DB: db}
}

// Upsert records a completion, replacing any earlier record for the same
// access ID so retakes update scores in place.
func (r *CompletionRepository) Upsert(rec *model.CompletionRecord) error {
	return r.DB.
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "access_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"display_name", "completion_date",
				"phishing_simulator", "password_strength", "security_quiz", "overall",
				"updated_at",
			}),
		}).
		Create(rec).Error
}

func (r *CompletionRepository) All() ([]model.CompletionRecord, error) {
	var recs []model.CompletionRecord
	err := r.DB.Order("created_at desc").Find(&recs).Error
	return recs, err
}

func (r *CompletionRepository) FindByAccessID(accessID string) (*model.CompletionRecord, error) {
	var rec model.CompletionRecord
	err := r.DB.Where("access_id = ?", accessID).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrRecordNotFound
	}
	return &rec, err
}
