package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cybersafe_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore persists documents as rows in the progress_records table.
// This is the preferred backend.
type GormStore struct {
	DB *gorm.DB
}

var _ Store = (*GormStore)(nil)

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{DB: db}
}

func (s *GormStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var rec model.ProgressRecord
	err := s.DB.WithContext(ctx).Where("`key` = ?", key).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return rec.Document, true, nil
}

func (s *GormStore) Put(ctx context.Context, key string, value []byte) error {
	rec := model.ProgressRecord{Key: key, Document: value}
	return s.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"document", "updated_at"}),
		}).
		Create(&rec).Error
}

func (s *GormStore) Delete(ctx context.Context, key string) error {
	return s.DB.WithContext(ctx).
		Unscoped().
		Where("`key` = ?", key).
		Delete(&model.ProgressRecord{}).Error
}

func (s *GormStore) Probe(ctx context.Context) bool {
	key := fmt.Sprintf("%s%d", probeKeyPrefix, time.Now().UnixNano())
	if err := s.Put(ctx, key, []byte(`{}`)); err != nil {
		return false
	}
	if err := s.Delete(ctx, key); err != nil {
		return false
	}
	return true
}
