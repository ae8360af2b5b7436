package repository

import (
	"errors"
	"time"

	"cybersafe_backend/internal/model"
	"cybersafe_backend/internal/util"

	"gorm.io/gorm"
)

type UserRepository struct {
	DB *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{DB: db}
}

func (r *UserRepository) Create(user *model.User) error {
	return r.DB.Create(user).Error
}

func (r *UserRepository) FindByID(id uint) (*model.User, error) {
	var user model.User
	err := r.DB.First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrUserNotFound
	}
	return &user, err
}

func (r *UserRepository) FindByAccessHash(hash string) (*model.User, error) {
	var user model.User
	err := r.DB.Where("access_hash = ?", hash).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrUserNotFound
	}
	return &user, err
}

func (r *UserRepository) All() ([]model.User, error) {
	var users []model.User
	err := r.DB.Order("created_at asc").Find(&users).Error
	return users, err
}

func (r *UserRepository) WithCertificates() ([]model.User, error) {
	var users []model.User
	err := r.DB.Where("certificate_issued = ?", true).Order("certificate_date desc").Find(&users).Error
	return users, err
}

func (r *UserRepository) UpdateLastLogin(id uint) error {
	return r.DB.Model(&model.User{}).Where("id = ?", id).
		Update("last_login", time.Now()).Error
}

func (r *UserRepository) UpdateLastSeen(userID uint) error {
	return r.DB.Model(&model.User{}).Where("id = ?", userID).
		Update("last_seen", time.Now()).Error
}

// UpdateProgressSummary mirrors the points/badges of a synced progress
// document onto the account row, so admin listings don't parse documents.
func (r *UserRepository) UpdateProgressSummary(id uint, points int, badges []string) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		var user model.User
		if err := tx.First(&user, id).Error; err != nil {
			return err
		}
		user.Points = points
		user.Badges = badges
		return tx.Save(&user).Error
	})
}

func (r *UserRepository) IssueCertificate(id uint, url string) (*model.User, error) {
	now := time.Now()
	err := r.DB.Model(&model.User{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"certificate_issued": true,
			"certificate_date":   now,
			"certificate_url":    url,
		}).Error
	if err != nil {
		return nil, err
	}
	return r.FindByID(id)
}
