package model

import (
	"time"
)

// User is a learner account. There is no password: learners authenticate
// with a random access ID generated at registration, shown to them exactly
// once and stored only as a digest.
type User struct {
	BaseModel
	DisplayName       string     `gorm:"size:100;not null" json:"displayName"`
	Email             string     `gorm:"size:100;index" json:"email,omitempty"`
	AccessHash        string     `gorm:"size:64;uniqueIndex;not null" json:"-"`
	AccessCheck       []byte     `gorm:"size:60" json:"-"`
	IsAdmin           bool       `gorm:"default:false" json:"isAdmin"`
	Points            int        `gorm:"default:0" json:"points"`
	Badges            []string   `gorm:"serializer:json" json:"badges"`
	CertificateIssued bool       `gorm:"default:false" json:"certificateIssued"`
	CertificateDate   *time.Time `json:"certificateDate,omitempty"`
	CertificateURL    string     `gorm:"size:255" json:"certificateUrl,omitempty"`
	LastLogin         time.Time  `gorm:"default:CURRENT_TIMESTAMP(3)" json:"lastLogin"`
	LastSeen          time.Time  `gorm:"default:CURRENT_TIMESTAMP(3)" json:"lastSeen"`
}

func (User) TableName() string {
	return "users"
}

// ProgressRecord is one persisted progress document in the primary store,
// keyed by user identity (or the anonymous key).
type ProgressRecord struct {
	BaseModel
	Key      string `gorm:"size:128;uniqueIndex;not null"`
	Document []byte `gorm:"type:json"`
}

func (ProgressRecord) TableName() string {
	return "progress_records"
}
