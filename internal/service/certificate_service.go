package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cybersafe_backend/internal/model"
	"cybersafe_backend/internal/repository"
	"cybersafe_backend/internal/util"
)

// CertificateService generates the completion certificate artifact, stores
// it, and marks the account row. Issuing twice returns the existing
// certificate instead of generating a new one.
type CertificateService struct {
	Users   *repository.UserRepository
	Storage *StorageService
}

func NewCertificateService(users *repository.UserRepository, storage *StorageService) *CertificateService {
	return &CertificateService{Users: users, Storage: storage}
}

func (s *CertificateService) Issue(ctx context.Context, userID uint) (*model.User, error) {
	user, err := s.Users.FindByID(userID)
	if err != nil {
		return nil, err
	}
	if user.CertificateIssued {
		return user, nil
	}

	issued := time.Now().UTC()
	body := renderCertificate(user, issued)
	filename := fmt.Sprintf("certificates/%s.txt", model.GenerateUUID())

	url, err := s.Storage.Upload(ctx, filename, strings.NewReader(body), int64(len(body)), "text/plain; charset=utf-8")
	if err != nil {
		return nil, fmt.Errorf("store certificate: %w", err)
	}
	return s.Users.IssueCertificate(userID, url)
}

func renderCertificate(user *model.User, issued time.Time) string {
	var b strings.Builder
	b.WriteString("CyberSafe Training - Certificate of Completion\n")
	b.WriteString(strings.Repeat("=", 46) + "\n\n")
	fmt.Fprintf(&b, "Awarded to: %s\n", user.DisplayName)
	fmt.Fprintf(&b, "Points earned: %d\n", user.Points)
	if len(user.Badges) > 0 {
		fmt.Fprintf(&b, "Badges: %s\n", strings.Join(user.Badges, ", "))
	}
	fmt.Fprintf(&b, "Issued: %s\n", issued.Format(util.DateFormat))
	return b.String()
}
