package service

import (
	"cybersafe_backend/internal/model"
	"cybersafe_backend/internal/repository"
	"cybersafe_backend/pkg/logger"

	"go.uber.org/zap"
)

// UserService covers account reads and the admin listings.
type UserService struct {
	Users *repository.UserRepository
}

func NewUserService(users *repository.UserRepository) *UserService {
	return &UserService{Users: users}
}

func (s *UserService) Profile(id uint) (*model.User, error) {
	return s.Users.FindByID(id)
}

func (s *UserService) ListAll() ([]model.User, error) {
	return s.Users.All()
}

func (s *UserService) ListCertified() ([]model.User, error) {
	return s.Users.WithCertificates()
}

func (s *UserService) TouchLastSeen(id uint) {
	if err := s.Users.UpdateLastSeen(id); err != nil {
		logger.Log.Warn("update last seen failed", zap.Uint("user_id", id), zap.Error(err))
	}
}

// MirrorProgress copies a synced document's points and badges onto the
// account row so admin listings read one table. Best effort.
func (s *UserService) MirrorProgress(id uint, doc model.ProgressDocument) {
	if err := s.Users.UpdateProgressSummary(id, doc.Points, doc.Badges); err != nil {
		logger.Log.Warn("mirror progress summary failed", zap.Uint("user_id", id), zap.Error(err))
	}
}

// MirrorProgressByKey does the same for writes addressed by access-ID digest,
// as the server-held progress endpoints are. Unknown keys are fine: the
// document may belong to a session that never registered.
func (s *UserService) MirrorProgressByKey(accessHash string, doc model.ProgressDocument) {
	if accessHash == "" || accessHash == model.AnonymousKey {
		return
	}
	user, err := s.Users.FindByAccessHash(accessHash)
	if err != nil || user == nil {
		return
	}
	s.MirrorProgress(user.ID, doc)
}
