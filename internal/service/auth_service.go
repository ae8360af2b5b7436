package service

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"cybersafe_backend/internal/model"
	"cybersafe_backend/internal/repository"
	"cybersafe_backend/internal/util"
)

var ErrDisplayNameRequired = errors.New("display name required")

// accessAlphabet avoids characters learners misread (0/O, 1/I/L).
const accessAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

// AuthService registers learners and issues sessions. There are no
// passwords: each learner gets a random access ID at registration, shown
// once in the response and never stored in clear. Lookup uses the SHA-256
// digest; verification uses a bcrypt check on top.
type AuthService struct {
	Users         *repository.UserRepository
	JWTSecret     string
	JWTExpiration time.Duration
}

func NewAuthService(users *repository.UserRepository, secret string, expiration time.Duration) *AuthService {
	return &AuthService{Users: users, JWTSecret: secret, JWTExpiration: expiration}
}

// HashAccessID returns the deterministic digest used as the lookup key.
func HashAccessID(accessID string) string {
	sum := sha256.Sum256([]byte(normalizeAccessID(accessID)))
	return hex.EncodeToString(sum[:])
}

func normalizeAccessID(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}

// GenerateAccessID produces a new credential: four groups of four characters
// from the unambiguous alphabet.
func GenerateAccessID() (string, error) {
	raw := make([]byte, 16)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	var b strings.Builder
	for i, r := range raw {
		if i > 0 && i%4 == 0 {
			b.WriteByte('-')
		}
		b.WriteByte(accessAlphabet[int(r)%len(accessAlphabet)])
	}
	return b.String(), nil
}

// Register creates a learner account and returns it together with the
// plaintext access ID. The ID appears only in this return value.
func (s *AuthService) Register(displayName, email string, isAdmin bool) (*model.User, string, error) {
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return nil, "", ErrDisplayNameRequired
	}

	accessID, err := GenerateAccessID()
	if err != nil {
		return nil, "", fmt.Errorf("generate access ID: %w", err)
	}
	check, err := bcrypt.GenerateFromPassword([]byte(normalizeAccessID(accessID)), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", err
	}

	user := &model.User{
		DisplayName: displayName,
		Email:       strings.TrimSpace(email),
		AccessHash:  HashAccessID(accessID),
		AccessCheck: check,
		IsAdmin:     isAdmin,
		Badges:      []string{},
		LastLogin:   time.Now(),
		LastSeen:    time.Now(),
	}
	if err := s.Users.Create(user); err != nil {
		return nil, "", err
	}
	return user, accessID, nil
}

// Login resolves an access ID to its account and issues a JWT. The digest
// lookup and bcrypt check both have to pass.
func (s *AuthService) Login(accessID string) (*model.User, string, error) {
	normalized := normalizeAccessID(accessID)
	if normalized == "" {
		return nil, "", util.ErrInvalidCredentials
	}

	hash := HashAccessID(normalized)
	user, err := s.Users.FindByAccessHash(hash)
	if err != nil {
		if errors.Is(err, util.ErrUserNotFound) {
			return nil, "", util.ErrInvalidCredentials
		}
		return nil, "", err
	}

	if subtle.ConstantTimeCompare([]byte(user.AccessHash), []byte(hash)) != 1 {
		return nil, "", util.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(user.AccessCheck, []byte(normalized)); err != nil {
		return nil, "", util.ErrInvalidCredentials
	}

	if err := s.Users.UpdateLastLogin(user.ID); err != nil {
		return nil, "", err
	}

	token, err := util.GenerateJWT(user, normalized, s.JWTSecret, s.JWTExpiration)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}
