// internal/auth/service.go
// Password login backed by the server-side session

package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/imadgeboyega/laundry-backend/internal/session"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrNotLoggedIn        = errors.New("not logged in")
)

// Service defines the auth service interface
type Service interface {
	Login(ctx context.Context, sess *session.Session, req *LoginRequest) (*User, error)
	Logout(sess *session.Session)
}

// service implements the auth service
type service struct {
	repo   Repository
	logger *zap.Logger
}

// NewService creates a new auth service
func NewService(repo Repository, logger *zap.Logger) Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &service{repo: repo, logger: logger}
}

// Login checks the password and stores the identity in the session
func (s *service) Login(ctx context.Context, sess *session.Session, req *LoginRequest) (*User, error) {
	user, err := s.repo.GetUserByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		s.logger.Info("Failed login attempt", zap.String("username", req.Username))
		return nil, ErrInvalidCredentials
	}

	if err := StartSession(sess, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Logout forgets the session entirely
func (s *service) Logout(sess *session.Session) {
	sess.Destroy()
}

// StartSession moves the session to a new ID and writes the user's identity into it
func StartSession(sess *session.Session, user *User) error {
	sess.Renew()
	values := map[string]interface{}{
		sessionKeyID:         user.ID,
		sessionKeyUsername:   user.Username,
		sessionKeyRole:       user.Role,
		sessionKeyIsLoggedIn: true,
	}
	for key, value := range values {
		if err := sess.Set(key, value); err != nil {
			return fmt.Errorf("failed to start session: %w", err)
		}
	}
	return nil
}

// CurrentIdentity reads the logged-in user from the session
func CurrentIdentity(sess *session.Session) (*Identity, error) {
	var id Identity
	if ok, err := sess.Get(sessionKeyIsLoggedIn, &id.IsLoggedIn); err != nil || !ok || !id.IsLoggedIn {
		return nil, ErrNotLoggedIn
	}
	if _, err := sess.Get(sessionKeyID, &id.ID); err != nil {
		return nil, ErrNotLoggedIn
	}
	if _, err := sess.Get(sessionKeyUsername, &id.Username); err != nil {
		return nil, ErrNotLoggedIn
	}
	if _, err := sess.Get(sessionKeyRole, &id.Role); err != nil {
		return nil, ErrNotLoggedIn
	}
	return &id, nil
}
