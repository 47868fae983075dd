package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/yaaadiiiiiiii/Campus-Event-Management-System/internal/models"
	"github.com/yaaadiiiiiiii/Campus-Event-Management-System/internal/repository"
)

// AuthService performs login against the user directory. Passwords are
// compared verbatim; the user file is the only credential source.
type AuthService struct {
	users repository.UserStore
	log   *zap.Logger
}

// NewAuthService constructs an AuthService.
func NewAuthService(users repository.UserStore, log *zap.Logger) *AuthService {
	return &AuthService{users: users, log: log}
}

// Login authenticates a user id and password and returns the user. The
// error messages distinguish an empty id from bad credentials so the caller
// can show something actionable.
func (s *AuthService) Login(ctx context.Context, id, password string) (*models.User, error) {
	if id == "" {
		return nil, fmt.Errorf("student or staff id is required")
	}
	user, err := s.users.Authenticate(ctx, id, password)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) || errors.Is(err, repository.ErrInvalidCredentials) {
			s.log.Info("failed login", zap.String("user", id))
			return nil, fmt.Errorf("invalid user id or password, check and retry")
		}
		return nil, fmt.Errorf("login: %w", err)
	}
	s.log.Info("user logged in", zap.String("user", user.ID), zap.String("role", string(user.Role)))
	return user, nil
}
