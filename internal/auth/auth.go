// Package auth signs visitors in and out. In mock mode any well-formed
// credentials are accepted and the role is guessed from the email, as the
// demo site does; verified mode checks bcrypt hashes against the store.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"highrise/internal/config"
	"highrise/internal/models"
)

// Store is the user persistence auth needs.
type Store interface {
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	CreateUser(ctx context.Context, u *models.User) error
}

type Service struct {
	store Store
	mode  string
	cost  int
	log   *zap.Logger
	now   func() time.Time
}

func NewService(store Store, cfg config.Auth, log *zap.Logger) *Service {
	return &Service{store: store, mode: cfg.Mode, cost: cfg.BcryptCost, log: log, now: time.Now}
}

// Hash hashes password at the configured cost.
func (s *Service) Hash(password string) (string, error) {
	return HashPassword(password, s.cost)
}

// roleFor guesses a role from the address: anything mentioning "admin" is
// an administrator.
func roleFor(email string) models.Role {
	if strings.Contains(strings.ToLower(email), "admin") {
		return models.RoleAdmin
	}
	return models.RoleUser
}

// userID is stable per address so a mock user keeps authorship across
// sessions.
func userID(email string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("mailto:"+strings.ToLower(email))).String()
}

// Login returns the user for the given credentials.
func (s *Service) Login(ctx context.Context, email, password string) (*models.User, error) {
	email = strings.TrimSpace(email)
	if err := finish(validateCredentials(email, password)); err != nil {
		return nil, err
	}

	u, err := s.store.FindUserByEmail(ctx, email)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("find user: %w", err)
	}

	if s.mode == config.AuthModeVerified {
		if u == nil || !checkPassword(u.PasswordHash, password) {
			s.log.Info("login rejected", zap.String("email", email))
			return nil, ErrInvalidCredentials
		}
		return u, nil
	}

	if u == nil {
		if u, err = s.createUser(ctx, email, password, roleFor(email)); err != nil {
			return nil, err
		}
	}
	u.Role = roleFor(email)
	return u, nil
}

// Register creates an account with the user role. password must equal
// confirm.
func (s *Service) Register(ctx context.Context, email, password, confirm string) (*models.User, error) {
	email = strings.TrimSpace(email)
	errs := validateCredentials(email, password)
	if password != confirm {
		errs[FieldConfirmPassword] = "Passwords do not match"
	}
	if err := finish(errs); err != nil {
		return nil, err
	}

	existing, err := s.store.FindUserByEmail(ctx, email)
	switch {
	case err == nil:
		if s.mode == config.AuthModeVerified {
			return nil, ErrEmailAlreadyRegistered
		}
		existing.Role = models.RoleUser
		return existing, nil
	case !errors.Is(err, models.ErrNotFound):
		return nil, fmt.Errorf("find user: %w", err)
	}
	return s.createUser(ctx, email, password, models.RoleUser)
}

func (s *Service) createUser(ctx context.Context, email, password string, role models.Role) (*models.User, error) {
	hash, err := s.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &models.User{
		ID:           userID(email),
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    s.now(),
	}
	if err := s.store.CreateUser(ctx, u); err != nil {
		if errors.Is(err, models.ErrDuplicateEmail) {
			return nil, ErrEmailAlreadyRegistered
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	s.log.Info("user created", zap.String("id", u.ID), zap.String("role", string(u.Role)))
	return u, nil
}

// RequestPasswordReset records a reset request. The outcome never reveals
// whether the address has an account.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if !ValidEmail(email) {
		return ValidationErrors{FieldEmail: "Please enter a valid email address"}
	}
	_, err := s.store.FindUserByEmail(ctx, email)
	known := err == nil
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return fmt.Errorf("find user: %w", err)
	}
	s.log.Info("password reset requested", zap.String("email", email), zap.Bool("known", known))
	return nil
}
