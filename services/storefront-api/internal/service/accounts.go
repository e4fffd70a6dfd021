package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"storefront-backend/services/storefront-api/internal/auth"
	"storefront-backend/services/storefront-api/internal/repo"
	"storefront-backend/shared/pkg/models"
)

type RateLimiter interface {
	Hit(ctx context.Context, key string, window time.Duration) (int64, error)
}

type TokenIssuer interface {
	Issue(userID, email string) (string, error)
}

type TestUser struct {
	Email    string
	Password string
	Name     string
}

type Accounts struct {
	Users   UserStore
	Limiter RateLimiter
	Tokens  TokenIssuer
	Log     zerolog.Logger

	AppBaseURL  string
	ResetTTL    time.Duration
	ResetLimit  int
	ResetWindow time.Duration
	TestUser    TestUser

	Now func() time.Time
}

// dummyHash is compared against when the email is unknown so that login takes
// the same time for existing and missing accounts.
const dummyHash = "$2a$10$7EqJtq98hPqEX7fNZaFWoOhi5BWX4Z6VqkQbJ0F3gGe5tWvZ5kY6W"

func (s *Accounts) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Accounts) Login(ctx context.Context, rawEmail, password string) (string, models.User, error) {
	email, err := NormalizeEmail(rawEmail)
	if err != nil {
		return "", models.User{}, err
	}
	if password == "" {
		return "", models.User{}, fmt.Errorf("%w: password is required", ErrInvalidInput)
	}

	u, err := s.Users.GetByEmail(ctx, email)
	if errors.Is(err, repo.ErrNotFound) {
		_, _ = auth.CheckPassword(dummyHash, password)
		return "", models.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return "", models.User{}, err
	}

	ok, err := auth.CheckPassword(u.PasswordHash, password)
	if err != nil {
		return "", models.User{}, err
	}
	if !ok {
		return "", models.User{}, ErrInvalidCredentials
	}

	token, err := s.Tokens.Issue(u.ID, u.Email)
	if err != nil {
		return "", models.User{}, err
	}
	return token, u, nil
}

type UserStatus struct {
	Exists      bool `json:"exists"`
	HasPassword bool `json:"has_password"`
}

func (s *Accounts) CheckUser(ctx context.Context, rawEmail string) (UserStatus, error) {
	email, err := NormalizeEmail(rawEmail)
	if err != nil {
		return UserStatus{}, err
	}
	u, err := s.Users.GetByEmail(ctx, email)
	if errors.Is(err, repo.ErrNotFound) {
		return UserStatus{}, nil
	}
	if err != nil {
		return UserStatus{}, err
	}
	return UserStatus{Exists: true, HasPassword: u.HasPassword()}, nil
}

// ForgotPassword stores a reset token on the user and queues the reset email.
// Unknown emails and rate-limited requests return nil, exactly like a success.
func (s *Accounts) ForgotPassword(ctx context.Context, rawEmail string) error {
	email, err := NormalizeEmail(rawEmail)
	if err != nil {
		return err
	}

	if s.Limiter != nil && s.ResetLimit > 0 {
		n, err := s.Limiter.Hit(ctx, "ratelimit:forgot-password:"+email, s.ResetWindow)
		if err != nil {
			s.Log.Warn().Err(err).Msg("forgot-password rate limiter unavailable")
		} else if n > int64(s.ResetLimit) {
			s.Log.Info().Int64("hits", n).Msg("forgot-password rate limited")
			return nil
		}
	}

	_, err = patchUser(ctx, s.Users, byEmail(s.Users, email), func(u *models.User) ([]models.OutboxMessage, error) {
		token, hash, err := auth.NewResetToken()
		if err != nil {
			return nil, err
		}
		expires := s.now().Add(s.ResetTTL).UTC()
		u.ResetTokenHash = hash
		u.ResetTokenExpiresAt = &expires

		evt := models.NewPasswordResetRequestedEvent(u.ID, models.PasswordResetRequested{
			Email:     u.Email,
			Name:      u.Name,
			ResetURL:  s.resetURL(token),
			ExpiresAt: expires,
		})
		return []models.OutboxMessage{evt.Outbox()}, nil
	})
	if errors.Is(err, repo.ErrNotFound) {
		return nil
	}
	return err
}

func (s *Accounts) resetURL(token string) string {
	return strings.TrimRight(s.AppBaseURL, "/") + "/reset-password?token=" + url.QueryEscape(token)
}

func (s *Accounts) ResetPassword(ctx context.Context, token, password string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrInvalidResetToken
	}
	if err := checkPasswordLength(password); err != nil {
		return err
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	tokenHash := auth.HashResetToken(token)
	load := func(ctx context.Context) (models.User, error) {
		u, err := s.Users.GetByResetTokenHash(ctx, tokenHash)
		if errors.Is(err, repo.ErrNotFound) {
			return models.User{}, ErrInvalidResetToken
		}
		return u, err
	}

	_, err = patchUser(ctx, s.Users, load, func(u *models.User) ([]models.OutboxMessage, error) {
		if u.ResetTokenExpiresAt == nil || !s.now().Before(*u.ResetTokenExpiresAt) {
			return nil, ErrInvalidResetToken
		}
		u.PasswordHash = hash
		u.ResetTokenHash = ""
		u.ResetTokenExpiresAt = nil

		evt := models.NewPasswordChangedEvent(u.ID, models.PasswordChanged{
			Email:     u.Email,
			Name:      u.Name,
			ChangedAt: s.now().UTC(),
		})
		return []models.OutboxMessage{evt.Outbox()}, nil
	})
	return err
}

// ResetTestUser wipes every user and recreates the configured test account.
func (s *Accounts) ResetTestUser(ctx context.Context) (models.User, error) {
	email, err := NormalizeEmail(s.TestUser.Email)
	if err != nil {
		return models.User{}, err
	}
	hash, err := auth.HashPassword(s.TestUser.Password)
	if err != nil {
		return models.User{}, err
	}
	return s.Users.ReplaceAll(ctx, models.User{Email: email, PasswordHash: hash, Name: s.TestUser.Name})
}
