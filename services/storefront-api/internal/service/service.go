package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"storefront-backend/services/storefront-api/internal/repo"
	"storefront-backend/shared/pkg/models"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidResetToken  = errors.New("invalid or expired reset token")
	ErrWeakPassword       = errors.New("password must be 8 to 72 bytes long")
	ErrAddressNotFound    = errors.New("address not found")
)

// UserStore is the user document store. Update is a compare-and-swap on Version.
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (models.User, error)
	GetByResetTokenHash(ctx context.Context, hash string) (models.User, error)
	Update(ctx context.Context, u models.User, events ...models.OutboxMessage) (models.User, error)
	ReplaceAll(ctx context.Context, u models.User) (models.User, error)
}

// NormalizeEmail lower-cases and validates a bare email address.
func NormalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return "", fmt.Errorf("%w: email is required", ErrInvalidInput)
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", fmt.Errorf("%w: malformed email", ErrInvalidInput)
	}
	return email, nil
}

const (
	maxPatchAttempts = 3

	minPasswordLen = 8
	// bcrypt rejects anything longer.
	maxPasswordLen = 72
)

func checkPasswordLength(password string) error {
	if len(password) < minPasswordLen || len(password) > maxPasswordLen {
		return ErrWeakPassword
	}
	return nil
}

// patchUser runs load, mutate, Update and starts over from load when another
// writer bumped the version in between.
func patchUser(
	ctx context.Context,
	users UserStore,
	load func(ctx context.Context) (models.User, error),
	mutate func(u *models.User) ([]models.OutboxMessage, error),
) (models.User, error) {
	return patchUserN(ctx, users, maxPatchAttempts, load, mutate)
}

// patchUserN is patchUser with an explicit attempt budget. Mutations that are
// only meaningful against the state the client saw (positional edits) pass 1
// so a conflict surfaces as repo.ErrVersionConflict instead of being replayed.
func patchUserN(
	ctx context.Context,
	users UserStore,
	attempts int,
	load func(ctx context.Context) (models.User, error),
	mutate func(u *models.User) ([]models.OutboxMessage, error),
) (models.User, error) {
	for attempt := 1; ; attempt++ {
		u, err := load(ctx)
		if err != nil {
			return models.User{}, err
		}
		events, err := mutate(&u)
		if err != nil {
			return models.User{}, err
		}
		updated, err := users.Update(ctx, u, events...)
		if errors.Is(err, repo.ErrVersionConflict) && attempt < attempts {
			continue
		}
		return updated, err
	}
}

func byEmail(users UserStore, email string) func(ctx context.Context) (models.User, error) {
	return func(ctx context.Context) (models.User, error) {
		return users.GetByEmail(ctx, email)
	}
}
