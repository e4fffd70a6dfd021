package service

import (
	"context"
	"errors"

	"storefront-backend/services/storefront-api/internal/repo"
	"storefront-backend/shared/pkg/models"
)

type OrderStore interface {
	ListByEmail(ctx context.Context, email string) ([]models.Order, error)
	ListByEmailOrUser(ctx context.Context, email, userID string) ([]models.Order, error)
}

type UserLookup interface {
	GetByEmail(ctx context.Context, email string) (models.User, error)
}

type Orders struct {
	Orders OrderStore
	Users  UserLookup
}

func (s *Orders) ListByEmail(ctx context.Context, email string) ([]models.Order, error) {
	return s.Orders.ListByEmail(ctx, email)
}

// ListForAccount resolves the user document first so orders linked by user
// reference are included. Without a user document it degrades to the email match.
func (s *Orders) ListForAccount(ctx context.Context, email string) ([]models.Order, error) {
	u, err := s.Users.GetByEmail(ctx, email)
	if errors.Is(err, repo.ErrNotFound) {
		return s.Orders.ListByEmail(ctx, email)
	}
	if err != nil {
		return nil, err
	}
	return s.Orders.ListByEmailOrUser(ctx, email, u.ID)
}
