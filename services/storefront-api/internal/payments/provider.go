package payments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront-backend/shared/pkg/config"
)

var (
	ErrUnknownProvider    = errors.New("unknown payment provider")
	ErrInvalidCancelCause = errors.New("invalid cancellation reason")
)

// Intent is the processor-neutral view of a payment intent (or charge).
type Intent struct {
	ID                 string            `json:"id"`
	Status             string            `json:"status"`
	Amount             int64             `json:"amount"`
	AmountReceived     int64             `json:"amount_received"`
	Currency           string            `json:"currency"`
	Metadata           map[string]string `json:"metadata"`
	Created            time.Time         `json:"created"`
	CancellationReason string            `json:"cancellation_reason,omitempty"`
}

type Provider interface {
	Name() string
	GetIntent(ctx context.Context, id string) (Intent, error)
	CancelIntent(ctx context.Context, id, reason string) (Intent, error)
}

// New picks the provider named in cfg.
func New(cfg config.PaymentsConfig) (Provider, error) {
	switch cfg.Provider {
	case "stripe":
		return NewStripe(cfg.StripeSecretKey), nil
	case "omise":
		return NewOmise(cfg.OmisePublicKey, cfg.OmiseSecretKey)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, cfg.Provider)
	}
}
