package payments

import (
	"context"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/paymentintent"
)

type intentAPI interface {
	Get(id string, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
	Cancel(id string, params *stripe.PaymentIntentCancelParams) (*stripe.PaymentIntent, error)
}

type Stripe struct {
	api intentAPI
}

func NewStripe(secretKey string) *Stripe {
	return &Stripe{api: &paymentintent.Client{B: stripe.GetBackend(stripe.APIBackend), Key: secretKey}}
}

func (s *Stripe) Name() string { return "stripe" }

func (s *Stripe) GetIntent(ctx context.Context, id string) (Intent, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	pi, err := s.api.Get(id, params)
	if err != nil {
		return Intent{}, fmt.Errorf("stripe get payment intent %s: %w", id, err)
	}
	return fromStripe(pi), nil
}

var stripeCancelReasons = map[string]bool{
	string(stripe.PaymentIntentCancellationReasonAbandoned):           true,
	string(stripe.PaymentIntentCancellationReasonDuplicate):           true,
	string(stripe.PaymentIntentCancellationReasonFraudulent):          true,
	string(stripe.PaymentIntentCancellationReasonRequestedByCustomer): true,
}

func (s *Stripe) CancelIntent(ctx context.Context, id, reason string) (Intent, error) {
	params := &stripe.PaymentIntentCancelParams{}
	params.Context = ctx
	if reason != "" {
		if !stripeCancelReasons[reason] {
			return Intent{}, fmt.Errorf("%w: %q", ErrInvalidCancelCause, reason)
		}
		params.CancellationReason = stripe.String(reason)
	}
	pi, err := s.api.Cancel(id, params)
	if err != nil {
		return Intent{}, fmt.Errorf("stripe cancel payment intent %s: %w", id, err)
	}
	return fromStripe(pi), nil
}

func fromStripe(pi *stripe.PaymentIntent) Intent {
	md := pi.Metadata
	if md == nil {
		md = map[string]string{}
	}
	return Intent{
		ID:                 pi.ID,
		Status:             string(pi.Status),
		Amount:             pi.Amount,
		AmountReceived:     pi.AmountReceived,
		Currency:           string(pi.Currency),
		Metadata:           md,
		Created:            time.Unix(pi.Created, 0).UTC(),
		CancellationReason: string(pi.CancellationReason),
	}
}
