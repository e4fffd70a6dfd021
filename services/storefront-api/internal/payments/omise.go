package payments

import (
	"context"
	"fmt"

	"github.com/omise/omise-go"
	"github.com/omise/omise-go/operations"
)

// Omise maps charges onto intents. Cancelling a charge reverses it.
type Omise struct {
	retrieve func(id string) (*omise.Charge, error)
	reverse  func(id string) (*omise.Charge, error)
}

func NewOmise(publicKey, secretKey string) (*Omise, error) {
	c, err := omise.NewClient(publicKey, secretKey)
	if err != nil {
		return nil, fmt.Errorf("omise client: %w", err)
	}

	return &Omise{
		retrieve: func(id string) (*omise.Charge, error) {
			ch := &omise.Charge{}
			return ch, c.Do(ch, &operations.RetrieveCharge{ChargeID: id})
		},
		reverse: func(id string) (*omise.Charge, error) {
			ch := &omise.Charge{}
			return ch, c.Do(ch, &operations.ReverseCharge{ChargeID: id})
		},
	}, nil
}

func (o *Omise) Name() string { return "omise" }

func (o *Omise) GetIntent(ctx context.Context, id string) (Intent, error) {
	if err := ctx.Err(); err != nil {
		return Intent{}, err
	}
	ch, err := o.retrieve(id)
	if err != nil {
		return Intent{}, fmt.Errorf("omise retrieve charge %s: %w", id, err)
	}
	return fromOmise(ch), nil
}

func (o *Omise) CancelIntent(ctx context.Context, id, reason string) (Intent, error) {
	if err := ctx.Err(); err != nil {
		return Intent{}, err
	}
	ch, err := o.reverse(id)
	if err != nil {
		return Intent{}, fmt.Errorf("omise reverse charge %s: %w", id, err)
	}
	in := fromOmise(ch)
	in.CancellationReason = reason
	return in, nil
}

func fromOmise(ch *omise.Charge) Intent {
	md := make(map[string]string, len(ch.Metadata))
	for k, v := range ch.Metadata {
		md[k] = fmt.Sprint(v)
	}
	var received int64
	if ch.Paid {
		received = ch.Amount
	}
	return Intent{
		ID:             ch.ID,
		Status:         string(ch.Status),
		Amount:         ch.Amount,
		AmountReceived: received,
		Currency:       ch.Currency,
		Metadata:       md,
		Created:        ch.Created.UTC(),
	}
}
