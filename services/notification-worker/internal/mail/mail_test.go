package mail

import (
	"context"
	"encoding/json"
	"errors"
	"net/smtp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-backend/shared/pkg/config"
	"storefront-backend/shared/pkg/models"
)

func TestRenderReset(t *testing.T) {
	p, _ := json.Marshal(models.PasswordResetRequested{
		Email: "ann@example.com", Name: "Ann",
		ResetURL:  "https://shop.example.com/reset-password?token=abc",
		ExpiresAt: time.Date(2024, 5, 1, 13, 0, 0, 0, time.UTC),
	})
	m, err := Render(models.EventPasswordResetRequested, p)
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", m.To)
	assert.Equal(t, "Reset your password", m.Subject)
	assert.Contains(t, m.Body, "Hi Ann,")
	assert.Contains(t, m.Body, "https://shop.example.com/reset-password?token=abc")
	assert.Contains(t, m.Body, "2024-05-01 13:00 UTC")
}

func TestRenderChangedWithoutName(t *testing.T) {
	p, _ := json.Marshal(models.PasswordChanged{Email: "ann@example.com", ChangedAt: time.Now()})
	m, err := Render(models.EventPasswordChanged, p)
	require.NoError(t, err)
	assert.Contains(t, m.Body, "Hi,")
}

func TestRenderErrors(t *testing.T) {
	_, err := Render("orders.created", json.RawMessage(`{}`))
	assert.ErrorIs(t, err, ErrUnknownEvent)

	_, err = Render(models.EventPasswordChanged, json.RawMessage(`{"email":""}`))
	assert.Error(t, err)

	_, err = Render(models.EventPasswordChanged, json.RawMessage(`not json`))
	assert.Error(t, err)
}

func TestSMTPMailerSend(t *testing.T) {
	var (
		gotAddr string
		gotFrom string
		gotTo   []string
		gotMsg  string
	)
	orig := sendMail
	sendMail = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, string(msg)
		return nil
	}
	t.Cleanup(func() { sendMail = orig })

	m, err := NewSMTPMailer(config.SMTPConfig{Host: "mailhog", Port: 1025, From: "Storefront <no-reply@storefront.local>"})
	require.NoError(t, err)

	require.NoError(t, m.Send(context.Background(), Message{To: "ann@example.com", Subject: "Hello", Body: "body"}))
	assert.Equal(t, "mailhog:1025", gotAddr)
	assert.Equal(t, "no-reply@storefront.local", gotFrom)
	assert.Equal(t, []string{"ann@example.com"}, gotTo)
	assert.Contains(t, gotMsg, "Subject: Hello\r\n")
	assert.Contains(t, gotMsg, "\r\n\r\nbody")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.True(t, errors.Is(m.Send(ctx, Message{To: "ann@example.com"}), context.Canceled))
}

func TestNewSMTPMailerBadFrom(t *testing.T) {
	_, err := NewSMTPMailer(config.SMTPConfig{Host: "h", Port: 25, From: "not an address"})
	assert.Error(t, err)
}
