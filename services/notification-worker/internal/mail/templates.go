package mail

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"text/template"

	"storefront-backend/shared/pkg/models"
)

var ErrUnknownEvent = errors.New("no email for event type")

// Message is a rendered plain-text email.
type Message struct {
	To      string
	Subject string
	Body    string
}

var (
	resetTmpl = template.Must(template.New("reset").Parse(`Hi{{with .Name}} {{.}}{{end}},

We received a request to reset the password for your account.
Open the link below to choose a new password:

{{.ResetURL}}

The link expires at {{.ExpiresAt.UTC.Format "2006-01-02 15:04 MST"}}.
If you did not ask for this, you can ignore this email.
`))

	changedTmpl = template.Must(template.New("changed").Parse(`Hi{{with .Name}} {{.}}{{end}},

The password for your account was changed on {{.ChangedAt.UTC.Format "2006-01-02 15:04 MST"}}.
If this was not you, reset your password right away and contact support.
`))
)

// Render builds the email for an event payload.
func Render(eventType string, payload json.RawMessage) (Message, error) {
	switch eventType {
	case models.EventPasswordResetRequested:
		var p models.PasswordResetRequested
		if err := json.Unmarshal(payload, &p); err != nil {
			return Message{}, fmt.Errorf("decode %s: %w", eventType, err)
		}
		return render(p.Email, "Reset your password", resetTmpl, p)
	case models.EventPasswordChanged:
		var p models.PasswordChanged
		if err := json.Unmarshal(payload, &p); err != nil {
			return Message{}, fmt.Errorf("decode %s: %w", eventType, err)
		}
		return render(p.Email, "Your password was changed", changedTmpl, p)
	default:
		return Message{}, fmt.Errorf("%w: %s", ErrUnknownEvent, eventType)
	}
}

func render(to, subject string, t *template.Template, data any) (Message, error) {
	if to == "" {
		return Message{}, errors.New("recipient is empty")
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return Message{}, err
	}
	return Message{To: to, Subject: subject, Body: buf.String()}, nil
}
