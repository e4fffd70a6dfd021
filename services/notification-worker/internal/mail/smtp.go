package mail

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"net"
	netmail "net/mail"
	"net/smtp"
	"strconv"
	"time"

	"storefront-backend/shared/pkg/config"
)

type Mailer interface {
	Send(ctx context.Context, m Message) error
}

var sendMail = smtp.SendMail

type SMTPMailer struct {
	addr string
	auth smtp.Auth
	from *netmail.Address
	now  func() time.Time
}

func NewSMTPMailer(cfg config.SMTPConfig) (*SMTPMailer, error) {
	from, err := netmail.ParseAddress(cfg.From)
	if err != nil {
		return nil, fmt.Errorf("parse SMTP_FROM: %w", err)
	}
	m := &SMTPMailer{
		addr: net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		from: from,
		now:  time.Now,
	}
	if cfg.Username != "" {
		m.auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}
	return m, nil
}

// Send hands the message to the relay. net/smtp has no context support, so
// ctx is only checked before dialing.
func (s *SMTPMailer) Send(ctx context.Context, m Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	to, err := netmail.ParseAddress(m.To)
	if err != nil {
		return fmt.Errorf("parse recipient: %w", err)
	}
	return sendMail(s.addr, s.auth, s.from.Address, []string{to.Address}, s.compose(to, m))
}

func (s *SMTPMailer) compose(to *netmail.Address, m Message) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "From: %s\r\n", s.from.String())
	fmt.Fprintf(&b, "To: %s\r\n", to.String())
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", m.Subject))
	fmt.Fprintf(&b, "Date: %s\r\n", s.now().Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(m.Body)
	return b.Bytes()
}
