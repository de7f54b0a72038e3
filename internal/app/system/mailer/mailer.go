// internal/app/system/mailer/mailer.go
package mailer

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/waffle/pantry/email"
	"github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

// Email is a single outbound message with text and HTML alternatives.
type Email struct {
	To       string
	Subject  string
	TextBody string
	HTMLBody string
}

// Sender delivers email.
type Sender interface {
	Send(ctx context.Context, e Email) error
}

// SMTPConfig holds SMTP transport settings. Port 465 uses implicit TLS;
// any other port requires STARTTLS.
type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Pass     string
	From     string
	FromName string
	Timeout  time.Duration
}

func (c SMTPConfig) waffle() email.Config {
	return email.Config{
		Host:        c.Host,
		Port:        c.Port,
		Username:    c.User,
		Password:    c.Pass,
		FromAddress: c.From,
		FromName:    c.FromName,
		UseSSL:      c.Port == 465,
		Timeout:     c.Timeout,
	}
}

// transport is the part of waffle's email.Sender that SMTP uses.
type transport interface {
	Send(ctx context.Context, msg email.Message) error
}

// SMTP sends mail through an SMTP relay using waffle's email sender.
type SMTP struct {
	tx  transport
	log *zap.Logger
}

// NewSMTP returns an SMTP sender.
func NewSMTP(cfg SMTPConfig, logger *zap.Logger) *SMTP {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SMTP{tx: email.NewSender(cfg.waffle()), log: logger}
}

// Send implements Sender.
func (s *SMTP) Send(ctx context.Context, e Email) error {
	if strings.TrimSpace(e.To) == "" {
		return fmt.Errorf("mailer: empty recipient")
	}
	err := s.tx.Send(ctx, email.Message{
		To:       []string{e.To},
		Subject:  e.Subject,
		TextBody: e.TextBody,
		HTMLBody: e.HTMLBody,
	})
	if err != nil {
		s.log.Warn("smtp send failed", zap.String("to", e.To), zap.Error(err))
		return fmt.Errorf("smtp send: %w", err)
	}
	s.log.Debug("smtp email sent", zap.String("to", e.To), zap.String("subject", e.Subject))
	return nil
}

// Resolver yields the preferred sender when one is configured.
type Resolver interface {
	ActiveSender(ctx context.Context) (Sender, bool)
}

// Routing sends through the preferred sender when the resolver reports one
// (for example a connected Gmail account) and through Fallback otherwise.
type Routing struct {
	Preferred Resolver
	Fallback  Sender
	Log       *zap.Logger
}

// Send implements Sender.
func (r *Routing) Send(ctx context.Context, e Email) error {
	if r.Preferred != nil {
		if s, ok := r.Preferred.ActiveSender(ctx); ok {
			return s.Send(ctx, e)
		}
	}
	if r.Fallback == nil {
		return fmt.Errorf("mailer: no sender configured")
	}
	return r.Fallback.Send(ctx, e)
}

// BuildMessage renders e as an RFC 5322 message, multipart/alternative when
// an HTML body is present. It is used by transports that take a raw message.
func BuildMessage(fromName, fromAddr string, e Email) ([]byte, error) {
	m := mail.NewMsg()
	var err error
	if fromName != "" {
		err = m.FromFormat(fromName, fromAddr)
	} else {
		err = m.From(fromAddr)
	}
	if err != nil {
		return nil, fmt.Errorf("mailer: invalid from address: %w", err)
	}
	if err := m.To(e.To); err != nil {
		return nil, fmt.Errorf("mailer: invalid recipient: %w", err)
	}
	m.Subject(e.Subject)
	m.SetDate()

	switch {
	case e.HTMLBody == "":
		m.SetBodyString(mail.TypeTextPlain, e.TextBody)
	case e.TextBody == "":
		m.SetBodyString(mail.TypeTextHTML, e.HTMLBody)
	default:
		m.SetBodyString(mail.TypeTextPlain, e.TextBody)
		m.AddAlternativeString(mail.TypeTextHTML, e.HTMLBody)
	}

	var b bytes.Buffer
	if _, err := m.WriteTo(&b); err != nil {
		return nil, fmt.Errorf("mailer: render message: %w", err)
	}
	return b.Bytes(), nil
}
