// Package mailer sends the account verification emails.
package mailer

import (
	"context"
	"errors"
	"fmt"

	"github.com/dalemusser/waffle/pantry/email"
	"go.uber.org/zap"
)

// Email is one outgoing message.
type Email struct {
	To       string
	Subject  string
	TextBody string
	HTMLBody string
}

// Config holds SMTP settings. Port 465 uses implicit TLS; any other port
// requires STARTTLS.
type Config struct {
	Host     string
	Port     int
	User     string
	Pass     string
	From     string
	FromName string
}

type sender interface {
	Send(ctx context.Context, msg email.Message) error
}

// Mailer sends Email through an SMTP relay.
type Mailer struct {
	sender sender
	log    *zap.Logger
}

// New creates a Mailer.
func New(cfg Config, logger *zap.Logger) *Mailer {
	return &Mailer{
		sender: email.NewSender(email.Config{
			Host:        cfg.Host,
			Port:        cfg.Port,
			Username:    cfg.User,
			Password:    cfg.Pass,
			FromAddress: cfg.From,
			FromName:    cfg.FromName,
			UseSSL:      cfg.Port == 465,
		}),
		log: logger,
	}
}

// Send delivers e.
func (m *Mailer) Send(ctx context.Context, e Email) error {
	if e.To == "" {
		return errors.New("mailer: empty recipient")
	}
	err := m.sender.Send(ctx, email.Message{
		To:       []string{e.To},
		Subject:  e.Subject,
		TextBody: e.TextBody,
		HTMLBody: e.HTMLBody,
	})
	if err != nil {
		m.log.Error("failed to send email",
			zap.String("to", e.To),
			zap.String("subject", e.Subject),
			zap.Error(err))
		return fmt.Errorf("send mail: %w", err)
	}
	m.log.Info("email sent", zap.String("to", e.To), zap.String("subject", e.Subject))
	return nil
}
