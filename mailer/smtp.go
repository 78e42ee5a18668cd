// Package mailer implements the notification gateway delivering one-time
// codes over SMTP.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"net/smtp"

	"go.uber.org/zap"
)

// SMTPConfig holds the connection and sender parameters.
type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	// From is the sender shown to the recipient, e.g. `"Yogiverse" <no-reply@example.com>`.
	From string
}

// SMTP sends OTP mail through a plain-auth SMTP relay.
type SMTP struct {
	config SMTPConfig
	log    *zap.Logger
}

// NewSMTP validates the configuration and returns the sender. A nil logger
// disables logging.
func NewSMTP(cfg SMTPConfig, log *zap.Logger) (*SMTP, error) {
	if cfg.Host == "" || cfg.Port == "" || cfg.Username == "" || cfg.Password == "" || cfg.From == "" {
		return nil, errors.New("incomplete smtp configuration")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &SMTP{config: cfg, log: log}, nil
}

// SendOTP delivers the code with the verification subject and body the rest
// of the system expects. net/smtp has no cancellation hook, so the context
// is only checked before dialing.
func (s *SMTP) SendOTP(ctx context.Context, email, code string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := []byte(fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: OTP Verification\r\n\r\nYour OTP is: %s. It will expire in 5 minutes.\r\n",
		s.config.From, email, code,
	))

	addr := s.config.Host + ":" + s.config.Port
	auth := smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.Host)
	if err := smtp.SendMail(addr, auth, s.config.Username, []string{email}, msg); err != nil {
		s.log.Error("otp mail send failed", zap.String("to", email), zap.Error(err))
		return err
	}

	s.log.Info("otp mail sent", zap.String("to", email))
	return nil
}
