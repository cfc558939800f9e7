package notification

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// SMTPEmail sends mail through an SMTP relay.
type SMTPEmail struct {
	dialer *gomail.Dialer
	from   string
	logger *zap.Logger
}

// NewSMTPEmail configures a sender for host:port with the given credentials.
func NewSMTPEmail(host string, port int, user, password, from string, logger *zap.Logger) *SMTPEmail {
	if logger == nil {
		logger = zap.NewNop()
	}
	if from == "" {
		from = user
	}
	return &SMTPEmail{
		dialer: gomail.NewDialer(host, port, user, password),
		from:   from,
		logger: logger,
	}
}

// BuildMessage assembles the email without sending it.
func (s *SMTPEmail) BuildMessage(to, subject, htmlBody string) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", htmlBody)
	return m
}

// SendEmail delivers one message. gomail has no context support, so ctx is
// only checked before dialing.
func (s *SMTPEmail) SendEmail(ctx context.Context, to, subject, htmlBody string) error {
	if s.dialer.Host == "" {
		return errors.New("smtp: host not configured")
	}
	if to == "" {
		return errors.New("smtp: recipient required")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.dialer.DialAndSend(s.BuildMessage(to, subject, htmlBody)); err != nil {
		return fmt.Errorf("smtp: send to %s: %w", to, err)
	}
	s.logger.Debug("Email sent", zap.String("to", to), zap.String("subject", subject))
	return nil
}
