package email

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mailgun/mailgun-go/v4"

	"github.com/coursecatalyst/identity/internal/apperrors"
	"github.com/coursecatalyst/identity/internal/logger"
)

const sendTimeout = 30 * time.Second

// Sender delivers account emails
type Sender interface {
	SendVerificationEmail(ctx context.Context, email string, code string) error
}

type MailgunConfig struct {
	Key    string
	Domain string
	From   string
}

func (c MailgunConfig) validate() error {
	if c.Key == "" || c.Domain == "" || c.From == "" {
		return errors.New("mailgun key, domain and from address must be set")
	}
	return nil
}

// MailgunSender delivers emails through the Mailgun API
type MailgunSender struct {
	mg     *mailgun.MailgunImpl
	from   string
	logger logger.Logger
}

func NewMailgunSender(cfg MailgunConfig, l logger.Logger) (*MailgunSender, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	if l == nil {
		l = logger.NewNoOpLogger()
	}

	return &MailgunSender{
		mg:     mailgun.NewMailgun(cfg.Domain, cfg.Key),
		from:   cfg.From,
		logger: l,
	}, nil
}

func (s *MailgunSender) SendVerificationEmail(ctx context.Context, email string, code string) error {
	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	subject := "Verify your email address"
	body := fmt.Sprintf("Your verification code is %s. It expires shortly, so use it soon.", code)

	message := s.mg.NewMessage(s.from, subject, body)
	if err := message.AddRecipient(email); err != nil {
		return fmt.Errorf("%w: %w", apperrors.ErrEmailSendFailed, err)
	}

	_, id, err := s.mg.Send(ctx, message)
	if err != nil {
		return fmt.Errorf("%w: %w", apperrors.ErrEmailSendFailed, err)
	}

	s.logger.Info("verification email queued", "email", email, "messageID", id)
	return nil
}

// LogSender writes codes to the log instead of sending anything.
// Meant for local development where no Mailgun credentials exist
type LogSender struct {
	logger logger.Logger
}

func NewLogSender(l logger.Logger) *LogSender {
	if l == nil {
		l = logger.NewNoOpLogger()
	}
	return &LogSender{logger: l}
}

func (s *LogSender) SendVerificationEmail(_ context.Context, email string, code string) error {
	s.logger.Info("verification code (email delivery disabled)", "email", email, "code", code)
	return nil
}
