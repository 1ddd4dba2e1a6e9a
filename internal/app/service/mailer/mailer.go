// Package mailer sends reminder mails over SMTP. It is injected into the
// reminder batch behind the Notifier interface so batch logic is testable
// without a mail relay.
package mailer

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	gomail "gopkg.in/gomail.v2"

	"github.com/subwatch/subwatch/internal/app/service/reminder"
	"github.com/subwatch/subwatch/internal/models"
	"github.com/subwatch/subwatch/pkg/config"
	"github.com/subwatch/subwatch/pkg/tool"
)

type Service struct {
	cfg *config.SMTPConfig
	log *zap.SugaredLogger
}

func NewService(cfg *config.Config, log *zap.SugaredLogger) *Service {
	return &Service{cfg: &cfg.SMTP, log: log}
}

var _ reminder.Notifier = (*Service)(nil)

// Send delivers one payment reminder. The returned message id is locally
// generated and stamped on the mail so delivery can be traced in the
// relay's logs.
func (s *Service) Send(ctx context.Context, user *models.User, sub *models.Subscription) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	subject, text, html, err := renderReminder(user, sub, time.Now(), s.cfg.FrontendURL)
	if err != nil {
		return "", err
	}

	msgID := fmt.Sprintf("<%s@subwatch>", tool.GenerateUUIDV7())
	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.cfg.FromAddr, s.cfg.FromName)
	m.SetHeader("To", user.Email)
	m.SetHeader("Subject", subject)
	m.SetHeader("Message-Id", msgID)
	m.SetBody("text/plain", text)
	m.AddAlternative("text/html", html)

	if err := s.dialer().DialAndSend(m); err != nil {
		return "", fmt.Errorf("smtp send failed: %w", err)
	}
	s.log.Infow("reminder mail sent", "to", user.Email, "message_id", msgID)
	return msgID, nil
}

// SendTest delivers a short configuration check mail to the given address.
func (s *Service) SendTest(ctx context.Context, to string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	msgID := fmt.Sprintf("<%s@subwatch>", tool.GenerateUUIDV7())
	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.cfg.FromAddr, s.cfg.FromName)
	m.SetHeader("To", to)
	m.SetHeader("Subject", "Email configuration test")
	m.SetHeader("Message-Id", msgID)
	m.SetBody("text/plain", fmt.Sprintf("Email configuration works. Sent at %s.", time.Now().Format(time.RFC3339)))

	if err := s.dialer().DialAndSend(m); err != nil {
		return "", fmt.Errorf("smtp send failed: %w", err)
	}
	return msgID, nil
}

func (s *Service) dialer() *gomail.Dialer {
	return gomail.NewDialer(s.cfg.Host, s.cfg.Port, s.cfg.Username, s.cfg.Password)
}
