package services

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"gopkg.in/gomail.v2"
)

type Mailer interface {
	SendResetEmail(to string, token string) error
}

type MailServiceConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	AppURL   string
}

type MailService struct {
	config MailServiceConfig
	dialer *gomail.Dialer
}

func NewMailService(config MailServiceConfig) *MailService {
	ms := &MailService{
		config: config,
	}

	if config.Host != "" {
		ms.dialer = gomail.NewDialer(config.Host, config.Port, config.Username, config.Password)
	}

	return ms
}

func (ms *MailService) ResetURL(token string) string {
	return strings.TrimRight(ms.config.AppURL, "/") + "/login/reset/" + token
}

func (ms *MailService) buildResetMessage(to string, token string) *gomail.Message {
	resetURL := ms.ResetURL(token)

	m := gomail.NewMessage()
	m.SetHeader("From", ms.config.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", "Reset your SignupVault password")
	m.SetBody("text/plain", fmt.Sprintf("You requested a password reset. Click the link below to set a new password. This link expires in 1 hour.\n\n%s\n\nIf you did not request this, you can ignore this email.", resetURL))
	m.AddAlternative("text/html", fmt.Sprintf(`<p>You requested a password reset. Click the link below to set a new password. This link expires in 1 hour.</p><p><a href="%s">%s</a></p><p>If you did not request this, you can ignore this email.</p>`, resetURL, resetURL))

	return m
}

// SendResetEmail is a no-op when no SMTP host is configured.
func (ms *MailService) SendResetEmail(to string, token string) error {
	if ms.dialer == nil {
		log.Warn().Msg("smtp is not configured, skipping reset email")
		return nil
	}

	err := ms.dialer.DialAndSend(ms.buildResetMessage(to, token))

	if err != nil {
		return fmt.Errorf("failed to send reset email: %w", err)
	}

	return nil
}
