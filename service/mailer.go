package service

import (
	"fmt"

	"go-bank-ledger/config"

	"gopkg.in/gomail.v2"
)

// Mailer delivers one-time codes out of band.
type Mailer interface {
	SendResetCode(to, code string) error
}

// SMTPMailer sends mail through the configured SMTP relay.
type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPMailer(cfg *config.Config) *SMTPMailer {
	return &SMTPMailer{
		dialer: gomail.NewDialer(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password),
		from:   cfg.SMTP.From,
	}
}

func (m *SMTPMailer) SendResetCode(to, code string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", "Password Reset Code")
	msg.SetBody("text/html", fmt.Sprintf(`
		<h2>Password reset</h2>
		<p>Your one-time code is: <b>%s</b></p>
		<p>It expires in 10 minutes. If you did not request a reset, ignore this mail.</p>
	`, code))

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("could not send reset code: %w", err)
	}
	return nil
}
