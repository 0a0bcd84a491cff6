package notify

import (
	"fmt"

	"price-tracker/internal/config"

	"gopkg.in/gomail.v2"
)

// SMTPMailer sends through an authenticated SMTP relay, one connection per message.
type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
	to     string
}

func NewSMTPMailer(cfg config.MailConfig) *SMTPMailer {
	return &SMTPMailer{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.From, cfg.Password),
		from:   cfg.From,
		to:     cfg.To,
	}
}

func (m *SMTPMailer) Send(msg Message) error {
	if err := m.dialer.DialAndSend(m.message(msg)); err != nil {
		return fmt.Errorf("smtp send to %s: %w", m.to, err)
	}
	return nil
}

func (m *SMTPMailer) message(msg Message) *gomail.Message {
	gm := gomail.NewMessage()
	gm.SetHeader("From", m.from)
	gm.SetHeader("To", m.to)
	gm.SetHeader("Subject", msg.Subject)
	gm.SetBody("text/plain", msg.Body)
	return gm
}
