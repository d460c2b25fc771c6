// Package mail delivers confirmation and password reset codes
package mail

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// Mailer sends one HTML message
type Mailer interface {
	Send(to, subject, body string) error
}

// SMTP delivers through an SMTP relay
type SMTP struct {
	from   string
	dialer *gomail.Dialer
}

func NewSMTP(host string, port int, from, password string) *SMTP {
	return &SMTP{
		from:   from,
		dialer: gomail.NewDialer(host, port, from, password),
	}
}

func (s *SMTP) Send(to, subject, body string) error {
	if to == s.from {
		return errors.New("invalid email address")
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send mail, %w", err)
	}

	return nil
}

// Log writes messages to the log instead of sending them. Used when mail
// delivery is disabled.
type Log struct{}

func (Log) Send(to, subject, body string) error {
	zap.L().Info("Mail delivery disabled, logging message",
		zap.String("to", to),
		zap.String("subject", subject),
		zap.String("body", body),
	)

	return nil
}

// New picks the mailer from the mail.* config keys
func New() Mailer {
	if !viper.GetBool("mail.enabled") {
		return Log{}
	}

	return NewSMTP(
		viper.GetString("mail.host"),
		viper.GetInt("mail.port"),
		viper.GetString("mail.sender_address"),
		viper.GetString("mail.password"),
	)
}

func SendConfirmationCode(m Mailer, to, code string) error {
	return m.Send(to, "Confirm your StoreIt account",
		fmt.Sprintf("Your verification code is <b>%s</b>.<br><br>It expires in 24 hours.", code))
}

func SendResetCode(m Mailer, to, code string) error {
	return m.Send(to, "Reset your StoreIt password",
		fmt.Sprintf("Your password reset code is <b>%s</b>.<br><br>It expires in 5 minutes.", code))
}
