package utils

import (
	"errors"
	"fmt"
	"net/smtp"
	"strconv"
	"time"

	"github.com/sony/gobreaker"

	"task-manager/backend/logging"
)

var ErrMailerNotConfigured = errors.New("smtp credentials are not configured")

type SMTPSettings struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPMailer sends HTML e-mails through a circuit breaker.
type SMTPMailer struct {
	settings SMTPSettings
	breaker  *gobreaker.CircuitBreaker
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPMailer(settings SMTPSettings) *SMTPMailer {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "smtp-cb",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Logger.Infof("Event ID: CIRCUIT_BREAKER_STATE_CHANGE, Description: Circuit Breaker '%s' changed from '%s' to '%s'", name, from.String(), to.String())
		},
	})

	return &SMTPMailer{
		settings: settings,
		breaker:  breaker,
		sendMail: smtp.SendMail,
	}
}

func (m *SMTPMailer) Send(to, subject, htmlBody string) error {
	if m.settings.Host == "" || m.settings.Password == "" {
		logging.Logger.Errorf("Event ID: SEND_EMAIL_MISSING_ENV, Description: SMTP host or password is not set.")
		return ErrMailerNotConfigured
	}

	message := []byte("Subject: " + subject + "\r\n" +
		"From: " + m.settings.From + "\r\n" +
		"To: " + to + "\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: text/html; charset=\"UTF-8\"\r\n\r\n" +
		htmlBody + "\r\n")

	addr := m.settings.Host + ":" + strconv.Itoa(m.settings.Port)
	auth := smtp.PlainAuth("", m.settings.Username, m.settings.Password, m.settings.Host)

	_, err := m.breaker.Execute(func() (interface{}, error) {
		return nil, m.sendMail(addr, auth, m.envelopeFrom(), []string{to}, message)
	})
	if err != nil {
		logging.Logger.Errorf("Event ID: SEND_EMAIL_FAILED, Description: Failed to send email to '%s' with subject '%s': %v", to, subject, err)
		return fmt.Errorf("failed to send email: %w", err)
	}

	logging.Logger.Infof("Event ID: SEND_EMAIL_SUCCESS, Description: Email successfully sent to '%s' with subject: '%s'", to, subject)
	return nil
}

// envelopeFrom is the SMTP MAIL FROM address: the login when set, otherwise From.
func (m *SMTPMailer) envelopeFrom() string {
	if m.settings.Username != "" {
		return m.settings.Username
	}
	return m.settings.From
}
