package mailer

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"gopkg.in/gomail.v2"
)

// Sender is the subset of mail delivery used by callers.
type Sender interface {
	SendHTML(to []string, subject, htmlBody string) error
}

// Config holds SMTP configuration for sending emails.
type Config struct {
	Host     string `env:"HOST"`
	Port     int    `env:"PORT" envDefault:"587"`
	Username string `env:"USERNAME"`
	Password string `env:"PASSWORD"`
	From     string `env:"FROM"`
}

// Enabled reports whether an SMTP relay has been configured.
func (c Config) Enabled() bool {
	return c.Host != ""
}

// Validate checks if the SMTP configuration is complete.
func (c Config) Validate() error {
	if c.Host == "" {
		return errors.New("missing SMTP_HOST environment variable")
	}
	if c.Port == 0 {
		return errors.New("missing SMTP_PORT environment variable")
	}
	if c.From == "" {
		return errors.New("missing SMTP_FROM environment variable")
	}

	return nil
}

// Mailer represents an email sender.
type Mailer struct {
	config Config
	dialer *gomail.Dialer
}

// Email represents an email message.
type Email struct {
	To       []string
	Cc       []string
	Bcc      []string
	Subject  string
	Body     string
	HTMLBody string
}

// NewMailer creates a new Mailer for the given SMTP configuration.
func NewMailer(cfg Config) (*Mailer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &Mailer{
		config: cfg,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
	}, nil
}

// Send sends a single email.
func (m *Mailer) Send(email Email) error {
	if len(email.To) == 0 {
		return fmt.Errorf("no recipients specified")
	}

	return m.dialer.DialAndSend(m.buildMessage(email))
}

// SendHTML sends an HTML email.
func (m *Mailer) SendHTML(to []string, subject, htmlBody string) error {
	return m.Send(Email{
		To:       to,
		Subject:  subject,
		HTMLBody: htmlBody,
	})
}

func (m *Mailer) buildMessage(email Email) *gomail.Message {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.config.From)
	msg.SetHeader("To", email.To...)

	if len(email.Cc) > 0 {
		msg.SetHeader("Cc", email.Cc...)
	}

	if len(email.Bcc) > 0 {
		msg.SetHeader("Bcc", email.Bcc...)
	}

	msg.SetHeader("Subject", email.Subject)

	if email.HTMLBody != "" {
		msg.SetBody("text/html", email.HTMLBody)
		if email.Body != "" {
			msg.AddAlternative("text/plain", email.Body)
		}
	} else {
		msg.SetBody("text/plain", email.Body)
	}

	return msg
}

// LogSender writes outgoing mail to the logger instead of an SMTP relay.
// Used in development when SMTP_HOST is unset.
type LogSender struct {
	logger *zerolog.Logger
}

// NewLogSender creates a LogSender.
func NewLogSender(logger *zerolog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

// SendHTML logs the message envelope. The body may carry credentials such as
// reset links and is only logged at debug level.
func (s *LogSender) SendHTML(to []string, subject, htmlBody string) error {
	s.logger.Info().
		Strs("to", to).
		Str("subject", subject).
		Msg("mail delivery disabled, message logged")
	s.logger.Debug().
		Strs("to", to).
		Str("body", htmlBody).
		Msg("undelivered mail body")
	return nil
}
