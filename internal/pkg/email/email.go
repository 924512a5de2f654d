package email

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/rs/zerolog"
)

// ErrInvalidMessage is returned for messages that cannot be delivered as built
var ErrInvalidMessage = errors.New("invalid email message")

// Message is one outbound HTML mail
type Message struct {
	To       string
	ToName   string
	Subject  string
	HTMLBody string
}

// Validate rejects messages with a bad recipient or header injection attempts
func (m Message) Validate() error {
	if _, err := mail.ParseAddress(m.To); err != nil {
		return fmt.Errorf("%w: recipient: %v", ErrInvalidMessage, err)
	}
	if strings.ContainsAny(m.Subject, "\r\n") || strings.ContainsAny(m.ToName, "\r\n") {
		return fmt.Errorf("%w: header contains a line break", ErrInvalidMessage)
	}
	if m.HTMLBody == "" {
		return fmt.Errorf("%w: empty body", ErrInvalidMessage)
	}
	return nil
}

// Sender delivers mail. Implementations honor ctx cancellation and deadlines.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Supported drivers
const (
	DriverSMTP     = "smtp"
	DriverSendGrid = "sendgrid"
	DriverLog      = "log"
)

// Config holds settings for every driver; only the selected driver's fields are read
type Config struct {
	Driver string

	// SMTP
	Host     string
	Port     int
	Username string
	Password string
	UseTLS   bool

	// SendGrid
	SendGridAPIKey string

	FromName  string
	FromEmail string
}

// NewSender creates the Sender for cfg.Driver
func NewSender(cfg Config, logger zerolog.Logger) (Sender, error) {
	switch cfg.Driver {
	case DriverSMTP:
		return NewSMTPSender(cfg), nil
	case DriverSendGrid:
		return NewSendGridSender(cfg.SendGridAPIKey, cfg.FromName, cfg.FromEmail), nil
	case DriverLog, "":
		return NewLogSender(logger), nil
	default:
		return nil, fmt.Errorf("unsupported mail driver %q", cfg.Driver)
	}
}
