package mail

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"event-board.backend/internal/config"
)

// Message is a rendered outgoing email.
type Message struct {
	From    string
	To      string
	Subject string
	Body    string
}

// Transport delivers a message. Implementations must respect ctx cancellation.
type Transport interface {
	Send(ctx context.Context, msg *Message) error
}

// NewTransport picks the transport for the configured backend.
func NewTransport(cfg config.MailConfig, log *zap.Logger) (Transport, error) {
	switch cfg.Backend {
	case config.MailBackendConsole:
		return NewConsoleTransport(log), nil
	case config.MailBackendSMTP:
		return NewSMTPTransport(cfg), nil
	default:
		return nil, fmt.Errorf("unknown mail backend %q", cfg.Backend)
	}
}
