package mail

import (
	"context"

	"go.uber.org/zap"
)

// ConsoleTransport writes messages to the log instead of sending them.
// Used in development mode.
type ConsoleTransport struct {
	log *zap.Logger
}

func NewConsoleTransport(log *zap.Logger) *ConsoleTransport {
	if log == nil {
		log = zap.NewNop()
	}
	return &ConsoleTransport{log: log}
}

func (t *ConsoleTransport) Send(ctx context.Context, msg *Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t.log.Info("email",
		zap.String("from", msg.From),
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.String("body", msg.Body),
	)
	return nil
}
