package mail

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"os"
	"strconv"
	"time"

	"gopkg.in/gomail.v2"

	"event-board.backend/internal/config"
)

// SMTPTransport sends mail through an authenticated SMTP relay, upgrading the
// connection with STARTTLS when the server offers it. gomail builds the
// message; the conversation runs on a connection whose deadline follows ctx,
// so a stalled relay cannot outlive Send.
type SMTPTransport struct {
	host     string
	port     int
	username string
	password string
	timeout  time.Duration
	send     func(ctx context.Context, from string, to []string, m *gomail.Message) error
}

func NewSMTPTransport(cfg config.MailConfig) *SMTPTransport {
	t := &SMTPTransport{
		host:     cfg.Host,
		port:     cfg.Port,
		username: cfg.Username,
		password: cfg.Password,
		timeout:  cfg.Timeout,
	}
	t.send = t.deliver
	return t
}

func buildMessage(msg *Message) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", msg.From)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.Body)
	return m
}

// Send delivers msg or gives up once ctx or the configured timeout expires.
func (t *SMTPTransport) Send(ctx context.Context, msg *Message) error {
	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	if err := t.send(ctx, msg.From, []string{msg.To}, buildMessage(msg)); err != nil {
		return sendError(ctx, err)
	}
	return nil
}

// sendError reports connection deadlines as the context error that set them.
func sendError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
		return fmt.Errorf("smtp send: %w: %v", ctxErr, err)
	}
	if errors.Is(err, os.ErrDeadlineExceeded) && !errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("smtp send: %w: %v", context.DeadlineExceeded, err)
	}
	return fmt.Errorf("smtp send: %w", err)
}

func (t *SMTPTransport) deliver(ctx context.Context, from string, to []string, m *gomail.Message) error {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", net.JoinHostPort(t.host, strconv.Itoa(t.port)))
	if err != nil {
		return err
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetDeadline(deadline); err != nil {
			return err
		}
	}
	// unblocks any pending read or write when ctx is cancelled early
	stop := context.AfterFunc(ctx, func() { _ = conn.SetDeadline(time.Now()) })
	defer stop()

	c, err := smtp.NewClient(conn, t.host)
	if err != nil {
		return err
	}
	defer c.Close()

	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(&tls.Config{ServerName: t.host}); err != nil {
			return err
		}
	}
	if t.username != "" {
		if ok, _ := c.Extension("AUTH"); ok {
			if err := c.Auth(smtp.PlainAuth("", t.username, t.password, t.host)); err != nil {
				return err
			}
		}
	}

	if err := c.Mail(from); err != nil {
		return err
	}
	for _, addr := range to {
		if err := c.Rcpt(addr); err != nil {
			return err
		}
	}
	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := m.WriteTo(w); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return c.Quit()
}
