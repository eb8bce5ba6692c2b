package usecases

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"event-board.backend/internal/config"
	"event-board.backend/internal/domain/entities"
	domainerrors "event-board.backend/internal/domain/errors"
	"event-board.backend/internal/infrastructure/mail"
	"event-board.backend/pkg/logger"
)

// EmailSettings are the static parts of the sign-in email.
type EmailSettings struct {
	From    string
	Subject string
}

// DeliveryGateway turns an issued token into a magic link and mails it.
type DeliveryGateway struct {
	transport mail.Transport
	email     EmailSettings
	origin    string
	path      string
	ttl       time.Duration
}

// NewDeliveryGateway creates a new delivery gateway
func NewDeliveryGateway(transport mail.Transport, mailCfg config.MailConfig, linkCfg config.MagicLinkConfig, ttl time.Duration) *DeliveryGateway {
	return &DeliveryGateway{
		transport: transport,
		email:     EmailSettings{From: mailCfg.From, Subject: mailCfg.Subject},
		origin:    strings.TrimRight(linkCfg.Origin, "/"),
		path:      linkCfg.Path,
		ttl:       ttl,
	}
}

// SignInLink builds the client URL carrying the token.
func (g *DeliveryGateway) SignInLink(token string) string {
	path := g.path
	if path != "" && !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return g.origin + path + "?" + url.Values{"token": {token}}.Encode()
}

// SendSignInLink mails the link for an issued token. Failures wrap
// ErrDelivery and leave the token valid, so the caller may retry with it.
func (g *DeliveryGateway) SendSignInLink(ctx context.Context, user *entities.User, token *entities.IssuedToken) error {
	link := g.SignInLink(token.Value)
	msg := RenderSignInEmail(g.email, user, token.Value, link, g.ttl)

	if err := g.transport.Send(ctx, msg); err != nil {
		logger.Error(ctx, "Failed to deliver sign-in link",
			zap.String("user_id", user.ID.String()), zap.Error(err))
		return fmt.Errorf("%w: %v", domainerrors.ErrDelivery, err)
	}
	return nil
}

// RenderSignInEmail builds the sign-in message. It has no side effects.
func RenderSignInEmail(settings EmailSettings, user *entities.User, token, link string, ttl time.Duration) *mail.Message {
	var b strings.Builder
	b.WriteString("Hello,\n\n")
	b.WriteString("Use the link below to sign in to Data Event Board:\n\n")
	b.WriteString(link)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "If the link does not open, paste this token into the sign-in page:\n\n%s\n\n", token)
	fmt.Fprintf(&b, "The link expires in %s and can be used once.\n", humanizeDuration(ttl))
	b.WriteString("If you did not request it, you can ignore this email.\n")

	return &mail.Message{
		From:    settings.From,
		To:      user.Email,
		Subject: settings.Subject,
		Body:    b.String(),
	}
}

func humanizeDuration(d time.Duration) string {
	switch {
	case d >= time.Hour && d%time.Hour == 0:
		return plural(int(d/time.Hour), "hour")
	case d >= time.Minute && d%time.Minute == 0:
		return plural(int(d/time.Minute), "minute")
	default:
		return d.String()
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
