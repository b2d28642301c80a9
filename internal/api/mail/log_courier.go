package mail

import (
	"context"
	"log/slog"
)

// LogCourier writes mail to the log instead of the wire. It is the default
// when no SMTP host is configured, so local development never needs a mail
// server to complete the verification and reset flows.
type LogCourier struct {
	links  linkBuilder
	logger *slog.Logger
}

func NewLogCourier(frontendURL string, logger *slog.Logger) *LogCourier {
	return &LogCourier{
		links:  linkBuilder{frontendURL: frontendURL},
		logger: logger.With("component", "mail"),
	}
}

func (c *LogCourier) SendVerificationMail(ctx context.Context, to, token string) error {
	c.logger.InfoContext(ctx, "verification mail (log delivery)",
		"to", to,
		"link", c.links.verificationLink(token),
	)
	return nil
}

func (c *LogCourier) SendPasswordResetMail(ctx context.Context, to, token string) error {
	c.logger.InfoContext(ctx, "password reset mail (log delivery)",
		"to", to,
		"link", c.links.resetLink(token),
	)
	return nil
}

func (c *LogCourier) SendPasswordChangedMail(ctx context.Context, to string) error {
	c.logger.InfoContext(ctx, "password changed notice (log delivery)", "to", to)
	return nil
}
