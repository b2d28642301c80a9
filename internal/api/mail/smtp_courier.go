package mail

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
)

// SMTPConfig carries the connection details for a plain SMTP relay.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPCourier delivers mail over SMTP with PLAIN auth when credentials are
// set. Bodies are plain text; the frontend links do the heavy lifting.
type SMTPCourier struct {
	cfg   SMTPConfig
	links linkBuilder
}

func NewSMTPCourier(cfg SMTPConfig, frontendURL string) *SMTPCourier {
	return &SMTPCourier{
		cfg:   cfg,
		links: linkBuilder{frontendURL: frontendURL},
	}
}

func (c *SMTPCourier) SendVerificationMail(ctx context.Context, to, token string) error {
	body := fmt.Sprintf(
		"Welcome to MedTrack!\r\n\r\n"+
			"Please verify your email address by opening the link below within 24 hours:\r\n\r\n%s\r\n\r\n"+
			"If you did not create an account, you can ignore this message.\r\n",
		c.links.verificationLink(token))
	return c.send(to, "Verify your MedTrack account", body)
}

func (c *SMTPCourier) SendPasswordResetMail(ctx context.Context, to, token string) error {
	body := fmt.Sprintf(
		"We received a request to reset your MedTrack password.\r\n\r\n"+
			"Open the link below within the next hour to choose a new password:\r\n\r\n%s\r\n\r\n"+
			"If you did not request a reset, no action is needed.\r\n",
		c.links.resetLink(token))
	return c.send(to, "Reset your MedTrack password", body)
}

func (c *SMTPCourier) SendPasswordChangedMail(ctx context.Context, to string) error {
	body := "Your MedTrack password was just changed.\r\n\r\n" +
		"If this was not you, reset your password immediately and contact support.\r\n"
	return c.send(to, "Your MedTrack password was changed", body)
}

func (c *SMTPCourier) send(to, subject, body string) error {
	msg := strings.Join([]string{
		"From: " + c.cfg.From,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=UTF-8",
		"",
		body,
	}, "\r\n")

	addr := fmt.Sprintf("%s:%d", c.cfg.Host, c.cfg.Port)

	var auth smtp.Auth
	if c.cfg.Username != "" {
		auth = smtp.PlainAuth("", c.cfg.Username, c.cfg.Password, c.cfg.Host)
	}

	if err := smtp.SendMail(addr, auth, c.cfg.From, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("mail: send to %s: %w", to, err)
	}
	return nil
}
