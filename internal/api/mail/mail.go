// Package mail delivers the transactional emails the auth flows depend on:
// verification links, password reset links and the password-changed notice.
package mail

import (
	"context"
	"fmt"
	"net/url"
)

// Courier sends transactional mail. Implementations must be safe for
// concurrent use; the services fire these off in request goroutines.
type Courier interface {
	SendVerificationMail(ctx context.Context, to, token string) error
	SendPasswordResetMail(ctx context.Context, to, token string) error
	SendPasswordChangedMail(ctx context.Context, to string) error
}

// linkBuilder renders the frontend deep links embedded in mail bodies.
type linkBuilder struct {
	frontendURL string
}

func (l linkBuilder) verificationLink(token string) string {
	return fmt.Sprintf("%s/verify-email?token=%s", l.frontendURL, url.QueryEscape(token))
}

func (l linkBuilder) resetLink(token string) string {
	return fmt.Sprintf("%s/reset-password?token=%s", l.frontendURL, url.QueryEscape(token))
}
