package httpx

import (
	"context"
	"net/http"
	"strings"

	"github.com/medtrackhq/medtrack/pkg/jwtx"
	"github.com/medtrackhq/medtrack/pkg/slogx"
)

// Authenticate establishes the caller identity from a bearer access token.
//
// The middleware is deliberately fail-open: a missing, malformed, expired or
// badly-signed token leaves the request anonymous and lets it continue. The
// reject decision belongs to the authorization stage (RequireIdentity), which
// keeps "who is calling" and "may they call" as two distinct gates.
func Authenticate(v jwtx.Verifier) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			authz := r.Header.Get("Authorization")
			if authz == "" || !strings.HasPrefix(authz, "Bearer ") {
				next.ServeHTTP(w, r)
				return
			}
			raw := strings.TrimSpace(strings.TrimPrefix(authz, "Bearer"))

			claims, err := v.Verify(raw)
			if err != nil {
				// Anonymous continue. The specific failure is logged but never
				// surfaced, so callers cannot distinguish expired from forged.
				slogx.FromContext(ctx).Debug("access token rejected", "err", err)
				next.ServeHTTP(w, r)
				return
			}

			ctx = contextWithIdentity(ctx, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireIdentity rejects anonymous requests with 401. It is the
// authorization gate placed on protected routes, downstream of Authenticate.
func RequireIdentity() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := IdentityFromContext(r.Context()); !ok {
				writeBearerError(w, "authentication required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func contextWithIdentity(ctx context.Context, c jwtx.Claims) context.Context {
	ctx = context.WithValue(ctx, CtxKeyUserID, c.UserID)
	ctx = context.WithValue(ctx, CtxKeyEmail, c.Subject)
	return ctx
}

// RFC 6750-compliant error response for bearer auth.
func writeBearerError(w http.ResponseWriter, desc string) {
	w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token", error_description="`+desc+`"`)
	w.WriteHeader(http.StatusUnauthorized)
}
