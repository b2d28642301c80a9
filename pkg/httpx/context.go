package httpx

import "context"

type ctxKey string

const (
	// CtxKeyUserID holds the authenticated user's row id.
	CtxKeyUserID ctxKey = "user_id"
	// CtxKeyEmail holds the authenticated user's email (token subject).
	CtxKeyEmail ctxKey = "email"
)

// Identity is the caller identity established by the authentication
// middleware. A zero Identity means the request is anonymous.
type Identity struct {
	UserID string
	Email  string
}

// IdentityFromContext returns the caller identity, if any. The second return
// reports whether the request authenticated at all.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	email, ok := ctx.Value(CtxKeyEmail).(string)
	if !ok || email == "" {
		return Identity{}, false
	}
	userID, _ := ctx.Value(CtxKeyUserID).(string)
	return Identity{UserID: userID, Email: email}, true
}
