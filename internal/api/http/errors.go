package http

import (
	"errors"
	"net/http"

	"github.com/medtrackhq/medtrack/internal/api/service"
	"github.com/medtrackhq/medtrack/pkg/httpx"
	"github.com/medtrackhq/medtrack/pkg/slogx"
)

// writeServiceError maps service sentinel errors onto the API's status codes
// and uniform error body. Anything unmapped is a 500, logged with its cause
// but reported generically.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		httpx.WriteError(w, http.StatusUnauthorized, "Invalid email or password")
	case errors.Is(err, service.ErrInvalidToken):
		httpx.WriteError(w, http.StatusUnauthorized, "Invalid or expired token")
	case errors.Is(err, service.ErrEmailNotVerified):
		httpx.WriteError(w, http.StatusUnauthorized, "Email address is not verified")
	case errors.Is(err, service.ErrForbidden):
		httpx.WriteError(w, http.StatusForbidden, "You do not have access to this resource")
	case errors.Is(err, service.ErrTokenUsed):
		httpx.WriteError(w, http.StatusBadRequest, "This token has already been used")
	case errors.Is(err, service.ErrEmailTaken):
		httpx.WriteError(w, http.StatusBadRequest, "Email already in use")
	case errors.Is(err, service.ErrInvalidEmail):
		httpx.WriteError(w, http.StatusBadRequest, "A valid email address is required")
	case errors.Is(err, service.ErrInvalidName):
		httpx.WriteError(w, http.StatusBadRequest, "Name must not be empty")
	case errors.Is(err, service.ErrWeakPassword):
		httpx.WriteError(w, http.StatusBadRequest, "Password must be at least 8 characters")
	case errors.Is(err, service.ErrDrugNameRequired):
		httpx.WriteError(w, http.StatusBadRequest, "Drug name is required")
	case errors.Is(err, service.ErrInvalidStartDate):
		httpx.WriteError(w, http.StatusBadRequest, "Start date must be formatted YYYY-MM-DD")
	case errors.Is(err, service.ErrNotFound):
		httpx.WriteError(w, http.StatusNotFound, "Resource not found")
	default:
		slogx.FromContext(r.Context()).Error("request failed", "error", err)
		httpx.WriteError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// decodeJSON parses a JSON request body into dst, reporting a uniform 400 on
// malformed input. The return value says whether the handler should continue.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := jsonDecode(r, dst); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}
