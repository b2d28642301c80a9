package http

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/medtrackhq/medtrack/internal/api/service"
	"github.com/medtrackhq/medtrack/internal/api/store"
	"github.com/medtrackhq/medtrack/pkg/httpx"
	"github.com/medtrackhq/medtrack/pkg/jwtx"
	"github.com/medtrackhq/medtrack/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	verifier     jwtx.Verifier
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store store.Store

	AuthService       *service.AuthService
	UserService       *service.UserService
	MedicationService *service.MedicationService
	DrugService       *service.DrugService
}

func NewRouter(
	verifier jwtx.Verifier,
	buildVersion string,
	st store.Store,
	logger *slog.Logger,
	corsOrigins []string,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		verifier:     verifier,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}
	if len(corsOrigins) > 0 {
		r.middlewares = append(r.middlewares, httpx.CORS(corsOrigins))
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerUser()
	r.registerMedications()
	r.registerDrugs()
	r.registerSystem()
}

// ServeHTTP implements http.Handler and applies the global middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	h := &AuthHandler{AuthService: r.AuthService}

	// The whole auth group shares the strict per-IP budget: these are the
	// endpoints worth brute-forcing.
	limited := func(handler http.HandlerFunc) http.Handler {
		return httpx.Chain(handler, httpx.RateLimitByIP(httpx.AuthLimit))
	}

	r.Mux.Handle("POST /auth/register", limited(h.HandleRegister))
	r.Mux.Handle("POST /auth/login", limited(h.HandleLogin))
	r.Mux.Handle("POST /auth/refresh", limited(h.HandleRefresh))
	r.Mux.Handle("POST /auth/logout", limited(h.HandleLogout))
	r.Mux.Handle("GET /auth/verify-email", limited(h.HandleVerifyEmail))
	r.Mux.Handle("POST /auth/resend-verification", limited(h.HandleResendVerification))
	r.Mux.Handle("POST /auth/forgot-password", limited(h.HandleForgotPassword))
	r.Mux.Handle("POST /auth/reset-password", limited(h.HandleResetPassword))
}

// secured wraps a handler with token authentication. Authentication itself
// never rejects; RequireIdentity turns an anonymous request into a 401.
func (r *Router) secured(handler http.HandlerFunc) http.Handler {
	return httpx.Chain(handler,
		httpx.Authenticate(r.verifier),
		httpx.RequireIdentity(),
	)
}

func (r *Router) registerUser() {
	h := &UserHandler{UserService: r.UserService}

	r.Mux.Handle("GET /user/profile", r.secured(h.HandleGetProfile))
	r.Mux.Handle("PATCH /user/profile", r.secured(h.HandleUpdateProfile))
	r.Mux.Handle("POST /user/change-password", r.secured(h.HandleChangePassword))
}

func (r *Router) registerMedications() {
	h := &MedicationHandler{MedicationService: r.MedicationService}

	r.Mux.Handle("GET /user-medications/me", r.secured(h.HandleListMine))
	r.Mux.Handle("POST /user-medications", r.secured(h.HandleCreate))
	r.Mux.Handle("PATCH /user-medications/{id}", r.secured(h.HandleUpdate))
	r.Mux.Handle("DELETE /user-medications/{id}", r.secured(h.HandleDelete))
}

func (r *Router) registerDrugs() {
	h := &DrugSearchHandler{DrugService: r.DrugService}

	r.Mux.Handle("GET /api/drugs/search",
		httpx.Chain(http.HandlerFunc(h.HandleSearch),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez", LivezHandler(r.startTime, r.buildVersion))
	r.Mux.Handle("GET /readyz", ReadyzHandler(r.startTime, r.buildVersion, r.store))
}

// jsonDecode parses a request body, rejecting unknown garbage early. Bodies
// are capped at 1 MiB; nothing this API accepts is bigger.
func jsonDecode(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	if err := dec.Decode(dst); err != nil {
		return err
	}
	// Trailing garbage after the JSON document is also a malformed body.
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("unexpected trailing data")
	}
	return nil
}
