package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zhiyxn/linuxdo-cf-oauth/internal/api/handlers"
	mw "github.com/zhiyxn/linuxdo-cf-oauth/internal/api/middleware"
	"github.com/zhiyxn/linuxdo-cf-oauth/internal/credentials"
	"github.com/zhiyxn/linuxdo-cf-oauth/internal/metrics"
	"github.com/zhiyxn/linuxdo-cf-oauth/internal/upstream"
)

// Dependencies is everything the public router needs. It is read-only once
// NewRouter returns.
type Dependencies struct {
	Credentials    credentials.Config
	AllowedOrigins []string
	Upstream       *upstream.Client
}

// NewRouter builds the public surface: preflight on any path, GET /api/user,
// POST /oauth/token, and 405 for everything else.
func NewRouter(dep Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(mw.RequestID)
	r.Use(mw.Recovery)
	r.Use(mw.Logging)
	r.Use(mw.CORS(mw.CORSPolicy{AllowedOrigins: dep.AllowedOrigins}))
	r.Use(mw.NoStore)

	tokens := handlers.NewTokenHandler(credentials.NewResolver(dep.Credentials), dep.Upstream)
	users := handlers.NewUserHandler(dep.Upstream)

	r.Get("/api/user", users.Get)
	r.Post("/oauth/token", tokens.Exchange)

	r.MethodNotAllowed(handlers.MethodNotAllowed)
	r.NotFound(handlers.MethodNotAllowed)

	return r
}

// NewAdminRouter serves probes and metrics on the operator-only listener.
func NewAdminRouter(credentialsConfigured bool) http.Handler {
	r := chi.NewRouter()
	r.Use(mw.Recovery)

	hh := handlers.NewHealthHandler(credentialsConfigured)
	r.Get("/healthz", hh.Liveness)
	r.Get("/readyz", hh.Readiness)
	r.Handle("/metrics", metrics.Handler())

	return r
}
