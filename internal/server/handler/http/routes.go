// Package http provides HTTP routing and middleware configuration
// for the access-control service.
package http

import (
	"net/http"

	"github.com/lenshare/accessctl/internal/middleware"
	"github.com/lenshare/accessctl/internal/security"
	"go.uber.org/zap"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// NewRouter constructs and returns an HTTP handler that serves the
// access-control API. It applies JSON content-type enforcement and
// request logging, tags callers from bearer tokens on the public
// endpoints, and requires admin authentication on the issuance and
// audit endpoints.
//
// Routes:
//
//	POST /api/access/password    → accessHandler.Password
//	GET  /api/access/validate    → accessHandler.Validate
//	POST /api/access/temp-link   → accessHandler.TempLink (admin)
//	GET  /api/access/logs        → accessHandler.Logs     (admin)
func NewRouter(
	accessHandler *AccessHandler,
	signer *security.Signer,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Only allow requests with Content-Type: application/json
	r.Use(chiMiddleware.AllowContentType("application/json"))

	// Log each request and its metadata
	r.Use(middleware.WithRequestLogging(logger))

	// Mount API routes
	r.Route("/api/access", func(r chi.Router) {
		// Public endpoints: admin bearer tokens are recognized but
		// never required.
		r.Group(func(r chi.Router) {
			r.Use(middleware.WithCaller(signer))
			r.Post("/password", accessHandler.Password)
			r.Get("/validate", accessHandler.Validate)
		})

		// Protected group: requires a valid admin bearer token
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdmin(signer))
			r.Post("/temp-link", accessHandler.TempLink)
			r.Get("/logs", accessHandler.Logs)
		})
	})

	return r
}
