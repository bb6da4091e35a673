// Package middleware provides HTTP middlewares for authentication and logging.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/lenshare/accessctl/internal/models"
	"github.com/lenshare/accessctl/internal/security"
)

type ctxKey string

const callerKey ctxKey = "caller"

// WithCaller inspects the Authorization header and, when it carries a
// valid admin bearer token, stores the admin caller in the request
// context. Requests without a token, or with an invalid one, proceed as
// anonymous; this middleware never rejects.
//
// Public endpoints use this so an administrator hitting the same URL as a
// viewer takes the audited bypass path instead of the password check.
func WithCaller(signer *security.Signer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller := models.CallerAnonymous
			if token := bearerToken(r); token != "" {
				if err := signer.VerifyAdminToken(token); err == nil {
					caller = models.CallerAdmin
				}
			}
			ctx := context.WithValue(r.Context(), callerKey, caller)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin rejects requests that do not carry a valid admin bearer
// token. It guards the token-issuance and log-query endpoints.
func RequireAdmin(signer *security.Signer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				http.Error(w, "admin token required", http.StatusUnauthorized)
				return
			}
			if err := signer.VerifyAdminToken(token); err != nil {
				http.Error(w, "invalid admin token", http.StatusUnauthorized)
				return
			}
			ctx := context.WithValue(r.Context(), callerKey, models.CallerAdmin)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// CallerFromContext extracts the caller identity stored by WithCaller or
// RequireAdmin. Returns CallerAnonymous if none was stored.
func CallerFromContext(ctx context.Context) models.Caller {
	if c, ok := ctx.Value(callerKey).(models.Caller); ok {
		return c
	}
	return models.CallerAnonymous
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
