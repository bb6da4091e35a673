// Package http provides the HTTP handlers for the access-control API:
// password submission, temp-link validation, token issuance, and the
// access-log query.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/lenshare/accessctl/internal/middleware"
	"github.com/lenshare/accessctl/internal/models"
	"github.com/lenshare/accessctl/internal/security"
	"github.com/lenshare/accessctl/internal/service"
)

// AccessChecker defines the access decisions required by the handlers.
type AccessChecker interface {
	// VerifyPassword runs the password path for a resource slug.
	VerifyPassword(ctx context.Context, slug, password string, req service.Request) (service.Decision, error)
	// CheckAccess is the composite session/token/password check.
	CheckAccess(ctx context.Context, slug, password, token, sessionResourceID string, req service.Request) (service.Decision, error)
}

// TokenIssuer defines the issuance operation required by the admin
// temp-link endpoint.
type TokenIssuer interface {
	// Issue creates a temporary access token for a resource.
	Issue(ctx context.Context, resourceID string, expirationHours, maxUses int) (*models.TempAccessToken, error)
}

// LogReader defines the audit query required by the admin logs endpoint.
type LogReader interface {
	// List returns the newest access-log entries for a resource.
	List(ctx context.Context, resourceID string, limit int) ([]models.AccessLogEntry, error)
}

// ResourceGetter resolves resources for URL building.
type ResourceGetter interface {
	// GetByID fetches a resource by ID; sql.ErrNoRows when absent.
	GetByID(ctx context.Context, id string) (*models.ProtectedResource, error)
}

// AccessHandler handles HTTP requests for the access-control API.
type AccessHandler struct {
	// Access decides password and composite access checks.
	Access AccessChecker
	// Tokens issues temporary access tokens.
	Tokens TokenIssuer
	// Audit reads the audit trail.
	Audit LogReader
	// Resources resolves resources when building temp-link URLs.
	Resources ResourceGetter
	// Signer mints and verifies the resource-scoped access cookies.
	Signer *security.Signer
	// BaseURL is the public origin used in generated links and redirects.
	BaseURL string
}

// PasswordRequest represents the JSON payload for a password submission.
type PasswordRequest struct {
	// Slug identifies the resource.
	Slug string `json:"slug"`
	// Password is the submitted password; may be empty.
	Password string `json:"password"`
}

// Password handles password submissions for a protected resource.
// A valid existing access cookie short-circuits the check. On success the
// response carries success=true and a fresh resource-scoped cookie.
//
// Denials are deliberately generic: an unknown slug and a wrong password
// both return 401 so unauthenticated callers cannot probe for resource
// existence.
func (h *AccessHandler) Password(w http.ResponseWriter, r *http.Request) {
	var req PasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Slug == "" {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	session := h.sessionResourceID(r, req.Slug)
	decision, err := h.Access.CheckAccess(
		r.Context(), req.Slug, req.Password, "", session, requestMeta(r),
	)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	if !decision.Granted {
		h.writeDenial(w, decision)
		return
	}

	h.setAccessCookie(w, decision)
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"reason":  decision.Reason,
	})
}

// Validate handles temp-link redemption. It expects token and resource
// query parameters, consumes one token use, sets the access cookie, and
// redirects to the resource page. Invalid, expired, or exhausted tokens
// yield a generic 401 without a failed-attempt penalty.
func (h *AccessHandler) Validate(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	slug := r.URL.Query().Get("resource")
	if token == "" || slug == "" {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	session := h.sessionResourceID(r, slug)
	decision, err := h.Access.CheckAccess(r.Context(), slug, "", token, session, requestMeta(r))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	if !decision.Granted {
		http.Error(w, "invalid or expired link", http.StatusUnauthorized)
		return
	}

	h.setAccessCookie(w, decision)
	target := fmt.Sprintf("%s/%s/%s", h.BaseURL, decision.Resource.Kind, decision.Resource.Slug)
	http.Redirect(w, r, target, http.StatusFound)
}

// TempLinkRequest represents the JSON payload for admin token issuance.
type TempLinkRequest struct {
	// ResourceID is the resource the token grants access to.
	ResourceID string `json:"resource_id"`
	// ExpirationHours is the token lifetime; clamped to 1–168.
	ExpirationHours int `json:"expiration_hours"`
	// MaxUses is how many times the token may be redeemed; clamped to 1-100.
	MaxUses int `json:"max_uses"`
}

// TempLink handles admin issuance of temporary access links. Admin-only;
// unknown resources are reported precisely as 404 since the caller is
// already authenticated.
func (h *AccessHandler) TempLink(w http.ResponseWriter, r *http.Request) {
	var req TempLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ResourceID == "" {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	token, err := h.Tokens.Issue(r.Context(), req.ResourceID, req.ExpirationHours, req.MaxUses)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			http.Error(w, "resource not found", http.StatusNotFound)
			return
		}
		h.writeServiceError(w, err)
		return
	}

	res, err := h.Resources.GetByID(r.Context(), token.ResourceID)
	if err != nil {
		h.writeServiceError(w, fmt.Errorf("%w: %v", service.ErrStorage, err))
		return
	}

	url := fmt.Sprintf("%s/api/access/validate?token=%s&resource=%s", h.BaseURL, token.Token, res.Slug)
	writeJSON(w, http.StatusOK, map[string]any{
		"token":      token.Token,
		"url":        url,
		"expires_at": token.ExpiresAt.Format(time.RFC3339),
	})
}

// Logs handles the admin access-log query. Limit is clamped server-side.
func (h *AccessHandler) Logs(w http.ResponseWriter, r *http.Request) {
	resourceID := r.URL.Query().Get("resource_id")
	if resourceID == "" {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	entries, err := h.Audit.List(r.Context(), resourceID, limit)
	if err != nil {
		if errors.Is(err, service.ErrInvalidRequest) {
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}
		h.writeServiceError(w, err)
		return
	}
	if entries == nil {
		entries = []models.AccessLogEntry{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"logs": entries})
}

// sessionResourceID returns the resource ID of a valid access cookie for
// the slug, or empty when none was presented or it fails verification.
func (h *AccessHandler) sessionResourceID(r *http.Request, slug string) string {
	for _, kind := range []models.ResourceKind{models.KindGallery, models.KindVideo} {
		cookie, err := r.Cookie(cookieName(kind, slug))
		if err != nil {
			continue
		}
		resourceID, err := h.Signer.VerifyAccessCookie(cookie.Value)
		if err != nil {
			continue
		}
		return resourceID
	}
	return ""
}

// setAccessCookie installs the resource-scoped session cookie implied by
// a positive decision.
func (h *AccessHandler) setAccessCookie(w http.ResponseWriter, decision service.Decision) {
	res := decision.Resource
	if res == nil || decision.SessionExpiry.IsZero() {
		return
	}
	value, err := h.Signer.MintAccessCookie(res.ID, decision.SessionExpiry)
	if err != nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName(res.Kind, res.Slug),
		Value:    value,
		Path:     "/",
		Expires:  decision.SessionExpiry,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
}

// writeDenial maps a denied decision onto the public HTTP contract.
func (h *AccessHandler) writeDenial(w http.ResponseWriter, decision service.Decision) {
	switch decision.Reason {
	case service.ReasonRateLimited:
		http.Error(w, "too many attempts, try again later", http.StatusTooManyRequests)
	case service.ReasonMisconfigured:
		http.Error(w, "internal error", http.StatusInternalServerError)
	case service.ReasonInvalidRequest:
		if decision.RequiresPassword {
			writeJSON(w, http.StatusUnauthorized, map[string]any{
				"success":           false,
				"requires_password": true,
			})
			return
		}
		http.Error(w, "invalid request", http.StatusBadRequest)
	default:
		// not_found and invalid_password collapse into one message so
		// callers cannot probe for resource existence.
		http.Error(w, "invalid password", http.StatusUnauthorized)
	}
}

func (h *AccessHandler) writeServiceError(w http.ResponseWriter, err error) {
	if errors.Is(err, service.ErrInvalidRequest) {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	http.Error(w, "internal error", http.StatusInternalServerError)
}

func cookieName(kind models.ResourceKind, slug string) string {
	return fmt.Sprintf("%s_access_%s", kind, slug)
}

func requestMeta(r *http.Request) service.Request {
	return service.Request{
		Caller:    middleware.CallerFromContext(r.Context()),
		IP:        clientIP(r),
		UserAgent: r.UserAgent(),
	}
}

func clientIP(r *http.Request) string {
	if header := r.Header.Get("X-Forwarded-For"); header != "" {
		for _, part := range strings.Split(header, ",") {
			if ip := strings.TrimSpace(part); ip != "" {
				return ip
			}
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
