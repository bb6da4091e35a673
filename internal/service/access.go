package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lenshare/accessctl/internal/models"
	"github.com/lenshare/accessctl/internal/ratelimit"
	"github.com/lenshare/accessctl/internal/security"
	"go.uber.org/zap"
)

// ResourceRepository defines the catalog reads required by the access
// service.
type ResourceRepository interface {
	// GetBySlug fetches a resource by slug.
	// Returns sql.ErrNoRows when no resource has the slug.
	GetBySlug(ctx context.Context, slug string) (*models.ProtectedResource, error)
	// GetByID fetches a resource by ID.
	// Returns sql.ErrNoRows when no resource has the ID.
	GetByID(ctx context.Context, id string) (*models.ProtectedResource, error)
}

// Request carries the caller identity and client metadata of one access
// attempt.
type Request struct {
	// Caller identifies who is asking.
	Caller models.Caller
	// IP is the requester address, for the audit log.
	IP string
	// UserAgent is the requester user agent, for the audit log.
	UserAgent string
}

// Decision is the outcome of a password check or a composite access check.
type Decision struct {
	// Granted reports whether access was allowed.
	Granted bool
	// Reason explains the outcome.
	Reason Reason
	// RequiresPassword is set when the caller presented no credential for
	// a protected resource and should be prompted.
	RequiresPassword bool
	// Resource is the target, when it was resolved.
	Resource *models.ProtectedResource
	// SessionExpiry is the latest instant a follow-up access cookie may be
	// valid until. Zero when no session should be issued.
	SessionExpiry time.Time
}

// AccessService decides whether a caller may view a protected resource.
// It layers the rate limiter over the password check and composes the
// token and session short-circuits.
type AccessService struct {
	resources ResourceRepository
	tokens    *TokenService
	limiter   ratelimit.Limiter
	audit     *Auditor
	log       *zap.Logger

	// cookieCap bounds session lifetime regardless of resource settings.
	cookieCap time.Duration
	// now is replaceable in tests.
	now func() time.Time
}

// NewAccessService constructs an AccessService. cookieCap is the hard
// upper bound on session-cookie lifetime.
func NewAccessService(
	resources ResourceRepository,
	tokens *TokenService,
	limiter ratelimit.Limiter,
	audit *Auditor,
	log *zap.Logger,
	cookieCap time.Duration,
) *AccessService {
	return &AccessService{
		resources: resources,
		tokens:    tokens,
		limiter:   limiter,
		audit:     audit,
		log:       log,
		cookieCap: cookieCap,
		now:       time.Now,
	}
}

// VerifyPassword checks a submitted password against the resource's stored
// hash. Admin callers bypass both the password and the rate limiter.
// Every call that resolves a resource writes exactly one audit entry and
// mutates the failure counter at most once. Rate-limited calls are
// rejected without consuming an attempt against the password itself.
func (s *AccessService) VerifyPassword(ctx context.Context, slug, password string, req Request) (Decision, error) {
	if slug == "" {
		return Decision{Reason: ReasonInvalidRequest}, ErrInvalidRequest
	}

	res, err := s.resources.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Decision{Reason: ReasonNotFound}, nil
		}
		return Decision{}, fmt.Errorf("%w: load resource: %v", ErrStorage, err)
	}

	if req.Caller.IsAdmin() {
		s.audit.Record(ctx, res.ID, models.AccessAdmin, req.IP, req.UserAgent)
		return s.granted(res, ReasonAdminAccess), nil
	}

	if !res.IsPasswordProtected {
		s.audit.Record(ctx, res.ID, models.AccessView, req.IP, req.UserAgent)
		return s.granted(res, ReasonNotProtected), nil
	}

	allowed, err := s.limiter.Allow(ctx, res.Slug)
	if err != nil {
		return Decision{}, fmt.Errorf("%w: rate limit check: %v", ErrStorage, err)
	}
	if !allowed {
		s.audit.Record(ctx, res.ID, models.AccessPasswordFail, req.IP, req.UserAgent)
		return Decision{Reason: ReasonRateLimited, Resource: res}, nil
	}

	if res.PasswordHash == "" {
		s.log.Error("protected resource has no password hash",
			zap.String("slug", res.Slug), zap.String("resource_id", res.ID))
		s.audit.Record(ctx, res.ID, models.AccessPasswordFail, req.IP, req.UserAgent)
		return Decision{Reason: ReasonMisconfigured, Resource: res}, nil
	}

	if !security.VerifyPassword(password, res.PasswordHash) {
		if err := s.limiter.RecordFailure(ctx, res.Slug); err != nil {
			s.log.Error("rate limit record failed", zap.String("slug", res.Slug), zap.Error(err))
		}
		s.audit.Record(ctx, res.ID, models.AccessPasswordFail, req.IP, req.UserAgent)
		return Decision{Reason: ReasonInvalidPassword, Resource: res}, nil
	}

	s.audit.Record(ctx, res.ID, models.AccessPasswordSuccess, req.IP, req.UserAgent)
	return s.granted(res, ReasonPasswordSuccess), nil
}

// CheckAccess is the composite entry point for viewing a resource. An
// existing session scoped to the resource short-circuits everything; else
// a presented temp token is redeemed; else a presented password is
// verified; else the caller is told a password is required.
//
// sessionResourceID is the resource ID carried by an already verified
// session cookie, or empty when none was presented.
func (s *AccessService) CheckAccess(ctx context.Context, slug, password, token, sessionResourceID string, req Request) (Decision, error) {
	if slug == "" {
		return Decision{Reason: ReasonInvalidRequest}, ErrInvalidRequest
	}

	res, err := s.resources.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Decision{Reason: ReasonNotFound}, nil
		}
		return Decision{}, fmt.Errorf("%w: load resource: %v", ErrStorage, err)
	}

	if req.Caller.IsAdmin() {
		s.audit.Record(ctx, res.ID, models.AccessAdmin, req.IP, req.UserAgent)
		return s.granted(res, ReasonAdminAccess), nil
	}

	if !res.IsPasswordProtected {
		s.audit.Record(ctx, res.ID, models.AccessView, req.IP, req.UserAgent)
		return s.granted(res, ReasonNotProtected), nil
	}

	if sessionResourceID == res.ID {
		s.audit.Record(ctx, res.ID, models.AccessToken, req.IP, req.UserAgent)
		return s.granted(res, ReasonSession), nil
	}

	if token != "" {
		// Check the token read-only first so a token bound to another
		// resource is not consumed by a mismatched request.
		checked, err := s.tokens.Validate(ctx, token)
		if err != nil {
			return Decision{}, err
		}
		if !checked.IsValid || checked.ResourceID != res.ID {
			return Decision{Reason: ReasonInvalidToken, Resource: res}, nil
		}

		redeemed, err := s.tokens.Redeem(ctx, token, req.IP, req.UserAgent)
		if err != nil {
			return Decision{}, err
		}
		if !redeemed.Success {
			// Lost the race for the last use between check and redeem.
			return Decision{Reason: ReasonInvalidToken, Resource: res}, nil
		}
		d := s.granted(res, ReasonTempLink)
		// Session may not outlive the token.
		if redeemed.ExpiresAt.Before(d.SessionExpiry) {
			d.SessionExpiry = redeemed.ExpiresAt
		}
		return d, nil
	}

	if password != "" {
		return s.VerifyPassword(ctx, slug, password, req)
	}

	return Decision{Reason: ReasonInvalidRequest, RequiresPassword: true, Resource: res}, nil
}

// granted builds a positive decision with the session expiry capped by
// both the resource's cookie duration and the service-wide hard cap.
func (s *AccessService) granted(res *models.ProtectedResource, reason Reason) Decision {
	ttl := s.cookieCap
	if res.CookieDurationDays > 0 {
		if d := time.Duration(res.CookieDurationDays) * 24 * time.Hour; d < ttl {
			ttl = d
		}
	}
	return Decision{
		Granted:       true,
		Reason:        reason,
		Resource:      res,
		SessionExpiry: s.now().Add(ttl),
	}
}
