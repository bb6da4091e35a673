package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lenshare/accessctl/internal/models"
	"github.com/lenshare/accessctl/internal/security"
)

// Issuance bounds. Out-of-range values are clamped, not rejected, so an
// admin typo degrades to the nearest sane grant instead of an error.
const (
	MinExpirationHours = 1
	MaxExpirationHours = 168
	MinUses            = 1
	MaxUses            = 100
)

// TokenRepository defines the persistence operations required by the
// token service.
type TokenRepository interface {
	// Insert persists a freshly issued token.
	Insert(ctx context.Context, token models.TempAccessToken) error
	// GetByToken fetches a token without consuming a use.
	// Returns sql.ErrNoRows when the token does not exist.
	GetByToken(ctx context.Context, token string) (*models.TempAccessToken, error)
	// Redeem atomically consumes one use and returns the resource ID.
	// ok is false when the token is missing, expired, or exhausted.
	Redeem(ctx context.Context, token string) (resourceID string, ok bool, err error)
}

// TokenService owns the temporary-access-token lifecycle: issuance,
// read-only validation, and consuming redemption.
type TokenService struct {
	tokens    TokenRepository
	resources ResourceRepository
	audit     *Auditor

	// now is replaceable in tests.
	now func() time.Time
}

// NewTokenService constructs a TokenService.
func NewTokenService(tokens TokenRepository, resources ResourceRepository, audit *Auditor) *TokenService {
	return &TokenService{
		tokens:    tokens,
		resources: resources,
		audit:     audit,
		now:       time.Now,
	}
}

// Issue generates and persists a random token granting access to the
// resource for expirationHours, redeemable maxUses times. Both bounds are
// clamped to [1,168] hours and [1,100] uses. Issuance is not an access
// and is never written to the access log.
func (s *TokenService) Issue(ctx context.Context, resourceID string, expirationHours, maxUses int) (*models.TempAccessToken, error) {
	if resourceID == "" {
		return nil, ErrInvalidRequest
	}

	if _, err := s.resources.GetByID(ctx, resourceID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: load resource: %v", ErrStorage, err)
	}

	expirationHours = clamp(expirationHours, MinExpirationHours, MaxExpirationHours)
	maxUses = clamp(maxUses, MinUses, MaxUses)

	raw, err := security.NewToken()
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}

	now := s.now()
	token := models.TempAccessToken{
		Token:         raw,
		ResourceID:    resourceID,
		ExpiresAt:     now.Add(time.Duration(expirationHours) * time.Hour),
		MaxUses:       maxUses,
		UsesRemaining: maxUses,
		CreatedAt:     now,
	}
	if err := s.tokens.Insert(ctx, token); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return &token, nil
}

// ValidateResult is the outcome of a read-only token check.
type ValidateResult struct {
	// IsValid reports whether the token could currently be redeemed.
	IsValid bool
	// ResourceID is set when the token is valid.
	ResourceID string
	// ExpiresAt is set when the token is valid.
	ExpiresAt time.Time
}

// Validate checks a token without consuming a use. Repeated calls never
// change the remaining-use count; only Redeem decrements.
func (s *TokenService) Validate(ctx context.Context, token string) (ValidateResult, error) {
	if token == "" {
		return ValidateResult{}, nil
	}

	t, err := s.tokens.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ValidateResult{}, nil
		}
		return ValidateResult{}, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	if !t.Valid(s.now()) {
		return ValidateResult{}, nil
	}
	return ValidateResult{IsValid: true, ResourceID: t.ResourceID, ExpiresAt: t.ExpiresAt}, nil
}

// RedeemResult is the outcome of a consuming redemption.
type RedeemResult struct {
	// Success reports whether a use was consumed.
	Success bool
	// ResourceID is set on success.
	ResourceID string
	// ExpiresAt is the token expiry, for scoping the follow-up session.
	ExpiresAt time.Time
}

// Redeem consumes one use of the token. The decrement is a conditional
// update in storage, so two requests racing for the last use cannot both
// succeed. A successful redemption is logged as a temp_link access; a
// failed one is neither logged nor counted as a password failure.
func (s *TokenService) Redeem(ctx context.Context, token, ip, userAgent string) (RedeemResult, error) {
	if token == "" {
		return RedeemResult{}, nil
	}

	// Read first for the expiry; the conditional update below is the
	// only authority on whether the redemption succeeds.
	t, err := s.tokens.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return RedeemResult{}, nil
		}
		return RedeemResult{}, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	resourceID, ok, err := s.tokens.Redeem(ctx, token)
	if err != nil {
		return RedeemResult{}, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	if !ok {
		return RedeemResult{}, nil
	}

	s.audit.Record(ctx, resourceID, models.AccessTempLink, ip, userAgent)
	return RedeemResult{Success: true, ResourceID: resourceID, ExpiresAt: t.ExpiresAt}, nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
