// Package models defines the core data structures for protected resources,
// temporary access tokens, and access-log entries.
package models

import "time"

// ResourceKind identifies what a protected resource is.
type ResourceKind string

const (
	// KindGallery represents a photo gallery.
	KindGallery ResourceKind = "gallery"
	// KindVideo represents a hosted video.
	KindVideo ResourceKind = "video"
)

// ProtectedResource is a gallery or video that may require a password
// or a temporary access token to view. The catalog that creates and
// edits resources lives outside this service; here they are read-only.
type ProtectedResource struct {
	// ID is the unique identifier for the resource.
	ID string
	// Slug is the unique human-readable identifier used in URLs.
	Slug string
	// Kind is the resource type ("gallery" or "video").
	Kind ResourceKind
	// IsPasswordProtected reports whether viewing requires credentials.
	IsPasswordProtected bool
	// PasswordHash is the bcrypt hash of the access password. Empty when
	// the resource is public; a protected resource with an empty hash is
	// misconfigured and must deny password access.
	PasswordHash string
	// CookieDurationDays bounds the lifetime of the access cookie issued
	// after a successful password check.
	CookieDurationDays int
	// CreatedAt is when the resource was registered.
	CreatedAt time.Time
}

// TempAccessToken is a capability-bearing random string granting time-
// and use-limited access to a single resource, usable in place of the
// resource password.
type TempAccessToken struct {
	// Token is the opaque random token string, unguessable.
	Token string
	// ResourceID is the resource this token grants access to.
	ResourceID string
	// ExpiresAt is the instant after which the token is invalid.
	ExpiresAt time.Time
	// MaxUses is the total number of redemptions allowed.
	MaxUses int
	// UsesRemaining counts down from MaxUses on each redemption.
	UsesRemaining int
	// CreatedAt is when the token was issued.
	CreatedAt time.Time
}

// Valid reports whether the token can still be redeemed at the given
// instant. Validation alone never consumes a use.
func (t *TempAccessToken) Valid(now time.Time) bool {
	return now.Before(t.ExpiresAt) && t.UsesRemaining > 0
}

// AccessType classifies an access-log entry.
type AccessType string

const (
	// AccessPasswordSuccess records a correct password submission.
	AccessPasswordSuccess AccessType = "password_success"
	// AccessPasswordFail records an incorrect password submission.
	AccessPasswordFail AccessType = "password_fail"
	// AccessTempLink records a temporary-token redemption.
	AccessTempLink AccessType = "temp_link"
	// AccessAdmin records an administrator bypassing the password check.
	AccessAdmin AccessType = "admin_access"
	// AccessToken records access granted by an existing session cookie.
	AccessToken AccessType = "token_access"
	// AccessView records a plain view of an unprotected resource.
	AccessView AccessType = "view"
)

// AccessLogEntry is one append-only audit record of an access decision,
// successful or failed. Entries are never mutated; the background cleaner
// may drop entries past the retention horizon.
type AccessLogEntry struct {
	// ID is the unique identifier for the entry.
	ID string `json:"id"`
	// ResourceID is the resource the access targeted.
	ResourceID string `json:"resource_id"`
	// AccessType classifies the decision.
	AccessType AccessType `json:"access_type"`
	// IPAddress is the requester address, when known.
	IPAddress string `json:"ip_address,omitempty"`
	// UserAgent is the requester user agent, when known.
	UserAgent string `json:"user_agent,omitempty"`
	// AccessedAt is when the decision was made.
	AccessedAt time.Time `json:"accessed_at"`
}

// Caller identifies who is asking for access. The admin variant is an
// explicit type rather than a boolean so the bypass path stays auditable.
type Caller int

const (
	// CallerAnonymous is an unauthenticated viewer.
	CallerAnonymous Caller = iota
	// CallerAdmin is an authenticated administrator; admins bypass the
	// password check and the rate limiter entirely.
	CallerAdmin
)

// IsAdmin reports whether the caller is an administrator.
func (c Caller) IsAdmin() bool { return c == CallerAdmin }
