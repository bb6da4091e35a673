// Package service implements the access-control business logic: password
// verification, temporary-token lifecycle, and access auditing. Persistence
// is delegated to repositories.
package service

import "errors"

// Module-boundary error taxonomy. Raw storage errors are always wrapped
// before leaving this package; password and token checks fail closed on
// storage errors, log writes fail open.
var (
	// ErrNotFound means the resource or token does not exist.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized means the caller lacks admin rights for an
	// admin-only operation.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrRateLimited means too many recent failures for a key.
	ErrRateLimited = errors.New("too many attempts")
	// ErrInvalidCredential means a wrong password or an invalid, expired,
	// or exhausted token. Callers must surface it generically.
	ErrInvalidCredential = errors.New("invalid credential")
	// ErrMisconfigured means a protected resource has no stored hash.
	// Operator error; never expose configuration detail to clients.
	ErrMisconfigured = errors.New("resource misconfigured")
	// ErrStorage wraps any persistence failure.
	ErrStorage = errors.New("storage failure")
	// ErrInvalidRequest means malformed input, rejected before any
	// storage access.
	ErrInvalidRequest = errors.New("invalid request")
)

// Reason explains an access decision to the caller.
type Reason string

const (
	ReasonNotFound        Reason = "not_found"
	ReasonAdminAccess     Reason = "admin_access"
	ReasonNotProtected    Reason = "not_protected"
	ReasonRateLimited     Reason = "rate_limited"
	ReasonMisconfigured   Reason = "misconfigured"
	ReasonInvalidPassword Reason = "invalid_password"
	ReasonPasswordSuccess Reason = "password_success"
	ReasonTempLink        Reason = "temp_link"
	ReasonSession         Reason = "session"
	ReasonInvalidToken    Reason = "invalid_token"
	ReasonInvalidRequest  Reason = "invalid_request"
)
