package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Signer mints and verifies the HMAC-signed credentials the HTTP layer
// hands out: resource-scoped access cookies and admin bearer tokens.
type Signer struct {
	secret []byte
}

// NewSigner creates a Signer using the given HMAC secret.
func NewSigner(secret string) (*Signer, error) {
	if secret == "" {
		return nil, errors.New("signing secret is required")
	}
	return &Signer{secret: []byte(secret)}, nil
}

// accessClaims scope an access cookie to a single resource.
type accessClaims struct {
	ResourceID string `json:"rid"`
	jwt.RegisteredClaims
}

// adminClaims mark a bearer token as administrative.
type adminClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// MintAccessCookie signs a cookie value granting access to resourceID
// until expiry.
func (s *Signer) MintAccessCookie(resourceID string, expiresAt time.Time) (string, error) {
	claims := accessClaims{
		ResourceID: resourceID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// VerifyAccessCookie checks the cookie signature and expiry and returns
// the resource ID it is scoped to.
func (s *Signer) VerifyAccessCookie(value string) (string, error) {
	var claims accessClaims
	token, err := jwt.ParseWithClaims(value, &claims, s.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", fmt.Errorf("parse access cookie: %w", err)
	}
	if !token.Valid || claims.ResourceID == "" {
		return "", errors.New("invalid access cookie")
	}
	return claims.ResourceID, nil
}

// MintAdminToken signs an admin bearer token valid for ttl. Intended for
// operator tooling; the service itself only verifies.
func (s *Signer) MintAdminToken(ttl time.Duration) (string, error) {
	claims := adminClaims{
		Role: "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// VerifyAdminToken checks the bearer token signature, expiry, and role.
func (s *Signer) VerifyAdminToken(value string) error {
	var claims adminClaims
	token, err := jwt.ParseWithClaims(value, &claims, s.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return fmt.Errorf("parse admin token: %w", err)
	}
	if !token.Valid || claims.Role != "admin" {
		return errors.New("invalid admin token")
	}
	return nil
}

func (s *Signer) keyFunc(*jwt.Token) (interface{}, error) {
	return s.secret, nil
}
