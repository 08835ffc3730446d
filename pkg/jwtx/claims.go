package jwtx

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/aussiebroadwan/portal/pkg/idx"
)

// DefaultAccessTokenTTL is the default lifetime for portal access tokens.
const DefaultAccessTokenTTL = 15 * time.Minute

// Claims are the access-token claims issued by the portal backend.
type Claims struct {
	jwt.RegisteredClaims

	// Usuario is the student code the token was issued to.
	Usuario string `json:"usuario,omitempty"`

	// Generation lets the issuer revoke every outstanding token at once.
	Generation int64 `json:"gen"`
}

// NewAccessClaims builds claims for usuario valid for ttl from now.
func NewAccessClaims(usuario, issuer string, generation int64, ttl time.Duration, now time.Time) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   usuario,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        idx.NewAt(now).String(),
		},
		Usuario:    usuario,
		Generation: generation,
	}
}

// ValidateIssuer checks if the issuer matches expected value.
func (c *Claims) ValidateIssuer(expected string) error {
	if expected == "" {
		return nil // nothing to enforce
	}

	if c.Issuer != expected {
		return ErrIssuer
	}
	return nil
}

// ValidateExpiryWithLeeway checks exp and nbf with a grace period for clock skew.
func (c *Claims) ValidateExpiryWithLeeway(now time.Time, leeway time.Duration) error {
	if c.ExpiresAt != nil && now.After(c.ExpiresAt.Add(leeway)) {
		return ErrExpired
	}

	if c.NotBefore != nil && now.Before(c.NotBefore.Add(-leeway)) {
		return ErrNotYetValid
	}
	return nil
}
