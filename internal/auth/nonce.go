// Package auth issues and checks the session nonces that guard the REST API.
package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	issuer          = "aca"
	audience        = "aca/v1"
	DefaultLifetime = 12 * time.Hour
)

var (
	ErrInvalidToken = errors.New("invalid admin token")
	ErrInvalidNonce = errors.New("invalid or expired nonce")
)

// Claims is the nonce payload
type Claims struct {
	jwt.RegisteredClaims
}

// Nonces signs and verifies HS256 session nonces
type Nonces struct {
	adminToken []byte
	secret     []byte
	lifetime   time.Duration
	now        func() time.Time
}

// NewNonces creates a nonce issuer. A zero lifetime uses DefaultLifetime.
func NewNonces(adminToken, secret string, lifetime time.Duration) *Nonces {
	if lifetime <= 0 {
		lifetime = DefaultLifetime
	}
	return &Nonces{
		adminToken: []byte(adminToken),
		secret:     []byte(secret),
		lifetime:   lifetime,
		now:        time.Now,
	}
}

// CheckAdminToken compares a presented token in constant time
func (n *Nonces) CheckAdminToken(token string) error {
	if len(n.adminToken) == 0 || subtle.ConstantTimeCompare([]byte(token), n.adminToken) != 1 {
		return ErrInvalidToken
	}
	return nil
}

// Issue signs a new nonce and returns it with its expiry
func (n *Nonces) Issue() (string, time.Time, error) {
	now := n.now()
	expires := now.Add(n.lifetime)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    issuer,
			Audience:  jwt.ClaimStrings{audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(n.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign nonce: %w", err)
	}
	return signed, expires, nil
}

// Verify checks the signature, issuer, audience and expiry of a nonce
func (n *Nonces) Verify(nonce string) (*Claims, error) {
	if nonce == "" {
		return nil, ErrInvalidNonce
	}

	token, err := jwt.ParseWithClaims(nonce, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return n.secret, nil
	},
		jwt.WithIssuer(issuer),
		jwt.WithAudience(audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(n.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidNonce, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidNonce
	}
	return claims, nil
}
