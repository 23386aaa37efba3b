// Package jwtx signs and verifies the service's HS256 session tokens.
//
// Tokens are deliberately thin: subject (user id), role, and a session id
// that points at a revocable server-side session row. Authorization decisions
// are made against the database, not the token, so a revoked session dies
// immediately even if the token is still within its validity window.
package jwtx

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("jwtx: invalid token")
	ErrExpiredToken = errors.New("jwtx: token expired")
)

// Claims is the decoded session token payload.
type Claims struct {
	Subject   string    // user id
	Role      string    // role at issue time (advisory; re-resolved server-side)
	SessionID string    // server-side session row (jti)
	Issuer    string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type tokenClaims struct {
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Signer mints and verifies HS256 session tokens with a shared secret.
type Signer struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

func NewSigner(secret, issuer string, ttl time.Duration) *Signer {
	return &Signer{secret: []byte(secret), issuer: issuer, ttl: ttl}
}

// Sign issues a token for the given user, role, and session id.
func (s *Signer) Sign(userID, role, sessionID string, now time.Time) (string, error) {
	claims := tokenClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    s.issuer,
			ID:        sessionID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("jwtx: sign: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a token, rejecting non-HMAC algorithms.
func (s *Signer) Verify(raw string) (Claims, error) {
	var tc tokenClaims
	tok, err := jwt.ParseWithClaims(raw, &tc, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	}, jwt.WithIssuer(s.issuer))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, ErrExpiredToken
		}
		return Claims{}, ErrInvalidToken
	}
	if !tok.Valid {
		return Claims{}, ErrInvalidToken
	}

	c := Claims{
		Subject:   tc.Subject,
		Role:      tc.Role,
		SessionID: tc.ID,
		Issuer:    tc.Issuer,
	}
	if tc.IssuedAt != nil {
		c.IssuedAt = tc.IssuedAt.Time
	}
	if tc.ExpiresAt != nil {
		c.ExpiresAt = tc.ExpiresAt.Time
	}
	if c.Subject == "" || c.SessionID == "" {
		return Claims{}, ErrInvalidToken
	}
	return c, nil
}

// TTL reports the configured token lifetime.
func (s *Signer) TTL() time.Duration { return s.ttl }
