package domain

import "time"

// Session is a revocable server-side login session. The issued JWT carries
// the session id so a revoked row invalidates the token immediately.
type Session struct {
	ID        string
	UserID    string
	TokenHash string // SHA-256 fingerprint of the issued token
	ExpiresAt time.Time
	Revoked   bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Active reports whether the session is usable at the given instant.
func (s Session) Active(now time.Time) bool {
	return !s.Revoked && now.Before(s.ExpiresAt)
}
