package model

import "time"

// Session lifetimes. Non-persistent sessions still carry a finite expiry
// server-side; the transport decides whether the cookie outlives the browser.
const (
	PersistentSessionTTL = 30 * 24 * time.Hour
	EphemeralSessionTTL  = 24 * time.Hour
)

// Session binds an opaque token to a user for a bounded lifetime.
//
// TokenHash is the digest stored at rest; the raw token is only ever held by
// the client.
type Session struct {
	TokenHash  string    `json:"-" db:"token_hash"`
	UserID     string    `json:"user_id" db:"user_id"`
	Persistent bool      `json:"persistent" db:"persistent"`
	ExpiresAt  time.Time `json:"expires_at" db:"expires_at"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// ExpiredAt reports whether the session is no longer usable at now.
func (s Session) ExpiredAt(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
