package auth

import "time"

// Session is the authenticated user context derived from a valid token.
type Session struct {
	UserID    int64     `json:"user_id"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SessionFromClaims builds a session from validated claims.
func SessionFromClaims(c *Claims) Session {
	s := Session{UserID: c.UserID, Email: c.Email}
	if c.ExpiresAt != nil {
		s.ExpiresAt = c.ExpiresAt.Time
	}
	return s
}
