package model

import "time"

// Session is a persisted refresh credential. Short-lived access tokens are
// never stored; only the opaque refresh token lives in this row.
type Session struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"user_id"`
	RefreshToken string    `json:"refresh_token"`
	UserAgent    *string   `json:"user_agent,omitempty"`
	IPAddress    *string   `json:"ip_address,omitempty"`
	ExpiresAt    time.Time `json:"expires_at"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	LastUsedAt   time.Time `json:"last_used_at"`
}

// Usable reports whether the credential can still be validated or rotated.
// Any other state is terminal for this row.
func (s Session) Usable(now time.Time) bool {
	return s.IsActive && now.Before(s.ExpiresAt)
}
