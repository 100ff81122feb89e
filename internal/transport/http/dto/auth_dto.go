package dto

import "time"

// IssueSessionRequest is posted by the identity gateway after it has
// authenticated the user. This service does not verify credentials itself.
type IssueSessionRequest struct {
	UserID int64 `json:"user_id"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type ValidateRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type SessionTokensResponse struct {
	SessionID    int64  `json:"session_id"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresInSec int64  `json:"expires_in_sec"`
}

type ValidateResponse struct {
	SessionID  int64     `json:"session_id"`
	UserID     int64     `json:"user_id"`
	ExpiresAt  time.Time `json:"expires_at"`
	LastUsedAt time.Time `json:"last_used_at"`
}

type LogoutResponse struct {
	OK      bool  `json:"ok"`
	Revoked int64 `json:"revoked,omitempty"`
}

type SessionResponse struct {
	ID         int64     `json:"id"`
	UserAgent  *string   `json:"user_agent,omitempty"`
	IPAddress  *string   `json:"ip_address,omitempty"`
	IsActive   bool      `json:"is_active"`
	ExpiresAt  time.Time `json:"expires_at"`
	CreatedAt  time.Time `json:"created_at"`
	LastUsedAt time.Time `json:"last_used_at"`
}

type SessionListResponse struct {
	Sessions []SessionResponse `json:"sessions"`
}
