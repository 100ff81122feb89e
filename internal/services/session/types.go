package session

import (
	"errors"
	"time"
)

var (
	ErrInvalidInput = errors.New("invalid input")

	// ErrSessionNotFound: no session holds the presented secret.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionExpired: the session exists but its expiry has passed.
	ErrSessionExpired = errors.New("session expired")
	// ErrSessionRevoked: the session exists, is unexpired, but its active
	// flag was cleared by revocation or a prior rotation.
	ErrSessionRevoked = errors.New("session revoked")

	ErrUserNotFound = errors.New("user not found or inactive")
	ErrUnauthorized = errors.New("unauthorized")
)

// Issued is what the gateway hands to the client after issue or rotate.
// The secret appears here once; it is retrievable later only by presenting
// it back.
type Issued struct {
	SessionID    int64
	UserID       int64
	Role         string
	RefreshToken string
	ExpiresAt    time.Time
}

// Ref identifies a validated session without exposing the secret.
type Ref struct {
	SessionID  int64
	UserID     int64
	ExpiresAt  time.Time
	LastUsedAt time.Time
}

type AccessClaims struct {
	UserID    int64
	SessionID int64
	Role      string
	ExpiresAt time.Time
}
