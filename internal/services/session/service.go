package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	pgrepo "github.com/yahya-allouhaibi-devo/devo-cert-prep/internal/repo/postgres"

	"github.com/yahya-allouhaibi-devo/devo-cert-prep/internal/domain/model"
)

const (
	MinRefreshTTL = 24 * time.Hour
	MaxRefreshTTL = 90 * 24 * time.Hour

	// tokenRetries bounds regeneration after a storage uniqueness
	// collision. Collisions on 32 random bytes are astronomically rare;
	// the bound exists so a broken random source cannot loop forever.
	tokenRetries = 3
)

type SessionStore interface {
	Insert(ctx context.Context, userID int64, refreshToken string, userAgent, ipAddress *string, expiresAt, now time.Time) (model.Session, error)
	GetByToken(ctx context.Context, refreshToken string) (model.Session, error)
	Rotate(ctx context.Context, oldToken, newToken string, expiresAt, now time.Time) (model.Session, error)
	RevokeByID(ctx context.Context, sessionID int64) error
	RevokeAllForUser(ctx context.Context, userID int64) (int64, error)
	PurgeExpired(ctx context.Context, before time.Time) (int64, error)
	ListByUser(ctx context.Context, userID int64) ([]model.Session, error)
}

type UserStore interface {
	GetByID(ctx context.Context, userID int64) (model.User, error)
}

// Service is the credential session manager. It owns every write to the
// sessions table; the gateway reads sessions only through it. Atomicity of
// rotate and revoke lives in the store (conditional updates), never in an
// in-process lock, so multiple server instances stay correct.
type Service struct {
	sessions   SessionStore
	users      UserStore
	refreshTTL time.Duration
	now        func() time.Time
}

func NewService(sessions SessionStore, users UserStore, refreshTTL time.Duration) *Service {
	if refreshTTL < MinRefreshTTL {
		refreshTTL = MinRefreshTTL
	}
	if refreshTTL > MaxRefreshTTL {
		refreshTTL = MaxRefreshTTL
	}

	return &Service{
		sessions:   sessions,
		users:      users,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// Issue mints a fresh refresh credential for an existing, active user.
// Client descriptor and origin address are advisory audit fields.
func (s *Service) Issue(ctx context.Context, userID int64, userAgent, ipAddress *string) (Issued, error) {
	if userID <= 0 {
		return Issued{}, ErrInvalidInput
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrUserNotFound) {
			return Issued{}, ErrUserNotFound
		}
		return Issued{}, fmt.Errorf("get user: %w", err)
	}
	if !user.IsActive {
		return Issued{}, ErrUserNotFound
	}

	now := s.now().UTC()
	expiresAt := now.Add(s.refreshTTL)

	for attempt := 0; attempt < tokenRetries; attempt++ {
		token, err := NewRefreshToken()
		if err != nil {
			return Issued{}, fmt.Errorf("generate refresh token: %w", err)
		}

		created, err := s.sessions.Insert(ctx, userID, token, userAgent, ipAddress, expiresAt, now)
		if err != nil {
			if errors.Is(err, pgrepo.ErrDuplicateRefreshToken) {
				continue
			}
			if errors.Is(err, pgrepo.ErrSessionUserNotFound) {
				return Issued{}, ErrUserNotFound
			}
			return Issued{}, fmt.Errorf("create session: %w", err)
		}

		return Issued{
			SessionID:    created.ID,
			UserID:       created.UserID,
			Role:         string(user.Role),
			RefreshToken: created.RefreshToken,
			ExpiresAt:    created.ExpiresAt,
		}, nil
	}

	return Issued{}, fmt.Errorf("exhausted refresh token generation retries")
}

// Validate checks a presented secret without side effects.
func (s *Service) Validate(ctx context.Context, refreshToken string) (Ref, error) {
	record, err := s.lookup(ctx, refreshToken)
	if err != nil {
		return Ref{}, err
	}

	return Ref{
		SessionID:  record.ID,
		UserID:     record.UserID,
		ExpiresAt:  record.ExpiresAt,
		LastUsedAt: record.LastUsedAt,
	}, nil
}

// Rotate exchanges a usable secret for a fresh one, invalidating the
// presented secret. Replaying an already-rotated secret fails with
// ErrSessionRevoked; this is the anti-replay property, enforced by the
// store's compare-and-swap so concurrent rotations have exactly one winner.
func (s *Service) Rotate(ctx context.Context, refreshToken string) (Issued, error) {
	if _, err := s.lookup(ctx, refreshToken); err != nil {
		return Issued{}, err
	}

	now := s.now().UTC()
	expiresAt := now.Add(s.refreshTTL)

	for attempt := 0; attempt < tokenRetries; attempt++ {
		newToken, err := NewRefreshToken()
		if err != nil {
			return Issued{}, fmt.Errorf("generate refresh token: %w", err)
		}

		rotated, err := s.sessions.Rotate(ctx, refreshToken, newToken, expiresAt, now)
		if err != nil {
			if errors.Is(err, pgrepo.ErrDuplicateRefreshToken) {
				continue
			}
			if errors.Is(err, pgrepo.ErrRotateConflict) {
				// Lost the race: someone rotated or revoked this
				// secret between our check and the swap.
				return Issued{}, s.classify(ctx, refreshToken)
			}
			return Issued{}, fmt.Errorf("rotate session: %w", err)
		}

		user, err := s.users.GetByID(ctx, rotated.UserID)
		if err != nil {
			if errors.Is(err, pgrepo.ErrUserNotFound) {
				return Issued{}, ErrUserNotFound
			}
			return Issued{}, fmt.Errorf("get user: %w", err)
		}

		return Issued{
			SessionID:    rotated.ID,
			UserID:       rotated.UserID,
			Role:         string(user.Role),
			RefreshToken: rotated.RefreshToken,
			ExpiresAt:    rotated.ExpiresAt,
		}, nil
	}

	return Issued{}, fmt.Errorf("exhausted refresh token generation retries")
}

// Revoke clears one session's active flag. The row is kept for audit.
func (s *Service) Revoke(ctx context.Context, sessionID int64) error {
	if sessionID <= 0 {
		return ErrInvalidInput
	}

	if err := s.sessions.RevokeByID(ctx, sessionID); err != nil {
		if errors.Is(err, pgrepo.ErrSessionNotFound) {
			return ErrSessionNotFound
		}
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

// RevokeAllForUser is "log out everywhere".
func (s *Service) RevokeAllForUser(ctx context.Context, userID int64) (int64, error) {
	if userID <= 0 {
		return 0, ErrInvalidInput
	}

	revoked, err := s.sessions.RevokeAllForUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("revoke user sessions: %w", err)
	}
	return revoked, nil
}

// PurgeExpired removes rows that are past the cutoff and already inactive.
// Rows still flagged active are never purged, expired or not.
func (s *Service) PurgeExpired(ctx context.Context, before time.Time) (int64, error) {
	if before.IsZero() {
		return 0, ErrInvalidInput
	}

	purged, err := s.sessions.PurgeExpired(ctx, before)
	if err != nil {
		return 0, fmt.Errorf("purge expired sessions: %w", err)
	}
	return purged, nil
}

// Sessions lists a user's session rows, active and revoked, for audit.
func (s *Service) Sessions(ctx context.Context, userID int64) ([]model.Session, error) {
	if userID <= 0 {
		return nil, ErrInvalidInput
	}

	sessions, err := s.sessions.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return sessions, nil
}

func (s *Service) lookup(ctx context.Context, refreshToken string) (model.Session, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return model.Session{}, ErrSessionNotFound
	}

	record, err := s.sessions.GetByToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, pgrepo.ErrSessionNotFound) {
			return model.Session{}, ErrSessionNotFound
		}
		return model.Session{}, fmt.Errorf("get session by token: %w", err)
	}

	// Expiry wins over revocation in reporting: an expired credential is
	// expired even when its active flag was never cleared.
	if !s.now().UTC().Before(record.ExpiresAt) {
		return model.Session{}, ErrSessionExpired
	}
	if !record.IsActive {
		return model.Session{}, ErrSessionRevoked
	}

	return record, nil
}

// classify re-reads a secret after a lost rotate race and returns the
// terminal failure the caller should observe.
func (s *Service) classify(ctx context.Context, refreshToken string) error {
	_, err := s.lookup(ctx, refreshToken)
	if err == nil {
		// The row still looks usable; the conditional update can only
		// have missed because of a concurrent writer.
		return ErrSessionRevoked
	}
	return err
}
