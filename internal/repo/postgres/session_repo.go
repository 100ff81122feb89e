package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yahya-allouhaibi-devo/devo-cert-prep/internal/domain/model"
)

var (
	ErrSessionNotFound       = errors.New("session not found")
	ErrDuplicateRefreshToken = errors.New("refresh token already exists")
	ErrSessionUserNotFound   = errors.New("session user not found")

	// ErrRotateConflict means the conditional deactivate matched no usable
	// row: another rotation or a revoke won the race.
	ErrRotateConflict = errors.New("session rotate conflict")
)

const sessionColumns = `id, user_id, refresh_token, user_agent, ip_address, expires_at, is_active, created_at, last_used_at`

type SessionRepo struct {
	pool *pgxpool.Pool
}

func NewSessionRepo(pool *pgxpool.Pool) *SessionRepo {
	return &SessionRepo{pool: pool}
}

func (r *SessionRepo) Insert(ctx context.Context, userID int64, refreshToken string, userAgent, ipAddress *string, expiresAt, now time.Time) (model.Session, error) {
	if r.pool == nil {
		return model.Session{}, fmt.Errorf("postgres pool is nil")
	}
	if userID <= 0 || strings.TrimSpace(refreshToken) == "" {
		return model.Session{}, fmt.Errorf("invalid session payload")
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}

	row := r.pool.QueryRow(ctx, `
INSERT INTO sessions (
	user_id,
	refresh_token,
	user_agent,
	ip_address,
	expires_at,
	is_active,
	created_at,
	last_used_at
) VALUES ($1, $2, $3, $4, $5, TRUE, $6, $6)
RETURNING `+sessionColumns+`
`, userID, refreshToken, userAgent, ipAddress, expiresAt.UTC(), now.UTC())

	session, err := scanSession(row)
	if err != nil {
		return model.Session{}, mapSessionInsertError(err)
	}

	return session, nil
}

func (r *SessionRepo) GetByToken(ctx context.Context, refreshToken string) (model.Session, error) {
	if r.pool == nil {
		return model.Session{}, fmt.Errorf("postgres pool is nil")
	}
	if strings.TrimSpace(refreshToken) == "" {
		return model.Session{}, ErrSessionNotFound
	}

	row := r.pool.QueryRow(ctx, `
SELECT `+sessionColumns+`
FROM sessions
WHERE refresh_token = $1
`, refreshToken)

	session, err := scanSession(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Session{}, ErrSessionNotFound
		}
		return model.Session{}, fmt.Errorf("get session by token: %w", err)
	}

	return session, nil
}

// Rotate deactivates the presented token and inserts its successor in one
// transaction. The deactivate is a conditional update on the active flag, so
// of N concurrent rotations of the same token exactly one commits; the rest
// get ErrRotateConflict. Provenance fields carry over to the new row.
func (r *SessionRepo) Rotate(ctx context.Context, oldToken, newToken string, expiresAt, now time.Time) (model.Session, error) {
	if r.pool == nil {
		return model.Session{}, fmt.Errorf("postgres pool is nil")
	}
	if strings.TrimSpace(oldToken) == "" || strings.TrimSpace(newToken) == "" {
		return model.Session{}, fmt.Errorf("invalid rotate payload")
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}

	var rotated model.Session
	err := WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		var (
			userID    int64
			userAgent *string
			ipAddress *string
		)
		err := tx.QueryRow(ctx, `
UPDATE sessions
SET is_active = FALSE,
    last_used_at = $2
WHERE refresh_token = $1
  AND is_active = TRUE
  AND expires_at > $2
RETURNING user_id, user_agent, ip_address
`, oldToken, now.UTC()).Scan(&userID, &userAgent, &ipAddress)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrRotateConflict
			}
			return fmt.Errorf("deactivate rotated session: %w", err)
		}

		row := tx.QueryRow(ctx, `
INSERT INTO sessions (
	user_id,
	refresh_token,
	user_agent,
	ip_address,
	expires_at,
	is_active,
	created_at,
	last_used_at
) VALUES ($1, $2, $3, $4, $5, TRUE, $6, $6)
RETURNING `+sessionColumns+`
`, userID, newToken, userAgent, ipAddress, expiresAt.UTC(), now.UTC())

		rotated, err = scanSession(row)
		if err != nil {
			return mapSessionInsertError(err)
		}
		return nil
	})
	if err != nil {
		return model.Session{}, err
	}

	return rotated, nil
}

func (r *SessionRepo) RevokeByID(ctx context.Context, sessionID int64) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}
	if sessionID <= 0 {
		return fmt.Errorf("invalid session id")
	}

	result, err := r.pool.Exec(ctx, `
UPDATE sessions
SET is_active = FALSE
WHERE id = $1
`, sessionID)
	if err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrSessionNotFound
	}
	return nil
}

func (r *SessionRepo) RevokeAllForUser(ctx context.Context, userID int64) (int64, error) {
	if r.pool == nil {
		return 0, fmt.Errorf("postgres pool is nil")
	}
	if userID <= 0 {
		return 0, fmt.Errorf("invalid user id")
	}

	result, err := r.pool.Exec(ctx, `
UPDATE sessions
SET is_active = FALSE
WHERE user_id = $1
  AND is_active = TRUE
`, userID)
	if err != nil {
		return 0, fmt.Errorf("revoke user sessions: %w", err)
	}
	return result.RowsAffected(), nil
}

// PurgeExpired deletes rows that are both past expiry and already revoked or
// rotated away. Rows with is_active still set are never touched, whatever
// their expiry says.
func (r *SessionRepo) PurgeExpired(ctx context.Context, before time.Time) (int64, error) {
	if r.pool == nil {
		return 0, fmt.Errorf("postgres pool is nil")
	}
	if before.IsZero() {
		return 0, fmt.Errorf("purge cutoff is required")
	}

	result, err := r.pool.Exec(ctx, `
DELETE FROM sessions
WHERE expires_at < $1
  AND is_active = FALSE
`, before.UTC())
	if err != nil {
		return 0, fmt.Errorf("purge expired sessions: %w", err)
	}
	return result.RowsAffected(), nil
}

func (r *SessionRepo) ListByUser(ctx context.Context, userID int64) ([]model.Session, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}
	if userID <= 0 {
		return nil, fmt.Errorf("invalid user id")
	}

	rows, err := r.pool.Query(ctx, `
SELECT `+sessionColumns+`
FROM sessions
WHERE user_id = $1
ORDER BY created_at DESC, id DESC
`, userID)
	if err != nil {
		return nil, fmt.Errorf("list user sessions: %w", err)
	}
	defer rows.Close()

	sessions := make([]model.Session, 0)
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session row: %w", err)
		}
		sessions = append(sessions, session)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate session rows: %w", rows.Err())
	}

	return sessions, nil
}

func scanSession(row pgx.Row) (model.Session, error) {
	var s model.Session
	err := row.Scan(
		&s.ID,
		&s.UserID,
		&s.RefreshToken,
		&s.UserAgent,
		&s.IPAddress,
		&s.ExpiresAt,
		&s.IsActive,
		&s.CreatedAt,
		&s.LastUsedAt,
	)
	if err != nil {
		return model.Session{}, err
	}
	return s, nil
}

func mapSessionInsertError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return ErrDuplicateRefreshToken
		case "23503":
			return ErrSessionUserNotFound
		}
	}
	return fmt.Errorf("insert session: %w", err)
}
