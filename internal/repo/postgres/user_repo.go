package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yahya-allouhaibi-devo/devo-cert-prep/internal/domain/enums"
	"github.com/yahya-allouhaibi-devo/devo-cert-prep/internal/domain/model"
)

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email already registered")
)

const userColumns = `id, email, name, picture_url, role, active_certification_id, is_active, created_at, updated_at`

type UserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

func (r *UserRepo) GetByID(ctx context.Context, userID int64) (model.User, error) {
	if r.pool == nil {
		return model.User{}, fmt.Errorf("postgres pool is nil")
	}
	if userID <= 0 {
		return model.User{}, ErrUserNotFound
	}

	row := r.pool.QueryRow(ctx, `
SELECT `+userColumns+`
FROM users
WHERE id = $1
`, userID)

	return scanUser(row, "get user by id")
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	if r.pool == nil {
		return model.User{}, fmt.Errorf("postgres pool is nil")
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return model.User{}, ErrUserNotFound
	}

	row := r.pool.QueryRow(ctx, `
SELECT `+userColumns+`
FROM users
WHERE email = $1
`, email)

	return scanUser(row, "get user by email")
}

func (r *UserRepo) Create(ctx context.Context, email, name string, pictureURL *string, role enums.UserRole) (model.User, error) {
	if r.pool == nil {
		return model.User{}, fmt.Errorf("postgres pool is nil")
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || strings.TrimSpace(name) == "" {
		return model.User{}, fmt.Errorf("invalid user payload")
	}
	if role == "" {
		role = enums.RoleUser
	}

	row := r.pool.QueryRow(ctx, `
INSERT INTO users (email, name, picture_url, role)
VALUES ($1, $2, $3, $4)
RETURNING `+userColumns+`
`, email, name, pictureURL, string(role))

	user, err := scanUser(row, "create user")
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return model.User{}, ErrDuplicateEmail
		}
		return model.User{}, err
	}

	return user, nil
}

func (r *UserRepo) SetActiveCertification(ctx context.Context, userID, certificationID int64) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}
	if userID <= 0 || certificationID <= 0 {
		return fmt.Errorf("invalid payload")
	}

	result, err := r.pool.Exec(ctx, `
UPDATE users
SET active_certification_id = $2,
    updated_at = NOW()
WHERE id = $1
`, userID, certificationID)
	if err != nil {
		return fmt.Errorf("set active certification: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func scanUser(row pgx.Row, op string) (model.User, error) {
	var u model.User
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.Name,
		&u.PictureURL,
		&u.Role,
		&u.ActiveCertificationID,
		&u.IsActive,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, ErrUserNotFound
		}
		return model.User{}, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}
