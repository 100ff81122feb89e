package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yahya-allouhaibi-devo/devo-cert-prep/internal/domain/model"
)

var ErrBookmarkNotFound = errors.New("bookmark not found")

const bookmarkColumns = `id, user_id, question_id, is_flagged, flag_reason, notes, created_at`

type BookmarkRepo struct {
	pool      *pgxpool.Pool
	questions *QuestionRepo
}

func NewBookmarkRepo(pool *pgxpool.Pool, questions *QuestionRepo) *BookmarkRepo {
	return &BookmarkRepo{pool: pool, questions: questions}
}

func (r *BookmarkRepo) Create(ctx context.Context, userID, questionID int64, notes *string) (model.Bookmark, error) {
	if r.pool == nil {
		return model.Bookmark{}, fmt.Errorf("postgres pool is nil")
	}
	if userID <= 0 || questionID <= 0 {
		return model.Bookmark{}, fmt.Errorf("invalid bookmark payload")
	}

	row := r.pool.QueryRow(ctx, `
INSERT INTO bookmarks (user_id, question_id, is_flagged, notes)
VALUES ($1, $2, FALSE, $3)
RETURNING `+bookmarkColumns+`
`, userID, questionID, notes)

	bookmark, err := scanBookmark(row)
	if err != nil {
		return model.Bookmark{}, fmt.Errorf("create bookmark: %w", err)
	}
	return bookmark, nil
}

// CreateFlag records a flagged bookmark and bumps the question's flag
// counter in the same transaction.
func (r *BookmarkRepo) CreateFlag(ctx context.Context, userID, questionID int64, reason string) (model.Bookmark, error) {
	if r.pool == nil {
		return model.Bookmark{}, fmt.Errorf("postgres pool is nil")
	}
	if userID <= 0 || questionID <= 0 || strings.TrimSpace(reason) == "" {
		return model.Bookmark{}, fmt.Errorf("invalid flag payload")
	}

	var bookmark model.Bookmark
	err := WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `
INSERT INTO bookmarks (user_id, question_id, is_flagged, flag_reason)
VALUES ($1, $2, TRUE, $3)
RETURNING `+bookmarkColumns+`
`, userID, questionID, reason)

		var err error
		bookmark, err = scanBookmark(row)
		if err != nil {
			return fmt.Errorf("create flag bookmark: %w", err)
		}

		return r.questions.IncrementFlagCount(ctx, tx, questionID)
	})
	if err != nil {
		return model.Bookmark{}, err
	}

	return bookmark, nil
}

func (r *BookmarkRepo) ListByUser(ctx context.Context, userID int64) ([]model.Bookmark, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}
	if userID <= 0 {
		return nil, fmt.Errorf("invalid user id")
	}

	rows, err := r.pool.Query(ctx, `
SELECT `+bookmarkColumns+`
FROM bookmarks
WHERE user_id = $1
ORDER BY created_at DESC, id DESC
`, userID)
	if err != nil {
		return nil, fmt.Errorf("list bookmarks: %w", err)
	}
	defer rows.Close()

	bookmarks := make([]model.Bookmark, 0)
	for rows.Next() {
		bookmark, err := scanBookmark(rows)
		if err != nil {
			return nil, fmt.Errorf("scan bookmark row: %w", err)
		}
		bookmarks = append(bookmarks, bookmark)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate bookmark rows: %w", rows.Err())
	}

	return bookmarks, nil
}

func (r *BookmarkRepo) Delete(ctx context.Context, bookmarkID, userID int64) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}
	if bookmarkID <= 0 || userID <= 0 {
		return fmt.Errorf("invalid bookmark payload")
	}

	result, err := r.pool.Exec(ctx, `
DELETE FROM bookmarks
WHERE id = $1
  AND user_id = $2
`, bookmarkID, userID)
	if err != nil {
		return fmt.Errorf("delete bookmark: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrBookmarkNotFound
	}
	return nil
}

func scanBookmark(row pgx.Row) (model.Bookmark, error) {
	var b model.Bookmark
	err := row.Scan(
		&b.ID,
		&b.UserID,
		&b.QuestionID,
		&b.IsFlagged,
		&b.FlagReason,
		&b.Notes,
		&b.CreatedAt,
	)
	if err != nil {
		return model.Bookmark{}, err
	}
	return b, nil
}
