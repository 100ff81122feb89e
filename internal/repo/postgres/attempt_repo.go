package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yahya-allouhaibi-devo/devo-cert-prep/internal/domain/enums"
	"github.com/yahya-allouhaibi-devo/devo-cert-prep/internal/domain/model"
)

const attemptColumns = `id, user_id, question_id, is_correct, selected_answer, time_spent_seconds, practice_mode, attempted_at`

// AttemptRepo owns the append-only user_progress ledger. It deliberately has
// no update or delete methods; recorded attempts are immutable.
type AttemptRepo struct {
	pool *pgxpool.Pool
}

type TopicStats struct {
	Total   int64
	Correct int64
}

func NewAttemptRepo(pool *pgxpool.Pool) *AttemptRepo {
	return &AttemptRepo{pool: pool}
}

func (r *AttemptRepo) Insert(ctx context.Context, userID, questionID int64, isCorrect bool, selectedAnswer string, timeSpent *int, mode enums.PracticeMode, attemptedAt time.Time) (model.Attempt, error) {
	if r.pool == nil {
		return model.Attempt{}, fmt.Errorf("postgres pool is nil")
	}
	if userID <= 0 || questionID <= 0 {
		return model.Attempt{}, fmt.Errorf("invalid attempt payload")
	}
	if attemptedAt.IsZero() {
		attemptedAt = time.Now().UTC()
	}

	var a model.Attempt
	err := r.pool.QueryRow(ctx, `
INSERT INTO user_progress (
	user_id,
	question_id,
	is_correct,
	selected_answer,
	time_spent_seconds,
	practice_mode,
	attempted_at
) VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING `+attemptColumns+`
`, userID, questionID, isCorrect, selectedAnswer, timeSpent, string(mode), attemptedAt.UTC()).Scan(
		&a.ID,
		&a.UserID,
		&a.QuestionID,
		&a.IsCorrect,
		&a.SelectedAnswer,
		&a.TimeSpentSeconds,
		&a.PracticeMode,
		&a.AttemptedAt,
	)
	if err != nil {
		return model.Attempt{}, fmt.Errorf("insert attempt: %w", err)
	}

	return a, nil
}

// TopicStats aggregates a user's attempts on questions within one topic.
// Passing a zero since keeps the full history.
func (r *AttemptRepo) TopicStats(ctx context.Context, userID, topicID int64, since time.Time) (TopicStats, error) {
	if r.pool == nil {
		return TopicStats{}, fmt.Errorf("postgres pool is nil")
	}
	if userID <= 0 || topicID <= 0 {
		return TopicStats{}, fmt.Errorf("invalid topic stats payload")
	}

	var sincePtr *time.Time
	if !since.IsZero() {
		utc := since.UTC()
		sincePtr = &utc
	}

	var stats TopicStats
	err := r.pool.QueryRow(ctx, `
SELECT
	COUNT(*),
	COUNT(*) FILTER (WHERE up.is_correct)
FROM user_progress up
JOIN questions q ON q.id = up.question_id
WHERE up.user_id = $1
  AND q.topic_id = $2
  AND ($3::timestamptz IS NULL OR up.attempted_at >= $3)
`, userID, topicID, sincePtr).Scan(&stats.Total, &stats.Correct)
	if err != nil {
		return TopicStats{}, fmt.Errorf("aggregate topic stats: %w", err)
	}

	return stats, nil
}

// ForEach streams a user's attempts ordered by attempt time ascending,
// optionally narrowed to one question. Each call runs a fresh query over
// current storage state.
func (r *AttemptRepo) ForEach(ctx context.Context, userID int64, questionID *int64, fn func(model.Attempt) error) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}
	if userID <= 0 {
		return fmt.Errorf("invalid user id")
	}
	if fn == nil {
		return fmt.Errorf("attempt callback is required")
	}

	rows, err := r.pool.Query(ctx, `
SELECT `+attemptColumns+`
FROM user_progress
WHERE user_id = $1
  AND ($2::bigint IS NULL OR question_id = $2)
ORDER BY attempted_at ASC, id ASC
`, userID, questionID)
	if err != nil {
		return fmt.Errorf("query attempts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var a model.Attempt
		if err := rows.Scan(
			&a.ID,
			&a.UserID,
			&a.QuestionID,
			&a.IsCorrect,
			&a.SelectedAnswer,
			&a.TimeSpentSeconds,
			&a.PracticeMode,
			&a.AttemptedAt,
		); err != nil {
			return fmt.Errorf("scan attempt row: %w", err)
		}
		if err := fn(a); err != nil {
			return err
		}
	}
	if rows.Err() != nil {
		return fmt.Errorf("iterate attempt rows: %w", rows.Err())
	}

	return nil
}

func (r *AttemptRepo) ListHistory(ctx context.Context, userID int64, questionID *int64) ([]model.Attempt, error) {
	attempts := make([]model.Attempt, 0)
	err := r.ForEach(ctx, userID, questionID, func(a model.Attempt) error {
		attempts = append(attempts, a)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return attempts, nil
}
