package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yahya-allouhaibi-devo/devo-cert-prep/internal/domain/model"
)

var ErrQuestionNotFound = errors.New("question not found")

const questionColumns = `id, topic_id, question_text, explanation, options, correct_answer, difficulty, source, source_url, image_url, status, quality_score, rating_count, flag_count, created_by, is_active, created_at, updated_at`

type QuestionRepo struct {
	pool *pgxpool.Pool
}

func NewQuestionRepo(pool *pgxpool.Pool) *QuestionRepo {
	return &QuestionRepo{pool: pool}
}

func (r *QuestionRepo) GetByID(ctx context.Context, questionID int64) (model.Question, error) {
	if r.pool == nil {
		return model.Question{}, fmt.Errorf("postgres pool is nil")
	}
	if questionID <= 0 {
		return model.Question{}, ErrQuestionNotFound
	}

	row := r.pool.QueryRow(ctx, `
SELECT `+questionColumns+`
FROM questions
WHERE id = $1
`, questionID)

	question, err := scanQuestion(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Question{}, ErrQuestionNotFound
		}
		return model.Question{}, fmt.Errorf("get question: %w", err)
	}

	return question, nil
}

func (r *QuestionRepo) ListActiveByTopic(ctx context.Context, topicID int64, limit int) ([]model.Question, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}
	if topicID <= 0 {
		return nil, fmt.Errorf("invalid topic id")
	}
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.pool.Query(ctx, `
SELECT `+questionColumns+`
FROM questions
WHERE topic_id = $1
  AND is_active = TRUE
  AND status = 'approved'
ORDER BY id ASC
LIMIT $2
`, topicID, limit)
	if err != nil {
		return nil, fmt.Errorf("list questions by topic: %w", err)
	}
	defer rows.Close()

	questions := make([]model.Question, 0)
	for rows.Next() {
		question, err := scanQuestion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan question row: %w", err)
		}
		questions = append(questions, question)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate question rows: %w", rows.Err())
	}

	return questions, nil
}

// PickRandomForUser draws one approved, active question from a topic. With
// preferUnseen set it first tries questions the user has never attempted and
// falls back to the whole topic pool when everything has been seen.
func (r *QuestionRepo) PickRandomForUser(ctx context.Context, topicID, userID int64, preferUnseen bool) (model.Question, error) {
	if r.pool == nil {
		return model.Question{}, fmt.Errorf("postgres pool is nil")
	}
	if topicID <= 0 || userID <= 0 {
		return model.Question{}, fmt.Errorf("invalid pick payload")
	}

	if preferUnseen {
		question, err := r.pickRandom(ctx, topicID, &userID)
		if err == nil {
			return question, nil
		}
		if !errors.Is(err, ErrQuestionNotFound) {
			return model.Question{}, err
		}
	}

	return r.pickRandom(ctx, topicID, nil)
}

func (r *QuestionRepo) pickRandom(ctx context.Context, topicID int64, unseenByUser *int64) (model.Question, error) {
	row := r.pool.QueryRow(ctx, `
SELECT `+questionColumns+`
FROM questions q
WHERE q.topic_id = $1
  AND q.is_active = TRUE
  AND q.status = 'approved'
  AND ($2::bigint IS NULL OR NOT EXISTS (
	SELECT 1 FROM user_progress up
	WHERE up.user_id = $2 AND up.question_id = q.id
  ))
ORDER BY random()
LIMIT 1
`, topicID, unseenByUser)

	question, err := scanQuestion(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Question{}, ErrQuestionNotFound
		}
		return model.Question{}, fmt.Errorf("pick random question: %w", err)
	}

	return question, nil
}

// SetImageKey stores the object key of the question's illustration. Clients
// never see the key directly; it is presigned into a URL on read.
func (r *QuestionRepo) SetImageKey(ctx context.Context, questionID int64, key string) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}
	if questionID <= 0 || key == "" {
		return fmt.Errorf("invalid image key payload")
	}

	result, err := r.pool.Exec(ctx, `
UPDATE questions
SET image_url = $2,
    updated_at = NOW()
WHERE id = $1
`, questionID, key)
	if err != nil {
		return fmt.Errorf("set question image key: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrQuestionNotFound
	}
	return nil
}

func (r *QuestionRepo) IncrementFlagCount(ctx context.Context, tx pgx.Tx, questionID int64) error {
	if tx == nil {
		return fmt.Errorf("transaction is required")
	}
	if questionID <= 0 {
		return fmt.Errorf("invalid question id")
	}

	result, err := tx.Exec(ctx, `
UPDATE questions
SET flag_count = flag_count + 1,
    updated_at = NOW()
WHERE id = $1
`, questionID)
	if err != nil {
		return fmt.Errorf("increment flag count: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrQuestionNotFound
	}
	return nil
}

func scanQuestion(row pgx.Row) (model.Question, error) {
	var (
		q       model.Question
		options []byte
	)
	err := row.Scan(
		&q.ID,
		&q.TopicID,
		&q.QuestionText,
		&q.Explanation,
		&options,
		&q.CorrectAnswer,
		&q.Difficulty,
		&q.Source,
		&q.SourceURL,
		&q.ImageURL,
		&q.Status,
		&q.QualityScore,
		&q.RatingCount,
		&q.FlagCount,
		&q.CreatedBy,
		&q.IsActive,
		&q.CreatedAt,
		&q.UpdatedAt,
	)
	if err != nil {
		return model.Question{}, err
	}

	if len(options) > 0 {
		if err := json.Unmarshal(options, &q.Options); err != nil {
			return model.Question{}, fmt.Errorf("decode question options: %w", err)
		}
	}

	return q, nil
}
