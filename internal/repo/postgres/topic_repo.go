package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yahya-allouhaibi-devo/devo-cert-prep/internal/domain/model"
)

var ErrTopicNotFound = errors.New("topic not found")

const topicColumns = `id, certification_id, name, description, weight_percentage, sort_order, is_active, created_at, updated_at`

type TopicRepo struct {
	pool *pgxpool.Pool
}

func NewTopicRepo(pool *pgxpool.Pool) *TopicRepo {
	return &TopicRepo{pool: pool}
}

func (r *TopicRepo) ListByCertification(ctx context.Context, certificationID int64) ([]model.Topic, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}
	if certificationID <= 0 {
		return nil, fmt.Errorf("invalid certification id")
	}

	rows, err := r.pool.Query(ctx, `
SELECT `+topicColumns+`
FROM topics
WHERE certification_id = $1
  AND is_active = TRUE
ORDER BY sort_order ASC, id ASC
`, certificationID)
	if err != nil {
		return nil, fmt.Errorf("list topics: %w", err)
	}
	defer rows.Close()

	topics := make([]model.Topic, 0)
	for rows.Next() {
		topic, err := scanTopic(rows)
		if err != nil {
			return nil, fmt.Errorf("scan topic row: %w", err)
		}
		topics = append(topics, topic)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate topic rows: %w", rows.Err())
	}

	return topics, nil
}

func (r *TopicRepo) GetByID(ctx context.Context, topicID int64) (model.Topic, error) {
	if r.pool == nil {
		return model.Topic{}, fmt.Errorf("postgres pool is nil")
	}
	if topicID <= 0 {
		return model.Topic{}, ErrTopicNotFound
	}

	row := r.pool.QueryRow(ctx, `
SELECT `+topicColumns+`
FROM topics
WHERE id = $1
`, topicID)

	topic, err := scanTopic(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Topic{}, ErrTopicNotFound
		}
		return model.Topic{}, fmt.Errorf("get topic: %w", err)
	}

	return topic, nil
}

func scanTopic(row pgx.Row) (model.Topic, error) {
	var t model.Topic
	err := row.Scan(
		&t.ID,
		&t.CertificationID,
		&t.Name,
		&t.Description,
		&t.WeightPercentage,
		&t.Order,
		&t.IsActive,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return model.Topic{}, err
	}
	return t, nil
}
