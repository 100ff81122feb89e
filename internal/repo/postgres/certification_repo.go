package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yahya-allouhaibi-devo/devo-cert-prep/internal/domain/model"
)

var ErrCertificationNotFound = errors.New("certification not found")

const certificationColumns = `id, provider, name, short_name, description, exam_duration_minutes, exam_question_count, passing_score_percentage, is_active, created_at, updated_at`

type CertificationRepo struct {
	pool *pgxpool.Pool
}

func NewCertificationRepo(pool *pgxpool.Pool) *CertificationRepo {
	return &CertificationRepo{pool: pool}
}

func (r *CertificationRepo) ListActive(ctx context.Context) ([]model.Certification, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	rows, err := r.pool.Query(ctx, `
SELECT `+certificationColumns+`
FROM certifications
WHERE is_active = TRUE
ORDER BY provider ASC, name ASC
`)
	if err != nil {
		return nil, fmt.Errorf("list certifications: %w", err)
	}
	defer rows.Close()

	items := make([]model.Certification, 0)
	for rows.Next() {
		cert, err := scanCertification(rows)
		if err != nil {
			return nil, fmt.Errorf("scan certification row: %w", err)
		}
		items = append(items, cert)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate certification rows: %w", rows.Err())
	}

	return items, nil
}

func (r *CertificationRepo) GetByID(ctx context.Context, certificationID int64) (model.Certification, error) {
	if r.pool == nil {
		return model.Certification{}, fmt.Errorf("postgres pool is nil")
	}
	if certificationID <= 0 {
		return model.Certification{}, ErrCertificationNotFound
	}

	row := r.pool.QueryRow(ctx, `
SELECT `+certificationColumns+`
FROM certifications
WHERE id = $1
`, certificationID)

	cert, err := scanCertification(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Certification{}, ErrCertificationNotFound
		}
		return model.Certification{}, fmt.Errorf("get certification: %w", err)
	}

	return cert, nil
}

func scanCertification(row pgx.Row) (model.Certification, error) {
	var c model.Certification
	err := row.Scan(
		&c.ID,
		&c.Provider,
		&c.Name,
		&c.ShortName,
		&c.Description,
		&c.ExamDurationMinutes,
		&c.ExamQuestionCount,
		&c.PassingScorePercentage,
		&c.IsActive,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return model.Certification{}, err
	}
	return c, nil
}
