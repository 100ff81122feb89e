package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Migrate creates the schema on startup. Development bootstrap only; a real
// deployment runs versioned migrations instead.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
	id BIGSERIAL PRIMARY KEY,
	email VARCHAR(255) NOT NULL UNIQUE,
	name VARCHAR(255) NOT NULL,
	picture_url VARCHAR(500),
	role VARCHAR(20) NOT NULL DEFAULT 'user',
	active_certification_id BIGINT,
	is_active BOOLEAN NOT NULL DEFAULT TRUE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
		`CREATE TABLE IF NOT EXISTS certifications (
	id BIGSERIAL PRIMARY KEY,
	provider VARCHAR(20) NOT NULL,
	name VARCHAR(255) NOT NULL,
	short_name VARCHAR(50) NOT NULL,
	description TEXT,
	exam_duration_minutes INT NOT NULL,
	exam_question_count INT NOT NULL,
	passing_score_percentage INT NOT NULL,
	is_active BOOLEAN NOT NULL DEFAULT TRUE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
		`CREATE TABLE IF NOT EXISTS topics (
	id BIGSERIAL PRIMARY KEY,
	certification_id BIGINT NOT NULL REFERENCES certifications(id),
	name VARCHAR(255) NOT NULL,
	description TEXT,
	weight_percentage INT NOT NULL DEFAULT 0,
	sort_order INT NOT NULL DEFAULT 0,
	is_active BOOLEAN NOT NULL DEFAULT TRUE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
		`CREATE TABLE IF NOT EXISTS questions (
	id BIGSERIAL PRIMARY KEY,
	topic_id BIGINT NOT NULL REFERENCES topics(id),
	question_text VARCHAR(2000) NOT NULL,
	explanation VARCHAR(2000),
	options JSONB NOT NULL,
	correct_answer VARCHAR(10) NOT NULL,
	difficulty VARCHAR(10) NOT NULL DEFAULT 'medium',
	source VARCHAR(20) NOT NULL DEFAULT 'ai_generated',
	source_url VARCHAR(500),
	image_url VARCHAR(500),
	status VARCHAR(20) NOT NULL DEFAULT 'draft',
	quality_score DOUBLE PRECISION,
	rating_count INT NOT NULL DEFAULT 0,
	flag_count INT NOT NULL DEFAULT 0,
	created_by BIGINT REFERENCES users(id),
	is_active BOOLEAN NOT NULL DEFAULT TRUE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
		`CREATE TABLE IF NOT EXISTS sessions (
	id BIGSERIAL PRIMARY KEY,
	user_id BIGINT NOT NULL REFERENCES users(id),
	refresh_token VARCHAR(500) NOT NULL UNIQUE,
	user_agent VARCHAR(500),
	ip_address VARCHAR(45),
	expires_at TIMESTAMPTZ NOT NULL,
	is_active BOOLEAN NOT NULL DEFAULT TRUE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	last_used_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
		`CREATE TABLE IF NOT EXISTS user_progress (
	id BIGSERIAL PRIMARY KEY,
	user_id BIGINT NOT NULL REFERENCES users(id),
	question_id BIGINT NOT NULL REFERENCES questions(id),
	is_correct BOOLEAN NOT NULL,
	selected_answer VARCHAR(10) NOT NULL,
	time_spent_seconds INT,
	practice_mode VARCHAR(50) NOT NULL,
	attempted_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
		`CREATE TABLE IF NOT EXISTS bookmarks (
	id BIGSERIAL PRIMARY KEY,
	user_id BIGINT NOT NULL REFERENCES users(id),
	question_id BIGINT NOT NULL REFERENCES questions(id),
	is_flagged BOOLEAN NOT NULL DEFAULT FALSE,
	flag_reason VARCHAR(500),
	notes VARCHAR(1000),
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
		`CREATE INDEX IF NOT EXISTS idx_topics_certification ON topics(certification_id)`,
		`CREATE INDEX IF NOT EXISTS idx_questions_topic ON questions(topic_id)`,
		`CREATE INDEX IF NOT EXISTS idx_questions_status ON questions(status)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_expires_at ON sessions(expires_at)`,
		`CREATE INDEX IF NOT EXISTS idx_user_progress_user ON user_progress(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_user_progress_question ON user_progress(question_id)`,
		`CREATE INDEX IF NOT EXISTS idx_user_progress_user_question ON user_progress(user_id, question_id)`,
		`CREATE INDEX IF NOT EXISTS idx_user_progress_attempted_at ON user_progress(attempted_at)`,
		`CREATE INDEX IF NOT EXISTS idx_bookmarks_user ON bookmarks(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_bookmarks_question ON bookmarks(question_id)`,
	}

	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema statement: %w", err)
		}
	}

	return nil
}
