package model

import (
	"time"

	"github.com/yahya-allouhaibi-devo/devo-cert-prep/internal/domain/enums"
)

// Attempt is one append-only user_progress row. Rows are never updated or
// deleted after creation; every derived statistic is computed from them on
// demand.
type Attempt struct {
	ID               int64              `json:"id"`
	UserID           int64              `json:"user_id"`
	QuestionID       int64              `json:"question_id"`
	IsCorrect        bool               `json:"is_correct"`
	SelectedAnswer   string             `json:"selected_answer"`
	TimeSpentSeconds *int               `json:"time_spent_seconds,omitempty"`
	PracticeMode     enums.PracticeMode `json:"practice_mode"`
	AttemptedAt      time.Time          `json:"attempted_at"`
}
