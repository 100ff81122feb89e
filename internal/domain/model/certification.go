package model

import (
	"time"

	"github.com/yahya-allouhaibi-devo/devo-cert-prep/internal/domain/enums"
)

type Certification struct {
	ID                     int64                       `json:"id"`
	Provider               enums.CertificationProvider `json:"provider"`
	Name                   string                      `json:"name"`
	ShortName              string                      `json:"short_name"`
	Description            *string                     `json:"description,omitempty"`
	ExamDurationMinutes    int                         `json:"exam_duration_minutes"`
	ExamQuestionCount      int                         `json:"exam_question_count"`
	PassingScorePercentage int                         `json:"passing_score_percentage"`
	IsActive               bool                        `json:"is_active"`
	CreatedAt              time.Time                   `json:"created_at"`
	UpdatedAt              time.Time                   `json:"updated_at"`
}
