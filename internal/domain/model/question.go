package model

import (
	"time"

	"github.com/yahya-allouhaibi-devo/devo-cert-prep/internal/domain/enums"
)

type Question struct {
	ID            int64                    `json:"id"`
	TopicID       int64                    `json:"topic_id"`
	QuestionText  string                   `json:"question_text"`
	Explanation   *string                  `json:"explanation,omitempty"`
	Options       map[string]string        `json:"options"`
	CorrectAnswer string                   `json:"correct_answer"`
	Difficulty    enums.QuestionDifficulty `json:"difficulty"`
	Source        enums.QuestionSource     `json:"source"`
	SourceURL     *string                  `json:"source_url,omitempty"`
	ImageURL      *string                  `json:"image_url,omitempty"`
	Status        enums.QuestionStatus     `json:"status"`
	QualityScore  *float64                 `json:"quality_score,omitempty"`
	RatingCount   int                      `json:"rating_count"`
	FlagCount     int                      `json:"flag_count"`
	CreatedBy     *int64                   `json:"created_by,omitempty"`
	IsActive      bool                     `json:"is_active"`
	CreatedAt     time.Time                `json:"created_at"`
	UpdatedAt     time.Time                `json:"updated_at"`
}
