package model

import "time"

type Bookmark struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"user_id"`
	QuestionID int64     `json:"question_id"`
	IsFlagged  bool      `json:"is_flagged"`
	FlagReason *string   `json:"flag_reason,omitempty"`
	Notes      *string   `json:"notes,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
