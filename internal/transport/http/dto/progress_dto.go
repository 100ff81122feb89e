package dto

import "time"

type RecordAttemptRequest struct {
	QuestionID       int64  `json:"question_id"`
	SelectedAnswer   string `json:"selected_answer"`
	TimeSpentSeconds *int   `json:"time_spent_seconds,omitempty"`
	Mode             string `json:"mode"`
}

type AttemptResponse struct {
	ID               int64     `json:"id"`
	QuestionID       int64     `json:"question_id"`
	IsCorrect        bool      `json:"is_correct"`
	SelectedAnswer   string    `json:"selected_answer"`
	TimeSpentSeconds *int      `json:"time_spent_seconds,omitempty"`
	Mode             string    `json:"mode"`
	AttemptedAt      time.Time `json:"attempted_at"`
}

type WeaknessResponse struct {
	TopicID int64   `json:"topic_id"`
	Score   float64 `json:"score"`
	HasData bool    `json:"has_data"`
	Total   int64   `json:"total"`
	Correct int64   `json:"correct"`
}

type HistoryResponse struct {
	Attempts []AttemptResponse `json:"attempts"`
}
