package dto

import "time"

type CreateBookmarkRequest struct {
	QuestionID int64   `json:"question_id"`
	Notes      *string `json:"notes,omitempty"`
}

type FlagQuestionRequest struct {
	QuestionID int64  `json:"question_id"`
	Reason     string `json:"reason"`
}

type BookmarkResponse struct {
	ID         int64     `json:"id"`
	QuestionID int64     `json:"question_id"`
	IsFlagged  bool      `json:"is_flagged"`
	FlagReason *string   `json:"flag_reason,omitempty"`
	Notes      *string   `json:"notes,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

type BookmarkListResponse struct {
	Bookmarks []BookmarkResponse `json:"bookmarks"`
}
