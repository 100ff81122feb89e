package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	progresssvc "github.com/yahya-allouhaibi-devo/devo-cert-prep/internal/services/progress"
	sessionsvc "github.com/yahya-allouhaibi-devo/devo-cert-prep/internal/services/session"
	"github.com/yahya-allouhaibi-devo/devo-cert-prep/internal/transport/http/dto"
	httperrors "github.com/yahya-allouhaibi-devo/devo-cert-prep/internal/transport/http/errors"
)

type ProgressHandler struct {
	service *progresssvc.Service
}

func NewProgressHandler(service *progresssvc.Service) *ProgressHandler {
	return &ProgressHandler{service: service}
}

func (h *ProgressHandler) Record(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "PROGRESS_SERVICE_UNAVAILABLE", "progress service is unavailable")
		return
	}

	identity, ok := sessionsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}

	var req dto.RecordAttemptRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}

	attempt, err := h.service.Record(r.Context(), progresssvc.RecordInput{
		UserID:           identity.UserID,
		QuestionID:       req.QuestionID,
		SelectedAnswer:   req.SelectedAnswer,
		TimeSpentSeconds: req.TimeSpentSeconds,
		Mode:             req.Mode,
	})
	if err != nil {
		handleProgressError(w, err)
		return
	}

	httperrors.Write(w, http.StatusCreated, attemptResponse(attempt))
}

// Weakness serves GET /progress/weakness/{topicID}?window_days=N.
func (h *ProgressHandler) Weakness(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "PROGRESS_SERVICE_UNAVAILABLE", "progress service is unavailable")
		return
	}

	identity, ok := sessionsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}

	topicID, ok := idParam(r, "topicID")
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "topic id must be a positive integer")
		return
	}

	window, ok := windowParam(r)
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "window_days must be a non-negative integer")
		return
	}

	weakness, err := h.service.TopicWeakness(r.Context(), identity.UserID, topicID, window)
	if err != nil {
		handleProgressError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.WeaknessResponse{
		TopicID: weakness.TopicID,
		Score:   weakness.Score,
		HasData: weakness.HasData,
		Total:   weakness.Total,
		Correct: weakness.Correct,
	})
}

// History serves GET /progress/history?question_id=N, oldest attempt first.
func (h *ProgressHandler) History(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "PROGRESS_SERVICE_UNAVAILABLE", "progress service is unavailable")
		return
	}

	identity, ok := sessionsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}

	var questionID *int64
	if raw := strings.TrimSpace(r.URL.Query().Get("question_id")); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed <= 0 {
			writeBadRequest(w, "VALIDATION_ERROR", "question_id must be a positive integer")
			return
		}
		questionID = &parsed
	}

	attempts, err := h.service.History(r.Context(), identity.UserID, questionID)
	if err != nil {
		handleProgressError(w, err)
		return
	}

	out := make([]dto.AttemptResponse, 0, len(attempts))
	for _, attempt := range attempts {
		out = append(out, attemptResponse(attempt))
	}
	httperrors.Write(w, http.StatusOK, dto.HistoryResponse{Attempts: out})
}

func windowParam(r *http.Request) (time.Duration, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get("window_days"))
	if raw == "" {
		return 0, true
	}
	days, err := strconv.Atoi(raw)
	if err != nil || days < 0 {
		return 0, false
	}
	return time.Duration(days) * 24 * time.Hour, true
}

func handleProgressError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, progresssvc.ErrInvalidInput):
		writeBadRequest(w, "INVALID_REQUEST", "request validation failed")
	case errors.Is(err, progresssvc.ErrInvalidMode):
		writeBadRequest(w, "INVALID_MODE", "practice mode must be general, topic or exam")
	case errors.Is(err, progresssvc.ErrQuestionNotFound):
		writeNotFound(w, "QUESTION_NOT_FOUND", "question not found")
	default:
		writeInternal(w, "INTERNAL_ERROR", "internal server error")
	}
}
