package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	practicesvc "github.com/yahya-allouhaibi-devo/devo-cert-prep/internal/services/practice"
	sessionsvc "github.com/yahya-allouhaibi-devo/devo-cert-prep/internal/services/session"
	"github.com/yahya-allouhaibi-devo/devo-cert-prep/internal/transport/http/dto"
	httperrors "github.com/yahya-allouhaibi-devo/devo-cert-prep/internal/transport/http/errors"
)

type PracticeHandler struct {
	service *practicesvc.Service
}

func NewPracticeHandler(service *practicesvc.Service) *PracticeHandler {
	return &PracticeHandler{service: service}
}

// Next serves GET /practice/next?mode=general|topic|exam&topic_id=N.
func (h *PracticeHandler) Next(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "PRACTICE_SERVICE_UNAVAILABLE", "practice service is unavailable")
		return
	}

	identity, ok := sessionsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}

	mode := strings.TrimSpace(r.URL.Query().Get("mode"))
	if mode == "" {
		mode = "general"
	}

	var topicID *int64
	if raw := strings.TrimSpace(r.URL.Query().Get("topic_id")); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed <= 0 {
			writeBadRequest(w, "VALIDATION_ERROR", "topic_id must be a positive integer")
			return
		}
		topicID = &parsed
	}

	pick, err := h.service.NextQuestion(r.Context(), identity.UserID, mode, topicID)
	if err != nil {
		handlePracticeError(w, err)
		return
	}

	resp := dto.NextQuestionResponse{
		Question: questionResponse(pick.Question),
		Topic:    topicResponse(pick.Topic),
		Mode:     string(pick.Mode),
	}
	if pick.Weakness != nil {
		resp.Weakness = &dto.WeaknessResponse{
			TopicID: pick.Weakness.TopicID,
			Score:   pick.Weakness.Score,
			HasData: pick.Weakness.HasData,
			Total:   pick.Weakness.Total,
			Correct: pick.Weakness.Correct,
		}
	}

	httperrors.Write(w, http.StatusOK, resp)
}

func handlePracticeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, practicesvc.ErrInvalidInput):
		writeBadRequest(w, "INVALID_REQUEST", "request validation failed")
	case errors.Is(err, practicesvc.ErrInvalidMode):
		writeBadRequest(w, "INVALID_MODE", "practice mode must be general, topic or exam")
	case errors.Is(err, practicesvc.ErrTopicRequired):
		writeBadRequest(w, "TOPIC_REQUIRED", "topic_id is required for topic mode")
	case errors.Is(err, practicesvc.ErrTopicNotFound):
		writeNotFound(w, "TOPIC_NOT_FOUND", "topic not found")
	case errors.Is(err, practicesvc.ErrUserNotFound):
		writeNotFound(w, "USER_NOT_FOUND", "user not found")
	case errors.Is(err, practicesvc.ErrNoActiveCertification):
		writeConflict(w, "NO_ACTIVE_CERTIFICATION", "select a certification before practicing")
	case errors.Is(err, practicesvc.ErrNoQuestions):
		writeNotFound(w, "NO_QUESTIONS", "no questions available")
	default:
		writeInternal(w, "INTERNAL_ERROR", "internal server error")
	}
}
