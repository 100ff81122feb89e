package handlers

import (
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/yahya-allouhaibi-devo/devo-cert-prep/internal/domain/model"
	"github.com/yahya-allouhaibi-devo/devo-cert-prep/internal/transport/http/dto"
	httperrors "github.com/yahya-allouhaibi-devo/devo-cert-prep/internal/transport/http/errors"
)

func decodeJSON(r *http.Request, target any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(target)
}

func writeBadRequest(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusBadRequest, httperrors.APIError{Code: code, Message: message})
}

func writeUnauthorized(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusUnauthorized, httperrors.APIError{Code: code, Message: message})
}

func writeForbidden(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusForbidden, httperrors.APIError{Code: code, Message: message})
}

func writeNotFound(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusNotFound, httperrors.APIError{Code: code, Message: message})
}

func writeConflict(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusConflict, httperrors.APIError{Code: code, Message: message})
}

func writeInternal(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusInternalServerError, httperrors.APIError{Code: code, Message: message})
}

func idParam(r *http.Request, name string) (int64, bool) {
	raw := strings.TrimSpace(chi.URLParam(r, name))
	if raw == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func clientAddr(r *http.Request) *string {
	if forwarded := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); forwarded != "" {
		first := strings.TrimSpace(strings.Split(forwarded, ",")[0])
		if first != "" {
			return &first
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil || host == "" {
		return nil
	}
	return &host
}

func userAgent(r *http.Request) *string {
	ua := strings.TrimSpace(r.UserAgent())
	if ua == "" {
		return nil
	}
	return &ua
}

func maxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

func questionResponse(q model.Question) dto.QuestionResponse {
	return dto.QuestionResponse{
		ID:           q.ID,
		TopicID:      q.TopicID,
		QuestionText: q.QuestionText,
		Options:      q.Options,
		Difficulty:   string(q.Difficulty),
		ImageURL:     q.ImageURL,
	}
}

func topicResponse(t model.Topic) dto.TopicResponse {
	return dto.TopicResponse{
		ID:               t.ID,
		CertificationID:  t.CertificationID,
		Name:             t.Name,
		Description:      t.Description,
		WeightPercentage: t.WeightPercentage,
		Order:            t.Order,
	}
}

func attemptResponse(a model.Attempt) dto.AttemptResponse {
	return dto.AttemptResponse{
		ID:               a.ID,
		QuestionID:       a.QuestionID,
		IsCorrect:        a.IsCorrect,
		SelectedAnswer:   a.SelectedAnswer,
		TimeSpentSeconds: a.TimeSpentSeconds,
		Mode:             string(a.PracticeMode),
		AttemptedAt:      a.AttemptedAt,
	}
}
