package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/yahya-allouhaibi-devo/devo-cert-prep/internal/domain/enums"
	contentsvc "github.com/yahya-allouhaibi-devo/devo-cert-prep/internal/services/content"
	sessionsvc "github.com/yahya-allouhaibi-devo/devo-cert-prep/internal/services/session"
	"github.com/yahya-allouhaibi-devo/devo-cert-prep/internal/transport/http/dto"
	httperrors "github.com/yahya-allouhaibi-devo/devo-cert-prep/internal/transport/http/errors"
)

const maxImageUploadSize = 10 << 20 // 10 MiB

type CatalogHandler struct {
	service *contentsvc.Service
}

func NewCatalogHandler(service *contentsvc.Service) *CatalogHandler {
	return &CatalogHandler{service: service}
}

func (h *CatalogHandler) Certifications(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "CATALOG_SERVICE_UNAVAILABLE", "catalog service is unavailable")
		return
	}

	certifications, err := h.service.Certifications(r.Context())
	if err != nil {
		handleCatalogError(w, err)
		return
	}

	out := make([]dto.CertificationResponse, 0, len(certifications))
	for _, c := range certifications {
		out = append(out, dto.CertificationResponse{
			ID:                     c.ID,
			Provider:               string(c.Provider),
			Name:                   c.Name,
			ShortName:              c.ShortName,
			Description:            c.Description,
			ExamDurationMinutes:    c.ExamDurationMinutes,
			ExamQuestionCount:      c.ExamQuestionCount,
			PassingScorePercentage: c.PassingScorePercentage,
		})
	}
	httperrors.Write(w, http.StatusOK, dto.CertificationListResponse{Certifications: out})
}

func (h *CatalogHandler) Topics(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "CATALOG_SERVICE_UNAVAILABLE", "catalog service is unavailable")
		return
	}

	certificationID, ok := idParam(r, "certificationID")
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "certification id must be a positive integer")
		return
	}

	topics, err := h.service.Topics(r.Context(), certificationID)
	if err != nil {
		handleCatalogError(w, err)
		return
	}

	out := make([]dto.TopicResponse, 0, len(topics))
	for _, topic := range topics {
		out = append(out, topicResponse(topic))
	}
	httperrors.Write(w, http.StatusOK, dto.TopicListResponse{Topics: out})
}

func (h *CatalogHandler) Questions(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "CATALOG_SERVICE_UNAVAILABLE", "catalog service is unavailable")
		return
	}

	topicID, ok := idParam(r, "topicID")
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "topic id must be a positive integer")
		return
	}

	limit := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeBadRequest(w, "VALIDATION_ERROR", "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	questions, err := h.service.Questions(r.Context(), topicID, limit)
	if err != nil {
		handleCatalogError(w, err)
		return
	}

	out := make([]dto.QuestionResponse, 0, len(questions))
	for _, question := range questions {
		out = append(out, questionResponse(question))
	}
	httperrors.Write(w, http.StatusOK, dto.QuestionListResponse{Questions: out})
}

func (h *CatalogHandler) Question(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "CATALOG_SERVICE_UNAVAILABLE", "catalog service is unavailable")
		return
	}

	questionID, ok := idParam(r, "questionID")
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "question id must be a positive integer")
		return
	}

	question, err := h.service.Question(r.Context(), questionID)
	if err != nil {
		handleCatalogError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, questionResponse(question))
}

func (h *CatalogHandler) SetActiveCertification(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "CATALOG_SERVICE_UNAVAILABLE", "catalog service is unavailable")
		return
	}

	identity, ok := sessionsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}

	var req dto.SetActiveCertificationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}

	if err := h.service.SetActiveCertification(r.Context(), identity.UserID, req.CertificationID); err != nil {
		handleCatalogError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.OKResponse{OK: true})
}

// UploadQuestionImage is admin-only, enforced by route middleware and
// double-checked here.
func (h *CatalogHandler) UploadQuestionImage(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "CATALOG_SERVICE_UNAVAILABLE", "catalog service is unavailable")
		return
	}

	identity, ok := sessionsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if identity.Role != string(enums.RoleAdmin) {
		writeForbidden(w, "FORBIDDEN", "admin role required")
		return
	}

	questionID, ok := idParam(r, "questionID")
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "question id must be a positive integer")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxImageUploadSize)
	if err := r.ParseMultipartForm(maxImageUploadSize); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "file is required")
		return
	}
	defer file.Close()

	if header == nil || header.Size <= 0 {
		writeBadRequest(w, "VALIDATION_ERROR", "file is empty")
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	url, err := h.service.UploadQuestionImage(r.Context(), questionID, header.Filename, contentType, file, header.Size)
	if err != nil {
		handleCatalogError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.UploadImageResponse{URL: url})
}

func handleCatalogError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, contentsvc.ErrInvalidInput):
		writeBadRequest(w, "INVALID_REQUEST", "request validation failed")
	case errors.Is(err, contentsvc.ErrCertificationNotFound):
		writeNotFound(w, "CERTIFICATION_NOT_FOUND", "certification not found")
	case errors.Is(err, contentsvc.ErrTopicNotFound):
		writeNotFound(w, "TOPIC_NOT_FOUND", "topic not found")
	case errors.Is(err, contentsvc.ErrQuestionNotFound):
		writeNotFound(w, "QUESTION_NOT_FOUND", "question not found")
	case errors.Is(err, contentsvc.ErrUserNotFound):
		writeNotFound(w, "USER_NOT_FOUND", "user not found")
	default:
		writeInternal(w, "INTERNAL_ERROR", "internal server error")
	}
}
