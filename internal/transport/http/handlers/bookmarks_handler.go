package handlers

import (
	"errors"
	"net/http"

	bookmarksvc "github.com/yahya-allouhaibi-devo/devo-cert-prep/internal/services/bookmarks"
	sessionsvc "github.com/yahya-allouhaibi-devo/devo-cert-prep/internal/services/session"
	"github.com/yahya-allouhaibi-devo/devo-cert-prep/internal/domain/model"
	"github.com/yahya-allouhaibi-devo/devo-cert-prep/internal/transport/http/dto"
	httperrors "github.com/yahya-allouhaibi-devo/devo-cert-prep/internal/transport/http/errors"
)

type BookmarksHandler struct {
	service *bookmarksvc.Service
}

func NewBookmarksHandler(service *bookmarksvc.Service) *BookmarksHandler {
	return &BookmarksHandler{service: service}
}

func (h *BookmarksHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "BOOKMARK_SERVICE_UNAVAILABLE", "bookmark service is unavailable")
		return
	}

	identity, ok := sessionsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}

	var req dto.CreateBookmarkRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}

	bookmark, err := h.service.Save(r.Context(), identity.UserID, req.QuestionID, req.Notes)
	if err != nil {
		handleBookmarkError(w, err)
		return
	}

	httperrors.Write(w, http.StatusCreated, bookmarkResponse(bookmark))
}

// Flag reports a broken question. Unlike a plain bookmark it requires a
// reason and feeds the question's review queue.
func (h *BookmarksHandler) Flag(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "BOOKMARK_SERVICE_UNAVAILABLE", "bookmark service is unavailable")
		return
	}

	identity, ok := sessionsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}

	var req dto.FlagQuestionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}

	bookmark, err := h.service.Flag(r.Context(), identity.UserID, req.QuestionID, req.Reason)
	if err != nil {
		handleBookmarkError(w, err)
		return
	}

	httperrors.Write(w, http.StatusCreated, bookmarkResponse(bookmark))
}

func (h *BookmarksHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "BOOKMARK_SERVICE_UNAVAILABLE", "bookmark service is unavailable")
		return
	}

	identity, ok := sessionsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}

	bookmarks, err := h.service.List(r.Context(), identity.UserID)
	if err != nil {
		handleBookmarkError(w, err)
		return
	}

	out := make([]dto.BookmarkResponse, 0, len(bookmarks))
	for _, bookmark := range bookmarks {
		out = append(out, bookmarkResponse(bookmark))
	}
	httperrors.Write(w, http.StatusOK, dto.BookmarkListResponse{Bookmarks: out})
}

func (h *BookmarksHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "BOOKMARK_SERVICE_UNAVAILABLE", "bookmark service is unavailable")
		return
	}

	identity, ok := sessionsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}

	bookmarkID, ok := idParam(r, "id")
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "bookmark id must be a positive integer")
		return
	}

	if err := h.service.Remove(r.Context(), bookmarkID, identity.UserID); err != nil {
		handleBookmarkError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.OKResponse{OK: true})
}

func handleBookmarkError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, bookmarksvc.ErrInvalidInput):
		writeBadRequest(w, "INVALID_REQUEST", "request validation failed")
	case errors.Is(err, bookmarksvc.ErrQuestionNotFound):
		writeNotFound(w, "QUESTION_NOT_FOUND", "question not found")
	case errors.Is(err, bookmarksvc.ErrBookmarkNotFound):
		writeNotFound(w, "BOOKMARK_NOT_FOUND", "bookmark not found")
	default:
		writeInternal(w, "INTERNAL_ERROR", "internal server error")
	}
}

func bookmarkResponse(b model.Bookmark) dto.BookmarkResponse {
	return dto.BookmarkResponse{
		ID:         b.ID,
		QuestionID: b.QuestionID,
		IsFlagged:  b.IsFlagged,
		FlagReason: b.FlagReason,
		Notes:      b.Notes,
		CreatedAt:  b.CreatedAt,
	}
}
