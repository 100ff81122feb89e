package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/yahya-allouhaibi-devo/devo-cert-prep/internal/domain/model"
	sessionsvc "github.com/yahya-allouhaibi-devo/devo-cert-prep/internal/services/session"
	"github.com/yahya-allouhaibi-devo/devo-cert-prep/internal/transport/http/dto"
	httperrors "github.com/yahya-allouhaibi-devo/devo-cert-prep/internal/transport/http/errors"
)

type AuthHandler struct {
	sessions *sessionsvc.Service
	tokens   *sessionsvc.JWTManager
}

func NewAuthHandler(sessions *sessionsvc.Service, tokens *sessionsvc.JWTManager) *AuthHandler {
	return &AuthHandler{sessions: sessions, tokens: tokens}
}

// Issue creates a refresh credential for an already-authenticated user. The
// caller is the identity gateway, which has verified the user upstream.
func (h *AuthHandler) Issue(w http.ResponseWriter, r *http.Request) {
	if h.sessions == nil || h.tokens == nil {
		writeInternal(w, "SESSION_SERVICE_UNAVAILABLE", "session service is unavailable")
		return
	}

	var req dto.IssueSessionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}

	issued, err := h.sessions.Issue(r.Context(), req.UserID, userAgent(r), clientAddr(r))
	if err != nil {
		handleSessionError(w, err)
		return
	}

	h.writeTokens(w, issued)
}

// Refresh rotates the presented refresh token. The old token is dead after
// this call whether or not the client receives the response.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if h.sessions == nil || h.tokens == nil {
		writeInternal(w, "SESSION_SERVICE_UNAVAILABLE", "session service is unavailable")
		return
	}

	var req dto.RefreshRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}

	issued, err := h.sessions.Rotate(r.Context(), req.RefreshToken)
	if err != nil {
		handleSessionError(w, err)
		return
	}

	h.writeTokens(w, issued)
}

// Validate reports whether a refresh token is still usable, without
// touching it.
func (h *AuthHandler) Validate(w http.ResponseWriter, r *http.Request) {
	if h.sessions == nil {
		writeInternal(w, "SESSION_SERVICE_UNAVAILABLE", "session service is unavailable")
		return
	}

	var req dto.ValidateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}

	ref, err := h.sessions.Validate(r.Context(), req.RefreshToken)
	if err != nil {
		handleSessionError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.ValidateResponse{
		SessionID:  ref.SessionID,
		UserID:     ref.UserID,
		ExpiresAt:  ref.ExpiresAt,
		LastUsedAt: ref.LastUsedAt,
	})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if h.sessions == nil {
		writeInternal(w, "SESSION_SERVICE_UNAVAILABLE", "session service is unavailable")
		return
	}

	identity, ok := sessionsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}

	if err := h.sessions.Revoke(r.Context(), identity.SessionID); err != nil {
		handleSessionError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.LogoutResponse{OK: true, Revoked: 1})
}

func (h *AuthHandler) LogoutAll(w http.ResponseWriter, r *http.Request) {
	if h.sessions == nil {
		writeInternal(w, "SESSION_SERVICE_UNAVAILABLE", "session service is unavailable")
		return
	}

	identity, ok := sessionsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}

	revoked, err := h.sessions.RevokeAllForUser(r.Context(), identity.UserID)
	if err != nil {
		handleSessionError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.LogoutResponse{OK: true, Revoked: revoked})
}

// Sessions lists the caller's sessions, rotated and revoked rows included.
// Secrets never appear in the listing.
func (h *AuthHandler) Sessions(w http.ResponseWriter, r *http.Request) {
	if h.sessions == nil {
		writeInternal(w, "SESSION_SERVICE_UNAVAILABLE", "session service is unavailable")
		return
	}

	identity, ok := sessionsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}

	sessions, err := h.sessions.Sessions(r.Context(), identity.UserID)
	if err != nil {
		handleSessionError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.SessionListResponse{Sessions: sessionResponses(sessions)})
}

func (h *AuthHandler) writeTokens(w http.ResponseWriter, issued sessionsvc.Issued) {
	accessToken, accessExpires, err := h.tokens.GenerateAccessToken(issued.UserID, issued.SessionID, issued.Role)
	if err != nil {
		writeInternal(w, "TOKEN_ERROR", "could not mint access token")
		return
	}

	httperrors.Write(w, http.StatusOK, dto.SessionTokensResponse{
		SessionID:    issued.SessionID,
		AccessToken:  accessToken,
		RefreshToken: issued.RefreshToken,
		ExpiresInSec: maxInt64(0, int64(time.Until(accessExpires).Seconds())),
	})
}

func handleSessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, sessionsvc.ErrInvalidInput):
		writeBadRequest(w, "INVALID_REQUEST", "request validation failed")
	case errors.Is(err, sessionsvc.ErrSessionNotFound):
		writeUnauthorized(w, "SESSION_NOT_FOUND", "session not found")
	case errors.Is(err, sessionsvc.ErrSessionExpired):
		writeUnauthorized(w, "SESSION_EXPIRED", "session expired")
	case errors.Is(err, sessionsvc.ErrSessionRevoked):
		writeUnauthorized(w, "SESSION_REVOKED", "session revoked")
	case errors.Is(err, sessionsvc.ErrUserNotFound):
		writeNotFound(w, "USER_NOT_FOUND", "user not found or inactive")
	default:
		writeInternal(w, "INTERNAL_ERROR", "internal server error")
	}
}

func sessionResponses(sessions []model.Session) []dto.SessionResponse {
	out := make([]dto.SessionResponse, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, dto.SessionResponse{
			ID:         s.ID,
			UserAgent:  s.UserAgent,
			IPAddress:  s.IPAddress,
			IsActive:   s.IsActive,
			ExpiresAt:  s.ExpiresAt,
			CreatedAt:  s.CreatedAt,
			LastUsedAt: s.LastUsedAt,
		})
	}
	return out
}
