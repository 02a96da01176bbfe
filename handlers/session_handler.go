package handlers

import (
	"errors"
	"net/http"

	"billed-backend/models"
	"billed-backend/repository"
	"billed-backend/session"

	"github.com/gin-gonic/gin"
)

// SessionHeader carries the session id returned by StartSession
const SessionHeader = "X-Session-ID"

// SessionHandler opens employee sessions
type SessionHandler struct {
	users    repository.UserRepository
	sessions session.Store
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(users repository.UserRepository, sessions session.Store) *SessionHandler {
	return &SessionHandler{users: users, sessions: sessions}
}

// StartSessionRequest represents the request body for opening a session
type StartSessionRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// StartSession handles POST /api/sessions
func (h *SessionHandler) StartSession(c *gin.Context) {
	var req StartSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	user, err := h.users.GetByEmail(c.Request.Context(), req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			respondError(c, http.StatusNotFound, "USER_NOT_FOUND", "No employee with this email")
			return
		}
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}

	id, err := session.Start(c.Request.Context(), h.sessions, models.Session{Email: user.Email, Type: user.Type})
	if err != nil {
		respondError(c, http.StatusInternalServerError, "SESSION_FAILED", err.Error())
		return
	}

	respondData(c, http.StatusCreated, gin.H{
		"session_id": id,
		"email":      user.Email,
		"type":       user.Type,
	})
}

// EndSession handles DELETE /api/sessions
func (h *SessionHandler) EndSession(c *gin.Context) {
	id := c.GetHeader(SessionHeader)
	if id == "" {
		respondError(c, http.StatusBadRequest, "MISSING_SESSION", SessionHeader+" header is required")
		return
	}
	if err := session.End(c.Request.Context(), h.sessions, id); err != nil {
		respondError(c, http.StatusInternalServerError, "SESSION_FAILED", err.Error())
		return
	}
	c.Status(http.StatusNoContent)
}
