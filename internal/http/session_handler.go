package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"companion-llm/internal/service"
)

// SessionHandler expone el estado de sesion y la verificacion de edad.
type SessionHandler struct {
	logger   *zap.Logger
	sessions *service.SessionManager
}

func NewSessionHandler(logger *zap.Logger, sessions *service.SessionManager) *SessionHandler {
	return &SessionHandler{logger: logger, sessions: sessions}
}

// GetState maneja GET /conversations/:id/session.
func (h *SessionHandler) GetState(c *gin.Context) {
	userID, ok := GetAuthUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	convID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid conversation id"})
		return
	}

	state, err := h.sessions.Load(c.Request.Context(), convID, userID)
	if err != nil {
		h.logger.Error("load session failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load session"})
		return
	}
	if state.UserID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": state})
}

// VerifyAge maneja POST /conversations/:id/age-verify. Idempotente.
func (h *SessionHandler) VerifyAge(c *gin.Context) {
	userID, ok := GetAuthUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	convID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid conversation id"})
		return
	}

	state, err := h.sessions.VerifyAge(c.Request.Context(), convID, userID)
	if errors.Is(err, service.ErrForbidden) {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}
	if err != nil {
		h.logger.Error("age verify failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not verify age"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": state})
}
