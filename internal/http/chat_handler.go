package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"companion-llm/internal/service"
)

// ChatHandler expone el endpoint de chat streaming.
type ChatHandler struct {
	logger *zap.Logger
	chat   *service.ChatService
}

func NewChatHandler(logger *zap.Logger, chat *service.ChatService) *ChatHandler {
	return &ChatHandler{logger: logger, chat: chat}
}

// PostChat maneja POST /chat. La respuesta es NDJSON: un evento por linea,
// con flush por evento para que los chunks lleguen en vivo.
func (h *ChatHandler) PostChat(c *gin.Context) {
	var req struct {
		ConversationID string `json:"conversation_id"`
		Personality    string `json:"personality"`
		Message        string `json:"message" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid chat request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	userID, ok := GetAuthUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	chatReq := service.ChatRequest{
		UserID:          userID,
		PersonalityName: req.Personality,
		Message:         req.Message,
	}
	if req.ConversationID != "" {
		convID, err := uuid.Parse(req.ConversationID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid conversation_id"})
			return
		}
		chatReq.ConversationID = &convID
	}

	c.Writer.Header().Set("Content-Type", "application/x-ndjson")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("X-Accel-Buffering", "no")
	c.Writer.WriteHeader(http.StatusOK)

	flusher, _ := c.Writer.(http.Flusher)
	enc := json.NewEncoder(c.Writer)

	err := h.chat.StreamChat(c.Request.Context(), chatReq, func(ev service.ChatEvent) error {
		if err := enc.Encode(ev); err != nil {
			return err
		}
		if flusher != nil {
			flusher.Flush()
		}
		return nil
	})
	if err != nil {
		h.logger.Error("chat stream failed", zap.Error(err))
		// El status ya salio: el error viaja como ultimo evento del stream.
		_ = enc.Encode(service.ChatEvent{Type: service.EventStreamError, Error: streamErrorMessage(err)})
		if flusher != nil {
			flusher.Flush()
		}
	}
}

func streamErrorMessage(err error) string {
	switch {
	case errors.Is(err, service.ErrEmptyMessage):
		return "message is empty"
	case errors.Is(err, service.ErrConversationNotFound):
		return "conversation not found"
	case errors.Is(err, service.ErrPersonalityNotFound):
		return "personality not found"
	case errors.Is(err, service.ErrForbidden):
		return "forbidden"
	case errors.Is(err, service.ErrConversationBusy):
		return "another message is being processed for this conversation"
	}
	return "internal error"
}
