package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"companion-llm/internal/repository"
	"companion-llm/internal/service"
)

// ProfileHandler expone la inspeccion del perfil acumulado del usuario:
// emociones, memorias, metas y estado de la relacion.
type ProfileHandler struct {
	logger        *zap.Logger
	emotions      repository.EmotionRepository
	goals         repository.GoalRepository
	memories      *service.MemoryEngine
	relationships *service.RelationshipTracker
	personalities *service.PersonalityService
}

func NewProfileHandler(
	logger *zap.Logger,
	emotions repository.EmotionRepository,
	goals repository.GoalRepository,
	memories *service.MemoryEngine,
	relationships *service.RelationshipTracker,
	personalities *service.PersonalityService,
) *ProfileHandler {
	return &ProfileHandler{
		logger:        logger,
		emotions:      emotions,
		goals:         goals,
		memories:      memories,
		relationships: relationships,
		personalities: personalities,
	}
}

// ListEmotions maneja GET /profile/emotions.
func (h *ProfileHandler) ListEmotions(c *gin.Context) {
	userID, ok := GetAuthUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	out, err := h.emotions.ListByUser(c.Request.Context(), userID, limit)
	if err != nil {
		h.logger.Error("list emotions failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list emotions"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"emotions": out})
}

// ListGoals maneja GET /profile/goals.
func (h *ProfileHandler) ListGoals(c *gin.Context) {
	userID, ok := GetAuthUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	out, err := h.goals.ListActiveByUser(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("list goals failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list goals"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"goals": out})
}

// ListMemories maneja GET /profile/memories?personality=<name>.
func (h *ProfileHandler) ListMemories(c *gin.Context) {
	userID, ok := GetAuthUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	name := c.DefaultQuery("personality", "default")
	persona, err := h.personalities.Get(c.Request.Context(), userID, name)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "personality not found"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	out, err := h.memories.List(c.Request.Context(), userID, persona.ID, limit)
	if err != nil {
		h.logger.Error("list memories failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list memories"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"memories": out})
}

// ForgetMemory maneja DELETE /profile/memories/:id (borrado logico).
func (h *ProfileHandler) ForgetMemory(c *gin.Context) {
	userID, ok := GetAuthUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	memID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid memory id"})
		return
	}
	if err := h.memories.Forget(c.Request.Context(), userID, memID); err != nil {
		h.logger.Error("forget memory failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not forget memory"})
		return
	}
	c.JSON(http.StatusNoContent, nil)
}

// GetRelationship maneja GET /profile/relationship?personality=<name>.
func (h *ProfileHandler) GetRelationship(c *gin.Context) {
	userID, ok := GetAuthUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	name := c.DefaultQuery("personality", "default")
	persona, err := h.personalities.Get(c.Request.Context(), userID, name)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "personality not found"})
		return
	}
	rel, err := h.relationships.Get(c.Request.Context(), userID, persona.ID)
	if err != nil {
		h.logger.Error("get relationship failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not get relationship"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"relationship": rel})
}

// PostReaction maneja POST /profile/relationship/reaction.
func (h *ProfileHandler) PostReaction(c *gin.Context) {
	userID, ok := GetAuthUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	var req struct {
		Personality string `json:"personality" binding:"required"`
		Positive    *bool  `json:"positive" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	persona, err := h.personalities.Get(c.Request.Context(), userID, req.Personality)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "personality not found"})
		return
	}
	rel, err := h.relationships.RecordReaction(c.Request.Context(), userID, persona.ID, *req.Positive)
	if err != nil {
		h.logger.Error("record reaction failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not record reaction"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"relationship": rel})
}
