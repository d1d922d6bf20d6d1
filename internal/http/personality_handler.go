package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"companion-llm/internal/service"
)

// PersonalityHandler expone el CRUD de perfiles de personalidad.
type PersonalityHandler struct {
	logger        *zap.Logger
	personalities *service.PersonalityService
}

func NewPersonalityHandler(logger *zap.Logger, personalities *service.PersonalityService) *PersonalityHandler {
	return &PersonalityHandler{logger: logger, personalities: personalities}
}

// Create maneja POST /personalities. Nombre duplicado -> 409.
func (h *PersonalityHandler) Create(c *gin.Context) {
	userID, ok := GetAuthUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var in service.PersonalityInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	p, err := h.personalities.Create(c.Request.Context(), userID, in)
	switch {
	case errors.Is(err, service.ErrPersonalityExists):
		c.JSON(http.StatusConflict, gin.H{"error": "personality name already exists"})
	case errors.Is(err, service.ErrInvalidArchetype):
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown archetype"})
	case err != nil:
		h.logger.Error("create personality failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create personality"})
	default:
		c.JSON(http.StatusCreated, gin.H{"personality": p})
	}
}

// List maneja GET /personalities.
func (h *PersonalityHandler) List(c *gin.Context) {
	userID, ok := GetAuthUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	out, err := h.personalities.List(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("list personalities failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list personalities"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"personalities": out})
}

// Get maneja GET /personalities/:name.
func (h *PersonalityHandler) Get(c *gin.Context) {
	userID, ok := GetAuthUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	p, err := h.personalities.Get(c.Request.Context(), userID, c.Param("name"))
	switch {
	case errors.Is(err, service.ErrPersonalityNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "personality not found"})
	case err != nil:
		h.logger.Error("get personality failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not get personality"})
	default:
		c.JSON(http.StatusOK, gin.H{"personality": p})
	}
}

// Update maneja PUT /personalities/:name.
func (h *PersonalityHandler) Update(c *gin.Context) {
	userID, ok := GetAuthUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var in service.PersonalityInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	p, err := h.personalities.Update(c.Request.Context(), userID, c.Param("name"), in)
	switch {
	case errors.Is(err, service.ErrPersonalityNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "personality not found"})
	case errors.Is(err, service.ErrInvalidArchetype):
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown archetype"})
	case err != nil:
		h.logger.Error("update personality failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update personality"})
	default:
		c.JSON(http.StatusOK, gin.H{"personality": p})
	}
}

// Delete maneja DELETE /personalities/:name.
func (h *PersonalityHandler) Delete(c *gin.Context) {
	userID, ok := GetAuthUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	err := h.personalities.Delete(c.Request.Context(), userID, c.Param("name"))
	switch {
	case errors.Is(err, service.ErrPersonalityNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "personality not found"})
	case err != nil:
		h.logger.Error("delete personality failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete personality"})
	default:
		c.JSON(http.StatusNoContent, nil)
	}
}
