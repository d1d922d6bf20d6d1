package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"companion-llm/internal/domain"
	"companion-llm/internal/service"
)

// AdminHandler agrupa endpoints operacionales: clasificacion directa para
// debugging y estadisticas del log de auditoria.
type AdminHandler struct {
	logger     *zap.Logger
	classifier *service.ContentClassifier
	router     *service.ContentRouter
	audit      *service.AuditService
}

func NewAdminHandler(logger *zap.Logger, classifier *service.ContentClassifier, router *service.ContentRouter, audit *service.AuditService) *AdminHandler {
	return &AdminHandler{logger: logger, classifier: classifier, router: router, audit: audit}
}

// Classify maneja POST /admin/classify: corre el clasificador sobre un texto
// sin tocar la sesion. Cada corrida queda auditada igual que las del chat;
// el conversation id nulo marca el origen de debug.
func (h *AdminHandler) Classify(c *gin.Context) {
	var req struct {
		Text string `json:"text" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	userID, ok := GetAuthUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	classification, normalized := h.classifier.Classify(c.Request.Context(), req.Text)
	decision := h.router.Decide(h.router.RouteForLabel(classification.Label))
	h.audit.Record(c.Request.Context(), uuid.Nil, userID, req.Text, normalized, classification, decision, domain.SessionState{})

	c.JSON(http.StatusOK, gin.H{
		"classification": classification,
		"normalized":     normalized,
		"route":          decision.Route,
	})
}

// AuditStats maneja GET /admin/audit/stats.
func (h *AdminHandler) AuditStats(c *gin.Context) {
	stats, err := h.audit.Stats(c.Request.Context())
	if err != nil {
		h.logger.Error("audit stats failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not compute stats"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"stats": stats})
}
