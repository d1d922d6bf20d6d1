package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Pinger chequea la disponibilidad de una dependencia externa.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingerFunc adapta una funcion a Pinger.
type PingerFunc func(ctx context.Context) error

func (f PingerFunc) Ping(ctx context.Context) error { return f(ctx) }

// HealthHandler responde /healthz verificando Postgres y, cuando esta
// configurado, redis. Un pinger nil se salta.
type HealthHandler struct {
	logger *zap.Logger
	db     Pinger
	cache  Pinger
}

func NewHealthHandler(logger *zap.Logger, db, cache Pinger) *HealthHandler {
	return &HealthHandler{logger: logger, db: db, cache: cache}
}

// Health maneja GET /healthz.
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if h.db != nil {
		if err := h.db.Ping(ctx); err != nil {
			h.logger.Error("healthz: database unreachable", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": "unreachable"})
			return
		}
	}
	if h.cache != nil {
		if err := h.cache.Ping(ctx); err != nil {
			h.logger.Error("healthz: redis unreachable", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "redis": "unreachable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
