package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"companion-llm/internal/repository"
)

// NewRouter configura el router de Gin con middlewares y rutas.
func NewRouter(
	logger *zap.Logger,
	auth AuthConfig,
	users repository.UserRepository,
	chatH *ChatHandler,
	personalityH *PersonalityHandler,
	sessionH *SessionHandler,
	profileH *ProfileHandler,
	adminH *AdminHandler,
	healthH *HealthHandler,
) *gin.Engine {
	r := gin.New()
	r.Use(zapLoggerMiddleware(logger), gin.Recovery())

	r.GET("/healthz", healthH.Health)

	authed := r.Group("/", AuthMiddleware(auth, users))

	authed.POST("/chat", chatH.PostChat)

	personalities := authed.Group("/personalities")
	personalities.POST("", personalityH.Create)
	personalities.GET("", personalityH.List)
	personalities.GET("/:name", personalityH.Get)
	personalities.PUT("/:name", personalityH.Update)
	personalities.DELETE("/:name", personalityH.Delete)

	conversations := authed.Group("/conversations")
	conversations.GET("/:id/session", sessionH.GetState)
	conversations.POST("/:id/age-verify", sessionH.VerifyAge)

	profile := authed.Group("/profile")
	profile.GET("/emotions", profileH.ListEmotions)
	profile.GET("/goals", profileH.ListGoals)
	profile.GET("/memories", profileH.ListMemories)
	profile.DELETE("/memories/:id", profileH.ForgetMemory)
	profile.GET("/relationship", profileH.GetRelationship)
	profile.POST("/relationship/reaction", profileH.PostReaction)

	admin := authed.Group("/admin")
	admin.POST("/classify", adminH.Classify)
	admin.GET("/audit/stats", adminH.AuditStats)

	return r
}

// zapLoggerMiddleware crea un middleware simple de logging con zap.
func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}
