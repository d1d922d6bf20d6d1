package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"companion-llm/internal/repository"
	"companion-llm/internal/service"
)

const authUserKey = "auth_user_id"

// AuthConfig agrupa los mecanismos de autenticacion aceptados.
type AuthConfig struct {
	JWT              *service.JWTService
	APIKeyHash       string
	DebugAuthEnabled bool
}

// AuthMiddleware resuelve la identidad del request y deja el user id interno
// en el contexto. Acepta, en orden: Bearer JWT, X-API-Key (hash bcrypt) con
// X-External-ID, y X-Debug-User solo si el modo debug esta habilitado.
// El usuario interno se crea en el primer uso autenticado.
func AuthMiddleware(cfg AuthConfig, users repository.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		externalID := resolveExternalID(c, cfg)
		if externalID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}

		user, err := users.GetOrCreateByExternalID(c.Request.Context(), externalID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not resolve user"})
			c.Abort()
			return
		}

		c.Set(authUserKey, user.ID)
		c.Next()
	}
}

func resolveExternalID(c *gin.Context, cfg AuthConfig) string {
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if strings.HasPrefix(strings.ToLower(header), "bearer ") && cfg.JWT != nil {
		token := strings.TrimSpace(header[len("Bearer "):])
		claims, err := cfg.JWT.ParseAccessToken(token)
		if err == nil {
			return claims.Subject
		}
		return ""
	}

	if apiKey := c.GetHeader("X-API-Key"); apiKey != "" && cfg.APIKeyHash != "" {
		if err := bcrypt.CompareHashAndPassword([]byte(cfg.APIKeyHash), []byte(apiKey)); err == nil {
			if ext := strings.TrimSpace(c.GetHeader("X-External-ID")); ext != "" {
				return ext
			}
		}
		return ""
	}

	if cfg.DebugAuthEnabled {
		return strings.TrimSpace(c.GetHeader("X-Debug-User"))
	}
	return ""
}

// GetAuthUserID obtiene el user id interno dejado por el middleware.
func GetAuthUserID(c *gin.Context) (uuid.UUID, bool) {
	val, ok := c.Get(authUserKey)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := val.(uuid.UUID)
	return id, ok
}
