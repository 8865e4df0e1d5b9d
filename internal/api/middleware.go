package api

import (
	"alcyxob/runplan/internal/auth"
	"alcyxob/runplan/internal/logger"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// ContextCredentialKey holds the raw bearer credential for downstream handlers.
const ContextCredentialKey = "credential"

// BearerMiddleware rejects requests without an "Authorization: Bearer <token>" header.
// The token itself is verified by the service, which owns the subject lookup.
func BearerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortWithError(c, http.StatusUnauthorized, "Authorization header is missing")
			return
		}

		token := auth.BearerToken(authHeader)
		if token == "" {
			abortWithError(c, http.StatusUnauthorized, "Authorization header format must be Bearer {token}")
			return
		}

		c.Set(ContextCredentialKey, token)
		c.Next()
	}
}

// Helper to return JSON error response and abort request
func abortWithError(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, gin.H{"error": message})
}

// Helper function to get the bearer credential from context (used by handlers)
func getCredentialFromContext(c *gin.Context) (string, error) {
	raw, exists := c.Get(ContextCredentialKey)
	if !exists {
		return "", errors.New("credential not found in context")
	}
	credential, ok := raw.(string)
	if !ok {
		return "", errors.New("invalid credential type in context")
	}
	return credential, nil
}

// CORS allows browser clients from the configured origins.
func CORS(origins []string) gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
}

// RequestLogger writes one access log line per request, levelled by status class.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		if log == nil {
			return
		}

		status := c.Writer.Status()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		fields := []interface{}{
			"method", strings.ToUpper(c.Request.Method),
			"path", path,
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
		}

		switch {
		case status >= 500:
			log.Error("HTTP request", fields...)
		case status >= 400:
			log.Warn("HTTP request", fields...)
		default:
			log.Info("HTTP request", fields...)
		}
	}
}
