package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// RequireAdminKey gates the refund review surface behind a static operator
// key. An empty configured key means the surface is off, not open.
func RequireAdminKey(adminKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if adminKey == "" {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Admin access is not configured",
			})
			c.Abort()
			return
		}

		provided := c.GetHeader("x-admin-key")
		if subtle.ConstantTimeCompare([]byte(provided), []byte(adminKey)) != 1 {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid admin key",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// RequireCronSecret authenticates scheduler-invoked endpoints with a
// shared bearer secret.
func RequireCronSecret(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Cron access is not configured",
			})
			c.Abort()
			return
		}

		authHeader := c.GetHeader("Authorization")
		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token == authHeader || subtle.ConstantTimeCompare([]byte(token), []byte(secret)) != 1 {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid cron secret",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
