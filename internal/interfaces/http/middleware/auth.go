package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/duncan1987/askzeninsight-sub000/internal/domain/services"
)

const (
	ContextUserID    = "user_id"
	ContextUserEmail = "user_email"
)

// RequireAuth rejects requests without a valid bearer session token.
func RequireAuth(tokens services.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := bearerClaims(c, tokens)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "Invalid or expired token",
				"message": "Please sign in again to get a new token",
			})
			c.Abort()
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextUserEmail, claims.Email)
		c.Next()
	}
}

// OptionalAuth attaches identity when a valid token is present but lets
// anonymous requests through. Chat and usage checks serve both.
func OptionalAuth(tokens services.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims, ok := bearerClaims(c, tokens); ok {
			c.Set(ContextUserID, claims.UserID)
			c.Set(ContextUserEmail, claims.Email)
		}
		c.Next()
	}
}

func bearerClaims(c *gin.Context, tokens services.TokenService) (*services.TokenClaims, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return nil, false
	}

	tokenParts := strings.Split(authHeader, " ")
	if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
		return nil, false
	}

	claims, err := tokens.ValidateToken(tokenParts[1])
	if err != nil {
		return nil, false
	}
	return claims, true
}

// UserID returns the authenticated user id set by RequireAuth or OptionalAuth.
func UserID(c *gin.Context) string {
	if v, ok := c.Get(ContextUserID); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// UserEmail returns the authenticated user's email, if any.
func UserEmail(c *gin.Context) string {
	if v, ok := c.Get(ContextUserEmail); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
