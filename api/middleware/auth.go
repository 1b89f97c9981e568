package middleware

import (
	"net/http"
	"strings"

	"github.com/SzKingXz/aurore-backend/api/models"
	"github.com/SzKingXz/aurore-backend/internal/logger"
	"github.com/gin-gonic/gin"
)

const AccessTokenKey = "accessToken"

// RequireBearer extracts the Discord access token from the Authorization
// header. The token is only forwarded to Discord, never stored.
func RequireBearer(l *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")

		token, ok := strings.CutPrefix(authHeader, "Bearer ")
		token = strings.TrimSpace(token)
		if !ok || token == "" {
			l.Warn("No bearer token provided from ", c.ClientIP())
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{Error: "unauthorized"})
			return
		}

		c.Set(AccessTokenKey, token)
		c.Next()
	}
}
