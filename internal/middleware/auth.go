package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GoPolymarket/polyagent/internal/config"
)

const HeaderGatewayKey = "X-Gateway-Key"

// AuthMiddleware guards the gateway's own HTTP surface with a shared key.
// This is gateway access control, not exchange authentication.
func AuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !cfg.Auth.RequireAPIKey {
			c.Next()
			return
		}

		key := c.GetHeader(HeaderGatewayKey)
		if key == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing gateway key"})
			c.Abort()
			return
		}
		if subtle.ConstantTimeCompare([]byte(key), []byte(cfg.Auth.APIKey)) != 1 {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid gateway key"})
			c.Abort()
			return
		}
		c.Next()
	}
}
