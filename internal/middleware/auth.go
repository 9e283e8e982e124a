package middleware

import (
	"crypto/subtle"
	"noted_backend/internal/util"
	"strings"

	"github.com/gin-gonic/gin"
)

func tokenMatches(got, want string) bool {
	if want == "" || got == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}

// AuthMiddleware enforces the static API bearer token.
func AuthMiddleware(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			util.Unauthorized(c)
			c.Abort()
			return
		}

		if !tokenMatches(strings.TrimPrefix(header, "Bearer "), token) {
			util.Unauthorized(c)
			c.Abort()
			return
		}

		c.Next()
	}
}

// WebhookAuth enforces the shared token carried by transcript webhooks.
func WebhookAuth(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !tokenMatches(c.GetHeader("X-Webhook-Token"), token) {
			util.Unauthorized(c)
			c.Abort()
			return
		}
		c.Next()
	}
}

// QueryTokenAuth enforces the bearer token passed as ?token= by websocket
// clients, which cannot set headers from the browser.
func QueryTokenAuth(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !tokenMatches(c.Query("token"), token) {
			util.Unauthorized(c)
			c.Abort()
			return
		}
		c.Next()
	}
}
