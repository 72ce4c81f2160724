package demo

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// BlockedMessage is returned for every write request while demo mode is on.
const BlockedMessage = "This action is disabled in demo mode"

// Middleware keeps the API read-only when serving a seeded demo database.
// Only GET, HEAD and OPTIONS requests reach the handlers.
type Middleware struct {
	enabled bool
}

// NewMiddleware creates a demo mode middleware.
func NewMiddleware(enabled bool) *Middleware {
	return &Middleware{enabled: enabled}
}

// IsEnabled returns whether demo mode is active.
func (m *Middleware) IsEnabled() bool {
	return m.enabled
}

// Handler returns a Gin middleware that rejects write operations with 403.
func (m *Middleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !m.enabled {
			c.Next()
			return
		}

		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}

		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"error":     BlockedMessage,
			"code":      "demo_mode",
			"demo_mode": true,
		})
	}
}
