package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/curricula/backend/pkg/response"
)

// TrustedOrigin rejects cookie-authenticated writes whose Origin header is not trusted.
// Requests without an Origin header (non-browser clients) pass through.
func TrustedOrigin(trusted []string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(trusted))
	for _, o := range trusted {
		allowed[o] = true
	}
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}
		origin := c.GetHeader("Origin")
		if origin == "" || allowed["*"] || allowed[origin] {
			c.Next()
			return
		}
		response.Forbidden(c, "Invalid origin")
		c.Abort()
	}
}
