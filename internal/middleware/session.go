package middleware

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/curricula/backend/internal/auth"
	"github.com/curricula/backend/pkg/response"
)

// ViewerResolver resolves the request's viewer from its cookies.
type ViewerResolver interface {
	Resolve(c *gin.Context) (*auth.Viewer, error)
}

// LoadViewer resolves the session once per request and stores the viewer on the context.
// Store failures leave the request anonymous.
func LoadViewer(resolver ViewerResolver, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, err := resolver.Resolve(c)
		if err != nil {
			logger.Error("resolve session", zap.Error(err))
			v = &auth.Viewer{}
		}
		auth.SetViewer(c, v)
		c.Next()
	}
}

// RequireAdmin allows only signed-in admins: 401 without a session, 403 for other roles.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		v := auth.ViewerFrom(c)
		if !v.SignedIn() {
			response.Unauthorized(c, "Unauthorized")
			c.Abort()
			return
		}
		if !v.IsAdmin() {
			response.Forbidden(c, "Forbidden")
			c.Abort()
			return
		}
		c.Next()
	}
}
