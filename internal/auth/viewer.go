package auth

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/curricula/backend/internal/models"
)

// ContextViewer is the gin context key holding the request's *Viewer.
const ContextViewer = "viewer"

// Viewer is who is making the request. The zero value is an anonymous visitor.
type Viewer struct {
	SessionID uuid.UUID
	User      *models.UserPublic
}

// SignedIn reports whether the request carries a live session.
func (v *Viewer) SignedIn() bool {
	return v != nil && v.User != nil
}

// IsAdmin reports whether the viewer may use the back-office.
func (v *Viewer) IsAdmin() bool {
	return v.SignedIn() && v.User.Role == models.RoleAdmin
}

// SetViewer stores v on the request context.
func SetViewer(c *gin.Context, v *Viewer) {
	c.Set(ContextViewer, v)
}

// ViewerFrom returns the request's viewer, or an anonymous one. It never returns nil.
func ViewerFrom(c *gin.Context) *Viewer {
	if v, ok := c.Get(ContextViewer); ok {
		if viewer, ok := v.(*Viewer); ok && viewer != nil {
			return viewer
		}
	}
	return &Viewer{}
}
