package auth

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/curricula/backend/internal/models"
	"github.com/curricula/backend/pkg/response"
	"github.com/curricula/backend/pkg/utils"
)

const invalidCredentials = "Invalid email or password"

// SignInRequest is the body for POST /api/auth/sign-in/email.
type SignInRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// SessionResponse describes the current session.
type SessionResponse struct {
	User      models.UserPublic `json:"user"`
	ExpiresAt *time.Time        `json:"expiresAt,omitempty"`
}

// UserFinder looks up accounts for sign-in.
type UserFinder interface {
	UserByEmail(ctx context.Context, email string) (*models.User, error)
}

// Handler handles auth HTTP endpoints.
type Handler struct {
	users   UserFinder
	manager *Manager
	logger  *zap.Logger
}

// NewHandler creates an auth handler.
func NewHandler(users UserFinder, manager *Manager, logger *zap.Logger) *Handler {
	return &Handler{users: users, manager: manager, logger: logger}
}

// SignIn handles POST /api/auth/sign-in/email.
func (h *Handler) SignIn(c *gin.Context) {
	var req SignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	user, err := h.users.UserByEmail(c.Request.Context(), req.Email)
	if err != nil {
		h.logger.Error("sign in lookup", zap.Error(err))
		response.Internal(c, "failed to sign in")
		return
	}
	if user == nil || !utils.CheckPassword(req.Password, user.Password) {
		response.Unauthorized(c, invalidCredentials)
		return
	}

	s, err := h.manager.Start(c, user)
	if err != nil {
		h.logger.Error("start session", zap.String("user_id", user.ID.String()), zap.Error(err))
		response.Internal(c, "failed to sign in")
		return
	}
	h.logger.Info("signed in", zap.String("user_id", user.ID.String()), zap.String("role", string(user.Role)))
	response.OK(c, SessionResponse{User: user.ToPublic(), ExpiresAt: &s.ExpiresAt})
}

// SignOut handles POST /api/auth/sign-out.
func (h *Handler) SignOut(c *gin.Context) {
	if err := h.manager.End(c); err != nil {
		h.logger.Warn("end session", zap.Error(err))
	}
	response.OK(c, gin.H{"signedOut": true})
}

// GetSession handles GET /api/auth/get-session. Anonymous visitors get null data.
func (h *Handler) GetSession(c *gin.Context) {
	v := ViewerFrom(c)
	if !v.SignedIn() {
		response.OK(c, nil)
		return
	}
	response.OK(c, SessionResponse{User: *v.User})
}
