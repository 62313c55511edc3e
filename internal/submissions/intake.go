package submissions

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/curricula/backend/internal/models"
	"github.com/curricula/backend/pkg/response"
)

// CreateRequest is the body agents send to POST /api/submissions.
type CreateRequest struct {
	Title             string              `json:"title" binding:"required"`
	Description       string              `json:"description"`
	URL               string              `json:"url" binding:"required,url"`
	Type              models.ResourceType `json:"type" binding:"required,oneof=BOOK COURSE YOUTUBE_SERIES PODCAST ARTICLE COHORT_PROGRAM"`
	Price             string              `json:"price"`
	ImageURL          string              `json:"imageUrl" binding:"omitempty,url"`
	CreatorName       string              `json:"creatorName" binding:"required"`
	CreatorURL        string              `json:"creatorUrl" binding:"omitempty,url"`
	SuggestedCategory string              `json:"suggestedCategory" binding:"required"`
	SuggestedTags     []string            `json:"suggestedTags"`
	Metadata          *models.Metadata    `json:"metadata"`
}

// Submission converts the request into a row to insert.
func (r *CreateRequest) Submission() *models.PendingSubmission {
	return &models.PendingSubmission{
		Title:             r.Title,
		Description:       r.Description,
		URL:               r.URL,
		Type:              r.Type,
		Price:             r.Price,
		ImageURL:          r.ImageURL,
		CreatorName:       r.CreatorName,
		CreatorURL:        r.CreatorURL,
		SuggestedCategory: r.SuggestedCategory,
		SuggestedTags:     r.SuggestedTags,
		Metadata:          r.Metadata,
		Status:            models.SubmissionPending,
	}
}

// CreateResponse is returned with 201.
type CreateResponse struct {
	ID      int64  `json:"id"`
	Message string `json:"message"`
}

// Creator inserts submissions.
type Creator interface {
	Create(ctx context.Context, s *models.PendingSubmission) (int64, error)
}

// IntakeHandler serves the agent-facing submission endpoint.
type IntakeHandler struct {
	store  Creator
	logger *zap.Logger
}

// NewIntakeHandler creates the intake handler.
func NewIntakeHandler(store Creator, logger *zap.Logger) *IntakeHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IntakeHandler{store: store, logger: logger}
}

// RequireToken checks Authorization: Bearer <token> against the shared intake secret.
func RequireToken(token string) gin.HandlerFunc {
	expected := []byte(token)
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			response.Unauthorized(c, "Missing or invalid authorization header")
			c.Abort()
			return
		}
		got := []byte(strings.TrimPrefix(header, "Bearer "))
		if len(expected) == 0 || subtle.ConstantTimeCompare(got, expected) != 1 {
			response.Unauthorized(c, "Invalid token")
			c.Abort()
			return
		}
		c.Next()
	}
}

// Create handles POST /api/submissions.
func (h *IntakeHandler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var syntaxErr *json.SyntaxError
		var verrs validator.ValidationErrors
		switch {
		case errors.As(err, &verrs):
			response.ValidationFailed(c, "Validation failed", fieldErrors(verrs))
		case errors.As(err, &syntaxErr), isEmptyBody(err):
			response.BadRequest(c, "Invalid JSON in request body")
		default:
			response.ValidationFailed(c, "Validation failed", decodeErrors(err))
		}
		return
	}
	if err := req.Metadata.Validate(); err != nil {
		response.ValidationFailed(c, "Validation failed", map[string][]string{
			"metadata": {err.Error()},
		})
		return
	}
	req.Sanitize()
	if details := req.missingText(); len(details) > 0 {
		response.ValidationFailed(c, "Validation failed", details)
		return
	}

	id, err := h.store.Create(c.Request.Context(), req.Submission())
	if err != nil {
		h.logger.Error("failed to insert submission", zap.String("url", req.URL), zap.Error(err))
		response.Internal(c, "Failed to save submission")
		return
	}
	h.logger.Info("submission received", zap.Int64("submission_id", id), zap.String("title", req.Title))
	response.Created(c, CreateResponse{ID: id, Message: "Submission received"})
}
