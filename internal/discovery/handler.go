package discovery

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/curricula/backend/internal/apperr"
	"github.com/curricula/backend/internal/models"
	"github.com/curricula/backend/internal/submissions"
	"github.com/curricula/backend/pkg/response"
)

const (
	SourceDiscoverUI = "admin-discover-ui"
	SourceExtractUI  = "admin-extract-ui"
)

// Finder is the model-backed half of the admin discovery pages.
type Finder interface {
	Discover(ctx context.Context, topic string) ([]Candidate, error)
	Extract(ctx context.Context, pageURL string) (*Candidate, error)
}

// DiscoverRequest is the body for POST /api/admin/discover.
type DiscoverRequest struct {
	Topic string `json:"topic" binding:"required"`
}

// ExtractRequest is the body for POST /api/admin/extract.
type ExtractRequest struct {
	URL string `json:"url" binding:"required,url"`
}

// QueueDiscoveredRequest is the body for POST /api/admin/discover/queue.
type QueueDiscoveredRequest struct {
	Candidate
	DiscoveryTopic string `json:"discoveryTopic"`
}

// QueuedResponse is returned after a candidate joins the pending queue.
type QueuedResponse struct {
	ID int64 `json:"id"`
}

// Handler serves the admin discovery and extraction endpoints.
type Handler struct {
	finder Finder
	queue  submissions.Creator
	logger *zap.Logger
}

// NewHandler creates a discovery handler.
func NewHandler(finder Finder, queue submissions.Creator, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{finder: finder, queue: queue, logger: logger}
}

// Discover handles POST /api/admin/discover.
func (h *Handler) Discover(c *gin.Context) {
	var req DiscoverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	found, err := h.finder.Discover(c.Request.Context(), req.Topic)
	if err != nil {
		response.Error(c, err, "Failed to discover resources")
		return
	}
	response.OK(c, gin.H{"resources": found})
}

// QueueDiscovered handles POST /api/admin/discover/queue.
func (h *Handler) QueueDiscovered(c *gin.Context) {
	var req QueueDiscoveredRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	h.enqueue(c, &req.Candidate, &models.Metadata{
		DiscoveryTopic: submissions.StripHTML(req.DiscoveryTopic),
		SourceAgent:    SourceDiscoverUI,
	})
}

// Extract handles POST /api/admin/extract.
func (h *Handler) Extract(c *gin.Context) {
	var req ExtractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	found, err := h.finder.Extract(c.Request.Context(), req.URL)
	if err != nil {
		response.Error(c, err, "Failed to extract from URL")
		return
	}
	response.OK(c, gin.H{"resource": found})
}

// QueueExtracted handles POST /api/admin/extract/queue.
func (h *Handler) QueueExtracted(c *gin.Context) {
	var req Candidate
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	h.enqueue(c, &req, &models.Metadata{SourceAgent: SourceExtractUI})
}

func (h *Handler) enqueue(c *gin.Context, cand *Candidate, meta *models.Metadata) {
	if err := cand.Normalize(); err != nil {
		response.Error(c, apperr.Validation(err.Error()), "Failed to add to queue")
		return
	}
	id, err := h.queue.Create(c.Request.Context(), cand.Submission(meta))
	if err != nil {
		h.logger.Error("add to queue", zap.String("url", cand.URL), zap.Error(err))
		response.Error(c, err, "Failed to add to queue")
		return
	}
	h.logger.Info("queued candidate", zap.Int64("submission_id", id), zap.String("source", meta.SourceAgent))
	response.Created(c, QueuedResponse{ID: id})
}
