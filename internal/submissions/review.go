package submissions

import (
	"context"
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/curricula/backend/internal/models"
	"github.com/curricula/backend/internal/slug"
	"github.com/curricula/backend/pkg/response"
)

// Reader loads submissions for the back-office.
type Reader interface {
	GetByID(ctx context.Context, id int64) (*models.PendingSubmission, error)
	ListPending(ctx context.Context) ([]models.PendingSubmission, error)
}

// Lookup is the catalog data a reviewer picks from.
type Lookup interface {
	CreatorByName(ctx context.Context, name string) (*models.Creator, error)
	ResourceSlugExists(ctx context.Context, slug string) (bool, error)
	ListCreators(ctx context.Context) ([]models.Creator, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
	ListTags(ctx context.Context) ([]models.Tag, error)
}

// Review is everything the approval form needs for one submission. SuggestedCreator is
// an existing creator whose name matches the submitted one ignoring case; ResourceSlug
// is the slug the resource would get if approved now.
type Review struct {
	Submission       *models.PendingSubmission `json:"submission"`
	SuggestedCreator *models.Creator           `json:"suggestedCreator"`
	CategorySlug     string                    `json:"categorySlug"`
	ResourceSlug     string                    `json:"resourceSlug"`
	Creators         []models.Creator          `json:"creators"`
	Categories       []models.Category         `json:"categories"`
	Tags             []models.Tag              `json:"tags"`
}

// AdminHandler serves the pending queue to admins.
type AdminHandler struct {
	subs   Reader
	lookup Lookup
	logger *zap.Logger
}

// NewAdminHandler creates the admin submissions handler.
func NewAdminHandler(subs Reader, lookup Lookup, logger *zap.Logger) *AdminHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminHandler{subs: subs, lookup: lookup, logger: logger}
}

// BuildReview assembles the review context for submission id.
func (h *AdminHandler) BuildReview(ctx context.Context, id int64) (*Review, error) {
	sub, err := h.subs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	rv := &Review{Submission: sub, CategorySlug: CategorySlugFor(sub.SuggestedCategory)}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		c, err := h.lookup.CreatorByName(gctx, sub.CreatorName)
		rv.SuggestedCreator = c
		return err
	})
	g.Go(func() error {
		s, err := slug.Probe(gctx, slug.MakeOr(sub.Title, "untitled"), h.lookup.ResourceSlugExists)
		rv.ResourceSlug = s
		return err
	})
	g.Go(func() (err error) {
		rv.Creators, err = h.lookup.ListCreators(gctx)
		return err
	})
	g.Go(func() (err error) {
		rv.Categories, err = h.lookup.ListCategories(gctx)
		return err
	})
	g.Go(func() (err error) {
		rv.Tags, err = h.lookup.ListTags(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("build review for submission %d: %w", id, err)
	}
	return rv, nil
}

// ListPending handles GET /api/admin/submissions.
func (h *AdminHandler) ListPending(c *gin.Context) {
	list, err := h.subs.ListPending(c.Request.Context())
	if err != nil {
		h.logger.Error("list pending submissions", zap.Error(err))
		response.Internal(c, "Failed to list submissions")
		return
	}
	response.OK(c, list)
}

// Review handles GET /api/admin/submissions/:id/review.
func (h *AdminHandler) Review(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(c, "invalid submission id")
		return
	}
	rv, err := h.BuildReview(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("build review", zap.Int64("submission_id", id), zap.Error(err))
		response.Error(c, err, "Failed to load submission")
		return
	}
	response.OK(c, rv)
}
