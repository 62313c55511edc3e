package catalog

import (
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/curricula/backend/pkg/response"
)

// Handler serves public catalog pages as JSON and the admin option lists.
type Handler struct {
	svc    *Service
	repo   Reader
	logger *zap.Logger
}

// NewHandler creates a catalog handler.
func NewHandler(svc *Service, repo Reader, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, repo: repo, logger: logger}
}

func (h *Handler) fail(c *gin.Context, what string, err error) {
	h.logger.Error("catalog read failed", zap.String("page", what), zap.String("path", c.Request.URL.Path), zap.Error(err))
	response.Error(c, err, "Failed to load "+what)
}

// Home handles GET /api/home?category=.
func (h *Handler) Home(c *gin.Context) {
	page, err := h.svc.Home(c.Request.Context(), strings.TrimSpace(c.Query("category")))
	if err != nil {
		h.fail(c, "home", err)
		return
	}
	response.OK(c, page)
}

// Browse handles GET /api/browse?category=&tag=.
func (h *Handler) Browse(c *gin.Context) {
	f := Filter{
		CategorySlug: strings.TrimSpace(c.Query("category")),
		TagSlug:      strings.TrimSpace(c.Query("tag")),
	}
	page, err := h.svc.Browse(c.Request.Context(), f)
	if err != nil {
		h.fail(c, "resources", err)
		return
	}
	response.OK(c, page)
}

// Resource handles GET /api/resources/:slug.
func (h *Handler) Resource(c *gin.Context) {
	page, err := h.svc.Resource(c.Request.Context(), c.Param("slug"))
	if err != nil {
		h.fail(c, "resource", err)
		return
	}
	response.OK(c, page)
}

// Creator handles GET /api/creators/:slug.
func (h *Handler) Creator(c *gin.Context) {
	page, err := h.svc.Creator(c.Request.Context(), c.Param("slug"))
	if err != nil {
		h.fail(c, "creator", err)
		return
	}
	response.OK(c, page)
}

// Category handles GET /api/categories/:slug.
func (h *Handler) Category(c *gin.Context) {
	page, err := h.svc.Category(c.Request.Context(), c.Param("slug"))
	if err != nil {
		h.fail(c, "category", err)
		return
	}
	response.OK(c, page)
}

// NotFound answers unknown routes.
func NotFound(c *gin.Context) {
	response.NotFound(c, "Page not found")
}

// Creators handles GET /api/admin/creators.
func (h *Handler) Creators(c *gin.Context) {
	list, err := h.repo.ListCreators(c.Request.Context())
	if err != nil {
		h.fail(c, "creators", err)
		return
	}
	response.OK(c, list)
}

// Categories handles GET /api/admin/categories.
func (h *Handler) Categories(c *gin.Context) {
	list, err := h.repo.ListCategories(c.Request.Context())
	if err != nil {
		h.fail(c, "categories", err)
		return
	}
	response.OK(c, list)
}

// Tags handles GET /api/admin/tags.
func (h *Handler) Tags(c *gin.Context) {
	list, err := h.repo.ListTags(c.Request.Context())
	if err != nil {
		h.fail(c, "tags", err)
		return
	}
	response.OK(c, list)
}
