package catalog

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/curricula/backend/internal/apperr"
	"github.com/curricula/backend/internal/models"
	"github.com/curricula/backend/pkg/cache"
)

// Reader is the query surface the page builders need.
type Reader interface {
	ListResources(ctx context.Context, f Filter) ([]models.ResourceListing, error)
	ResourceBySlug(ctx context.Context, slug string) (*models.ResourceDetail, error)
	RelatedResources(ctx context.Context, categoryID, excludeID int64, limit int) ([]models.ResourceListing, error)
	ResourcesByCreator(ctx context.Context, creatorID int64) ([]models.ResourceListing, error)
	CreatorBySlug(ctx context.Context, slug string) (*models.Creator, error)
	CategoryBySlug(ctx context.Context, slug string) (*models.Category, error)
	CategoriesWithCounts(ctx context.Context) ([]models.CategoryCount, error)
	TagsWithCounts(ctx context.Context) ([]models.TagCount, error)
	ListCreators(ctx context.Context) ([]models.Creator, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
	ListTags(ctx context.Context) ([]models.Tag, error)
}

// HomePage is the landing page, optionally narrowed to one category.
type HomePage struct {
	Categories     []models.CategoryCount   `json:"categories"`
	Resources      []models.ResourceListing `json:"resources"`
	ActiveCategory string                   `json:"activeCategory,omitempty"`
}

// BrowsePage lists resources by category and tag.
type BrowsePage struct {
	Categories []models.CategoryCount   `json:"categories"`
	Tags       []models.TagCount        `json:"tags"`
	Resources  []models.ResourceListing `json:"resources"`
	Filter     Filter                   `json:"filter"`
}

// ResourcePage is a resource with related resources from its category.
type ResourcePage struct {
	Resource *models.ResourceDetail   `json:"resource"`
	Related  []models.ResourceListing `json:"related"`
}

// CreatorPage is a creator with everything they made.
type CreatorPage struct {
	Creator   *models.Creator          `json:"creator"`
	Resources []models.ResourceListing `json:"resources"`
}

// CategoryPage is one category's resources.
type CategoryPage struct {
	Category  *models.Category         `json:"category"`
	Resources []models.ResourceListing `json:"resources"`
}

// Service builds public pages, caching them until the next approval.
type Service struct {
	repo   Reader
	cache  *cache.Cache
	logger *zap.Logger
}

// NewService creates a catalog service. c may be nil.
func NewService(repo Reader, c *cache.Cache, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, cache: c, logger: logger}
}

// Home returns the home page. An unknown category yields no resources.
func (s *Service) Home(ctx context.Context, categorySlug string) (*HomePage, error) {
	return cache.Remember(ctx, s.cache, "home:"+categorySlug, func(ctx context.Context) (*HomePage, error) {
		page := &HomePage{ActiveCategory: categorySlug}
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() (err error) {
			page.Categories, err = s.repo.CategoriesWithCounts(gctx)
			return err
		})
		g.Go(func() (err error) {
			page.Resources, err = s.repo.ListResources(gctx, Filter{CategorySlug: categorySlug})
			return err
		})
		if err := g.Wait(); err != nil {
			return nil, err
		}
		return page, nil
	})
}

// Browse returns resources matching f with the filter options.
func (s *Service) Browse(ctx context.Context, f Filter) (*BrowsePage, error) {
	key := "browse:" + f.CategorySlug + ":" + f.TagSlug
	return cache.Remember(ctx, s.cache, key, func(ctx context.Context) (*BrowsePage, error) {
		page := &BrowsePage{Filter: f}
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() (err error) {
			page.Categories, err = s.repo.CategoriesWithCounts(gctx)
			return err
		})
		g.Go(func() (err error) {
			page.Tags, err = s.repo.TagsWithCounts(gctx)
			return err
		})
		g.Go(func() (err error) {
			page.Resources, err = s.repo.ListResources(gctx, f)
			return err
		})
		if err := g.Wait(); err != nil {
			return nil, err
		}
		return page, nil
	})
}

// Resource returns a resource page, or a NotFound error.
func (s *Service) Resource(ctx context.Context, slug string) (*ResourcePage, error) {
	return cache.Remember(ctx, s.cache, "resource:"+slug, func(ctx context.Context) (*ResourcePage, error) {
		r, err := s.repo.ResourceBySlug(ctx, slug)
		if err != nil {
			return nil, err
		}
		if r == nil {
			return nil, apperr.NotFound("Resource not found")
		}
		related, err := s.repo.RelatedResources(ctx, r.CategoryID, r.ID, RelatedLimit)
		if err != nil {
			return nil, err
		}
		return &ResourcePage{Resource: r, Related: related}, nil
	})
}

// Creator returns a creator page, or a NotFound error.
func (s *Service) Creator(ctx context.Context, slug string) (*CreatorPage, error) {
	return cache.Remember(ctx, s.cache, "creator:"+slug, func(ctx context.Context) (*CreatorPage, error) {
		c, err := s.repo.CreatorBySlug(ctx, slug)
		if err != nil {
			return nil, err
		}
		if c == nil {
			return nil, apperr.NotFound("Creator not found")
		}
		resources, err := s.repo.ResourcesByCreator(ctx, c.ID)
		if err != nil {
			return nil, err
		}
		return &CreatorPage{Creator: c, Resources: resources}, nil
	})
}

// Category returns a category page, or a NotFound error.
func (s *Service) Category(ctx context.Context, slug string) (*CategoryPage, error) {
	return cache.Remember(ctx, s.cache, "category:"+slug, func(ctx context.Context) (*CategoryPage, error) {
		c, err := s.repo.CategoryBySlug(ctx, slug)
		if err != nil {
			return nil, err
		}
		if c == nil {
			return nil, apperr.NotFound("Category not found")
		}
		resources, err := s.repo.ListResources(ctx, Filter{CategorySlug: slug})
		if err != nil {
			return nil, err
		}
		return &CategoryPage{Category: c, Resources: resources}, nil
	})
}
