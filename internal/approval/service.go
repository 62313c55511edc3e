// Package approval turns pending submissions into published resources, or rejects them.
// Every approval runs in one transaction holding a row lock on the submission.
package approval

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/curricula/backend/internal/apperr"
	"github.com/curricula/backend/internal/models"
	"github.com/curricula/backend/internal/slug"
	"github.com/curricula/backend/pkg/queue"
)

// Store opens transactions.
type Store interface {
	InTx(ctx context.Context, fn func(tx Tx) error) error
}

// Tx is the set of writes an approval needs. All of them roll back together.
type Tx interface {
	// LockSubmission loads and locks a submission. It returns nil, nil when none exists.
	LockSubmission(ctx context.Context, id int64) (*models.PendingSubmission, error)
	// InsertCreator inserts c unless c.Slug is taken; on success it fills c.ID.
	InsertCreator(ctx context.Context, c *models.Creator) (bool, error)
	// CategoryBySlug returns nil, nil for an unknown slug.
	CategoryBySlug(ctx context.Context, slug string) (*models.Category, error)
	// InsertResource inserts r unless r.Slug is taken; on success it fills r.ID.
	InsertResource(ctx context.Context, r *models.Resource) (bool, error)
	LinkTags(ctx context.Context, resourceID int64, tagIDs []int64) error
	MarkReviewed(ctx context.Context, id int64, status models.SubmissionStatus, notes *string, at time.Time) error
}

// Invalidator drops cached catalog reads.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// ImageEnqueuer schedules copying a resource image to our bucket.
type ImageEnqueuer interface {
	EnqueueMirrorImage(ctx context.Context, payload queue.MirrorImagePayload) error
}

// Service runs the approval workflow.
type Service struct {
	store  Store
	cache  Invalidator
	images ImageEnqueuer
	logger *zap.Logger
	now    func() time.Time
}

// NewService creates an approval service. cache and images may be nil.
func NewService(store Store, cache Invalidator, images ImageEnqueuer, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:  store,
		cache:  cache,
		images: images,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Approve publishes a pending submission as a resource.
func (s *Service) Approve(ctx context.Context, req Request) (*Result, error) {
	var resource models.Resource
	err := s.store.InTx(ctx, func(tx Tx) error {
		sub, err := lockPending(ctx, tx, req.SubmissionID)
		if err != nil {
			return err
		}

		creatorID, err := s.resolveCreator(ctx, tx, req)
		if err != nil {
			return err
		}

		category, err := resolveCategory(ctx, tx, req.CategorySlug)
		if err != nil {
			return err
		}

		resource = buildResource(sub, req, creatorID, category.ID)
		base := slug.MakeOr(resource.Title, "untitled")
		if _, err := slug.Claim(ctx, base, func(ctx context.Context, candidate string) (bool, error) {
			resource.Slug = candidate
			return tx.InsertResource(ctx, &resource)
		}); err != nil {
			return slugError("resource", err)
		}

		if len(req.TagIDs) > 0 {
			if err := tx.LinkTags(ctx, resource.ID, req.TagIDs); err != nil {
				return err
			}
		}

		return tx.MarkReviewed(ctx, sub.ID, models.SubmissionApproved, nil, s.now())
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("submission approved",
		zap.Int64("submission_id", req.SubmissionID),
		zap.Int64("resource_id", resource.ID),
		zap.String("resource_slug", resource.Slug))
	s.afterPublish(ctx, &resource)
	return &Result{ResourceID: resource.ID, ResourceSlug: resource.Slug}, nil
}

// Reject marks a pending submission rejected. notes is stored as given; nil stores NULL.
func (s *Service) Reject(ctx context.Context, id int64, notes *string) error {
	err := s.store.InTx(ctx, func(tx Tx) error {
		if _, err := lockPending(ctx, tx, id); err != nil {
			return err
		}
		return tx.MarkReviewed(ctx, id, models.SubmissionRejected, notes, s.now())
	})
	if err != nil {
		return err
	}
	s.logger.Info("submission rejected", zap.Int64("submission_id", id))
	return nil
}

func lockPending(ctx context.Context, tx Tx, id int64) (*models.PendingSubmission, error) {
	sub, err := tx.LockSubmission(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load submission %d: %w", id, err)
	}
	if sub == nil {
		return nil, apperr.NotFound("Submission not found")
	}
	if sub.Status != models.SubmissionPending {
		return nil, apperr.InvalidState(fmt.Sprintf("Submission has already been %s", sub.Status))
	}
	return sub, nil
}

// resolveCreator uses CreatorID as given, without matching it against the submitted
// creator name, and otherwise creates NewCreator under a fresh slug.
func (s *Service) resolveCreator(ctx context.Context, tx Tx, req Request) (int64, error) {
	if req.CreatorID != nil {
		return *req.CreatorID, nil
	}
	if req.NewCreator == nil {
		return 0, apperr.Validation("Creator information required")
	}
	name := strings.TrimSpace(req.NewCreator.Name)
	if name == "" {
		return 0, apperr.ValidationFields("Creator information required", map[string][]string{
			"newCreator.name": {"Creator name is required"},
		})
	}

	creator := models.Creator{
		Name:       name,
		WebsiteURL: strings.TrimSpace(req.NewCreator.WebsiteURL),
		Bio:        strings.TrimSpace(req.NewCreator.Bio),
	}
	base := slug.MakeOr(name, "creator")
	if _, err := slug.Claim(ctx, base, func(ctx context.Context, candidate string) (bool, error) {
		creator.Slug = candidate
		return tx.InsertCreator(ctx, &creator)
	}); err != nil {
		return 0, slugError("creator", err)
	}
	s.logger.Debug("creator created during approval", zap.Int64("creator_id", creator.ID), zap.String("slug", creator.Slug))
	return creator.ID, nil
}

func resolveCategory(ctx context.Context, tx Tx, categorySlug string) (*models.Category, error) {
	categorySlug = strings.TrimSpace(categorySlug)
	if categorySlug == "" {
		return nil, apperr.ValidationFields("Category is required", map[string][]string{
			"categorySlug": {"Category is required"},
		})
	}
	category, err := tx.CategoryBySlug(ctx, categorySlug)
	if err != nil {
		return nil, fmt.Errorf("load category %q: %w", categorySlug, err)
	}
	if category == nil {
		return nil, apperr.NotFound("Category not found: %s", categorySlug)
	}
	return category, nil
}

func buildResource(sub *models.PendingSubmission, req Request, creatorID, categoryID int64) models.Resource {
	r := models.Resource{
		Title:       sub.Title,
		Description: sub.Description,
		URL:         sub.URL,
		Type:        sub.Type,
		Price:       sub.Price,
		ImageURL:    sub.ImageURL,
		CreatorID:   creatorID,
		CategoryID:  categoryID,
		IsFeatured:  req.IsFeatured,
		Metadata:    sub.Metadata,
	}
	if req.Title != nil && strings.TrimSpace(*req.Title) != "" {
		r.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		r.Description = *req.Description
	}
	if req.Price != nil && strings.TrimSpace(*req.Price) != "" {
		r.Price = strings.TrimSpace(*req.Price)
	}
	if r.Price == "" {
		r.Price = models.DefaultSubmissionPrice
	}
	if req.ImageURL.Set {
		r.ImageURL = ""
		if req.ImageURL.Value != nil {
			r.ImageURL = *req.ImageURL.Value
		}
	}
	return r
}

func slugError(kind string, err error) error {
	if errors.Is(err, slug.ErrExhausted) {
		return apperr.Conflict(fmt.Sprintf("Could not find a free %s slug", kind), err)
	}
	return err
}

// afterPublish runs once the transaction has committed. Its failures never undo the approval.
func (s *Service) afterPublish(ctx context.Context, r *models.Resource) {
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx); err != nil {
			s.logger.Warn("catalog cache invalidation failed", zap.Error(err))
		}
	}
	if s.images != nil && r.ImageURL != "" {
		payload := queue.MirrorImagePayload{ResourceID: r.ID, ResourceSlug: r.Slug, SourceURL: r.ImageURL}
		if err := s.images.EnqueueMirrorImage(ctx, payload); err != nil {
			s.logger.Warn("enqueue image mirror failed", zap.Int64("resource_id", r.ID), zap.Error(err))
		}
	}
}
