package approval

import (
	"context"
	"time"

	"github.com/curricula/backend/internal/apperr"
	"github.com/curricula/backend/internal/models"
	"github.com/curricula/backend/pkg/queue"
)

// memStore is an in-memory Store whose transactions restore a snapshot on error.
type memStore struct {
	submissions map[int64]models.PendingSubmission
	creators    map[int64]models.Creator
	categories  map[int64]models.Category
	tags        map[int64]models.Tag
	resources   map[int64]models.Resource
	links       map[models.ResourceTag]bool
	nextID      int64
	commits     int
}

func newMemStore() *memStore {
	return &memStore{
		submissions: map[int64]models.PendingSubmission{},
		creators:    map[int64]models.Creator{},
		categories: map[int64]models.Category{
			1: {ID: 1, Name: "Productivity", Slug: "productivity"},
			2: {ID: 2, Name: "Design", Slug: "design"},
		},
		tags: map[int64]models.Tag{
			1: {ID: 1, Name: "Focus", Slug: "focus"},
			2: {ID: 2, Name: "Habits", Slug: "habits"},
		},
		resources: map[int64]models.Resource{},
		links:     map[models.ResourceTag]bool{},
		nextID:    100,
	}
}

func copyMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s *memStore) snapshot() *memStore {
	return &memStore{
		submissions: copyMap(s.submissions),
		creators:    copyMap(s.creators),
		categories:  copyMap(s.categories),
		tags:        copyMap(s.tags),
		resources:   copyMap(s.resources),
		links:       copyMap(s.links),
		nextID:      s.nextID,
		commits:     s.commits,
	}
}

func (s *memStore) InTx(ctx context.Context, fn func(tx Tx) error) error {
	saved := s.snapshot()
	if err := fn(s); err != nil {
		*s = *saved
		return err
	}
	s.commits++
	return nil
}

func (s *memStore) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *memStore) LockSubmission(_ context.Context, id int64) (*models.PendingSubmission, error) {
	sub, ok := s.submissions[id]
	if !ok {
		return nil, nil
	}
	return &sub, nil
}

func (s *memStore) InsertCreator(_ context.Context, c *models.Creator) (bool, error) {
	for _, existing := range s.creators {
		if existing.Slug == c.Slug {
			return false, nil
		}
	}
	c.ID = s.id()
	s.creators[c.ID] = *c
	return true, nil
}

func (s *memStore) CategoryBySlug(_ context.Context, slug string) (*models.Category, error) {
	for _, c := range s.categories {
		if c.Slug == slug {
			return &c, nil
		}
	}
	return nil, nil
}

func (s *memStore) InsertResource(_ context.Context, r *models.Resource) (bool, error) {
	for _, existing := range s.resources {
		if existing.Slug == r.Slug {
			return false, nil
		}
	}
	if _, ok := s.creators[r.CreatorID]; !ok {
		return false, apperr.Conflict("Creator or category does not exist", nil)
	}
	r.ID = s.id()
	s.resources[r.ID] = *r
	return true, nil
}

func (s *memStore) LinkTags(_ context.Context, resourceID int64, tagIDs []int64) error {
	for _, id := range tagIDs {
		if _, ok := s.tags[id]; !ok {
			return apperr.Conflict("One or more tags do not exist", nil)
		}
		s.links[models.ResourceTag{ResourceID: resourceID, TagID: id}] = true
	}
	return nil
}

func (s *memStore) MarkReviewed(_ context.Context, id int64, status models.SubmissionStatus, notes *string, at time.Time) error {
	sub, ok := s.submissions[id]
	if !ok {
		return apperr.NotFound("Submission not found")
	}
	sub.Status = status
	sub.ReviewNotes = notes
	sub.ReviewedAt = &at
	sub.UpdatedAt = at
	s.submissions[id] = sub
	return nil
}

type recordingCache struct{ calls int }

func (c *recordingCache) Invalidate(context.Context) error {
	c.calls++
	return nil
}

type recordingImages struct{ jobs []queue.MirrorImagePayload }

func (q *recordingImages) EnqueueMirrorImage(_ context.Context, p queue.MirrorImagePayload) error {
	q.jobs = append(q.jobs, p)
	return nil
}
