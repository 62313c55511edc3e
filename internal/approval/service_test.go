package approval

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curricula/backend/internal/apperr"
	"github.com/curricula/backend/internal/models"
)

var fixedNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

type harness struct {
	store  *memStore
	cache  *recordingCache
	images *recordingImages
	svc    *Service
}

func newHarness() *harness {
	h := &harness{store: newMemStore(), cache: &recordingCache{}, images: &recordingImages{}}
	h.svc = NewService(h.store, h.cache, h.images, nil)
	h.svc.now = func() time.Time { return fixedNow }
	return h
}

func (h *harness) addSubmission(s models.PendingSubmission) int64 {
	if s.ID == 0 {
		s.ID = int64(len(h.store.submissions) + 1)
	}
	if s.Status == "" {
		s.Status = models.SubmissionPending
	}
	h.store.submissions[s.ID] = s
	return s.ID
}

func deepWork() models.PendingSubmission {
	return models.PendingSubmission{
		Title:             "Deep Work",
		URL:               "https://example.com/deep-work",
		Type:              models.ResourceTypeBook,
		CreatorName:       "Cal Newport",
		SuggestedCategory: "Productivity",
		Metadata:          &models.Metadata{SourceAgent: "scout", ConfidenceScore: ptr(0.8)},
	}
}

func TestApproveWithNewCreator(t *testing.T) {
	h := newHarness()
	id := h.addSubmission(deepWork())

	res, err := h.svc.Approve(context.Background(), Request{
		SubmissionID: id,
		NewCreator:   &NewCreator{Name: "Cal Newport"},
		CategorySlug: "productivity",
	})
	require.NoError(t, err)
	assert.Equal(t, "deep-work", res.ResourceSlug)

	require.Len(t, h.store.resources, 1)
	require.Len(t, h.store.creators, 1)
	r := h.store.resources[res.ResourceID]
	var creator models.Creator
	for _, c := range h.store.creators {
		creator = c
	}
	assert.Equal(t, "cal-newport", creator.Slug)
	assert.Equal(t, creator.ID, r.CreatorID)
	assert.Equal(t, int64(1), r.CategoryID)
	assert.Equal(t, models.DefaultSubmissionPrice, r.Price)
	assert.False(t, r.IsFeatured)
	assert.Equal(t, "scout", r.Metadata.SourceAgent)

	sub := h.store.submissions[id]
	assert.Equal(t, models.SubmissionApproved, sub.Status)
	require.NotNil(t, sub.ReviewedAt)
	assert.Equal(t, fixedNow, *sub.ReviewedAt)
	assert.Equal(t, 1, h.cache.calls)
	assert.Empty(t, h.images.jobs)
}

func TestApproveWithExistingCreatorCreatesNoCreator(t *testing.T) {
	h := newHarness()
	h.store.creators[7] = models.Creator{ID: 7, Name: "Someone Else", Slug: "someone-else"}
	id := h.addSubmission(deepWork())

	res, err := h.svc.Approve(context.Background(), Request{
		SubmissionID: id,
		CreatorID:    ptr(int64(7)),
		NewCreator:   &NewCreator{Name: "Ignored"},
		CategorySlug: "productivity",
		TagIDs:       []int64{1, 2},
		IsFeatured:   true,
	})
	require.NoError(t, err)
	assert.Len(t, h.store.creators, 1)
	assert.Equal(t, int64(7), h.store.resources[res.ResourceID].CreatorID)
	assert.True(t, h.store.resources[res.ResourceID].IsFeatured)
	assert.Len(t, h.store.links, 2)
}

func TestApproveOverrides(t *testing.T) {
	h := newHarness()
	sub := deepWork()
	sub.Description = "original"
	sub.Price = "$20"
	sub.ImageURL = "https://example.com/cover.jpg"
	id := h.addSubmission(sub)

	res, err := h.svc.Approve(context.Background(), Request{
		SubmissionID: id,
		Title:        ptr("Deep Work (Revised)"),
		Description:  ptr(""),
		Price:        ptr("Free"),
		ImageURL:     NullableString{Set: true, Value: ptr("https://cdn.example.com/new.png")},
		NewCreator:   &NewCreator{Name: "Cal Newport"},
		CategorySlug: "design",
	})
	require.NoError(t, err)

	r := h.store.resources[res.ResourceID]
	assert.Equal(t, "deep-work-revised", r.Slug)
	assert.Equal(t, "Deep Work (Revised)", r.Title)
	assert.Equal(t, "", r.Description)
	assert.Equal(t, "Free", r.Price)
	assert.Equal(t, "https://cdn.example.com/new.png", r.ImageURL)
	assert.Equal(t, int64(2), r.CategoryID)

	require.Len(t, h.images.jobs, 1)
	assert.Equal(t, res.ResourceID, h.images.jobs[0].ResourceID)
	assert.Equal(t, "deep-work-revised", h.images.jobs[0].ResourceSlug)
}

func TestApproveImageURLStates(t *testing.T) {
	tests := []struct {
		name  string
		image NullableString
		want  string
	}{
		{"absent keeps submission image", NullableString{}, "https://example.com/cover.jpg"},
		{"null clears", NullableString{Set: true}, ""},
		{"value replaces", NullableString{Set: true, Value: ptr("https://x.dev/a.png")}, "https://x.dev/a.png"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness()
			sub := deepWork()
			sub.ImageURL = "https://example.com/cover.jpg"
			id := h.addSubmission(sub)

			res, err := h.svc.Approve(context.Background(), Request{
				SubmissionID: id,
				ImageURL:     tt.image,
				NewCreator:   &NewCreator{Name: "Cal Newport"},
				CategorySlug: "productivity",
			})
			require.NoError(t, err)
			assert.Equal(t, tt.want, h.store.resources[res.ResourceID].ImageURL)
		})
	}
}

func TestApproveSlugCollisions(t *testing.T) {
	h := newHarness()
	h.store.creators[1] = models.Creator{ID: 1, Name: "Cal Newport", Slug: "cal-newport"}
	h.store.resources[1] = models.Resource{ID: 1, Slug: "deep-work", CreatorID: 1}
	h.store.resources[2] = models.Resource{ID: 2, Slug: "deep-work-1", CreatorID: 1}
	id := h.addSubmission(deepWork())

	res, err := h.svc.Approve(context.Background(), Request{
		SubmissionID: id,
		NewCreator:   &NewCreator{Name: "Cal Newport"},
		CategorySlug: "productivity",
	})
	require.NoError(t, err)
	assert.Equal(t, "deep-work-2", res.ResourceSlug)

	slugs := map[string]bool{}
	for _, c := range h.store.creators {
		slugs[c.Slug] = true
	}
	assert.True(t, slugs["cal-newport-1"])
}

func TestApproveUntitledFallback(t *testing.T) {
	h := newHarness()
	sub := deepWork()
	sub.Title = "???"
	id := h.addSubmission(sub)

	res, err := h.svc.Approve(context.Background(), Request{
		SubmissionID: id,
		NewCreator:   &NewCreator{Name: "!!!"},
		CategorySlug: "productivity",
	})
	require.NoError(t, err)
	assert.Equal(t, "untitled", res.ResourceSlug)
	for _, c := range h.store.creators {
		assert.Equal(t, "creator", c.Slug)
	}
}

func TestApproveFailuresWriteNothing(t *testing.T) {
	tests := []struct {
		name   string
		status models.SubmissionStatus
		req    func(id int64) Request
		kind   apperr.Kind
	}{
		{
			name:   "missing submission",
			status: models.SubmissionPending,
			req: func(int64) Request {
				return Request{SubmissionID: 999, NewCreator: &NewCreator{Name: "Cal"}, CategorySlug: "productivity"}
			},
			kind: apperr.KindNotFound,
		},
		{
			name:   "already approved",
			status: models.SubmissionApproved,
			req: func(id int64) Request {
				return Request{SubmissionID: id, NewCreator: &NewCreator{Name: "Cal"}, CategorySlug: "productivity"}
			},
			kind: apperr.KindInvalidState,
		},
		{
			name:   "already rejected",
			status: models.SubmissionRejected,
			req: func(id int64) Request {
				return Request{SubmissionID: id, NewCreator: &NewCreator{Name: "Cal"}, CategorySlug: "productivity"}
			},
			kind: apperr.KindInvalidState,
		},
		{
			name:   "no creator information",
			status: models.SubmissionPending,
			req: func(id int64) Request {
				return Request{SubmissionID: id, CategorySlug: "productivity"}
			},
			kind: apperr.KindValidation,
		},
		{
			name:   "blank creator name",
			status: models.SubmissionPending,
			req: func(id int64) Request {
				return Request{SubmissionID: id, NewCreator: &NewCreator{Name: "  "}, CategorySlug: "productivity"}
			},
			kind: apperr.KindValidation,
		},
		{
			name:   "empty category",
			status: models.SubmissionPending,
			req: func(id int64) Request {
				return Request{SubmissionID: id, NewCreator: &NewCreator{Name: "Cal"}}
			},
			kind: apperr.KindValidation,
		},
		{
			name:   "unknown category rolls back new creator",
			status: models.SubmissionPending,
			req: func(id int64) Request {
				return Request{SubmissionID: id, NewCreator: &NewCreator{Name: "Cal"}, CategorySlug: "cooking"}
			},
			kind: apperr.KindNotFound,
		},
		{
			name:   "dangling tag id",
			status: models.SubmissionPending,
			req: func(id int64) Request {
				return Request{SubmissionID: id, NewCreator: &NewCreator{Name: "Cal"}, CategorySlug: "productivity", TagIDs: []int64{1, 404}}
			},
			kind: apperr.KindConflict,
		},
		{
			name:   "dangling creator id",
			status: models.SubmissionPending,
			req: func(id int64) Request {
				return Request{SubmissionID: id, CreatorID: ptr(int64(404)), CategorySlug: "productivity"}
			},
			kind: apperr.KindConflict,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness()
			sub := deepWork()
			sub.Status = tt.status
			id := h.addSubmission(sub)

			_, err := h.svc.Approve(context.Background(), tt.req(id))
			require.Error(t, err)
			assert.Equal(t, tt.kind, apperr.KindOf(err), err.Error())

			assert.Empty(t, h.store.resources)
			assert.Empty(t, h.store.creators)
			assert.Empty(t, h.store.links)
			assert.Equal(t, tt.status, h.store.submissions[id].Status)
			assert.Zero(t, h.cache.calls)
			assert.Zero(t, h.store.commits)
		})
	}
}

func TestReject(t *testing.T) {
	tests := []struct {
		name  string
		notes *string
	}{
		{"with notes", ptr("  duplicate of #12  ")},
		{"without notes", nil},
		{"empty notes", ptr("")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness()
			id := h.addSubmission(deepWork())

			require.NoError(t, h.svc.Reject(context.Background(), id, tt.notes))

			sub := h.store.submissions[id]
			assert.Equal(t, models.SubmissionRejected, sub.Status)
			assert.Equal(t, tt.notes, sub.ReviewNotes)
			require.NotNil(t, sub.ReviewedAt)
			assert.Empty(t, h.store.resources)
		})
	}
}

func TestRejectRequiresPending(t *testing.T) {
	h := newHarness()
	sub := deepWork()
	sub.Status = models.SubmissionApproved
	id := h.addSubmission(sub)

	err := h.svc.Reject(context.Background(), id, ptr("late"))
	assert.True(t, apperr.Is(err, apperr.KindInvalidState))
	assert.Equal(t, models.SubmissionApproved, h.store.submissions[id].Status)
	assert.Nil(t, h.store.submissions[id].ReviewNotes)

	err = h.svc.Reject(context.Background(), 999, nil)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestApproveThenRejectIsRefused(t *testing.T) {
	h := newHarness()
	id := h.addSubmission(deepWork())

	_, err := h.svc.Approve(context.Background(), Request{SubmissionID: id, NewCreator: &NewCreator{Name: "Cal Newport"}, CategorySlug: "productivity"})
	require.NoError(t, err)

	err = h.svc.Reject(context.Background(), id, nil)
	assert.True(t, apperr.Is(err, apperr.KindInvalidState))
	_, err = h.svc.Approve(context.Background(), Request{SubmissionID: id, NewCreator: &NewCreator{Name: "Cal Newport"}, CategorySlug: "productivity"})
	assert.True(t, apperr.Is(err, apperr.KindInvalidState))
	assert.Len(t, h.store.resources, 1)
}
