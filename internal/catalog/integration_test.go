//go:build integration
// +build integration

package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curricula/backend/internal/testutil"
)

func TestListResourcesOrderingAndFilters(t *testing.T) {
	ctx := context.Background()
	pool := testutil.NewPool(t)
	testutil.Exec(t, pool, `INSERT INTO categories (id, name, slug) VALUES (1, 'Productivity', 'productivity'), (2, 'Design', 'design')`)
	testutil.Exec(t, pool, `INSERT INTO creators (id, name, slug) VALUES (1, 'Cal Newport', 'cal-newport')`)
	testutil.Exec(t, pool, `INSERT INTO tags (id, name, slug) VALUES (1, 'Focus', 'focus')`)
	testutil.Exec(t, pool, `INSERT INTO resources (id, title, slug, url, type, creator_id, category_id, is_featured, created_at) VALUES
		(1, 'Old', 'old', 'https://x.dev/1', 'BOOK', 1, 1, false, NOW() - INTERVAL '3 days'),
		(2, 'New', 'new', 'https://x.dev/2', 'BOOK', 1, 1, false, NOW() - INTERVAL '1 day'),
		(3, 'Featured', 'featured', 'https://x.dev/3', 'COURSE', 1, 1, true, NOW() - INTERVAL '10 days'),
		(4, 'Elsewhere', 'elsewhere', 'https://x.dev/4', 'ARTICLE', 1, 2, true, NOW())`)
	testutil.Exec(t, pool, `INSERT INTO resource_tags (resource_id, tag_id) VALUES (1, 1), (4, 1)`)

	repo := NewRepository(pool)

	list, err := repo.ListResources(ctx, Filter{CategorySlug: "productivity"})
	require.NoError(t, err)
	var slugs []string
	for _, r := range list {
		slugs = append(slugs, r.Slug)
		assert.Equal(t, int64(1), r.CategoryID)
	}
	assert.Equal(t, []string{"featured", "new", "old"}, slugs)

	list, err = repo.ListResources(ctx, Filter{TagSlug: "focus"})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "elsewhere", list[0].Slug)

	list, err = repo.ListResources(ctx, Filter{CategorySlug: "productivity", TagSlug: "focus"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "old", list[0].Slug)

	list, err = repo.ListResources(ctx, Filter{CategorySlug: "cooking"})
	require.NoError(t, err)
	assert.Empty(t, list)

	detail, err := repo.ResourceBySlug(ctx, "old")
	require.NoError(t, err)
	require.NotNil(t, detail)
	assert.Equal(t, "Cal Newport", detail.Creator.Name)
	assert.Len(t, detail.Tags, 1)

	related, err := repo.RelatedResources(ctx, 1, 3, RelatedLimit)
	require.NoError(t, err)
	assert.Len(t, related, 2)

	counts, err := repo.CategoriesWithCounts(ctx)
	require.NoError(t, err)
	require.Len(t, counts, 2)
	assert.Equal(t, "Design", counts[0].Name)
	assert.Equal(t, 1, counts[0].ResourceCount)
	assert.Equal(t, 3, counts[1].ResourceCount)

	c, err := repo.CreatorByName(ctx, "CAL NEWPORT")
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, "cal-newport", c.Slug)

	exists, err := repo.ResourceSlugExists(ctx, "new")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, repo.SetImageURL(ctx, 2, "https://bucket.s3.us-east-1.amazonaws.com/resources/new.png"))
	assert.Error(t, repo.SetImageURL(ctx, 99, "x"))
}
