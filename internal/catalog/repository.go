// Package catalog serves published resources and the reference data around them.
package catalog

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/curricula/backend/internal/models"
	"github.com/curricula/backend/pkg/database"
)

// Filter narrows ListResources. Empty fields match everything.
type Filter struct {
	CategorySlug string `json:"category,omitempty"`
	TagSlug      string `json:"tag,omitempty"`
}

// RelatedLimit is the number of related resources shown on a detail page.
const RelatedLimit = 4

const listingSelect = `SELECT r.id, r.title, r.slug, COALESCE(r.description,''), r.url, r.type::text, r.price,
	COALESCE(r.image_url,''), r.creator_id, r.category_id, r.is_featured, r.metadata, r.created_at, r.updated_at,
	c.id, c.name, c.slug, COALESCE(c.bio,''), COALESCE(c.avatar_url,''), COALESCE(c.website_url,''),
	COALESCE(c.twitter_url,''), c.created_at, c.updated_at,
	cat.id, cat.name, cat.slug, COALESCE(cat.description,'')
	FROM resources r
	JOIN creators c ON c.id = r.creator_id
	JOIN categories cat ON cat.id = r.category_id`

const listingOrder = ` ORDER BY r.is_featured DESC, r.created_at DESC, r.id DESC`

const creatorColumns = `id, name, slug, COALESCE(bio,''), COALESCE(avatar_url,''), COALESCE(website_url,''),
	COALESCE(twitter_url,''), created_at, updated_at`

// Repository runs read-only catalog queries.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a catalog repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanListing(row pgx.Row) (*models.ResourceListing, error) {
	var (
		l    models.ResourceListing
		typ  string
		meta []byte
	)
	err := row.Scan(&l.ID, &l.Title, &l.Slug, &l.Description, &l.URL, &typ, &l.Price,
		&l.ImageURL, &l.CreatorID, &l.CategoryID, &l.IsFeatured, &meta, &l.CreatedAt, &l.UpdatedAt,
		&l.Creator.ID, &l.Creator.Name, &l.Creator.Slug, &l.Creator.Bio, &l.Creator.AvatarURL, &l.Creator.WebsiteURL,
		&l.Creator.TwitterURL, &l.Creator.CreatedAt, &l.Creator.UpdatedAt,
		&l.Category.ID, &l.Category.Name, &l.Category.Slug, &l.Category.Description)
	if err != nil {
		return nil, err
	}
	l.Type = models.ResourceType(typ)
	if l.Metadata, err = models.DecodeMetadata(meta); err != nil {
		return nil, fmt.Errorf("decode metadata of resource %d: %w", l.ID, err)
	}
	return &l, nil
}

func (r *Repository) listings(ctx context.Context, q string, args ...any) ([]models.ResourceListing, error) {
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := []models.ResourceListing{}
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *l)
	}
	return list, rows.Err()
}

// ListResources returns resources matching f, featured first then newest.
func (r *Repository) ListResources(ctx context.Context, f Filter) ([]models.ResourceListing, error) {
	q := listingSelect + `
	WHERE ($1::text = '' OR cat.slug = $1)
	  AND ($2::text = '' OR EXISTS (
		SELECT 1 FROM resource_tags rt JOIN tags t ON t.id = rt.tag_id
		WHERE rt.resource_id = r.id AND t.slug = $2))` + listingOrder
	list, err := r.listings(ctx, q, f.CategorySlug, f.TagSlug)
	if err != nil {
		return nil, fmt.Errorf("list resources: %w", err)
	}
	return list, nil
}

// ResourceBySlug returns a resource with its creator, category and tags, or nil.
func (r *Repository) ResourceBySlug(ctx context.Context, slug string) (*models.ResourceDetail, error) {
	l, err := scanListing(r.pool.QueryRow(ctx, listingSelect+` WHERE r.slug = $1`, slug))
	if database.IsNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get resource %q: %w", slug, err)
	}
	tags, err := r.TagsForResource(ctx, l.ID)
	if err != nil {
		return nil, err
	}
	return &models.ResourceDetail{ResourceListing: *l, Tags: tags}, nil
}

// TagsForResource returns the tags attached to a resource, by name.
func (r *Repository) TagsForResource(ctx context.Context, resourceID int64) ([]models.Tag, error) {
	rows, err := r.pool.Query(ctx, `SELECT t.id, t.name, t.slug FROM tags t
		JOIN resource_tags rt ON rt.tag_id = t.id
		WHERE rt.resource_id = $1 ORDER BY t.name`, resourceID)
	if err != nil {
		return nil, fmt.Errorf("tags for resource %d: %w", resourceID, err)
	}
	defer rows.Close()
	tags := []models.Tag{}
	for rows.Next() {
		var t models.Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Slug); err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

// RelatedResources returns up to limit other resources in the same category.
func (r *Repository) RelatedResources(ctx context.Context, categoryID, excludeID int64, limit int) ([]models.ResourceListing, error) {
	q := listingSelect + ` WHERE r.category_id = $1 AND r.id <> $2` + listingOrder + ` LIMIT $3`
	list, err := r.listings(ctx, q, categoryID, excludeID, limit)
	if err != nil {
		return nil, fmt.Errorf("related resources: %w", err)
	}
	return list, nil
}

// ResourcesByCreator returns a creator's resources, featured first then newest.
func (r *Repository) ResourcesByCreator(ctx context.Context, creatorID int64) ([]models.ResourceListing, error) {
	list, err := r.listings(ctx, listingSelect+` WHERE r.creator_id = $1`+listingOrder, creatorID)
	if err != nil {
		return nil, fmt.Errorf("resources by creator %d: %w", creatorID, err)
	}
	return list, nil
}

func scanCreator(row pgx.Row) (*models.Creator, error) {
	var c models.Creator
	err := row.Scan(&c.ID, &c.Name, &c.Slug, &c.Bio, &c.AvatarURL, &c.WebsiteURL, &c.TwitterURL, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// CreatorBySlug returns a creator or nil.
func (r *Repository) CreatorBySlug(ctx context.Context, slug string) (*models.Creator, error) {
	c, err := scanCreator(r.pool.QueryRow(ctx, `SELECT `+creatorColumns+` FROM creators WHERE slug = $1`, slug))
	if database.IsNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get creator %q: %w", slug, err)
	}
	return c, nil
}

// CreatorByName returns the first creator whose name equals name ignoring case, or nil.
func (r *Repository) CreatorByName(ctx context.Context, name string) (*models.Creator, error) {
	c, err := scanCreator(r.pool.QueryRow(ctx,
		`SELECT `+creatorColumns+` FROM creators WHERE lower(name) = lower($1) ORDER BY id LIMIT 1`, name))
	if database.IsNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find creator by name: %w", err)
	}
	return c, nil
}

// ListCreators returns every creator by name.
func (r *Repository) ListCreators(ctx context.Context) ([]models.Creator, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+creatorColumns+` FROM creators ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("list creators: %w", err)
	}
	defer rows.Close()
	list := []models.Creator{}
	for rows.Next() {
		c, err := scanCreator(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *c)
	}
	return list, rows.Err()
}

// CategoryBySlug returns a category or nil.
func (r *Repository) CategoryBySlug(ctx context.Context, slug string) (*models.Category, error) {
	var c models.Category
	err := r.pool.QueryRow(ctx, `SELECT id, name, slug, COALESCE(description,'') FROM categories WHERE slug = $1`, slug).
		Scan(&c.ID, &c.Name, &c.Slug, &c.Description)
	if database.IsNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get category %q: %w", slug, err)
	}
	return &c, nil
}

// ListCategories returns every category by name.
func (r *Repository) ListCategories(ctx context.Context) ([]models.Category, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, slug, COALESCE(description,'') FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()
	list := []models.Category{}
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.Description); err != nil {
			return nil, err
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

// CategoriesWithCounts returns every category with its number of resources, by name.
func (r *Repository) CategoriesWithCounts(ctx context.Context) ([]models.CategoryCount, error) {
	rows, err := r.pool.Query(ctx, `SELECT cat.id, cat.name, cat.slug, COALESCE(cat.description,''), COUNT(r.id)::int
		FROM categories cat LEFT JOIN resources r ON r.category_id = cat.id
		GROUP BY cat.id ORDER BY cat.name`)
	if err != nil {
		return nil, fmt.Errorf("categories with counts: %w", err)
	}
	defer rows.Close()
	list := []models.CategoryCount{}
	for rows.Next() {
		var c models.CategoryCount
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.ResourceCount); err != nil {
			return nil, err
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

// ListTags returns every tag by name.
func (r *Repository) ListTags(ctx context.Context) ([]models.Tag, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, slug FROM tags ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	defer rows.Close()
	list := []models.Tag{}
	for rows.Next() {
		var t models.Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Slug); err != nil {
			return nil, err
		}
		list = append(list, t)
	}
	return list, rows.Err()
}

// TagsWithCounts returns tags used by at least one resource, most used first.
func (r *Repository) TagsWithCounts(ctx context.Context) ([]models.TagCount, error) {
	rows, err := r.pool.Query(ctx, `SELECT t.id, t.name, t.slug, COUNT(rt.resource_id)::int AS n
		FROM tags t JOIN resource_tags rt ON rt.tag_id = t.id
		GROUP BY t.id ORDER BY n DESC, t.name`)
	if err != nil {
		return nil, fmt.Errorf("tags with counts: %w", err)
	}
	defer rows.Close()
	list := []models.TagCount{}
	for rows.Next() {
		var t models.TagCount
		if err := rows.Scan(&t.ID, &t.Name, &t.Slug, &t.ResourceCount); err != nil {
			return nil, err
		}
		list = append(list, t)
	}
	return list, rows.Err()
}

// ResourceSlugExists reports whether a resource already uses slug.
func (r *Repository) ResourceSlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM resources WHERE slug = $1)`, slug).Scan(&exists)
	return exists, err
}

// SetImageURL points a resource at a mirrored copy of its image.
func (r *Repository) SetImageURL(ctx context.Context, resourceID int64, imageURL string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE resources SET image_url = $2, updated_at = NOW() WHERE id = $1`, resourceID, imageURL)
	if err != nil {
		return fmt.Errorf("set image url of resource %d: %w", resourceID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("resource %d: %w", resourceID, pgx.ErrNoRows)
	}
	return nil
}
