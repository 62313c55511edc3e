package approval

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/curricula/backend/internal/apperr"
	"github.com/curricula/backend/internal/models"
	"github.com/curricula/backend/internal/submissions"
	"github.com/curricula/backend/pkg/database"
)

// Repository is the Postgres Store.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an approval repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// InTx runs fn in one transaction, rolled back if fn fails.
func (r *Repository) InTx(ctx context.Context, fn func(tx Tx) error) error {
	return database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(&pgTx{tx: tx})
	})
}

type pgTx struct {
	tx pgx.Tx
}

func (t *pgTx) LockSubmission(ctx context.Context, id int64) (*models.PendingSubmission, error) {
	q := `SELECT ` + submissions.SelectColumns + ` FROM pending_submissions WHERE id = $1 FOR UPDATE`
	s, err := submissions.ScanSubmission(t.tx.QueryRow(ctx, q, id))
	if database.IsNoRows(err) {
		return nil, nil
	}
	return s, err
}

func (t *pgTx) InsertCreator(ctx context.Context, c *models.Creator) (bool, error) {
	const q = `INSERT INTO creators (name, slug, bio, website_url)
		VALUES ($1, $2, NULLIF($3,''), NULLIF($4,''))
		ON CONFLICT (slug) DO NOTHING
		RETURNING id, created_at, updated_at`
	err := t.tx.QueryRow(ctx, q, c.Name, c.Slug, c.Bio, c.WebsiteURL).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if database.IsNoRows(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("insert creator: %w", err)
	}
	return true, nil
}

func (t *pgTx) CategoryBySlug(ctx context.Context, slug string) (*models.Category, error) {
	const q = `SELECT id, name, slug, COALESCE(description,'') FROM categories WHERE slug = $1`
	var c models.Category
	err := t.tx.QueryRow(ctx, q, slug).Scan(&c.ID, &c.Name, &c.Slug, &c.Description)
	if database.IsNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (t *pgTx) InsertResource(ctx context.Context, r *models.Resource) (bool, error) {
	const q = `INSERT INTO resources
		(title, slug, description, url, type, price, image_url, creator_id, category_id, is_featured, metadata)
		VALUES ($1, $2, NULLIF($3,''), $4, $5::text::resource_type, $6, NULLIF($7,''), $8, $9, $10, $11)
		ON CONFLICT (slug) DO NOTHING
		RETURNING id, created_at, updated_at`
	meta, err := models.EncodeMetadata(r.Metadata)
	if err != nil {
		return false, fmt.Errorf("encode metadata: %w", err)
	}
	err = t.tx.QueryRow(ctx, q, r.Title, r.Slug, r.Description, r.URL, string(r.Type), r.Price, r.ImageURL,
		r.CreatorID, r.CategoryID, r.IsFeatured, meta).Scan(&r.ID, &r.CreatedAt, &r.UpdatedAt)
	if database.IsNoRows(err) {
		return false, nil
	}
	if database.IsForeignKeyViolation(err) {
		return false, apperr.Conflict("Creator or category does not exist", err)
	}
	if err != nil {
		return false, fmt.Errorf("insert resource: %w", err)
	}
	return true, nil
}

func (t *pgTx) LinkTags(ctx context.Context, resourceID int64, tagIDs []int64) error {
	const q = `INSERT INTO resource_tags (resource_id, tag_id)
		SELECT $1, tag_id FROM unnest($2::bigint[]) AS tag_id
		ON CONFLICT DO NOTHING`
	_, err := t.tx.Exec(ctx, q, resourceID, tagIDs)
	if database.IsForeignKeyViolation(err) {
		return apperr.Conflict("One or more tags do not exist", err)
	}
	if err != nil {
		return fmt.Errorf("link tags: %w", err)
	}
	return nil
}

func (t *pgTx) MarkReviewed(ctx context.Context, id int64, status models.SubmissionStatus, notes *string, at time.Time) error {
	const q = `UPDATE pending_submissions
		SET status = $2::text::submission_status, review_notes = $3, reviewed_at = $4, updated_at = $4
		WHERE id = $1`
	tag, err := t.tx.Exec(ctx, q, id, string(status), notes, at)
	if err != nil {
		return fmt.Errorf("update submission %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Submission not found")
	}
	return nil
}
