package submissions

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/curricula/backend/internal/apperr"
	"github.com/curricula/backend/internal/models"
	"github.com/curricula/backend/pkg/database"
)

// SelectColumns is the column list ScanSubmission expects, in order.
const SelectColumns = `id, title, COALESCE(description,''), url, type::text, COALESCE(price,''), COALESCE(image_url,''),
	creator_name, COALESCE(creator_url,''), suggested_category, suggested_tags, metadata, status::text,
	review_notes, reviewed_at, created_at, updated_at`

// ScanSubmission reads one row selected with SelectColumns.
func ScanSubmission(row pgx.Row) (*models.PendingSubmission, error) {
	var (
		s                models.PendingSubmission
		typ, status      string
		tagsRaw, metaRaw []byte
	)
	err := row.Scan(&s.ID, &s.Title, &s.Description, &s.URL, &typ, &s.Price, &s.ImageURL,
		&s.CreatorName, &s.CreatorURL, &s.SuggestedCategory, &tagsRaw, &metaRaw, &status,
		&s.ReviewNotes, &s.ReviewedAt, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	s.Type = models.ResourceType(typ)
	s.Status = models.SubmissionStatus(status)
	s.SuggestedTags = []string{}
	if len(tagsRaw) > 0 {
		if err := json.Unmarshal(tagsRaw, &s.SuggestedTags); err != nil {
			return nil, fmt.Errorf("decode suggested_tags: %w", err)
		}
	}
	if s.Metadata, err = models.DecodeMetadata(metaRaw); err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}
	return &s, nil
}

// Repository handles pending submission persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a submissions repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a pending submission and returns its id.
func (r *Repository) Create(ctx context.Context, s *models.PendingSubmission) (int64, error) {
	const q = `INSERT INTO pending_submissions
		(title, description, url, type, price, image_url, creator_name, creator_url, suggested_category, suggested_tags, metadata)
		VALUES ($1, NULLIF($2,''), $3, $4::text::resource_type, COALESCE(NULLIF($5,''), 'Unknown'), NULLIF($6,''), $7, NULLIF($8,''), $9, $10, $11)
		RETURNING id`
	tags := s.SuggestedTags
	if tags == nil {
		tags = []string{}
	}
	tagsRaw, err := json.Marshal(tags)
	if err != nil {
		return 0, fmt.Errorf("encode suggested_tags: %w", err)
	}
	metaRaw, err := models.EncodeMetadata(s.Metadata)
	if err != nil {
		return 0, fmt.Errorf("encode metadata: %w", err)
	}
	var id int64
	err = r.pool.QueryRow(ctx, q, s.Title, s.Description, s.URL, string(s.Type), s.Price, s.ImageURL,
		s.CreatorName, s.CreatorURL, s.SuggestedCategory, tagsRaw, metaRaw).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert submission: %w", err)
	}
	return id, nil
}

// GetByID returns a submission in any state.
func (r *Repository) GetByID(ctx context.Context, id int64) (*models.PendingSubmission, error) {
	q := `SELECT ` + SelectColumns + ` FROM pending_submissions WHERE id = $1`
	s, err := ScanSubmission(r.pool.QueryRow(ctx, q, id))
	if database.IsNoRows(err) {
		return nil, apperr.NotFound("Submission not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get submission %d: %w", id, err)
	}
	return s, nil
}

// ListPending returns submissions awaiting review, newest first.
func (r *Repository) ListPending(ctx context.Context) ([]models.PendingSubmission, error) {
	q := `SELECT ` + SelectColumns + ` FROM pending_submissions WHERE status = 'pending' ORDER BY created_at DESC, id DESC`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list pending submissions: %w", err)
	}
	defer rows.Close()
	list := []models.PendingSubmission{}
	for rows.Next() {
		s, err := ScanSubmission(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *s)
	}
	return list, rows.Err()
}

// CountPending returns the number of submissions awaiting review.
func (r *Repository) CountPending(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM pending_submissions WHERE status = 'pending'`).Scan(&n)
	return n, err
}
