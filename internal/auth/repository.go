package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/curricula/backend/internal/apperr"
	"github.com/curricula/backend/internal/models"
	"github.com/curricula/backend/pkg/database"
)

// Repository handles user and session persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an auth repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const userColumns = `id, name, email, email_verified, COALESCE(image,''), role, password_hash, created_at, updated_at`

// UserByEmail returns a user by email, or nil.
func (r *Repository) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email).
		Scan(&u.ID, &u.Name, &u.Email, &u.EmailVerified, &u.Image, &u.Role, &u.Password, &u.CreatedAt, &u.UpdatedAt)
	if database.IsNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return &u, nil
}

// CreateUser inserts a user. A taken email is a Conflict.
func (r *Repository) CreateUser(ctx context.Context, name, email, passwordHash string, role models.Role) (*models.User, error) {
	const q = `INSERT INTO users (name, email, password_hash, role)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + userColumns
	var u models.User
	err := r.pool.QueryRow(ctx, q, name, email, passwordHash, string(role)).
		Scan(&u.ID, &u.Name, &u.Email, &u.EmailVerified, &u.Image, &u.Role, &u.Password, &u.CreatedAt, &u.UpdatedAt)
	if database.IsUniqueViolation(err) {
		return nil, apperr.Conflict(fmt.Sprintf("A user with email %q already exists", email), err)
	}
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &u, nil
}

// CreateSession inserts s and fills its ID and timestamps.
func (r *Repository) CreateSession(ctx context.Context, s *models.Session) error {
	const q = `INSERT INTO sessions (token, user_id, expires_at, ip_address, user_agent)
		VALUES ($1, $2, $3, NULLIF($4,''), NULLIF($5,''))
		RETURNING id, created_at, updated_at`
	err := r.pool.QueryRow(ctx, q, s.Token, s.UserID, s.ExpiresAt, s.IPAddress, s.UserAgent).
		Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// SessionByToken returns a session and its user, or nil, nil when the token is unknown.
func (r *Repository) SessionByToken(ctx context.Context, token string) (*models.Session, *models.User, error) {
	const q = `SELECT s.id, s.token, s.user_id, s.expires_at, COALESCE(s.ip_address,''), COALESCE(s.user_agent,''),
		s.created_at, s.updated_at,
		u.id, u.name, u.email, u.email_verified, COALESCE(u.image,''), u.role, u.password_hash, u.created_at, u.updated_at
		FROM sessions s JOIN users u ON u.id = s.user_id
		WHERE s.token = $1`
	var (
		s models.Session
		u models.User
	)
	err := r.pool.QueryRow(ctx, q, token).Scan(&s.ID, &s.Token, &s.UserID, &s.ExpiresAt, &s.IPAddress, &s.UserAgent,
		&s.CreatedAt, &s.UpdatedAt,
		&u.ID, &u.Name, &u.Email, &u.EmailVerified, &u.Image, &u.Role, &u.Password, &u.CreatedAt, &u.UpdatedAt)
	if database.IsNoRows(err) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("get session: %w", err)
	}
	return &s, &u, nil
}

// ExtendSession moves a session's expiry.
func (r *Repository) ExtendSession(ctx context.Context, id uuid.UUID, expiresAt time.Time) error {
	_, err := r.pool.Exec(ctx, `UPDATE sessions SET expires_at = $2, updated_at = NOW() WHERE id = $1`, id, expiresAt)
	if err != nil {
		return fmt.Errorf("extend session: %w", err)
	}
	return nil
}

// DeleteSession removes a session by token. Unknown tokens are ignored.
func (r *Repository) DeleteSession(ctx context.Context, token string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE token = $1`, token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// DeleteExpiredSessions removes sessions past their expiry and reports how many went.
func (r *Repository) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE expires_at < NOW()`)
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}
