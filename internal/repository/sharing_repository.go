package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/pitchstudio/deck-api/internal/models"
)

// ErrViewLimitReached reports that the conditional view-count increment
// matched no row because the link is exhausted.
var ErrViewLimitReached = errors.New("sharing link view limit reached")

const sharingColumns = "id, project_id, token, permission, expires_at, max_views, view_count, is_active, recipient_email, last_accessed_at, created_at"

// SharingRepository persists sharing links.
type SharingRepository struct {
	db *sqlx.DB
}

// NewSharingRepository constructs the repository.
func NewSharingRepository(db *sqlx.DB) *SharingRepository {
	return &SharingRepository{db: db}
}

// Create inserts a new sharing link row with generated defaults.
func (r *SharingRepository) Create(ctx context.Context, link *models.SharingLink) error {
	if link.ID == "" {
		link.ID = uuid.NewString()
	}
	if link.CreatedAt.IsZero() {
		link.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO sharing_links (id, project_id, token, permission, expires_at, max_views, view_count, is_active, recipient_email, last_accessed_at, created_at)
VALUES (:id, :project_id, :token, :permission, :expires_at, :max_views, :view_count, :is_active, :recipient_email, :last_accessed_at, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, link); err != nil {
		return fmt.Errorf("create sharing link: %w", err)
	}
	return nil
}

// GetByID returns a link row by its identifier.
func (r *SharingRepository) GetByID(ctx context.Context, id string) (*models.SharingLink, error) {
	query := fmt.Sprintf("SELECT %s FROM sharing_links WHERE id = $1", sharingColumns)
	var link models.SharingLink
	if err := r.db.GetContext(ctx, &link, query, id); err != nil {
		return nil, fmt.Errorf("get sharing link: %w", err)
	}
	return &link, nil
}

// GetByToken returns a link row by its opaque token.
func (r *SharingRepository) GetByToken(ctx context.Context, token string) (*models.SharingLink, error) {
	query := fmt.Sprintf("SELECT %s FROM sharing_links WHERE token = $1", sharingColumns)
	var link models.SharingLink
	if err := r.db.GetContext(ctx, &link, query, token); err != nil {
		return nil, fmt.Errorf("get sharing link by token: %w", err)
	}
	return &link, nil
}

// ListByProject returns all links of a project, newest first.
func (r *SharingRepository) ListByProject(ctx context.Context, projectID string) ([]models.SharingLink, error) {
	query := fmt.Sprintf("SELECT %s FROM sharing_links WHERE project_id = $1 ORDER BY created_at DESC", sharingColumns)
	var links []models.SharingLink
	if err := r.db.SelectContext(ctx, &links, query, projectID); err != nil {
		return nil, fmt.Errorf("list sharing links: %w", err)
	}
	return links, nil
}

// RegisterView atomically increments the view counter and stamps the access
// time, refusing the increment once the view limit is reached. Two
// concurrent calls against a link with one view left cannot both succeed:
// the condition and the increment run in a single statement.
func (r *SharingRepository) RegisterView(ctx context.Context, id string) (int, error) {
	const query = `UPDATE sharing_links
SET view_count = view_count + 1, last_accessed_at = $1
WHERE id = $2 AND (max_views IS NULL OR view_count < max_views)
RETURNING view_count`
	var viewCount int
	err := r.db.GetContext(ctx, &viewCount, query, time.Now().UTC(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrViewLimitReached
		}
		return 0, fmt.Errorf("register sharing link view: %w", err)
	}
	return viewCount, nil
}

// SetActive flips the soft-revocation flag. Deactivation and hard deletion
// are independent revocation paths.
func (r *SharingRepository) SetActive(ctx context.Context, id string, active bool) error {
	res, err := r.db.ExecContext(ctx, "UPDATE sharing_links SET is_active = $1 WHERE id = $2", active, id)
	if err != nil {
		return fmt.Errorf("set sharing link active: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("set sharing link active: %w", sql.ErrNoRows)
	}
	return nil
}

// Delete hard-deletes a link row.
func (r *SharingRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM sharing_links WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete sharing link: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("delete sharing link: %w", sql.ErrNoRows)
	}
	return nil
}
