package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/pitchstudio/deck-api/internal/models"
)

const slideColumns = "id, project_id, order_index, layout, headline, subline, content, accent_color, background_url, is_hidden, approval_status, is_locked, approved_at, created_at, updated_at"

// SlideRepository persists deck slides.
type SlideRepository struct {
	db *sqlx.DB
}

// NewSlideRepository constructs the repository.
func NewSlideRepository(db *sqlx.DB) *SlideRepository {
	return &SlideRepository{db: db}
}

// Create inserts a new slide row with generated defaults. A negative
// order index is replaced by the next free position in the project.
func (r *SlideRepository) Create(ctx context.Context, slide *models.Slide) error {
	if slide.ID == "" {
		slide.ID = uuid.NewString()
	}
	if slide.ApprovalStatus == "" {
		slide.ApprovalStatus = models.ApprovalDraft
	}
	now := time.Now().UTC()
	if slide.CreatedAt.IsZero() {
		slide.CreatedAt = now
	}
	slide.UpdatedAt = now

	if slide.OrderIndex < 0 {
		const next = `SELECT COALESCE(MAX(order_index) + 1, 0) FROM slides WHERE project_id = $1`
		if err := r.db.GetContext(ctx, &slide.OrderIndex, next, slide.ProjectID); err != nil {
			return fmt.Errorf("next slide order index: %w", err)
		}
	}

	const query = `INSERT INTO slides (id, project_id, order_index, layout, headline, subline, content, accent_color, background_url, is_hidden, approval_status, is_locked, approved_at, created_at, updated_at)
VALUES (:id, :project_id, :order_index, :layout, :headline, :subline, :content, :accent_color, :background_url, :is_hidden, :approval_status, :is_locked, :approved_at, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, slide); err != nil {
		return fmt.Errorf("create slide: %w", err)
	}
	return nil
}

// GetByID returns a slide row by its identifier.
func (r *SlideRepository) GetByID(ctx context.Context, id string) (*models.Slide, error) {
	query := fmt.Sprintf("SELECT %s FROM slides WHERE id = $1", slideColumns)
	var slide models.Slide
	if err := r.db.GetContext(ctx, &slide, query, id); err != nil {
		return nil, fmt.Errorf("get slide: %w", err)
	}
	return &slide, nil
}

// ListByProject returns all slides of a project in presentation order.
// Ties on order_index fall back to insertion order.
func (r *SlideRepository) ListByProject(ctx context.Context, projectID string) ([]models.Slide, error) {
	query := fmt.Sprintf("SELECT %s FROM slides WHERE project_id = $1 ORDER BY order_index ASC, created_at ASC", slideColumns)
	var slides []models.Slide
	if err := r.db.SelectContext(ctx, &slides, query, projectID); err != nil {
		return nil, fmt.Errorf("list slides: %w", err)
	}
	return slides, nil
}

// UpdateContent writes the regenerable fields of a slide. Ordering, layout,
// visibility and identity are deliberately not touchable through this path.
func (r *SlideRepository) UpdateContent(ctx context.Context, id, headline, subline string, content models.SlideContent) error {
	const query = `UPDATE slides SET headline = $1, subline = $2, content = $3, updated_at = $4 WHERE id = $5`
	res, err := r.db.ExecContext(ctx, query, headline, subline, content, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update slide content: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("update slide content: %w", sql.ErrNoRows)
	}
	return nil
}

// UpdateApproval writes the approval state of a slide.
func (r *SlideRepository) UpdateApproval(ctx context.Context, id string, status models.ApprovalStatus, locked bool, approvedAt *time.Time) error {
	const query = `UPDATE slides SET approval_status = $1, is_locked = $2, approved_at = $3, updated_at = $4 WHERE id = $5`
	res, err := r.db.ExecContext(ctx, query, status, locked, approvedAt, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update slide approval: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("update slide approval: %w", sql.ErrNoRows)
	}
	return nil
}

// UpdateSlideParams defines the editable fields of a slide.
type UpdateSlideParams struct {
	Layout        *models.SlideLayout
	Headline      *string
	Subline       *string
	Content       *models.SlideContent
	AccentColor   *string
	BackgroundURL *string
	IsHidden      *bool
}

// Update persists the provided changes for a slide row.
func (r *SlideRepository) Update(ctx context.Context, id string, params UpdateSlideParams) error {
	set := make([]string, 0, 8)
	args := make([]interface{}, 0, 9)
	argPos := 1

	appendSet := func(column string, value interface{}) {
		set = append(set, fmt.Sprintf("%s = $%d", column, argPos))
		args = append(args, value)
		argPos++
	}

	if params.Layout != nil {
		appendSet("layout", *params.Layout)
	}
	if params.Headline != nil {
		appendSet("headline", *params.Headline)
	}
	if params.Subline != nil {
		appendSet("subline", *params.Subline)
	}
	if params.Content != nil {
		appendSet("content", *params.Content)
	}
	if params.AccentColor != nil {
		appendSet("accent_color", *params.AccentColor)
	}
	if params.BackgroundURL != nil {
		appendSet("background_url", *params.BackgroundURL)
	}
	if params.IsHidden != nil {
		appendSet("is_hidden", *params.IsHidden)
	}

	if len(set) == 0 {
		return nil
	}

	appendSet("updated_at", time.Now().UTC())

	query := fmt.Sprintf("UPDATE slides SET %s WHERE id = $%d", strings.Join(set, ", "), argPos)
	args = append(args, id)

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update slide: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("update slide: %w", sql.ErrNoRows)
	}
	return nil
}

// Reorder rewrites order_index sequentially for the supplied ordering inside
// one transaction.
func (r *SlideRepository) Reorder(ctx context.Context, projectID string, orderedIDs []string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin reorder: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	now := time.Now().UTC()
	const query = `UPDATE slides SET order_index = $1, updated_at = $2 WHERE id = $3 AND project_id = $4`
	for i, id := range orderedIDs {
		res, err := tx.ExecContext(ctx, query, i, now, id, projectID)
		if err != nil {
			return fmt.Errorf("reorder slide %s: %w", id, err)
		}
		if affected, err := res.RowsAffected(); err == nil && affected == 0 {
			return fmt.Errorf("reorder slide %s: %w", id, sql.ErrNoRows)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit reorder: %w", err)
	}
	return nil
}

// Delete removes a slide row.
func (r *SlideRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM slides WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete slide: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("delete slide: %w", sql.ErrNoRows)
	}
	return nil
}
