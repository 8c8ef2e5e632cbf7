package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/pitchstudio/deck-api/internal/models"
)

// ErrVersionConflict reports that a version commit lost a concurrent race:
// the project's version no longer matched the value read at the start of the
// operation.
var ErrVersionConflict = errors.New("project version changed concurrently")

const projectColumns = "id, title, status, version, version_history, is_confidential, metadata, created_at, updated_at"

// ProjectRepository persists deck projects.
type ProjectRepository struct {
	db *sqlx.DB
}

// NewProjectRepository constructs the repository.
func NewProjectRepository(db *sqlx.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// Create inserts a new project row with generated defaults.
func (r *ProjectRepository) Create(ctx context.Context, project *models.Project) error {
	if project.ID == "" {
		project.ID = uuid.NewString()
	}
	if project.Status == "" {
		project.Status = models.ProjectStatusDraft
	}
	if project.Version < 1 {
		project.Version = 1
	}
	if project.VersionHistory == nil {
		project.VersionHistory = models.VersionHistory{}
	}
	now := time.Now().UTC()
	if project.CreatedAt.IsZero() {
		project.CreatedAt = now
	}
	project.UpdatedAt = now

	const query = `INSERT INTO projects (id, title, status, version, version_history, is_confidential, metadata, created_at, updated_at)
VALUES (:id, :title, :status, :version, :version_history, :is_confidential, :metadata, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, project); err != nil {
		return fmt.Errorf("create project: %w", err)
	}
	return nil
}

// GetByID returns a project row by its identifier.
func (r *ProjectRepository) GetByID(ctx context.Context, id string) (*models.Project, error) {
	query := fmt.Sprintf("SELECT %s FROM projects WHERE id = $1", projectColumns)
	var project models.Project
	if err := r.db.GetContext(ctx, &project, query, id); err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}
	return &project, nil
}

// UpdateProjectParams defines the mutable metadata fields.
type UpdateProjectParams struct {
	Title          *string
	Status         *models.ProjectStatus
	IsConfidential *bool
	Metadata       *models.ProjectMetadata
}

// Update persists the provided changes for a project row.
func (r *ProjectRepository) Update(ctx context.Context, id string, params UpdateProjectParams) error {
	set := make([]string, 0, 5)
	args := make([]interface{}, 0, 6)
	argPos := 1

	if params.Title != nil {
		set = append(set, fmt.Sprintf("title = $%d", argPos))
		args = append(args, *params.Title)
		argPos++
	}
	if params.Status != nil {
		set = append(set, fmt.Sprintf("status = $%d", argPos))
		args = append(args, *params.Status)
		argPos++
	}
	if params.IsConfidential != nil {
		set = append(set, fmt.Sprintf("is_confidential = $%d", argPos))
		args = append(args, *params.IsConfidential)
		argPos++
	}
	if params.Metadata != nil {
		set = append(set, fmt.Sprintf("metadata = $%d", argPos))
		args = append(args, *params.Metadata)
		argPos++
	}

	if len(set) == 0 {
		return nil
	}

	set = append(set, fmt.Sprintf("updated_at = $%d", argPos))
	args = append(args, time.Now().UTC())
	argPos++

	query := fmt.Sprintf("UPDATE projects SET %s WHERE id = $%d", strings.Join(set, ", "), argPos)
	args = append(args, id)

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update project: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("update project: %w", sql.ErrNoRows)
	}
	return nil
}

// CommitVersion writes the bumped version counter together with the appended
// history in one statement, guarded by the version read at the start of the
// operation. A zero row count means a concurrent bump won.
func (r *ProjectRepository) CommitVersion(ctx context.Context, id string, newVersion int, history models.VersionHistory, expectedVersion int) error {
	const query = `UPDATE projects SET version = $1, version_history = $2, updated_at = $3 WHERE id = $4 AND version = $5`
	res, err := r.db.ExecContext(ctx, query, newVersion, history, time.Now().UTC(), id, expectedVersion)
	if err != nil {
		return fmt.Errorf("commit project version: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("commit project version: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("commit project version: %w", ErrVersionConflict)
	}
	return nil
}

// Delete removes a project row. Slides and sharing links cascade at the
// database level.
func (r *ProjectRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM projects WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("delete project: %w", sql.ErrNoRows)
	}
	return nil
}
