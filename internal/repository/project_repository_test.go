package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pitchstudio/deck-api/internal/models"
)

func newProjectRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "postgres")
	cleanup := func() {
		_ = sqlxDB.Close()
		db.Close()
	}
	return sqlxDB, mock, cleanup
}

func TestProjectRepositoryGetByID(t *testing.T) {
	db, mock, cleanup := newProjectRepoMock(t)
	defer cleanup()
	repo := NewProjectRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "title", "status", "version", "version_history", "is_confidential", "metadata", "created_at", "updated_at"}).
		AddRow("proj-1", "Q3 Pitch", models.ProjectStatusDraft, 2, []byte(`[{"version":1,"notes":"initial"}]`), false, []byte(`{}`), now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, title, status, version, version_history, is_confidential, metadata, created_at, updated_at FROM projects WHERE id = $1")).
		WithArgs("proj-1").
		WillReturnRows(rows)

	project, err := repo.GetByID(context.Background(), "proj-1")
	require.NoError(t, err)
	assert.Equal(t, "Q3 Pitch", project.Title)
	assert.Equal(t, 2, project.Version)
	require.Len(t, project.VersionHistory, 1)
	assert.Equal(t, 1, project.VersionHistory[0].Version)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectRepositoryCommitVersion(t *testing.T) {
	db, mock, cleanup := newProjectRepoMock(t)
	defer cleanup()
	repo := NewProjectRepository(db)

	history := models.VersionHistory{{Version: 2, Notes: "refresh"}}
	mock.ExpectExec(regexp.QuoteMeta("UPDATE projects SET version = $1, version_history = $2, updated_at = $3 WHERE id = $4 AND version = $5")).
		WithArgs(3, history, sqlmock.AnyArg(), "proj-1", 2).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.CommitVersion(context.Background(), "proj-1", 3, history, 2)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectRepositoryCommitVersionConflict(t *testing.T) {
	db, mock, cleanup := newProjectRepoMock(t)
	defer cleanup()
	repo := NewProjectRepository(db)

	// The guard clause matched nothing: a concurrent bump moved the version.
	mock.ExpectExec(regexp.QuoteMeta("UPDATE projects SET version = $1")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.CommitVersion(context.Background(), "proj-1", 3, models.VersionHistory{}, 2)
	require.ErrorIs(t, err, ErrVersionConflict)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectRepositoryUpdateBuildsSparseSet(t *testing.T) {
	db, mock, cleanup := newProjectRepoMock(t)
	defer cleanup()
	repo := NewProjectRepository(db)

	title := "Renamed Deck"
	mock.ExpectExec(regexp.QuoteMeta("UPDATE projects SET title = $1, updated_at = $2 WHERE id = $3")).
		WithArgs(title, sqlmock.AnyArg(), "proj-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Update(context.Background(), "proj-1", UpdateProjectParams{Title: &title})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectRepositoryUpdateNoFieldsIsNoop(t *testing.T) {
	db, mock, cleanup := newProjectRepoMock(t)
	defer cleanup()
	repo := NewProjectRepository(db)

	err := repo.Update(context.Background(), "proj-1", UpdateProjectParams{})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectRepositoryDeleteMissing(t *testing.T) {
	db, mock, cleanup := newProjectRepoMock(t)
	defer cleanup()
	repo := NewProjectRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM projects WHERE id = $1")).
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "missing")
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
