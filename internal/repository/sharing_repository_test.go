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

func newSharingRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
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

func TestSharingRepositoryGetByToken(t *testing.T) {
	db, mock, cleanup := newSharingRepoMock(t)
	defer cleanup()
	repo := NewSharingRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "project_id", "token", "permission", "expires_at", "max_views", "view_count", "is_active", "recipient_email", "last_accessed_at", "created_at"}).
		AddRow("link-1", "proj-1", "tok-abc", models.PermissionView, nil, nil, 0, true, nil, nil, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, project_id, token, permission, expires_at, max_views, view_count, is_active, recipient_email, last_accessed_at, created_at FROM sharing_links WHERE token = $1")).
		WithArgs("tok-abc").
		WillReturnRows(rows)

	link, err := repo.GetByToken(context.Background(), "tok-abc")
	require.NoError(t, err)
	assert.Equal(t, "link-1", link.ID)
	assert.Equal(t, models.PermissionView, link.Permission)
	assert.True(t, link.IsActive)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSharingRepositoryRegisterView(t *testing.T) {
	db, mock, cleanup := newSharingRepoMock(t)
	defer cleanup()
	repo := NewSharingRepository(db)

	rows := sqlmock.NewRows([]string{"view_count"}).AddRow(4)
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE sharing_links")).
		WithArgs(sqlmock.AnyArg(), "link-1").
		WillReturnRows(rows)

	viewCount, err := repo.RegisterView(context.Background(), "link-1")
	require.NoError(t, err)
	assert.Equal(t, 4, viewCount)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSharingRepositoryRegisterViewLimitReached(t *testing.T) {
	db, mock, cleanup := newSharingRepoMock(t)
	defer cleanup()
	repo := NewSharingRepository(db)

	// An exhausted link fails the WHERE condition, so RETURNING yields no rows.
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE sharing_links")).
		WithArgs(sqlmock.AnyArg(), "link-1").
		WillReturnRows(sqlmock.NewRows([]string{"view_count"}))

	_, err := repo.RegisterView(context.Background(), "link-1")
	require.ErrorIs(t, err, ErrViewLimitReached)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSharingRepositorySetActive(t *testing.T) {
	db, mock, cleanup := newSharingRepoMock(t)
	defer cleanup()
	repo := NewSharingRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE sharing_links SET is_active = $1 WHERE id = $2")).
		WithArgs(false, "link-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.SetActive(context.Background(), "link-1", false)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSharingRepositoryDeleteMissing(t *testing.T) {
	db, mock, cleanup := newSharingRepoMock(t)
	defer cleanup()
	repo := NewSharingRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM sharing_links WHERE id = $1")).
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "missing")
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
