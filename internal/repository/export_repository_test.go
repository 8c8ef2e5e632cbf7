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

func newExportRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
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

func TestExportRepositoryCreateDefaultsToQueued(t *testing.T) {
	db, mock, cleanup := newExportRepoMock(t)
	defer cleanup()
	repo := NewExportRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO export_jobs")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	job := &models.ExportJob{ProjectID: "proj-1", Params: models.ExportJobParams{Format: models.ExportFormatCSV}}
	err := repo.Create(context.Background(), job)
	require.NoError(t, err)
	assert.NotEmpty(t, job.ID)
	assert.Equal(t, models.ExportStatusQueued, job.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExportRepositoryUpdateFinished(t *testing.T) {
	db, mock, cleanup := newExportRepoMock(t)
	defer cleanup()
	repo := NewExportRepository(db)

	status := models.ExportStatusFinished
	resultURL := "/api/v1/exports/download/tok"
	finishedAt := time.Now().UTC()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE export_jobs SET status = $1, result_url = $2, finished_at = $3 WHERE id = $4")).
		WithArgs(status, resultURL, finishedAt, "job-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Update(context.Background(), "job-1", UpdateExportJobParams{
		Status:     &status,
		ResultURL:  &resultURL,
		FinishedAt: &finishedAt,
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExportRepositoryListQueued(t *testing.T) {
	db, mock, cleanup := newExportRepoMock(t)
	defer cleanup()
	repo := NewExportRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "project_id", "params", "status", "result_url", "created_at", "finished_at", "error_message"}).
		AddRow("job-1", "proj-1", []byte(`{"format":"pdf"}`), models.ExportStatusQueued, nil, now, nil, nil)
	mock.ExpectQuery(regexp.QuoteMeta("FROM export_jobs WHERE status = 'QUEUED' ORDER BY created_at ASC LIMIT $1")).
		WithArgs(20).
		WillReturnRows(rows)

	jobs, err := repo.ListQueued(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, models.ExportFormatPDF, jobs[0].Params.Format)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExportRepositoryListFinishedBefore(t *testing.T) {
	db, mock, cleanup := newExportRepoMock(t)
	defer cleanup()
	repo := NewExportRepository(db)

	cutoff := time.Now().Add(-24 * time.Hour)
	mock.ExpectQuery(regexp.QuoteMeta("FROM export_jobs WHERE status = 'FINISHED' AND finished_at IS NOT NULL AND finished_at < $1 ORDER BY finished_at ASC LIMIT $2")).
		WithArgs(cutoff, 50).
		WillReturnRows(sqlmock.NewRows([]string{"id", "project_id", "params", "status", "result_url", "created_at", "finished_at", "error_message"}))

	jobs, err := repo.ListFinishedBefore(context.Background(), cutoff, 0)
	require.NoError(t, err)
	assert.Empty(t, jobs)
	require.NoError(t, mock.ExpectationsWereMet())
}
