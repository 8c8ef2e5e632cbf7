package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pitchstudio/deck-api/internal/dto"
	"github.com/pitchstudio/deck-api/internal/models"
	"github.com/pitchstudio/deck-api/internal/repository"
	appErrors "github.com/pitchstudio/deck-api/pkg/errors"
	"github.com/pitchstudio/deck-api/pkg/storage"
)

type mockExportJobStore struct {
	jobs map[string]models.ExportJob
}

func newMockExportJobStore(jobs ...models.ExportJob) *mockExportJobStore {
	store := &mockExportJobStore{jobs: make(map[string]models.ExportJob)}
	for _, job := range jobs {
		store.jobs[job.ID] = job
	}
	return store
}

func (m *mockExportJobStore) Create(ctx context.Context, job *models.ExportJob) error {
	if job.ID == "" {
		job.ID = "job-new"
	}
	m.jobs[job.ID] = *job
	return nil
}

func (m *mockExportJobStore) GetByID(ctx context.Context, id string) (*models.ExportJob, error) {
	if job, ok := m.jobs[id]; ok {
		clone := job
		return &clone, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockExportJobStore) Update(ctx context.Context, id string, params repository.UpdateExportJobParams) error {
	job, ok := m.jobs[id]
	if !ok {
		return sql.ErrNoRows
	}
	if params.Status != nil {
		job.Status = *params.Status
	}
	if params.ResultURL != nil {
		job.ResultURL = params.ResultURL
	}
	if params.ErrorMessage != nil {
		job.ErrorMessage = params.ErrorMessage
	}
	if params.FinishedAt != nil {
		job.FinishedAt = params.FinishedAt
	}
	m.jobs[id] = job
	return nil
}

func (m *mockExportJobStore) ListQueued(ctx context.Context, limit int) ([]models.ExportJob, error) {
	var out []models.ExportJob
	for _, job := range m.jobs {
		if job.Status == models.ExportStatusQueued {
			out = append(out, job)
		}
	}
	return out, nil
}

func newExportFixture(t *testing.T, jobStore *mockExportJobStore) *ExportService {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	return NewExportService(ExportServiceConfig{
		Jobs:     jobStore,
		Projects: &mockSharingProjects{project: deckProject(2, 1)},
		Slides: &mockSharingSlides{slides: []models.Slide{
			{ID: "s1", OrderIndex: 0, Layout: models.LayoutTitle, Headline: "Intro"},
			{ID: "s2", OrderIndex: 1, Layout: models.LayoutBullets, Headline: "Plan", IsHidden: true},
		}},
		Storage:   store,
		Signer:    storage.NewSignedURLSigner("test-secret", time.Hour),
		APIPrefix: "/api/v1",
	})
}

func TestCreateExportJobProcessesToFinished(t *testing.T) {
	jobStore := newMockExportJobStore()
	svc := newExportFixture(t, jobStore)
	svc.Start(context.Background())
	defer svc.Stop()

	job, err := svc.CreateJob(context.Background(), "proj-1", dto.ExportRequest{Format: models.ExportFormatPDF})
	require.NoError(t, err)
	assert.Equal(t, models.ExportStatusQueued, job.Status)

	require.Eventually(t, func() bool {
		current, err := svc.GetStatus(context.Background(), job.ID)
		return err == nil && current.Status == models.ExportStatusFinished
	}, 5*time.Second, 20*time.Millisecond)

	finished, err := svc.GetStatus(context.Background(), job.ID)
	require.NoError(t, err)
	require.NotNil(t, finished.ResultURL)
	assert.Contains(t, *finished.ResultURL, "/api/v1/exports/download/")
	require.NotNil(t, finished.FinishedAt)
}

func TestCreateExportJobWithoutWorkersMarksFailed(t *testing.T) {
	jobStore := newMockExportJobStore()
	svc := newExportFixture(t, jobStore)
	// queue never started; dispatch must fail loudly, not hang

	_, err := svc.CreateJob(context.Background(), "proj-1", dto.ExportRequest{Format: models.ExportFormatCSV})
	require.Error(t, err)

	require.Len(t, jobStore.jobs, 1)
	for _, job := range jobStore.jobs {
		assert.Equal(t, models.ExportStatusFailed, job.Status)
		require.NotNil(t, job.ErrorMessage)
	}
}

func TestCreateExportJobValidatesFormat(t *testing.T) {
	svc := newExportFixture(t, newMockExportJobStore())

	_, err := svc.CreateJob(context.Background(), "proj-1", dto.ExportRequest{Format: "docx"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestResolveDownloadRejectsForgedToken(t *testing.T) {
	svc := newExportFixture(t, newMockExportJobStore())

	_, err := svc.ResolveDownload(context.Background(), "forged.token.payload.signature")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestResolveDownloadRoundTrip(t *testing.T) {
	jobStore := newMockExportJobStore()
	svc := newExportFixture(t, jobStore)
	svc.Start(context.Background())
	defer svc.Stop()

	job, err := svc.CreateJob(context.Background(), "proj-1", dto.ExportRequest{Format: models.ExportFormatCSV})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		current, err := svc.GetStatus(context.Background(), job.ID)
		return err == nil && current.Status == models.ExportStatusFinished
	}, 5*time.Second, 20*time.Millisecond)

	finished, err := svc.GetStatus(context.Background(), job.ID)
	require.NoError(t, err)
	require.NotNil(t, finished.ResultURL)

	url := *finished.ResultURL
	token := url[len("/api/v1/exports/download/"):]
	download, err := svc.ResolveDownload(context.Background(), token)
	require.NoError(t, err)
	defer download.File.Close()

	assert.Equal(t, models.ExportFormatCSV, download.Format)
	assert.Contains(t, download.Filename, "proj-1")
}

func TestSlidesDatasetFlattensContent(t *testing.T) {
	dataset := slidesDataset([]models.Slide{
		{OrderIndex: 0, Layout: models.LayoutBullets, Headline: "Plan", Content: models.SlideContent{Bullets: []string{"a", "b"}}},
		{OrderIndex: 1, Layout: models.LayoutQuote, Headline: "Voice", Content: models.SlideContent{Body: "quote body"}},
	})

	require.Len(t, dataset.Rows, 2)
	assert.Equal(t, "a; b", dataset.Rows[0]["content"])
	assert.Equal(t, "quote body", dataset.Rows[1]["content"])
	assert.Equal(t, "bullets", dataset.Rows[0]["layout"])
}
