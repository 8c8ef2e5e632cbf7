package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/pitchstudio/deck-api/internal/dto"
	"github.com/pitchstudio/deck-api/internal/models"
	"github.com/pitchstudio/deck-api/internal/service"
)

type exportServiceMock struct {
	job      *models.ExportJob
	download *service.ExportDownload
	err      error
}

func (m *exportServiceMock) CreateJob(ctx context.Context, projectID string, req dto.ExportRequest) (*models.ExportJob, error) {
	return m.job, m.err
}

func (m *exportServiceMock) GetStatus(ctx context.Context, jobID string) (*models.ExportJob, error) {
	return m.job, m.err
}

func (m *exportServiceMock) ResolveDownload(ctx context.Context, token string) (*service.ExportDownload, error) {
	return m.download, m.err
}

func TestExportHandlerCreate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &exportServiceMock{
		job: &models.ExportJob{
			ID:        "job-1",
			ProjectID: "proj-1",
			Status:    models.ExportStatusQueued,
			Params:    models.ExportJobParams{Format: models.ExportFormatPDF},
		},
	}
	handler := NewExportHandler(mockSvc)

	payload, _ := json.Marshal(dto.ExportRequest{Format: models.ExportFormatPDF})
	c, w := newGinContext(http.MethodPost, "/projects/proj-1/exports", payload)
	c.Params = gin.Params{{Key: "id", Value: "proj-1"}}

	handler.Create(c)
	require.Equal(t, http.StatusAccepted, w.Code)
}

func TestExportHandlerStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	url := "/api/v1/exports/download/token"
	mockSvc := &exportServiceMock{
		job: &models.ExportJob{
			ID:        "job-1",
			ProjectID: "proj-1",
			Status:    models.ExportStatusFinished,
			ResultURL: &url,
			Params:    models.ExportJobParams{Format: models.ExportFormatCSV},
		},
	}
	handler := NewExportHandler(mockSvc)

	c, w := newGinContext(http.MethodGet, "/exports/job-1", nil)
	c.Params = gin.Params{{Key: "id", Value: "job-1"}}

	handler.Status(c)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestExportHandlerDownload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	file, err := os.CreateTemp(t.TempDir(), "deck*.csv")
	require.NoError(t, err)
	_, _ = file.WriteString("order,layout\n0,title\n")
	_, _ = file.Seek(0, 0)

	mockSvc := &exportServiceMock{
		download: &service.ExportDownload{
			File:      file,
			Filename:  "deck-proj-1.csv",
			Format:    models.ExportFormatCSV,
			ExpiresAt: time.Now().Add(time.Hour),
		},
	}
	handler := NewExportHandler(mockSvc)

	c, w := newGinContext(http.MethodGet, "/exports/download/token", nil)
	c.Params = gin.Params{{Key: "token", Value: "token"}}

	handler.Download(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Header().Get("Content-Disposition"), "deck-proj-1.csv")
	require.Contains(t, w.Body.String(), "order,layout")
}
