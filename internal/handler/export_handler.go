package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pitchstudio/deck-api/internal/dto"
	"github.com/pitchstudio/deck-api/internal/models"
	"github.com/pitchstudio/deck-api/internal/service"
	appErrors "github.com/pitchstudio/deck-api/pkg/errors"
	"github.com/pitchstudio/deck-api/pkg/response"
)

type exportService interface {
	CreateJob(ctx context.Context, projectID string, req dto.ExportRequest) (*models.ExportJob, error)
	GetStatus(ctx context.Context, jobID string) (*models.ExportJob, error)
	ResolveDownload(ctx context.Context, token string) (*service.ExportDownload, error)
}

// ExportHandler exposes asynchronous deck export endpoints.
type ExportHandler struct {
	exports exportService
}

// NewExportHandler constructs handler.
func NewExportHandler(exports exportService) *ExportHandler {
	return &ExportHandler{exports: exports}
}

// Create godoc
// @Summary Queue a deck export
// @Tags Exports
// @Accept json
// @Produce json
// @Param id path string true "Project ID"
// @Param request body dto.ExportRequest true "Export options"
// @Success 202 {object} response.Envelope
// @Router /projects/{id}/exports [post]
func (h *ExportHandler) Create(c *gin.Context) {
	var req dto.ExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}
	job, err := h.exports.CreateJob(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, exportJobResponse(job), nil)
}

// Status godoc
// @Summary Export job status
// @Tags Exports
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} response.Envelope
// @Router /exports/{id} [get]
func (h *ExportHandler) Status(c *gin.Context) {
	job, err := h.exports.GetStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, exportJobResponse(job), nil)
}

// Download godoc
// @Summary Download a finished export via its signed token
// @Tags Exports
// @Param token path string true "Signed download token"
// @Success 200
// @Router /exports/download/{token} [get]
func (h *ExportHandler) Download(c *gin.Context) {
	download, err := h.exports.ResolveDownload(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer download.File.Close() //nolint:errcheck

	contentType := "application/octet-stream"
	switch download.Format {
	case models.ExportFormatCSV:
		contentType = "text/csv"
	case models.ExportFormatPDF:
		contentType = "application/pdf"
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", download.Filename))
	c.Header("Content-Type", contentType)
	http.ServeContent(c.Writer, c.Request, download.Filename, download.ExpiresAt, download.File)
}

func exportJobResponse(job *models.ExportJob) dto.ExportJobResponse {
	return dto.ExportJobResponse{
		ID:           job.ID,
		ProjectID:    job.ProjectID,
		Status:       job.Status,
		Format:       job.Params.Format,
		ResultURL:    job.ResultURL,
		CreatedAt:    job.CreatedAt,
		FinishedAt:   job.FinishedAt,
		ErrorMessage: job.ErrorMessage,
	}
}
