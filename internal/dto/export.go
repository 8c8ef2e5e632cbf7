package dto

import (
	"time"

	"github.com/pitchstudio/deck-api/internal/models"
)

// ExportRequest queues an asynchronous deck export.
type ExportRequest struct {
	Format        models.ExportFormat `json:"format" validate:"required,oneof=csv pdf"`
	IncludeHidden bool                `json:"include_hidden"`
}

// ExportJobResponse reports the state of an export job.
type ExportJobResponse struct {
	ID           string              `json:"id"`
	ProjectID    string              `json:"project_id"`
	Status       models.ExportStatus `json:"status"`
	Format       models.ExportFormat `json:"format"`
	ResultURL    *string             `json:"result_url,omitempty"`
	CreatedAt    time.Time           `json:"created_at"`
	FinishedAt   *time.Time          `json:"finished_at,omitempty"`
	ErrorMessage *string             `json:"error_message,omitempty"`
}
