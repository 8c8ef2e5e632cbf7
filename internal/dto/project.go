package dto

import "github.com/pitchstudio/deck-api/internal/models"

// CreateProjectRequest is the payload for creating a deck project.
type CreateProjectRequest struct {
	Title          string                 `json:"title" validate:"required,max=200"`
	IsConfidential bool                   `json:"is_confidential"`
	Metadata       models.ProjectMetadata `json:"metadata"`
}

// UpdateProjectRequest is the payload for patching deck project metadata.
type UpdateProjectRequest struct {
	Title          *string                 `json:"title" validate:"omitempty,max=200"`
	Status         *models.ProjectStatus   `json:"status" validate:"omitempty,oneof=draft review approved published archived"`
	IsConfidential *bool                   `json:"is_confidential"`
	Metadata       *models.ProjectMetadata `json:"metadata"`
}

// DeckResponse couples a project with its ordered slides.
type DeckResponse struct {
	Project *models.Project `json:"project"`
	Slides  []models.Slide  `json:"slides"`
}
