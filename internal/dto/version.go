package dto

import (
	"github.com/pitchstudio/deck-api/internal/generator"
	"github.com/pitchstudio/deck-api/internal/models"
)

// CreateVersionRequest starts a snapshot-then-regenerate revision of a deck.
type CreateVersionRequest struct {
	Notes            string            `json:"notes" validate:"max=2000"`
	RegenerateDrafts bool              `json:"regenerate_drafts"`
	GeneratorInputs  *generator.Inputs `json:"generator_inputs"`
}

// VersionResult reports the outcome of a version creation.
type VersionResult struct {
	Version          int             `json:"version"`
	PreservedCount   int             `json:"preserved_count"`
	RegeneratedCount int             `json:"regenerated_count"`
	Project          *models.Project `json:"project"`
}

// VersionHistoryResponse lists the superseded revisions of a deck.
type VersionHistoryResponse struct {
	CurrentVersion int                      `json:"current_version"`
	History        []models.VersionSnapshot `json:"history"`
}
