package dto

import "github.com/pitchstudio/deck-api/internal/models"

// CreateSlideRequest is the payload for adding a slide to a project.
// A nil order index appends the slide at the end of the deck.
type CreateSlideRequest struct {
	Layout        models.SlideLayout  `json:"layout" validate:"required"`
	Headline      string              `json:"headline" validate:"max=300"`
	Subline       string              `json:"subline" validate:"max=500"`
	Content       models.SlideContent `json:"content"`
	AccentColor   *string             `json:"accent_color"`
	BackgroundURL *string             `json:"background_url"`
	IsHidden      bool                `json:"is_hidden"`
	OrderIndex    *int                `json:"order_index" validate:"omitempty,gte=0"`
}

// UpdateSlideRequest is the payload for patching slide fields.
type UpdateSlideRequest struct {
	Layout        *models.SlideLayout  `json:"layout"`
	Headline      *string              `json:"headline" validate:"omitempty,max=300"`
	Subline       *string              `json:"subline" validate:"omitempty,max=500"`
	Content       *models.SlideContent `json:"content"`
	AccentColor   *string              `json:"accent_color"`
	BackgroundURL *string              `json:"background_url"`
	IsHidden      *bool                `json:"is_hidden"`
}

// ReorderSlidesRequest supplies the complete new ordering of a deck.
type ReorderSlidesRequest struct {
	SlideIDs []string `json:"slide_ids" validate:"required,min=1,dive,required"`
}
