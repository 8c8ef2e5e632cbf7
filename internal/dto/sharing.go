package dto

import (
	"time"

	"github.com/pitchstudio/deck-api/internal/models"
)

// CreateLinkRequest is the payload for issuing a sharing link.
type CreateLinkRequest struct {
	Permission     models.SharingPermission `json:"permission" validate:"omitempty,oneof=view download_pdf edit"`
	ExpiresAt      *time.Time               `json:"expires_at"`
	MaxViews       *int                     `json:"max_views" validate:"omitempty,gte=1"`
	RecipientEmail *string                  `json:"recipient_email" validate:"omitempty,email"`
}
