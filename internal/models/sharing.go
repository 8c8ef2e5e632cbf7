package models

import "time"

// SharingPermission is the tier granted by a sharing link. The engine
// reports the tier; downstream consumers gate actions on it. The one gate
// enforced in this service is PDF export on the shared surface.
type SharingPermission string

const (
	PermissionView     SharingPermission = "view"
	PermissionDownload SharingPermission = "download_pdf"
	PermissionEdit     SharingPermission = "edit"
)

// ValidPermission reports whether the tier is known.
func ValidPermission(p SharingPermission) bool {
	switch p {
	case PermissionView, PermissionDownload, PermissionEdit:
		return true
	}
	return false
}

// AllowsDownload reports whether the tier permits PDF export.
func (p SharingPermission) AllowsDownload() bool {
	return p == PermissionDownload || p == PermissionEdit
}

// SharingLink grants bounded anonymous access to one project via an opaque
// bearer token. It becomes unusable when expired, view-exhausted or
// deactivated; deactivation and hard deletion are independent revocation
// paths.
type SharingLink struct {
	ID             string            `db:"id" json:"id"`
	ProjectID      string            `db:"project_id" json:"project_id"`
	Token          string            `db:"token" json:"token"`
	Permission     SharingPermission `db:"permission" json:"permission"`
	ExpiresAt      *time.Time        `db:"expires_at" json:"expires_at,omitempty"`
	MaxViews       *int              `db:"max_views" json:"max_views,omitempty"`
	ViewCount      int               `db:"view_count" json:"view_count"`
	IsActive       bool              `db:"is_active" json:"is_active"`
	RecipientEmail *string           `db:"recipient_email" json:"recipient_email,omitempty"`
	LastAccessedAt *time.Time        `db:"last_accessed_at" json:"last_accessed_at,omitempty"`
	CreatedAt      time.Time         `db:"created_at" json:"created_at"`
}

// SharedDeck is the read-only view returned to an anonymous caller after a
// successful token resolution.
type SharedDeck struct {
	Project    *Project          `json:"project"`
	Slides     []Slide           `json:"slides"`
	Permission SharingPermission `json:"permission"`
}
