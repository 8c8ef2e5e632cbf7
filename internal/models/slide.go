package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// SlideLayout enumerates the fixed set of slide layout tags.
type SlideLayout string

const (
	LayoutTitle   SlideLayout = "title"
	LayoutBullets SlideLayout = "bullets"
	LayoutStats   SlideLayout = "stats"
	LayoutQuote   SlideLayout = "quote"
	LayoutTwoCol  SlideLayout = "two_column"
	LayoutImage   SlideLayout = "image"
	LayoutClosing SlideLayout = "closing"
)

// ValidLayout reports whether the tag is part of the enumeration.
func ValidLayout(l SlideLayout) bool {
	switch l {
	case LayoutTitle, LayoutBullets, LayoutStats, LayoutQuote, LayoutTwoCol, LayoutImage, LayoutClosing:
		return true
	}
	return false
}

// ApprovalStatus is the reviewer-facing state of a single slide.
type ApprovalStatus string

const (
	ApprovalDraft         ApprovalStatus = "draft"
	ApprovalPendingReview ApprovalStatus = "pending_review"
	ApprovalApproved      ApprovalStatus = "approved"
)

// StatPair is one label/value entry for stats layouts.
type StatPair struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// SlideContent is the layout-shaped structured payload of a slide,
// persisted as JSONB. The engine preserves whatever shape was last written;
// it only requires the shape to match the layout at write time for new
// content (bullets for bullet layouts, stat pairs for stats layouts).
type SlideContent struct {
	Bullets []string          `json:"bullets,omitempty"`
	Stats   []StatPair        `json:"stats,omitempty"`
	Body    string            `json:"body,omitempty"`
	Extras  map[string]string `json:"extras,omitempty"`
}

// Value marshals content to JSON for persistence.
func (c SlideContent) Value() (driver.Value, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshal slide content: %w", err)
	}
	return data, nil
}

// Scan unmarshals JSON payloads into the content struct.
func (c *SlideContent) Scan(value interface{}) error {
	if value == nil {
		*c = SlideContent{}
		return nil
	}
	data, err := jsonbBytes(value)
	if err != nil {
		return fmt.Errorf("slide content: %w", err)
	}
	if len(data) == 0 {
		*c = SlideContent{}
		return nil
	}
	if err := json.Unmarshal(data, c); err != nil {
		return fmt.Errorf("unmarshal slide content: %w", err)
	}
	return nil
}

// Slide is one ordered unit of content within a project.
type Slide struct {
	ID             string         `db:"id" json:"id"`
	ProjectID      string         `db:"project_id" json:"project_id"`
	OrderIndex     int            `db:"order_index" json:"order_index"`
	Layout         SlideLayout    `db:"layout" json:"layout"`
	Headline       string         `db:"headline" json:"headline"`
	Subline        string         `db:"subline" json:"subline"`
	Content        SlideContent   `db:"content" json:"content"`
	AccentColor    *string        `db:"accent_color" json:"accent_color,omitempty"`
	BackgroundURL  *string        `db:"background_url" json:"background_url,omitempty"`
	IsHidden       bool           `db:"is_hidden" json:"is_hidden"`
	ApprovalStatus ApprovalStatus `db:"approval_status" json:"approval_status"`
	IsLocked       bool           `db:"is_locked" json:"is_locked"`
	ApprovedAt     *time.Time     `db:"approved_at" json:"approved_at,omitempty"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at" json:"updated_at"`
}

// IsProtected reports whether the slide must never be touched by
// regeneration. A slide can be locked without being formally approved
// (manually protected); both cases read the same here.
func (s *Slide) IsProtected() bool {
	return s.ApprovalStatus == ApprovalApproved || s.IsLocked
}
