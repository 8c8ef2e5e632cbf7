package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// ProjectStatus enumerates the coarse lifecycle of a deck.
type ProjectStatus string

const (
	ProjectStatusDraft     ProjectStatus = "draft"
	ProjectStatusReview    ProjectStatus = "review"
	ProjectStatusApproved  ProjectStatus = "approved"
	ProjectStatusPublished ProjectStatus = "published"
	ProjectStatusArchived  ProjectStatus = "archived"
)

// VersionSnapshot is one entry in a project's version history. It records
// that a revision transition happened, not the slide content itself.
// Immutable once appended.
type VersionSnapshot struct {
	Version   int       `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	Notes     string    `json:"notes,omitempty"`
}

// VersionHistory is the append-only list of superseded revisions, persisted
// as JSONB. The active revision is never in here until it is superseded, so
// the project version always equals len(history)+1.
type VersionHistory []VersionSnapshot

// Value marshals the history to JSON for persistence.
func (h VersionHistory) Value() (driver.Value, error) {
	if h == nil {
		h = VersionHistory{}
	}
	data, err := json.Marshal(h)
	if err != nil {
		return nil, fmt.Errorf("marshal version history: %w", err)
	}
	return data, nil
}

// Scan unmarshals JSON payloads into the history list.
func (h *VersionHistory) Scan(value interface{}) error {
	if value == nil {
		*h = VersionHistory{}
		return nil
	}
	data, err := jsonbBytes(value)
	if err != nil {
		return fmt.Errorf("version history: %w", err)
	}
	if len(data) == 0 {
		*h = VersionHistory{}
		return nil
	}
	if err := json.Unmarshal(data, h); err != nil {
		return fmt.Errorf("unmarshal version history: %w", err)
	}
	return nil
}

// ProjectMetadata holds free-form project attributes persisted as JSONB.
type ProjectMetadata map[string]interface{}

// Value marshals metadata to JSON for persistence.
func (m ProjectMetadata) Value() (driver.Value, error) {
	if m == nil {
		m = ProjectMetadata{}
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal project metadata: %w", err)
	}
	return data, nil
}

// Scan unmarshals JSON payloads into the metadata map.
func (m *ProjectMetadata) Scan(value interface{}) error {
	if value == nil {
		*m = ProjectMetadata{}
		return nil
	}
	data, err := jsonbBytes(value)
	if err != nil {
		return fmt.Errorf("project metadata: %w", err)
	}
	if len(data) == 0 {
		*m = ProjectMetadata{}
		return nil
	}
	if err := json.Unmarshal(data, m); err != nil {
		return fmt.Errorf("unmarshal project metadata: %w", err)
	}
	return nil
}

// Project is a multi-slide deck under revision control.
type Project struct {
	ID             string          `db:"id" json:"id"`
	Title          string          `db:"title" json:"title"`
	Status         ProjectStatus   `db:"status" json:"status"`
	Version        int             `db:"version" json:"version"`
	VersionHistory VersionHistory  `db:"version_history" json:"version_history"`
	IsConfidential bool            `db:"is_confidential" json:"is_confidential"`
	Metadata       ProjectMetadata `db:"metadata" json:"metadata,omitempty"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at" json:"updated_at"`
}

// CurrentVersion returns the project version, defaulting to 1 when the row
// predates version tracking.
func (p *Project) CurrentVersion() int {
	if p.Version < 1 {
		return 1
	}
	return p.Version
}

func jsonbBytes(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, fmt.Errorf("unsupported type %T", value)
	}
}
