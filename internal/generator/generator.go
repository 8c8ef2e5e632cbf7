package generator

import (
	"context"

	"github.com/pitchstudio/deck-api/internal/models"
)

// OutlineEntry describes one draft slide that needs content, carrying only
// the structural hints the generator is allowed to see.
type OutlineEntry struct {
	OrderIndex int                `json:"order_index"`
	Layout     models.SlideLayout `json:"layout"`
	Purpose    string             `json:"purpose"`
}

// Inputs carries the business context supplied by the caller for a
// generation run.
type Inputs struct {
	CompanyName   string   `json:"company_name,omitempty"`
	Product       string   `json:"product,omitempty"`
	Audience      string   `json:"audience,omitempty"`
	Tone          string   `json:"tone,omitempty"`
	TalkingPoints []string `json:"talking_points,omitempty"`
}

// Empty reports whether no usable inputs were supplied.
func (i Inputs) Empty() bool {
	return i.CompanyName == "" && i.Product == "" && i.Audience == "" &&
		i.Tone == "" && len(i.TalkingPoints) == 0
}

// DraftSlide is generated content for one outline entry. Only headline,
// subline and the structured content payload are ever produced; ordering and
// layout always come from the outline.
type DraftSlide struct {
	OrderIndex int                 `json:"order_index"`
	Headline   string              `json:"headline"`
	Subline    string              `json:"subline"`
	Content    models.SlideContent `json:"content"`
}

// Generator produces draft slide text from a structural outline. Both
// operations may fail; callers on the versioning path treat any failure as
// non-fatal.
type Generator interface {
	Generate(ctx context.Context, outline []OutlineEntry, inputs Inputs) ([]DraftSlide, error)
	Refine(ctx context.Context, drafts []DraftSlide) ([]DraftSlide, error)
}
