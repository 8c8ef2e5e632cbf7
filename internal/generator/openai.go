package generator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/pitchstudio/deck-api/internal/models"
	"github.com/pitchstudio/deck-api/pkg/config"
)

const defaultModel = "gpt-4o-mini"

const systemPrompt = "You are a presentation copywriter. Respond only with a JSON object " +
	`of the shape {"slides": [{"order_index": int, "headline": string, "subline": string, ` +
	`"content": {"bullets": [string], "stats": [{"label": string, "value": string}], "body": string}}]}. ` +
	"Produce exactly one entry per outline item, keeping its order_index. " +
	"Use bullets for bullet layouts, stats for stats layouts and body otherwise."

const refinePrompt = "You are an editor. Tighten the wording of the provided slides without " +
	"changing their meaning, order_index values or content shape. Respond with the same JSON object shape."

// OpenAIGenerator implements Generator against the OpenAI chat completion API.
type OpenAIGenerator struct {
	client  *openai.Client
	model   string
	timeout time.Duration
	logger  *zap.Logger
}

// NewOpenAIGenerator constructs a generator from config. Returns nil when the
// feature is disabled or no API key is configured; a nil generator simply
// means drafts are never regenerated.
func NewOpenAIGenerator(cfg config.GeneratorConfig, logger *zap.Logger) *OpenAIGenerator {
	if !cfg.Enabled || cfg.APIKey == "" {
		return nil
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &OpenAIGenerator{
		client:  openai.NewClient(cfg.APIKey),
		model:   model,
		timeout: timeout,
		logger:  logger,
	}
}

// Generate produces draft slide content for the outline.
func (g *OpenAIGenerator) Generate(ctx context.Context, outline []OutlineEntry, inputs Inputs) ([]DraftSlide, error) {
	if len(outline) == 0 {
		return nil, nil
	}

	outlineJSON, err := json.Marshal(outline)
	if err != nil {
		return nil, fmt.Errorf("marshal outline: %w", err)
	}
	inputsJSON, err := json.Marshal(inputs)
	if err != nil {
		return nil, fmt.Errorf("marshal inputs: %w", err)
	}

	prompt := fmt.Sprintf("Outline:\n%s\n\nBusiness context:\n%s", outlineJSON, inputsJSON)
	drafts, err := g.complete(ctx, systemPrompt, prompt)
	if err != nil {
		return nil, err
	}
	return alignToOutline(drafts, outline), nil
}

// Refine runs the secondary wording pass over already generated drafts.
func (g *OpenAIGenerator) Refine(ctx context.Context, drafts []DraftSlide) ([]DraftSlide, error) {
	if len(drafts) == 0 {
		return nil, nil
	}
	payload, err := json.Marshal(draftEnvelope{Slides: drafts})
	if err != nil {
		return nil, fmt.Errorf("marshal drafts: %w", err)
	}
	refined, err := g.complete(ctx, refinePrompt, string(payload))
	if err != nil {
		return nil, err
	}
	if len(refined) != len(drafts) {
		return nil, fmt.Errorf("refine returned %d slides, expected %d", len(refined), len(drafts))
	}
	return refined, nil
}

func (g *OpenAIGenerator) complete(ctx context.Context, system, user string) ([]DraftSlide, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("chat completion returned no choices")
	}
	return parseDrafts(resp.Choices[0].Message.Content)
}

type draftEnvelope struct {
	Slides []DraftSlide `json:"slides"`
}

func parseDrafts(raw string) ([]DraftSlide, error) {
	raw = strings.TrimSpace(raw)
	var envelope draftEnvelope
	if err := json.Unmarshal([]byte(raw), &envelope); err != nil {
		return nil, fmt.Errorf("parse generator response: %w", err)
	}
	if len(envelope.Slides) == 0 {
		return nil, fmt.Errorf("generator response contained no slides")
	}
	return envelope.Slides, nil
}

// alignToOutline drops anything the model invented outside the outline and
// forces layout-consistent content shapes.
func alignToOutline(drafts []DraftSlide, outline []OutlineEntry) []DraftSlide {
	byIndex := make(map[int]OutlineEntry, len(outline))
	for _, entry := range outline {
		byIndex[entry.OrderIndex] = entry
	}

	aligned := make([]DraftSlide, 0, len(drafts))
	for _, draft := range drafts {
		entry, ok := byIndex[draft.OrderIndex]
		if !ok {
			continue
		}
		draft.Content = shapeForLayout(draft.Content, entry.Layout)
		aligned = append(aligned, draft)
	}
	return aligned
}

func shapeForLayout(content models.SlideContent, layout models.SlideLayout) models.SlideContent {
	switch layout {
	case models.LayoutStats:
		content.Bullets = nil
	case models.LayoutBullets, models.LayoutTwoCol:
		content.Stats = nil
	default:
		content.Bullets = nil
		content.Stats = nil
	}
	return content
}
