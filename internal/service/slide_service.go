package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/pitchstudio/deck-api/internal/dto"
	"github.com/pitchstudio/deck-api/internal/models"
	"github.com/pitchstudio/deck-api/internal/repository"
	appErrors "github.com/pitchstudio/deck-api/pkg/errors"
)

type slideStore interface {
	Create(ctx context.Context, slide *models.Slide) error
	GetByID(ctx context.Context, id string) (*models.Slide, error)
	ListByProject(ctx context.Context, projectID string) ([]models.Slide, error)
	Update(ctx context.Context, id string, params repository.UpdateSlideParams) error
	Reorder(ctx context.Context, projectID string, orderedIDs []string) error
	Delete(ctx context.Context, id string) error
}

type slideProjectStore interface {
	GetByID(ctx context.Context, id string) (*models.Project, error)
}

// SlideService covers slide CRUD and deck reordering. Reordering is
// deliberately permissive with respect to locks: a locked slide's position
// may change, only its content is immutable.
type SlideService struct {
	slides   slideStore
	projects slideProjectStore
	cache    deckCacheInvalidator
	audit    auditLogger
	validate *validator.Validate
	logger   *zap.Logger
}

// NewSlideService constructs the service.
func NewSlideService(slides slideStore, projects slideProjectStore, cache deckCacheInvalidator, audit auditLogger, validate *validator.Validate, logger *zap.Logger) *SlideService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &SlideService{
		slides:   slides,
		projects: projects,
		cache:    cache,
		audit:    audit,
		validate: validate,
		logger:   logger,
	}
}

// Create appends or inserts a new slide into a project.
func (s *SlideService) Create(ctx context.Context, projectID string, req dto.CreateSlideRequest) (*models.Slide, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid slide payload")
	}
	if !models.ValidLayout(req.Layout) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown slide layout")
	}
	if _, err := s.projects.GetByID(ctx, projectID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "project not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load project")
	}

	orderIndex := -1
	if req.OrderIndex != nil {
		orderIndex = *req.OrderIndex
	}
	slide := &models.Slide{
		ProjectID:      projectID,
		OrderIndex:     orderIndex,
		Layout:         req.Layout,
		Headline:       req.Headline,
		Subline:        req.Subline,
		Content:        req.Content,
		AccentColor:    req.AccentColor,
		BackgroundURL:  req.BackgroundURL,
		IsHidden:       req.IsHidden,
		ApprovalStatus: models.ApprovalDraft,
	}
	if err := s.slides.Create(ctx, slide); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create slide")
	}

	s.invalidate(ctx, projectID)
	return slide, nil
}

// Update patches slide fields. The approval state is not touchable through
// this path; use the lifecycle operations.
func (s *SlideService) Update(ctx context.Context, slideID string, req dto.UpdateSlideRequest) (*models.Slide, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid slide payload")
	}
	if req.Layout != nil && !models.ValidLayout(*req.Layout) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown slide layout")
	}

	slide, err := s.slides.GetByID(ctx, slideID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "slide not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load slide")
	}

	params := repository.UpdateSlideParams{
		Layout:        req.Layout,
		Headline:      req.Headline,
		Subline:       req.Subline,
		Content:       req.Content,
		AccentColor:   req.AccentColor,
		BackgroundURL: req.BackgroundURL,
		IsHidden:      req.IsHidden,
	}
	if err := s.slides.Update(ctx, slideID, params); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "slide not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update slide")
	}

	updated, err := s.slides.GetByID(ctx, slideID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload slide")
	}
	s.invalidate(ctx, slide.ProjectID)
	return updated, nil
}

// Reorder rewrites the deck order to the supplied ID sequence. The sequence
// must be a permutation of the project's current slides.
func (s *SlideService) Reorder(ctx context.Context, projectID string, req dto.ReorderSlidesRequest, actorID string) ([]models.Slide, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid reorder payload")
	}

	existing, err := s.slides.ListByProject(ctx, projectID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load slides")
	}
	if len(existing) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "project has no slides")
	}
	if len(req.SlideIDs) != len(existing) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "ordering must include every slide exactly once")
	}
	known := make(map[string]struct{}, len(existing))
	for _, slide := range existing {
		known[slide.ID] = struct{}{}
	}
	seen := make(map[string]struct{}, len(req.SlideIDs))
	for _, id := range req.SlideIDs {
		if _, ok := known[id]; !ok {
			return nil, appErrors.Clone(appErrors.ErrValidation, "ordering references a slide outside this project")
		}
		if _, dup := seen[id]; dup {
			return nil, appErrors.Clone(appErrors.ErrValidation, "ordering repeats a slide")
		}
		seen[id] = struct{}{}
	}

	if err := s.slides.Reorder(ctx, projectID, req.SlideIDs); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reorder slides")
	}

	s.invalidate(ctx, projectID)
	s.emitReorderAudit(ctx, actorID, projectID, req.SlideIDs)

	reordered, err := s.slides.ListByProject(ctx, projectID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload slides")
	}
	return reordered, nil
}

// Delete removes a slide from its project.
func (s *SlideService) Delete(ctx context.Context, slideID string) error {
	slide, err := s.slides.GetByID(ctx, slideID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "slide not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load slide")
	}
	if err := s.slides.Delete(ctx, slideID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "slide not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete slide")
	}
	s.invalidate(ctx, slide.ProjectID)
	return nil
}

func (s *SlideService) invalidate(ctx context.Context, projectID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, sharedDeckCacheKey(projectID)); err != nil {
		s.logger.Warn("shared deck cache invalidation failed", zap.String("project_id", projectID), zap.Error(err))
	}
}

func (s *SlideService) emitReorderAudit(ctx context.Context, actorID, projectID string, orderedIDs []string) {
	if s.audit == nil {
		return
	}
	values, _ := json.Marshal(map[string]interface{}{"slide_ids": orderedIDs})
	log := &models.AuditLog{
		Action:     models.AuditActionSlideReorder,
		Resource:   "project",
		ResourceID: &projectID,
		NewValues:  values,
	}
	if actorID != "" {
		log.ActorID = &actorID
	}
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("audit log write failed", zap.String("action", models.AuditActionSlideReorder), zap.Error(err))
	}
}
