package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/pitchstudio/deck-api/internal/dto"
	"github.com/pitchstudio/deck-api/internal/models"
	"github.com/pitchstudio/deck-api/internal/repository"
	appErrors "github.com/pitchstudio/deck-api/pkg/errors"
)

type projectStore interface {
	Create(ctx context.Context, project *models.Project) error
	GetByID(ctx context.Context, id string) (*models.Project, error)
	Update(ctx context.Context, id string, params repository.UpdateProjectParams) error
	Delete(ctx context.Context, id string) error
}

type projectSlideLister interface {
	ListByProject(ctx context.Context, projectID string) ([]models.Slide, error)
}

// ProjectService covers deck project CRUD.
type ProjectService struct {
	projects projectStore
	slides   projectSlideLister
	cache    deckCacheInvalidator
	validate *validator.Validate
	logger   *zap.Logger
}

// NewProjectService constructs the service.
func NewProjectService(projects projectStore, slides projectSlideLister, cache deckCacheInvalidator, validate *validator.Validate, logger *zap.Logger) *ProjectService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &ProjectService{
		projects: projects,
		slides:   slides,
		cache:    cache,
		validate: validate,
		logger:   logger,
	}
}

// Create registers a new deck project at version 1 with empty history.
func (s *ProjectService) Create(ctx context.Context, req dto.CreateProjectRequest) (*models.Project, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid project payload")
	}
	project := &models.Project{
		Title:          req.Title,
		Status:         models.ProjectStatusDraft,
		Version:        1,
		VersionHistory: models.VersionHistory{},
		IsConfidential: req.IsConfidential,
		Metadata:       req.Metadata,
	}
	if err := s.projects.Create(ctx, project); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create project")
	}
	return project, nil
}

// Get returns the project together with its ordered slides.
func (s *ProjectService) Get(ctx context.Context, id string) (*dto.DeckResponse, error) {
	project, err := s.projects.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "project not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load project")
	}
	slides, err := s.slides.ListByProject(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load slides")
	}
	return &dto.DeckResponse{Project: project, Slides: slides}, nil
}

// Update patches project fields. Version and history are untouchable here;
// revisions only move through the version manager.
func (s *ProjectService) Update(ctx context.Context, id string, req dto.UpdateProjectRequest) (*models.Project, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid project payload")
	}
	params := repository.UpdateProjectParams{
		Title:          req.Title,
		Status:         req.Status,
		IsConfidential: req.IsConfidential,
		Metadata:       req.Metadata,
	}
	if err := s.projects.Update(ctx, id, params); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "project not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update project")
	}

	project, err := s.projects.GetByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload project")
	}
	s.invalidate(ctx, id)
	return project, nil
}

// Delete removes a project. Slides and sharing links go with it via
// foreign-key cascade.
func (s *ProjectService) Delete(ctx context.Context, id string) error {
	if err := s.projects.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "project not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete project")
	}
	s.invalidate(ctx, id)
	return nil
}

func (s *ProjectService) invalidate(ctx context.Context, projectID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, sharedDeckCacheKey(projectID)); err != nil {
		s.logger.Warn("shared deck cache invalidation failed", zap.String("project_id", projectID), zap.Error(err))
	}
}
