package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/pitchstudio/deck-api/internal/dto"
	"github.com/pitchstudio/deck-api/internal/generator"
	"github.com/pitchstudio/deck-api/internal/models"
	"github.com/pitchstudio/deck-api/internal/repository"
	appErrors "github.com/pitchstudio/deck-api/pkg/errors"
)

type versionProjectStore interface {
	GetByID(ctx context.Context, id string) (*models.Project, error)
	CommitVersion(ctx context.Context, id string, newVersion int, history models.VersionHistory, expectedVersion int) error
}

type versionSlideStore interface {
	ListByProject(ctx context.Context, projectID string) ([]models.Slide, error)
	UpdateContent(ctx context.Context, id, headline, subline string, content models.SlideContent) error
}

type deckCacheInvalidator interface {
	Delete(ctx context.Context, key string) error
}

// VersionService produces revision N+1 of a deck from revision N. Slides
// that are approved or locked are never written; only draft slides may
// receive regenerated content, and a generation outage never blocks the
// version bump itself.
type VersionService struct {
	projects versionProjectStore
	slides   versionSlideStore
	gen      generator.Generator
	cache    deckCacheInvalidator
	audit    auditLogger
	metrics  *MetricsService
	logger   *zap.Logger
	refine   bool
	now      func() time.Time
}

// VersionServiceOption configures the service.
type VersionServiceOption func(*VersionService)

// WithGenerator injects the draft content generator. Without one, version
// creation never regenerates content.
func WithGenerator(gen generator.Generator) VersionServiceOption {
	return func(s *VersionService) {
		s.gen = gen
	}
}

// WithRefinePass toggles the secondary wording pass over generated drafts.
func WithRefinePass(enabled bool) VersionServiceOption {
	return func(s *VersionService) {
		s.refine = enabled
	}
}

// WithMetrics feeds version and generator counters.
func WithMetrics(metrics *MetricsService) VersionServiceOption {
	return func(s *VersionService) {
		s.metrics = metrics
	}
}

// NewVersionService constructs the service.
func NewVersionService(projects versionProjectStore, slides versionSlideStore, cache deckCacheInvalidator, audit auditLogger, logger *zap.Logger, opts ...VersionServiceOption) *VersionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &VersionService{
		projects: projects,
		slides:   slides,
		cache:    cache,
		audit:    audit,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc
}

// CreateVersion snapshots the current revision into history, bumps the
// version counter, and regenerates draft slides when requested. The metadata
// commit is all-or-nothing; per-slide content writes degrade gracefully and
// are reflected in the regenerated count.
func (s *VersionService) CreateVersion(ctx context.Context, projectID string, req dto.CreateVersionRequest, actorID string) (*dto.VersionResult, error) {
	project, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "project not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load project")
	}

	slides, err := s.slides.ListByProject(ctx, projectID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load slides")
	}

	preserved := make([]models.Slide, 0, len(slides))
	drafts := make([]models.Slide, 0, len(slides))
	for _, slide := range slides {
		if slide.IsProtected() {
			preserved = append(preserved, slide)
		} else {
			drafts = append(drafts, slide)
		}
	}

	currentVersion := project.CurrentVersion()
	newVersion := currentVersion + 1

	history := make(models.VersionHistory, 0, len(project.VersionHistory)+1)
	history = append(history, project.VersionHistory...)
	history = append(history, models.VersionSnapshot{
		Version:   currentVersion,
		CreatedAt: s.now(),
		Notes:     req.Notes,
	})

	// Generation runs before the metadata commit but is never allowed to
	// abort it: any failure here degrades to a plain version bump.
	generated := s.generateDrafts(ctx, drafts, req)

	if err := s.projects.CommitVersion(ctx, projectID, newVersion, history, currentVersion); err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "a concurrent version was created for this project")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit project version")
	}

	s.metrics.RecordVersionCreated()

	regenerated := s.writeGeneratedContent(ctx, drafts, generated)

	project.Version = newVersion
	project.VersionHistory = history

	s.invalidateDeckCache(ctx, projectID)
	s.emitAudit(ctx, actorID, projectID, newVersion, len(preserved), regenerated)

	return &dto.VersionResult{
		Version:          newVersion,
		PreservedCount:   len(preserved),
		RegeneratedCount: regenerated,
		Project:          project,
	}, nil
}

// History returns the superseded revisions of a project.
func (s *VersionService) History(ctx context.Context, projectID string) (*dto.VersionHistoryResponse, error) {
	project, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "project not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load project")
	}
	return &dto.VersionHistoryResponse{
		CurrentVersion: project.CurrentVersion(),
		History:        project.VersionHistory,
	}, nil
}

// generateDrafts builds the structural outline from the draft partition and
// runs the generator plus the optional refine pass. Returns generated drafts
// keyed by order index; an empty map means nothing will be rewritten.
func (s *VersionService) generateDrafts(ctx context.Context, drafts []models.Slide, req dto.CreateVersionRequest) map[int]generator.DraftSlide {
	if !req.RegenerateDrafts || len(drafts) == 0 {
		return nil
	}
	if s.gen == nil || req.GeneratorInputs == nil || req.GeneratorInputs.Empty() {
		s.metrics.RecordGeneratorCall("skipped")
		return nil
	}

	outline := make([]generator.OutlineEntry, 0, len(drafts))
	for _, slide := range drafts {
		outline = append(outline, generator.OutlineEntry{
			OrderIndex: slide.OrderIndex,
			Layout:     slide.Layout,
			Purpose:    slide.Headline,
		})
	}

	produced, err := s.gen.Generate(ctx, outline, *req.GeneratorInputs)
	if err != nil {
		s.metrics.RecordGeneratorCall("error")
		s.logger.Warn("draft generation failed, proceeding without regenerated content", zap.Error(err))
		return nil
	}
	s.metrics.RecordGeneratorCall("ok")

	if s.refine {
		refined, err := s.gen.Refine(ctx, produced)
		if err != nil {
			s.logger.Warn("draft refinement failed, keeping unrefined drafts", zap.Error(err))
		} else {
			produced = refined
		}
	}

	byIndex := make(map[int]generator.DraftSlide, len(produced))
	for _, draft := range produced {
		byIndex[draft.OrderIndex] = draft
	}
	return byIndex
}

// writeGeneratedContent fans out the per-slide content writes. The writes
// touch disjoint rows and carry no ordering requirement, so they run
// concurrently; a failed write skips that slide and the rest proceed.
func (s *VersionService) writeGeneratedContent(ctx context.Context, drafts []models.Slide, generated map[int]generator.DraftSlide) int {
	if len(generated) == 0 {
		return 0
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		written int
	)
	for _, slide := range drafts {
		draft, ok := generated[slide.OrderIndex]
		if !ok {
			continue
		}
		wg.Add(1)
		go func(slide models.Slide, draft generator.DraftSlide) {
			defer wg.Done()
			if err := s.slides.UpdateContent(ctx, slide.ID, draft.Headline, draft.Subline, draft.Content); err != nil {
				s.logger.Warn("regenerated slide write failed",
					zap.String("slide_id", slide.ID),
					zap.Int("order_index", slide.OrderIndex),
					zap.Error(err))
				return
			}
			mu.Lock()
			written++
			mu.Unlock()
		}(slide, draft)
	}
	wg.Wait()
	return written
}

func (s *VersionService) invalidateDeckCache(ctx context.Context, projectID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, sharedDeckCacheKey(projectID)); err != nil {
		s.logger.Warn("shared deck cache invalidation failed", zap.String("project_id", projectID), zap.Error(err))
	}
}

func (s *VersionService) emitAudit(ctx context.Context, actorID, projectID string, version, preserved, regenerated int) {
	if s.audit == nil {
		return
	}
	values, _ := json.Marshal(map[string]interface{}{
		"version":     version,
		"preserved":   preserved,
		"regenerated": regenerated,
	})
	log := &models.AuditLog{
		Action:     models.AuditActionVersionCreate,
		Resource:   "project",
		ResourceID: &projectID,
		NewValues:  values,
	}
	if actorID != "" {
		log.ActorID = &actorID
	}
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("audit log write failed", zap.String("action", models.AuditActionVersionCreate), zap.Error(err))
	}
}
