package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/pitchstudio/deck-api/internal/dto"
	"github.com/pitchstudio/deck-api/internal/models"
	"github.com/pitchstudio/deck-api/internal/repository"
	appErrors "github.com/pitchstudio/deck-api/pkg/errors"
)

type sharingLinkStore interface {
	Create(ctx context.Context, link *models.SharingLink) error
	GetByID(ctx context.Context, id string) (*models.SharingLink, error)
	GetByToken(ctx context.Context, token string) (*models.SharingLink, error)
	ListByProject(ctx context.Context, projectID string) ([]models.SharingLink, error)
	RegisterView(ctx context.Context, id string) (int, error)
	SetActive(ctx context.Context, id string, active bool) error
	Delete(ctx context.Context, id string) error
}

type sharingProjectStore interface {
	GetByID(ctx context.Context, id string) (*models.Project, error)
}

type sharingSlideStore interface {
	ListByProject(ctx context.Context, projectID string) ([]models.Slide, error)
}

type deckCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

type deckPDFRenderer interface {
	Render(project *models.Project, slides []models.Slide) ([]byte, error)
}

func sharedDeckCacheKey(projectID string) string {
	return fmt.Sprintf("shared:deck:%s", projectID)
}

// cachedDeck is the cacheable read-only payload of a shared project: the
// project plus its ordered, non-hidden slides. The view counter never goes
// through this cache.
type cachedDeck struct {
	Project *models.Project `json:"project"`
	Slides  []models.Slide  `json:"slides"`
}

// SharingService mediates anonymous read access to a project through
// bounded-use bearer tokens.
type SharingService struct {
	links       sharingLinkStore
	projects    sharingProjectStore
	slides      sharingSlideStore
	cache       deckCache
	pdf         deckPDFRenderer
	audit       auditLogger
	metrics     *MetricsService
	logger      *zap.Logger
	cacheTTL    time.Duration
	tokenLen    int
	defaultTier models.SharingPermission
	now         func() time.Time
}

// SharingServiceConfig tunes caching, token generation and the tier
// assigned when a create request names none.
type SharingServiceConfig struct {
	CacheTTL    time.Duration
	TokenBytes  int
	DefaultTier models.SharingPermission
}

// NewSharingService constructs the service.
func NewSharingService(links sharingLinkStore, projects sharingProjectStore, slides sharingSlideStore, cache deckCache, pdf deckPDFRenderer, audit auditLogger, metrics *MetricsService, logger *zap.Logger, cfg SharingServiceConfig) *SharingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	if cfg.TokenBytes < 16 {
		cfg.TokenBytes = 32
	}
	if !models.ValidPermission(cfg.DefaultTier) {
		cfg.DefaultTier = models.PermissionView
	}
	return &SharingService{
		links:       links,
		projects:    projects,
		slides:      slides,
		cache:       cache,
		pdf:         pdf,
		audit:       audit,
		metrics:     metrics,
		logger:      logger,
		cacheTTL:    cfg.CacheTTL,
		tokenLen:    cfg.TokenBytes,
		defaultTier: cfg.DefaultTier,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// CreateLink issues a new active sharing link for the project.
func (s *SharingService) CreateLink(ctx context.Context, projectID string, req dto.CreateLinkRequest, actorID string) (*models.SharingLink, error) {
	if _, err := s.projects.GetByID(ctx, projectID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "project not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load project")
	}

	permission := req.Permission
	if permission == "" {
		permission = s.defaultTier
	}
	if !models.ValidPermission(permission) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown permission tier")
	}
	if req.ExpiresAt != nil && req.ExpiresAt.Before(s.now()) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "expiry must be in the future")
	}

	token, err := s.newToken()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate link token")
	}

	link := &models.SharingLink{
		ProjectID:      projectID,
		Token:          token,
		Permission:     permission,
		ExpiresAt:      req.ExpiresAt,
		MaxViews:       req.MaxViews,
		IsActive:       true,
		RecipientEmail: req.RecipientEmail,
	}
	if err := s.links.Create(ctx, link); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create sharing link")
	}

	s.emitLinkAudit(ctx, actorID, models.AuditActionLinkCreate, link)
	return link, nil
}

// ListLinks returns all links of a project, usable or not.
func (s *SharingService) ListLinks(ctx context.Context, projectID string) ([]models.SharingLink, error) {
	links, err := s.links.ListByProject(ctx, projectID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list sharing links")
	}
	return links, nil
}

// Resolve validates a bearer token and returns the read-only deck view. The
// checks run in a fixed order: existence, active flag, expiry, then the
// atomic view-count increment. Every successful resolution counts as a view,
// including the last one allowed by a view limit.
func (s *SharingService) Resolve(ctx context.Context, token string) (*models.SharedDeck, error) {
	link, err := s.links.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.metrics.RecordSharedView("invalid")
			return nil, appErrors.ErrInvalidLink
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load sharing link")
	}

	if !link.IsActive {
		s.metrics.RecordSharedView("inactive")
		return nil, appErrors.ErrLinkInactive
	}
	if link.ExpiresAt != nil && link.ExpiresAt.Before(s.now()) {
		s.metrics.RecordSharedView("expired")
		return nil, appErrors.ErrLinkExpired
	}

	if _, err := s.links.RegisterView(ctx, link.ID); err != nil {
		if errors.Is(err, repository.ErrViewLimitReached) {
			s.metrics.RecordSharedView("limit_exceeded")
			return nil, appErrors.ErrViewLimitExceeded
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record link view")
	}

	deck, err := s.loadDeck(ctx, link.ProjectID)
	if err != nil {
		return nil, err
	}

	s.metrics.RecordSharedView("ok")
	return &models.SharedDeck{
		Project:    deck.Project,
		Slides:     deck.Slides,
		Permission: link.Permission,
	}, nil
}

// ExportPDF resolves the token (counting the view) and renders the shared
// deck as a PDF. Only download_pdf and edit tiers may export.
func (s *SharingService) ExportPDF(ctx context.Context, token string) ([]byte, string, error) {
	deck, err := s.Resolve(ctx, token)
	if err != nil {
		return nil, "", err
	}
	if !deck.Permission.AllowsDownload() {
		return nil, "", appErrors.ErrDownloadForbidden
	}

	payload, err := s.pdf.Render(deck.Project, deck.Slides)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render deck pdf")
	}
	filename := fmt.Sprintf("%s-v%d.pdf", deck.Project.ID, deck.Project.CurrentVersion())
	return payload, filename, nil
}

// DeactivateLink soft-revokes a link without deleting it.
func (s *SharingService) DeactivateLink(ctx context.Context, id, actorID string) (*models.SharingLink, error) {
	link, err := s.getLink(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.links.SetActive(ctx, id, false); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "sharing link not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate sharing link")
	}
	link.IsActive = false
	s.emitLinkAudit(ctx, actorID, models.AuditActionLinkRevoke, link)
	return link, nil
}

// DeleteLink hard-deletes a link. Independent of deactivation.
func (s *SharingService) DeleteLink(ctx context.Context, id, actorID string) error {
	link, err := s.getLink(ctx, id)
	if err != nil {
		return err
	}
	if err := s.links.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "sharing link not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete sharing link")
	}
	s.emitLinkAudit(ctx, actorID, models.AuditActionLinkDelete, link)
	return nil
}

func (s *SharingService) getLink(ctx context.Context, id string) (*models.SharingLink, error) {
	link, err := s.links.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "sharing link not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load sharing link")
	}
	return link, nil
}

// loadDeck returns the project with its ordered, non-hidden slides, serving
// from the cache when possible.
func (s *SharingService) loadDeck(ctx context.Context, projectID string) (*cachedDeck, error) {
	key := sharedDeckCacheKey(projectID)
	if s.cache != nil {
		var cached cachedDeck
		if err := s.cache.Get(ctx, key, &cached); err == nil && cached.Project != nil {
			s.metrics.RecordCacheOperation(true)
			return &cached, nil
		}
		s.metrics.RecordCacheOperation(false)
	}

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

	visible := make([]models.Slide, 0, len(slides))
	for _, slide := range slides {
		if !slide.IsHidden {
			visible = append(visible, slide)
		}
	}

	deck := &cachedDeck{Project: project, Slides: visible}
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, deck, s.cacheTTL); err != nil {
			s.logger.Warn("shared deck cache write failed", zap.String("project_id", projectID), zap.Error(err))
		}
	}
	return deck, nil
}

func (s *SharingService) newToken() (string, error) {
	buf := make([]byte, s.tokenLen)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random token bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func (s *SharingService) emitLinkAudit(ctx context.Context, actorID, action string, link *models.SharingLink) {
	if s.audit == nil {
		return
	}
	values, _ := json.Marshal(map[string]interface{}{
		"project_id": link.ProjectID,
		"permission": link.Permission,
		"is_active":  link.IsActive,
	})
	log := &models.AuditLog{
		Action:     action,
		Resource:   "sharing_link",
		ResourceID: &link.ID,
		NewValues:  values,
	}
	if actorID != "" {
		log.ActorID = &actorID
	}
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("audit log write failed", zap.String("action", action), zap.Error(err))
	}
}
