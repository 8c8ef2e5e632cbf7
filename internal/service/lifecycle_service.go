package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/pitchstudio/deck-api/internal/models"
	appErrors "github.com/pitchstudio/deck-api/pkg/errors"
)

type lifecycleSlideStore interface {
	GetByID(ctx context.Context, id string) (*models.Slide, error)
	UpdateApproval(ctx context.Context, id string, status models.ApprovalStatus, locked bool, approvedAt *time.Time) error
}

type auditLogger interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// LifecycleService drives the per-slide approval state machine. Approving a
// slide locks it against regeneration; unlocking always returns it to a
// regenerable draft, so no state is terminal.
type LifecycleService struct {
	slides lifecycleSlideStore
	audit  auditLogger
	logger *zap.Logger
	now    func() time.Time
}

// NewLifecycleService constructs the service.
func NewLifecycleService(slides lifecycleSlideStore, audit auditLogger, logger *zap.Logger) *LifecycleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LifecycleService{
		slides: slides,
		audit:  audit,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Approve marks a slide approved and locked, stamping the approval time.
// Approving an already approved slide is a no-op success.
func (s *LifecycleService) Approve(ctx context.Context, slideID, actorID string) (*models.Slide, error) {
	slide, err := s.getSlide(ctx, slideID)
	if err != nil {
		return nil, err
	}

	if slide.ApprovalStatus == models.ApprovalApproved && slide.IsLocked {
		return slide, nil
	}

	approvedAt := s.now()
	if err := s.slides.UpdateApproval(ctx, slide.ID, models.ApprovalApproved, true, &approvedAt); err != nil {
		return nil, s.storeError(err, "failed to approve slide")
	}

	slide.ApprovalStatus = models.ApprovalApproved
	slide.IsLocked = true
	slide.ApprovedAt = &approvedAt
	s.emitAudit(ctx, actorID, models.AuditActionSlideApprove, slide)
	return slide, nil
}

// Unlock returns a slide to draft from any prior state, clearing the lock
// and the approval timestamp. The slide becomes eligible for regeneration.
func (s *LifecycleService) Unlock(ctx context.Context, slideID, actorID string) (*models.Slide, error) {
	slide, err := s.getSlide(ctx, slideID)
	if err != nil {
		return nil, err
	}

	if err := s.slides.UpdateApproval(ctx, slide.ID, models.ApprovalDraft, false, nil); err != nil {
		return nil, s.storeError(err, "failed to unlock slide")
	}

	slide.ApprovalStatus = models.ApprovalDraft
	slide.IsLocked = false
	slide.ApprovedAt = nil
	s.emitAudit(ctx, actorID, models.AuditActionSlideUnlock, slide)
	return slide, nil
}

// SubmitForReview moves a draft slide to pending review. Protected slides
// must be unlocked first.
func (s *LifecycleService) SubmitForReview(ctx context.Context, slideID string) (*models.Slide, error) {
	slide, err := s.getSlide(ctx, slideID)
	if err != nil {
		return nil, err
	}

	if slide.ApprovalStatus != models.ApprovalDraft {
		return nil, appErrors.Clone(appErrors.ErrValidation, "only draft slides can be submitted for review")
	}

	if err := s.slides.UpdateApproval(ctx, slide.ID, models.ApprovalPendingReview, slide.IsLocked, nil); err != nil {
		return nil, s.storeError(err, "failed to submit slide for review")
	}

	slide.ApprovalStatus = models.ApprovalPendingReview
	return slide, nil
}

func (s *LifecycleService) getSlide(ctx context.Context, slideID string) (*models.Slide, error) {
	slide, err := s.slides.GetByID(ctx, slideID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "slide not found")
		}
		return nil, s.storeError(err, "failed to load slide")
	}
	return slide, nil
}

func (s *LifecycleService) storeError(err error, message string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, "slide not found")
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}

func (s *LifecycleService) emitAudit(ctx context.Context, actorID, action string, slide *models.Slide) {
	if s.audit == nil {
		return
	}
	values, _ := json.Marshal(map[string]interface{}{
		"approval_status": slide.ApprovalStatus,
		"is_locked":       slide.IsLocked,
	})
	log := &models.AuditLog{
		Action:     action,
		Resource:   "slide",
		ResourceID: &slide.ID,
		NewValues:  values,
	}
	if actorID != "" {
		log.ActorID = &actorID
	}
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("audit log write failed", zap.String("action", action), zap.Error(err))
	}
}
