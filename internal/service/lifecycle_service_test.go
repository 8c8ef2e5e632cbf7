package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pitchstudio/deck-api/internal/models"
	appErrors "github.com/pitchstudio/deck-api/pkg/errors"
)

type mockLifecycleStore struct {
	slides  map[string]models.Slide
	updates int
}

func (m *mockLifecycleStore) GetByID(ctx context.Context, id string) (*models.Slide, error) {
	if slide, ok := m.slides[id]; ok {
		clone := slide
		return &clone, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockLifecycleStore) UpdateApproval(ctx context.Context, id string, status models.ApprovalStatus, locked bool, approvedAt *time.Time) error {
	slide, ok := m.slides[id]
	if !ok {
		return sql.ErrNoRows
	}
	slide.ApprovalStatus = status
	slide.IsLocked = locked
	slide.ApprovedAt = approvedAt
	m.slides[id] = slide
	m.updates++
	return nil
}

func newLifecycleStore(slides ...models.Slide) *mockLifecycleStore {
	store := &mockLifecycleStore{slides: make(map[string]models.Slide)}
	for _, slide := range slides {
		store.slides[slide.ID] = slide
	}
	return store
}

func TestApproveLocksSlideAndStampsTime(t *testing.T) {
	store := newLifecycleStore(models.Slide{ID: "s1", ApprovalStatus: models.ApprovalPendingReview})
	audit := &mockAudit{}
	svc := NewLifecycleService(store, audit, nil)

	slide, err := svc.Approve(context.Background(), "s1", "reviewer-1")
	require.NoError(t, err)

	assert.Equal(t, models.ApprovalApproved, slide.ApprovalStatus)
	assert.True(t, slide.IsLocked)
	require.NotNil(t, slide.ApprovedAt)
	assert.True(t, slide.IsProtected())
	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionSlideApprove, audit.logs[0].Action)
}

func TestApproveIsIdempotent(t *testing.T) {
	approvedAt := time.Now().UTC().Add(-time.Hour)
	store := newLifecycleStore(models.Slide{
		ID:             "s1",
		ApprovalStatus: models.ApprovalApproved,
		IsLocked:       true,
		ApprovedAt:     &approvedAt,
	})
	svc := NewLifecycleService(store, nil, nil)

	slide, err := svc.Approve(context.Background(), "s1", "")
	require.NoError(t, err)

	assert.Zero(t, store.updates)
	require.NotNil(t, slide.ApprovedAt)
	assert.True(t, slide.ApprovedAt.Equal(approvedAt))
}

func TestApproveFromDraftSkipsReviewStage(t *testing.T) {
	store := newLifecycleStore(models.Slide{ID: "s1", ApprovalStatus: models.ApprovalDraft})
	svc := NewLifecycleService(store, nil, nil)

	slide, err := svc.Approve(context.Background(), "s1", "")
	require.NoError(t, err)
	assert.Equal(t, models.ApprovalApproved, slide.ApprovalStatus)
}

func TestUnlockClearsProtectionFromAnyState(t *testing.T) {
	approvedAt := time.Now().UTC()
	cases := []models.Slide{
		{ID: "s1", ApprovalStatus: models.ApprovalApproved, IsLocked: true, ApprovedAt: &approvedAt},
		{ID: "s2", ApprovalStatus: models.ApprovalDraft, IsLocked: true},
		{ID: "s3", ApprovalStatus: models.ApprovalPendingReview},
	}
	store := newLifecycleStore(cases...)
	svc := NewLifecycleService(store, nil, nil)

	for _, initial := range cases {
		slide, err := svc.Unlock(context.Background(), initial.ID, "user-1")
		require.NoError(t, err, initial.ID)
		assert.Equal(t, models.ApprovalDraft, slide.ApprovalStatus)
		assert.False(t, slide.IsLocked)
		assert.Nil(t, slide.ApprovedAt)
		assert.False(t, slide.IsProtected())
	}
}

func TestSubmitForReviewRequiresDraft(t *testing.T) {
	store := newLifecycleStore(
		models.Slide{ID: "draft", ApprovalStatus: models.ApprovalDraft},
		models.Slide{ID: "approved", ApprovalStatus: models.ApprovalApproved, IsLocked: true},
	)
	svc := NewLifecycleService(store, nil, nil)

	slide, err := svc.SubmitForReview(context.Background(), "draft")
	require.NoError(t, err)
	assert.Equal(t, models.ApprovalPendingReview, slide.ApprovalStatus)

	_, err = svc.SubmitForReview(context.Background(), "approved")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestLifecycleSlideNotFound(t *testing.T) {
	svc := NewLifecycleService(newLifecycleStore(), nil, nil)

	_, err := svc.Approve(context.Background(), "missing", "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
