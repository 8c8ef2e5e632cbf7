package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/pitchstudio/deck-api/internal/dto"
	"github.com/pitchstudio/deck-api/internal/middleware"
	"github.com/pitchstudio/deck-api/internal/models"
	appErrors "github.com/pitchstudio/deck-api/pkg/errors"
)

type slideServiceMock struct {
	slide     *models.Slide
	slides    []models.Slide
	err       error
	reordered []string
}

func (m *slideServiceMock) Create(ctx context.Context, projectID string, req dto.CreateSlideRequest) (*models.Slide, error) {
	return m.slide, m.err
}

func (m *slideServiceMock) Update(ctx context.Context, slideID string, req dto.UpdateSlideRequest) (*models.Slide, error) {
	return m.slide, m.err
}

func (m *slideServiceMock) Reorder(ctx context.Context, projectID string, req dto.ReorderSlidesRequest, actorID string) ([]models.Slide, error) {
	m.reordered = req.SlideIDs
	return m.slides, m.err
}

func (m *slideServiceMock) Delete(ctx context.Context, slideID string) error {
	return m.err
}

type lifecycleServiceMock struct {
	slide *models.Slide
	err   error
}

func (m *lifecycleServiceMock) Approve(ctx context.Context, slideID, actorID string) (*models.Slide, error) {
	return m.slide, m.err
}

func (m *lifecycleServiceMock) Unlock(ctx context.Context, slideID, actorID string) (*models.Slide, error) {
	return m.slide, m.err
}

func (m *lifecycleServiceMock) SubmitForReview(ctx context.Context, slideID string) (*models.Slide, error) {
	return m.slide, m.err
}

func TestSlideHandlerCreate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &slideServiceMock{slide: &models.Slide{ID: "s1", Layout: models.LayoutTitle}}
	handler := NewSlideHandler(mockSvc, nil)

	payload, _ := json.Marshal(dto.CreateSlideRequest{Layout: models.LayoutTitle, Headline: "Intro"})
	c, w := newGinContext(http.MethodPost, "/projects/proj-1/slides", payload)
	c.Params = gin.Params{{Key: "id", Value: "proj-1"}}

	handler.Create(c)
	require.Equal(t, http.StatusCreated, w.Code)
}

func TestSlideHandlerCreateRejectsBadJSON(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewSlideHandler(&slideServiceMock{}, nil)

	c, w := newGinContext(http.MethodPost, "/projects/proj-1/slides", []byte("{not json"))
	c.Params = gin.Params{{Key: "id", Value: "proj-1"}}

	handler.Create(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSlideHandlerReorder(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &slideServiceMock{slides: []models.Slide{{ID: "s2"}, {ID: "s1"}}}
	handler := NewSlideHandler(mockSvc, nil)

	payload, _ := json.Marshal(dto.ReorderSlidesRequest{SlideIDs: []string{"s2", "s1"}})
	c, w := newGinContext(http.MethodPut, "/projects/proj-1/slides/order", payload)
	c.Params = gin.Params{{Key: "id", Value: "proj-1"}}
	c.Request.Header.Set(middleware.ActorHeader, "user-1")

	handler.Reorder(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, []string{"s2", "s1"}, mockSvc.reordered)
}

func TestSlideHandlerApprove(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockLifecycle := &lifecycleServiceMock{
		slide: &models.Slide{ID: "s1", ApprovalStatus: models.ApprovalApproved, IsLocked: true},
	}
	handler := NewSlideHandler(nil, mockLifecycle)

	c, w := newGinContext(http.MethodPost, "/slides/s1/approve", nil)
	c.Params = gin.Params{{Key: "id", Value: "s1"}}

	handler.Approve(c)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestSlideHandlerSubmitForReviewConflict(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockLifecycle := &lifecycleServiceMock{
		err: appErrors.Clone(appErrors.ErrValidation, "only draft slides can be submitted for review"),
	}
	handler := NewSlideHandler(nil, mockLifecycle)

	c, w := newGinContext(http.MethodPost, "/slides/s1/submit-review", nil)
	c.Params = gin.Params{{Key: "id", Value: "s1"}}

	handler.SubmitForReview(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSlideHandlerDelete(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewSlideHandler(&slideServiceMock{}, nil)

	c, _ := newGinContext(http.MethodDelete, "/slides/s1", nil)
	c.Params = gin.Params{{Key: "id", Value: "s1"}}

	handler.Delete(c)
	// the recorder is only flushed by a running engine, so read the status
	// off the writer
	require.Equal(t, http.StatusNoContent, c.Writer.Status())
}
