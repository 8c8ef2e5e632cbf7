package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pitchstudio/deck-api/internal/dto"
	"github.com/pitchstudio/deck-api/internal/models"
	appErrors "github.com/pitchstudio/deck-api/pkg/errors"
	"github.com/pitchstudio/deck-api/pkg/response"
)

type slideService interface {
	Create(ctx context.Context, projectID string, req dto.CreateSlideRequest) (*models.Slide, error)
	Update(ctx context.Context, slideID string, req dto.UpdateSlideRequest) (*models.Slide, error)
	Reorder(ctx context.Context, projectID string, req dto.ReorderSlidesRequest, actorID string) ([]models.Slide, error)
	Delete(ctx context.Context, slideID string) error
}

type lifecycleService interface {
	Approve(ctx context.Context, slideID, actorID string) (*models.Slide, error)
	Unlock(ctx context.Context, slideID, actorID string) (*models.Slide, error)
	SubmitForReview(ctx context.Context, slideID string) (*models.Slide, error)
}

// SlideHandler exposes slide CRUD, ordering and approval endpoints.
type SlideHandler struct {
	slides    slideService
	lifecycle lifecycleService
}

// NewSlideHandler constructs handler.
func NewSlideHandler(slides slideService, lifecycle lifecycleService) *SlideHandler {
	return &SlideHandler{slides: slides, lifecycle: lifecycle}
}

// Create godoc
// @Summary Add a slide to a project
// @Tags Slides
// @Accept json
// @Produce json
// @Param id path string true "Project ID"
// @Param request body dto.CreateSlideRequest true "Slide payload"
// @Success 201 {object} response.Envelope
// @Router /projects/{id}/slides [post]
func (h *SlideHandler) Create(c *gin.Context) {
	var req dto.CreateSlideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}
	slide, err := h.slides.Create(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, slide)
}

// Update godoc
// @Summary Update slide fields
// @Tags Slides
// @Accept json
// @Produce json
// @Param id path string true "Slide ID"
// @Param request body dto.UpdateSlideRequest true "Slide patch"
// @Success 200 {object} response.Envelope
// @Router /slides/{id} [put]
func (h *SlideHandler) Update(c *gin.Context) {
	var req dto.UpdateSlideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}
	slide, err := h.slides.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slide, nil)
}

// Delete godoc
// @Summary Delete a slide
// @Tags Slides
// @Param id path string true "Slide ID"
// @Success 204
// @Router /slides/{id} [delete]
func (h *SlideHandler) Delete(c *gin.Context) {
	if err := h.slides.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Reorder godoc
// @Summary Reorder the slides of a project
// @Tags Slides
// @Accept json
// @Produce json
// @Param id path string true "Project ID"
// @Param request body dto.ReorderSlidesRequest true "Complete new slide ordering"
// @Success 200 {object} response.Envelope
// @Router /projects/{id}/slides/order [put]
func (h *SlideHandler) Reorder(c *gin.Context) {
	var req dto.ReorderSlidesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}
	slides, err := h.slides.Reorder(c.Request.Context(), c.Param("id"), req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slides, nil)
}

// Approve godoc
// @Summary Approve a slide, locking it against regeneration
// @Tags Slides
// @Produce json
// @Param id path string true "Slide ID"
// @Success 200 {object} response.Envelope
// @Router /slides/{id}/approve [post]
func (h *SlideHandler) Approve(c *gin.Context) {
	slide, err := h.lifecycle.Approve(c.Request.Context(), c.Param("id"), actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slide, nil)
}

// Unlock godoc
// @Summary Return a slide to editable draft
// @Tags Slides
// @Produce json
// @Param id path string true "Slide ID"
// @Success 200 {object} response.Envelope
// @Router /slides/{id}/unlock [post]
func (h *SlideHandler) Unlock(c *gin.Context) {
	slide, err := h.lifecycle.Unlock(c.Request.Context(), c.Param("id"), actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slide, nil)
}

// SubmitForReview godoc
// @Summary Submit a draft slide for review
// @Tags Slides
// @Produce json
// @Param id path string true "Slide ID"
// @Success 200 {object} response.Envelope
// @Router /slides/{id}/submit-review [post]
func (h *SlideHandler) SubmitForReview(c *gin.Context) {
	slide, err := h.lifecycle.SubmitForReview(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slide, nil)
}
