package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pitchstudio/deck-api/internal/dto"
	"github.com/pitchstudio/deck-api/internal/models"
	appErrors "github.com/pitchstudio/deck-api/pkg/errors"
	"github.com/pitchstudio/deck-api/pkg/response"
)

type sharingService interface {
	CreateLink(ctx context.Context, projectID string, req dto.CreateLinkRequest, actorID string) (*models.SharingLink, error)
	ListLinks(ctx context.Context, projectID string) ([]models.SharingLink, error)
	Resolve(ctx context.Context, token string) (*models.SharedDeck, error)
	ExportPDF(ctx context.Context, token string) ([]byte, string, error)
	DeactivateLink(ctx context.Context, id, actorID string) (*models.SharingLink, error)
	DeleteLink(ctx context.Context, id, actorID string) error
}

// SharingHandler exposes link management and the anonymous shared surface.
type SharingHandler struct {
	sharing sharingService
}

// NewSharingHandler constructs handler.
func NewSharingHandler(sharing sharingService) *SharingHandler {
	return &SharingHandler{sharing: sharing}
}

// CreateLink godoc
// @Summary Issue a sharing link for a project
// @Tags Sharing
// @Accept json
// @Produce json
// @Param id path string true "Project ID"
// @Param request body dto.CreateLinkRequest true "Link options"
// @Success 201 {object} response.Envelope
// @Router /projects/{id}/links [post]
func (h *SharingHandler) CreateLink(c *gin.Context) {
	var req dto.CreateLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}
	link, err := h.sharing.CreateLink(c.Request.Context(), c.Param("id"), req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, link)
}

// ListLinks godoc
// @Summary List the sharing links of a project
// @Tags Sharing
// @Produce json
// @Param id path string true "Project ID"
// @Success 200 {object} response.Envelope
// @Router /projects/{id}/links [get]
func (h *SharingHandler) ListLinks(c *gin.Context) {
	links, err := h.sharing.ListLinks(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, links, nil)
}

// DeactivateLink godoc
// @Summary Deactivate a sharing link without deleting it
// @Tags Sharing
// @Produce json
// @Param id path string true "Link ID"
// @Success 200 {object} response.Envelope
// @Router /links/{id}/deactivate [post]
func (h *SharingHandler) DeactivateLink(c *gin.Context) {
	link, err := h.sharing.DeactivateLink(c.Request.Context(), c.Param("id"), actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, link, nil)
}

// DeleteLink godoc
// @Summary Delete a sharing link
// @Tags Sharing
// @Param id path string true "Link ID"
// @Success 204
// @Router /links/{id} [delete]
func (h *SharingHandler) DeleteLink(c *gin.Context) {
	if err := h.sharing.DeleteLink(c.Request.Context(), c.Param("id"), actorFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// SharedDeck godoc
// @Summary Resolve a sharing token to a read-only deck
// @Description Every successful resolution counts against the link view limit.
// @Tags Sharing
// @Produce json
// @Param token path string true "Sharing token"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 410 {object} response.Envelope
// @Router /shared/{token} [get]
func (h *SharingHandler) SharedDeck(c *gin.Context) {
	deck, err := h.sharing.Resolve(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, deck, nil)
}

// SharedExport godoc
// @Summary Download the shared deck as a PDF
// @Tags Sharing
// @Produce application/pdf
// @Param token path string true "Sharing token"
// @Success 200
// @Failure 403 {object} response.Envelope
// @Router /shared/{token}/export [get]
func (h *SharingHandler) SharedExport(c *gin.Context) {
	payload, filename, err := h.sharing.ExportPDF(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/pdf", payload)
}
