package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pitchstudio/deck-api/internal/dto"
	appErrors "github.com/pitchstudio/deck-api/pkg/errors"
	"github.com/pitchstudio/deck-api/pkg/response"
)

type versionService interface {
	CreateVersion(ctx context.Context, projectID string, req dto.CreateVersionRequest, actorID string) (*dto.VersionResult, error)
	History(ctx context.Context, projectID string) (*dto.VersionHistoryResponse, error)
}

// VersionHandler exposes deck revision endpoints.
type VersionHandler struct {
	versions versionService
}

// NewVersionHandler constructs handler.
func NewVersionHandler(versions versionService) *VersionHandler {
	return &VersionHandler{versions: versions}
}

// Create godoc
// @Summary Create the next revision of a deck
// @Description Snapshots the current revision into history, bumps the version and optionally regenerates unapproved draft slides.
// @Tags Versions
// @Accept json
// @Produce json
// @Param id path string true "Project ID"
// @Param request body dto.CreateVersionRequest true "Version options"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /projects/{id}/versions [post]
func (h *VersionHandler) Create(c *gin.Context) {
	var req dto.CreateVersionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}
	result, err := h.versions.CreateVersion(c.Request.Context(), c.Param("id"), req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// History godoc
// @Summary List superseded revisions of a deck
// @Tags Versions
// @Produce json
// @Param id path string true "Project ID"
// @Success 200 {object} response.Envelope
// @Router /projects/{id}/versions [get]
func (h *VersionHandler) History(c *gin.Context) {
	history, err := h.versions.History(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, history, nil)
}
