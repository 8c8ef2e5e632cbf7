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

type projectService interface {
	Create(ctx context.Context, req dto.CreateProjectRequest) (*models.Project, error)
	Get(ctx context.Context, id string) (*dto.DeckResponse, error)
	Update(ctx context.Context, id string, req dto.UpdateProjectRequest) (*models.Project, error)
	Delete(ctx context.Context, id string) error
}

// ProjectHandler exposes deck project CRUD endpoints.
type ProjectHandler struct {
	projects projectService
}

// NewProjectHandler constructs handler.
func NewProjectHandler(projects projectService) *ProjectHandler {
	return &ProjectHandler{projects: projects}
}

// Create godoc
// @Summary Create a deck project
// @Tags Projects
// @Accept json
// @Produce json
// @Param request body dto.CreateProjectRequest true "Project payload"
// @Success 201 {object} response.Envelope
// @Router /projects [post]
func (h *ProjectHandler) Create(c *gin.Context) {
	var req dto.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}
	project, err := h.projects.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, project)
}

// Get godoc
// @Summary Get a project with its slides
// @Tags Projects
// @Produce json
// @Param id path string true "Project ID"
// @Success 200 {object} response.Envelope
// @Router /projects/{id} [get]
func (h *ProjectHandler) Get(c *gin.Context) {
	deck, err := h.projects.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, deck, nil)
}

// Update godoc
// @Summary Update project fields
// @Tags Projects
// @Accept json
// @Produce json
// @Param id path string true "Project ID"
// @Param request body dto.UpdateProjectRequest true "Project patch"
// @Success 200 {object} response.Envelope
// @Router /projects/{id} [put]
func (h *ProjectHandler) Update(c *gin.Context) {
	var req dto.UpdateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}
	project, err := h.projects.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, project, nil)
}

// Delete godoc
// @Summary Delete a project
// @Tags Projects
// @Param id path string true "Project ID"
// @Success 204
// @Router /projects/{id} [delete]
func (h *ProjectHandler) Delete(c *gin.Context) {
	if err := h.projects.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
