package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/engiflow/engiflow/internal/model"
	"github.com/engiflow/engiflow/internal/repository"
)

// ProjectHandler manages the project registry documents attach to.
type ProjectHandler struct {
	Projects *repository.ProjectRepo
}

func NewProjectHandler(p *repository.ProjectRepo) *ProjectHandler {
	return &ProjectHandler{Projects: p}
}

type createProjectReq struct {
	ProjectCode string `json:"project_code"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type projectView struct {
	ID          uint64 `json:"id"`
	ProjectCode string `json:"project_code"`
	Name        string `json:"name"`
	Description string `json:"description"`
	LastUpdated string `json:"last_updated"`
}

func toProjectView(p model.Project) projectView {
	return projectView{
		ID:          p.ID,
		ProjectCode: p.ProjectCode,
		Name:        p.Name,
		Description: p.Description,
		LastUpdated: p.LastUpdated.UTC().Format(time.RFC3339),
	}
}

// Create registers a new project. Codes are unique
// case-insensitively, so "str-2023" collides with "STR-2023".
func (h *ProjectHandler) Create(c echo.Context) error {
	var req createProjectReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.ProjectCode = strings.TrimSpace(req.ProjectCode)
	req.Name = strings.TrimSpace(req.Name)
	if req.ProjectCode == "" || req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "project_code/name required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	p, err := h.Projects.Create(ctx, req.ProjectCode, req.Name, strings.TrimSpace(req.Description))
	if err != nil {
		if err == repository.ErrProjectCodeExists {
			return c.JSON(http.StatusConflict, echo.Map{"error": "project code already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create project failed"})
	}
	return c.JSON(http.StatusCreated, toProjectView(p))
}

// List returns all projects ordered by most recent activity.
func (h *ProjectHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	projects, err := h.Projects.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]projectView, 0, len(projects))
	for _, p := range projects {
		out = append(out, toProjectView(p))
	}
	return c.JSON(http.StatusOK, echo.Map{"projects": out})
}
