package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/engiflow/engiflow/internal/repository"
)

// SearchHandler serves the global document search box.
type SearchHandler struct {
	Docs *repository.DocumentRepo
}

func NewSearchHandler(d *repository.DocumentRepo) *SearchHandler {
	return &SearchHandler{Docs: d}
}

// Documents filters the documents visible to the actor. Query params:
// q (free text over name, type, uploader), project, status, latest,
// page, page_size.
func (h *SearchHandler) Documents(c echo.Context) error {
	actor, err := currentActor(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	q := repository.DocumentSearchQuery{
		Text:    c.QueryParam("q"),
		Project: c.QueryParam("project"),
		Status:  c.QueryParam("status"),
	}
	if v := c.QueryParam("latest"); v != "" {
		q.LatestOnly, _ = strconv.ParseBool(v)
	}
	if v := c.QueryParam("page"); v != "" {
		q.Page, _ = strconv.Atoi(v)
	}
	if v := c.QueryParam("page_size"); v != "" {
		q.PageSize, _ = strconv.Atoi(v)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rows, total, err := h.Docs.Search(ctx, actor.Email, q)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "search failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"results": rows,
		"total":   total,
		"page":    maxInt(q.Page, 1),
	})
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
