package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/engiflow/engiflow/internal/model"
	"github.com/engiflow/engiflow/internal/repository"
)

// DashboardHandler serves the per-user summary shown on the landing
// page: how many of the user's current documents sit in each state.
type DashboardHandler struct {
	Docs *repository.DocumentRepo
}

func NewDashboardHandler(d *repository.DocumentRepo) *DashboardHandler {
	return &DashboardHandler{Docs: d}
}

// Summary counts the latest revisions visible to the actor by status.
// Zero statuses are reported explicitly so clients render stable
// cards.
func (h *DashboardHandler) Summary(c echo.Context) error {
	actor, err := currentActor(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	counts, err := h.Docs.StatusCounts(ctx, actor.Email)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	total := 0
	byStatus := map[string]int{}
	for _, s := range []model.DocumentStatus{
		model.StatusInReview, model.StatusInProgress,
		model.StatusApproved, model.StatusRejected, model.StatusCommented,
	} {
		byStatus[string(s)] = counts[s]
		total += counts[s]
	}
	return c.JSON(http.StatusOK, echo.Map{
		"total":     total,
		"by_status": byStatus,
	})
}
