package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/engiflow/engiflow/internal/collab"
	"github.com/engiflow/engiflow/internal/repository"
)

// CollabHandler exposes the advisory presence and typing signals for
// the document detail view.
type CollabHandler struct {
	Hub  *collab.Hub
	Docs *repository.DocumentRepo
}

func NewCollabHandler(hub *collab.Hub, d *repository.DocumentRepo) *CollabHandler {
	return &CollabHandler{Hub: hub, Docs: d}
}

type signalReq struct {
	Type    string `json:"type"` // doc-join | doc-leave | doc-comment-typing
	Content string `json:"content,omitempty"`
}

// Signal records a join, leave or typing event for the actor on a
// document. Signals are lossy and never checked against document
// access; they leak at most display names to other collaborators.
func (h *CollabHandler) Signal(c echo.Context) error {
	actor, err := currentActor(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid document id"})
	}

	var req signalReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	err = h.Hub.Signal(ctx, collab.Event{
		Type:    req.Type,
		DocID:   id,
		User:    actor.Name,
		Email:   actor.Email,
		Content: req.Content,
	})
	if err == collab.ErrUnknownSignal {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown signal type"})
	}
	if err != nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "signal not recorded"})
	}
	return c.NoContent(http.StatusAccepted)
}

// Presence returns who else is viewing or typing on a document.
func (h *CollabHandler) Presence(c echo.Context) error {
	actor, err := currentActor(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid document id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	p, err := h.Hub.PresenceFor(ctx, id, actor.Email)
	if err != nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "presence unavailable"})
	}
	return c.JSON(http.StatusOK, p)
}
