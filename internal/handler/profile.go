package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/engiflow/engiflow/internal/repository"
)

// ProfileHandler serves the authenticated user's profile. Renames
// fan out into the denormalized display-name columns on documents and
// history so old audit entries keep showing the current name.
type ProfileHandler struct {
	Users *repository.UserRepo
	Docs  *repository.DocumentRepo
}

func NewProfileHandler(u *repository.UserRepo, d *repository.DocumentRepo) *ProfileHandler {
	return &ProfileHandler{Users: u, Docs: d}
}

type updateProfileReq struct {
	Name     string `json:"name"`
	PhotoURL string `json:"photo_url"`
}

// Get returns the stored profile of the authenticated user.
func (h *ProfileHandler) Get(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
	}
	return c.JSON(http.StatusOK, userPart{ID: u.ID, Name: u.Name, Email: u.Email, PhotoURL: u.PhotoURL})
}

// Update changes name and photo. A changed name triggers the rename
// sweep over uploaded_by_name and history user_name; the user's email
// is the durable key so nothing else moves.
func (h *ProfileHandler) Update(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var req updateProfileReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
	}

	if err := h.Users.UpdateProfile(ctx, uid, req.Name, strings.TrimSpace(req.PhotoURL)); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}

	if req.Name != u.Name {
		if err := h.Docs.RenameUserSweep(ctx, u.Email, u.Name, req.Name); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "rename sweep failed"})
		}
	}

	return c.JSON(http.StatusOK, userPart{ID: uid, Name: req.Name, Email: u.Email, PhotoURL: strings.TrimSpace(req.PhotoURL)})
}
