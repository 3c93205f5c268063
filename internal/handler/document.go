package handler

import (
	"context"
	"database/sql"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/engiflow/engiflow/internal/model"
	"github.com/engiflow/engiflow/internal/repository"
	"github.com/engiflow/engiflow/internal/review"
	"github.com/engiflow/engiflow/internal/utils"
)

// DocumentHandler serves uploads, listings and the detail view.
// Every mutation of review state goes through the staged-action
// endpoints instead; the only direct writes here are the upload
// itself and the two advisory fields (reminder, scratchpad).
// BcryptCost is used when hashing an optional document password.
type DocumentHandler struct {
	Docs       *repository.DocumentRepo
	Projects   *repository.ProjectRepo
	BcryptCost int
}

func NewDocumentHandler(d *repository.DocumentRepo, p *repository.ProjectRepo, bcryptCost int) *DocumentHandler {
	return &DocumentHandler{Docs: d, Projects: p, BcryptCost: bcryptCost}
}

// ----- DTOs -----

type uploadReq struct {
	Name        string           `json:"name"`
	Type        string           `json:"type"`
	ProjectCode string           `json:"project_code"`
	FileURL     string           `json:"file_url"`
	Password    string           `json:"password,omitempty"` // optional per-document access password
	Reviewers   []model.Reviewer `json:"reviewers"`
}

type historyView struct {
	ID       uint64 `json:"id"`
	Status   string `json:"status"`
	Date     string `json:"date"`
	UserName string `json:"user_name"`
	Email    string `json:"email"`
	Comment  string `json:"comment"`
	Version  int    `json:"version"`
	ESigned  bool   `json:"e_signed"`
}

type documentView struct {
	ID              uint64           `json:"id"`
	Name            string           `json:"name"`
	Type            string           `json:"type"`
	UploadedByName  string           `json:"uploaded_by_name"`
	UploadedByEmail string           `json:"uploaded_by_email"`
	UploadDate      string           `json:"upload_date"`
	Status          string           `json:"status"`
	Reviewers       []model.Reviewer `json:"reviewers"`
	History         []historyView    `json:"history"`
	ReminderDate    *string          `json:"reminder_date"`
	ProjectCode     string           `json:"project_code,omitempty"`
	Version         int              `json:"version"`
	IsLatest        bool             `json:"is_latest"`
	FileURL         string           `json:"file_url,omitempty"`
	Scratchpad      string           `json:"scratchpad"`
	Protected       bool             `json:"protected"`
}

type revisionView struct {
	ID         uint64 `json:"id"`
	Version    int    `json:"version"`
	Status     string `json:"status"`
	UploadDate string `json:"upload_date"`
	IsLatest   bool   `json:"is_latest"`
}

// toDocumentView flattens a document for the API. The signature
// marker is storage detail: history entries expose a clean comment
// plus an e_signed flag instead of the raw prefixed string.
func toDocumentView(d model.Document) documentView {
	hist := make([]historyView, 0, len(d.History))
	for _, e := range d.History {
		hist = append(hist, historyView{
			ID:       e.ID,
			Status:   string(e.Status),
			Date:     e.Date.UTC().Format(time.RFC3339),
			UserName: e.UserName,
			Email:    e.UserEmail,
			Comment:  review.StripSignature(e.Comment),
			Version:  e.Version,
			ESigned:  review.IsSigned(e.Comment),
		})
	}
	var reminder *string
	if d.ReminderDate != nil {
		s := d.ReminderDate.UTC().Format(time.RFC3339)
		reminder = &s
	}
	reviewers := d.Reviewers
	if reviewers == nil {
		reviewers = []model.Reviewer{}
	}
	return documentView{
		ID:              d.ID,
		Name:            d.Name,
		Type:            d.Type,
		UploadedByName:  d.UploadedByName,
		UploadedByEmail: d.UploadedByEmail,
		UploadDate:      d.UploadDate.UTC().Format(time.RFC3339),
		Status:          string(d.Status),
		Reviewers:       reviewers,
		History:         hist,
		ReminderDate:    reminder,
		ProjectCode:     d.ProjectCode,
		Version:         d.Version,
		IsLatest:        d.IsLatest,
		FileURL:         d.FileURL,
		Scratchpad:      d.Scratchpad,
		Protected:       d.Protected(),
	}
}

// lockView blanks the sensitive parts of a protected document for
// listings: metadata stays visible for the card, but history,
// scratchpad and file link require the document password.
func lockView(v documentView) documentView {
	v.History = []historyView{}
	v.Scratchpad = ""
	v.FileURL = ""
	return v
}

// docPasswordHeader is how clients supply a protected document's
// password on reads.
const docPasswordHeader = "X-Document-Password"

// docUnlocked reports whether the supplied password opens the
// document. Unprotected documents are always open.
func docUnlocked(d model.Document, password string) bool {
	if !d.Protected() {
		return true
	}
	return password != "" && utils.VerifyPassword(d.AccessHash, password)
}

// canSee reports whether the actor may open a document: the uploader
// and every assigned reviewer, regardless of role.
func canSee(d model.Document, email string) bool {
	if strings.EqualFold(strings.TrimSpace(email), d.UploadedByEmail) {
		return true
	}
	_, ok := review.RoleOf(d, email)
	return ok
}

// Upload creates a new document revision. Re-uploading a name already
// present in the project appends the next version to that group and
// demotes the previous latest; the first upload starts at v1. Either
// way the new revision enters review fresh, with its own reviewer set
// and a single submission history entry.
func (h *DocumentHandler) Upload(c echo.Context) error {
	actor, err := currentActor(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var req uploadReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Type = strings.TrimSpace(req.Type)
	req.ProjectCode = strings.TrimSpace(req.ProjectCode)
	if req.Name == "" || req.Type == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name/type required"})
	}
	for _, rv := range req.Reviewers {
		if strings.TrimSpace(rv.Email) == "" || !model.ValidRole(rv.Role) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reviewer entry"})
		}
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if req.ProjectCode != "" {
		if _, err := h.Projects.GetByCode(ctx, req.ProjectCode); err != nil {
			if err == sql.ErrNoRows {
				return c.JSON(http.StatusNotFound, echo.Map{"error": "project not found"})
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
		}
	}

	var accessHash string
	if req.Password != "" {
		if accessHash, err = utils.HashPassword(req.Password, h.BcryptCost); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "upload failed"})
		}
	}

	doc, err := h.Docs.CreateVersion(ctx, review.NewDocument{
		Name:        req.Name,
		Type:        req.Type,
		ProjectCode: req.ProjectCode,
		FileURL:     strings.TrimSpace(req.FileURL),
		AccessHash:  accessHash,
		Reviewers:   req.Reviewers,
	}, actor, time.Now().UTC())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "upload failed"})
	}

	if req.ProjectCode != "" {
		_ = h.Projects.Touch(ctx, req.ProjectCode, doc.UploadDate)
	}

	return c.JSON(http.StatusCreated, toDocumentView(doc))
}

// List returns the latest revisions visible to the actor, optionally
// narrowed to a single project via ?project=CODE.
func (h *DocumentHandler) List(c echo.Context) error {
	actor, err := currentActor(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	var docs []model.Document
	if project := strings.TrimSpace(c.QueryParam("project")); project != "" {
		docs, err = h.Docs.ListByProject(ctx, actor.Email, project)
	} else {
		docs, err = h.Docs.ListVisible(ctx, actor.Email)
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	out := make([]documentView, 0, len(docs))
	for _, d := range docs {
		v := toDocumentView(d)
		if d.Protected() {
			v = lockView(v)
		}
		out = append(out, v)
	}
	return c.JSON(http.StatusOK, echo.Map{"documents": out})
}

// ListForProject returns the latest revisions of one project visible
// to the actor, a deep-linkable spelling of GET /documents?project=.
func (h *DocumentHandler) ListForProject(c echo.Context) error {
	actor, err := currentActor(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	code := strings.TrimSpace(c.Param("code"))

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Projects.GetByCode(ctx, code); err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "project not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	docs, err := h.Docs.ListByProject(ctx, actor.Email, code)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]documentView, 0, len(docs))
	for _, d := range docs {
		v := toDocumentView(d)
		if d.Protected() {
			v = lockView(v)
		}
		out = append(out, v)
	}
	return c.JSON(http.StatusOK, echo.Map{"documents": out})
}

// Detail returns one document together with the actor's role on it
// and the full revision chain of its group, newest first.
func (h *DocumentHandler) Detail(c echo.Context) error {
	actor, err := currentActor(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid document id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	doc, err := h.Docs.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrDocumentNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "document not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !canSee(doc, actor.Email) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "no access to this document"})
	}
	// the document password guards details and history for everyone,
	// the uploader included
	if !docUnlocked(doc, c.Request().Header.Get(docPasswordHeader)) {
		return c.JSON(http.StatusForbidden, echo.Map{
			"error":     "document password required",
			"protected": true,
		})
	}

	group, err := h.Docs.GroupOf(ctx, doc.Name, doc.ProjectCode)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	revisions := make([]revisionView, 0, len(group))
	for _, d := range review.Revisions(group) {
		revisions = append(revisions, revisionView{
			ID:         d.ID,
			Version:    d.Version,
			Status:     string(d.Status),
			UploadDate: d.UploadDate.UTC().Format(time.RFC3339),
			IsLatest:   d.IsLatest,
		})
	}

	role, _ := review.RoleOf(doc, actor.Email)
	return c.JSON(http.StatusOK, echo.Map{
		"document":  toDocumentView(doc),
		"role":      role,
		"can_act":   review.CanAct(doc, role),
		"revisions": revisions,
	})
}

type reminderReq struct {
	ReminderDate *string `json:"reminder_date"` // RFC 3339, null clears
}

// SetReminder sets or clears the follow-up reminder on a document.
func (h *DocumentHandler) SetReminder(c echo.Context) error {
	actor, err := currentActor(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid document id"})
	}

	var req reminderReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	var when *time.Time
	if req.ReminderDate != nil {
		t, err := time.Parse(time.RFC3339, *req.ReminderDate)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "reminder_date must be RFC 3339"})
		}
		u := t.UTC()
		when = &u
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	doc, err := h.Docs.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrDocumentNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "document not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !canSee(doc, actor.Email) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "no access to this document"})
	}

	if err := h.Docs.SetReminder(ctx, id, when); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

type scratchpadReq struct {
	Content string `json:"content"`
}

// UpdateScratchpad replaces the shared notes on a document. Last
// write wins; the scratchpad carries no history.
func (h *DocumentHandler) UpdateScratchpad(c echo.Context) error {
	actor, err := currentActor(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid document id"})
	}

	var req scratchpadReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	doc, err := h.Docs.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrDocumentNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "document not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !canSee(doc, actor.Email) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "no access to this document"})
	}

	if err := h.Docs.UpdateScratchpad(ctx, id, req.Content); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
