package handler

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/engiflow/engiflow/internal/model"
	"github.com/engiflow/engiflow/internal/queue"
	"github.com/engiflow/engiflow/internal/repository"
	"github.com/engiflow/engiflow/internal/review"
	notifier "github.com/engiflow/engiflow/internal/service"
	"github.com/engiflow/engiflow/internal/utils"
)

// ActionHandler implements the e-sign confirmation gate. Status
// changes and comments are never applied directly: the client first
// stages the action, then confirms it with the account password.
// Confirming re-verifies everything inside a row-locked transaction,
// so a document that moved between staging and confirmation rejects
// the stale action instead of committing it.
type ActionHandler struct {
	Docs    *repository.DocumentRepo
	Users   *repository.UserRepo
	Actions *repository.ActionRepo
}

func NewActionHandler(d *repository.DocumentRepo, u *repository.UserRepo, a *repository.ActionRepo) *ActionHandler {
	return &ActionHandler{Docs: d, Users: u, Actions: a}
}

// reviewErrStatus maps the validation sentinels onto HTTP codes.
func reviewErrStatus(err error) int {
	switch err {
	case review.ErrCommentRequired, review.ErrBadStatus:
		return http.StatusBadRequest
	case review.ErrNotReviewer, review.ErrRoleForbidden:
		return http.StatusForbidden
	case review.ErrNotActionable:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

type stageReq struct {
	Type    string `json:"type"` // status_update | comment
	Status  string `json:"status,omitempty"`
	Comment string `json:"comment"`
}

type stagedView struct {
	ActionID   string `json:"action_id"`
	Type       string `json:"type"`
	DocumentID uint64 `json:"document_id"`
	Status     string `json:"status,omitempty"`
	Comment    string `json:"comment"`
	StagedAt   string `json:"staged_at"`
}

func toStagedView(a review.StagedAction) stagedView {
	return stagedView{
		ActionID:   a.ID,
		Type:       string(a.Type),
		DocumentID: a.DocumentID,
		Status:     string(a.Status),
		Comment:    a.Comment,
		StagedAt:   a.StagedAt.UTC().Format(time.RFC3339),
	}
}

// Stage validates an action against the current document state and
// parks it behind the confirmation gate. Staging a new action
// replaces any action the actor already had pending.
func (h *ActionHandler) Stage(c echo.Context) error {
	actor, err := currentActor(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid document id"})
	}

	var req stageReq
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

	now := time.Now().UTC()
	var staged review.StagedAction
	switch review.ActionType(req.Type) {
	case review.ActionStatusUpdate:
		staged, err = review.StageStatusUpdate(doc, actor, model.DocumentStatus(req.Status), req.Comment, now)
	case review.ActionComment:
		staged, err = review.StageComment(doc, actor, req.Comment, now)
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "type must be status_update or comment"})
	}
	if err != nil {
		return c.JSON(reviewErrStatus(err), echo.Map{"error": err.Error()})
	}

	if err := h.Actions.Stage(ctx, staged); err != nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "action store unavailable"})
	}
	return c.JSON(http.StatusAccepted, toStagedView(staged))
}

type confirmReq struct {
	ActionID string `json:"action_id"`
	Password string `json:"password"`
}

// Confirm finishes the gate: the actor re-enters the account
// password, the pending action is committed inside a locked
// transaction and the staged entry is cleared. A wrong password
// leaves the action pending so the client may retry.
func (h *ActionHandler) Confirm(c echo.Context) error {
	actor, err := currentActor(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var req confirmReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.ActionID) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "action_id required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	staged, err := h.Actions.Pending(ctx, actor.Email)
	if err != nil {
		if err == repository.ErrNoPendingAction {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "no pending action"})
		}
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "action store unavailable"})
	}
	if staged.ID != strings.TrimSpace(req.ActionID) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "action_id does not match the pending action"})
	}

	u, err := h.Users.GetByEmail(ctx, actor.Email)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	doc, entry, err := h.Docs.CommitStaged(ctx, staged, actor, time.Now().UTC())
	if err != nil {
		if err == repository.ErrDocumentNotFound {
			_ = h.Actions.Clear(ctx, actor.Email)
			return c.JSON(http.StatusNotFound, echo.Map{"error": "document not found"})
		}
		if code := reviewErrStatus(err); code != http.StatusInternalServerError {
			// the document changed since staging; the stale action is dropped
			_ = h.Actions.Clear(ctx, actor.Email)
			return c.JSON(code, echo.Map{"error": err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "commit failed"})
	}
	_ = h.Actions.Clear(ctx, actor.Email)

	notification := "sent"
	if err := notifier.PublishStatusUpdated(ctx, statusEvent(doc, entry)); err != nil {
		notification = "failed" // committed regardless, clients just see no email
	}

	resp := echo.Map{
		"document":     toDocumentView(doc),
		"entry":        toHistoryView(entry),
		"notification": notification,
	}
	if staged.Type == review.ActionStatusUpdate {
		resp["navigate"] = "documents"
	}
	return c.JSON(http.StatusOK, resp)
}

// Pending returns the actor's staged action, if any.
func (h *ActionHandler) Pending(c echo.Context) error {
	actor, err := currentActor(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	staged, err := h.Actions.Pending(ctx, actor.Email)
	if err != nil {
		if err == repository.ErrNoPendingAction {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "no pending action"})
		}
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "action store unavailable"})
	}
	return c.JSON(http.StatusOK, toStagedView(staged))
}

// Cancel discards the actor's staged action without applying it.
func (h *ActionHandler) Cancel(c echo.Context) error {
	actor, err := currentActor(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Actions.Clear(ctx, actor.Email); err != nil {
		log.Printf("action: clear pending for %s failed: %v", actor.Email, err)
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "action store unavailable"})
	}
	return c.NoContent(http.StatusNoContent)
}

func toHistoryView(e model.HistoryEntry) historyView {
	return historyView{
		ID:       e.ID,
		Status:   string(e.Status),
		Date:     e.Date.UTC().Format(time.RFC3339),
		UserName: e.UserName,
		Email:    e.UserEmail,
		Comment:  review.StripSignature(e.Comment),
		Version:  e.Version,
		ESigned:  review.IsSigned(e.Comment),
	}
}

// statusEvent builds the notification payload for a committed entry.
// Participants are the uploader plus every reviewer, minus the acting
// user, who does not need to be told about their own action.
func statusEvent(doc model.Document, entry model.HistoryEntry) queue.DocumentStatusEvent {
	seen := map[string]bool{strings.ToLower(entry.UserEmail): true}
	participants := []string{}
	for _, email := range append([]string{doc.UploadedByEmail}, reviewerEmails(doc)...) {
		k := strings.ToLower(strings.TrimSpace(email))
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		participants = append(participants, email)
	}
	return queue.DocumentStatusEvent{
		DocumentID:   doc.ID,
		DocumentName: doc.Name,
		ProjectCode:  doc.ProjectCode,
		NewStatus:    string(doc.Status),
		ActingUser:   entry.UserName,
		ActingEmail:  entry.UserEmail,
		Comment:      review.StripSignature(entry.Comment),
		Version:      entry.Version,
		ESigned:      review.IsSigned(entry.Comment),
		Participants: participants,
		OccurredAt:   entry.Date.UTC().Format(time.RFC3339),
	}
}

func reviewerEmails(doc model.Document) []string {
	out := make([]string, 0, len(doc.Reviewers))
	for _, r := range doc.Reviewers {
		out = append(out, r.Email)
	}
	return out
}
