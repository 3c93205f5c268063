package review

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/engiflow/engiflow/internal/model"
)

// Sentinel errors returned by the validation and apply functions.
// Handlers map these onto HTTP status codes: ErrCommentRequired and
// ErrBadStatus are validation errors (400), ErrNotReviewer,
// ErrRoleForbidden and ErrNotActionable are authorization errors
// (403) that must stop a request before it ever reaches the
// confirmation gate.
var (
	ErrNotReviewer     = errors.New("user is not a reviewer on this document")
	ErrRoleForbidden   = errors.New("role may not perform this action")
	ErrNotActionable   = errors.New("document status does not permit actions")
	ErrCommentRequired = errors.New("a non-empty comment is required")
	ErrBadStatus       = errors.New("unknown or disallowed target status")
)

// AllowedTarget reports whether a reviewer role may move a document
// from its current status to the target status.  Approvers may
// approve or reject from any actionable state and may set
// In Progress only while the document is still In Review.
// Commenters never change status directly; their comments set
// Commented as a side effect of ApplyComment instead.
func AllowedTarget(role model.ReviewerRole, current, target model.DocumentStatus) bool {
	if role != model.RoleApprover {
		return false
	}
	switch target {
	case model.StatusApproved, model.StatusRejected:
		return true
	case model.StatusInProgress:
		return current == model.StatusInReview
	}
	return false
}

// validateStatusUpdate runs the full precondition stack for a status
// change request: reviewer membership, actionable status, target
// legality for the role, and the comment rules.  Rejection always
// requires a comment, and so does every non-approval target; only
// Approved may be committed without one.
func validateStatusUpdate(doc model.Document, actorEmail string, target model.DocumentStatus, comment string) (model.ReviewerRole, error) {
	role, ok := RoleOf(doc, actorEmail)
	if !ok {
		return "", ErrNotReviewer
	}
	if !CanAct(doc, role) {
		if role == model.RoleViewer {
			return role, ErrRoleForbidden
		}
		return role, ErrNotActionable
	}
	if !model.ValidStatus(target) {
		return role, ErrBadStatus
	}
	if !AllowedTarget(role, doc.Status, target) {
		return role, ErrRoleForbidden
	}
	if target != model.StatusApproved && strings.TrimSpace(comment) == "" {
		return role, ErrCommentRequired
	}
	return role, nil
}

// validateComment checks a comment-only action: the actor must be an
// eligible reviewer, the document must be actionable, and the
// comment must not be blank.
func validateComment(doc model.Document, actorEmail, comment string) (model.ReviewerRole, error) {
	role, ok := RoleOf(doc, actorEmail)
	if !ok {
		return "", ErrNotReviewer
	}
	if !CanAct(doc, role) {
		if role == model.RoleViewer {
			return role, ErrRoleForbidden
		}
		return role, ErrNotActionable
	}
	if strings.TrimSpace(comment) == "" {
		return role, ErrCommentRequired
	}
	return role, nil
}

// ApplyTransition validates and commits a status change on the
// document value: it appends exactly one history entry and sets the
// new status, leaving every existing entry untouched.  When signed
// is true the entry's comment carries the signature marker; an empty
// comment on an approval is replaced by a generated
// "Status changed to ..." note so the audit trail never records a
// blank signed entry.  On any validation error the document is left
// completely unchanged.
func ApplyTransition(doc *model.Document, actor model.User, target model.DocumentStatus, comment string, signed bool, now time.Time) (model.HistoryEntry, error) {
	if _, err := validateStatusUpdate(*doc, actor.Email, target, comment); err != nil {
		return model.HistoryEntry{}, err
	}
	text := strings.TrimSpace(comment)
	if text == "" {
		text = fmt.Sprintf("Status changed to %s", target)
	}
	if signed {
		text = SignComment(text)
	}
	entry := model.HistoryEntry{
		Status:    target,
		Date:      now,
		UserName:  actor.Name,
		UserEmail: actor.Email,
		Comment:   text,
		Version:   doc.Version,
	}
	doc.Status = target
	doc.History = append(doc.History, entry)
	return entry, nil
}

// ApplyComment validates and commits a comment-only action.  A
// Commenter's feedback moves the document to Commented; an
// Approver's note leaves the current status unchanged.  Exactly one
// history entry is appended either way.
func ApplyComment(doc *model.Document, actor model.User, comment string, signed bool, now time.Time) (model.HistoryEntry, error) {
	role, err := validateComment(*doc, actor.Email, comment)
	if err != nil {
		return model.HistoryEntry{}, err
	}
	status := doc.Status
	if role == model.RoleCommenter {
		status = model.StatusCommented
	}
	text := strings.TrimSpace(comment)
	if signed {
		text = SignComment(text)
	}
	entry := model.HistoryEntry{
		Status:    status,
		Date:      now,
		UserName:  actor.Name,
		UserEmail: actor.Email,
		Comment:   text,
		Version:   doc.Version,
	}
	doc.Status = status
	doc.History = append(doc.History, entry)
	return entry, nil
}
