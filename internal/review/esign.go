package review

import (
	"time"

	"github.com/google/uuid"

	"github.com/engiflow/engiflow/internal/model"
)

// ActionType discriminates the two kinds of action that can be
// staged behind the confirmation gate.
type ActionType string

const (
	ActionStatusUpdate ActionType = "status_update"
	ActionComment      ActionType = "comment"
)

// StagedAction is a validated action waiting for e-sign
// confirmation.  It is a tagged union on Type: Status is meaningful
// only for status_update actions and is empty for comments.  Each
// actor has at most one staged action at a time; staging a new one
// replaces any pending one (no queueing).  The lifecycle is
// Idle -> PendingConfirmation -> Committed|Cancelled, where this
// struct is the PendingConfirmation state.
type StagedAction struct {
	ID         string               `json:"id"`     // confirmation handle returned to the client
	Type       ActionType           `json:"type"`   // status_update | comment
	DocumentID uint64               `json:"document_id"`
	Status     model.DocumentStatus `json:"status,omitempty"` // target status, status_update only
	Comment    string               `json:"comment"`
	ActorEmail string               `json:"actor_email"`
	StagedAt   time.Time            `json:"staged_at"`
}

// StageStatusUpdate validates a status change request against the
// document and, if legal, returns a staged action ready for
// confirmation.  Nothing is mutated; a validation or authorization
// error means the gate is never opened.
func StageStatusUpdate(doc model.Document, actor model.User, target model.DocumentStatus, comment string, now time.Time) (StagedAction, error) {
	if _, err := validateStatusUpdate(doc, actor.Email, target, comment); err != nil {
		return StagedAction{}, err
	}
	return StagedAction{
		ID:         uuid.NewString(),
		Type:       ActionStatusUpdate,
		DocumentID: doc.ID,
		Status:     target,
		Comment:    comment,
		ActorEmail: actor.Email,
		StagedAt:   now,
	}, nil
}

// StageComment validates a comment-only request and returns the
// staged action for confirmation.
func StageComment(doc model.Document, actor model.User, comment string, now time.Time) (StagedAction, error) {
	if _, err := validateComment(doc, actor.Email, comment); err != nil {
		return StagedAction{}, err
	}
	return StagedAction{
		ID:         uuid.NewString(),
		Type:       ActionComment,
		DocumentID: doc.ID,
		Comment:    comment,
		ActorEmail: actor.Email,
		StagedAt:   now,
	}, nil
}

// Commit applies a confirmed staged action to the document and
// returns the resulting signed history entry.  The credential check
// happens before this call; Commit re-runs the full validation so a
// document that changed between staging and confirmation cannot slip
// through an outdated check.
func (a StagedAction) Commit(doc *model.Document, actor model.User, now time.Time) (model.HistoryEntry, error) {
	switch a.Type {
	case ActionStatusUpdate:
		return ApplyTransition(doc, actor, a.Status, a.Comment, true, now)
	case ActionComment:
		return ApplyComment(doc, actor, a.Comment, true, now)
	}
	return model.HistoryEntry{}, ErrBadStatus
}
