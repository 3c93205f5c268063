package review

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/engiflow/engiflow/internal/model"
)

func TestStageStatusUpdate_ValidatesBeforeStaging(t *testing.T) {
	doc := reviewDoc()
	now := time.Now().UTC()

	// a blank comment on a rejection never opens the gate
	_, err := StageStatusUpdate(doc, alice, model.StatusRejected, "  ", now)
	require.ErrorIs(t, err, ErrCommentRequired)

	// a viewer never opens the gate
	_, err = StageStatusUpdate(doc, carol, model.StatusApproved, "x", now)
	require.ErrorIs(t, err, ErrRoleForbidden)

	staged, err := StageStatusUpdate(doc, alice, model.StatusApproved, "lgtm", now)
	require.NoError(t, err)
	require.NotEmpty(t, staged.ID)
	require.Equal(t, ActionStatusUpdate, staged.Type)
	require.Equal(t, doc.ID, staged.DocumentID)
	require.Equal(t, model.StatusApproved, staged.Status)
	require.Equal(t, "alice@x.com", staged.ActorEmail)

	// staging alone mutates nothing
	require.Equal(t, model.StatusInReview, doc.Status)
	require.Len(t, doc.History, 1)
}

func TestStageComment(t *testing.T) {
	doc := reviewDoc()

	_, err := StageComment(doc, dave, "", time.Now().UTC())
	require.ErrorIs(t, err, ErrCommentRequired)

	staged, err := StageComment(doc, dave, "typo on page 2", time.Now().UTC())
	require.NoError(t, err)
	require.Equal(t, ActionComment, staged.Type)
	require.Empty(t, staged.Status)
}

// End-to-end: stage, confirm, commit. Mirrors the approval flow where
// alice approves v1 of a document with comment "lgtm".
func TestStagedActionCommit_StatusUpdate(t *testing.T) {
	doc := reviewDoc()
	now := time.Date(2024, 6, 1, 8, 30, 0, 0, time.UTC)

	staged, err := StageStatusUpdate(doc, alice, model.StatusApproved, "lgtm", now)
	require.NoError(t, err)

	entry, err := staged.Commit(&doc, alice, now.Add(time.Minute))
	require.NoError(t, err)

	require.Equal(t, model.StatusApproved, doc.Status)
	require.Len(t, doc.History, 2)
	require.Equal(t, model.StatusApproved, entry.Status)
	require.Equal(t, "[E-signed] lgtm", entry.Comment)
	require.Equal(t, 1, entry.Version)
	require.Equal(t, "alice@x.com", entry.UserEmail)
}

func TestStagedActionCommit_Comment(t *testing.T) {
	doc := reviewDoc()

	staged, err := StageComment(doc, dave, "typo on page 2", time.Now().UTC())
	require.NoError(t, err)

	entry, err := staged.Commit(&doc, dave, time.Now().UTC())
	require.NoError(t, err)
	require.Equal(t, model.StatusCommented, doc.Status)
	require.Equal(t, "[E-signed] typo on page 2", entry.Comment)
}

// A document that changed after staging is re-validated at commit
// time, so a stale staged action cannot act on a locked document.
func TestStagedActionCommit_RevalidatesAtCommit(t *testing.T) {
	doc := reviewDoc()
	staged, err := StageStatusUpdate(doc, alice, model.StatusInProgress, "starting", time.Now().UTC())
	require.NoError(t, err)

	// someone else approved in between
	_, err = ApplyTransition(&doc, alice, model.StatusApproved, "", false, time.Now().UTC())
	require.NoError(t, err)

	_, err = staged.Commit(&doc, alice, time.Now().UTC())
	require.ErrorIs(t, err, ErrNotActionable)
	require.Len(t, doc.History, 2)
}

func TestStagedActionCommit_UnknownTypeRejected(t *testing.T) {
	doc := reviewDoc()
	bad := StagedAction{Type: ActionType("bogus"), DocumentID: doc.ID, ActorEmail: alice.Email}
	_, err := bad.Commit(&doc, alice, time.Now().UTC())
	require.ErrorIs(t, err, ErrBadStatus)
}
