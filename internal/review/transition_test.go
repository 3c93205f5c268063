package review

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/engiflow/engiflow/internal/model"
)

var (
	alice = model.User{Name: "Alice Johnson", Email: "alice@x.com"}
	carol = model.User{Name: "Carol Viewer", Email: "carol@x.com"}
	dave  = model.User{Name: "Dave Commenter", Email: "dave@x.com"}
)

func reviewDoc() model.Document {
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	return model.Document{
		ID:              1,
		Name:            "drawing.pdf",
		Type:            "PDF",
		UploadedByName:  "Bob Manager",
		UploadedByEmail: "bob@x.com",
		Status:          model.StatusInReview,
		ProjectCode:     "P1",
		Version:         1,
		IsLatest:        true,
		Reviewers: []model.Reviewer{
			{Email: "alice@x.com", Role: model.RoleApprover},
			{Email: "carol@x.com", Role: model.RoleViewer},
			{Email: "dave@x.com", Role: model.RoleCommenter},
		},
		History: []model.HistoryEntry{{
			Status:    model.StatusInReview,
			Date:      now,
			UserName:  "Bob Manager",
			UserEmail: "bob@x.com",
			Comment:   "Document v1 created and sent for review.",
			Version:   1,
		}},
	}
}

func TestRoleOf(t *testing.T) {
	doc := reviewDoc()

	role, ok := RoleOf(doc, "alice@x.com")
	require.True(t, ok)
	require.Equal(t, model.RoleApprover, role)

	// lookup is case/whitespace insensitive on the probe side
	role, ok = RoleOf(doc, "  ALICE@X.COM ")
	require.True(t, ok)
	require.Equal(t, model.RoleApprover, role)

	// the uploader has no implicit role
	_, ok = RoleOf(doc, "bob@x.com")
	require.False(t, ok)
}

func TestCanAct(t *testing.T) {
	doc := reviewDoc()
	require.True(t, CanAct(doc, model.RoleApprover))
	require.True(t, CanAct(doc, model.RoleCommenter))
	require.False(t, CanAct(doc, model.RoleViewer))

	doc.Status = model.StatusInProgress
	require.True(t, CanAct(doc, model.RoleApprover))

	// terminal and commented states are locked for everyone
	for _, s := range []model.DocumentStatus{model.StatusApproved, model.StatusRejected, model.StatusCommented} {
		doc.Status = s
		require.False(t, CanAct(doc, model.RoleApprover), "status %s", s)
		require.False(t, CanAct(doc, model.RoleCommenter), "status %s", s)
	}
}

func TestAllowedTarget(t *testing.T) {
	require.True(t, AllowedTarget(model.RoleApprover, model.StatusInReview, model.StatusApproved))
	require.True(t, AllowedTarget(model.RoleApprover, model.StatusInProgress, model.StatusRejected))
	require.True(t, AllowedTarget(model.RoleApprover, model.StatusInReview, model.StatusInProgress))

	// In Progress may only be set from In Review
	require.False(t, AllowedTarget(model.RoleApprover, model.StatusInProgress, model.StatusInProgress))

	// commenters never set a status directly
	require.False(t, AllowedTarget(model.RoleCommenter, model.StatusInReview, model.StatusCommented))
	require.False(t, AllowedTarget(model.RoleViewer, model.StatusInReview, model.StatusApproved))
}

func TestApplyTransition_Approve(t *testing.T) {
	doc := reviewDoc()
	now := time.Date(2024, 3, 2, 9, 0, 0, 0, time.UTC)

	entry, err := ApplyTransition(&doc, alice, model.StatusApproved, "lgtm", false, now)
	require.NoError(t, err)
	require.Equal(t, model.StatusApproved, doc.Status)
	require.Len(t, doc.History, 2)
	require.Equal(t, entry, doc.History[1])
	require.Equal(t, "lgtm", entry.Comment)
	require.Equal(t, "alice@x.com", entry.UserEmail)
	require.Equal(t, 1, entry.Version)
}

func TestApplyTransition_HistoryAppendOnly(t *testing.T) {
	doc := reviewDoc()
	first := doc.History[0]

	_, err := ApplyTransition(&doc, alice, model.StatusInProgress, "taking a look", false, time.Now().UTC())
	require.NoError(t, err)
	_, err = ApplyTransition(&doc, alice, model.StatusApproved, "", false, time.Now().UTC())
	require.NoError(t, err)

	// earlier entries are never rewritten by later operations
	require.Len(t, doc.History, 3)
	require.Equal(t, first, doc.History[0])
	require.Equal(t, model.StatusInProgress, doc.History[1].Status)
}

func TestApplyTransition_ApproveWithoutCommentGetsGeneratedNote(t *testing.T) {
	doc := reviewDoc()
	entry, err := ApplyTransition(&doc, alice, model.StatusApproved, "  ", true, time.Now().UTC())
	require.NoError(t, err)
	require.Equal(t, SignComment("Status changed to Approved"), entry.Comment)
}

func TestApplyTransition_RejectRequiresComment(t *testing.T) {
	doc := reviewDoc()

	_, err := ApplyTransition(&doc, alice, model.StatusRejected, "   ", false, time.Now().UTC())
	require.ErrorIs(t, err, ErrCommentRequired)

	// no mutation on a failed validation
	require.Equal(t, model.StatusInReview, doc.Status)
	require.Len(t, doc.History, 1)
}

func TestApplyTransition_InProgressRequiresComment(t *testing.T) {
	doc := reviewDoc()
	_, err := ApplyTransition(&doc, alice, model.StatusInProgress, "", false, time.Now().UTC())
	require.ErrorIs(t, err, ErrCommentRequired)
}

func TestApplyTransition_RoleGating(t *testing.T) {
	doc := reviewDoc()

	// viewers can never transition
	_, err := ApplyTransition(&doc, carol, model.StatusApproved, "sneaky", false, time.Now().UTC())
	require.ErrorIs(t, err, ErrRoleForbidden)

	// non-reviewers (including the uploader) can never transition
	_, err = ApplyTransition(&doc, model.User{Name: "Bob Manager", Email: "bob@x.com"}, model.StatusApproved, "", false, time.Now().UTC())
	require.ErrorIs(t, err, ErrNotReviewer)

	// commenters may not request a status target directly
	_, err = ApplyTransition(&doc, dave, model.StatusApproved, "looks fine", false, time.Now().UTC())
	require.ErrorIs(t, err, ErrRoleForbidden)

	require.Equal(t, model.StatusInReview, doc.Status)
	require.Len(t, doc.History, 1)
}

func TestApplyTransition_TerminalStateLocked(t *testing.T) {
	doc := reviewDoc()
	_, err := ApplyTransition(&doc, alice, model.StatusApproved, "", false, time.Now().UTC())
	require.NoError(t, err)

	_, err = ApplyTransition(&doc, alice, model.StatusRejected, "changed my mind", false, time.Now().UTC())
	require.ErrorIs(t, err, ErrNotActionable)
	require.Len(t, doc.History, 2)
}

func TestApplyComment_CommenterSetsCommented(t *testing.T) {
	doc := reviewDoc()

	entry, err := ApplyComment(&doc, dave, "please fix the title block", false, time.Now().UTC())
	require.NoError(t, err)
	require.Equal(t, model.StatusCommented, doc.Status)
	require.Equal(t, model.StatusCommented, entry.Status)
	require.Len(t, doc.History, 2)
}

func TestApplyComment_ApproverLeavesStatus(t *testing.T) {
	doc := reviewDoc()
	doc.Status = model.StatusInProgress

	entry, err := ApplyComment(&doc, alice, "note for the record", false, time.Now().UTC())
	require.NoError(t, err)
	require.Equal(t, model.StatusInProgress, doc.Status)
	require.Equal(t, model.StatusInProgress, entry.Status)
}

func TestApplyComment_Preconditions(t *testing.T) {
	doc := reviewDoc()

	_, err := ApplyComment(&doc, dave, "   ", false, time.Now().UTC())
	require.ErrorIs(t, err, ErrCommentRequired)

	_, err = ApplyComment(&doc, carol, "viewer note", false, time.Now().UTC())
	require.ErrorIs(t, err, ErrRoleForbidden)

	doc.Status = model.StatusRejected
	_, err = ApplyComment(&doc, dave, "too late", false, time.Now().UTC())
	require.ErrorIs(t, err, ErrNotActionable)
}

func TestSignatureMarker(t *testing.T) {
	require.True(t, IsSigned(SignComment("lgtm")))
	require.False(t, IsSigned("lgtm"))
	require.Equal(t, "lgtm", StripSignature("[E-signed] lgtm"))
	require.Equal(t, "plain", StripSignature("plain"))
}
