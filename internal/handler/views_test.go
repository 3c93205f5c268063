package handler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/engiflow/engiflow/internal/model"
	"github.com/engiflow/engiflow/internal/review"
	"github.com/engiflow/engiflow/internal/utils"
)

func sampleDoc() model.Document {
	return model.Document{
		ID:              7,
		Name:            "Structural Plans v2.pdf",
		Type:            "PDF",
		UploadedByName:  "Alice Johnson",
		UploadedByEmail: "alice.j@example.com",
		UploadDate:      time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC),
		Status:          model.StatusApproved,
		ProjectCode:     "STR-2023",
		Version:         2,
		IsLatest:        true,
		Reviewers: []model.Reviewer{
			{Email: "bob.m@example.com", Role: model.RoleApprover},
			{Email: "carol.s@example.com", Role: model.RoleCommenter},
			{Email: "Bob.M@example.com", Role: model.RoleViewer}, // duplicate address, different case
		},
		History: []model.HistoryEntry{
			{
				ID: 1, Status: model.StatusInReview,
				Date:     time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC),
				UserName: "Alice Johnson", UserEmail: "alice.j@example.com",
				Comment: "Document v2 created and sent for review.", Version: 2,
			},
			{
				ID: 2, Status: model.StatusApproved,
				Date:     time.Date(2026, 8, 31, 14, 30, 0, 0, time.UTC),
				UserName: "Bob Manager", UserEmail: "bob.m@example.com",
				Comment: review.SignComment("Looks good."), Version: 2,
			},
		},
	}
}

func TestDocumentViewStripsSignatureMarker(t *testing.T) {
	v := toDocumentView(sampleDoc())

	require.Len(t, v.History, 2)
	require.Equal(t, "Document v2 created and sent for review.", v.History[0].Comment)
	require.False(t, v.History[0].ESigned)
	require.Equal(t, "Looks good.", v.History[1].Comment)
	require.True(t, v.History[1].ESigned)
	require.Equal(t, "2026-08-31T14:30:00Z", v.History[1].Date)
}

func TestDocumentViewNilFields(t *testing.T) {
	doc := sampleDoc()
	doc.Reviewers = nil
	doc.ReminderDate = nil

	v := toDocumentView(doc)
	require.NotNil(t, v.Reviewers, "reviewers must serialize as [] not null")
	require.Nil(t, v.ReminderDate)

	when := time.Date(2026, 9, 15, 8, 0, 0, 0, time.UTC)
	doc.ReminderDate = &when
	v = toDocumentView(doc)
	require.NotNil(t, v.ReminderDate)
	require.Equal(t, "2026-09-15T08:00:00Z", *v.ReminderDate)
}

func TestStatusEventParticipants(t *testing.T) {
	doc := sampleDoc()
	entry := doc.History[1] // committed by bob.m

	ev := statusEvent(doc, entry)

	// uploader included, acting user and case-duplicates excluded
	require.Equal(t, []string{"alice.j@example.com", "carol.s@example.com"}, ev.Participants)
	require.Equal(t, "Approved", ev.NewStatus)
	require.Equal(t, "Looks good.", ev.Comment, "signature marker stays out of notifications")
	require.True(t, ev.ESigned)
	require.Equal(t, "2026-08-31T14:30:00Z", ev.OccurredAt)
}

func TestDocumentPasswordGate(t *testing.T) {
	open := sampleDoc()
	require.True(t, docUnlocked(open, ""), "unprotected documents never require a password")

	hash, err := utils.HashPassword("s3cret", 4)
	require.NoError(t, err)
	locked := sampleDoc()
	locked.AccessHash = hash

	require.False(t, docUnlocked(locked, ""))
	require.False(t, docUnlocked(locked, "wrong"))
	require.True(t, docUnlocked(locked, "s3cret"))

	v := toDocumentView(locked)
	require.True(t, v.Protected)
	require.False(t, toDocumentView(open).Protected)
}

func TestLockViewHidesSensitiveFields(t *testing.T) {
	doc := sampleDoc()
	doc.AccessHash = "x"
	doc.FileURL = "https://files.example.com/plans.pdf"
	doc.Scratchpad = "meeting notes"

	v := lockView(toDocumentView(doc))

	require.Empty(t, v.History)
	require.Empty(t, v.Scratchpad)
	require.Empty(t, v.FileURL)
	// card metadata stays visible
	require.Equal(t, doc.Name, v.Name)
	require.Equal(t, string(doc.Status), v.Status)
	require.True(t, v.Protected)
}

func TestReviewErrStatusMapping(t *testing.T) {
	cases := map[error]int{
		review.ErrCommentRequired: 400,
		review.ErrBadStatus:       400,
		review.ErrNotReviewer:     403,
		review.ErrRoleForbidden:   403,
		review.ErrNotActionable:   409,
	}
	for err, want := range cases {
		require.Equal(t, want, reviewErrStatus(err), err.Error())
	}
	require.Equal(t, 500, reviewErrStatus(nil))
}
