package review

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/engiflow/engiflow/internal/model"
)

func TestNextVersion(t *testing.T) {
	require.Equal(t, 1, NextVersion(nil))
	require.Equal(t, 1, NextVersion([]model.Document{}))
	require.Equal(t, 4, NextVersion([]model.Document{{Version: 2}, {Version: 3}, {Version: 1}}))
}

func TestNewRevision_FirstUpload(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	uploader := model.User{Name: "Bob Manager", Email: "bob@x.com"}
	meta := NewDocument{
		Name:        "drawing.pdf",
		Type:        "PDF",
		ProjectCode: "P1",
		AccessHash:  "bcrypt-digest",
		Reviewers:   []model.Reviewer{{Email: "alice@x.com", Role: model.RoleApprover}},
	}

	doc := NewRevision(meta, uploader, nil, now)
	require.Equal(t, 1, doc.Version)
	require.Equal(t, "bcrypt-digest", doc.AccessHash, "document password protection carries onto the revision")
	require.True(t, doc.Protected())
	require.True(t, doc.IsLatest)
	require.Equal(t, model.StatusInReview, doc.Status)
	require.Len(t, doc.History, 1)
	require.Equal(t, "Document v1 created and sent for review.", doc.History[0].Comment)
	require.Equal(t, "bob@x.com", doc.History[0].UserEmail)
	require.Equal(t, 1, doc.History[0].Version)
}

func TestVersioning_MonotonicAcrossUploads(t *testing.T) {
	uploader := model.User{Name: "Bob Manager", Email: "bob@x.com"}
	meta := NewDocument{Name: "drawing.pdf", Type: "PDF", ProjectCode: "P1"}
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	var group []model.Document
	for i := 0; i < 5; i++ {
		next := NewRevision(meta, uploader, group, now.Add(time.Duration(i)*time.Hour))
		// demote previous revisions, as the storage layer does in the same transaction
		for j := range group {
			group[j].IsLatest = false
		}
		group = append(group, next)
	}

	latest := 0
	for i, d := range group {
		require.Equal(t, i+1, d.Version, "versions are exactly 1..n in upload order")
		require.Equal(t, fmt.Sprintf("Document v%d created and sent for review.", i+1), d.History[0].Comment)
		if d.IsLatest {
			latest++
			require.Equal(t, len(group), d.Version, "only the max version is latest")
		}
	}
	require.Equal(t, 1, latest, "exactly one latest revision per group")
}

func TestRevisions_SortedDescending(t *testing.T) {
	group := []model.Document{{Version: 1}, {Version: 3}, {Version: 2}}
	revs := Revisions(group)
	require.Equal(t, []int{3, 2, 1}, []int{revs[0].Version, revs[1].Version, revs[2].Version})
	// input untouched
	require.Equal(t, 1, group[0].Version)
}

func TestSameGroup(t *testing.T) {
	a := model.Document{Name: "drawing.pdf", ProjectCode: "P1"}
	require.True(t, SameGroup(a, model.Document{Name: "drawing.pdf", ProjectCode: "P1"}))
	require.False(t, SameGroup(a, model.Document{Name: "drawing.pdf", ProjectCode: "P2"}))
	require.False(t, SameGroup(a, model.Document{Name: "other.pdf", ProjectCode: "P1"}))
}
