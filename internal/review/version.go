package review

import (
	"fmt"
	"sort"
	"time"

	"github.com/engiflow/engiflow/internal/model"
)

// NewDocument carries the caller-supplied fields of an upload.  The
// system-managed fields (version, status, history, is_latest) are
// computed by NewRevision.  AccessHash is the already-hashed optional
// document password; each revision carries its own, so a re-upload
// may protect or unprotect the new revision independently.
type NewDocument struct {
	Name        string
	Type        string
	ProjectCode string
	FileURL     string
	AccessHash  string
	Reviewers   []model.Reviewer
}

// NextVersion returns the version number the next upload in the
// logical group should receive: one more than the highest existing
// version, or 1 for the first upload.  The caller is expected to
// pass the complete group (all documents sharing name and project
// code), typically read under a row lock so concurrent uploads
// cannot compute the same number.
func NextVersion(group []model.Document) int {
	max := 0
	for _, d := range group {
		if d.Version > max {
			max = d.Version
		}
	}
	return max + 1
}

// NewRevision builds the document record for a fresh upload into the
// given logical group.  The new revision starts In Review with a
// single history entry recording the submission, carries the next
// monotonic version number and is marked latest.  Demoting the
// superseded revisions' is_latest flags is the storage layer's half
// of the same operation.
func NewRevision(meta NewDocument, uploader model.User, group []model.Document, now time.Time) model.Document {
	v := NextVersion(group)
	return model.Document{
		Name:            meta.Name,
		Type:            meta.Type,
		UploadedByName:  uploader.Name,
		UploadedByEmail: uploader.Email,
		UploadDate:      now,
		Status:          model.StatusInReview,
		Reviewers:       meta.Reviewers,
		ProjectCode:     meta.ProjectCode,
		Version:         v,
		IsLatest:        true,
		FileURL:         meta.FileURL,
		AccessHash:      meta.AccessHash,
		History: []model.HistoryEntry{{
			Status:    model.StatusInReview,
			Date:      now,
			UserName:  uploader.Name,
			UserEmail: uploader.Email,
			Comment:   fmt.Sprintf("Document v%d created and sent for review.", v),
			Version:   v,
		}},
	}
}

// SameGroup reports whether two documents are revisions of the same
// logical document, i.e. share name and project code.
func SameGroup(a, b model.Document) bool {
	return a.Name == b.Name && a.ProjectCode == b.ProjectCode
}

// Revisions returns the documents of one logical group sorted by
// descending version, the order revision pickers display them in.
// The input slice is not modified.
func Revisions(group []model.Document) []model.Document {
	out := make([]model.Document, len(group))
	copy(out, group)
	sort.Slice(out, func(i, j int) bool { return out[i].Version > out[j].Version })
	return out
}
