// Package review implements the document review state machine: role
// resolution, status transition rules, comment preconditions, the
// e-sign confirmation staging types and revision versioning.  The
// package is pure: it operates on model values only and performs no
// I/O, so the same rules can be applied at the request boundary and
// again inside the repository transaction that commits a change.
package review

import (
	"strings"

	"github.com/engiflow/engiflow/internal/model"
)

// RoleOf resolves the role the given user holds on the document by
// scanning its reviewer list.  The uploader has no implicit role; if
// they should be able to act on their own document they must be
// listed as a reviewer explicitly.  The second return value is false
// when the user is not a reviewer at all.
func RoleOf(doc model.Document, email string) (model.ReviewerRole, bool) {
	email = strings.ToLower(strings.TrimSpace(email))
	for _, r := range doc.Reviewers {
		if strings.ToLower(r.Email) == email {
			return r.Role, true
		}
	}
	return "", false
}

// CanAct reports whether a reviewer with the given role may request
// any action on the document in its current state.  Only Approvers
// and Commenters act, and only while the document is In Review or
// In Progress.  Approved, Rejected and Commented documents are
// locked: no further status changes and no further comments.
func CanAct(doc model.Document, role model.ReviewerRole) bool {
	if role != model.RoleApprover && role != model.RoleCommenter {
		return false
	}
	return doc.Status == model.StatusInReview || doc.Status == model.StatusInProgress
}
