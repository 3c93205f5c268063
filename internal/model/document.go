package model

import "time"

// DocumentStatus enumerates the lifecycle states a document moves
// through while under review.  The string values are stored as-is
// in the documents and document_history tables.
type DocumentStatus string

const (
	StatusInReview   DocumentStatus = "In Review"   // initial state after upload
	StatusInProgress DocumentStatus = "In Progress" // approver acknowledged, review ongoing
	StatusApproved   DocumentStatus = "Approved"    // terminal
	StatusRejected   DocumentStatus = "Rejected"    // terminal
	StatusCommented  DocumentStatus = "Commented"   // a commenter submitted feedback
)

// ValidStatus reports whether s is one of the known lifecycle states.
func ValidStatus(s DocumentStatus) bool {
	switch s {
	case StatusInReview, StatusInProgress, StatusApproved, StatusRejected, StatusCommented:
		return true
	}
	return false
}

// ReviewerRole is the role a reviewer holds on a specific document.
// Roles are assigned at upload time and never change afterwards.
type ReviewerRole string

const (
	RoleApprover  ReviewerRole = "Approver"
	RoleCommenter ReviewerRole = "Commenter"
	RoleViewer    ReviewerRole = "Viewer"
)

// ValidRole reports whether r is one of the known reviewer roles.
func ValidRole(r ReviewerRole) bool {
	return r == RoleApprover || r == RoleCommenter || r == RoleViewer
}

// Reviewer is an (email, role) pair attached to a document.  It is
// owned by the document and has no standalone identity.
type Reviewer struct {
	Email string       `json:"email"` // document_reviewers.email
	Role  ReviewerRole `json:"role"`  // document_reviewers.role
}

// HistoryEntry is one immutable audit record of a status change or
// comment on a document.  Entries are append-only: they are never
// updated or removed, with the single exception of the denormalized
// UserName display field which a profile rename may rewrite.  A
// comment carrying the "[E-signed] " prefix was produced through the
// confirmation gate; the prefix is retained in storage and stripped
// only for display.
//
// Fields:
//  ID        – primary key identifier.
//  Status    – document status resulting from this entry.
//  Date      – when the entry was committed.
//  UserName  – display name of the actor (denormalized, repairable).
//  UserEmail – durable key of the actor.
//  Comment   – actor-supplied comment, with signature marker when e-signed.
//  Version   – document version this entry belongs to.
type HistoryEntry struct {
	ID        uint64         // document_history.id
	Status    DocumentStatus // document_history.status
	Date      time.Time      // document_history.entry_date
	UserName  string         // document_history.user_name
	UserEmail string         // document_history.user_email
	Comment   string         // document_history.comment
	Version   int            // document_history.version
}

// Document is the central entity: a versioned file record moving
// through the review lifecycle.  All document records sharing the
// same (Name, ProjectCode) pair form one logical group of successive
// revisions; exactly one record in a non-empty group carries
// IsLatest=true, the one with the highest version number.  Status
// always matches the status of the most recent history entry, and
// the history is never empty after creation.
//
// Fields:
//  ID             – primary key identifier.
//  Name           – file name; part of the logical group key.
//  Type           – file type label (PDF, DWG, ...).
//  UploadedByName – uploader display name (denormalized, repairable).
//  UploadedByEmail– uploader durable key.
//  UploadDate     – when this revision was uploaded.
//  Status         – current lifecycle state.
//  Reviewers      – (email, role) pairs set at upload, immutable after.
//  History        – append-only audit trail, oldest first.
//  ReminderDate   – optional follow-up reminder (nil when unset).
//  ProjectCode    – owning project code; part of the logical group key.
//  Version        – revision number >= 1, monotonic per group.
//  IsLatest       – true only on the highest version of the group.
//  FileURL        – optional link to the stored file.
//  Scratchpad     – shared free-form notes attached to this revision.
//  AccessHash     – bcrypt hash of the optional document password;
//                   empty means the document is not protected.
type Document struct {
	ID              uint64         // documents.id
	Name            string         // documents.name
	Type            string         // documents.doc_type
	UploadedByName  string         // documents.uploaded_by_name
	UploadedByEmail string         // documents.uploaded_by_email
	UploadDate      time.Time      // documents.upload_date
	Status          DocumentStatus // documents.status
	Reviewers       []Reviewer     // document_reviewers rows
	History         []HistoryEntry // document_history rows, ascending
	ReminderDate    *time.Time     // documents.reminder_date (nullable)
	ProjectCode     string         // documents.project_code (empty when NULL)
	Version         int            // documents.version
	IsLatest        bool           // documents.is_latest
	FileURL         string         // documents.file_url (empty when NULL)
	Scratchpad      string         // documents.scratchpad
	AccessHash      string         // documents.access_password_hash (empty when NULL)
}

// Protected reports whether the document requires its access password
// before details and history may be shown.
func (d Document) Protected() bool { return d.AccessHash != "" }
