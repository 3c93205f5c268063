// Package queue defines message payloads exchanged over the message broker.
package queue

// DocumentStatusEvent is published whenever a status change or
// comment is committed on a document. It carries enough information
// for downstream consumers to format and deliver notifications
// without querying the primary database. Delivery is best effort:
// the committed transition stands even when publishing fails.
type DocumentStatusEvent struct {
	DocumentID   uint64   `json:"document_id"`
	DocumentName string   `json:"document_name"`
	ProjectCode  string   `json:"project_code,omitempty"`
	NewStatus    string   `json:"new_status"`
	ActingUser   string   `json:"acting_user"`
	ActingEmail  string   `json:"acting_email"`
	Comment      string   `json:"comment"`
	Version      int      `json:"version"`
	ESigned      bool     `json:"e_signed"`
	Participants []string `json:"participants"`
	OccurredAt   string   `json:"occurred_at"`
}
