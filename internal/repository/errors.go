// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios. For
// example, ErrDocumentNotFound signals a lookup miss that should map
// to HTTP 404, while ErrProjectCodeExists signals that project
// creation cannot proceed because the code is already taken
// (case-insensitively). Database duplicate-key failures are detected
// via the MySQL 1062 error code embedded in the driver message.
package repository

import (
	"errors"
	"strings"
)

// ErrEmailExists is returned when registering a user whose email is
// already taken. Handlers should translate this into HTTP 409.
var ErrEmailExists = errors.New("email already exists")

// ErrProjectCodeExists is returned when creating a project whose code
// already exists, ignoring case. Handlers should translate this into
// HTTP 409.
var ErrProjectCodeExists = errors.New("project code already exists")

// ErrDocumentNotFound is returned when a document lookup finds no row.
var ErrDocumentNotFound = errors.New("document not found")

// ErrNoPendingAction is returned by the action store when the actor
// has nothing staged for confirmation.
var ErrNoPendingAction = errors.New("no pending action")

// isDuplicateErr reports whether err is a MySQL duplicate-key
// violation (error 1062).
func isDuplicateErr(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "1062")
}
