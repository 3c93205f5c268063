package model

import "time"

// Project groups documents under a short unique code.  Documents
// reference a project by its code rather than its numeric ID, so
// the code is immutable once created.  Uniqueness of the code is
// case-insensitive and enforced at the database level.
//
// Fields:
//  ID          – primary key identifier.
//  ProjectCode – unique, case-insensitive short code (e.g. "PNX-001").
//  Name        – human readable project name.
//  Description – free-form description.
//  LastUpdated – timestamp of the last change to the project record.
type Project struct {
	ID          uint64    // projects.id
	ProjectCode string    // projects.project_code
	Name        string    // projects.name
	Description string    // projects.description
	LastUpdated time.Time // projects.last_updated
}
