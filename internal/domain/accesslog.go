package domain

import "time"

// AccessLogEntry is one append-only audit record, written after a grant
// has been issued. Never updated or deleted.
type AccessLogEntry struct {
	ID         int64
	SubjectID  int64
	ResourceID int64
	AccessedAt time.Time
}
