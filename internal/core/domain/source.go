package domain

import "time"

// SourceStatus describes the outcome of the most recent scan of a path.
type SourceStatus string

const (
	// SourceStatusOK means the file was read and ingested successfully.
	SourceStatusOK SourceStatus = "ok"

	// SourceStatusError means the file was readable but ingestion failed.
	SourceStatusError SourceStatus = "error"

	// SourceStatusUnreadable means the file could not be stat'd or opened.
	SourceStatusUnreadable SourceStatus = "unreadable"
)

// IsValid checks if the status is a known value.
func (s SourceStatus) IsValid() bool {
	switch s {
	case SourceStatusOK, SourceStatusError, SourceStatusUnreadable:
		return true
	}
	return false
}

// String returns the string representation.
func (s SourceStatus) String() string {
	return string(s)
}

// SourceRecord represents one observed filesystem location.
// Many records may reference the same Document when identical content is
// discovered at multiple paths.
type SourceRecord struct {
	// Path is the absolute source path. It is the record's identity.
	Path string

	// Basename is the filename component of Path.
	Basename string

	// Size is the file size in bytes at last observation.
	Size int64

	// ModTimeNs is the file's modification time in Unix nanoseconds at
	// last observation. Compared exactly for change detection.
	ModTimeNs int64

	// Digest links to the Document this path produced. Empty when the
	// file was never readable.
	Digest string

	// FirstSeenAt is when the path was first observed.
	FirstSeenAt time.Time

	// LastSeenAt is when the path was most recently observed.
	LastSeenAt time.Time

	// Status is the outcome of the most recent scan of this path.
	Status SourceStatus

	// Error holds the failure message when Status is not ok.
	Error string
}

// Unchanged reports whether the path can be skipped without re-hashing:
// the last scan succeeded and the size and modification time both match.
func (r *SourceRecord) Unchanged(size int64, modTimeNs int64) bool {
	return r.Status == SourceStatusOK && r.Size == size && r.ModTimeNs == modTimeNs
}
