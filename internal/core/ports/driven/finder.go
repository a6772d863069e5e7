package driven

import "context"

// FindRequest bounds one candidate enumeration.
type FindRequest struct {
	// Roots are the directories to search.
	Roots []string

	// ExcludePrefixes removes any path under one of these prefixes.
	ExcludePrefixes []string

	// Limit stops the enumeration after this many paths. Zero means
	// unlimited.
	Limit int
}

// Finder enumerates candidate document paths on the local filesystem.
//
// Paths stream on the first channel; per-entry walk errors stream on
// the second without stopping the walk. Both channels close when the
// enumeration finishes or ctx is cancelled. Each path is yielded at
// most once per call.
type Finder interface {
	Find(ctx context.Context, req FindRequest) (<-chan string, <-chan error)
}
