package driving

import "context"

// LibraryStatus summarizes the manifest for status reporting.
type LibraryStatus struct {
	// Root is the library root path.
	Root string

	// Documents is the unique document count.
	Documents int

	// Sources is the observed path count.
	Sources int

	// Categorized counts documents with an assigned category.
	Categorized int

	// PerCategory maps category name to document count.
	PerCategory map[string]int
}

// LibraryManager initializes the on-disk library layout and reports on
// its contents.
type LibraryManager interface {
	// Init creates the layout and writes the packaged default rule set
	// when none exists. Idempotent; never overwrites an existing rule
	// set.
	Init(ctx context.Context) error

	// Status reports manifest counts.
	Status(ctx context.Context) (*LibraryStatus, error)
}
