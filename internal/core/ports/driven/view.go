package driven

import (
	"context"

	"github.com/custodia-labs/shelva-cli/internal/core/domain"
)

// NameResolver produces the display name for one document's view entry.
// The builder sanitizes whatever it returns.
type NameResolver func(doc domain.Document) string

// ViewOptions configures one rebuild of the categorized view.
type ViewOptions struct {
	// Mode selects how entries point at vault content.
	Mode domain.LinkMode

	// Refresh wipes everything under the view root first. The view is
	// fully derived and owns no unique state.
	Refresh bool

	// DefaultCategory receives documents with a blank category.
	DefaultCategory string

	// ResolveName supplies display names. Required.
	ResolveName NameResolver
}

// ViewResult reports what one rebuild produced.
type ViewResult struct {
	// PerCategory maps category name to entry count.
	PerCategory map[string]int

	// Total is the total number of entries created.
	Total int
}

// ViewBuilder materializes the derived per-category link tree.
type ViewBuilder interface {
	// Rebuild creates one view entry per document. Collisions resolve
	// deterministically, so identical input state reproduces identical
	// directory contents.
	Rebuild(ctx context.Context, docs []domain.Document, opts ViewOptions) (*ViewResult, error)
}
