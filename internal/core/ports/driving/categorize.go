package driving

import (
	"context"

	"github.com/custodia-labs/shelva-cli/internal/core/domain"
)

// CategorizeRequest configures one categorization pass.
type CategorizeRequest struct {
	// Limit bounds the number of documents considered. Zero means
	// unlimited.
	Limit int

	// Recategorize reconsiders every document instead of only the
	// uncategorized ones.
	Recategorize bool

	// DryRun scores without persisting results or rebuilding the view.
	DryRun bool

	// LinkMode selects how the rebuilt view points at vault content.
	LinkMode domain.LinkMode

	// RefreshView wipes the view root before rebuilding. Disabling it
	// layers new entries over the existing tree.
	RefreshView bool

	// TextSampleBytes bounds text extraction per document. Zero
	// disables text sampling.
	TextSampleBytes int

	// LLM configures the optional completion provider consultation.
	LLM domain.LLMSettings
}

// Categorizer runs categorization passes over manifest documents and
// rebuilds the categorized view from the results.
type Categorizer interface {
	Categorize(ctx context.Context, req CategorizeRequest) (*domain.CategorizeStats, error)
}
