package driven

import "context"

// CompletionClient is a text-completion provider.
//
// Transport concerns (endpoint, model, timeout, output budget) are
// adapter configuration; one client is built per run. A failed call
// returns an error wrapping domain.ErrCompletionTransport; the returned
// text carries no format guarantee at all and is handed to the tolerant
// extractor as-is.
type CompletionClient interface {
	// Complete sends one prompt and returns the raw completion text.
	Complete(ctx context.Context, prompt string) (string, error)

	// Provider names the backing provider for audit reasons.
	Provider() string

	// Model names the configured model, or empty for single-model
	// servers.
	Model() string
}
