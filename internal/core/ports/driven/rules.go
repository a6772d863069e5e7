package driven

import "github.com/custodia-labs/shelva-cli/internal/core/domain"

// RuleSetStore loads and seeds the rule file that drives categorization.
// Backed by a TOML file at the library root.
type RuleSetStore interface {
	// Load reads and validates the rule file.
	// Returns domain.ErrLibraryNotInitialized if the file does not exist
	// and domain.ErrConfig if it does not validate.
	Load() (*domain.RuleSet, error)

	// EnsureDefault writes the packaged starter rule file if none
	// exists. An existing file is never overwritten.
	EnsureDefault() error

	// Path returns the absolute path of the rule file.
	Path() string
}
