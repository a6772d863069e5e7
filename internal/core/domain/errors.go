package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrConfig indicates the rule set or an option failed validation.
	// Configuration errors are fatal and surface before any work begins.
	ErrConfig = errors.New("invalid configuration")

	// ErrLibraryNotInitialized indicates the library root is missing its
	// expected layout. Run init first.
	ErrLibraryNotInitialized = errors.New("library not initialized")

	// ErrLLMUnavailable indicates no completion provider is configured.
	// Categorization degrades to rules only.
	ErrLLMUnavailable = errors.New("LLM provider unavailable")

	// ErrCompletionTransport indicates the completion provider could not
	// be reached or answered outside its contract (network failure,
	// non-2xx status, unparseable envelope). Content-level deviations in
	// an otherwise successful response are never this error.
	ErrCompletionTransport = errors.New("completion transport failed")

	// ErrLinkFailed indicates the view builder could not create a link.
	// Fatal for the rebuild, except for the hardlink-to-symlink fallback.
	ErrLinkFailed = errors.New("link creation failed")
)
