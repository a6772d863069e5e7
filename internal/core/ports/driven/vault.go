package driven

import "context"

// IngestResult describes the outcome of vaulting one source file.
type IngestResult struct {
	// Digest is the SHA-256 of the content, lowercase hex.
	Digest string

	// StoreRelPath is the library-relative canonical location.
	StoreRelPath string

	// ByteSize is the number of content bytes.
	ByteSize int64

	// NewCopy is true when the content was novel and a copy landed in
	// the vault, false on a dedup hit.
	NewCopy bool
}

// ContentVault copies files into the digest-addressed store exactly
// once per distinct content.
type ContentVault interface {
	// Ingest streams sourcePath into scratch while digesting it, then
	// either installs the copy at the canonical location or discards it
	// when the digest is already present. A half-written file never
	// appears at the canonical path.
	Ingest(ctx context.Context, sourcePath string) (*IngestResult, error)
}
