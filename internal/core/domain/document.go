package domain

import "time"

// Document represents one unique piece of content in the vault.
// Identity is the content digest; however many filesystem paths produce
// the same bytes, there is exactly one Document.
type Document struct {
	// Digest is the SHA-256 of the content, rendered as lowercase hex.
	Digest string

	// StoreRelPath is the vault-relative path of the canonical copy.
	StoreRelPath string

	// ByteSize is the content size in bytes.
	ByteSize int64

	// FirstSeenAt is when the content was first ingested.
	FirstSeenAt time.Time

	// LastSeenAt is when the content was most recently observed on disk.
	LastSeenAt time.Time

	// PageCount is the page count reported by the metadata extractor.
	// Zero means unknown.
	PageCount int

	// Title, Authors, Subject and Keywords come from the document's own
	// metadata. Any of them may be empty.
	Title    string
	Authors  string
	Subject  string
	Keywords string

	// TextSample is a bounded excerpt of the document text, used for
	// rule matching and LLM prompts. Empty if extraction is disabled
	// or the document yielded no text.
	TextSample string

	// RawMetadataJSON is the full attribute bag from the extractor,
	// serialized for audit. Empty if never extracted.
	RawMetadataJSON string

	// Category is the assigned category name. Empty until categorized.
	Category string

	// CategoryScore is the score the winning signal produced.
	CategoryScore float64

	// CategoryReason is a human-readable trace of which signals fired.
	CategoryReason string

	// CategorizedAt is when the category was last assigned.
	CategorizedAt time.Time
}

// Categorized reports whether the document has an assigned category.
func (d *Document) Categorized() bool {
	return d.Category != ""
}

// Attributes describes one document to the scorer and the classifier.
// It bundles manifest state with the most recent source location so both
// consumers see the same snapshot.
type Attributes struct {
	// Digest identifies the document being described.
	Digest string

	// SourcePath is the most recently seen ok source path. May be empty
	// if every source for the digest has gone unreadable.
	SourcePath string

	// Basename is the filename component of SourcePath.
	Basename string

	// PageCount is the known page count, zero if unknown.
	PageCount int

	Title    string
	Authors  string
	Subject  string
	Keywords string

	// TextSample is the extracted text excerpt, possibly empty.
	TextSample string
}
