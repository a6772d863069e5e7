package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/shelva-cli/internal/core/domain"
)

// SourceStore persists scan observations of filesystem paths.
// Backed by SQLite in the manifest database.
type SourceStore interface {
	// GetSource retrieves the record for an absolute path.
	// Returns domain.ErrNotFound if the path was never observed.
	GetSource(ctx context.Context, path string) (*domain.SourceRecord, error)

	// UpsertSource stores or replaces the record for rec.Path,
	// preserving FirstSeenAt on replacement.
	UpsertSource(ctx context.Context, rec *domain.SourceRecord) error

	// TouchSource refreshes LastSeenAt for an unchanged path.
	TouchSource(ctx context.Context, path string, seenAt time.Time) error

	// CountSources returns the number of observed paths.
	CountSources(ctx context.Context) (int, error)
}

// SourceRef is the most recent ok location observed for a digest.
type SourceRef struct {
	Path     string
	Basename string
}

// DocumentQuery filters and bounds a document listing.
type DocumentQuery struct {
	// UncategorizedOnly restricts the listing to documents without a
	// category. The default categorization pass reconsiders only these.
	UncategorizedOnly bool

	// Limit bounds the result count. Zero means unlimited.
	Limit int
}

// DocumentMetadata carries one extractor refresh for a document.
type DocumentMetadata struct {
	PageCount       int
	Title           string
	Authors         string
	Subject         string
	Keywords        string
	TextSample      string
	RawMetadataJSON string
}

// DocumentStore persists unique documents and their categorization.
type DocumentStore interface {
	// GetDocument retrieves a document by digest.
	// Returns domain.ErrNotFound if the digest was never ingested.
	GetDocument(ctx context.Context, digest string) (*domain.Document, error)

	// UpsertDocument inserts a newly ingested document, or refreshes
	// StoreRelPath, ByteSize and LastSeenAt for an existing digest.
	// FirstSeenAt and categorization state are preserved.
	UpsertDocument(ctx context.Context, doc *domain.Document) error

	// UpdateDocumentMetadata stores one extractor refresh.
	UpdateDocumentMetadata(ctx context.Context, digest string, meta DocumentMetadata) error

	// SetDocumentCategory records a categorization outcome.
	SetDocumentCategory(ctx context.Context, digest string, c domain.Categorization, at time.Time) error

	// ListDocuments returns documents matching the query, ordered
	// most-recently-seen first with digest as a stable tie-breaker.
	ListDocuments(ctx context.Context, q DocumentQuery) ([]domain.Document, error)

	// LatestSources maps each digest to its most recently seen ok
	// source location. Digests with no ok source are absent.
	LatestSources(ctx context.Context) (map[string]SourceRef, error)

	// CountDocuments returns the number of unique documents.
	CountDocuments(ctx context.Context) (int, error)

	// CountByCategory returns document counts per assigned category.
	// Uncategorized documents are not included.
	CountByCategory(ctx context.Context) (map[string]int, error)
}

// ManifestTx is one unit of work over the manifest. Every mutation in a
// scan or categorization pass rides a single transaction so a crash
// mid-pass never leaves partially applied rows visible as committed.
type ManifestTx interface {
	SourceStore
	DocumentStore

	// Commit makes the pass's mutations durable.
	Commit() error

	// Rollback discards the pass's mutations. Safe after Commit.
	Rollback() error
}

// ManifestStore is the transactional record store for sources and
// documents. Direct method calls autocommit; passes use Begin.
type ManifestStore interface {
	SourceStore
	DocumentStore

	// Begin opens a unit of work the caller controls explicitly.
	Begin(ctx context.Context) (ManifestTx, error)
}
