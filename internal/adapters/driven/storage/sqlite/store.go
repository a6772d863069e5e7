package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/shelva-cli/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/shelva-cli/internal/core/domain"
	"github.com/custodia-labs/shelva-cli/internal/core/ports/driven"
)

// dbtx is the query surface shared by *sql.DB and *sql.Tx, so the same
// statement methods serve autocommit calls and units of work alike.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store is the SQLite-backed manifest store.
type Store struct {
	queries
	db   *sql.DB
	path string
}

var _ driven.ManifestStore = (*Store)(nil)

// NewStore opens (or creates) the manifest database at the given path.
// If path is empty, defaults to <default library root>/manifest.db.
func NewStore(path string) (*Store, error) {
	if path == "" {
		root, err := domain.DefaultLibraryRoot()
		if err != nil {
			return nil, fmt.Errorf("resolving default library root: %w", err)
		}
		path = domain.NewLibrary(root).ManifestPath()
	}

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating manifest directory: %w", err)
	}

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{
		queries: queries{q: db},
		db:      db,
		path:    path,
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Begin opens a unit of work covering one scan or categorization pass.
func (s *Store) Begin(ctx context.Context) (driven.ManifestTx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	return &Tx{queries: queries{q: tx}, tx: tx}, nil
}

// Tx is one open unit of work against the manifest.
type Tx struct {
	queries
	tx *sql.Tx
}

var _ driven.ManifestTx = (*Tx)(nil)

// Commit makes the pass's mutations durable.
func (t *Tx) Commit() error {
	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Rollback discards the pass's mutations. Calling it after Commit is a
// no-op so callers can defer it unconditionally.
func (t *Tx) Rollback() error {
	if err := t.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return fmt.Errorf("rolling back transaction: %w", err)
	}
	return nil
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	// Find all up migrations
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	// Sort and run migrations
	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		// Read and execute migration
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}

		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// queries implements the store interfaces against either connection kind.
type queries struct {
	q dbtx
}

// ==================== Source Store ====================

// GetSource retrieves the record for an absolute path.
func (s queries) GetSource(ctx context.Context, path string) (*domain.SourceRecord, error) {
	row := s.q.QueryRowContext(ctx, `
		SELECT path, basename, size, mtime_ns, digest, first_seen_at, last_seen_at, status, error
		FROM source_files WHERE path = ?
	`, path)

	var rec domain.SourceRecord
	var firstSeen, lastSeen sql.NullTime
	if err := row.Scan(&rec.Path, &rec.Basename, &rec.Size, &rec.ModTimeNs, &rec.Digest,
		&firstSeen, &lastSeen, &rec.Status, &rec.Error); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning source file: %w", err)
	}
	if firstSeen.Valid {
		rec.FirstSeenAt = firstSeen.Time
	}
	if lastSeen.Valid {
		rec.LastSeenAt = lastSeen.Time
	}

	return &rec, nil
}

// UpsertSource stores or replaces the record for rec.Path. FirstSeenAt
// is preserved on replacement: it is not in the update column list.
func (s queries) UpsertSource(ctx context.Context, rec *domain.SourceRecord) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO source_files (path, basename, size, mtime_ns, digest, first_seen_at, last_seen_at, status, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			basename = excluded.basename,
			size = excluded.size,
			mtime_ns = excluded.mtime_ns,
			digest = excluded.digest,
			last_seen_at = excluded.last_seen_at,
			status = excluded.status,
			error = excluded.error
	`, rec.Path, rec.Basename, rec.Size, rec.ModTimeNs, rec.Digest,
		rec.FirstSeenAt, rec.LastSeenAt, rec.Status, rec.Error)

	if err != nil {
		return fmt.Errorf("saving source file: %w", err)
	}
	return nil
}

// TouchSource refreshes LastSeenAt for an unchanged path.
func (s queries) TouchSource(ctx context.Context, path string, seenAt time.Time) error {
	res, err := s.q.ExecContext(ctx,
		"UPDATE source_files SET last_seen_at = ? WHERE path = ?", seenAt, path)
	if err != nil {
		return fmt.Errorf("touching source file: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("touching source file: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// CountSources returns the number of observed paths.
func (s queries) CountSources(ctx context.Context) (int, error) {
	var count int
	row := s.q.QueryRowContext(ctx, "SELECT COUNT(*) FROM source_files")
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("counting source files: %w", err)
	}
	return count, nil
}

// ==================== Document Store ====================

// documentColumns is the canonical select list matching scanDocument.
const documentColumns = `digest, store_rel_path, byte_size, first_seen_at, last_seen_at,
	page_count, title, authors, subject, keywords, text_sample, raw_metadata,
	category, category_score, category_reason, categorized_at`

// scanDocument reads one row in documentColumns order.
func scanDocument(scan func(dest ...any) error) (*domain.Document, error) {
	var doc domain.Document
	var firstSeen, lastSeen, categorizedAt sql.NullTime
	if err := scan(&doc.Digest, &doc.StoreRelPath, &doc.ByteSize, &firstSeen, &lastSeen,
		&doc.PageCount, &doc.Title, &doc.Authors, &doc.Subject, &doc.Keywords,
		&doc.TextSample, &doc.RawMetadataJSON,
		&doc.Category, &doc.CategoryScore, &doc.CategoryReason, &categorizedAt); err != nil {
		return nil, err
	}
	if firstSeen.Valid {
		doc.FirstSeenAt = firstSeen.Time
	}
	if lastSeen.Valid {
		doc.LastSeenAt = lastSeen.Time
	}
	if categorizedAt.Valid {
		doc.CategorizedAt = categorizedAt.Time
	}
	return &doc, nil
}

// GetDocument retrieves a document by digest.
func (s queries) GetDocument(ctx context.Context, digest string) (*domain.Document, error) {
	row := s.q.QueryRowContext(ctx,
		"SELECT "+documentColumns+" FROM documents WHERE digest = ?", digest)

	doc, err := scanDocument(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning document: %w", err)
	}
	return doc, nil
}

// UpsertDocument inserts a newly ingested document, or refreshes the
// store path, byte size and last seen time for an existing digest.
// Metadata and categorization columns are untouched on conflict.
func (s queries) UpsertDocument(ctx context.Context, doc *domain.Document) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO documents (digest, store_rel_path, byte_size, first_seen_at, last_seen_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(digest) DO UPDATE SET
			store_rel_path = excluded.store_rel_path,
			byte_size = excluded.byte_size,
			last_seen_at = excluded.last_seen_at
	`, doc.Digest, doc.StoreRelPath, doc.ByteSize, doc.FirstSeenAt, doc.LastSeenAt)

	if err != nil {
		return fmt.Errorf("saving document: %w", err)
	}
	return nil
}

// UpdateDocumentMetadata stores one extractor refresh.
func (s queries) UpdateDocumentMetadata(ctx context.Context, digest string, meta driven.DocumentMetadata) error {
	res, err := s.q.ExecContext(ctx, `
		UPDATE documents SET
			page_count = ?,
			title = ?,
			authors = ?,
			subject = ?,
			keywords = ?,
			text_sample = ?,
			raw_metadata = ?
		WHERE digest = ?
	`, meta.PageCount, meta.Title, meta.Authors, meta.Subject, meta.Keywords,
		meta.TextSample, meta.RawMetadataJSON, digest)

	if err != nil {
		return fmt.Errorf("updating document metadata: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating document metadata: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// SetDocumentCategory records a categorization outcome.
func (s queries) SetDocumentCategory(ctx context.Context, digest string, c domain.Categorization, at time.Time) error {
	res, err := s.q.ExecContext(ctx, `
		UPDATE documents SET
			category = ?,
			category_score = ?,
			category_reason = ?,
			categorized_at = ?
		WHERE digest = ?
	`, c.Category, c.Score, c.Reason, at, digest)

	if err != nil {
		return fmt.Errorf("setting document category: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("setting document category: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListDocuments returns documents matching the query, most recently
// seen first with digest as a stable tie-breaker.
func (s queries) ListDocuments(ctx context.Context, q driven.DocumentQuery) ([]domain.Document, error) {
	query := "SELECT " + documentColumns + " FROM documents"
	var args []any
	if q.UncategorizedOnly {
		query += " WHERE category = ''"
	}
	query += " ORDER BY last_seen_at DESC, digest ASC"
	if q.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, q.Limit)
	}

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.Document //nolint:prealloc // size unknown from query
	for rows.Next() {
		doc, err := scanDocument(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		docs = append(docs, *doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}

	return docs, nil
}

// LatestSources maps each digest to its most recently seen ok source.
// Rows arrive oldest first so the map overwrite leaves the newest
// observation per digest, with path order settling exact ties.
func (s queries) LatestSources(ctx context.Context) (map[string]driven.SourceRef, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT digest, path, basename FROM source_files
		WHERE status = 'ok' AND digest != ''
		ORDER BY last_seen_at ASC, path ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("querying latest sources: %w", err)
	}
	defer rows.Close()

	latest := make(map[string]driven.SourceRef)
	for rows.Next() {
		var digest string
		var ref driven.SourceRef
		if err := rows.Scan(&digest, &ref.Path, &ref.Basename); err != nil {
			return nil, fmt.Errorf("scanning latest source: %w", err)
		}
		latest[digest] = ref
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating latest sources: %w", err)
	}

	return latest, nil
}

// CountDocuments returns the number of unique documents.
func (s queries) CountDocuments(ctx context.Context) (int, error) {
	var count int
	row := s.q.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents")
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("counting documents: %w", err)
	}
	return count, nil
}

// CountByCategory returns document counts per assigned category.
func (s queries) CountByCategory(ctx context.Context) (map[string]int, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT category, COUNT(*) FROM documents
		WHERE category != ''
		GROUP BY category
	`)
	if err != nil {
		return nil, fmt.Errorf("querying category counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var category string
		var count int
		if err := rows.Scan(&category, &count); err != nil {
			return nil, fmt.Errorf("scanning category count: %w", err)
		}
		counts[category] = count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating category counts: %w", err)
	}

	return counts, nil
}
