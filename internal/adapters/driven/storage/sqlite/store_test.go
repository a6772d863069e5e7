package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/shelva-cli/internal/core/domain"
	"github.com/custodia-labs/shelva-cli/internal/core/ports/driven"
)

// setupTestStore creates a temporary SQLite store for testing.
func setupTestStore(t *testing.T) (*Store, func()) {
	t.Helper()

	// Create a temporary directory for the test database
	tempDir, err := os.MkdirTemp("", "shelva-test-*")
	require.NoError(t, err)

	store, err := NewStore(filepath.Join(tempDir, "manifest.db"))
	require.NoError(t, err)
	require.NotNil(t, store)

	// Return cleanup function
	cleanup := func() {
		assert.NoError(t, store.Close())
		assert.NoError(t, os.RemoveAll(tempDir))
	}

	return store, cleanup
}

// testSourceRecord builds an ok observation for the given path.
func testSourceRecord(path, digest string, seen time.Time) *domain.SourceRecord {
	return &domain.SourceRecord{
		Path:        path,
		Basename:    filepath.Base(path),
		Size:        2048,
		ModTimeNs:   1724400000123456789,
		Digest:      digest,
		FirstSeenAt: seen,
		LastSeenAt:  seen,
		Status:      domain.SourceStatusOK,
	}
}

// testDocument builds a freshly ingested document for the given digest.
func testDocument(digest string, seen time.Time) *domain.Document {
	return &domain.Document{
		Digest:       digest,
		StoreRelPath: "vault/" + digest[:2] + "/" + digest[2:4] + "/" + digest + ".pdf",
		ByteSize:     2048,
		FirstSeenAt:  seen,
		LastSeenAt:   seen,
	}
}

// ==================== Store Creation and Initialization Tests ====================

func TestNewStore_ErrorHandling(t *testing.T) {
	// Test with invalid path (should fail to create directory)
	_, err := NewStore("/invalid\x00path/manifest.db")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "creating manifest directory")
}

func TestNewStore_Success(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "shelva-test-*")
	require.NoError(t, err)
	defer os.RemoveAll(tempDir)

	dbPath := filepath.Join(tempDir, "manifest.db")
	store, err := NewStore(dbPath)
	require.NoError(t, err)
	require.NotNil(t, store)
	defer store.Close()

	assert.Equal(t, dbPath, store.Path())
	assert.FileExists(t, dbPath)

	// Verify database connection is working
	err = store.db.Ping()
	assert.NoError(t, err)
}

func TestNewStore_ReopenKeepsData(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "shelva-test-*")
	require.NoError(t, err)
	defer os.RemoveAll(tempDir)

	ctx := context.Background()
	dbPath := filepath.Join(tempDir, "manifest.db")
	seen := time.Now().UTC().Truncate(time.Second)

	store, err := NewStore(dbPath)
	require.NoError(t, err)
	require.NoError(t, store.UpsertSource(ctx, testSourceRecord("/docs/a.pdf", "aa11", seen)))
	require.NoError(t, store.Close())

	// Reopening re-runs migrations; both must be idempotent.
	store, err = NewStore(dbPath)
	require.NoError(t, err)
	defer store.Close()

	rec, err := store.GetSource(ctx, "/docs/a.pdf")
	require.NoError(t, err)
	assert.Equal(t, "aa11", rec.Digest)
}

// ==================== Source Store Tests ====================

func TestSourceStore_UpsertAndGet(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	seen := time.Now().UTC().Truncate(time.Second)
	rec := testSourceRecord("/docs/invoice.pdf", "aa11bb22", seen)
	require.NoError(t, store.UpsertSource(ctx, rec))

	got, err := store.GetSource(ctx, "/docs/invoice.pdf")
	require.NoError(t, err)

	assert.Equal(t, rec.Path, got.Path)
	assert.Equal(t, rec.Basename, got.Basename)
	assert.Equal(t, rec.Size, got.Size)
	assert.Equal(t, rec.ModTimeNs, got.ModTimeNs, "modification time survives to the nanosecond")
	assert.Equal(t, rec.Digest, got.Digest)
	assert.Equal(t, domain.SourceStatusOK, got.Status)
	assert.Empty(t, got.Error)
	assert.WithinDuration(t, seen, got.FirstSeenAt, time.Second)
	assert.WithinDuration(t, seen, got.LastSeenAt, time.Second)
}

func TestSourceStore_GetMissing(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	_, err := store.GetSource(context.Background(), "/docs/never-seen.pdf")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSourceStore_UpsertPreservesFirstSeen(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	first := time.Now().UTC().Truncate(time.Second).Add(-time.Hour)
	rec := testSourceRecord("/docs/invoice.pdf", "aa11", first)
	require.NoError(t, store.UpsertSource(ctx, rec))

	// The same path rescans later as a failure.
	later := first.Add(time.Hour)
	require.NoError(t, store.UpsertSource(ctx, &domain.SourceRecord{
		Path:        rec.Path,
		Basename:    rec.Basename,
		FirstSeenAt: later,
		LastSeenAt:  later,
		Status:      domain.SourceStatusUnreadable,
		Error:       "permission denied",
	}))

	got, err := store.GetSource(ctx, rec.Path)
	require.NoError(t, err)
	assert.WithinDuration(t, first, got.FirstSeenAt, time.Second, "first observation is permanent")
	assert.WithinDuration(t, later, got.LastSeenAt, time.Second)
	assert.Equal(t, domain.SourceStatusUnreadable, got.Status)
	assert.Equal(t, "permission denied", got.Error)
	assert.Empty(t, got.Digest, "a failed scan no longer vouches for content")
}

func TestSourceStore_Touch(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	seen := time.Now().UTC().Truncate(time.Second).Add(-time.Hour)
	rec := testSourceRecord("/docs/invoice.pdf", "aa11", seen)
	require.NoError(t, store.UpsertSource(ctx, rec))

	later := seen.Add(time.Hour)
	require.NoError(t, store.TouchSource(ctx, rec.Path, later))

	got, err := store.GetSource(ctx, rec.Path)
	require.NoError(t, err)
	assert.WithinDuration(t, later, got.LastSeenAt, time.Second)
	assert.Equal(t, rec.Digest, got.Digest, "touch changes nothing else")
	assert.Equal(t, rec.ModTimeNs, got.ModTimeNs)
}

func TestSourceStore_TouchMissing(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	err := store.TouchSource(context.Background(), "/docs/never-seen.pdf", time.Now().UTC())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSourceStore_Count(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	count, err := store.CountSources(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	seen := time.Now().UTC()
	require.NoError(t, store.UpsertSource(ctx, testSourceRecord("/docs/a.pdf", "aa", seen)))
	require.NoError(t, store.UpsertSource(ctx, testSourceRecord("/docs/b.pdf", "bb", seen)))
	require.NoError(t, store.UpsertSource(ctx, testSourceRecord("/docs/a.pdf", "aa", seen)))

	count, err = store.CountSources(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count, "upsert does not duplicate paths")
}

// ==================== Document Store Tests ====================

func TestDocumentStore_UpsertAndGet(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	seen := time.Now().UTC().Truncate(time.Second)
	doc := testDocument("aa11bb22cc33", seen)
	require.NoError(t, store.UpsertDocument(ctx, doc))

	got, err := store.GetDocument(ctx, doc.Digest)
	require.NoError(t, err)

	assert.Equal(t, doc.Digest, got.Digest)
	assert.Equal(t, doc.StoreRelPath, got.StoreRelPath)
	assert.Equal(t, doc.ByteSize, got.ByteSize)
	assert.WithinDuration(t, seen, got.FirstSeenAt, time.Second)
	assert.False(t, got.Categorized())
	assert.True(t, got.CategorizedAt.IsZero())
}

func TestDocumentStore_GetMissing(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	_, err := store.GetDocument(context.Background(), "feedface")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocumentStore_UpsertPreservesCategorizationAndMetadata(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	first := time.Now().UTC().Truncate(time.Second).Add(-time.Hour)
	doc := testDocument("aa11bb22cc33", first)
	require.NoError(t, store.UpsertDocument(ctx, doc))

	require.NoError(t, store.UpdateDocumentMetadata(ctx, doc.Digest, driven.DocumentMetadata{
		PageCount:       42,
		Title:           "Widget 3000 Manual",
		Authors:         "Widget Corp",
		TextSample:      "Troubleshooting steps",
		RawMetadataJSON: `{"pages":42}`,
	}))
	require.NoError(t, store.SetDocumentCategory(ctx, doc.Digest, domain.Categorization{
		Category: "Manuals & Guides",
		Score:    4.0,
		Reason:   "text:troubleshooting",
	}, first))

	// A later scan sees the same content again.
	later := first.Add(time.Hour)
	require.NoError(t, store.UpsertDocument(ctx, testDocument(doc.Digest, later)))

	got, err := store.GetDocument(ctx, doc.Digest)
	require.NoError(t, err)
	assert.WithinDuration(t, first, got.FirstSeenAt, time.Second)
	assert.WithinDuration(t, later, got.LastSeenAt, time.Second)
	assert.Equal(t, "Widget 3000 Manual", got.Title)
	assert.Equal(t, 42, got.PageCount)
	assert.Equal(t, "Manuals & Guides", got.Category)
	assert.Equal(t, 4.0, got.CategoryScore)
	assert.Equal(t, "text:troubleshooting", got.CategoryReason)
	assert.False(t, got.CategorizedAt.IsZero())
}

func TestDocumentStore_UpdateMetadataMissing(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	err := store.UpdateDocumentMetadata(context.Background(), "feedface", driven.DocumentMetadata{})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocumentStore_SetCategoryMissing(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	err := store.SetDocumentCategory(context.Background(), "feedface",
		domain.Categorization{Category: "Unsorted"}, time.Now().UTC())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocumentStore_ListDocuments(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, store.UpsertDocument(ctx, testDocument("cc330000dddd", base.Add(-2*time.Hour))))
	require.NoError(t, store.UpsertDocument(ctx, testDocument("aa110000dddd", base.Add(-time.Hour))))
	require.NoError(t, store.UpsertDocument(ctx, testDocument("bb220000dddd", base.Add(-time.Hour))))
	require.NoError(t, store.SetDocumentCategory(ctx, "cc330000dddd",
		domain.Categorization{Category: "Unsorted", Reason: "no rules matched"}, base))

	t.Run("orders by last seen then digest", func(t *testing.T) {
		docs, err := store.ListDocuments(ctx, driven.DocumentQuery{})
		require.NoError(t, err)
		require.Len(t, docs, 3)
		assert.Equal(t, "aa110000dddd", docs[0].Digest)
		assert.Equal(t, "bb220000dddd", docs[1].Digest)
		assert.Equal(t, "cc330000dddd", docs[2].Digest)
	})

	t.Run("uncategorized only", func(t *testing.T) {
		docs, err := store.ListDocuments(ctx, driven.DocumentQuery{UncategorizedOnly: true})
		require.NoError(t, err)
		require.Len(t, docs, 2)
		for _, doc := range docs {
			assert.False(t, doc.Categorized())
		}
	})

	t.Run("limit", func(t *testing.T) {
		docs, err := store.ListDocuments(ctx, driven.DocumentQuery{Limit: 1})
		require.NoError(t, err)
		require.Len(t, docs, 1)
		assert.Equal(t, "aa110000dddd", docs[0].Digest)
	})
}

func TestDocumentStore_LatestSources(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Second)

	// Same digest observed at two paths; the newer one wins.
	old := testSourceRecord("/docs/old/invoice.pdf", "aa11", base.Add(-time.Hour))
	newer := testSourceRecord("/docs/new/invoice_copy.pdf", "aa11", base)
	require.NoError(t, store.UpsertSource(ctx, old))
	require.NoError(t, store.UpsertSource(ctx, newer))

	// Failed observations never vouch for content.
	failed := testSourceRecord("/docs/broken.pdf", "bb22", base)
	failed.Status = domain.SourceStatusError
	failed.Error = "device error"
	require.NoError(t, store.UpsertSource(ctx, failed))

	unreadable := testSourceRecord("/docs/ghost.pdf", "", base)
	unreadable.Status = domain.SourceStatusUnreadable
	require.NoError(t, store.UpsertSource(ctx, unreadable))

	latest, err := store.LatestSources(ctx)
	require.NoError(t, err)

	require.Len(t, latest, 1)
	assert.Equal(t, driven.SourceRef{
		Path:     "/docs/new/invoice_copy.pdf",
		Basename: "invoice_copy.pdf",
	}, latest["aa11"])
}

func TestDocumentStore_CountByCategory(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	now := time.Now().UTC()
	for _, digest := range []string{"aa110000dddd", "bb220000dddd", "cc330000dddd"} {
		require.NoError(t, store.UpsertDocument(ctx, testDocument(digest, now)))
	}
	require.NoError(t, store.SetDocumentCategory(ctx, "aa110000dddd",
		domain.Categorization{Category: "Receipts & Invoices"}, now))
	require.NoError(t, store.SetDocumentCategory(ctx, "bb220000dddd",
		domain.Categorization{Category: "Receipts & Invoices"}, now))

	counts, err := store.CountByCategory(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"Receipts & Invoices": 2}, counts)

	total, err := store.CountDocuments(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
}

// ==================== Transaction Tests ====================

func TestStore_TransactionCommit(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	tx, err := store.Begin(ctx)
	require.NoError(t, err)

	seen := time.Now().UTC()
	require.NoError(t, tx.UpsertSource(ctx, testSourceRecord("/docs/a.pdf", "aa11", seen)))
	require.NoError(t, tx.UpsertDocument(ctx, testDocument("aa11bb22cc33", seen)))

	// Uncommitted work is invisible outside the transaction.
	_, err = store.GetSource(ctx, "/docs/a.pdf")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, tx.Commit())

	rec, err := store.GetSource(ctx, "/docs/a.pdf")
	require.NoError(t, err)
	assert.Equal(t, "aa11", rec.Digest)

	// Deferred rollback after commit must be harmless.
	assert.NoError(t, tx.Rollback())
}

func TestStore_TransactionRollback(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	tx, err := store.Begin(ctx)
	require.NoError(t, err)

	require.NoError(t, tx.UpsertSource(ctx, testSourceRecord("/docs/a.pdf", "aa11", time.Now().UTC())))
	require.NoError(t, tx.Rollback())

	_, err = store.GetSource(ctx, "/docs/a.pdf")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	count, err := store.CountSources(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}
