// Package sqlite provides the SQLite-backed manifest store.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that
// requires no CGO, enabling easy cross-compilation. One database file holds
// both manifest tables:
//
//   - documents: unique content by digest plus categorization state
//   - source_files: scan observations of filesystem paths
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Data Location
//
// The manifest lives at <library root>/manifest.db.
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking
// provided by SQLite in WAL mode. Scan and categorization passes group their
// writes into one transaction via Begin.
package sqlite
