package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/custodia-labs/shelva-cli/internal/core/domain"
	"github.com/custodia-labs/shelva-cli/internal/core/ports/driven"
	"github.com/custodia-labs/shelva-cli/internal/core/ports/driving"
	"github.com/custodia-labs/shelva-cli/internal/logger"
)

// Ensure ScanOrchestrator implements the interface.
var _ driving.Scanner = (*ScanOrchestrator)(nil)

// ScanOrchestrator runs scan passes: the finder enumerates candidates,
// novel content goes through the vault, and every observation lands in
// the manifest. One transaction spans the whole pass.
type ScanOrchestrator struct {
	library domain.Library
	store   driven.ManifestStore
	vault   driven.ContentVault
	finder  driven.Finder
}

// NewScanOrchestrator creates a new scan orchestrator.
func NewScanOrchestrator(
	library domain.Library,
	store driven.ManifestStore,
	vault driven.ContentVault,
	finder driven.Finder,
) *ScanOrchestrator {
	return &ScanOrchestrator{
		library: library,
		store:   store,
		vault:   vault,
		finder:  finder,
	}
}

// Scan sweeps the requested roots once.
//
// Failures local to one path are recorded on its SourceRecord and the
// pass continues; manifest failures abort the pass with nothing
// committed.
func (o *ScanOrchestrator) Scan(ctx context.Context, req driving.ScanRequest) (*domain.ScanStats, error) {
	if len(req.Roots) == 0 {
		return nil, fmt.Errorf("%w: no scan roots given", domain.ErrInvalidInput)
	}

	// The library must never ingest itself.
	excludes := append(slices.Clone(req.ExcludePrefixes), o.library.Root)

	paths, walkErrs := o.finder.Find(ctx, driven.FindRequest{
		Roots:           req.Roots,
		ExcludePrefixes: excludes,
		Limit:           req.Limit,
	})

	stats := &domain.ScanStats{}

	var tx driven.ManifestTx
	if !req.DryRun {
		var err error
		tx, err = o.store.Begin(ctx)
		if err != nil {
			return nil, fmt.Errorf("begin scan pass: %w", err)
		}
		defer func() { _ = tx.Rollback() }()
	}

	for paths != nil || walkErrs != nil {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case path, ok := <-paths:
			if !ok {
				paths = nil
				continue
			}
			stats.Discovered++
			if req.DryRun {
				continue
			}
			if err := o.processOne(ctx, tx, path, stats); err != nil {
				return nil, err
			}
		case err, ok := <-walkErrs:
			if !ok {
				walkErrs = nil
				continue
			}
			logger.Warn("walk: %v", err)
		}
	}

	if req.DryRun {
		logger.Info("dry run: discovered %d candidates", stats.Discovered)
		return stats, nil
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit scan pass: %w", err)
	}

	logger.Info("scan: %d discovered, %d new, %d deduped, %d unchanged, %d errors",
		stats.Discovered, stats.CopiedNew, stats.DedupedExisting, stats.SkippedUnchanged, stats.Errors)
	return stats, nil
}

// processOne handles a single candidate path. Per-path I/O failures
// are recorded and absorbed; only manifest failures return an error.
func (o *ScanOrchestrator) processOne(ctx context.Context, tx driven.ManifestTx, path string, stats *domain.ScanStats) error {
	now := time.Now().UTC()

	// 1. Stat the candidate
	info, err := os.Stat(path)
	if err != nil {
		stats.Errors++
		return o.recordFailure(ctx, tx, path, now, domain.SourceStatusUnreadable, err)
	}
	size := info.Size()
	modNs := info.ModTime().UnixNano()

	// 2. Skip unchanged paths without re-reading a byte
	existing, err := tx.GetSource(ctx, path)
	switch {
	case err == nil:
		if existing.Unchanged(size, modNs) {
			if err := tx.TouchSource(ctx, path, now); err != nil {
				return fmt.Errorf("touch source %s: %w", path, err)
			}
			stats.SkippedUnchanged++
			logger.Debug("unchanged: %s", path)
			return nil
		}
	case errors.Is(err, domain.ErrNotFound):
		// first observation
	default:
		return fmt.Errorf("get source %s: %w", path, err)
	}

	// 3. Ingest into the vault
	res, err := o.vault.Ingest(ctx, path)
	if err != nil {
		stats.Errors++
		logger.Warn("ingest %s: %v", path, err)
		return o.recordFailure(ctx, tx, path, now, domain.SourceStatusError, err)
	}

	// 4. Record the document, then the observation pointing at it
	doc := &domain.Document{
		Digest:       res.Digest,
		StoreRelPath: res.StoreRelPath,
		ByteSize:     res.ByteSize,
		FirstSeenAt:  now,
		LastSeenAt:   now,
	}
	if err := tx.UpsertDocument(ctx, doc); err != nil {
		return fmt.Errorf("upsert document %s: %w", res.Digest, err)
	}

	rec := &domain.SourceRecord{
		Path:        path,
		Basename:    filepath.Base(path),
		Size:        size,
		ModTimeNs:   modNs,
		Digest:      res.Digest,
		FirstSeenAt: now,
		LastSeenAt:  now,
		Status:      domain.SourceStatusOK,
	}
	if err := tx.UpsertSource(ctx, rec); err != nil {
		return fmt.Errorf("upsert source %s: %w", path, err)
	}

	if res.NewCopy {
		stats.CopiedNew++
		logger.Debug("vaulted: %s -> %s", path, res.StoreRelPath)
	} else {
		stats.DedupedExisting++
		logger.Debug("dedup hit: %s", path)
	}
	return nil
}

// recordFailure upserts a failed observation. The digest of a previous
// successful scan is deliberately not carried over: the path no longer
// vouches for that content.
func (o *ScanOrchestrator) recordFailure(ctx context.Context, tx driven.ManifestTx, path string, now time.Time, status domain.SourceStatus, cause error) error {
	rec := &domain.SourceRecord{
		Path:        path,
		Basename:    filepath.Base(path),
		FirstSeenAt: now,
		LastSeenAt:  now,
		Status:      status,
		Error:       cause.Error(),
	}
	if err := tx.UpsertSource(ctx, rec); err != nil {
		return fmt.Errorf("record failure for %s: %w", path, err)
	}
	return nil
}
