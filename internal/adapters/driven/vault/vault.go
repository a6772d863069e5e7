// Package vault implements the digest-addressed content store under the
// library root.
//
// Content is streamed into a scratch file while being hashed, then moved
// into its canonical vault location with an atomic rename. The scratch
// directory lives under the library root so the rename never crosses a
// filesystem boundary. A crash mid-ingest leaves at worst an orphaned
// scratch file, never a partial vault entry.
package vault

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/shelva-cli/internal/core/domain"
	"github.com/custodia-labs/shelva-cli/internal/core/ports/driven"
)

// Vault stores content under <root>/vault/<d0d1>/<d2d3>/<digest>.pdf.
type Vault struct {
	library domain.Library
}

var _ driven.ContentVault = (*Vault)(nil)

// New creates a vault over the given library layout.
func New(library domain.Library) *Vault {
	return &Vault{library: library}
}

// Ingest copies the file at path into the vault and reports whether the
// content was new. Identical bytes always land at the identical vault
// path, so re-ingesting known content costs one read and no writes.
func (v *Vault) Ingest(ctx context.Context, path string) (*driven.IngestResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	src, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening source file: %w", err)
	}
	defer src.Close()

	if err := os.MkdirAll(v.library.ScratchDir(), 0o755); err != nil {
		return nil, fmt.Errorf("creating scratch directory: %w", err)
	}

	scratch := filepath.Join(v.library.ScratchDir(), uuid.New().String()+".part")
	dst, err := os.Create(scratch)
	if err != nil {
		return nil, fmt.Errorf("creating scratch file: %w", err)
	}
	// Remove the scratch file on any path that does not rename it away.
	defer os.Remove(scratch)

	hasher := sha256.New()
	written, err := io.Copy(io.MultiWriter(dst, hasher), src)
	if err != nil {
		dst.Close()
		return nil, fmt.Errorf("copying into scratch: %w", err)
	}
	if err := dst.Sync(); err != nil {
		dst.Close()
		return nil, fmt.Errorf("syncing scratch file: %w", err)
	}
	if err := dst.Close(); err != nil {
		return nil, fmt.Errorf("closing scratch file: %w", err)
	}

	digest := hex.EncodeToString(hasher.Sum(nil))
	relPath := v.library.VaultRelPath(digest)
	finalPath := v.library.VaultPath(digest)

	// Known content: the canonical copy already exists, discard ours.
	if _, err := os.Stat(finalPath); err == nil {
		return &driven.IngestResult{
			Digest:       digest,
			StoreRelPath: relPath,
			ByteSize:     written,
			NewCopy:      false,
		}, nil
	}

	if err := os.MkdirAll(filepath.Dir(finalPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating vault directory: %w", err)
	}
	if err := os.Rename(scratch, finalPath); err != nil {
		return nil, fmt.Errorf("moving into vault: %w", err)
	}

	// Carry the source's modification time onto the canonical copy so
	// the vault stays browsable. Losing it costs nothing.
	if info, err := os.Stat(path); err == nil {
		_ = os.Chtimes(finalPath, time.Now(), info.ModTime())
	}

	return &driven.IngestResult{
		Digest:       digest,
		StoreRelPath: relPath,
		ByteSize:     written,
		NewCopy:      true,
	}, nil
}
