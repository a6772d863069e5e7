// Package view materializes the categorized browsing tree.
//
// The view is fully derived state: every entry is a symlink, hardlink
// or copy pointing at vault content, and the whole tree can be wiped
// and rebuilt from the manifest at any time. Nothing under the view
// root is ever the only copy of anything.
package view

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/custodia-labs/shelva-cli/internal/core/domain"
	"github.com/custodia-labs/shelva-cli/internal/core/ports/driven"
	"github.com/custodia-labs/shelva-cli/internal/logger"
)

// Builder rebuilds the per-category link tree under the view root.
type Builder struct {
	library domain.Library
}

var _ driven.ViewBuilder = (*Builder)(nil)

// NewBuilder creates a view builder over the given library layout.
func NewBuilder(library domain.Library) *Builder {
	return &Builder{library: library}
}

// Rebuild creates one entry per document under its category directory.
//
// Entry names resolve collisions deterministically: the first taker
// keeps the plain name, later ones get a digest-suffixed variant. With
// identical documents and options the resulting tree is identical,
// whatever order previous rebuilds happened in.
func (b *Builder) Rebuild(ctx context.Context, docs []domain.Document, opts driven.ViewOptions) (*driven.ViewResult, error) {
	if opts.ResolveName == nil {
		return nil, fmt.Errorf("%w: view rebuild needs a name resolver", domain.ErrInvalidInput)
	}
	if !opts.Mode.IsValid() {
		return nil, fmt.Errorf("%w: unknown link mode %q", domain.ErrConfig, opts.Mode)
	}

	viewDir := b.library.ViewDir()
	if opts.Refresh {
		if err := wipeChildren(viewDir); err != nil {
			return nil, fmt.Errorf("refreshing view root: %w", err)
		}
	}
	if err := os.MkdirAll(viewDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating view root: %w", err)
	}

	// Group by category, preserving document order within each group.
	groups := make(map[string][]domain.Document)
	for _, doc := range docs {
		category := doc.Category
		if category == "" {
			category = opts.DefaultCategory
		}
		groups[category] = append(groups[category], doc)
	}
	categories := make([]string, 0, len(groups))
	for category := range groups {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	result := &driven.ViewResult{PerCategory: make(map[string]int)}
	for _, category := range categories {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		created, err := b.buildCategory(category, groups[category], opts)
		if err != nil {
			return nil, err
		}
		if created > 0 {
			result.PerCategory[category] = created
			result.Total += created
		}
	}
	return result, nil
}

// buildCategory links every document of one category into its directory.
func (b *Builder) buildCategory(category string, docs []domain.Document, opts driven.ViewOptions) (int, error) {
	dir := filepath.Join(b.library.ViewDir(), domain.SafeFilename(category))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("creating category directory %s: %w", dir, err)
	}

	used := make(map[string]bool)
	created := 0
	for _, doc := range docs {
		vaultPath := b.library.VaultPath(doc.Digest)
		if _, err := os.Stat(vaultPath); err != nil {
			logger.Warn("view: vault copy missing for %s, skipping", domain.ShortDigest(doc.Digest, 12))
			continue
		}

		name := entryName(domain.SafeFilename(opts.ResolveName(doc)), doc.Digest, used)
		used[name] = true

		dest := filepath.Join(dir, name)
		if err := placeEntry(opts.Mode, vaultPath, dest); err != nil {
			return created, fmt.Errorf("%w: %s: %v", domain.ErrLinkFailed, dest, err)
		}
		created++
	}
	return created, nil
}

// entryName picks a free filename for the stem: the plain name first,
// then a digest-suffixed variant, then numbered variants of that.
func entryName(stem, digest string, used map[string]bool) string {
	name := stem + ".pdf"
	if !used[name] {
		return name
	}
	name = fmt.Sprintf("%s__%s.pdf", stem, domain.ShortDigest(digest, 8))
	for n := 2; used[name]; n++ {
		name = fmt.Sprintf("%s__%s__%d.pdf", stem, domain.ShortDigest(digest, 8), n)
	}
	return name
}

// placeEntry points dest at the vault copy using the requested mode,
// degrading to sturdier modes when the filesystem refuses: hardlinks
// fall back to symlinks, symlinks fall back to copies.
func placeEntry(mode domain.LinkMode, vaultPath, dest string) error {
	// A stale entry from an earlier rebuild may hold the name.
	if err := os.Remove(dest); err != nil && !os.IsNotExist(err) {
		return err
	}

	switch mode {
	case domain.LinkModeHardlink:
		if err := os.Link(vaultPath, dest); err == nil {
			return nil
		}
		fallthrough
	case domain.LinkModeSymlink:
		rel, err := filepath.Rel(filepath.Dir(dest), vaultPath)
		if err != nil {
			rel = vaultPath
		}
		if err := os.Symlink(rel, dest); err == nil {
			return nil
		}
		return copyFile(vaultPath, dest)
	case domain.LinkModeCopy:
		return copyFile(vaultPath, dest)
	default:
		return fmt.Errorf("unknown link mode %q", mode)
	}
}

// copyFile duplicates src at dest.
func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// wipeChildren removes everything under dir, keeping dir itself.
func wipeChildren(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, entry := range entries {
		if err := os.RemoveAll(filepath.Join(dir, entry.Name())); err != nil {
			return err
		}
	}
	return nil
}
