// Package filesystem provides the walk-based candidate finder for
// local PDF files.
package filesystem

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/shelva-cli/internal/core/ports/driven"
)

// Ensure Finder implements the interface.
var _ driven.Finder = (*Finder)(nil)

// Finder enumerates PDF candidates by walking directory trees.
type Finder struct{}

// NewFinder creates a filesystem finder.
func NewFinder() *Finder {
	return &Finder{}
}

// Find walks the requested roots and streams candidate paths. Paths
// are absolute, deduplicated across overlapping roots and yielded in
// walk order. Unreadable entries go to the error channel without
// stopping the walk.
func (f *Finder) Find(ctx context.Context, req driven.FindRequest) (<-chan string, <-chan error) {
	paths := make(chan string)
	errs := make(chan error, 1)

	go func() {
		defer close(paths)
		defer close(errs)

		roots := NormalizePaths(req.Roots)
		excludes := NormalizePaths(req.ExcludePrefixes)

		seen := make(map[string]struct{})
		found := 0

		for _, root := range roots {
			if req.Limit > 0 && found >= req.Limit {
				return
			}

			err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
				select {
				case <-ctx.Done():
					return ctx.Err()
				default:
				}

				if err != nil {
					select {
					case <-ctx.Done():
						return ctx.Err()
					case errs <- fmt.Errorf("walking %s: %w", path, err):
					}
					return nil
				}

				if d.IsDir() {
					if isExcluded(path, excludes) {
						return filepath.SkipDir
					}
					return nil
				}

				if !strings.EqualFold(filepath.Ext(d.Name()), ".pdf") {
					return nil
				}
				if isExcluded(path, excludes) {
					return nil
				}

				// Symlinked files count when they resolve to regular files.
				if !d.Type().IsRegular() {
					if d.Type()&fs.ModeSymlink == 0 {
						return nil
					}
					info, statErr := os.Stat(path)
					if statErr != nil || !info.Mode().IsRegular() {
						return nil
					}
				}

				if _, ok := seen[path]; ok {
					return nil
				}
				seen[path] = struct{}{}

				select {
				case <-ctx.Done():
					return ctx.Err()
				case paths <- path:
				}

				found++
				if req.Limit > 0 && found >= req.Limit {
					return fs.SkipAll
				}
				return nil
			})
			// The callback only surfaces cancellation; per-entry errors
			// were already delivered.
			if err != nil {
				return
			}
		}
	}()

	return paths, errs
}

// NormalizePaths expands, absolutizes and de-blanks a path list,
// preserving order.
func NormalizePaths(in []string) []string {
	out := make([]string, 0, len(in))
	for _, p := range in {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		p = ExpandHome(p)
		if abs, err := filepath.Abs(p); err == nil {
			p = abs
		}
		out = append(out, p)
	}
	return out
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~"+string(os.PathSeparator)) {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if path == "~" {
		return home
	}
	return filepath.Join(home, path[2:])
}

// isExcluded reports whether path equals or sits under any prefix.
// Matching is boundary-aware: /a/b does not exclude /a/bc.
func isExcluded(path string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if path == prefix || strings.HasPrefix(path, prefix+string(os.PathSeparator)) {
			return true
		}
	}
	return false
}
