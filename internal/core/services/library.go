package services

import (
	"context"
	"fmt"
	"os"

	"github.com/custodia-labs/shelva-cli/internal/core/domain"
	"github.com/custodia-labs/shelva-cli/internal/core/ports/driven"
	"github.com/custodia-labs/shelva-cli/internal/core/ports/driving"
	"github.com/custodia-labs/shelva-cli/internal/logger"
)

// Ensure LibraryService implements the interface.
var _ driving.LibraryManager = (*LibraryService)(nil)

// LibraryService creates the on-disk library layout and reports on the
// manifest contents.
type LibraryService struct {
	library domain.Library
	store   driven.ManifestStore
	rules   driven.RuleSetStore
}

// NewLibraryService creates a new library service.
func NewLibraryService(library domain.Library, store driven.ManifestStore, rules driven.RuleSetStore) *LibraryService {
	return &LibraryService{
		library: library,
		store:   store,
		rules:   rules,
	}
}

// Init creates the library layout. Running it against an existing
// library is harmless: directories are created if missing and an
// existing rule set is left exactly as the operator wrote it.
func (s *LibraryService) Init(ctx context.Context) error {
	dirs := []string{
		s.library.Root,
		s.library.VaultDir(),
		s.library.ViewDir(),
		s.library.ScratchDir(),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}

	if err := s.rules.EnsureDefault(); err != nil {
		return fmt.Errorf("seed rule set: %w", err)
	}

	logger.Info("library initialized at %s", s.library.Root)
	return nil
}

// Status reports manifest counts for the status command.
func (s *LibraryService) Status(ctx context.Context) (*driving.LibraryStatus, error) {
	docs, err := s.store.CountDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("count documents: %w", err)
	}
	sources, err := s.store.CountSources(ctx)
	if err != nil {
		return nil, fmt.Errorf("count sources: %w", err)
	}
	perCategory, err := s.store.CountByCategory(ctx)
	if err != nil {
		return nil, fmt.Errorf("count by category: %w", err)
	}

	categorized := 0
	for _, n := range perCategory {
		categorized += n
	}

	return &driving.LibraryStatus{
		Root:        s.library.Root,
		Documents:   docs,
		Sources:     sources,
		Categorized: categorized,
		PerCategory: perCategory,
	}, nil
}
