package driving

import (
	"context"

	"github.com/custodia-labs/shelva-cli/internal/core/domain"
)

// ScanRequest configures one scan pass.
type ScanRequest struct {
	// Roots are the directories to sweep for documents.
	Roots []string

	// ExcludePrefixes removes any path under one of these prefixes.
	// The library root is always excluded regardless.
	ExcludePrefixes []string

	// Limit bounds the number of candidates considered. Zero means
	// unlimited.
	Limit int

	// DryRun counts discoveries without touching vault or manifest.
	DryRun bool
}

// Scanner runs scan passes: enumerate candidates, ingest novel content,
// record every observation in the manifest.
type Scanner interface {
	Scan(ctx context.Context, req ScanRequest) (*domain.ScanStats, error)
}
