package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/shelva-cli/internal/core/ports/driving"
)

var (
	scanRoots   []string
	scanExclude []string
	scanLimit   int
	scanDryRun  bool
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Sweep directories and ingest new PDFs into the vault",
	Long: `Sweeps the given roots for PDF files, copies novel content into the
content-addressed vault and records every observed path in the manifest.
Unchanged paths are skipped without reading their bytes; duplicate
content is recorded but never stored twice.

Without --roots the common user directories that exist on this machine
are swept. The library root itself is always excluded.`,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().StringSliceVar(&scanRoots, "roots", nil, "directories to sweep (default: common user directories)")
	scanCmd.Flags().StringSliceVar(&scanExclude, "exclude", nil, "path prefixes to skip")
	scanCmd.Flags().IntVar(&scanLimit, "limit", 0, "stop after this many candidates (0 = unlimited)")
	scanCmd.Flags().BoolVar(&scanDryRun, "dry-run", false, "count candidates without ingesting anything")
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, _ []string) error {
	if scanService == nil {
		return errors.New("scan service not configured")
	}

	req := driving.ScanRequest{
		Roots:           scanRoots,
		ExcludePrefixes: scanExclude,
		Limit:           scanLimit,
		DryRun:          scanDryRun,
	}
	if len(req.Roots) == 0 {
		req.Roots = defaultScanRoots()
	}

	ctx := context.Background()
	stats, err := scanService.Scan(ctx, req)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	if jsonOutput {
		return printJSON(cmd, stats)
	}
	renderScanStats(cmd, stats, scanDryRun)
	return nil
}

// defaultScanRoots returns the common per-user document locations that
// exist on this machine, or the home directory when none do. The scan
// service excludes the library root on its own, so a library under one
// of these is safe.
func defaultScanRoots() []string {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}

	candidates := []string{
		filepath.Join(home, "Desktop"),
		filepath.Join(home, "Documents"),
		filepath.Join(home, "Downloads"),
	}
	roots := make([]string, 0, len(candidates))
	for _, dir := range candidates {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			roots = append(roots, dir)
		}
	}
	if len(roots) == 0 {
		roots = append(roots, home)
	}
	return roots
}
