package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/shelva-cli/internal/core/domain"
	"github.com/custodia-labs/shelva-cli/internal/core/ports/driving"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Scan then categorize in one pass",
	Long: `Runs a full pass: sweep the roots for new PDFs, then categorize every
pending document and rebuild the view. Equivalent to "shelva scan"
followed by "shelva categorize".

--limit bounds the sweep; the categorization pass always works through
everything that is pending.`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringSliceVar(&scanRoots, "roots", nil, "directories to sweep (default: common user directories)")
	runCmd.Flags().StringSliceVar(&scanExclude, "exclude", nil, "path prefixes to skip")
	runCmd.Flags().IntVar(&scanLimit, "limit", 0, "stop the sweep after this many candidates (0 = unlimited)")
	runCmd.Flags().BoolVar(&scanDryRun, "dry-run", false, "report what both passes would do without changing anything")
	addCategorizeFlags(runCmd)
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, _ []string) error {
	if scanService == nil {
		return errors.New("scan service not configured")
	}
	if categorizeService == nil {
		return errors.New("categorize service not configured")
	}

	scanReq := driving.ScanRequest{
		Roots:           scanRoots,
		ExcludePrefixes: scanExclude,
		Limit:           scanLimit,
		DryRun:          scanDryRun,
	}
	if len(scanReq.Roots) == 0 {
		scanReq.Roots = defaultScanRoots()
	}

	ctx := context.Background()
	scanStats, err := scanService.Scan(ctx, scanReq)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	catReq := driving.CategorizeRequest{
		Recategorize:    catAll,
		DryRun:          scanDryRun,
		LinkMode:        domain.LinkMode(catLinkMode),
		RefreshView:     !catNoRefresh,
		TextSampleBytes: catTextSampleBytes,
		LLM:             buildLLMSettings(),
	}
	catStats, err := categorizeService.Categorize(ctx, catReq)
	if err != nil {
		return fmt.Errorf("categorize failed: %w", err)
	}

	if jsonOutput {
		return printJSON(cmd, runReport{Scan: scanStats, Categorize: catStats})
	}
	renderScanStats(cmd, scanStats, scanDryRun)
	cmd.Println()
	renderCategorizeStats(cmd, catStats, scanDryRun)
	return nil
}
