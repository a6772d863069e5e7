// Package cli implements the shelva command-line interface.
//
// Commands talk to the core through the driving ports only. Live runs
// wire the real adapters in wireServices from the resolved library
// root; tests install fakes on the service variables and drive rootCmd
// directly, so they never touch the real filesystem.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/shelva-cli/internal/adapters/driven/config/file"
	"github.com/custodia-labs/shelva-cli/internal/adapters/driven/metadata/pdfmeta"
	"github.com/custodia-labs/shelva-cli/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/shelva-cli/internal/adapters/driven/vault"
	"github.com/custodia-labs/shelva-cli/internal/adapters/driven/view"
	"github.com/custodia-labs/shelva-cli/internal/connectors/filesystem"
	"github.com/custodia-labs/shelva-cli/internal/core/domain"
	"github.com/custodia-labs/shelva-cli/internal/core/ports/driving"
	"github.com/custodia-labs/shelva-cli/internal/core/services"
	"github.com/custodia-labs/shelva-cli/internal/logger"
)

// version is set at build time via ldflags.
var version = "dev"

// Persistent flags.
var (
	libraryFlag string
	verboseFlag bool
	jsonOutput  bool
)

// Services the commands run against.
var (
	libraryService    driving.LibraryManager
	scanService       driving.Scanner
	categorizeService driving.Categorizer
)

// manifestStore is the live store behind the wired services, kept so
// PersistentPostRun can close it after the command finishes.
var manifestStore *sqlite.Store

// autoWire enables live service construction. Only Execute sets it.
var autoWire bool

var rootCmd = &cobra.Command{
	Use:   "shelva",
	Short: "Sweep, deduplicate and categorize PDF collections",
	Long: `Shelva sweeps directories for PDF files, keeps one canonical copy of
each unique document in a content-addressed vault, and builds a browsable
category view from an editable rule set, optionally refined by a local LLM.

Start with "shelva init", then "shelva run".`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		logger.SetVerbose(verboseFlag)
		if !autoWire {
			return nil
		}
		return wireServices(cmd)
	},
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		if manifestStore != nil {
			_ = manifestStore.Close()
			manifestStore = nil
		}
		logger.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&libraryFlag, "library", "~/Documents/PDFLibrary", "library root directory")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output results as JSON")
}

// Execute runs the root command with live services.
func Execute() error {
	autoWire = true
	return rootCmd.Execute()
}

// wireServices builds the adapters and services for the resolved
// library root. Commands that never touch the library skip it, so
// "shelva version" works on a machine with no library at all.
func wireServices(cmd *cobra.Command) error {
	switch cmd.Name() {
	case "init", "scan", "categorize", "run", "status":
	default:
		return nil
	}

	root, err := resolveLibraryRoot()
	if err != nil {
		return err
	}
	lib := domain.NewLibrary(root)

	if cmd.Name() == "init" {
		if err := os.MkdirAll(lib.Root, 0o755); err != nil {
			return fmt.Errorf("creating library root: %w", err)
		}
	} else if !lib.Initialized() {
		return fmt.Errorf("%w: no library at %s (run shelva init)", domain.ErrLibraryNotInitialized, root)
	}

	store, err := sqlite.NewStore(lib.ManifestPath())
	if err != nil {
		return fmt.Errorf("opening manifest: %w", err)
	}
	manifestStore = store

	rules := file.NewRuleSetStore(lib)
	libraryService = services.NewLibraryService(lib, store, rules)
	scanService = services.NewScanOrchestrator(lib, store, vault.New(lib), filesystem.NewFinder())

	if cmd.Name() == "categorize" || cmd.Name() == "run" {
		rs, err := rules.Load()
		if err != nil {
			return err
		}
		settings := buildLLMSettings()
		client, err := buildCompletionClient(settings)
		if err != nil {
			return err
		}
		categorizeService = services.NewCategorizeOrchestrator(lib, store, view.NewBuilder(lib), pdfmeta.NewExtractor(), rs, client)
	}

	return nil
}

// resolveLibraryRoot normalizes the --library flag, falling back to the
// per-user default when the flag is blanked out.
func resolveLibraryRoot() (string, error) {
	roots := filesystem.NormalizePaths([]string{libraryFlag})
	if len(roots) == 0 {
		root, err := domain.DefaultLibraryRoot()
		if err != nil {
			return "", fmt.Errorf("resolving default library root: %w", err)
		}
		return root, nil
	}
	return roots[0], nil
}
