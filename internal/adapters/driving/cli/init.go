package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the library layout",
	Long: `Creates the library root with its vault, view and scratch directories,
the manifest database and a starter rule set.

Safe to run again: an existing rule set is never overwritten.`,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, _ []string) error {
	if libraryService == nil {
		return errors.New("library service not configured")
	}

	root, err := resolveLibraryRoot()
	if err != nil {
		return err
	}

	if err := libraryService.Init(context.Background()); err != nil {
		return fmt.Errorf("init failed: %w", err)
	}

	cmd.Printf("Initialized library at %s\n", root)
	cmd.Println("Edit rules.toml there to tune categories, then run: shelva run")
	return nil
}
