package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report manifest counts for the library",
	Long: `Reports how many unique documents and observed source paths the
manifest holds and how the categorized ones are distributed.`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	if libraryService == nil {
		return errors.New("library service not configured")
	}

	st, err := libraryService.Status(context.Background())
	if err != nil {
		return fmt.Errorf("status failed: %w", err)
	}

	if jsonOutput {
		return printJSON(cmd, statusReport{
			Root:        st.Root,
			Documents:   st.Documents,
			Sources:     st.Sources,
			Categorized: st.Categorized,
			Categories:  st.PerCategory,
		})
	}
	renderStatus(cmd, st)
	return nil
}
