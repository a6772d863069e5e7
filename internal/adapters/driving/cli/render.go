package cli

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/shelva-cli/internal/core/domain"
	"github.com/custodia-labs/shelva-cli/internal/core/ports/driving"
)

// Styles for human-readable output. JSON output bypasses all of them,
// and lipgloss degrades to plain text when stdout is not a terminal.
var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED")) // Purple
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C7086"))            // Medium gray
	countStyle = lipgloss.NewStyle().Bold(true)
)

// runReport is the combined JSON payload for the run command.
type runReport struct {
	Scan       *domain.ScanStats       `json:"scan"`
	Categorize *domain.CategorizeStats `json:"categorize"`
}

// statusReport is the JSON payload for the status command.
type statusReport struct {
	Root        string         `json:"root"`
	Documents   int            `json:"documents"`
	Sources     int            `json:"sources"`
	Categorized int            `json:"categorized"`
	Categories  map[string]int `json:"categories,omitempty"`
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func statLine(label string, n int) string {
	return fmt.Sprintf("  %s %s",
		labelStyle.Render(fmt.Sprintf("%-18s", label)),
		countStyle.Render(fmt.Sprintf("%d", n)))
}

func renderScanStats(cmd *cobra.Command, stats *domain.ScanStats, dryRun bool) {
	title := "Scan complete"
	if dryRun {
		title = "Scan (dry run)"
	}
	cmd.Println(titleStyle.Render(title))
	cmd.Println(statLine("discovered", stats.Discovered))
	cmd.Println(statLine("copied new", stats.CopiedNew))
	cmd.Println(statLine("deduped", stats.DedupedExisting))
	cmd.Println(statLine("unchanged", stats.SkippedUnchanged))
	cmd.Println(statLine("errors", stats.Errors))
}

func renderCategorizeStats(cmd *cobra.Command, stats *domain.CategorizeStats, dryRun bool) {
	title := "Categorize complete"
	if dryRun {
		title = "Categorize (dry run)"
	}
	cmd.Println(titleStyle.Render(title))
	cmd.Println(statLine("categorized", stats.DocsCategorized))
	cmd.Println(statLine("view entries", stats.LinksCreated))
	if stats.LLMCalls > 0 {
		cmd.Println(statLine("llm calls", stats.LLMCalls))
		cmd.Println(statLine("llm accepted", stats.LLMUsed))
		cmd.Println(statLine("llm failed", stats.LLMFailed))
	}
	renderPerCategory(cmd, stats.PerCategory)
}

func renderStatus(cmd *cobra.Command, st *driving.LibraryStatus) {
	cmd.Println(titleStyle.Render("Library " + st.Root))
	cmd.Println(statLine("documents", st.Documents))
	cmd.Println(statLine("sources", st.Sources))
	cmd.Println(statLine("categorized", st.Categorized))
	renderPerCategory(cmd, st.PerCategory)
}

func renderPerCategory(cmd *cobra.Command, perCategory map[string]int) {
	if len(perCategory) == 0 {
		return
	}
	names := make([]string, 0, len(perCategory))
	for name := range perCategory {
		names = append(names, name)
	}
	sort.Strings(names)

	cmd.Println()
	cmd.Println("By category:")
	for _, name := range names {
		cmd.Println(statLine(name, perCategory[name]))
	}
}
