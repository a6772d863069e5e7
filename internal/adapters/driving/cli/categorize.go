package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/shelva-cli/internal/adapters/driven/llm/ollama"
	"github.com/custodia-labs/shelva-cli/internal/adapters/driven/llm/openaicompat"
	"github.com/custodia-labs/shelva-cli/internal/core/domain"
	"github.com/custodia-labs/shelva-cli/internal/core/ports/driven"
	"github.com/custodia-labs/shelva-cli/internal/core/ports/driving"
)

var (
	catLimit           int
	catAll             bool
	catDryRun          bool
	catLinkMode        string
	catNoRefresh       bool
	catTextSampleBytes int
)

// Completion provider flags, shared between categorize and run.
var (
	llmProvider        string
	llmBaseURL         string
	llmModel           string
	llmMode            string
	llmMinConfidence   float64
	llmTimeout         time.Duration
	llmMaxOutputTokens int
	llmPathMode        string
	llmPathTailParts   int
)

var categorizeCmd = &cobra.Command{
	Use:   "categorize",
	Short: "Categorize vaulted documents and rebuild the view",
	Long: `Scores every pending document against the library rule set, optionally
consults a completion provider when rules are inconclusive, and rebuilds
the categorized view from the results.

Rules live in rules.toml under the library root. The completion provider
is off unless --llm-provider selects one.`,
	RunE: runCategorize,
}

func init() {
	categorizeCmd.Flags().IntVar(&catLimit, "limit", 0, "stop after this many documents (0 = unlimited)")
	categorizeCmd.Flags().BoolVar(&catDryRun, "dry-run", false, "score without persisting or rebuilding the view")
	addCategorizeFlags(categorizeCmd)
	rootCmd.AddCommand(categorizeCmd)
}

// addCategorizeFlags registers the categorization flags shared by the
// categorize and run commands.
func addCategorizeFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.BoolVar(&catAll, "all", false, "reconsider every document, not only uncategorized ones")
	f.StringVar(&catLinkMode, "link-mode", domain.LinkModeSymlink.String(), "view entry mode: symlink, hardlink or copy")
	f.BoolVar(&catNoRefresh, "no-refresh", false, "layer view entries over the existing tree instead of rebuilding it")
	f.IntVar(&catTextSampleBytes, "text-sample-bytes", 8192, "text extraction budget per document (0 disables)")

	f.StringVar(&llmProvider, "llm-provider", domain.LLMProviderOff.String(), "completion provider: off, openai or ollama")
	f.StringVar(&llmBaseURL, "llm-base-url", "", "provider endpoint (default $SHELVA_LLM_BASE_URL, then the provider default)")
	f.StringVar(&llmModel, "llm-model", "", "model name (default $SHELVA_LLM_MODEL)")
	f.StringVar(&llmMode, "llm-mode", domain.LLMModeFallback.String(), "consult the provider on fallback only, or always")
	f.Float64Var(&llmMinConfidence, "llm-min-confidence", 0.6, "acceptance threshold for provider answers")
	f.DurationVar(&llmTimeout, "llm-timeout", 30*time.Second, "timeout per completion call")
	f.IntVar(&llmMaxOutputTokens, "llm-max-output-tokens", 200, "completion length bound")
	f.StringVar(&llmPathMode, "llm-path-mode", domain.PathModeTail.String(), "source path disclosure in prompts: basename, tail or full")
	f.IntVar(&llmPathTailParts, "llm-path-tail-parts", 3, "path segments disclosed in tail mode")
}

func runCategorize(cmd *cobra.Command, _ []string) error {
	if categorizeService == nil {
		return errors.New("categorize service not configured")
	}

	req := driving.CategorizeRequest{
		Limit:           catLimit,
		Recategorize:    catAll,
		DryRun:          catDryRun,
		LinkMode:        domain.LinkMode(catLinkMode),
		RefreshView:     !catNoRefresh,
		TextSampleBytes: catTextSampleBytes,
		LLM:             buildLLMSettings(),
	}

	ctx := context.Background()
	stats, err := categorizeService.Categorize(ctx, req)
	if err != nil {
		return fmt.Errorf("categorize failed: %w", err)
	}

	if jsonOutput {
		return printJSON(cmd, stats)
	}
	renderCategorizeStats(cmd, stats, catDryRun)
	return nil
}

// buildLLMSettings resolves the provider settings from flags. The base
// URL and model fall back to the environment so .env files can carry
// per-machine endpoints without repeating them on every invocation.
func buildLLMSettings() domain.LLMSettings {
	s := domain.DefaultLLMSettings()
	s.Provider = domain.LLMProvider(llmProvider)
	s.Mode = domain.LLMMode(llmMode)
	s.MinConfidence = llmMinConfidence
	s.Timeout = llmTimeout
	s.MaxOutputTokens = llmMaxOutputTokens
	s.PathMode = domain.PathMode(llmPathMode)
	s.PathTailParts = llmPathTailParts

	s.BaseURL = llmBaseURL
	if s.BaseURL == "" {
		s.BaseURL = os.Getenv("SHELVA_LLM_BASE_URL")
	}
	if s.BaseURL == "" {
		switch s.Provider {
		case domain.LLMProviderOllama:
			s.BaseURL = ollama.DefaultBaseURL
		default:
			s.BaseURL = openaicompat.DefaultBaseURL
		}
	}

	s.Model = llmModel
	if s.Model == "" {
		s.Model = os.Getenv("SHELVA_LLM_MODEL")
	}
	return s
}

// buildCompletionClient constructs the client for the selected
// provider, or nil when the provider is off.
func buildCompletionClient(s domain.LLMSettings) (driven.CompletionClient, error) {
	switch s.Provider {
	case domain.LLMProviderOff:
		return nil, nil
	case domain.LLMProviderOpenAI:
		return openaicompat.NewClient(openaicompat.Config{
			BaseURL:         s.BaseURL,
			Model:           s.Model,
			APIKey:          os.Getenv("SHELVA_LLM_API_KEY"),
			Timeout:         s.Timeout,
			MaxOutputTokens: s.MaxOutputTokens,
		}), nil
	case domain.LLMProviderOllama:
		return ollama.NewClient(ollama.Config{
			BaseURL:         s.BaseURL,
			Model:           s.Model,
			Timeout:         s.Timeout,
			MaxOutputTokens: s.MaxOutputTokens,
		}), nil
	default:
		return nil, fmt.Errorf("%w: unknown llm provider %q", domain.ErrConfig, s.Provider)
	}
}
