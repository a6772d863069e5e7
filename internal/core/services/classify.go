package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/shelva-cli/internal/core/domain"
	"github.com/custodia-labs/shelva-cli/internal/core/ports/driven"
	"github.com/custodia-labs/shelva-cli/internal/extract"
)

// maxReasonRunes bounds the stored reason so a rambling model cannot
// bloat the manifest.
const maxReasonRunes = 200

var nonAlnumRuns = regexp.MustCompile(`[^a-z0-9]+`)

// Classifier asks the completion provider to categorize one document
// and normalizes whatever comes back against the allow-list.
type Classifier struct {
	client          driven.CompletionClient
	settings        domain.LLMSettings
	defaultCategory string
	allowed         []string

	// normalized form of every allowed name, for matching answers that
	// differ only in case or punctuation.
	normalized map[string]string
}

// NewClassifier creates a classifier for one run. The allow-list is the
// rule set's categories plus the default, de-duplicated with order
// preserved.
func NewClassifier(client driven.CompletionClient, settings domain.LLMSettings, rules *domain.RuleSet) *Classifier {
	allowed := rules.AllowedCategories()
	normalized := make(map[string]string, len(allowed))
	for _, name := range allowed {
		normalized[normalizeCategoryName(name)] = name
	}
	return &Classifier{
		client:          client,
		settings:        settings,
		defaultCategory: rules.DefaultCategory,
		allowed:         allowed,
		normalized:      normalized,
	}
}

// Provider names the backing provider for audit annotations.
func (c *Classifier) Provider() string {
	return c.client.Provider()
}

// Model names the configured model for audit annotations.
func (c *Classifier) Model() string {
	return c.client.Model()
}

// Classify sends one prompt and normalizes the answer.
//
// Transport failures return an error; every content-level deviation in
// a successful response degrades to the default category instead. The
// raw completion text is preserved on the result for audit.
func (c *Classifier) Classify(ctx context.Context, attrs domain.Attributes) (domain.LLMClassification, error) {
	prompt := c.buildPrompt(attrs)

	started := time.Now()
	raw, err := c.client.Complete(ctx, prompt)
	if err != nil {
		return domain.LLMClassification{}, fmt.Errorf("completion call: %w", err)
	}
	elapsed := time.Since(started)

	data := extract.Extract(raw)

	category, ok := data["category"].(string)
	if !ok {
		return domain.LLMClassification{
			Category:   c.defaultCategory,
			Confidence: 0,
			Reason:     "missing/invalid category; defaulted",
			Raw:        raw,
		}, nil
	}

	final, ok := c.normalized[normalizeCategoryName(category)]
	if !ok {
		final = c.defaultCategory
	}

	confidence := clamp01(parseConfidence(data["confidence"]))

	reason := strings.TrimSpace(stringifyReason(data["reason"]))
	reason = domain.TruncateRunes(reason, maxReasonRunes)
	if reason == "" {
		reason = fmt.Sprintf("llm classified in %.2fs", elapsed.Seconds())
	}

	return domain.LLMClassification{
		Category:   final,
		Confidence: confidence,
		Reason:     reason,
		Raw:        raw,
	}, nil
}

// buildPrompt assembles the librarian prompt. Path disclosure is
// applied here, before any text leaves the process.
func (c *Classifier) buildPrompt(attrs domain.Attributes) string {
	shownPath := formatSourcePath(attrs.SourcePath, c.settings.PathMode, c.settings.PathTailParts)
	sample := strings.TrimSpace(spaceRunsRe.ReplaceAllString(attrs.TextSample, " "))

	pages := ""
	if attrs.PageCount > 0 {
		pages = strconv.Itoa(attrs.PageCount)
	}

	lines := []string{
		"You are a precise document librarian.",
		"Pick the single best category for this PDF from the allowed list.",
		"Return ONLY valid JSON (no markdown) with keys: category, confidence, reason.",
		"Allowed categories: " + jsonStringList(c.allowed),
		"confidence is a number from 0 to 1.",
		"reason must be under 140 characters.",
		fmt.Sprintf("If unsure, use category=%q with low confidence.", c.defaultCategory),
		"",
		"PDF info:",
		"- source_path: " + shownPath,
		"- filename: " + attrs.Basename,
		"- title: " + attrs.Title,
		"- authors: " + attrs.Authors,
		"- subject: " + attrs.Subject,
		"- keywords: " + attrs.Keywords,
		"- pages: " + pages,
		"- text_sample: " + sample,
	}
	return strings.Join(lines, "\n")
}

var spaceRunsRe = regexp.MustCompile(`\s+`)

// formatSourcePath applies the configured disclosure mode to a source
// path. Tail mode keeps the last tailParts segments behind an ellipsis
// marker; full mode redacts the home directory to "~".
func formatSourcePath(path string, mode domain.PathMode, tailParts int) string {
	if path == "" {
		return ""
	}
	switch mode {
	case domain.PathModeBasename:
		return filepath.Base(path)
	case domain.PathModeFull:
		if home, err := os.UserHomeDir(); err == nil && home != "" && strings.HasPrefix(path, home) {
			return "~" + path[len(home):]
		}
		return path
	default:
		segs := strings.Split(filepath.ToSlash(path), "/")
		if segs[0] == "" {
			// rooted path: the root counts as a segment
			segs[0] = "/"
		}
		if len(segs) <= tailParts {
			return path
		}
		return "…/" + strings.Join(segs[len(segs)-tailParts:], "/")
	}
}

// normalizeCategoryName reduces a category to its match key: lower
// case, runs of anything non-alphanumeric collapsed to single spaces.
func normalizeCategoryName(name string) string {
	return strings.TrimSpace(nonAlnumRuns.ReplaceAllString(strings.ToLower(name), " "))
}

// parseConfidence accepts numbers and numeric strings; anything else
// is zero.
func parseConfidence(v any) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case int:
		return float64(t)
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(t), 64); err == nil {
			return f
		}
	}
	return 0
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func stringifyReason(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}

// jsonStringList renders the allow-list as a JSON array without HTML
// escaping, so names like "Receipts & Invoices" appear verbatim.
func jsonStringList(items []string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(items); err != nil {
		return "[]"
	}
	return strings.TrimSpace(buf.String())
}
