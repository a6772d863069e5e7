package domain

import (
	"fmt"
	"strings"
)

// Channel weights for rule scoring. Path and filename hits are weak
// signals, document metadata is stronger, matched text content is the
// strongest. Extra hits in the same channel add a small bonus.
const (
	weightPath     = 2.0
	weightFilename = 2.0
	weightMetadata = 3.0
	weightText     = 4.0
	extraHitBonus  = 0.25

	// priorityEpsilon keeps the priority tie-breaker far below one
	// keyword hit so it can never change coarse ranking.
	priorityEpsilon = 1e-6
)

// BelowMinScorePrefix starts the reason recorded when the best rule score
// fell under the configured minimum and the default category was used.
// The categorization engine keys its fallback decision off this prefix.
const BelowMinScorePrefix = "below min_score"

// CategoryRule describes one category the scorer can assign.
type CategoryRule struct {
	// Name is the category name as it appears in the view.
	Name string

	// Priority breaks ties between rules with equal keyword scores.
	// Higher wins.
	Priority int

	// MinPages and MaxPages bound the document page count. A nil bound
	// is open. A rule is skipped entirely when the known page count is
	// outside the bounds.
	MinPages *int
	MaxPages *int

	// PathKeywords match against the full source path.
	PathKeywords []string

	// FilenameKeywords match against the source basename.
	FilenameKeywords []string

	// MetadataKeywords match against title, subject, keywords and
	// authors concatenated.
	MetadataKeywords []string

	// TextKeywords match against the extracted text sample.
	TextKeywords []string
}

// pageCountAllowed reports whether a known page count satisfies the
// rule's bounds. An unknown (zero) page count always passes.
func (r *CategoryRule) pageCountAllowed(pages int) bool {
	if pages <= 0 {
		return true
	}
	if r.MinPages != nil && pages < *r.MinPages {
		return false
	}
	if r.MaxPages != nil && pages > *r.MaxPages {
		return false
	}
	return true
}

// RuleSet is the configured categorization rule list plus its
// thresholds. Rule order matters: earlier rules win score ties.
type RuleSet struct {
	// DefaultCategory receives documents no rule claims confidently.
	DefaultCategory string

	// MinScore is the acceptance threshold for the best rule score.
	MinScore float64

	// Categories is the ordered rule list.
	Categories []CategoryRule
}

// Validate checks structural soundness of the rule set.
// Violations are configuration errors and fatal before any work.
func (rs *RuleSet) Validate() error {
	if strings.TrimSpace(rs.DefaultCategory) == "" {
		return fmt.Errorf("%w: default category must not be empty", ErrConfig)
	}
	if rs.MinScore < 0 {
		return fmt.Errorf("%w: min score must not be negative", ErrConfig)
	}
	for i, rule := range rs.Categories {
		if strings.TrimSpace(rule.Name) == "" {
			return fmt.Errorf("%w: category %d has an empty name", ErrConfig, i)
		}
		if rule.MinPages != nil && rule.MaxPages != nil && *rule.MinPages > *rule.MaxPages {
			return fmt.Errorf("%w: category %q has min_pages > max_pages", ErrConfig, rule.Name)
		}
	}
	return nil
}

// AllowedCategories returns the configured category names plus the
// default, de-duplicated with order preserved. This is the allow-list
// handed to the LLM classifier.
func (rs *RuleSet) AllowedCategories() []string {
	seen := make(map[string]struct{}, len(rs.Categories)+1)
	allowed := make([]string, 0, len(rs.Categories)+1)
	for _, rule := range rs.Categories {
		if _, ok := seen[rule.Name]; ok {
			continue
		}
		seen[rule.Name] = struct{}{}
		allowed = append(allowed, rule.Name)
	}
	if _, ok := seen[rs.DefaultCategory]; !ok {
		allowed = append(allowed, rs.DefaultCategory)
	}
	return allowed
}

// UsesTextKeywords reports whether any rule matches on text samples.
// When false and the LLM is off, text extraction can be skipped.
func (rs *RuleSet) UsesTextKeywords() bool {
	for _, rule := range rs.Categories {
		if len(rule.TextKeywords) > 0 {
			return true
		}
	}
	return false
}

// Score evaluates the document attributes against every rule and returns
// the winning categorization. Pure: identical inputs always produce the
// identical result.
//
// Each of the four channels contributes only when at least one of its
// keywords matches; the first matching keyword per channel is recorded
// in the reason. A rule replaces the current best only on a strictly
// greater score, so the earliest rule wins exact ties and priority
// settles near-ties via its epsilon contribution.
func (rs *RuleSet) Score(attrs Attributes) Categorization {
	best := Categorization{
		Category: rs.DefaultCategory,
		Score:    0,
		Reason:   "no rules matched",
	}

	metaHaystack := strings.Join([]string{attrs.Title, attrs.Subject, attrs.Keywords, attrs.Authors}, " ")

	for _, rule := range rs.Categories {
		if !rule.pageCountAllowed(attrs.PageCount) {
			continue
		}

		score := 0.0
		var reasons []string

		if hits, first := keywordHits(attrs.SourcePath, rule.PathKeywords); hits > 0 {
			score += weightPath + extraHitBonus*float64(hits-1)
			reasons = append(reasons, "path:"+first)
		}
		if hits, first := keywordHits(attrs.Basename, rule.FilenameKeywords); hits > 0 {
			score += weightFilename + extraHitBonus*float64(hits-1)
			reasons = append(reasons, "filename:"+first)
		}
		if hits, first := keywordHits(metaHaystack, rule.MetadataKeywords); hits > 0 {
			score += weightMetadata + extraHitBonus*float64(hits-1)
			reasons = append(reasons, "meta:"+first)
		}
		if hits, first := keywordHits(attrs.TextSample, rule.TextKeywords); hits > 0 {
			score += weightText + extraHitBonus*float64(hits-1)
			reasons = append(reasons, "text:"+first)
		}

		if score > 0 {
			score += float64(rule.Priority) * priorityEpsilon
		}

		reason := "matched category"
		if len(reasons) > 0 {
			reason = strings.Join(reasons, ", ")
		}

		if score > best.Score {
			best = Categorization{Category: rule.Name, Score: score, Reason: reason}
		}
	}

	if best.Score < rs.MinScore {
		return Categorization{
			Category: rs.DefaultCategory,
			Score:    best.Score,
			Reason:   BelowMinScorePrefix + "; defaulted",
		}
	}
	return best
}

// keywordHits counts case-insensitive substring matches of keywords in
// haystack and returns the first matching keyword as written in the rule.
func keywordHits(haystack string, keywords []string) (int, string) {
	if haystack == "" || len(keywords) == 0 {
		return 0, ""
	}
	hay := strings.ToLower(haystack)
	hits := 0
	first := ""
	for _, kw := range keywords {
		k := strings.ToLower(strings.TrimSpace(kw))
		if k == "" {
			continue
		}
		if strings.Contains(hay, k) {
			hits++
			if first == "" {
				first = kw
			}
		}
	}
	return hits, first
}
