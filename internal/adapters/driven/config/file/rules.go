package file

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/shelva-cli/internal/core/domain"
	"github.com/custodia-labs/shelva-cli/internal/core/ports/driven"
)

// Ensure RuleSetStore implements the interface.
var _ driven.RuleSetStore = (*RuleSetStore)(nil)

//go:embed default_rules.toml
var defaultRules []byte

// RuleSetStore loads the categorization rule set from rules.toml at
// the library root. Decoding is strict: unknown keys are configuration
// errors, not typos to tolerate silently.
type RuleSetStore struct {
	path     string
	validate *validator.Validate
}

// ruleFile is the TOML shape of rules.toml.
type ruleFile struct {
	DefaultCategory string         `toml:"default_category" validate:"required"`
	MinScore        float64        `toml:"min_score"        validate:"gte=0"`
	Categories      []categoryRule `toml:"categories"       validate:"omitempty,dive"`
}

// categoryRule is the TOML shape of one [[categories]] entry.
type categoryRule struct {
	Name                string   `toml:"name" validate:"required"`
	Priority            int      `toml:"priority"`
	MinPages            *int     `toml:"min_pages" validate:"omitempty,gte=1"`
	MaxPages            *int     `toml:"max_pages" validate:"omitempty,gte=1"`
	PathKeywordsAny     []string `toml:"path_keywords_any"`
	FilenameKeywordsAny []string `toml:"filename_keywords_any"`
	MetadataKeywordsAny []string `toml:"metadata_keywords_any"`
	TextKeywordsAny     []string `toml:"text_keywords_any"`
}

// NewRuleSetStore creates a rule set store for the library.
func NewRuleSetStore(lib domain.Library) *RuleSetStore {
	return &RuleSetStore{
		path:     lib.RulesPath(),
		validate: validator.New(),
	}
}

// Load reads, decodes and validates the rule set.
func (s *RuleSetStore) Load() (*domain.RuleSet, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: missing %s (run shelva init)", domain.ErrLibraryNotInitialized, s.path)
		}
		return nil, fmt.Errorf("reading rules file: %w", err)
	}

	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var f ruleFile
	if err := dec.Decode(&f); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return nil, fmt.Errorf("%w: unknown keys in %s:\n%s", domain.ErrConfig, s.path, strict.String())
		}
		return nil, fmt.Errorf("%w: parsing %s: %v", domain.ErrConfig, s.path, err)
	}

	if err := s.validate.Struct(&f); err != nil {
		return nil, fmt.Errorf("%w: invalid rules in %s: %v", domain.ErrConfig, s.path, err)
	}

	rs := toDomain(&f)
	if err := rs.Validate(); err != nil {
		return nil, err
	}
	return rs, nil
}

// EnsureDefault writes the packaged starter rule set if no rules file
// exists yet. An existing file is never touched.
func (s *RuleSetStore) EnsureDefault() error {
	if _, err := os.Stat(s.path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("checking rules file: %w", err)
	}

	if err := os.WriteFile(s.path, defaultRules, 0o644); err != nil {
		return fmt.Errorf("writing default rules: %w", err)
	}
	return nil
}

// Path returns the rules file path.
func (s *RuleSetStore) Path() string {
	return s.path
}

// toDomain converts the decoded TOML form into the domain rule set.
func toDomain(f *ruleFile) *domain.RuleSet {
	rs := &domain.RuleSet{
		DefaultCategory: f.DefaultCategory,
		MinScore:        f.MinScore,
		Categories:      make([]domain.CategoryRule, 0, len(f.Categories)),
	}
	for _, c := range f.Categories {
		rs.Categories = append(rs.Categories, domain.CategoryRule{
			Name:             c.Name,
			Priority:         c.Priority,
			MinPages:         c.MinPages,
			MaxPages:         c.MaxPages,
			PathKeywords:     c.PathKeywordsAny,
			FilenameKeywords: c.FilenameKeywordsAny,
			MetadataKeywords: c.MetadataKeywordsAny,
			TextKeywords:     c.TextKeywordsAny,
		})
	}
	return rs
}
