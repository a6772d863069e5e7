package domain

import (
	"fmt"
	"time"
)

const unknownDescription = "Unknown"

// LinkMode defines how the categorized view points at vault content.
type LinkMode string

// Available link modes.
const (
	// LinkModeSymlink creates relative symbolic links into the vault.
	LinkModeSymlink LinkMode = "symlink"

	// LinkModeHardlink creates hard links to the vault copies.
	LinkModeHardlink LinkMode = "hardlink"

	// LinkModeCopy duplicates the content into the view.
	LinkModeCopy LinkMode = "copy"
)

// IsValid returns true if the link mode is recognised.
func (m LinkMode) IsValid() bool {
	switch m {
	case LinkModeSymlink, LinkModeHardlink, LinkModeCopy:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (m LinkMode) String() string {
	return string(m)
}

// Description returns a human-readable description of the mode.
func (m LinkMode) Description() string {
	switch m {
	case LinkModeSymlink:
		return "Symbolic links (relative, smallest footprint)"
	case LinkModeHardlink:
		return "Hard links (survive vault moves on the same filesystem)"
	case LinkModeCopy:
		return "Full copies (largest footprint, fully independent)"
	default:
		return unknownDescription
	}
}

// AllLinkModes returns all available link modes.
func AllLinkModes() []LinkMode {
	return []LinkMode{LinkModeSymlink, LinkModeHardlink, LinkModeCopy}
}

// PathMode defines how much of a source path the LLM prompt discloses.
// This is a privacy control: it is applied before the prompt is built,
// never after.
type PathMode string

// Available path disclosure modes.
const (
	// PathModeBasename discloses only the filename.
	PathModeBasename PathMode = "basename"

	// PathModeTail discloses the last few path segments, with an
	// ellipsis marker signalling truncation.
	PathModeTail PathMode = "tail"

	// PathModeFull discloses the absolute path with the home directory
	// redacted to "~".
	PathModeFull PathMode = "full"
)

// IsValid returns true if the path mode is recognised.
func (m PathMode) IsValid() bool {
	switch m {
	case PathModeBasename, PathModeTail, PathModeFull:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (m PathMode) String() string {
	return string(m)
}

// Description returns a human-readable description of the mode.
func (m PathMode) Description() string {
	switch m {
	case PathModeBasename:
		return "Filename only"
	case PathModeTail:
		return "Last path segments only"
	case PathModeFull:
		return "Full path (home redacted)"
	default:
		return unknownDescription
	}
}

// LLMMode defines when the classifier consults the completion provider.
type LLMMode string

// Available LLM consultation modes.
const (
	// LLMModeFallback consults the provider only when rules are
	// inconclusive.
	LLMModeFallback LLMMode = "fallback"

	// LLMModeAlways consults the provider for every document.
	LLMModeAlways LLMMode = "always"
)

// IsValid returns true if the LLM mode is recognised.
func (m LLMMode) IsValid() bool {
	switch m {
	case LLMModeFallback, LLMModeAlways:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (m LLMMode) String() string {
	return string(m)
}

// LLMProvider identifies a completion provider.
type LLMProvider string

// Available completion providers.
const (
	// LLMProviderOff disables LLM classification entirely.
	LLMProviderOff LLMProvider = "off"

	// LLMProviderOpenAI is any OpenAI-compatible chat completions
	// endpoint, local or hosted.
	LLMProviderOpenAI LLMProvider = "openai"

	// LLMProviderOllama is a local Ollama instance.
	LLMProviderOllama LLMProvider = "ollama"
)

// IsValid returns true if the provider is recognised.
func (p LLMProvider) IsValid() bool {
	switch p {
	case LLMProviderOff, LLMProviderOpenAI, LLMProviderOllama:
		return true
	default:
		return false
	}
}

// Enabled returns true if the provider performs classification.
func (p LLMProvider) Enabled() bool {
	return p.IsValid() && p != LLMProviderOff
}

// String returns the string representation.
func (p LLMProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p LLMProvider) Description() string {
	switch p {
	case LLMProviderOff:
		return "Disabled (rules only)"
	case LLMProviderOpenAI:
		return "OpenAI-compatible chat endpoint"
	case LLMProviderOllama:
		return "Ollama (local)"
	default:
		return unknownDescription
	}
}

// LLMSettings holds completion provider configuration for a run.
type LLMSettings struct {
	// Provider selects the completion provider, or off.
	Provider LLMProvider

	// Model is the model name. Optional for single-model servers.
	Model string

	// BaseURL is the provider endpoint.
	BaseURL string

	// Mode controls when the provider is consulted.
	Mode LLMMode

	// MinConfidence is the acceptance threshold for LLM results.
	MinConfidence float64

	// Timeout bounds one completion call.
	Timeout time.Duration

	// MaxOutputTokens bounds the completion length.
	MaxOutputTokens int

	// PathMode controls source path disclosure in prompts.
	PathMode PathMode

	// PathTailParts is the segment count for PathModeTail.
	PathTailParts int
}

// Enabled returns true if LLM classification is active.
func (s LLMSettings) Enabled() bool {
	return s.Provider.Enabled()
}

// Validate checks the settings for invalid enumerated options.
// Called before any work begins; violations are fatal.
func (s LLMSettings) Validate() error {
	if !s.Provider.IsValid() {
		return fmt.Errorf("%w: unknown llm provider %q", ErrConfig, s.Provider)
	}
	if !s.Enabled() {
		return nil
	}
	if !s.Mode.IsValid() {
		return fmt.Errorf("%w: unknown llm mode %q", ErrConfig, s.Mode)
	}
	if !s.PathMode.IsValid() {
		return fmt.Errorf("%w: unknown llm path mode %q", ErrConfig, s.PathMode)
	}
	if s.MinConfidence < 0 || s.MinConfidence > 1 {
		return fmt.Errorf("%w: llm min confidence %v outside [0,1]", ErrConfig, s.MinConfidence)
	}
	if s.Timeout <= 0 {
		return fmt.Errorf("%w: llm timeout must be positive", ErrConfig)
	}
	if s.PathTailParts < 1 {
		return fmt.Errorf("%w: llm path tail parts must be at least 1", ErrConfig)
	}
	return nil
}

// DefaultLLMSettings returns settings with sensible defaults.
// The provider is off; enabling it is an explicit choice per run.
func DefaultLLMSettings() LLMSettings {
	return LLMSettings{
		Provider:        LLMProviderOff,
		BaseURL:         "http://localhost:8000",
		Mode:            LLMModeFallback,
		MinConfidence:   0.6,
		Timeout:         30 * time.Second,
		MaxOutputTokens: 200,
		PathMode:        PathModeTail,
		PathTailParts:   3,
	}
}
