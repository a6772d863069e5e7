package domain

import "fmt"

// Score range constants for merging LLM confidence onto the rule scale.
// An accepted LLM answer records 10 x confidence so a fully confident
// answer outranks any realistic rule score.
const llmScoreScale = 10.0

// Categorization is the outcome of categorizing one document.
type Categorization struct {
	// Category is the assigned category name.
	Category string

	// Score is the non-negative strength of the assignment.
	Score float64

	// Reason traces which signals produced the assignment.
	Reason string
}

// LLMClassification is a completion provider's answer for one document,
// already normalized against the allow-list.
type LLMClassification struct {
	// Category is the matched allow-list category, or the default when
	// the answer was missing or unrecognised.
	Category string

	// Confidence is the provider's self-reported confidence in [0,1].
	// Zero when missing or unparseable.
	Confidence float64

	// Reason is the provider's bounded explanation.
	Reason string

	// Raw is the unprocessed completion text, kept for audit.
	Raw string
}

// Accept converts an accepted LLM answer into a final categorization,
// annotated with the provider and model for audit.
func (c LLMClassification) Accept(provider, model string) Categorization {
	return Categorization{
		Category: c.Category,
		Score:    llmScoreScale * c.Confidence,
		Reason:   fmt.Sprintf("llm:%s/%s conf=%.2f; %s", provider, model, c.Confidence, c.Reason),
	}
}

// AnnotateLowConfidence appends a low-confidence audit note to a rule
// result whose LLM second opinion fell under the acceptance threshold.
func (r Categorization) AnnotateLowConfidence(provider, model string, confidence float64) Categorization {
	r.Reason = fmt.Sprintf("%s | llm:%s/%s low_conf=%.2f", r.Reason, provider, model, confidence)
	return r
}

// AnnotateFailure appends a provider failure note to a rule result. The
// message is truncated so a verbose transport error cannot bloat the
// manifest.
func (r Categorization) AnnotateFailure(message string) Categorization {
	r.Reason = fmt.Sprintf("%s | llm_error:%s", r.Reason, TruncateRunes(message, 200))
	return r
}
