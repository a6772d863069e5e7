package domain

// ScanStats counts the outcomes of one scan pass.
type ScanStats struct {
	// Discovered is the number of candidate paths the finder yielded.
	Discovered int `json:"discovered"`

	// SkippedUnchanged counts paths whose size and mtime matched the
	// previous ok observation, so no bytes were read.
	SkippedUnchanged int `json:"skipped_unchanged"`

	// CopiedNew counts novel content copied into the vault.
	CopiedNew int `json:"copied_new"`

	// DedupedExisting counts paths whose content was already vaulted.
	DedupedExisting int `json:"deduped_existing"`

	// Errors counts paths recorded as unreadable or failed.
	Errors int `json:"errors"`
}

// CategorizeStats counts the outcomes of one categorization pass plus
// the view rebuild that follows it.
type CategorizeStats struct {
	// DocsCategorized counts documents whose category was written.
	DocsCategorized int `json:"docs_categorized"`

	// LinksCreated is the total number of view entries created.
	LinksCreated int `json:"links_created"`

	// LLMCalls counts completion provider invocations attempted.
	LLMCalls int `json:"llm_calls"`

	// LLMUsed counts LLM answers accepted over the rule result.
	LLMUsed int `json:"llm_used"`

	// LLMFailed counts provider transport failures absorbed mid-batch.
	LLMFailed int `json:"llm_failed"`

	// PerCategory maps category name to its view entry count.
	PerCategory map[string]int `json:"categories,omitempty"`
}
