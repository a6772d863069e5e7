package services

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/custodia-labs/shelva-cli/internal/core/domain"
	"github.com/custodia-labs/shelva-cli/internal/core/ports/driven"
	"github.com/custodia-labs/shelva-cli/internal/core/ports/driving"
	"github.com/custodia-labs/shelva-cli/internal/logger"
)

// progressEvery is how often the pass reports batch progress.
const progressEvery = 250

// Ensure CategorizeOrchestrator implements the interface.
var _ driving.Categorizer = (*CategorizeOrchestrator)(nil)

// CategorizeOrchestrator runs categorization passes: refresh document
// metadata, score every document against the rule set, optionally ask
// the completion provider for a second opinion, persist the outcomes
// and rebuild the categorized view.
type CategorizeOrchestrator struct {
	library  domain.Library
	store    driven.ManifestStore
	view     driven.ViewBuilder
	metadata driven.MetadataExtractor
	rules    *domain.RuleSet
	client   driven.CompletionClient
}

// NewCategorizeOrchestrator creates a new categorization orchestrator.
// metadata may be nil when no extractor is available and client may be
// nil when no completion provider is configured.
func NewCategorizeOrchestrator(
	library domain.Library,
	store driven.ManifestStore,
	view driven.ViewBuilder,
	metadata driven.MetadataExtractor,
	rules *domain.RuleSet,
	client driven.CompletionClient,
) *CategorizeOrchestrator {
	return &CategorizeOrchestrator{
		library:  library,
		store:    store,
		view:     view,
		metadata: metadata,
		rules:    rules,
		client:   client,
	}
}

// Categorize runs one pass.
//
// Rule scoring never fails. Completion provider failures are absorbed
// per document with an audit note. Manifest failures abort the pass
// with nothing committed; the view is rebuilt only from committed
// state, so a crash between commit and rebuild costs nothing that the
// next pass cannot restore.
func (o *CategorizeOrchestrator) Categorize(ctx context.Context, req driving.CategorizeRequest) (*domain.CategorizeStats, error) {
	// 1. Fail fast on configuration problems
	if err := o.rules.Validate(); err != nil {
		return nil, err
	}
	if err := req.LLM.Validate(); err != nil {
		return nil, err
	}
	if !req.LinkMode.IsValid() {
		return nil, fmt.Errorf("%w: unknown link mode %q", domain.ErrConfig, req.LinkMode)
	}

	var clf *Classifier
	if req.LLM.Enabled() {
		if o.client == nil {
			return nil, fmt.Errorf("%w: provider %q configured but no client wired", domain.ErrLLMUnavailable, req.LLM.Provider)
		}
		clf = NewClassifier(o.client, req.LLM, o.rules)
	}

	stats := &domain.CategorizeStats{PerCategory: make(map[string]int)}

	// 2. One unit of work for the whole pass
	tx, err := o.store.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin categorization pass: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	docs, err := tx.ListDocuments(ctx, driven.DocumentQuery{
		UncategorizedOnly: !req.Recategorize,
		Limit:             req.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	latest, err := tx.LatestSources(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve latest sources: %w", err)
	}

	// Text extraction is expensive. Skip it unless something in this
	// pass actually reads text samples.
	needText := req.TextSampleBytes > 0 && (o.rules.UsesTextKeywords() || req.LLM.Enabled())

	logger.Info("categorizing %d documents (recategorize=%v, llm=%s)",
		len(docs), req.Recategorize, req.LLM.Provider)

	// 3. Score every document
	for i := range docs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		doc := &docs[i]
		ref := latest[doc.Digest]

		attrs, err := o.refreshMetadata(ctx, tx, doc, ref, needText, req)
		if err != nil {
			return nil, err
		}

		result := o.categorizeOne(ctx, clf, req.LLM, attrs, stats)

		if !req.DryRun {
			if err := tx.SetDocumentCategory(ctx, doc.Digest, result, time.Now().UTC()); err != nil {
				return nil, fmt.Errorf("set category for %s: %w", doc.Digest, err)
			}
		}
		stats.DocsCategorized++
		stats.PerCategory[result.Category]++
		logger.Debug("categorized %s as %q (score=%.2f, %s)",
			domain.ShortDigest(doc.Digest, 12), result.Category, result.Score, result.Reason)
		if (i+1)%progressEvery == 0 {
			logger.Info("progress: %d/%d", i+1, len(docs))
		}
	}

	if req.DryRun {
		logger.Info("dry run: %d documents scored, nothing persisted", stats.DocsCategorized)
		return stats, nil
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit categorization pass: %w", err)
	}

	// 4. Rebuild the derived view from committed state
	allDocs, err := o.store.ListDocuments(ctx, driven.DocumentQuery{})
	if err != nil {
		return nil, fmt.Errorf("list documents for view: %w", err)
	}
	viewRes, err := o.view.Rebuild(ctx, allDocs, driven.ViewOptions{
		Mode:            req.LinkMode,
		Refresh:         req.RefreshView,
		DefaultCategory: o.rules.DefaultCategory,
		ResolveName:     displayNameResolver(latest),
	})
	if err != nil {
		return nil, fmt.Errorf("rebuild view: %w", err)
	}
	stats.LinksCreated = viewRes.Total
	// The rebuilt view covers every document, not just this pass's, so
	// its counts supersede the per-pass tally.
	stats.PerCategory = viewRes.PerCategory

	logger.Info("categorize: %d documents, %d view entries, llm %d/%d used, %d failed",
		stats.DocsCategorized, stats.LinksCreated, stats.LLMUsed, stats.LLMCalls, stats.LLMFailed)
	return stats, nil
}

// refreshMetadata re-extracts attributes from the document's latest
// known source and stores the refresh. Without an extractor or a
// readable source the stored attributes are used as-is.
func (o *CategorizeOrchestrator) refreshMetadata(
	ctx context.Context,
	tx driven.ManifestTx,
	doc *domain.Document,
	ref driven.SourceRef,
	needText bool,
	req driving.CategorizeRequest,
) (domain.Attributes, error) {
	attrs := domain.Attributes{
		Digest:     doc.Digest,
		SourcePath: ref.Path,
		Basename:   ref.Basename,
		PageCount:  doc.PageCount,
		Title:      doc.Title,
		Authors:    doc.Authors,
		Subject:    doc.Subject,
		Keywords:   doc.Keywords,
		TextSample: doc.TextSample,
	}
	if o.metadata == nil || ref.Path == "" {
		return attrs, nil
	}

	bag := o.metadata.BasicAttributes(ctx, ref.Path)
	meta := driven.DocumentMetadata{
		PageCount:  attrInt(bag, driven.AttrPages),
		Title:      attrString(bag, driven.AttrTitle),
		Authors:    attrString(bag, driven.AttrAuthors),
		Subject:    attrString(bag, driven.AttrSubject),
		Keywords:   attrString(bag, driven.AttrKeywords),
		TextSample: doc.TextSample,
	}
	if needText {
		meta.TextSample = o.metadata.TextSample(ctx, ref.Path, req.TextSampleBytes)
	}
	if raw, err := json.Marshal(bag); err == nil {
		meta.RawMetadataJSON = string(raw)
	}

	if !req.DryRun {
		if err := tx.UpdateDocumentMetadata(ctx, doc.Digest, meta); err != nil {
			return attrs, fmt.Errorf("update metadata for %s: %w", doc.Digest, err)
		}
	}

	attrs.PageCount = meta.PageCount
	attrs.Title = meta.Title
	attrs.Authors = meta.Authors
	attrs.Subject = meta.Subject
	attrs.Keywords = meta.Keywords
	attrs.TextSample = meta.TextSample
	return attrs, nil
}

// categorizeOne scores one document and merges in the provider's
// second opinion when one is warranted.
func (o *CategorizeOrchestrator) categorizeOne(
	ctx context.Context,
	clf *Classifier,
	llm domain.LLMSettings,
	attrs domain.Attributes,
	stats *domain.CategorizeStats,
) domain.Categorization {
	ruled := o.rules.Score(attrs)
	if clf == nil || !o.shouldConsult(llm.Mode, ruled) {
		return ruled
	}

	stats.LLMCalls++
	answer, err := clf.Classify(ctx, attrs)
	if err != nil {
		stats.LLMFailed++
		logger.Warn("llm classify %s: %v", domain.ShortDigest(attrs.Digest, 12), err)
		return ruled.AnnotateFailure(err.Error())
	}

	if answer.Confidence >= llm.MinConfidence {
		stats.LLMUsed++
		return answer.Accept(clf.Provider(), clf.Model())
	}
	return ruled.AnnotateLowConfidence(clf.Provider(), clf.Model(), answer.Confidence)
}

// shouldConsult decides whether the rule outcome is weak enough to be
// worth a completion call. In always mode every document is asked; in
// fallback mode only documents the rules could not place confidently.
func (o *CategorizeOrchestrator) shouldConsult(mode domain.LLMMode, ruled domain.Categorization) bool {
	if mode == domain.LLMModeAlways {
		return true
	}
	return ruled.Category == o.rules.DefaultCategory ||
		strings.HasPrefix(ruled.Reason, domain.BelowMinScorePrefix) ||
		ruled.Score < o.rules.MinScore
}

// displayNameResolver names view entries: the document title when one
// is known, else the latest source basename without its extension,
// else a digest prefix.
func displayNameResolver(latest map[string]driven.SourceRef) driven.NameResolver {
	return func(doc domain.Document) string {
		if title := strings.TrimSpace(doc.Title); title != "" {
			return title
		}
		if ref, ok := latest[doc.Digest]; ok {
			if base := strings.TrimSpace(ref.Basename); base != "" {
				return strings.TrimSuffix(base, filepath.Ext(base))
			}
		}
		return domain.ShortDigest(doc.Digest, 12)
	}
}

// attrString pulls a string attribute out of an extractor bag.
func attrString(bag map[string]any, key string) string {
	if v, ok := bag[key]; ok {
		if s, ok := v.(string); ok {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

// attrInt pulls an integer attribute out of an extractor bag.
func attrInt(bag map[string]any, key string) int {
	switch v := bag[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}
