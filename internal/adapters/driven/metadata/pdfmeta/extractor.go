// Package pdfmeta extracts document attributes and text samples with
// github.com/ledongthuc/pdf.
//
// The extractor is content-safe: PDFs collected from the wild are
// routinely truncated, encrypted or malformed, and the parser reacts
// to some of those by panicking rather than returning an error. Every
// entry point recovers panics and degrades to whatever was read before
// the failure, so a bad file costs its own attributes and nothing else.
package pdfmeta

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"

	"github.com/custodia-labs/shelva-cli/internal/core/ports/driven"
	"github.com/custodia-labs/shelva-cli/internal/logger"
)

// Extractor reads PDF attributes and text from vault copies.
type Extractor struct{}

// Compile-time check that Extractor satisfies the port.
var _ driven.MetadataExtractor = (*Extractor)(nil)

// NewExtractor creates a PDF metadata extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// BasicAttributes returns the page count and whatever Info dictionary
// fields the document carries. Attributes read before a parse failure
// are kept.
func (e *Extractor) BasicAttributes(ctx context.Context, path string) map[string]any {
	attrs := make(map[string]any)
	err := withReader(path, func(r *pdf.Reader) {
		if n := r.NumPage(); n > 0 {
			attrs[driven.AttrPages] = n
		}
		if ctx.Err() != nil {
			return
		}
		info := r.Trailer().Key("Info")
		if info.Kind() != pdf.Dict {
			return
		}
		putText(attrs, driven.AttrTitle, info.Key("Title"))
		putText(attrs, driven.AttrAuthors, info.Key("Author"))
		putText(attrs, driven.AttrSubject, info.Key("Subject"))
		putText(attrs, driven.AttrKeywords, info.Key("Keywords"))
	})
	if err != nil {
		logger.Debug("Attribute extraction degraded for %s: %v", path, err)
	}
	return attrs
}

// TextSample returns up to maxBytes of page text with whitespace
// collapsed, reading pages in order until the budget is met.
func (e *Extractor) TextSample(ctx context.Context, path string, maxBytes int) string {
	if maxBytes <= 0 {
		return ""
	}
	var raw strings.Builder
	err := withReader(path, func(r *pdf.Reader) {
		for i := 1; i <= r.NumPage(); i++ {
			if ctx.Err() != nil {
				return
			}
			page := r.Page(i)
			if page.V.IsNull() {
				continue
			}
			text, err := page.GetPlainText(nil)
			if err != nil {
				continue
			}
			raw.WriteString(text)
			raw.WriteString("\n")
			if raw.Len() >= maxBytes {
				return
			}
		}
	})
	if err != nil {
		logger.Debug("Text extraction degraded for %s: %v", path, err)
	}
	return clipUTF8(collapseWhitespace(raw.String()), maxBytes)
}

// withReader opens the file and runs fn against the parsed reader,
// converting parser panics into errors.
func withReader(path string, fn func(r *pdf.Reader)) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("pdf parser panic: %v", p)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return fmt.Errorf("opening pdf: %w", err)
	}
	defer f.Close()

	fn(r)
	return nil
}

// putText stores the string value under key when it is non-empty.
func putText(attrs map[string]any, key string, v pdf.Value) {
	if s := strings.TrimSpace(v.Text()); s != "" {
		attrs[key] = s
	}
}

// collapseWhitespace folds runs of whitespace into single spaces.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// clipUTF8 truncates s to at most maxBytes without splitting a rune.
func clipUTF8(s string, maxBytes int) string {
	if len(s) <= maxBytes {
		return s
	}
	cut := maxBytes
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
