package driven

import "context"

// Attribute keys the extractor populates when the document provides
// them. Values are strings except pages, which is an int.
const (
	AttrTitle    = "title"
	AttrAuthors  = "authors"
	AttrSubject  = "subject"
	AttrKeywords = "keywords"
	AttrPages    = "pages"
)

// MetadataExtractor reads document attributes and text.
//
// Both methods are content-safe: a file that is missing, truncated or
// not parseable yields an empty result, never an error. Parse failures
// are an expected condition for files collected in the wild, not a
// fault the pipeline should stop for.
type MetadataExtractor interface {
	// BasicAttributes returns whatever attributes the document exposes,
	// possibly empty.
	BasicAttributes(ctx context.Context, path string) map[string]any

	// TextSample returns up to maxBytes of extracted text, or empty.
	TextSample(ctx context.Context, path string, maxBytes int) string
}
