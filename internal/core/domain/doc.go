// Package domain defines the core business entities for Shelva.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: A unique piece of content in the vault, keyed by digest
//   - SourceRecord: An observed filesystem location for a document
//   - RuleSet / CategoryRule: The configured categorization rules
//   - Categorization: The outcome of categorizing one document
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
