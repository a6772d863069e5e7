// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - ManifestStore: Transactional source/document persistence
//   - ContentVault: Digest-addressed content storage
//   - Finder: Candidate path enumeration
//   - ViewBuilder: Derived categorized view materialization
//
// # Optional Interfaces
//
// These can be nil; the pipeline runs without them:
//
//   - MetadataExtractor: Document attributes and text samples. Without
//     it, rules match on paths and filenames only.
//   - CompletionClient: LLM classification. Without it, categorization
//     is rules-only.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or connector package
package driven
