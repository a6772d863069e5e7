// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters):
//
//   - LibraryService: library initialization and status reporting
//   - ScanOrchestrator: the sweep pass that ingests sources into the vault
//   - CategorizeOrchestrator: rule and LLM categorization plus view refresh
//
// Services are pure Go with no CGO.
package services
