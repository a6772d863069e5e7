// Package driving defines the interfaces the CLI uses to interact with
// core services: Scanner for sweep passes, Categorizer for
// categorization passes and LibraryManager for init and status. These
// are the "driving" ports in hexagonal architecture terminology.
//
// Implementations of these interfaces live in internal/core/services.
package driving
