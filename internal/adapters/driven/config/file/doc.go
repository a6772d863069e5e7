// Package file provides file-based implementations of driven port interfaces.
//
// Adapters:
//   - RuleSetStore: strict-decoded TOML rule set at the library root,
//     with a packaged starter rule set written on init
package file
