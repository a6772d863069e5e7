// Package connectors provides sources of scan candidates. Each connector
// knows how to enumerate files from one kind of location; the filesystem
// walker is the only connector today.
//
// Connectors implement the driven Finder port.
package connectors
