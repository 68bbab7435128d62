// Package database stores analysis history in SQLite.
//
// Each saved analysis keeps its per-category scores in columns for quick
// listing and the full result as JSON for later display. Identical
// results, by fingerprint, are stored once.
//
// The driver is modernc.org/sqlite, so no cgo is required.
package database
