// Package fetch downloads a page and extracts the metadata shown alongside
// an analysis: title, description, language, heading counts, image alt
// coverage, JSON-LD blocks and landmark elements.
//
// Fetching is optional and informational. Scores never depend on it.
package fetch
