// Package report renders analyses for terminals, tools and downloads.
//
//   - SimpleWriter: plain text for the terminal
//   - JSONWriter: the full analysis as JSON
//   - ExportWriter: the downloadable export document
//   - MarkdownWriter: a shareable Markdown summary with a score chart
//
// All writers implement Writer and can be combined with MultiWriter.
package report
