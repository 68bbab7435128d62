// Package main provides the entry point for the SurfaceScore CLI.
//
// SurfaceScore rates how well a website is prepared for Safari Reader mode,
// Apple Intelligence summaries, structured data and WCAG accessibility.
//
// Usage:
//
//	surfacescore analyze <url>
//	surfacescore analyze --list <file>
//	surfacescore serve
//
// See --help for all available options.
package main

// main is the entry point for SurfaceScore.
func main() {
	Execute()
}
