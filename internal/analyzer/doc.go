// Package analyzer is the entry point for analyzing a URL.
//
// ValidateURL rejects input that is not an absolute http or https URL
// before any work starts. An Analyzer wraps the analysis pipeline with a
// per-session result cache and a guard that drops submissions made while
// an analysis is running. SessionStore gives every API client its own
// Analyzer and expires idle sessions.
package analyzer
