// Package pipeline runs an analysis as a sequence of steps.
//
// Steps that implement Staged report a progress stage (status text and
// percentage) and wait out a delay before doing their work, which is how
// the analysis paces its progress indicator. The delay is scaled by
// WithDelayScale and interrupted by context cancellation.
//
// BatchProcessor analyzes many URLs concurrently with a bounded errgroup.
package pipeline
