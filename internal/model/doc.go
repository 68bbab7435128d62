// Package model defines the core data structures used throughout SurfaceScore.
//
// This package contains the following main types:
//   - Category and Priority: enumerations with text (un)marshalling
//   - Analysis: the result bundle produced by the analysis pipeline
//   - ExportReport: the downloadable JSON form of an Analysis
//
// Models live in their own package so the scoring, pipeline, report,
// database and server packages can share them without import cycles.
package model
