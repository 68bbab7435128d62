// Package neuro holds the cognitive-load and eye-tracking reference data
// that accompanies SurfaceScore, together with the handful of formulas
// that operate on it.
//
// Nothing in this package affects analysis scores. It is exposed through
// the CLI and the HTTP API as reference material.
package neuro
