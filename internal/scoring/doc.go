// Package scoring produces SurfaceScore category scores.
//
// Scores come from a rule table (rules.toml, embedded at build time):
// domain-keyed base scores, a random jitter range, a clamp range, detail
// bullet tiers, recommendation thresholds and rating bands. Users can
// replace the table with their own file or prepend domain rules through
// the YAML configuration.
package scoring
