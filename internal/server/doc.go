// Package server exposes SurfaceScore over HTTP.
//
// Routes:
//
//	POST /api/v1/analyze              analyze a URL in the caller's session
//	GET  /api/v1/export?url=          download the export document
//	GET  /api/v1/history/{domain}     stored analyses for a domain
//	GET  /api/v1/health               liveness and session counts
//	GET  /api/v1/neuro/profiles       neurodiversity profiles
//	GET  /api/v1/neuro/patterns       eye-tracking scanning patterns
//	GET  /api/v1/neuro/trackers       supported eye-trackers
//	POST /api/v1/neuro/load           weighted cognitive load
//	GET  /metrics                     Prometheus text exposition
//	GET  /ws/progress?session=        live stage progress
//
// Sessions are identified by the X-Session-ID header. A request without a
// known session gets a new one, returned in the same header.
package server
