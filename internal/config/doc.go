// Package config provides configuration structures and utilities for SurfaceScore.
//
// Settings are resolved from three layers: built-in defaults (NewConfig),
// the optional YAML file (.surfacescore) and CLI flags. The file can also
// prepend domain score overrides and, in server mode, is watched for changes.
package config
