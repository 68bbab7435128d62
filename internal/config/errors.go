package config

import "errors"

// Configuration validation errors.
// These are returned by the Validate methods so callers can use errors.Is.
var (
	// ErrNoTarget is returned when analyze is run without any URL.
	ErrNoTarget = errors.New("no target specified: provide a URL or use --list")

	// ErrInvalidTimeout is returned when the fetch timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidBatchSize is returned when the batch size is not positive.
	ErrInvalidBatchSize = errors.New("invalid batch size: must be positive")

	// ErrInvalidDelayScale is returned when the delay scale is negative.
	ErrInvalidDelayScale = errors.New("invalid delay scale: must be non-negative")

	// ErrConflictingReportFormats is returned when more than one of --json,
	// --markdown and --export is given.
	ErrConflictingReportFormats = errors.New("conflicting report formats: choose one of --json, --markdown or --export")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrNoListenAddress is returned when serve has no address to bind.
	ErrNoListenAddress = errors.New("no listen address specified")

	// ErrEmptyDomainMatch is returned when a domains entry has no match.
	ErrEmptyDomainMatch = errors.New("domain entry has an empty match")

	// ErrInvalidSessionTTL is returned when the session TTL is not positive.
	ErrInvalidSessionTTL = errors.New("invalid session ttl: must be positive")
)
