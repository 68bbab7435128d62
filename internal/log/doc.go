// Package log builds slog loggers that mask sensitive values.
//
// SecureHandler wraps any slog.Handler. It masks attributes whose key looks
// like a credential (cookie, authorization, token, session id), values that
// look like secrets (JWTs, bearer tokens, private keys) and strips user info
// and sensitive query parameters from URL values.
//
//	logger := log.NewSecureLogger(os.Stderr, verbose, log.FormatText)
//	logger.Debug("analyzing", "url", "https://user:pw@example.com/?token=x")
//	// url=https://example.com/?token=REDACTED
package log
