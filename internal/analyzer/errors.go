package analyzer

import "errors"

// Analysis errors. UserMessage maps them to the text shown to users.
var (
	// ErrInvalidURL is returned for input that is not an absolute URL with a host.
	ErrInvalidURL = errors.New("invalid url")

	// ErrUnsupportedScheme is returned for URLs whose scheme is not http or https.
	ErrUnsupportedScheme = errors.New("unsupported url scheme")

	// ErrAnalysisInProgress is returned when Analyze is called while another
	// analysis on the same Analyzer is still running. The call has no effect.
	ErrAnalysisInProgress = errors.New("analysis already in progress")

	// ErrSessionNotFound is returned when a session ID is unknown or expired.
	ErrSessionNotFound = errors.New("session not found")
)

// User-facing messages.
const (
	MessageInvalidURL        = "Please enter a valid URL"
	MessageUnsupportedScheme = "Please enter a valid HTTP or HTTPS URL"
	MessageInProgress        = "An analysis is already running"
	MessageFailed            = "Analysis failed. Please try again."
)

// UserMessage returns the message to show for err.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUnsupportedScheme):
		return MessageUnsupportedScheme
	case errors.Is(err, ErrInvalidURL):
		return MessageInvalidURL
	case errors.Is(err, ErrAnalysisInProgress):
		return MessageInProgress
	default:
		return MessageFailed
	}
}
