package model

import "fmt"

// Priority ranks a recommendation.
// Only two levels exist; the zero value is PriorityMedium.
type Priority int

const (
	// PriorityMedium marks an improvement worth scheduling.
	PriorityMedium Priority = iota

	// PriorityHigh marks an improvement with the largest expected impact.
	PriorityHigh
)

// String returns the lowercase priority name.
func (p Priority) String() string {
	switch p {
	case PriorityMedium:
		return "medium"
	case PriorityHigh:
		return "high"
	default:
		return "unknown"
	}
}

// ParsePriority converts "medium" or "high" into a Priority.
func ParsePriority(s string) (Priority, error) {
	switch s {
	case "medium":
		return PriorityMedium, nil
	case "high":
		return PriorityHigh, nil
	default:
		return 0, fmt.Errorf("unknown priority %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (p Priority) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Priority) UnmarshalText(text []byte) error {
	parsed, err := ParsePriority(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
