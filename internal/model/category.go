package model

import (
	"fmt"
	"strings"
)

// Category identifies one of the four compatibility areas a page is scored on.
//
// The declaration order is significant: reports, exports and the overall
// score always iterate categories in this order.
type Category int

const (
	// CategoryReader scores how well the page renders in Safari Reader mode.
	CategoryReader Category = iota

	// CategoryAI scores how easily Apple Intelligence can summarize the page.
	CategoryAI

	// CategoryStructured scores the presence of Schema.org and article metadata.
	CategoryStructured

	// CategoryWCAG scores accessibility (contrast, ARIA, keyboard navigation).
	CategoryWCAG
)

// Categories returns every category in display order.
func Categories() []Category {
	return []Category{CategoryReader, CategoryAI, CategoryStructured, CategoryWCAG}
}

// String returns the short identifier used in rule files and URLs.
func (c Category) String() string {
	switch c {
	case CategoryReader:
		return "reader"
	case CategoryAI:
		return "ai"
	case CategoryStructured:
		return "structured"
	case CategoryWCAG:
		return "wcag"
	default:
		return "unknown"
	}
}

// Title returns the human-readable category heading.
func (c Category) Title() string {
	switch c {
	case CategoryReader:
		return "Safari Reader Mode"
	case CategoryAI:
		return "Apple Intelligence"
	case CategoryStructured:
		return "Structured Data"
	case CategoryWCAG:
		return "WCAG Compliance"
	default:
		return "Unknown"
	}
}

// ExportKey returns the key the category is stored under in exported reports.
func (c Category) ExportKey() string {
	switch c {
	case CategoryReader:
		return "safari_reader_mode"
	case CategoryAI:
		return "apple_intelligence"
	case CategoryStructured:
		return "structured_data"
	case CategoryWCAG:
		return "wcag_compliance"
	default:
		return "unknown"
	}
}

// ParseCategory converts a short identifier back into a Category.
func ParseCategory(s string) (Category, error) {
	for _, c := range Categories() {
		if strings.EqualFold(s, c.String()) {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown category %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Category) UnmarshalText(text []byte) error {
	parsed, err := ParseCategory(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
