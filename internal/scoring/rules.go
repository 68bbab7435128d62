package scoring

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/surfacescore/surfacescore/internal/model"
)

//go:embed rules.toml
var defaultRulesTOML []byte

// Rule table errors.
var (
	// ErrRulesNotFound is returned when a user rules file does not exist.
	ErrRulesNotFound = errors.New("rules file not found")

	// ErrInvalidRules is returned when a rules document fails validation.
	ErrInvalidRules = errors.New("invalid scoring rules")
)

// BaseScores holds one base score per category before jitter is applied.
type BaseScores struct {
	Reader     int `toml:"reader" yaml:"reader"`
	AI         int `toml:"ai" yaml:"ai"`
	Structured int `toml:"structured" yaml:"structured"`
	WCAG       int `toml:"wcag" yaml:"wcag"`
}

// Get returns the base score for c.
func (b BaseScores) Get(c model.Category) int {
	switch c {
	case model.CategoryReader:
		return b.Reader
	case model.CategoryAI:
		return b.AI
	case model.CategoryStructured:
		return b.Structured
	case model.CategoryWCAG:
		return b.WCAG
	default:
		return 0
	}
}

// DomainRule assigns base scores to hosts containing Match.
type DomainRule struct {
	Match      string `toml:"match"`
	Reader     int    `toml:"reader"`
	AI         int    `toml:"ai"`
	Structured int    `toml:"structured"`
	WCAG       int    `toml:"wcag"`
}

// Scores returns the rule's base scores.
func (d DomainRule) Scores() BaseScores {
	return BaseScores{Reader: d.Reader, AI: d.AI, Structured: d.Structured, WCAG: d.WCAG}
}

// Range is an inclusive integer range.
type Range struct {
	Min int `toml:"min"`
	Max int `toml:"max"`
}

// DetailThresholds selects which detail tier applies to a score.
type DetailThresholds struct {
	Excellent int `toml:"excellent"`
	Good      int `toml:"good"`
}

// DetailTiers holds the bullet lists for one category.
type DetailTiers struct {
	Excellent []string `toml:"excellent"`
	Good      []string `toml:"good"`
	Basic     []string `toml:"basic"`
}

// RecommendationRule emits a recommendation when Category scores below Below.
type RecommendationRule struct {
	Category    string `toml:"category"`
	Below       int    `toml:"below"`
	Priority    string `toml:"priority"`
	Title       string `toml:"title"`
	Description string `toml:"description"`
}

// RatingRule describes an overall-score band. Bands are matched from the
// highest Min downwards.
type RatingRule struct {
	Name        string `toml:"name"`
	Min         int    `toml:"min"`
	Title       string `toml:"title"`
	Description string `toml:"description"`
}

// ColorRule maps a score band to a display color.
type ColorRule struct {
	Name        string `toml:"name"`
	Min         int    `toml:"min"`
	Color       string `toml:"color"`
	GradientEnd string `toml:"gradient_end"`
}

// Rules is the complete scoring rule table.
type Rules struct {
	Defaults        BaseScores             `toml:"defaults"`
	Domains         []DomainRule           `toml:"domain"`
	Jitter          Range                  `toml:"jitter"`
	Clamp           Range                  `toml:"clamp"`
	Criteria        Range                  `toml:"criteria"`
	Thresholds      DetailThresholds       `toml:"thresholds"`
	Details         map[string]DetailTiers `toml:"details"`
	Recommendations []RecommendationRule   `toml:"recommendation"`
	Ratings         []RatingRule           `toml:"rating"`
	Colors          []ColorRule            `toml:"color"`
}

// DefaultRules returns the built-in rule table.
// It panics if the embedded document is invalid, which only happens when
// rules.toml itself is broken.
func DefaultRules() *Rules {
	r, err := ParseRules(defaultRulesTOML)
	if err != nil {
		panic(fmt.Sprintf("scoring: embedded rules are invalid: %v", err))
	}
	return r
}

// ParseRules decodes and validates a TOML rules document.
// Keys that do not map onto the rule table are rejected to catch typos.
func ParseRules(data []byte) (*Rules, error) {
	var r Rules
	md, err := toml.Decode(string(data), &r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRules, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return nil, fmt.Errorf("%w: unknown keys %s", ErrInvalidRules, strings.Join(keys, ", "))
	}
	for i := range r.Domains {
		r.Domains[i].Match = normalizeMatch(r.Domains[i].Match)
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	r.sortBands()
	return &r, nil
}

// LoadRulesFile reads a rules document from disk.
func LoadRulesFile(path string) (*Rules, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided rules path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrRulesNotFound
		}
		return nil, err
	}
	return ParseRules(data)
}

// Validate checks that every category has detail tiers and that the
// ranges are usable.
func (r *Rules) Validate() error {
	if r.Clamp.Min > r.Clamp.Max {
		return fmt.Errorf("%w: clamp min %d exceeds max %d", ErrInvalidRules, r.Clamp.Min, r.Clamp.Max)
	}
	if r.Jitter.Min > r.Jitter.Max {
		return fmt.Errorf("%w: jitter min %d exceeds max %d", ErrInvalidRules, r.Jitter.Min, r.Jitter.Max)
	}
	if r.Criteria.Min > r.Criteria.Max {
		return fmt.Errorf("%w: criteria min %d exceeds max %d", ErrInvalidRules, r.Criteria.Min, r.Criteria.Max)
	}
	if r.Thresholds.Good > r.Thresholds.Excellent {
		return fmt.Errorf("%w: good threshold above excellent", ErrInvalidRules)
	}
	for _, c := range model.Categories() {
		tiers, ok := r.Details[c.String()]
		if !ok {
			return fmt.Errorf("%w: missing details for %s", ErrInvalidRules, c)
		}
		if len(tiers.Excellent) == 0 || len(tiers.Good) == 0 || len(tiers.Basic) == 0 {
			return fmt.Errorf("%w: empty detail tier for %s", ErrInvalidRules, c)
		}
	}
	for i, d := range r.Domains {
		if d.Match == "" {
			return fmt.Errorf("%w: domain rule %d has empty match", ErrInvalidRules, i)
		}
	}
	for _, rec := range r.Recommendations {
		if _, err := model.ParseCategory(rec.Category); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidRules, err)
		}
		if _, err := model.ParsePriority(rec.Priority); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidRules, err)
		}
	}
	if len(r.Ratings) == 0 {
		return fmt.Errorf("%w: no rating bands", ErrInvalidRules)
	}
	if len(r.Colors) == 0 {
		return fmt.Errorf("%w: no color bands", ErrInvalidRules)
	}
	return nil
}

// WithDomains returns a copy of r whose domain rules start with extra.
// Extra rules take priority over the built-in ones because matching stops
// at the first hit. Zero scores in an extra rule inherit the defaults.
// Rules with an empty match are skipped, since they would capture every host.
func (r *Rules) WithDomains(extra []DomainRule) *Rules {
	clone := *r
	clone.Domains = make([]DomainRule, 0, len(extra)+len(r.Domains))
	for _, d := range extra {
		d.Match = normalizeMatch(d.Match)
		if d.Match == "" {
			continue
		}
		if d.Reader == 0 {
			d.Reader = r.Defaults.Reader
		}
		if d.AI == 0 {
			d.AI = r.Defaults.AI
		}
		if d.Structured == 0 {
			d.Structured = r.Defaults.Structured
		}
		if d.WCAG == 0 {
			d.WCAG = r.Defaults.WCAG
		}
		clone.Domains = append(clone.Domains, d)
	}
	clone.Domains = append(clone.Domains, r.Domains...)
	return &clone
}

// normalizeMatch lowercases a match so it compares against lowercased hosts.
func normalizeMatch(m string) string {
	return strings.ToLower(strings.TrimSpace(m))
}

func (r *Rules) sortBands() {
	sort.SliceStable(r.Ratings, func(i, j int) bool { return r.Ratings[i].Min > r.Ratings[j].Min })
	sort.SliceStable(r.Colors, func(i, j int) bool { return r.Colors[i].Min > r.Colors[j].Min })
}
