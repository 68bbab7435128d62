package scoring

import (
	"math/rand/v2"
	"strings"

	"github.com/surfacescore/surfacescore/internal/model"
)

// Scorer turns a hostname into a scored analysis using a rule table.
//
// Scores are not measured from the page. Each category starts from the
// base score of the first matching domain rule, receives uniform random
// jitter and is clamped. A Scorer is safe for concurrent use as long as the
// injected random sources are.
type Scorer struct {
	rules    *Rules
	intn     func(n int) int
	criteria func() int
}

// Option configures a Scorer.
type Option func(*Scorer)

// WithIntN sets the random source used for jitter and the criteria count.
// intn must return a value in [0, n).
func WithIntN(intn func(n int) int) Option {
	return func(s *Scorer) {
		s.intn = intn
	}
}

// WithFixedJitter makes every category receive exactly delta before clamping.
// It is intended for tests and for reproducible CLI runs.
func WithFixedJitter(delta int) Option {
	return func(s *Scorer) {
		s.intn = func(n int) int {
			v := delta - s.rules.Jitter.Min
			if v < 0 {
				return 0
			}
			if v >= n {
				return n - 1
			}
			return v
		}
	}
}

// NewScorer creates a Scorer. A nil rules table means DefaultRules.
func NewScorer(rules *Rules, opts ...Option) *Scorer {
	if rules == nil {
		rules = DefaultRules()
	}
	s := &Scorer{
		rules: rules,
		intn:  rand.IntN,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Rules returns the rule table in use.
func (s *Scorer) Rules() *Rules {
	return s.rules
}

// BaseScoresFor returns the base scores for host. Rules are tried in order
// and the first rule whose match is a substring of host wins.
func (s *Scorer) BaseScoresFor(host string) BaseScores {
	host = strings.ToLower(host)
	for _, d := range s.rules.Domains {
		if strings.Contains(host, d.Match) {
			return d.Scores()
		}
	}
	return s.rules.Defaults
}

// Jitter returns a uniformly distributed offset in the configured jitter range.
func (s *Scorer) Jitter() int {
	span := s.rules.Jitter.Max - s.rules.Jitter.Min + 1
	return s.rules.Jitter.Min + s.intn(span)
}

// Clamp limits v to the configured score range.
func (s *Scorer) Clamp(v int) int {
	return Clamp(v, s.rules.Clamp.Min, s.rules.Clamp.Max)
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Overall returns the mean of scores rounded half up.
// It returns 0 for an empty slice.
func Overall(scores []int) int {
	if len(scores) == 0 {
		return 0
	}
	sum := 0
	for _, v := range scores {
		sum += v
	}
	n := len(scores)
	// floor(sum/n + 0.5) in integer arithmetic; scores are never negative.
	return (2*sum + n) / (2 * n)
}

// Details returns the bullet points for a category score.
func (s *Scorer) Details(c model.Category, score int) []string {
	tiers := s.rules.Details[c.String()]
	var src []string
	switch {
	case score >= s.rules.Thresholds.Excellent:
		src = tiers.Excellent
	case score >= s.rules.Thresholds.Good:
		src = tiers.Good
	default:
		src = tiers.Basic
	}
	return append([]string(nil), src...)
}

// Recommendations returns the recommendations whose thresholds the given
// scores fall below, in rule order.
func (s *Scorer) Recommendations(scores map[model.Category]int) []model.Recommendation {
	recs := make([]model.Recommendation, 0, len(s.rules.Recommendations))
	for _, rule := range s.rules.Recommendations {
		c, err := model.ParseCategory(rule.Category)
		if err != nil {
			continue
		}
		if scores[c] >= rule.Below {
			continue
		}
		p, err := model.ParsePriority(rule.Priority)
		if err != nil {
			continue
		}
		recs = append(recs, model.Recommendation{
			Title:       rule.Title,
			Description: rule.Description,
			Priority:    p,
		})
	}
	return recs
}

// TierFor returns the rating band for an overall score, including its color.
func (s *Scorer) TierFor(overall int) model.Tier {
	tier := model.Tier{Color: s.ColorFor(overall)}
	for _, r := range s.rules.Ratings {
		if overall >= r.Min {
			tier.Name = r.Name
			tier.Title = r.Title
			tier.Description = r.Description
			return tier
		}
	}
	last := s.rules.Ratings[len(s.rules.Ratings)-1]
	tier.Name, tier.Title, tier.Description = last.Name, last.Title, last.Description
	return tier
}

// ColorFor returns the display color for any score.
func (s *Scorer) ColorFor(score int) string {
	return s.colorBand(score).Color
}

// GradientFor returns the start and end colors of the score ring gradient.
func (s *Scorer) GradientFor(score int) (string, string) {
	band := s.colorBand(score)
	return band.Color, band.GradientEnd
}

func (s *Scorer) colorBand(score int) ColorRule {
	for _, c := range s.rules.Colors {
		if score >= c.Min {
			return c
		}
	}
	return s.rules.Colors[len(s.rules.Colors)-1]
}

// CriteriaCount returns the number of criteria reported as evaluated.
func (s *Scorer) CriteriaCount() int {
	span := s.rules.Criteria.Max - s.rules.Criteria.Min + 1
	return s.rules.Criteria.Min + s.intn(span)
}

// Apply scores a.Domain and fills in categories, overall score,
// recommendations, tier and criteria count.
func (s *Scorer) Apply(a *model.Analysis) {
	base := s.BaseScoresFor(a.Domain)

	categories := model.Categories()
	a.Categories = make([]model.CategoryScore, 0, len(categories))
	values := make([]int, 0, len(categories))
	byCategory := make(map[model.Category]int, len(categories))

	for _, c := range categories {
		score := s.Clamp(base.Get(c) + s.Jitter())
		a.Categories = append(a.Categories, model.CategoryScore{
			Category: c,
			Score:    score,
			Details:  s.Details(c, score),
		})
		values = append(values, score)
		byCategory[c] = score
	}

	a.Overall = Overall(values)
	a.Recommendations = s.Recommendations(byCategory)
	a.Tier = s.TierFor(a.Overall)
	a.CriteriaCount = s.CriteriaCount()
}
