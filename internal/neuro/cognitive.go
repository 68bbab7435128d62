package neuro

import (
	"errors"
	"log/slog"
	"time"

	"github.com/surfacescore/surfacescore/internal/model"
)

const (
	// MaxChunkSize is the number of items held in working memory (7±2).
	MaxChunkSize = 7

	// OptimalLineLength is the reading line length in characters.
	OptimalLineLength = 65

	// WhitespaceRatio is the share of a layout left blank.
	WhitespaceRatio = 0.4

	// MotorResponseTime is subtracted from response times to isolate processing.
	MotorResponseTime = 200 * time.Millisecond
)

// Device is a class of screen.
type Device string

// Devices with attention thresholds.
const (
	DeviceMobile  Device = "mobile"
	DeviceTablet  Device = "tablet"
	DeviceDesktop Device = "desktop"
)

var attentionThresholds = map[Device]time.Duration{
	DeviceMobile:  8 * time.Second,
	DeviceTablet:  12 * time.Second,
	DeviceDesktop: 15 * time.Second,
}

// AttentionThreshold returns the attention span for d.
func AttentionThreshold(d Device) (time.Duration, bool) {
	t, ok := attentionThresholds[d]
	return t, ok
}

// Neurodiversity names a profile.
type Neurodiversity string

// Known profiles.
const (
	ADHD     Neurodiversity = "adhd"
	Dyslexia Neurodiversity = "dyslexia"
	Autism   Neurodiversity = "autism"
)

// Profile lists the presentation preferences for a neurodiversity type.
// Only the fields relevant to the type are set.
type Profile struct {
	Type Neurodiversity `json:"type"`

	MaxChunkSize           int           `json:"max_chunk_size,omitempty"`
	AttentionBreakInterval time.Duration `json:"attention_break_interval,omitempty"`
	VisualDistraction      string        `json:"visual_distraction,omitempty"`
	InteractionStyle       string        `json:"interaction_style,omitempty"`

	FontFamily    string  `json:"font_family,omitempty"`
	LineSpacing   float64 `json:"line_spacing,omitempty"`
	LetterSpacing float64 `json:"letter_spacing,omitempty"`
	ColorContrast string  `json:"color_contrast,omitempty"`

	SensoryOverload    string `json:"sensory_overload,omitempty"`
	Predictability     string `json:"predictability,omitempty"`
	ChangeNotification string `json:"change_notification,omitempty"`
	RoutineSupport     string `json:"routine_support,omitempty"`
}

var profiles = []Profile{
	{
		Type:                   ADHD,
		MaxChunkSize:           5,
		AttentionBreakInterval: 30 * time.Second,
		VisualDistraction:      "minimal",
		InteractionStyle:       "immediate_feedback",
	},
	{
		Type:          Dyslexia,
		FontFamily:    "OpenDyslexic",
		LineSpacing:   1.5,
		LetterSpacing: 0.12,
		ColorContrast: "high",
	},
	{
		Type:               Autism,
		SensoryOverload:    "minimal",
		Predictability:     "high",
		ChangeNotification: "advance_warning",
		RoutineSupport:     "consistent_navigation",
	},
}

// Profiles returns all known profiles.
func Profiles() []Profile {
	return append([]Profile(nil), profiles...)
}

// ProfileFor looks up the profile for t.
func ProfileFor(t Neurodiversity) (Profile, bool) {
	for _, p := range profiles {
		if p.Type == t {
			return p, true
		}
	}
	return Profile{}, false
}

// LoadFactors are the per-factor cognitive load inputs, each 0-100.
type LoadFactors struct {
	TextComplexity          float64 `json:"text_complexity"`
	VisualElements          float64 `json:"visual_elements"`
	InteractiveElements     float64 `json:"interactive_elements"`
	InformationArchitecture float64 `json:"information_architecture"`
}

// OverallLoad returns the weighted cognitive load, clamped to 0-100.
func OverallLoad(f LoadFactors) float64 {
	total := f.TextComplexity*0.3 +
		f.VisualElements*0.25 +
		f.InteractiveElements*0.25 +
		f.InformationArchitecture*0.2
	return clamp(total, 0, 100)
}

// Chunk splits items into groups of at most size. A non-positive size
// uses MaxChunkSize.
func Chunk[T any](items []T, size int) [][]T {
	if size <= 0 {
		size = MaxChunkSize
	}
	chunks := make([][]T, 0, (len(items)+size-1)/size)
	for i := 0; i < len(items); i += size {
		end := min(i+size, len(items))
		chunks = append(chunks, items[i:end])
	}
	return chunks
}

// Layout is the set of presentation settings a profile can adapt.
type Layout struct {
	ChunkSize      int           `json:"chunk_size"`
	LineLength     int           `json:"line_length"`
	FontFamily     string        `json:"font_family,omitempty"`
	LineSpacing    float64       `json:"line_spacing,omitempty"`
	LetterSpacing  float64       `json:"letter_spacing,omitempty"`
	ColorContrast  string        `json:"color_contrast,omitempty"`
	BreakInterval  time.Duration `json:"break_interval,omitempty"`
	Predictability string        `json:"predictability,omitempty"`
}

// DefaultLayout returns the layout used without a profile.
func DefaultLayout() Layout {
	return Layout{
		ChunkSize:  MaxChunkSize,
		LineLength: OptimalLineLength,
	}
}

// Adapt applies the profile for t to l. An unknown type logs a warning
// and returns l unchanged.
func Adapt(logger *slog.Logger, l Layout, t Neurodiversity) Layout {
	p, ok := ProfileFor(t)
	if !ok {
		if logger != nil {
			logger.Warn("unknown neurodiversity type", "type", string(t))
		}
		return l
	}
	switch t {
	case ADHD:
		l.ChunkSize = p.MaxChunkSize
		l.BreakInterval = p.AttentionBreakInterval
	case Dyslexia:
		l.FontFamily = p.FontFamily
		l.LineSpacing = p.LineSpacing
		l.LetterSpacing = p.LetterSpacing
		l.ColorContrast = p.ColorContrast
	case Autism:
		l.Predictability = p.Predictability
	}
	return l
}

// ErrInvalidBaseline is returned for a non-positive pupil baseline.
var ErrInvalidBaseline = errors.New("pupil baseline must be positive")

// PupilDilation returns the relative change of current over baseline.
func PupilDilation(baseline, current float64) (float64, error) {
	if baseline <= 0 {
		return 0, ErrInvalidBaseline
	}
	return (current - baseline) / baseline, nil
}

// PupilLoad maps a pupil dilation to a 0-100 cognitive load.
func PupilLoad(dilation float64) float64 {
	return clamp(dilation*100+50, 0, 100)
}

// ProcessingTimes subtracts the motor response time from each response
// time, flooring at zero.
func ProcessingTimes(responseTimes []time.Duration) []time.Duration {
	out := make([]time.Duration, len(responseTimes))
	for i, rt := range responseTimes {
		out[i] = max(0, rt-MotorResponseTime)
	}
	return out
}

// CognitiveAnalysis holds the measurements recommendations are based on.
type CognitiveAnalysis struct {
	OverallLoad        float64 `json:"overall_load"`
	InformationDensity float64 `json:"information_density"`
}

// Recommendation is a cognitive optimization suggestion.
type Recommendation struct {
	Priority            model.Priority `json:"priority"`
	Category            string         `json:"category"`
	Title               string         `json:"title"`
	Description         string         `json:"description"`
	Implementation      string         `json:"implementation"`
	ExpectedImprovement string         `json:"expected_improvement"`
}

// Recommendations returns suggestions for a, high load first.
func Recommendations(a CognitiveAnalysis) []Recommendation {
	var recs []Recommendation
	if a.OverallLoad > 70 {
		recs = append(recs, Recommendation{
			Priority:            model.PriorityHigh,
			Category:            "cognitive_load",
			Title:               "Reduce cognitive load",
			Description:         "Content cognitive load is too high for optimal processing",
			Implementation:      "Break content into smaller chunks and simplify visual design",
			ExpectedImprovement: "40-60% reduction in cognitive effort",
		})
	}
	if a.InformationDensity > 80 {
		recs = append(recs, Recommendation{
			Priority:            model.PriorityMedium,
			Category:            "information_density",
			Title:               "Reduce information density",
			Description:         "Too much information presented simultaneously",
			Implementation:      "Use progressive disclosure and information layering",
			ExpectedImprovement: "30-50% improvement in comprehension",
		})
	}
	return recs
}

func clamp(v, lo, hi float64) float64 {
	return max(lo, min(hi, v))
}
