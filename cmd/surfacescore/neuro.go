package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/surfacescore/surfacescore/internal/neuro"
	"github.com/surfacescore/surfacescore/internal/report"
)

// NewNeuroCmd creates the neuro command and its subcommands.
func NewNeuroCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "neuro",
		Short: "Cognitive load and eye-tracking reference data",
		Long: `Neuro prints the reference tables behind the cognitive optimization
guidance: neurodiversity profiles, visual scanning patterns and supported
eye-trackers. The load subcommand computes a weighted cognitive load from
per-factor measurements and lists the resulting recommendations. The gaze
subcommand analyzes a recorded batch of eye-tracking data and chunk groups
content items into working-memory sized blocks.`,
	}

	cmd.PersistentFlags().BoolP("json", "j", false, "Output in JSON format")

	cmd.AddCommand(newNeuroProfilesCmd())
	cmd.AddCommand(newNeuroPatternsCmd())
	cmd.AddCommand(newNeuroTrackersCmd())
	cmd.AddCommand(newNeuroLoadCmd())
	cmd.AddCommand(newNeuroGazeCmd())
	cmd.AddCommand(newNeuroChunkCmd())

	return cmd
}

func jsonFlag(cmd *cobra.Command) bool {
	on, err := cmd.Flags().GetBool("json")
	if err != nil {
		return false
	}
	return on
}

func newNeuroProfilesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "profiles [type]",
		Short: "List neurodiversity profiles or show the layout for one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if len(args) == 0 {
				profiles := neuro.Profiles()
				if jsonFlag(cmd) {
					return encodeJSON(out, profiles)
				}
				for _, p := range profiles {
					fmt.Fprintf(out, "%s\n", p.Type)
				}
				return nil
			}

			t := neuro.Neurodiversity(strings.ToLower(args[0]))
			if _, ok := neuro.ProfileFor(t); !ok {
				return fmt.Errorf("unknown neurodiversity type %q (known: %s)", args[0], profileNames())
			}
			layout := neuro.Adapt(setupLogger(cmd), neuro.DefaultLayout(), t)
			if jsonFlag(cmd) {
				return encodeJSON(out, layout)
			}
			writeLayout(out, t, layout)
			return nil
		},
	}
}

func profileNames() string {
	profiles := neuro.Profiles()
	names := make([]string, len(profiles))
	for i, p := range profiles {
		names[i] = string(p.Type)
	}
	return strings.Join(names, ", ")
}

func writeLayout(out io.Writer, t neuro.Neurodiversity, l neuro.Layout) {
	fmt.Fprintf(out, "Layout for %s:\n", t)
	fmt.Fprintf(out, "  Chunk size:     %d items\n", l.ChunkSize)
	fmt.Fprintf(out, "  Line length:    %d characters\n", l.LineLength)
	if l.BreakInterval > 0 {
		fmt.Fprintf(out, "  Break interval: %s\n", l.BreakInterval)
	}
	if l.FontFamily != "" {
		fmt.Fprintf(out, "  Font:           %s\n", l.FontFamily)
		fmt.Fprintf(out, "  Line spacing:   %.2f\n", l.LineSpacing)
		fmt.Fprintf(out, "  Letter spacing: %.2fem\n", l.LetterSpacing)
		fmt.Fprintf(out, "  Contrast:       %s\n", l.ColorContrast)
	}
	if l.Predictability != "" {
		fmt.Fprintf(out, "  Predictability: %s\n", l.Predictability)
	}
}

func newNeuroPatternsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "patterns",
		Short: "List visual scanning patterns",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			patterns := neuro.Patterns()
			if jsonFlag(cmd) {
				return encodeJSON(out, patterns)
			}
			for _, p := range patterns {
				fmt.Fprintf(out, "%-12s %3.0f%%  %s\n", p.Name, p.Effectiveness*100, p.Description)
				fmt.Fprintf(out, "             optimize: %s\n", strings.Join(p.OptimizationZones, ", "))
			}
			return nil
		},
	}
}

// trackerStart is the outcome of starting an eye-tracker.
type trackerStart struct {
	Tracker     *neuro.Tracker        `json:"tracker"`
	Calibration neuro.Calibration     `json:"calibration"`
	Session     neuro.TrackingSession `json:"session"`
}

func newNeuroTrackersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trackers [kind]",
		Short: "List eye-trackers or start a tracking session",
		Long: `Without arguments, trackers lists the supported eye-tracker kinds.
Given a kind, it initializes and calibrates that tracker and starts a
tracking session. No gaze data is recorded.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if len(args) == 0 {
				kinds := neuro.TrackerKinds()
				if jsonFlag(cmd) {
					return encodeJSON(out, kinds)
				}
				for _, k := range kinds {
					fmt.Fprintln(out, k)
				}
				return nil
			}

			var tc neuro.TrackerConfig
			var err error
			if tc.Frequency, err = cmd.Flags().GetInt("frequency"); err != nil {
				return err
			}
			if tc.CalibrationPoints, err = cmd.Flags().GetInt("calibration-points"); err != nil {
				return err
			}

			tracker, err := neuro.InitTracker(strings.ToLower(args[0]), tc)
			if err != nil {
				return err
			}
			res := trackerStart{
				Tracker:     tracker,
				Calibration: tracker.Calibrate(tc.CalibrationPoints),
				Session:     tracker.Start(time.Now()),
			}
			if jsonFlag(cmd) {
				return encodeJSON(out, res)
			}
			fmt.Fprintf(out, "Tracker:     %s (%s accuracy, %d Hz)\n", res.Tracker.Type, res.Tracker.Accuracy, res.Tracker.Frequency)
			fmt.Fprintf(out, "Calibration: %d points, accuracy %.2f\n", res.Calibration.CalibrationPoints, res.Calibration.Accuracy)
			fmt.Fprintf(out, "Session:     %s (%s)\n", res.Session.ID, res.Session.Status)
			return nil
		},
	}

	cmd.Flags().Int("frequency", 0, "Sampling frequency in Hz (default: tracker default)")
	cmd.Flags().Int("calibration-points", 0, "Number of calibration points (default: tracker default)")

	return cmd
}

// loadResult is the output of the load subcommand.
type loadResult struct {
	Factors            neuro.LoadFactors      `json:"factors"`
	OverallLoad        float64                `json:"overall_load"`
	PupilLoad          *float64               `json:"pupil_load,omitempty"`
	AttentionThreshold time.Duration          `json:"attention_threshold,omitempty"`
	Recommendations    []neuro.Recommendation `json:"recommendations"`
}

func newNeuroLoadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "load",
		Short: "Compute cognitive load from factor measurements",
		Long: `Load computes the weighted cognitive load (0-100) from four factors:
text complexity 30%, visual elements 25%, interactive elements 25% and
information architecture 20%.

Examples:
  surfacescore neuro load --text 80 --visual 70 --interactive 60 --architecture 90
  surfacescore neuro load --text 40 --density 85 --device mobile
  surfacescore neuro load --pupil-baseline 3.5 --pupil-current 4.2`,
		Args: cobra.NoArgs,
		RunE: runNeuroLoadCmd,
	}

	cmd.Flags().Float64("text", 0, "Text complexity (0-100)")
	cmd.Flags().Float64("visual", 0, "Visual element load (0-100)")
	cmd.Flags().Float64("interactive", 0, "Interactive element load (0-100)")
	cmd.Flags().Float64("architecture", 0, "Information architecture load (0-100)")
	cmd.Flags().Float64("density", 0, "Information density (0-100)")
	cmd.Flags().String("device", "", "Device class for the attention threshold: mobile, tablet or desktop")
	cmd.Flags().Float64("pupil-baseline", 0, "Baseline pupil diameter in mm")
	cmd.Flags().Float64("pupil-current", 0, "Current pupil diameter in mm")

	return cmd
}

func runNeuroLoadCmd(cmd *cobra.Command, _ []string) error {
	var (
		res     loadResult
		density float64
		err     error
	)
	f := cmd.Flags()
	if res.Factors.TextComplexity, err = f.GetFloat64("text"); err != nil {
		return err
	}
	if res.Factors.VisualElements, err = f.GetFloat64("visual"); err != nil {
		return err
	}
	if res.Factors.InteractiveElements, err = f.GetFloat64("interactive"); err != nil {
		return err
	}
	if res.Factors.InformationArchitecture, err = f.GetFloat64("architecture"); err != nil {
		return err
	}
	if density, err = f.GetFloat64("density"); err != nil {
		return err
	}

	res.OverallLoad = neuro.OverallLoad(res.Factors)

	if f.Changed("pupil-baseline") || f.Changed("pupil-current") {
		baseline, _ := f.GetFloat64("pupil-baseline")
		current, _ := f.GetFloat64("pupil-current")
		dilation, err := neuro.PupilDilation(baseline, current)
		if err != nil {
			return err
		}
		load := neuro.PupilLoad(dilation)
		res.PupilLoad = &load
	}

	device, err := f.GetString("device")
	if err != nil {
		return err
	}
	if device != "" {
		threshold, ok := neuro.AttentionThreshold(neuro.Device(strings.ToLower(device)))
		if !ok {
			return fmt.Errorf("unknown device %q (use mobile, tablet or desktop)", device)
		}
		res.AttentionThreshold = threshold
	}

	res.Recommendations = neuro.Recommendations(neuro.CognitiveAnalysis{
		OverallLoad:        res.OverallLoad,
		InformationDensity: density,
	})

	out := cmd.OutOrStdout()
	if jsonFlag(cmd) {
		return encodeJSON(out, res)
	}

	fmt.Fprintf(out, "Cognitive load: %.1f/100\n", res.OverallLoad)
	if res.PupilLoad != nil {
		fmt.Fprintf(out, "Pupil load:     %.1f/100\n", *res.PupilLoad)
	}
	if res.AttentionThreshold > 0 {
		fmt.Fprintf(out, "Attention span: %s\n", res.AttentionThreshold)
	}
	if len(res.Recommendations) == 0 {
		fmt.Fprintln(out, "\nNo recommendations.")
		return nil
	}
	fmt.Fprintln(out, "\nRecommendations:")
	for _, r := range res.Recommendations {
		fmt.Fprintf(out, "  [%s] %s\n", report.PriorityLabel(r.Priority), r.Title)
		fmt.Fprintf(out, "      %s\n", r.Implementation)
	}
	return nil
}

func newNeuroGazeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "gaze <recording.json>",
		Short: "Analyze a recorded batch of eye-tracking data",
		Long: `Gaze reads a JSON recording, drops fixations outside 100ms-1s and
saccades that are too slow or too short, picks the best matching scanning
pattern and lists the live adaptations the measurements call for.

Durations in the recording are nanoseconds:

  {
    "fixations": [{"x": 120, "y": 80, "duration": 250000000}],
    "saccades": [{"velocity": 180, "amplitude": 3.5}],
    "pattern_scores": [{"name": "f_pattern", "score": 0.7}],
    "response_times": [450000000],
    "live": {"engagement": 0.25, "cognitive_load": 0.6, "prediction_confidence": 0.8}
  }`,
		Args: cobra.ExactArgs(1),
		RunE: runNeuroGazeCmd,
	}
}

func runNeuroGazeCmd(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0]) //nolint:gosec // User-provided recording path is intentional
	if err != nil {
		return fmt.Errorf("failed to read recording: %w", err)
	}
	var rec neuro.Recording
	if err := json.Unmarshal(data, &rec); err != nil {
		return fmt.Errorf("invalid recording %s: %w", args[0], err)
	}

	rep := neuro.AnalyzeRecording(rec)
	out := cmd.OutOrStdout()
	if jsonFlag(cmd) {
		return encodeJSON(out, rep)
	}

	fmt.Fprintf(out, "Fixations: %d valid, %d rejected\n", len(rep.Fixations), rep.RejectedFixations)
	fmt.Fprintf(out, "Saccades:  %d valid, %d rejected\n", len(rep.Saccades), rep.RejectedSaccades)
	if rep.BestPattern != nil {
		fmt.Fprintf(out, "Pattern:   %s (%.0f%%)\n", rep.BestPattern.Name, rep.BestPattern.Score*100)
	} else {
		fmt.Fprintln(out, "Pattern:   none detected")
	}
	if len(rep.ProcessingTimes) > 0 {
		var total time.Duration
		for _, d := range rep.ProcessingTimes {
			total += d
		}
		fmt.Fprintf(out, "Processing: %s average\n", total/time.Duration(len(rep.ProcessingTimes)))
	}
	if len(rep.Adaptations) == 0 {
		fmt.Fprintln(out, "\nNo adaptations.")
		return nil
	}
	fmt.Fprintln(out, "\nAdaptations:")
	for _, a := range rep.Adaptations {
		fmt.Fprintf(out, "  [%s] %s: %s\n", a.Priority, a.Action, a.Implementation)
	}
	return nil
}

func newNeuroChunkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chunk <item>...",
		Short: "Group content items into working-memory sized chunks",
		Long: `Chunk splits the given items into groups of at most 7, or the chunk
size of a neurodiversity profile.

Examples:
  surfacescore neuro chunk Home Products Pricing Docs Blog About Careers Contact Support
  surfacescore neuro chunk --profile adhd Home Products Pricing Docs Blog About`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			layout := neuro.DefaultLayout()
			profile, err := cmd.Flags().GetString("profile")
			if err != nil {
				return err
			}
			if profile != "" {
				t := neuro.Neurodiversity(strings.ToLower(profile))
				if _, ok := neuro.ProfileFor(t); !ok {
					return fmt.Errorf("unknown neurodiversity type %q (known: %s)", profile, profileNames())
				}
				layout = neuro.Adapt(setupLogger(cmd), layout, t)
			}

			chunks := neuro.Chunk(args, layout.ChunkSize)
			out := cmd.OutOrStdout()
			if jsonFlag(cmd) {
				return encodeJSON(out, chunks)
			}
			for i, c := range chunks {
				fmt.Fprintf(out, "Group %d: %s\n", i+1, strings.Join(c, ", "))
			}
			return nil
		},
	}

	cmd.Flags().StringP("profile", "p", "", "Neurodiversity profile whose chunk size is used")

	return cmd
}
