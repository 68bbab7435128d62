package neuro

import (
	"errors"
	"fmt"
	"time"
)

// ErrUnsupportedTracker is returned for an unknown eye-tracker kind.
var ErrUnsupportedTracker = errors.New("unsupported eye-tracker")

// TrackerConfig overrides tracker defaults. Zero values keep the default.
type TrackerConfig struct {
	Frequency         int `json:"frequency,omitempty"`
	CalibrationPoints int `json:"calibration_points,omitempty"`
}

// Tracker describes an initialized eye-tracker.
type Tracker struct {
	Kind              string `json:"kind"`
	Type              string `json:"type"`
	Accuracy          string `json:"accuracy"`
	Frequency         int    `json:"frequency"`
	CalibrationPoints int    `json:"calibration_points"`

	calibratedAccuracy float64
}

// Calibration is the result of calibrating a tracker.
type Calibration struct {
	Success           bool    `json:"success"`
	Accuracy          float64 `json:"accuracy"`
	CalibrationPoints int     `json:"calibration_points"`
}

// TrackingSession identifies a started tracking session.
type TrackingSession struct {
	ID        string    `json:"id"`
	Status    string    `json:"status"`
	StartedAt time.Time `json:"started_at"`
}

var trackers = []Tracker{
	{Kind: "tobii", Type: "tobii_pro", Accuracy: "high", Frequency: 120, CalibrationPoints: 9, calibratedAccuracy: 0.95},
	{Kind: "gazepoint", Type: "gazepoint", Accuracy: "medium", Frequency: 60, CalibrationPoints: 5, calibratedAccuracy: 0.85},
	{Kind: "webgazer", Type: "webgazer", Accuracy: "low", Frequency: 30, CalibrationPoints: 13, calibratedAccuracy: 0.65},
}

// TrackerKinds lists the supported tracker kinds.
func TrackerKinds() []string {
	kinds := make([]string, len(trackers))
	for i, t := range trackers {
		kinds[i] = t.Kind
	}
	return kinds
}

// InitTracker returns the tracker for kind with cfg applied.
func InitTracker(kind string, cfg TrackerConfig) (*Tracker, error) {
	for _, t := range trackers {
		if t.Kind != kind {
			continue
		}
		if cfg.Frequency > 0 {
			t.Frequency = cfg.Frequency
		}
		if cfg.CalibrationPoints > 0 {
			t.CalibrationPoints = cfg.CalibrationPoints
		}
		return &t, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedTracker, kind)
}

// Calibrate reports the tracker's fixed calibration accuracy. points
// overrides the tracker's calibration point count when positive.
func (t *Tracker) Calibrate(points int) Calibration {
	if points <= 0 {
		points = t.CalibrationPoints
	}
	return Calibration{
		Success:           true,
		Accuracy:          t.calibratedAccuracy,
		CalibrationPoints: points,
	}
}

// Start opens a tracking session at now. No gaze data is produced.
func (t *Tracker) Start(now time.Time) TrackingSession {
	return TrackingSession{
		ID:        fmt.Sprintf("%s_%d", t.Kind, now.UnixMilli()),
		Status:    "tracking",
		StartedAt: now,
	}
}
