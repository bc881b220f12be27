// Package tracking implements the closed-loop visual-approach controller:
// a paced control/render loop over the freshest camera frame, a throttled
// detection cycle, and a steering policy that turns target geometry into
// discrete flight commands.
package tracking

import (
	"time"

	"github.com/teslashibe/go-tello/pkg/tracking/detection"
)

// Config holds all tunable parameters for the approach controller.
type Config struct {
	// Steering thresholds, as fractions of source-frame width.
	// Boundary rule: |offset| == CenterTolerance counts as centered and
	// size == SizeThreshold counts as arrived (inclusive-within).
	CenterTolerance float64
	SizeThreshold   float64

	// Detection
	ConfidenceThresh float64 // accept strictly above this
	DetectWidth      int     // downscale width for inference
	Classes          []int   // COCO class allow-list (nil = all)
	Selection        detection.SelectionPolicy

	// Rates
	DetectRate  float64 // detector invocations per second
	DisplayRate float64 // control/render loop frequency

	// Command magnitudes
	RotateStep  int // degrees per centering rotation
	SearchStep  int // degrees per search sweep
	AdvanceStep int // centimeters per forward advance
}

// DefaultConfig returns the recommended person-seeking configuration.
func DefaultConfig() Config {
	return Config{
		CenterTolerance: 0.10, // within 10% of frame center
		SizeThreshold:   0.20, // box at 20% of frame width is close enough

		ConfidenceThresh: 0.5,
		DetectWidth:      640,
		Classes:          []int{0}, // person
		Selection:        detection.SelectMaxConfidence,

		DetectRate:  5,  // detection at 5 Hz
		DisplayRate: 30, // render at 30 FPS

		RotateStep:  15,
		SearchStep:  30,
		AdvanceStep: 30,
	}
}

// CautiousConfig trades reaction speed for stability: slower detection,
// smaller motion increments, a wider arrival margin.
func CautiousConfig() Config {
	cfg := DefaultConfig()
	cfg.DetectRate = 2
	cfg.RotateStep = 10
	cfg.AdvanceStep = 20
	cfg.SizeThreshold = 0.25
	return cfg
}

// DetectInterval returns the minimum spacing between detection cycles.
func (c Config) DetectInterval() time.Duration {
	return time.Duration(float64(time.Second) / c.DetectRate)
}

// DisplayInterval returns the control loop's frame interval.
func (c Config) DisplayInterval() time.Duration {
	return time.Duration(float64(time.Second) / c.DisplayRate)
}
