package tracking

import (
	"math"

	"github.com/teslashibe/go-tello/pkg/drone"
	"github.com/teslashibe/go-tello/pkg/tracking/detection"
)

// State classifies the steering decision for one detection cycle.
type State int

const (
	// StateSearching means no target was found; sweep and look again.
	StateSearching State = iota
	// StateCentering means the target is off-center; rotate toward it.
	StateCentering
	// StateAdvancing means the target is centered but still far; move in.
	StateAdvancing
	// StateArrived means the target is centered and close. Terminal for
	// the engagement; no further approach commands are issued.
	StateArrived
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case StateSearching:
		return "searching"
	case StateCentering:
		return "centering"
	case StateAdvancing:
		return "advancing"
	case StateArrived:
		return "arrived"
	default:
		return "unknown"
	}
}

// Target is the single candidate chosen this cycle, already mapped into
// source-frame coordinates. It is recomputed every cycle and never
// persisted across cycles.
type Target struct {
	Box        detection.Box
	Confidence float64
	ClassName  string
}

// Decision is the steering outcome for one cycle.
type Decision struct {
	State   State
	Command drone.Command // zero value when State == StateArrived
	Offset  float64       // horizontal offset ratio, -0.5..0.5
	Size    float64       // target width as fraction of frame width
}

// Policy converts target geometry into a motion command. Decisions are a
// pure function of (offset, size, thresholds): calling Decide twice with
// unchanged geometry yields the same action class.
//
// Bounding-box width as a fraction of frame width stands in for distance -
// no depth sensor is assumed. Centering takes priority over advancing so
// the drone never closes distance while drifting off-frame.
type Policy struct {
	cfg Config
}

// NewPolicy creates a steering policy with the given thresholds.
func NewPolicy(cfg Config) *Policy {
	return &Policy{cfg: cfg}
}

// Decide maps this cycle's target (nil when detection found nothing) to an
// action. frameWidth is the source-frame width in pixels.
func (p *Policy) Decide(target *Target, frameWidth int) Decision {
	if target == nil || frameWidth <= 0 {
		return Decision{
			State:   StateSearching,
			Command: drone.RotateCW(p.cfg.SearchStep),
		}
	}

	w := float64(frameWidth)
	offset := target.Box.CenterX()/w - 0.5
	size := target.Box.Width() / w

	switch {
	case math.Abs(offset) > p.cfg.CenterTolerance:
		cmd := drone.RotateCW(p.cfg.RotateStep)
		if offset < 0 {
			cmd = drone.RotateCCW(p.cfg.RotateStep)
		}
		return Decision{State: StateCentering, Command: cmd, Offset: offset, Size: size}

	case size < p.cfg.SizeThreshold:
		return Decision{
			State:   StateAdvancing,
			Command: drone.Forward(p.cfg.AdvanceStep),
			Offset:  offset,
			Size:    size,
		}

	default:
		return Decision{State: StateArrived, Offset: offset, Size: size}
	}
}
