package tracking

import (
	"testing"

	"github.com/teslashibe/go-tello/pkg/tracking/detection"
)

// targetAt builds a target whose center-x offset ratio and width ratio
// match the given values, for a frame of the given width.
func targetAt(offset, size float64, frameWidth int) *Target {
	w := float64(frameWidth)
	boxW := size * w
	cx := (offset + 0.5) * w
	return &Target{
		Box: detection.Box{
			X1: cx - boxW/2,
			Y1: 100,
			X2: cx + boxW/2,
			Y2: 300,
		},
		Confidence: 0.9,
		ClassName:  "person",
	}
}

func TestPolicy_Decide(t *testing.T) {
	p := NewPolicy(DefaultConfig())
	const frameW = 960

	tests := []struct {
		name       string
		target     *Target
		wantState  State
		wantOpcode string
	}{
		{
			// Scenario C: no detections means a search sweep, not a stall.
			name:       "no target searches",
			target:     nil,
			wantState:  StateSearching,
			wantOpcode: "cw",
		},
		{
			// Scenario B: positive offset beyond tolerance rotates
			// clockwise, never advances.
			name:       "target right of tolerance rotates cw",
			target:     targetAt(0.30, 0.10, frameW),
			wantState:  StateCentering,
			wantOpcode: "cw",
		},
		{
			name:       "target left of tolerance rotates ccw",
			target:     targetAt(-0.30, 0.10, frameW),
			wantState:  StateCentering,
			wantOpcode: "ccw",
		},
		{
			name:       "centered and small advances",
			target:     targetAt(0, 0.10, frameW),
			wantState:  StateAdvancing,
			wantOpcode: "forward",
		},
		{
			// Scenario A: centered with size 0.25 >= 0.20 declares arrival
			// and issues no motion command.
			name:      "centered and close arrives",
			target:    targetAt(0, 0.25, frameW),
			wantState: StateArrived,
		},
		{
			name:       "centering wins over advancing",
			target:     targetAt(0.30, 0.25, frameW),
			wantState:  StateCentering,
			wantOpcode: "cw",
		},
		{
			name:       "zero frame width searches",
			target:     targetAt(0, 0.25, frameW),
			wantState:  StateSearching,
			wantOpcode: "cw",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			frame := frameW
			if tc.name == "zero frame width searches" {
				frame = 0
			}
			dec := p.Decide(tc.target, frame)

			if dec.State != tc.wantState {
				t.Errorf("state: got %v, want %v", dec.State, tc.wantState)
			}
			if tc.wantState == StateArrived {
				if dec.Command.Text != "" {
					t.Errorf("arrived must not emit a command, got %q", dec.Command.Text)
				}
				return
			}
			if got := dec.Command.Opcode(); got != tc.wantOpcode {
				t.Errorf("opcode: got %q (%q), want %q", got, dec.Command.Text, tc.wantOpcode)
			}
			if dec.Command.Settle <= 0 {
				t.Errorf("motion command %q missing settle delay", dec.Command.Text)
			}
		})
	}
}

// Boundary rule: exactly at the tolerance counts as within tolerance, and
// exactly at the size threshold counts as arrived.
func TestPolicy_InclusiveBoundaries(t *testing.T) {
	cfg := DefaultConfig()
	p := NewPolicy(cfg)
	const frameW = 1000

	atTolerance := p.Decide(targetAt(cfg.CenterTolerance, 0.10, frameW), frameW)
	if atTolerance.State != StateAdvancing {
		t.Errorf("offset == tolerance: got %v, want advancing (within tolerance)", atTolerance.State)
	}

	atThreshold := p.Decide(targetAt(0, cfg.SizeThreshold, frameW), frameW)
	if atThreshold.State != StateArrived {
		t.Errorf("size == threshold: got %v, want arrived", atThreshold.State)
	}

	justPastTolerance := p.Decide(targetAt(cfg.CenterTolerance+0.001, 0.10, frameW), frameW)
	if justPastTolerance.State != StateCentering {
		t.Errorf("offset just past tolerance: got %v, want centering", justPastTolerance.State)
	}

	justUnderThreshold := p.Decide(targetAt(0, cfg.SizeThreshold-0.001, frameW), frameW)
	if justUnderThreshold.State != StateAdvancing {
		t.Errorf("size just under threshold: got %v, want advancing", justUnderThreshold.State)
	}
}

// The decision is a pure function of (offset, size, thresholds).
func TestPolicy_Idempotent(t *testing.T) {
	p := NewPolicy(DefaultConfig())
	const frameW = 960

	for _, target := range []*Target{
		nil,
		targetAt(0.30, 0.10, frameW),
		targetAt(0, 0.10, frameW),
		targetAt(0, 0.25, frameW),
	} {
		first := p.Decide(target, frameW)
		second := p.Decide(target, frameW)
		if first != second {
			t.Errorf("Decide not idempotent: %+v then %+v", first, second)
		}
	}
}

func TestState_String(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateSearching, "searching"},
		{StateCentering, "centering"},
		{StateAdvancing, "advancing"},
		{StateArrived, "arrived"},
	}
	for _, tc := range tests {
		if got := tc.state.String(); got != tc.want {
			t.Errorf("State(%d).String(): got %q, want %q", tc.state, got, tc.want)
		}
	}
}
