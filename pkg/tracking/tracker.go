package tracking

import (
	"context"
	"sync"
	"time"

	"github.com/teslashibe/go-tello/internal/log"
	"github.com/teslashibe/go-tello/pkg/drone"
	"github.com/teslashibe/go-tello/pkg/tracking/detection"
)

// Mode is the controller mode.
type Mode int

const (
	// ModeIdle issues no autonomous commands.
	ModeIdle Mode = iota
	// ModeManual leaves the channel to operator commands only.
	ModeManual
	// ModeAuto runs the visual-approach loop.
	ModeAuto
)

// String implements fmt.Stringer.
func (m Mode) String() string {
	switch m {
	case ModeManual:
		return "manual"
	case ModeAuto:
		return "auto"
	default:
		return "idle"
	}
}

// FrameSource provides the freshest frame, never an older one.
type FrameSource interface {
	Latest() (frame []byte, seq uint64, ok bool)
}

// CommandSink is the dispatcher surface the tracker drives.
type CommandSink interface {
	TryAuto(cmd drone.Command) (reply string, ok bool, err error)
}

// Tracker is the control/render task. It loops at the display rate,
// copying the current frame out of the slot, handing it to the display
// consumer, and running one detection cycle whenever the throttle is due.
// Detection is a blocking call on this loop; its latency extends that
// cycle's frame interval, which the throttled rate makes acceptable.
type Tracker struct {
	cfg      Config
	frames   FrameSource
	detector detection.Detector
	sink     CommandSink
	policy   *Policy
	throttle *Throttle

	mu           sync.RWMutex
	mode         Mode
	lastDecision Decision
	lastTarget   *Target
	misses       int

	// OnFrame receives every rendered frame along with the most recent
	// target, for the display consumer (dashboard stream). May be nil.
	OnFrame func(jpeg []byte, target *Target)

	// OnDecision receives every detection-cycle decision. May be nil.
	OnDecision func(d Decision)
}

// New creates a tracker. It starts in ModeIdle.
func New(cfg Config, frames FrameSource, detector detection.Detector, sink CommandSink) *Tracker {
	return &Tracker{
		cfg:      cfg,
		frames:   frames,
		detector: detector,
		sink:     sink,
		policy:   NewPolicy(cfg),
		throttle: NewThrottle(cfg.DetectRate),
	}
}

// Mode returns the current controller mode.
func (t *Tracker) Mode() Mode {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.mode
}

// SetMode switches the controller mode (operator-triggered). A target only
// lives as long as the engagement: leaving auto mode discards it so the
// display consumer stops drawing a box no cycle is refreshing.
func (t *Tracker) SetMode(m Mode) {
	t.mu.Lock()
	prev := t.mode
	t.mode = m
	if m != ModeAuto {
		t.lastTarget = nil
	}
	t.mu.Unlock()
	if prev != m {
		log.Info("mode changed", "from", prev, "to", m)
	}
}

// Engage starts an autonomous approach engagement.
func (t *Tracker) Engage() {
	t.SetMode(ModeAuto)
}

// LastDecision returns the most recent detection-cycle decision.
func (t *Tracker) LastDecision() Decision {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.lastDecision
}

// Run paces the control loop at the display rate until the context is
// canceled. Processing time is deducted from each interval; the loop
// sleeps only for the remainder.
func (t *Tracker) Run(ctx context.Context) error {
	interval := t.cfg.DisplayInterval()
	log.Info("tracker started",
		"detect_rate", t.cfg.DetectRate,
		"display_rate", t.cfg.DisplayRate,
		"selection", t.cfg.Selection.String())

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		start := time.Now()
		t.step(start)

		rest := interval - time.Since(start)
		if rest <= 0 {
			continue
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(rest):
		}
	}
}

// step runs one loop iteration: copy the freshest frame, render it, and
// run a detection cycle when due. Missing frames skip the iteration.
func (t *Tracker) step(now time.Time) {
	frame, _, ok := t.frames.Latest()
	if !ok {
		return
	}

	var target *Target
	if t.Mode() == ModeAuto && t.throttle.Due(now) {
		target = t.detectCycle(frame)
	} else {
		t.mu.RLock()
		target = t.lastTarget
		t.mu.RUnlock()
	}

	if t.OnFrame != nil {
		t.OnFrame(frame, target)
	}
}

// detectCycle runs one throttled detection pass: detect on the downscaled
// frame, map accepted candidates back to source coordinates, select the
// target, decide, and dispatch. All per-cycle errors are absorbed here.
func (t *Tracker) detectCycle(frame []byte) *Target {
	res, err := t.detector.Detect(frame)
	if err != nil {
		log.Warn("detection failed, cycle skipped", "err", err)
		return nil
	}
	if res.SrcWidth <= 0 {
		return nil
	}

	mapper := res.Mapper()
	accepted := detection.Filter(res.Detections, t.cfg.Classes, t.cfg.ConfidenceThresh)
	chosen := detection.Select(t.cfg.Selection, accepted)

	var target *Target
	if chosen != nil {
		target = &Target{
			Box:        mapper.ToSource(chosen.Box),
			Confidence: chosen.Confidence,
			ClassName:  chosen.ClassName,
		}
	}

	dec := t.policy.Decide(target, res.SrcWidth)

	t.mu.Lock()
	t.lastDecision = dec
	t.lastTarget = target
	if target == nil {
		t.misses++
	} else {
		t.misses = 0
	}
	misses := t.misses
	t.mu.Unlock()

	log.Info("detection cycle",
		"state", dec.State.String(),
		"candidates", len(accepted),
		"offset", dec.Offset,
		"size", dec.Size)
	if misses == 5 {
		log.Warn("target lost", "consecutive_misses", misses)
	}

	if dec.State == StateArrived {
		log.Info("target reached, engagement complete",
			"offset", dec.Offset, "size", dec.Size)
		t.SetMode(ModeIdle)
	} else {
		_, sent, err := t.sink.TryAuto(dec.Command)
		if err != nil {
			// Unknown outcome; the next cycle re-evaluates from scratch.
			log.Warn("steering command failed", "cmd", dec.Command.Text, "err", err)
		} else if !sent {
			log.Debug("steering command skipped, settling", "cmd", dec.Command.Text)
		}
	}

	if t.OnDecision != nil {
		t.OnDecision(dec)
	}
	return target
}
