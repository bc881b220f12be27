package drone

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/teslashibe/go-tello/internal/log"
)

// ErrEmptyCommand is returned for a blank manual command.
var ErrEmptyCommand = errors.New("drone: empty command")

// Sender is the minimal transport contract the dispatcher needs.
type Sender interface {
	Send(cmd string) (string, error)
}

// Dispatcher is the single serialization point for outbound commands.
// Exchanges are strictly ordered: one command is on the wire at a time and
// a partially acknowledged exchange is never interleaved with a new one.
//
// Autonomous steering commands pass through a settle gate: after each one,
// no further autonomous command is issued until its settle delay elapses.
// There is no queue; a skipped command is simply recomputed next cycle.
// Manual operator commands are never suppressed by the gate - an emergency
// stop must not wait out a rotation - they only share the wire ordering.
type Dispatcher struct {
	conn Sender

	wire sync.Mutex // one exchange on the wire at a time

	gateMu   sync.Mutex
	nextAuto time.Time
}

// NewDispatcher creates a dispatcher over the given transport.
func NewDispatcher(conn Sender) *Dispatcher {
	return &Dispatcher{conn: conn}
}

// TryAuto transmits a detection-driven command unless a settle delay is
// pending. It reports ok=false when the command was skipped. On transmit it
// arms the gate for the command's settle delay before the exchange, so a
// slow reply wait never shortens the pacing.
func (d *Dispatcher) TryAuto(cmd Command) (reply string, ok bool, err error) {
	d.gateMu.Lock()
	now := time.Now()
	if now.Before(d.nextAuto) {
		d.gateMu.Unlock()
		log.Debug("auto command skipped, settling",
			"cmd", cmd.Text, "remaining", time.Until(d.nextAuto))
		return "", false, nil
	}
	d.nextAuto = now.Add(cmd.Settle)
	d.gateMu.Unlock()

	reply, err = d.exchange("auto", cmd.Text)
	return reply, true, err
}

// Manual transmits an operator command immediately, serialized on the wire
// but exempt from the settle gate.
func (d *Dispatcher) Manual(text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyCommand
	}
	return d.exchange("manual", Raw(text).Text)
}

// Exec transmits a session command (bootstrap, takeoff, land) and arms the
// settle gate so autonomous traffic waits out the motion it started. The
// gate is only ever extended: a zero-settle query issued mid-settle must
// not cut a pending delay short.
func (d *Dispatcher) Exec(cmd Command) (string, error) {
	d.gateMu.Lock()
	if t := time.Now().Add(cmd.Settle); t.After(d.nextAuto) {
		d.nextAuto = t
	}
	d.gateMu.Unlock()

	return d.exchange("op", cmd.Text)
}

// Settling reports whether an autonomous settle delay is pending.
func (d *Dispatcher) Settling() bool {
	d.gateMu.Lock()
	defer d.gateMu.Unlock()
	return time.Now().Before(d.nextAuto)
}

func (d *Dispatcher) exchange(source, text string) (string, error) {
	d.wire.Lock()
	defer d.wire.Unlock()

	id := uuid.NewString()[:8]
	start := time.Now()
	reply, err := d.conn.Send(text)
	elapsed := time.Since(start)

	switch {
	case errors.Is(err, ErrTimeout):
		log.Warn("dispatch timeout", "id", id, "source", source, "cmd", text, "elapsed", elapsed)
	case err != nil:
		log.Error("dispatch failed", "id", id, "source", source, "cmd", text, "err", err)
	default:
		log.Info("dispatch ok", "id", id, "source", source, "cmd", text, "reply", reply, "elapsed", elapsed)
	}
	return reply, err
}
