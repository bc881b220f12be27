package drone

import (
	"strings"
	"time"

	"github.com/teslashibe/go-tello/internal/log"
)

// Driver wraps the dispatcher with the session-level flight sequence:
// enter SDK mode, start the stream, take off, and tear everything down
// again. Non-ok replies are logged as warnings rather than treated as
// fatal - the drone sometimes acknowledges late or not at all.
type Driver struct {
	d *Dispatcher
}

// NewDriver creates a driver over the given dispatcher.
func NewDriver(d *Dispatcher) *Driver {
	return &Driver{d: d}
}

// fly executes one session command and sleeps out its settle delay, giving
// the airframe time to finish the motion before the caller continues.
func (dr *Driver) fly(cmd Command) string {
	reply, err := dr.d.Exec(cmd)
	if err == nil && !isOK(reply) {
		log.Warn("unexpected reply", "cmd", cmd.Text, "reply", reply)
	}
	if cmd.Settle > 0 {
		time.Sleep(cmd.Settle)
	}
	return reply
}

// Start enters SDK mode and turns the video stream on.
func (dr *Driver) Start() {
	if reply := dr.fly(EnterSDK()); !isOK(reply) {
		log.Warn("could not enter SDK mode", "reply", reply)
	}
	if reply := dr.fly(StreamOn()); !isOK(reply) {
		log.Warn("could not start video stream", "reply", reply)
	}
	// Give the encoder a moment before the first frames arrive.
	time.Sleep(2 * time.Second)
}

// Takeoff launches the drone and waits out the climb.
func (dr *Driver) Takeoff() {
	if reply := dr.fly(Takeoff()); !isOK(reply) {
		log.Warn("takeoff command failed", "reply", reply)
	}
}

// Land brings the drone down and stops the stream.
func (dr *Driver) Land() {
	dr.fly(Land())
	dr.fly(StreamOff())
}

// Battery queries the battery percentage.
func (dr *Driver) Battery() (string, error) {
	return dr.d.Exec(QueryBattery())
}

func isOK(reply string) bool {
	return strings.EqualFold(strings.TrimSpace(reply), "ok")
}
