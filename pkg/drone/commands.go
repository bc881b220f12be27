package drone

import (
	"fmt"
	"strings"
	"time"
)

// Settle delays give the airframe time to complete a motion before the next
// autonomous command is considered. Rotations settle faster than linear
// motion; takeoff needs the full climb.
const (
	settleRotate  = 1 * time.Second
	settleMove    = 2 * time.Second
	settleTakeoff = 5 * time.Second
	settleDefault = 1 * time.Second
)

// settleByOpcode maps an SDK opcode to its settle delay.
var settleByOpcode = map[string]time.Duration{
	"cw":      settleRotate,
	"ccw":     settleRotate,
	"forward": settleMove,
	"back":    settleMove,
	"left":    settleMove,
	"right":   settleMove,
	"up":      settleMove,
	"down":    settleMove,
	"flip":    settleMove,
	"takeoff": settleTakeoff,
}

// Command is one SDK command: opcode text plus the settle delay the
// dispatcher applies after transmission. Commands are atomic on the wire,
// one at a time, no pipelining.
type Command struct {
	Text   string
	Settle time.Duration
}

// Opcode returns the first field of the command text.
func (c Command) Opcode() string {
	if i := strings.IndexByte(c.Text, ' '); i >= 0 {
		return c.Text[:i]
	}
	return c.Text
}

// EnterSDK switches the drone into SDK command mode.
func EnterSDK() Command { return Command{"command", settleDefault} }

// Takeoff starts an automatic takeoff and climb.
func Takeoff() Command { return Command{"takeoff", settleTakeoff} }

// Land starts an automatic landing.
func Land() Command { return Command{"land", settleDefault} }

// StreamOn enables the H.264 video stream.
func StreamOn() Command { return Command{"streamon", settleDefault} }

// StreamOff disables the video stream.
func StreamOff() Command { return Command{"streamoff", settleDefault} }

// RotateCW yaws clockwise by deg degrees.
func RotateCW(deg int) Command {
	return Command{fmt.Sprintf("cw %d", deg), settleRotate}
}

// RotateCCW yaws counter-clockwise by deg degrees.
func RotateCCW(deg int) Command {
	return Command{fmt.Sprintf("ccw %d", deg), settleRotate}
}

// Forward advances by cm centimeters.
func Forward(cm int) Command {
	return Command{fmt.Sprintf("forward %d", cm), settleMove}
}

// Back retreats by cm centimeters.
func Back(cm int) Command {
	return Command{fmt.Sprintf("back %d", cm), settleMove}
}

// Left strafes left by cm centimeters.
func Left(cm int) Command {
	return Command{fmt.Sprintf("left %d", cm), settleMove}
}

// Right strafes right by cm centimeters.
func Right(cm int) Command {
	return Command{fmt.Sprintf("right %d", cm), settleMove}
}

// Up climbs by cm centimeters.
func Up(cm int) Command {
	return Command{fmt.Sprintf("up %d", cm), settleMove}
}

// Down descends by cm centimeters.
func Down(cm int) Command {
	return Command{fmt.Sprintf("down %d", cm), settleMove}
}

// Flip performs a flip: 'l', 'r', 'f' or 'b'.
func Flip(dir byte) Command {
	return Command{fmt.Sprintf("flip %c", dir), settleMove}
}

// SetSpeed sets cruise speed in cm/s.
func SetSpeed(cms int) Command {
	return Command{fmt.Sprintf("speed %d", cms), settleDefault}
}

// QueryBattery asks for the battery percentage. Queries carry no settle.
func QueryBattery() Command { return Command{"battery?", 0} }

// QuerySpeed asks for the current speed.
func QuerySpeed() Command { return Command{"speed?", 0} }

// QueryTime asks for the accumulated flight time.
func QueryTime() Command { return Command{"time?", 0} }

// Emergency stops all motors immediately. Never delayed, never gated.
func Emergency() Command { return Command{"emergency", 0} }

// Raw wraps an operator-supplied command string, inferring the settle delay
// from its opcode. No validation beyond non-empty is performed; the drone
// itself rejects malformed commands.
func Raw(text string) Command {
	text = strings.TrimSpace(text)
	op := text
	if i := strings.IndexByte(text, ' '); i >= 0 {
		op = text[:i]
	}
	settle, ok := settleByOpcode[op]
	if !ok {
		settle = settleDefault
	}
	return Command{text, settle}
}
