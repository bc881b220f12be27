// Package drone implements the Tello UDP command protocol: a plain-text
// request/reply transport channel, the SDK command set with per-opcode
// settle delays, and a dispatcher that serializes autonomous steering
// commands and manual operator commands onto the same channel.
package drone

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/teslashibe/go-tello/internal/log"
)

// ErrTimeout is returned when no reply arrives within the reply timeout.
// The command may or may not have been applied; the channel remains usable.
var ErrTimeout = errors.New("drone: reply timeout")

// ConnConfig holds transport channel settings.
type ConnConfig struct {
	IP           string        // drone address
	CommandPort  int           // remote SDK port
	LocalPort    int           // local bind, kept off the video port
	ReplyTimeout time.Duration // bound on the reply wait
}

// DefaultConnConfig returns the Tello AP-mode defaults.
func DefaultConnConfig() ConnConfig {
	return ConnConfig{
		IP:           "192.168.10.1",
		CommandPort:  8889,
		LocalPort:    9000,
		ReplyTimeout: 5 * time.Second,
	}
}

// Conn is the UDP command channel. Commands go out to the drone's SDK port
// but the socket binds a separate local port so the high-volume video
// stream (its own socket) never collides with control traffic.
//
// Conn performs no retries and no locking; serialization belongs to the
// Dispatcher.
type Conn struct {
	sock    *net.UDPConn
	remote  *net.UDPAddr
	timeout time.Duration
}

// Dial binds the local command socket and resolves the drone address.
func Dial(cfg ConnConfig) (*Conn, error) {
	ip := net.ParseIP(cfg.IP)
	if ip == nil {
		return nil, fmt.Errorf("drone: invalid IP %q", cfg.IP)
	}

	sock, err := net.ListenUDP("udp4", &net.UDPAddr{Port: cfg.LocalPort})
	if err != nil {
		return nil, fmt.Errorf("drone: bind local port %d: %w", cfg.LocalPort, err)
	}

	log.Info("command channel ready",
		"drone", cfg.IP, "port", cfg.CommandPort, "local", sock.LocalAddr().String())

	return &Conn{
		sock:    sock,
		remote:  &net.UDPAddr{IP: ip, Port: cfg.CommandPort},
		timeout: cfg.ReplyTimeout,
	}, nil
}

// Send transmits one text command datagram and blocks for exactly one reply
// datagram, bounded by the reply timeout. On timeout it returns ErrTimeout
// with an empty reply. Socket faults are reported but never poison the
// channel; a subsequent Send may still succeed.
func (c *Conn) Send(cmd string) (string, error) {
	if _, err := c.sock.WriteToUDP([]byte(cmd), c.remote); err != nil {
		log.Error("command send failed", "cmd", cmd, "err", err)
		return "", fmt.Errorf("drone: send %q: %w", cmd, err)
	}

	buf := make([]byte, 1024)
	if err := c.sock.SetReadDeadline(time.Now().Add(c.timeout)); err != nil {
		return "", fmt.Errorf("drone: set deadline: %w", err)
	}

	n, _, err := c.sock.ReadFromUDP(buf)
	if err != nil {
		var ne net.Error
		if errors.As(err, &ne) && ne.Timeout() {
			log.Warn("command timed out", "cmd", cmd, "timeout", c.timeout)
			return "", ErrTimeout
		}
		log.Error("command receive failed", "cmd", cmd, "err", err)
		return "", fmt.Errorf("drone: recv for %q: %w", cmd, err)
	}

	reply := strings.TrimSpace(string(buf[:n]))
	log.Info("command reply", "cmd", cmd, "reply", reply)
	return reply, nil
}

// Close releases the command socket.
func (c *Conn) Close() error {
	return c.sock.Close()
}
