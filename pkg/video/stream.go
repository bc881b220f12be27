package video

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/teslashibe/go-tello/internal/log"
)

// The Tello slices each encoded frame into datagrams of exactly this size;
// the final slice of a frame is shorter.
const sliceSize = 1460

// StreamConfig holds video ingestion settings.
type StreamConfig struct {
	Port           int           // local UDP port the drone streams to
	DecodeInterval time.Duration // minimum spacing between decodes
}

// DefaultStreamConfig returns the Tello stream defaults.
func DefaultStreamConfig() StreamConfig {
	return StreamConfig{
		Port:           11111,
		DecodeInterval: 33 * time.Millisecond,
	}
}

// Stream is the frame source: an unbounded ingestion loop over the raw
// H.264 UDP stream. Completed access units go through the decoder and the
// resulting JPEG frames are published to the slot; everything that cannot
// keep up is dropped rather than queued.
type Stream struct {
	cfg     StreamConfig
	sock    *net.UDPConn
	decoder *Decoder
	slot    *Slot
}

// NewStream binds the local video port. The socket is separate from the
// command socket so streaming traffic never delays control exchanges.
func NewStream(cfg StreamConfig, slot *Slot) (*Stream, error) {
	sock, err := net.ListenUDP("udp4", &net.UDPAddr{Port: cfg.Port})
	if err != nil {
		return nil, fmt.Errorf("video: bind port %d: %w", cfg.Port, err)
	}
	log.Info("video channel ready", "port", cfg.Port)

	return &Stream{
		cfg:     cfg,
		sock:    sock,
		decoder: NewDecoder(cfg.DecodeInterval),
		slot:    slot,
	}, nil
}

// Slot returns the shared frame slot this stream publishes into.
func (s *Stream) Slot() *Slot {
	return s.slot
}

// Run ingests datagrams until the context is canceled. It blocks only on
// the next incoming packet; decode failures are absorbed and logged, never
// fatal to the loop.
func (s *Stream) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		s.sock.Close()
	}()

	var unit bytes.Buffer
	buf := make([]byte, 2048)
	frames := 0

	for {
		n, _, err := s.sock.ReadFromUDP(buf)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			log.Warn("video read failed", "err", err)
			continue
		}

		unit.Write(buf[:n])

		// A short datagram ends the current access unit.
		if n == sliceSize {
			continue
		}

		frame, err := s.decoder.Decode(unit.Bytes())
		unit.Reset()
		if err != nil {
			log.Warn("video decode failed", "err", err)
			continue
		}
		if frame == nil {
			continue
		}

		s.slot.Publish(frame)
		frames++
		if frames%300 == 1 {
			log.Debug("video frames decoded", "count", frames, "bytes", len(frame))
		}
	}
}
