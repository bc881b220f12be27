package video

import (
	"bytes"
	"fmt"
	"image/jpeg"
	"io"
	"os/exec"
	"sync"
	"time"
)

// Decoder turns accumulated H.264 access units into single JPEG frames
// using a short-lived ffmpeg process with pipe I/O. Decoding is rate
// limited: intermediate access units arriving inside the minimum interval
// are simply dropped, favoring freshness over completeness.
type Decoder struct {
	mu          sync.Mutex
	lastDecode  time.Time
	minInterval time.Duration
}

// NewDecoder creates a decoder. minInterval bounds the decode rate
// (e.g. 33ms for at most 30 decoded frames per second).
func NewDecoder(minInterval time.Duration) *Decoder {
	return &Decoder{minInterval: minInterval}
}

// Decode converts one buffered H.264 access unit to a JPEG frame.
// It returns (nil, nil) when the unit was dropped by rate limiting or did
// not contain a decodable picture; both are normal during stream catch-up.
func (d *Decoder) Decode(nal []byte) ([]byte, error) {
	if len(nal) < 100 {
		return nil, nil
	}

	d.mu.Lock()
	if time.Since(d.lastDecode) < d.minInterval {
		d.mu.Unlock()
		return nil, nil
	}
	d.lastDecode = time.Now()
	d.mu.Unlock()

	cmd := exec.Command("ffmpeg",
		"-f", "h264", // raw Annex-B input
		"-i", "pipe:0",
		"-vframes", "1",
		"-f", "image2pipe",
		"-vcodec", "mjpeg",
		"-q:v", "3",
		"pipe:1",
	)

	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = io.Discard

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("video: stdin pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("video: start ffmpeg: %w", err)
	}

	go func() {
		stdin.Write(nal)
		stdin.Close()
	}()

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	select {
	case err := <-done:
		if err != nil {
			// Not enough data for a full picture yet; wait for the next unit.
			return nil, nil
		}
	case <-time.After(200 * time.Millisecond):
		cmd.Process.Kill()
		<-done
		return nil, nil
	}

	frame := stdout.Bytes()
	if !plausibleJPEG(frame) {
		return nil, nil
	}
	out := make([]byte, len(frame))
	copy(out, frame)
	return out, nil
}

// plausibleJPEG rejects tiny or undecodable output before it reaches the
// frame slot.
func plausibleJPEG(data []byte) bool {
	if len(data) < 1000 {
		return false
	}
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return false
	}
	return cfg.Width >= 100 && cfg.Height >= 100
}
