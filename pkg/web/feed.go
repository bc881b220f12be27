package web

import (
	"bufio"
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
)

var (
	blackFrameOnce sync.Once
	blackFrame     []byte
)

// placeholderFrame is shown for fleet members without a live video link.
func placeholderFrame() []byte {
	blackFrameOnce.Do(func() {
		img := image.NewGray(image.Rect(0, 0, 640, 480))
		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, img, nil); err != nil {
			// A gray 640x480 always encodes; leave nil and the feed
			// serves whatever live frame arrives.
			return
		}
		blackFrame = buf.Bytes()
	})
	return blackFrame
}

// handleVideoFeed serves an MJPEG stream. Without an :id it streams the
// active member's frames; with an :id of a non-active member it streams the
// placeholder so every fleet tile renders.
func (s *Server) handleVideoFeed(c *fiber.Ctx) error {
	id := c.Params("id")
	live := true
	if s.fleet != nil {
		if id != "" && !s.fleet.IsActive(id) {
			live = false
		} else if s.fleet.Active().Placeholder {
			live = false
		}
	}
	interval := s.displayInterval

	c.Set(fiber.HeaderContentType, "multipart/x-mixed-replace; boundary=frame")
	c.Set(fiber.HeaderCacheControl, "no-cache")

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for range ticker.C {
			frame := placeholderFrame()
			if live {
				if f := s.latestFrame(); f != nil {
					frame = f
				}
			}
			if frame == nil {
				continue
			}
			if err := writeMJPEGPart(w, frame); err != nil {
				return
			}
		}
	}))
	return nil
}

func writeMJPEGPart(w *bufio.Writer, frame []byte) error {
	if _, err := fmt.Fprintf(w, "--frame\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n", len(frame)); err != nil {
		return err
	}
	if _, err := w.Write(frame); err != nil {
		return err
	}
	if _, err := w.Write([]byte("\r\n")); err != nil {
		return err
	}
	return w.Flush()
}
