// Package video ingests the drone's raw H.264 UDP stream, decodes it to
// JPEG frames, and publishes only the most recent frame into a shared slot.
package video

import (
	"sync"
	"time"
)

// Slot holds at most one frame: the freshest. A new publish unconditionally
// supersedes the previous frame; no history is kept and no reader ever
// blocks. Readers get a private copy so the lock is held only for the copy,
// never during processing.
type Slot struct {
	mu    sync.RWMutex
	frame []byte
	seq   uint64
	at    time.Time
}

// NewSlot creates an empty frame slot.
func NewSlot() *Slot {
	return &Slot{}
}

// Publish overwrites the slot with a new frame. The slot takes ownership of
// the slice; the producer must not reuse it.
func (s *Slot) Publish(jpeg []byte) {
	s.mu.Lock()
	s.frame = jpeg
	s.seq++
	s.at = time.Now()
	s.mu.Unlock()
}

// Latest returns a copy of the current frame and its sequence number.
// ok is false while no frame has arrived yet.
func (s *Slot) Latest() (frame []byte, seq uint64, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.frame == nil {
		return nil, 0, false
	}
	frame = make([]byte, len(s.frame))
	copy(frame, s.frame)
	return frame, s.seq, true
}

// Age returns how long ago the current frame arrived, and false if the slot
// is empty.
func (s *Slot) Age() (time.Duration, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.frame == nil {
		return 0, false
	}
	return time.Since(s.at), true
}
