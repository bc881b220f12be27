package hub

import (
	"testing"
	"time"
)

func TestHub_BroadcastWithoutClients(t *testing.T) {
	h := New("test")
	go h.Run()
	defer h.Stop()

	// No clients: broadcasts are consumed without blocking.
	for i := 0; i < 10; i++ {
		h.BroadcastBinary([]byte{byte(i)})
	}
	if err := h.BroadcastJSON(map[string]int{"n": 1}); err != nil {
		t.Fatalf("BroadcastJSON: %v", err)
	}

	time.Sleep(10 * time.Millisecond)
	if got := h.ClientCount(); got != 0 {
		t.Errorf("ClientCount: got %d, want 0", got)
	}
}

func TestHub_ClientSendsAfterStopDoNotBlock(t *testing.T) {
	h := New("test")
	go h.Run()
	h.Stop()

	done := make(chan struct{})
	go func() {
		// Late registration and a straggler's unregistration must both
		// return once the run loop has exited.
		c := NewClient(h, nil)
		select {
		case h.unregister <- c:
		case <-h.stop:
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("client register/unregister blocked after Stop")
	}
}

func TestHub_BroadcastJSONRejectsUnmarshalable(t *testing.T) {
	h := New("test")
	if err := h.BroadcastJSON(make(chan int)); err == nil {
		t.Error("expected marshal error for a channel value")
	}
}

func TestMessage_Constructors(t *testing.T) {
	j := NewJSONMessage([]byte(`{}`))
	if j.Type != JSONMessage {
		t.Errorf("JSON message type: got %v", j.Type)
	}
	b := NewBinaryMessage([]byte{0xff})
	if b.Type != BinaryMessage {
		t.Errorf("binary message type: got %v", b.Type)
	}
}
