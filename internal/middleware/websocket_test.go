package middleware

import (
	"testing"
	"time"
)

func TestHubStopTerminatesRunLoop(t *testing.T) {
	h := NewHub(nil)
	exited := make(chan struct{})
	go func() {
		h.Run()
		close(exited)
	}()

	// Broadcast must not block even with no clients connected.
	h.Broadcast([]byte(`{"cpu":1}`))

	h.Stop()
	select {
	case <-exited:
	case <-time.After(time.Second):
		t.Fatalf("hub loop did not exit after Stop")
	}
	if h.GetClientCount() != 0 {
		t.Fatalf("expected no clients after shutdown, got %d", h.GetClientCount())
	}
}

func TestBroadcastDropsWhenQueueFull(t *testing.T) {
	// Hub loop not running: the buffered channel absorbs frames and the
	// overflow is dropped instead of stalling the caller.
	h := NewHub(nil)
	for i := 0; i < 200; i++ {
		h.Broadcast([]byte("frame"))
	}
}
