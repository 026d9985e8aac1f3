package ws

import (
	"sync"
	"testing"
	"time"

	"github.com/chachamwise/axiom-audit-global/internal/store"
)

func raceHub() *Hub {
	return New(store.New(time.Minute), time.Hour)
}

func fakeClient() *client {
	return &client{
		send: make(chan []byte, 1),
		done: make(chan struct{}),
	}
}

// Broadcast fan-out races client teardown on every disconnect. A send on a
// channel that teardown has closed panics the whole process, so the hub must
// never close send — teardown is signalled through done only. This test dies
// with "send on closed channel" if that ownership is ever broken.
func TestBroadcastDuringTeardown(t *testing.T) {
	h := raceHub()

	clients := make([]*client, 0, 500)
	for i := 0; i < 500; i++ {
		c := fakeClient()
		h.register(c)
		clients = append(clients, c)
	}

	// Fill every one-slot send buffer so the racing broadcasts below also
	// exercise the full-buffer unregister branch.
	h.broadcast()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			h.broadcast()
		}
	}()
	go func() {
		defer wg.Done()
		for _, c := range clients {
			h.unregister(c)
		}
	}()
	wg.Wait()

	if n := h.Count(); n != 0 {
		t.Errorf("Count after teardown: got %d, want 0", n)
	}
}

// closeAll (shutdown path) and the on-tick broadcast race the same way when
// the context is cancelled mid-tick.
func TestCloseAllDuringBroadcast(t *testing.T) {
	h := raceHub()
	for i := 0; i < 200; i++ {
		h.register(fakeClient())
	}
	h.broadcast() // fill buffers

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			h.broadcast()
		}
	}()
	go func() {
		defer wg.Done()
		h.closeAll()
	}()
	wg.Wait()

	if n := h.Count(); n != 0 {
		t.Errorf("Count after closeAll: got %d, want 0", n)
	}
}

// unregister is reachable from both ServeHTTP's defer and broadcast's
// full-buffer branch for the same client; the second call must be a no-op.
func TestUnregisterIdempotent(t *testing.T) {
	h := raceHub()
	c := fakeClient()
	h.register(c)

	h.unregister(c)
	h.unregister(c) // second call must not close done again

	select {
	case <-c.done:
	default:
		t.Error("done: not closed after unregister")
	}
	if n := h.Count(); n != 0 {
		t.Errorf("Count: got %d, want 0", n)
	}
}
