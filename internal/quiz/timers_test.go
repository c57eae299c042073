package quiz

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
)

var testStart = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

// The fake clock runs AfterFunc callbacks on their own goroutines, so tests
// wait for the effect of an Advance instead of reading state straight away.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("Timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

// expectTimers checks that exactly n timers are pending on the clock
func expectTimers(t *testing.T, clock *clockwork.FakeClock, n int) {
	t.Helper()
	if n > 0 {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := clock.BlockUntilContext(ctx, n); err != nil {
			t.Fatalf("Expected %d pending timers, found fewer", n)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := clock.BlockUntilContext(ctx, n+1); err == nil {
		t.Errorf("Expected %d pending timers, found more", n)
	}
}

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) record(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

func (r *recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func (r *recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}
