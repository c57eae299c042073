package quiz

import (
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/rkrmr33/quizlevels/internal/models"
)

func newTestManager() (*Manager, *clockwork.FakeClock) {
	clock := clockwork.NewFakeClockAt(testStart)
	return newManager(NewMachine(testBank(), keepOrder), clock), clock
}

func TestCreateSession(t *testing.T) {
	manager, _ := newTestManager()

	id, err := manager.CreateSession()
	if err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}

	if id == "" {
		t.Error("Expected non-empty session ID")
	}

	session, err := manager.GetSession(id)
	if err != nil {
		t.Fatalf("Failed to get session: %v", err)
	}

	if session.State().GameState != models.StateStart {
		t.Errorf("Expected state 'start', got '%s'", session.State().GameState)
	}

	other, _ := manager.CreateSession()
	if other == id {
		t.Error("Expected distinct session IDs")
	}
	if manager.Count() != 2 {
		t.Errorf("Expected 2 sessions, got %d", manager.Count())
	}
}

func TestGetSessionNotFound(t *testing.T) {
	manager, _ := newTestManager()

	if _, err := manager.GetSession("missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound, got %v", err)
	}
	if _, err := manager.Dispatch("missing", Event{Kind: EventStart}); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound from dispatch, got %v", err)
	}
}

func TestSessionsAreIndependent(t *testing.T) {
	manager, clock := newTestManager()
	first, _ := manager.CreateSession()
	second, _ := manager.CreateSession()

	if _, err := manager.Dispatch(first, Event{Kind: EventStart}); err != nil {
		t.Fatalf("Failed to start quiz: %v", err)
	}
	snap, err := manager.Dispatch(first, Event{Kind: EventSubmit, Answer: "A"})
	if err != nil {
		t.Fatalf("Failed to submit answer: %v", err)
	}
	if snap.Score != 10 || snap.Feedback == nil {
		t.Errorf("Expected dispatch to return the graded snapshot, got score %d feedback %+v", snap.Score, snap.Feedback)
	}

	s1, _ := manager.GetSession(first)
	s2, _ := manager.GetSession(second)
	clock.Advance(FeedbackDelay)
	waitFor(t, "first session to advance", func() bool { return s1.State().Index == 1 })

	if s1.State().Score != 10 {
		t.Errorf("Expected first session score 10, got %d", s1.State().Score)
	}
	if s2.State().GameState != models.StateStart || s2.State().Score != 0 {
		t.Errorf("Expected second session untouched, got %s with %d", s2.State().GameState, s2.State().Score)
	}
}

func TestDeleteSession(t *testing.T) {
	manager, clock := newTestManager()
	id, _ := manager.CreateSession()
	manager.Dispatch(id, Event{Kind: EventStart})

	if err := manager.DeleteSession(id); err != nil {
		t.Fatalf("Failed to delete session: %v", err)
	}
	if _, err := manager.GetSession(id); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Expected session to be gone, got %v", err)
	}
	expectTimers(t, clock, 0)
	if err := manager.DeleteSession(id); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound on second delete, got %v", err)
	}
}

func TestCleanupIdleSessions(t *testing.T) {
	manager, clock := newTestManager()
	idle, _ := manager.CreateSession()

	clock.Advance(2 * time.Hour)
	active, _ := manager.CreateSession()
	manager.Dispatch(active, Event{Kind: EventStart})

	clock.Advance(30 * time.Minute)
	removed := manager.CleanupIdleSessions(time.Hour)

	if removed != 1 {
		t.Errorf("Expected 1 idle session removed, got %d", removed)
	}
	if _, err := manager.GetSession(idle); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Expected idle session to be removed, got %v", err)
	}
	if _, err := manager.GetSession(active); err != nil {
		t.Errorf("Expected active session to survive, got %v", err)
	}
}

func TestCloseAll(t *testing.T) {
	manager, clock := newTestManager()
	for i := 0; i < 3; i++ {
		id, _ := manager.CreateSession()
		manager.Dispatch(id, Event{Kind: EventStart})
	}

	manager.CloseAll()

	if manager.Count() != 0 {
		t.Errorf("Expected no sessions, got %d", manager.Count())
	}
	expectTimers(t, clock, 0)
}
