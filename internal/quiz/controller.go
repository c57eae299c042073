package quiz

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/rkrmr33/quizlevels/internal/models"
)

// ErrSessionClosed is returned when an event reaches a session that was torn down
var ErrSessionClosed = errors.New("quiz session closed")

// Controller owns the state of one quiz session. User input and timer
// callbacks are serialised through Dispatch, so a deferred transition always
// sees the state committed by the event that scheduled it.
type Controller struct {
	id        string
	machine   *Machine
	clock     clockwork.Clock
	scheduler *Scheduler

	mu           sync.Mutex
	state        State
	createdAt    time.Time
	lastActivity time.Time
	updatedAt    time.Time
	subscribers  map[int]chan models.Snapshot
	nextSub      int
	closed       bool
}

// NewController creates a session controller in the start state
func NewController(id string, machine *Machine, clock clockwork.Clock) *Controller {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	now := clock.Now()
	c := &Controller{
		id:           id,
		machine:      machine,
		clock:        clock,
		state:        machine.Initial(),
		createdAt:    now,
		lastActivity: now,
		updatedAt:    now,
		subscribers:  make(map[int]chan models.Snapshot),
	}
	c.scheduler = NewScheduler(clock, c.dispatchTimer)
	return c
}

// ID returns the session identifier
func (c *Controller) ID() string {
	return c.id
}

// Dispatch applies an event to the session and runs the resulting timer effects
func (c *Controller) Dispatch(ev Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrSessionClosed
	}

	prev := c.state
	next, effects, err := c.machine.Transition(c.state, ev)
	if err != nil {
		return err
	}

	c.state = next
	now := c.clock.Now()
	c.updatedAt = now
	if ev.FromUser() {
		c.lastActivity = now
	}
	c.scheduler.Apply(effects)

	if prev.GameState != next.GameState || prev.Level != next.Level {
		slog.Info("Quiz session state changed",
			"session_id", c.id,
			"from", prev.GameState,
			"to", next.GameState,
			"level", next.Level,
			"score", next.Score,
			"correct_answers", next.CorrectAnswers)
	}

	c.publishLocked()
	return nil
}

func (c *Controller) dispatchTimer(ev Event) {
	if err := c.Dispatch(ev); err != nil && !errors.Is(err, ErrSessionClosed) {
		slog.Error("Quiz timer event failed", "error", err, "session_id", c.id, "event", ev.Kind)
	}
}

// State returns a copy of the current session state
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Snapshot returns the presentation view of the session
func (c *Controller) Snapshot() models.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Subscribe registers for a snapshot after every change. The returned func
// unsubscribes. Slow subscribers only ever see the most recent snapshot.
func (c *Controller) Subscribe() (<-chan models.Snapshot, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch := make(chan models.Snapshot, 1)
	id := c.nextSub
	c.nextSub++
	if c.closed {
		close(ch)
		return ch, func() {}
	}
	c.subscribers[id] = ch
	ch <- c.snapshotLocked()

	return ch, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if sub, ok := c.subscribers[id]; ok {
			delete(c.subscribers, id)
			close(sub)
		}
	}
}

// LastActivity returns the time of the last player input
func (c *Controller) LastActivity() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastActivity
}

// Close cancels pending timers and releases subscribers
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	c.scheduler.Stop()
	for id, ch := range c.subscribers {
		close(ch)
		delete(c.subscribers, id)
	}
}

func (c *Controller) publishLocked() {
	snap := c.snapshotLocked()
	for _, ch := range c.subscribers {
		select {
		case ch <- snap:
		default:
			// drop the stale snapshot and replace it
			select {
			case <-ch:
			default:
			}
			ch <- snap
		}
	}
}

func (c *Controller) snapshotLocked() models.Snapshot {
	s := c.state
	snap := models.Snapshot{
		SessionID:      c.id,
		State:          s.GameState,
		Level:          s.Level,
		Score:          s.Score,
		CorrectAnswers: s.CorrectAnswers,
		TotalQuestions: len(s.Questions),
		Answer:         s.Answer,
		Timer:          s.Timer,
		TimerActive:    s.TimerActive,
		CanRetry:       s.GameState == models.StateGameOver && s.RetryLevel,
		CanAdvance:     s.GameState == models.StateLevelComplete,
		CreatedAt:      c.createdAt,
		UpdatedAt:      c.updatedAt,
	}

	if q, ok := s.CurrentQuestion(); ok {
		snap.QuestionNumber = s.Index + 1
		snap.Question = &q
		snap.Choices = q.Choices()
		snap.CanSubmit = s.Feedback == nil && s.Answer != ""
	}
	if s.Feedback != nil {
		fb := *s.Feedback
		snap.Feedback = &fb
	}

	return snap
}
