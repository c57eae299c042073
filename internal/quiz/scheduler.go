package quiz

import (
	"sync"

	"github.com/jonboulle/clockwork"
)

// Scheduler carries out the timer effects of one session. It owns at most
// one countdown and one deferred transition at a time; starting either
// cancels whatever was outstanding before.
type Scheduler struct {
	clock    clockwork.Clock
	dispatch func(Event)

	mu             sync.Mutex
	countdown      clockwork.Timer
	countdownRound int
	deferred       clockwork.Timer
	stopped        bool
}

// NewScheduler creates a scheduler delivering timer events to dispatch
func NewScheduler(clock clockwork.Clock, dispatch func(Event)) *Scheduler {
	return &Scheduler{
		clock:    clock,
		dispatch: dispatch,
	}
}

// Apply runs the effects of a transition in order
func (s *Scheduler) Apply(effects []Effect) {
	for _, e := range effects {
		switch e.Kind {
		case EffectStartCountdown:
			s.StartCountdown(e.Round)
		case EffectStopCountdown:
			s.StopCountdown()
		case EffectSchedule:
			s.Schedule(e)
		}
	}
}

// StartCountdown begins a once-per-second tick for a question round,
// superseding any countdown or deferred transition of an earlier round
func (s *Scheduler) StartCountdown(round int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return
	}
	s.stopCountdownLocked()
	s.stopDeferredLocked()

	s.countdownRound = round
	var fire func()
	fire = func() {
		s.mu.Lock()
		if s.stopped || s.countdownRound != round || s.countdown == nil {
			s.mu.Unlock()
			return
		}
		s.countdown = s.clock.AfterFunc(TickInterval, fire)
		s.mu.Unlock()

		s.dispatch(Event{Kind: EventTick, Round: round})
	}
	s.countdown = s.clock.AfterFunc(TickInterval, fire)
}

// StopCountdown cancels the running countdown, if any
func (s *Scheduler) StopCountdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopCountdownLocked()
}

// Schedule delivers the effect's event after its delay
func (s *Scheduler) Schedule(e Effect) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return
	}
	s.stopDeferredLocked()

	ev := e.Event
	var handle clockwork.Timer
	handle = s.clock.AfterFunc(e.Delay, func() {
		s.mu.Lock()
		if s.stopped || s.deferred != handle {
			s.mu.Unlock()
			return
		}
		s.deferred = nil
		s.mu.Unlock()

		s.dispatch(ev)
	})
	s.deferred = handle
}

// Stop cancels every outstanding timer; the scheduler ignores later effects
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopped = true
	s.stopCountdownLocked()
	s.stopDeferredLocked()
}

func (s *Scheduler) stopCountdownLocked() {
	if s.countdown != nil {
		s.countdown.Stop()
		s.countdown = nil
	}
	s.countdownRound = 0
}

func (s *Scheduler) stopDeferredLocked() {
	if s.deferred != nil {
		s.deferred.Stop()
		s.deferred = nil
	}
}
