package quiz

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rkrmr33/quizlevels/internal/bank"
	"github.com/rkrmr33/quizlevels/internal/models"
)

const (
	// QuestionTime is the countdown, in seconds, each question starts with
	QuestionTime = 30
	// TickInterval is the period of the countdown
	TickInterval = time.Second
	// FeedbackDelay is how long feedback stays visible before the quiz moves on
	FeedbackDelay = 1500 * time.Millisecond
)

// ErrInvalidTransition is returned for an action the current state does not offer
var ErrInvalidTransition = errors.New("invalid transition")

// EventKind identifies an input to the state machine
type EventKind string

const (
	EventStart         EventKind = "start"
	EventPlayAgain     EventKind = "play-again"
	EventAnswerChanged EventKind = "answer-text"
	EventSubmit        EventKind = "submit"
	EventNextLevel     EventKind = "next-level"
	EventRetryLevel    EventKind = "retry-level"
	EventTick          EventKind = "tick"
	EventAdvance       EventKind = "advance"
)

// Event is an input to the state machine. Timer driven events carry the
// round they were scheduled for so late deliveries can be recognised.
type Event struct {
	Kind   EventKind
	Answer string
	Round  int
}

// FromUser reports whether the event comes from the player rather than a timer
func (e Event) FromUser() bool {
	return e.Kind != EventTick && e.Kind != EventAdvance
}

// EffectKind identifies a side effect requested by a transition
type EffectKind int

const (
	EffectStartCountdown EffectKind = iota
	EffectStopCountdown
	EffectSchedule
)

// Effect is a timer instruction produced by a transition and carried out by the Scheduler
type Effect struct {
	Kind  EffectKind
	Round int
	Delay time.Duration
	Event Event
}

// State is the full state of one quiz session
type State struct {
	GameState      models.GameState
	Level          models.Level
	Questions      []models.Question
	Index          int
	Score          int
	CorrectAnswers int
	PreviousScore  int
	Feedback       *models.Feedback
	Answer         string
	Timer          int
	TimerActive    bool
	RetryLevel     bool
	// Round increases every time a question is put in front of the player
	Round int
}

// CurrentQuestion returns the question being played, if any
func (s State) CurrentQuestion() (models.Question, bool) {
	if s.GameState != models.StatePlaying || s.Index < 0 || s.Index >= len(s.Questions) {
		return models.Question{}, false
	}
	return s.Questions[s.Index], true
}

func (s State) lastQuestion() bool {
	return s.Index == len(s.Questions)-1
}

// ShuffleFunc returns a permutation of the given questions
type ShuffleFunc func([]models.Question) []models.Question

// Machine computes quiz transitions. It holds no session state.
type Machine struct {
	bank    *bank.Bank
	shuffle ShuffleFunc
}

// NewMachine creates a state machine over a question bank
func NewMachine(b *bank.Bank, shuffle ShuffleFunc) *Machine {
	if shuffle == nil {
		shuffle = Shuffle
	}
	return &Machine{bank: b, shuffle: shuffle}
}

// Initial returns the state of a freshly mounted session
func (m *Machine) Initial() State {
	return State{
		GameState: models.StateStart,
		Level:     models.LevelEasy,
		Timer:     QuestionTime,
	}
}

// Transition applies an event to a state and returns the new state along
// with the timer effects to run. The input state is not modified.
func (m *Machine) Transition(s State, ev Event) (State, []Effect, error) {
	switch ev.Kind {
	case EventStart:
		if s.GameState != models.StateStart {
			return s, nil, fmt.Errorf("%w: cannot start from %s", ErrInvalidTransition, s.GameState)
		}
		return m.beginLevel(s, models.LevelEasy, 0, 0)

	case EventPlayAgain:
		return m.beginLevel(s, models.LevelEasy, 0, 0)

	case EventAnswerChanged:
		if s.GameState != models.StatePlaying {
			return s, nil, fmt.Errorf("%w: no question is being played", ErrInvalidTransition)
		}
		if s.Feedback != nil {
			return s, nil, nil
		}
		s.Answer = ev.Answer
		return s, nil, nil

	case EventSubmit:
		if s.GameState != models.StatePlaying {
			return s, nil, fmt.Errorf("%w: no question is being played", ErrInvalidTransition)
		}
		if ev.Answer != "" && s.Feedback == nil {
			s.Answer = ev.Answer
		}
		return m.submit(s)

	case EventTick:
		if s.GameState != models.StatePlaying || ev.Round != s.Round || !s.TimerActive {
			return s, nil, nil
		}
		s.Timer--
		if s.Timer > 0 {
			return s, nil, nil
		}
		return m.timeUp(s)

	case EventAdvance:
		if s.GameState != models.StatePlaying || ev.Round != s.Round || s.Feedback == nil {
			return s, nil, nil
		}
		if s.lastQuestion() {
			return m.evaluateLevel(s), nil, nil
		}
		s.Index++
		s.Answer = ""
		s.Feedback = nil
		next, effects := presentQuestion(s)
		return next, effects, nil

	case EventNextLevel:
		if s.GameState != models.StateLevelComplete {
			return s, nil, fmt.Errorf("%w: level is not complete", ErrInvalidTransition)
		}
		next, ok := s.Level.Next()
		if !ok {
			return s, nil, fmt.Errorf("%w: %s is the last level", ErrInvalidTransition, s.Level)
		}
		return m.beginLevel(s, next, s.Score, s.Score)

	case EventRetryLevel:
		if s.GameState != models.StateGameOver || !s.RetryLevel {
			return s, nil, fmt.Errorf("%w: retry is not available", ErrInvalidTransition)
		}
		return m.beginLevel(s, s.Level, s.PreviousScore, s.PreviousScore)
	}

	return s, nil, fmt.Errorf("%w: unknown event %q", ErrInvalidTransition, ev.Kind)
}

func (m *Machine) submit(s State) (State, []Effect, error) {
	// a whitespace-only answer is still graded; it trims to nothing and is wrong
	if s.Feedback != nil || s.Answer == "" {
		return s, nil, nil
	}

	q := s.Questions[s.Index]
	if answerMatches(s.Answer, q.CorrectAnswer) {
		s.Score += m.bank.PointsFor(s.Level)
		s.CorrectAnswers++
		s.Feedback = &models.Feedback{Type: models.FeedbackSuccess, Message: "Correct!"}
	} else {
		s.Feedback = &models.Feedback{
			Type:    models.FeedbackError,
			Message: "Incorrect. The correct answer was: " + q.CorrectAnswer,
		}
	}

	s.TimerActive = false
	return s, pauseEffects(s.Round), nil
}

func (m *Machine) timeUp(s State) (State, []Effect, error) {
	q := s.Questions[s.Index]
	s.TimerActive = false
	s.Feedback = &models.Feedback{
		Type:    models.FeedbackError,
		Message: "Time's up! The correct answer was: " + q.CorrectAnswer,
	}
	return s, pauseEffects(s.Round), nil
}

func (m *Machine) evaluateLevel(s State) State {
	s.TimerActive = false
	s.Answer = ""

	if s.CorrectAnswers >= m.bank.RequiredCorrect {
		s.RetryLevel = false
		if _, hasNext := s.Level.Next(); !hasNext {
			s.GameState = models.StateGameOver
			return s
		}
		s.GameState = models.StateLevelComplete
		s.Feedback = &models.Feedback{
			Type:    models.FeedbackSuccess,
			Message: fmt.Sprintf("Congratulations! You've completed the %s level!", s.Level),
		}
		return s
	}

	s.GameState = models.StateGameOver
	s.RetryLevel = true
	s.Feedback = &models.Feedback{
		Type:    models.FeedbackError,
		Message: fmt.Sprintf("You need at least %d correct answers to advance. Try again!", m.bank.RequiredCorrect),
	}
	return s
}

// beginLevel enters playing at the first question of a freshly shuffled level
func (m *Machine) beginLevel(s State, level models.Level, score, previousScore int) (State, []Effect, error) {
	s.GameState = models.StatePlaying
	s.Level = level
	s.Questions = m.shuffle(m.bank.Questions(level))
	s.Index = 0
	s.Score = score
	s.PreviousScore = previousScore
	s.CorrectAnswers = 0
	s.Feedback = nil
	s.Answer = ""
	s.RetryLevel = false

	next, effects := presentQuestion(s)
	return next, effects, nil
}

func presentQuestion(s State) (State, []Effect) {
	s.Round++
	s.Timer = QuestionTime
	s.TimerActive = true
	return s, []Effect{{Kind: EffectStartCountdown, Round: s.Round}}
}

func pauseEffects(round int) []Effect {
	return []Effect{
		{Kind: EffectStopCountdown},
		{Kind: EffectSchedule, Delay: FeedbackDelay, Event: Event{Kind: EventAdvance, Round: round}},
	}
}

// answerMatches lower-cases both sides; only the player's answer is trimmed
func answerMatches(answer, correct string) bool {
	return strings.ToLower(strings.TrimSpace(answer)) == strings.ToLower(correct)
}
