package quiz

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/rkrmr33/quizlevels/internal/bank"
	"github.com/rkrmr33/quizlevels/internal/models"
)

// ErrSessionNotFound is returned for an unknown session ID
var ErrSessionNotFound = errors.New("quiz session not found")

// Manager handles quiz sessions, one per player
type Manager struct {
	machine  *Machine
	clock    clockwork.Clock
	sessions map[string]*Controller
	mu       sync.RWMutex
}

// NewManager creates a new quiz manager over a question bank.
// A nil clock uses real time.
func NewManager(b *bank.Bank, clock clockwork.Clock) *Manager {
	return newManager(NewMachine(b, Shuffle), clock)
}

func newManager(machine *Machine, clock clockwork.Clock) *Manager {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Manager{
		machine:  machine,
		clock:    clock,
		sessions: make(map[string]*Controller),
	}
}

// CreateSession mounts a new session in the start state and returns its ID
func (m *Manager) CreateSession() (string, error) {
	id := uuid.NewString()

	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessions[id] = NewController(id, m.machine, m.clock)
	return id, nil
}

// GetSession retrieves a quiz session by ID
func (m *Manager) GetSession(id string) (*Controller, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	session, exists := m.sessions[id]
	if !exists {
		return nil, ErrSessionNotFound
	}

	return session, nil
}

// Dispatch forwards an event to a session and returns the resulting snapshot
func (m *Manager) Dispatch(id string, ev Event) (models.Snapshot, error) {
	session, err := m.GetSession(id)
	if err != nil {
		return models.Snapshot{}, err
	}
	if err := session.Dispatch(ev); err != nil {
		return models.Snapshot{}, err
	}
	return session.Snapshot(), nil
}

// DeleteSession unmounts a session, cancelling its timers
func (m *Manager) DeleteSession(id string) error {
	m.mu.Lock()
	session, exists := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if !exists {
		return ErrSessionNotFound
	}
	session.Close()
	return nil
}

// Count returns the number of live sessions
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// CleanupIdleSessions removes sessions with no player input for longer than ttl
func (m *Manager) CleanupIdleSessions(ttl time.Duration) int {
	cutoff := m.clock.Now().Add(-ttl)

	m.mu.Lock()
	var idle []*Controller
	for id, session := range m.sessions {
		if session.LastActivity().Before(cutoff) {
			idle = append(idle, session)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, session := range idle {
		session.Close()
		slog.Info("Removed idle quiz session", "session_id", session.ID())
	}
	return len(idle)
}

// CloseAll unmounts every session
func (m *Manager) CloseAll() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Controller)
	m.mu.Unlock()

	for _, session := range sessions {
		session.Close()
	}
}
