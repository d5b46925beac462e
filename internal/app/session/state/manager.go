package state

import (
	"sync"
	"time"
)

// Manager manages session lifecycle state with thread-safe access.
type Manager struct {
	mu sync.RWMutex

	sessionID string
	phase     Phase
	startedAt time.Time
	stoppedAt time.Time
}

// New creates a new state manager.
func New(sessionID string) *Manager {
	return &Manager{
		sessionID: sessionID,
		phase:     PhaseCreated,
	}
}

// GetSessionID returns the session ID.
func (m *Manager) GetSessionID() string {
	return m.sessionID
}

// GetPhase returns the current session phase.
func (m *Manager) GetPhase() Phase {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.phase
}

// IsRunning returns true while the session accepts commands.
func (m *Manager) IsRunning() bool {
	return m.GetPhase() == PhaseRunning
}

// Start moves a created session to running. It reports false if the session
// was already started or stopped.
func (m *Manager) Start(now time.Time) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.phase != PhaseCreated {
		return false
	}
	m.phase = PhaseRunning
	m.startedAt = now
	return true
}

// Stop moves the session to stopped. It reports the phase the session was in.
func (m *Manager) Stop(now time.Time) Phase {
	m.mu.Lock()
	defer m.mu.Unlock()
	prev := m.phase
	if prev != PhaseStopped {
		m.phase = PhaseStopped
		m.stoppedAt = now
	}
	return prev
}

// GetTimes returns the start and stop times. Zero values mean not yet.
func (m *Manager) GetTimes() (startedAt, stoppedAt time.Time) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.startedAt, m.stoppedAt
}

// Uptime returns how long the session has been running at now.
func (m *Manager) Uptime(now time.Time) time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	switch {
	case m.startedAt.IsZero():
		return 0
	case !m.stoppedAt.IsZero():
		return m.stoppedAt.Sub(m.startedAt)
	default:
		return now.Sub(m.startedAt)
	}
}
