package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/bft-labs/pollship/pkg/log"
)

// Common lifecycle errors.
var (
	ErrNotRunning      = errors.New("not running")
	ErrAlreadyRunning  = errors.New("already running")
	ErrShutdownTimeout = errors.New("shutdown timeout")
)

// Manager guards a component's state transitions and tracks its
// background workers.
type Manager struct {
	mu     sync.RWMutex
	state  State
	wg     sync.WaitGroup
	logger log.Logger
}

// NewManager creates a manager in StateStopped.
func NewManager(logger log.Logger) *Manager {
	return &Manager{
		state:  StateStopped,
		logger: log.OrNoop(logger),
	}
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// TransitionTo moves to newState. An invalid transition returns
// ErrAlreadyRunning while the component is active and ErrNotRunning
// otherwise.
func (m *Manager) TransitionTo(newState State, reason string) error {
	m.mu.Lock()
	oldState := m.state
	if !canTransition(oldState, newState) {
		m.mu.Unlock()
		if oldState.active() {
			return fmt.Errorf("%s -> %s: %w", oldState, newState, ErrAlreadyRunning)
		}
		return fmt.Errorf("%s -> %s: %w", oldState, newState, ErrNotRunning)
	}
	m.state = newState
	m.mu.Unlock()

	m.logger.Debug("state transition",
		log.String("from", oldState.String()),
		log.String("to", newState.String()),
		log.String("reason", reason),
	)
	return nil
}

// Running reports whether the component is in StateRunning.
func (m *Manager) Running() bool {
	return m.State() == StateRunning
}

// AddWorker increments the worker count.
func (m *Manager) AddWorker() {
	m.wg.Add(1)
}

// WorkerDone decrements the worker count.
func (m *Manager) WorkerDone() {
	m.wg.Done()
}

// Wait blocks until every worker is done or ctx ends, in which case it
// returns ErrShutdownTimeout.
func (m *Manager) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		m.logger.Warn("workers still running at shutdown", log.Err(ctx.Err()))
		return fmt.Errorf("%w: %v", ErrShutdownTimeout, ctx.Err())
	}
}
