package session

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"sync"
	"time"

	"github.com/bft-labs/pollship/pkg/payload"
)

// idBytes is the entropy of a session id.
const idBytes = 15

// Registry tracks live sessions by id.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	capacity int
}

// NewRegistry creates a registry whose sessions buffer at most capacity
// packets (unbounded when <= 0).
func NewRegistry(capacity int) *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		capacity: capacity,
	}
}

// Create registers a new session with a random id.
func (r *Registry) Create(protocol payload.Protocol, supportsBinary bool) (*Session, error) {
	id, err := newID()
	if err != nil {
		return nil, err
	}
	s := newSession(id, protocol, supportsBinary, r.capacity)

	r.mu.Lock()
	r.sessions[id] = s
	r.mu.Unlock()
	return s, nil
}

// Get returns the session with the given id.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSession, id)
	}
	return s, nil
}

// Remove unregisters a session and reports whether it was registered.
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; !ok {
		return false
	}
	delete(r.sessions, id)
	return true
}

// Len returns the number of registered sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Expired returns the sessions idle for longer than timeout at now.
func (r *Registry) Expired(now time.Time, timeout time.Duration) []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var expired []*Session
	for _, s := range r.sessions {
		if s.Idle(now) > timeout {
			expired = append(expired, s)
		}
	}
	return expired
}

// CloseAll queues a Close packet on every session.
func (r *Registry) CloseAll() {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.sessions {
		_ = s.Close()
	}
}

func newID() (string, error) {
	b := make([]byte, idBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate session id: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
