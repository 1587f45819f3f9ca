package dap

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/varscope/varscope/internal/errors"
	"github.com/varscope/varscope/pkg/types"
)

func marshalArgs(args map[string]interface{}) (json.RawMessage, error) {
	data, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request args: %w", err)
	}
	return data, nil
}

// SessionManager tracks active inspection sessions
type SessionManager struct {
	sessions map[string]*Session
	mu       sync.RWMutex

	maxSessions    int
	requestTimeout time.Duration
}

// NewSessionManager creates a new session manager
func NewSessionManager(maxSessions int, requestTimeout time.Duration) *SessionManager {
	return &SessionManager{
		sessions:       make(map[string]*Session),
		maxSessions:    maxSessions,
		requestTimeout: requestTimeout,
	}
}

// Connect dials a DAP adapter and registers a new session for it. The
// attach handshake is the caller's responsibility.
func (sm *SessionManager) Connect(address string) (*Session, error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if len(sm.sessions) >= sm.maxSessions {
		return nil, errors.SessionLimitReached(sm.maxSessions)
	}

	transport, err := NewTCPTransport(address)
	if err != nil {
		return nil, errors.AdapterConnectFailed(address, err)
	}

	session := NewSession(address, transport, sm.requestTimeout)
	sm.sessions[session.ID] = session
	return session, nil
}

// GetSession retrieves a session by ID
func (sm *SessionManager) GetSession(id string) (*Session, error) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	session, ok := sm.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session not found: %s", id)
	}

	return session, nil
}

// ListSessions returns info for all active sessions
func (sm *SessionManager) ListSessions() []types.SessionInfo {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	infos := make([]types.SessionInfo, 0, len(sm.sessions))
	for _, session := range sm.sessions {
		infos = append(infos, session.Info())
	}
	return infos
}

// TerminateSession disconnects a session and releases its resources
func (sm *SessionManager) TerminateSession(id string) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	session, ok := sm.sessions[id]
	if !ok {
		return fmt.Errorf("session not found: %s", id)
	}

	if err := session.Disconnect(); err != nil {
		log.Printf("Warning: failed to disconnect session %s: %v (continuing cleanup)", id, err)
	}
	if err := session.Close(); err != nil {
		log.Printf("Warning: failed to close session %s: %v (continuing cleanup)", id, err)
	}

	delete(sm.sessions, id)
	return nil
}

// Close shuts down all sessions
func (sm *SessionManager) Close() {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	for id, session := range sm.sessions {
		if err := session.Close(); err != nil {
			log.Printf("Warning: failed to close session %s during shutdown: %v", id, err)
		}
		delete(sm.sessions, id)
	}
}
