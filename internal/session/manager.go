package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session represents one active WebSocket client connection
type Session struct {
	ID           string
	RemoteAddr   string
	StartTime    time.Time
	LastActivity time.Time

	// Message counters
	messagesReceived uint64
	audioMessages    uint64
	pingMessages     uint64
	testMessages     uint64
	errorResponses   uint64

	// cancel aborts the connection's read loop when the session is
	// removed by the cleanup routine or manager shutdown
	cancel context.CancelFunc

	mu sync.RWMutex
}

// SessionInfo represents session information for monitoring and APIs
type SessionInfo struct {
	ID               string        `json:"id"`
	RemoteAddr       string        `json:"remote_addr"`
	StartTime        time.Time     `json:"start_time"`
	LastActivity     time.Time     `json:"last_activity"`
	Duration         time.Duration `json:"duration"`
	MessagesReceived uint64        `json:"messages_received"`
	AudioMessages    uint64        `json:"audio_messages"`
	PingMessages     uint64        `json:"ping_messages"`
	TestMessages     uint64        `json:"test_messages"`
	ErrorResponses   uint64        `json:"error_responses"`
}

// Manager manages all active WebSocket sessions
type Manager struct {
	sessions map[string]*Session
	mu       sync.RWMutex
	logger   *slog.Logger
	timeout  time.Duration
	maxConns int

	// Lifetime statistics
	totalCreated uint64
	totalRemoved uint64

	// Cleanup management
	ctx     context.Context
	cancel  context.CancelFunc
	cleanup chan struct{}
}

// ManagerStats represents aggregate session statistics
type ManagerStats struct {
	ActiveSessions uint64 `json:"active_sessions"`
	TotalCreated   uint64 `json:"total_created"`
	TotalRemoved   uint64 `json:"total_removed"`
}

// NewManager creates a new session manager and starts its cleanup routine
func NewManager(logger *slog.Logger, timeout time.Duration, maxConns int) *Manager {
	ctx, cancel := context.WithCancel(context.Background())

	mgr := &Manager{
		sessions: make(map[string]*Session),
		logger:   logger,
		timeout:  timeout,
		maxConns: maxConns,
		ctx:      ctx,
		cancel:   cancel,
		cleanup:  make(chan struct{}),
	}

	go mgr.startCleanupRoutine()

	return mgr
}

// CreateSession registers a new session for a client connection. The returned
// context is derived from connCtx and is cancelled when the session is
// removed, which ends the connection's read loop.
func (m *Manager) CreateSession(connCtx context.Context, remoteAddr string) (*Session, context.Context, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.sessions) >= m.maxConns {
		return nil, nil, fmt.Errorf("connection limit reached (%d active)", len(m.sessions))
	}

	sessionCtx, cancel := context.WithCancel(connCtx)

	now := time.Now()
	session := &Session{
		ID:           uuid.NewString(),
		RemoteAddr:   remoteAddr,
		StartTime:    now,
		LastActivity: now,
		cancel:       cancel,
	}

	m.sessions[session.ID] = session
	m.totalCreated++

	m.logger.Info("Created new session",
		slog.String("session_id", session.ID),
		slog.String("remote_addr", remoteAddr),
		slog.Int("active_sessions", len(m.sessions)),
	)

	return session, sessionCtx, nil
}

// GetSession retrieves an existing session
func (m *Manager) GetSession(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	session, exists := m.sessions[id]
	return session, exists
}

// GetActiveSessionCount returns the number of currently active sessions
func (m *Manager) GetActiveSessionCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// GetAllSessions returns a snapshot of all active sessions (for monitoring)
func (m *Manager) GetAllSessions() []*Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sessions := make([]*Session, 0, len(m.sessions))
	for _, session := range m.sessions {
		sessions = append(sessions, session)
	}

	return sessions
}

// GetStats returns aggregate session statistics
func (m *Manager) GetStats() ManagerStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return ManagerStats{
		ActiveSessions: uint64(len(m.sessions)),
		TotalCreated:   m.totalCreated,
		TotalRemoved:   m.totalRemoved,
	}
}

// RemoveSession removes a session and cancels its connection context
func (m *Manager) RemoveSession(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, exists := m.sessions[id]
	if !exists {
		return false
	}

	session.cancel()
	delete(m.sessions, id)
	m.totalRemoved++

	info := session.GetSessionInfo()
	m.logger.Info("Session removed",
		slog.String("session_id", id),
		slog.String("remote_addr", info.RemoteAddr),
		slog.Duration("duration", info.Duration),
		slog.Uint64("messages_received", info.MessagesReceived),
		slog.Uint64("audio_messages", info.AudioMessages),
		slog.Uint64("error_responses", info.ErrorResponses),
	)

	return true
}

// Stop gracefully stops the session manager and cancels all sessions
func (m *Manager) Stop() {
	m.logger.Info("Stopping session manager...")

	m.mu.Lock()
	for id, session := range m.sessions {
		session.cancel()
		delete(m.sessions, id)
		m.totalRemoved++
	}
	m.mu.Unlock()

	// Cancel context to stop cleanup routine
	m.cancel()

	// Wait for cleanup routine to finish
	<-m.cleanup

	m.logger.Info("Session manager stopped",
		slog.Uint64("total_sessions_served", m.totalCreated),
	)
}

// startCleanupRoutine runs in a separate goroutine to clean up idle sessions
func (m *Manager) startCleanupRoutine() {
	defer close(m.cleanup)

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	m.logger.Info("Session cleanup routine started",
		slog.Duration("timeout", m.timeout),
		slog.Duration("check_interval", 30*time.Second),
	)

	for {
		select {
		case <-m.ctx.Done():
			m.logger.Info("Session cleanup routine stopping")
			return

		case <-ticker.C:
			m.cleanupIdleSessions()
		}
	}
}

// cleanupIdleSessions removes sessions that have been inactive for too long
func (m *Manager) cleanupIdleSessions() {
	now := time.Now()
	idleSessions := make([]string, 0)

	m.mu.RLock()
	for id, session := range m.sessions {
		session.mu.RLock()
		lastActivity := session.LastActivity
		session.mu.RUnlock()

		if now.Sub(lastActivity) > m.timeout {
			idleSessions = append(idleSessions, id)
		}
	}
	m.mu.RUnlock()

	if len(idleSessions) > 0 {
		m.logger.Info("Cleaning up idle sessions",
			slog.Int("idle_count", len(idleSessions)),
		)

		for _, id := range idleSessions {
			m.RemoveSession(id)
		}
	}
}

// UpdateActivity updates the last activity time for a session
func (s *Session) UpdateActivity() {
	s.mu.Lock()
	s.LastActivity = time.Now()
	s.mu.Unlock()
}

// RecordMessage increments the counter for the given message type and
// refreshes the activity timestamp
func (s *Session) RecordMessage(messageType string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.messagesReceived++
	s.LastActivity = time.Now()

	switch messageType {
	case "audio":
		s.audioMessages++
	case "ping":
		s.pingMessages++
	case "test":
		s.testMessages++
	}
}

// RecordErrorResponse increments the error response counter
func (s *Session) RecordErrorResponse() {
	s.mu.Lock()
	s.errorResponses++
	s.mu.Unlock()
}

// GetSessionInfo returns a snapshot of session information for monitoring
func (s *Session) GetSessionInfo() SessionInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return SessionInfo{
		ID:               s.ID,
		RemoteAddr:       s.RemoteAddr,
		StartTime:        s.StartTime,
		LastActivity:     s.LastActivity,
		Duration:         time.Since(s.StartTime),
		MessagesReceived: s.messagesReceived,
		AudioMessages:    s.audioMessages,
		PingMessages:     s.pingMessages,
		TestMessages:     s.testMessages,
		ErrorResponses:   s.errorResponses,
	}
}
