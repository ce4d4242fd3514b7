package chat

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/coder/websocket"
)

const socketWriteTimeout = 5 * time.Second

// SessionManager tracks the active WebSocket for each visitor tab.
type SessionManager struct {
	mu     sync.RWMutex
	active map[string]map[string]*websocket.Conn
}

// NewSessionManager creates a new session manager.
func NewSessionManager() *SessionManager {
	return &SessionManager{
		active: make(map[string]map[string]*websocket.Conn),
	}
}

// GetActive returns the active connection for a visitor and session.
func (m *SessionManager) GetActive(visitorID, sessionID string) *websocket.Conn {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if sessions, ok := m.active[visitorID]; ok {
		return sessions[sessionID]
	}
	return nil
}

// Register adds a connection for a visitor/session, closing any older one.
func (m *SessionManager) Register(visitorID, sessionID string, conn *websocket.Conn) {
	m.mu.Lock()
	if _, exists := m.active[visitorID]; !exists {
		m.active[visitorID] = make(map[string]*websocket.Conn)
	}
	existing := m.active[visitorID][sessionID]
	m.active[visitorID][sessionID] = conn
	m.mu.Unlock()

	// Close waits for the peer's close frame, so it runs outside the lock.
	if existing != nil && existing != conn {
		_ = existing.Close(websocket.StatusNormalClosure, "session replaced")
	}
	slog.Info("Chat socket registered", "visitor_id", visitorID, "session_id", sessionID)
}

// Unregister removes conn if it is still the active one for the visitor/session.
func (m *SessionManager) Unregister(visitorID, sessionID string, conn *websocket.Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if sessions, ok := m.active[visitorID]; ok {
		if current, exists := sessions[sessionID]; exists && current == conn {
			delete(sessions, sessionID)
			if len(sessions) == 0 {
				delete(m.active, visitorID)
			}
			slog.Info("Chat socket unregistered", "visitor_id", visitorID, "session_id", sessionID)
		}
	}
}

// Count returns the number of open sockets.
func (m *SessionManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, sessions := range m.active {
		n += len(sessions)
	}
	return n
}

// Push sends the view to the open socket of the conversation, if any.
func (m *SessionManager) Push(visitorID, sessionID string, view View) {
	conn := m.GetActive(visitorID, sessionID)
	if conn == nil {
		return
	}
	if err := writeFrame(conn, serverFrame{Type: frameState, State: &view}); err != nil {
		slog.Debug("Failed to push chat state", "visitor_id", visitorID, "session_id", sessionID, "error", err)
	}
}

// CloseAll closes every open socket, used on shutdown.
func (m *SessionManager) CloseAll() {
	m.mu.Lock()
	var conns []*websocket.Conn
	for visitorID, sessions := range m.active {
		for _, conn := range sessions {
			conns = append(conns, conn)
		}
		delete(m.active, visitorID)
	}
	m.mu.Unlock()

	for _, conn := range conns {
		_ = conn.Close(websocket.StatusGoingAway, "server shutting down")
	}
}

func writeFrame(conn *websocket.Conn, frame serverFrame) error {
	data, err := json.Marshal(frame)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), socketWriteTimeout)
	defer cancel()
	return conn.Write(ctx, websocket.MessageText, data)
}
