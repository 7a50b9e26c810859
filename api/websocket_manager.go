package api

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"brandkit/model"
)

// writeWait bounds each write so a stalled client cannot hold up broadcasts.
const writeWait = 5 * time.Second

// connWithMutex wraps a WebSocket connection with its own mutex for thread-safe writes.
type connWithMutex struct {
	id   string
	conn *websocket.Conn
	mu   sync.Mutex
}

// write must be called with mu held.
func (c *connWithMutex) write(message any) error {
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(message)
}

// WSConnectionManager tracks browser connections. It is also the
// presentation surface for the theme controller: each class flag change is
// pushed to every client, which applies it to its document root.
type WSConnectionManager struct {
	mu          sync.RWMutex
	connections map[*websocket.Conn]*connWithMutex
}

// NewWSConnectionManager creates a new WebSocket connection manager.
func NewWSConnectionManager() *WSConnectionManager {
	return &WSConnectionManager{
		connections: make(map[*websocket.Conn]*connWithMutex),
	}
}

// Add registers conn, then sends it the messages returned by greeting. It
// returns the id assigned to conn.
//
// greeting runs while no broadcast can reach conn, and every later broadcast
// is written after the greeting. A client therefore never sees a snapshot
// older than a change it has already received.
func (m *WSConnectionManager) Add(conn *websocket.Conn, greeting func() []any) (string, error) {
	cwm := &connWithMutex{
		id:   uuid.NewString(),
		conn: conn,
	}

	cwm.mu.Lock()
	defer cwm.mu.Unlock()

	m.mu.Lock()
	m.connections[conn] = cwm
	var messages []any
	if greeting != nil {
		messages = greeting()
	}
	m.mu.Unlock()

	for _, msg := range messages {
		if err := cwm.write(msg); err != nil {
			m.Remove(conn)
			return cwm.id, err
		}
	}
	return cwm.id, nil
}

// Remove removes a connection from the manager.
func (m *WSConnectionManager) Remove(conn *websocket.Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.connections, conn)
}

// Len returns the number of tracked connections.
func (m *WSConnectionManager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.connections)
}

// SetClass broadcasts a class flag change.
func (m *WSConnectionManager) SetClass(name string, on bool) {
	m.Broadcast(model.ClassEvent{Type: model.EventClass, Name: name, On: on})
}

// Broadcast sends a message to all connected clients.
func (m *WSConnectionManager) Broadcast(message any) {
	m.mu.RLock()
	conns := make([]*connWithMutex, 0, len(m.connections))
	for _, cwm := range m.connections {
		conns = append(conns, cwm)
	}
	m.mu.RUnlock()

	for _, cwm := range conns {
		cwm.mu.Lock()
		err := cwm.write(message)
		cwm.mu.Unlock()

		if err != nil {
			log.Debug().Err(err).Str("client", cwm.id).Msg("dropping websocket client")
			m.Remove(cwm.conn)
		}
	}
}

// WriteJSON safely writes JSON to a specific connection using its mutex.
func (m *WSConnectionManager) WriteJSON(conn *websocket.Conn, message any) error {
	m.mu.RLock()
	cwm, exists := m.connections[conn]
	m.mu.RUnlock()

	if !exists {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		return conn.WriteJSON(message)
	}

	cwm.mu.Lock()
	defer cwm.mu.Unlock()
	return cwm.write(message)
}
