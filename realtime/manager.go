// Package realtime fans mutation events out to connected clients. Room =
// user id; a user may hold several sessions at once. Delivery is
// best-effort at-most-once with no ordering or backlog: clients treat
// events as hints and reconcile by refetching.
package realtime

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"pixels/middleware"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Event types emitted by the mutation handlers.
const (
	EventNewMedia       = "newMedia"
	EventLikeUpdate     = "likeUpdate"
	EventUnlikeUpdate   = "unlikeUpdate"
	EventDislikeUpdate  = "dislikeUpdate"
	EventUndislike      = "undislikeUpdate"
	EventCommentUpdate  = "commentUpdate"
	EventCommentDeleted = "commentDeleted"
	EventMediaDeleted   = "mediaDeleted"
	EventFollowUpdate   = "followUpdate"
	EventUnfollowUpdate = "unfollowUpdate"
	EventAdUpdate       = "adUpdate"
	EventAdDeleted      = "adDeleted"
	EventAdStatsUpdate  = "adStatsUpdate"
)

type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type directMessage struct {
	userIDs []string
	data    []byte
}

type Manager struct {
	rooms      map[string]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	direct     chan directMessage
	stop       chan struct{}
	mu         sync.RWMutex
	log        *zap.SugaredLogger
}

type Client struct {
	conn    *websocket.Conn
	userID  string
	send    chan []byte
	manager *Manager
}

func NewManager(log *zap.SugaredLogger) *Manager {
	return &Manager{
		rooms:      make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte),
		direct:     make(chan directMessage, 64),
		stop:       make(chan struct{}),
		log:        log,
	}
}

// Start runs the fan-out loop. Room mutation happens only here, so the
// registry needs no locking beyond the read path.
func (m *Manager) Start() {
	for {
		select {
		case client := <-m.register:
			m.mu.Lock()
			if m.rooms[client.userID] == nil {
				m.rooms[client.userID] = make(map[*Client]bool)
			}
			m.rooms[client.userID][client] = true
			m.mu.Unlock()
			m.log.Debugw("client registered", "userId", client.userID)

		case client := <-m.unregister:
			m.mu.Lock()
			if sessions, ok := m.rooms[client.userID]; ok {
				if _, ok := sessions[client]; ok {
					delete(sessions, client)
					close(client.send)
					if len(sessions) == 0 {
						delete(m.rooms, client.userID)
					}
				}
			}
			m.mu.Unlock()
			m.log.Debugw("client unregistered", "userId", client.userID)

		case message := <-m.broadcast:
			m.mu.RLock()
			for _, sessions := range m.rooms {
				for client := range sessions {
					client.deliver(message)
				}
			}
			m.mu.RUnlock()

		case msg := <-m.direct:
			m.mu.RLock()
			for _, userID := range msg.userIDs {
				for client := range m.rooms[userID] {
					client.deliver(msg.data)
				}
			}
			m.mu.RUnlock()

		case <-m.stop:
			return
		}
	}
}

func (m *Manager) Stop() {
	close(m.stop)
}

// addClient hands a session to the run loop. Returns false when the
// manager has stopped, so a handshake racing shutdown does not block.
func (m *Manager) addClient(c *Client) bool {
	select {
	case m.register <- c:
		return true
	case <-m.stop:
		return false
	}
}

// deliver drops the message when the session's buffer is full; a client
// that cannot keep up gets disconnected instead of applying backpressure.
func (c *Client) deliver(message []byte) {
	select {
	case c.send <- message:
	default:
		if c.conn != nil {
			c.conn.Close()
		}
	}
}

// EmitToUsers sends a typed event to every session of the given users.
func (m *Manager) EmitToUsers(userIDs []string, eventType string, payload interface{}) {
	if len(userIDs) == 0 {
		return
	}
	data, err := json.Marshal(Event{Type: eventType, Payload: payload})
	if err != nil {
		m.log.Errorw("event marshal failed", "type", eventType, "error", err)
		return
	}
	select {
	case m.direct <- directMessage{userIDs: userIDs, data: data}:
	case <-m.stop:
	}
}

// Broadcast sends a typed event to every connected session.
func (m *Manager) Broadcast(eventType string, payload interface{}) {
	data, err := json.Marshal(Event{Type: eventType, Payload: payload})
	if err != nil {
		m.log.Errorw("event marshal failed", "type", eventType, "error", err)
		return
	}
	select {
	case m.broadcast <- data:
	case <-m.stop:
	}
}

// ConnectedUsers reports how many rooms currently have sessions.
func (m *Manager) ConnectedUsers() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rooms)
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Handler upgrades the connection after validating the JWT from the
// handshake ("token" query param or Authorization header).
func Handler(m *Manager, auth *middleware.Auth) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("token")
		if token == "" {
			token = r.Header.Get("Authorization")
		}
		if token == "" {
			http.Error(w, "Token required", http.StatusUnauthorized)
			return
		}

		userID, err := auth.Parse(token)
		if err != nil {
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			m.log.Warnw("websocket upgrade failed", "error", err)
			return
		}

		client := &Client{
			conn:    conn,
			userID:  userID,
			send:    make(chan []byte, 256),
			manager: m,
		}

		if !m.addClient(client) {
			conn.Close()
			return
		}

		welcome, _ := json.Marshal(Event{
			Type: "connected",
			Payload: map[string]interface{}{
				"userId": userID,
				"time":   time.Now().Unix(),
			},
		})
		client.send <- welcome

		go client.writePump()
		go client.readPump()
	}
}

func (c *Client) readPump() {
	defer func() {
		c.manager.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.manager.log.Debugw("websocket read error", "userId", c.userID, "error", err)
			}
			break
		}

		var data map[string]interface{}
		if err := json.Unmarshal(message, &data); err != nil {
			continue
		}

		if data["type"] == "ping" {
			pong, _ := json.Marshal(Event{
				Type:    "pong",
				Payload: map[string]interface{}{"time": time.Now().Unix()},
			})
			c.deliver(pong)
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
