// internal/api/websocket.go
package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/talkmate/talkmate/internal/services"
	"github.com/talkmate/talkmate/internal/utils"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Production deployments should restrict origins
		return true
	},
}

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = 45 * time.Second
)

// WSClient is one WebSocket subscriber of a chat session.
type WSClient struct {
	conn      *websocket.Conn
	sessionID string
	send      chan []byte
	closed    int32
	lastPong  time.Time
	createdAt time.Time
}

// Close marks the client as closed and closes the connection.
func (client *WSClient) Close() {
	if atomic.CompareAndSwapInt32(&client.closed, 0, 1) {
		// The send channel stays open; pending payloads are dropped
		if client.conn != nil {
			client.conn.Close()
		}
	}
}

// IsClosed reports whether the client has been closed.
func (client *WSClient) IsClosed() bool {
	return atomic.LoadInt32(&client.closed) == 1
}

// SessionHub fans chat events out to the WebSocket subscribers of each
// session. It implements services.EventPublisher.
type SessionHub struct {
	clients    map[string]map[*WSClient]struct{} // sessionID -> subscribers
	register   chan *WSClient
	unregister chan *WSClient
	events     chan services.ChatEvent
	shutdown   chan struct{}
	mu         sync.RWMutex
	logger     *utils.Logger
}

// NewSessionHub creates the hub and starts its dispatch loop.
func NewSessionHub() *SessionHub {
	hub := &SessionHub{
		clients:    make(map[string]map[*WSClient]struct{}),
		register:   make(chan *WSClient, 64),
		unregister: make(chan *WSClient, 64),
		events:     make(chan services.ChatEvent, 256),
		shutdown:   make(chan struct{}),
		logger:     utils.GetLogger().WithComponent("ws"),
	}
	go hub.run()
	return hub
}

// Publish queues an event for delivery to the session's subscribers.
// Delivery is best effort: a full queue drops the event rather than
// blocking the chat engine.
func (hub *SessionHub) Publish(event services.ChatEvent) {
	select {
	case hub.events <- event:
	default:
		hub.logger.Warn("event queue full, dropping event", map[string]interface{}{
			"session": event.SessionID,
			"type":    event.Type,
		})
	}
}

// Shutdown closes all subscriber connections and stops the hub.
func (hub *SessionHub) Shutdown() {
	close(hub.shutdown)
}

func (hub *SessionHub) run() {
	for {
		select {
		case client := <-hub.register:
			hub.addClient(client)

		case client := <-hub.unregister:
			hub.removeClient(client)

		case event := <-hub.events:
			hub.deliver(event)

		case <-hub.shutdown:
			hub.closeAll()
			return
		}
	}
}

func (hub *SessionHub) addClient(client *WSClient) {
	hub.mu.Lock()
	defer hub.mu.Unlock()

	if hub.clients[client.sessionID] == nil {
		hub.clients[client.sessionID] = make(map[*WSClient]struct{})
	}
	hub.clients[client.sessionID][client] = struct{}{}

	hub.logger.Debug("subscriber connected", map[string]interface{}{"session": client.sessionID})
}

func (hub *SessionHub) removeClient(client *WSClient) {
	hub.mu.Lock()
	defer hub.mu.Unlock()

	if subscribers, ok := hub.clients[client.sessionID]; ok {
		delete(subscribers, client)
		if len(subscribers) == 0 {
			delete(hub.clients, client.sessionID)
		}
	}

	if !client.IsClosed() {
		client.Close()
	}
}

func (hub *SessionHub) deliver(event services.ChatEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		hub.logger.Error("event marshal failed", map[string]interface{}{"error": err})
		return
	}

	hub.mu.RLock()
	subscribers := make([]*WSClient, 0, len(hub.clients[event.SessionID]))
	for client := range hub.clients[event.SessionID] {
		if !client.IsClosed() {
			subscribers = append(subscribers, client)
		}
	}
	hub.mu.RUnlock()

	for _, client := range subscribers {
		select {
		case client.send <- payload:
		default:
			// Slow consumer: drop the connection instead of blocking
			client.Close()
		}
	}
}

func (hub *SessionHub) closeAll() {
	hub.mu.Lock()
	defer hub.mu.Unlock()

	for _, subscribers := range hub.clients {
		for client := range subscribers {
			client.Close()
		}
	}
	hub.clients = make(map[string]map[*WSClient]struct{})
}

// Status reports subscriber counts per session.
func (hub *SessionHub) Status() map[string]interface{} {
	hub.mu.RLock()
	defer hub.mu.RUnlock()

	sessions := make(map[string]interface{})
	total := 0
	for sessionID, subscribers := range hub.clients {
		active := 0
		for client := range subscribers {
			if !client.IsClosed() {
				active++
			}
		}
		sessions[sessionID] = map[string]interface{}{"subscriber_count": active}
		total += active
	}

	return map[string]interface{}{
		"total_sessions":    len(hub.clients),
		"total_subscribers": total,
		"sessions":          sessions,
	}
}

// ServeSession upgrades the request and subscribes it to the session's
// event stream until either side disconnects.
func (hub *SessionHub) ServeSession(c *gin.Context, sessionID string) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		hub.logger.Warn("websocket upgrade failed", map[string]interface{}{"error": err})
		return
	}

	client := &WSClient{
		conn:      conn,
		sessionID: sessionID,
		send:      make(chan []byte, 64),
		lastPong:  time.Now(),
		createdAt: time.Now(),
	}

	select {
	case hub.register <- client:
	default:
		hub.logger.Warn("register queue full, rejecting subscriber", nil)
		conn.Close()
		return
	}

	go hub.writePump(client)
	hub.readPump(client)
}

// readPump consumes control frames and detects disconnects. Subscribers
// are read-only: inbound data frames are discarded.
func (hub *SessionHub) readPump(client *WSClient) {
	defer func() {
		select {
		case hub.unregister <- client:
		case <-time.After(time.Second):
			client.Close()
		}
	}()

	client.conn.SetReadLimit(512)
	client.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	client.conn.SetPongHandler(func(string) error {
		client.lastPong = time.Now()
		client.conn.SetReadDeadline(time.Now().Add(wsPongWait))
		return nil
	})

	for {
		if _, _, err := client.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				hub.logger.Debug("websocket read error", map[string]interface{}{"error": err})
			}
			return
		}
	}
}

// writePump pushes queued events and keepalive pings to the connection.
func (hub *SessionHub) writePump(client *WSClient) {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		client.Close()
	}()

	for {
		select {
		case payload, ok := <-client.send:
			client.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				client.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := client.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}

		case <-ticker.C:
			client.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
