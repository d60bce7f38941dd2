package authevents

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1024
	sendBuffer     = 16
)

// Hub fans auth events out to the websocket connections of one user.
// Register/unregister/broadcast are serialized through Run.
type Hub struct {
	mu      sync.RWMutex
	clients map[uuid.UUID]map[*Client]bool

	broadcast  chan Event
	Register   chan *Client
	unregister chan *Client
	done       chan struct{}
}

type Client struct {
	Conn   *websocket.Conn
	Send   chan []byte
	UserID uuid.UUID
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[uuid.UUID]map[*Client]bool),
		broadcast:  make(chan Event, 256),
		Register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

func NewClient(conn *websocket.Conn, userID uuid.UUID) *Client {
	return &Client{Conn: conn, Send: make(chan []byte, sendBuffer), UserID: userID}
}

func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			close(h.done)
			return
		case c := <-h.Register:
			h.mu.Lock()
			set, ok := h.clients[c.UserID]
			if !ok {
				set = make(map[*Client]bool)
				h.clients[c.UserID] = set
			}
			set[c] = true
			h.mu.Unlock()
			log.Printf("[WS] client registered user=%s conns=%d", c.UserID, len(set))
		case c := <-h.unregister:
			h.remove(c)
		case ev := <-h.broadcast:
			h.deliver(ev)
		}
	}
}

// Attach registers c unless the hub has stopped.
func (h *Hub) Attach(c *Client) bool {
	select {
	case h.Register <- c:
		return true
	case <-h.done:
		return false
	}
}

// Publish never blocks the caller; a full queue drops the event.
func (h *Hub) Publish(userID uuid.UUID, kind string) {
	ev := Event{Type: kind, UserID: userID, At: time.Now().UTC()}
	select {
	case h.broadcast <- ev:
	default:
		log.Printf("[WS] broadcast queue full, dropping %s for user=%s", kind, userID)
	}
}

func (h *Hub) ConnCount(userID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

func (h *Hub) deliver(ev Event) {
	msg, err := sonic.Marshal(ev)
	if err != nil {
		log.Printf("[WS] marshal event: %v", err)
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients[ev.UserID] {
		select {
		case c.Send <- msg:
		default:
			// slow consumer
			close(c.Send)
			delete(h.clients[ev.UserID], c)
		}
	}
	if len(h.clients[ev.UserID]) == 0 {
		delete(h.clients, ev.UserID)
	}
}

func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.clients[c.UserID]
	if !ok || !set[c] {
		return
	}
	delete(set, c)
	close(c.Send)
	if len(set) == 0 {
		delete(h.clients, c.UserID)
	}
	log.Printf("[WS] client unregistered user=%s conns=%d", c.UserID, len(set))
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for uid, set := range h.clients {
		for c := range set {
			close(c.Send)
		}
		delete(h.clients, uid)
	}
}

/* ==== Client pumps ==== */

// ReadPump only exists to notice disconnects.
func (c *Client) ReadPump(h *Hub) {
	defer func() {
		select {
		case h.unregister <- c:
		case <-h.done:
		}
		_ = c.Conn.Close()
	}()
	c.Conn.SetReadLimit(maxMessageSize)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		// inbound frames carry nothing; pongs keep the deadline moving
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[WS] read error user=%s: %v", c.UserID, err)
			}
			return
		}
	}
}

func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.Send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				log.Printf("[WS] write error user=%s: %v", c.UserID, err)
				return
			}
		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
