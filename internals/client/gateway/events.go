package gateway

import (
	"context"
	"log"
	"net/url"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

type pushMessage struct {
	Type   string    `json:"type"`
	UserID uuid.UUID `json:"user_id"`
}

// startListener opens the push channel for s, replacing any previous one.
func (c *Client) startListener(s *Session) {
	if c.cfg.WSURL == "" || s == nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.mu.Lock()
	prev := c.stopListen
	c.stopListen = cancel
	c.mu.Unlock()
	if prev != nil {
		prev()
	}
	go c.listen(ctx, s.AccessToken, s.User.ID)
}

// listen forwards server-side sign-outs and profile changes. A dropped
// connection is not redialled; the next sign-in opens a new one.
func (c *Client) listen(ctx context.Context, token string, userID uuid.UUID) {
	u := c.cfg.WSURL + "/ws/auth-events?access_token=" + url.QueryEscape(token)
	dialer := websocket.Dialer{HandshakeTimeout: c.cfg.Timeout}
	conn, _, err := dialer.DialContext(ctx, u, nil)
	if err != nil {
		if ctx.Err() == nil {
			log.Printf("[gateway] auth event channel unavailable: %v", err)
		}
		return
	}
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
			_ = conn.Close()
		}
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				log.Printf("[gateway] auth event channel closed: %v", err)
			}
			return
		}
		var ev pushMessage
		if err := sonic.Unmarshal(msg, &ev); err != nil || ev.UserID != userID {
			continue
		}
		switch ev.Type {
		case EventSignedOut:
			c.expire("signed out by the server")
		case EventUserUpdated:
			if s := c.CurrentSession(); s != nil {
				c.emit(EventUserUpdated, s)
			}
		}
	}
}
