package gateway

import (
	"context"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
)

// Client talks to the gateway over HTTP and owns the current session.
// It pushes auth events to subscribers, refreshes the access token before it
// expires and listens on the websocket for server-side sign-outs.
type Client struct {
	cfg   Config
	store SessionStore

	mu           sync.RWMutex
	refreshMu    sync.Mutex
	session      *Session
	refreshTimer *time.Timer
	stopListen   context.CancelFunc

	subMu  sync.Mutex
	subs   map[int]chan AuthEvent
	nextID int
}

func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.RefreshMargin <= 0 {
		cfg.RefreshMargin = time.Minute
	}
	store := cfg.Store
	if store == nil {
		store = &MemoryStore{}
	}
	return &Client{cfg: cfg, store: store, subs: make(map[int]chan AuthEvent)}
}

/* ==========================
   Subscriptions
========================== */

// Subscribe returns a buffered event channel and its release func. The
// release func is safe to call more than once.
func (c *Client) Subscribe() (<-chan AuthEvent, func()) {
	ch := make(chan AuthEvent, 16)
	c.subMu.Lock()
	id := c.nextID
	c.nextID++
	c.subs[id] = ch
	c.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.subMu.Lock()
			delete(c.subs, id)
			c.subMu.Unlock()
			close(ch)
		})
	}
}

func (c *Client) emit(kind string, s *Session) {
	ev := AuthEvent{Kind: kind, At: time.Now()}
	if s != nil {
		cp := *s
		ev.Session = &cp
	}
	c.subMu.Lock()
	defer c.subMu.Unlock()
	for _, ch := range c.subs {
		select {
		case ch <- ev:
		default:
			log.Printf("[gateway] subscriber queue full, dropped %s", kind)
		}
	}
}

/* ==========================
   Session state
========================== */

// CurrentSession is a copy of the in-memory session, or nil.
func (c *Client) CurrentSession() *Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.session == nil {
		return nil
	}
	cp := *c.session
	return &cp
}

func (c *Client) accessToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.session == nil {
		return ""
	}
	return c.session.AccessToken
}

// setSession installs s, persists it and arms the refresh timer.
func (c *Client) setSession(s *Session) {
	c.mu.Lock()
	c.installLocked(s)
	c.mu.Unlock()
	c.persist(s)
}

// replaceSession installs s only while the session holding refreshToken is
// still current.
func (c *Client) replaceSession(refreshToken string, s *Session) bool {
	c.mu.Lock()
	if c.session == nil || c.session.RefreshToken != refreshToken {
		c.mu.Unlock()
		return false
	}
	c.installLocked(s)
	c.mu.Unlock()
	c.persist(s)
	return true
}

func (c *Client) installLocked(s *Session) {
	c.session = s
	if c.refreshTimer != nil {
		c.refreshTimer.Stop()
	}
	wait := time.Until(s.ExpiresAt) - c.cfg.RefreshMargin
	if wait < time.Second {
		wait = time.Second
	}
	c.refreshTimer = time.AfterFunc(wait, c.autoRefresh)
}

func (c *Client) persist(s *Session) {
	if err := c.store.Save(s); err != nil {
		log.Printf("[gateway] persist session: %v", err)
	}
}

// dropSession clears local state and reports whether a session existed.
func (c *Client) dropSession() bool {
	c.mu.Lock()
	had := c.session != nil
	c.session = nil
	if c.refreshTimer != nil {
		c.refreshTimer.Stop()
		c.refreshTimer = nil
	}
	stop := c.stopListen
	c.stopListen = nil
	c.mu.Unlock()

	if stop != nil {
		stop()
	}
	if err := c.store.Clear(); err != nil {
		log.Printf("[gateway] clear session: %v", err)
	}
	return had
}

// expire ends a session the server no longer honours.
func (c *Client) expire(reason string) {
	if c.dropSession() {
		log.Printf("[gateway] session ended: %s", reason)
		c.emit(EventSignedOut, nil)
	}
}

func (c *Client) autoRefresh() {
	ctx, cancel := context.WithTimeout(context.Background(), c.cfg.Timeout)
	defer cancel()
	if _, err := c.RefreshSession(ctx); err != nil {
		log.Printf("[gateway] auto refresh failed: %v", err)
	}
}

// Close stops timers and the push listener without touching the stored session.
func (c *Client) Close() {
	c.mu.Lock()
	if c.refreshTimer != nil {
		c.refreshTimer.Stop()
		c.refreshTimer = nil
	}
	stop := c.stopListen
	c.stopListen = nil
	c.mu.Unlock()
	if stop != nil {
		stop()
	}
}

/* ==========================
   Transport
========================== */

// timeoutFor bounds the request by both the client timeout and ctx.
func (c *Client) timeoutFor(ctx context.Context) time.Duration {
	d := c.cfg.Timeout
	if dl, ok := ctx.Deadline(); ok {
		if left := time.Until(dl); left < d {
			d = left
		}
	}
	return d
}

// do sends one JSON request and decodes the envelope's data into out.
// A 401 on an authenticated call triggers one refresh attempt; the call
// itself is not replayed.
func (c *Client) do(ctx context.Context, method, path string, body, out any, authed bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	token := ""
	if authed {
		token = c.accessToken()
		if token == "" {
			return ErrNoSession
		}
	}

	status, raw, err := c.send(ctx, method, path, body, token)
	if err != nil {
		return err
	}
	env, err := decodeEnvelope(status, raw)
	if err != nil {
		if authed && status == http.StatusUnauthorized {
			if _, rerr := c.RefreshSession(ctx); rerr != nil {
				log.Printf("[gateway] refresh after 401 failed: %v", rerr)
			}
		}
		return err
	}
	if out != nil && len(env.Data) > 0 && string(env.Data) != "null" {
		return sonic.Unmarshal(env.Data, out)
	}
	return nil
}

func (c *Client) send(ctx context.Context, method, path string, body any, token string) (int, []byte, error) {
	a := fiber.AcquireAgent()
	req := a.Request()
	req.Header.SetMethod(method)
	req.SetRequestURI(c.cfg.BaseURL + path)
	a.JSONEncoder(sonic.Marshal)
	a.JSONDecoder(sonic.Unmarshal)
	a.Timeout(c.timeoutFor(ctx))
	a.Set(fiber.HeaderAccept, fiber.MIMEApplicationJSON)
	if token != "" {
		a.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	if body != nil {
		a.JSON(body)
	}
	if err := a.Parse(); err != nil {
		fiber.ReleaseAgent(a)
		return 0, nil, err
	}

	// Bytes releases the agent
	code, raw, errs := a.Bytes()
	if len(errs) > 0 {
		return 0, nil, errs[0]
	}
	return code, raw, nil
}
