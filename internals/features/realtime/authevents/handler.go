package authevents

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

// TokenVerifier resolves an access token to its user.
type TokenVerifier func(ctx context.Context, token string) (uuid.UUID, error)

type Handler struct {
	hub      *Hub
	verify   TokenVerifier
	upgrader websocket.Upgrader
}

func NewHandler(hub *Hub, verify TokenVerifier, allowedOrigins []string) *Handler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[strings.TrimRight(o, "/")] = true
	}
	return &Handler{
		hub:    hub,
		verify: verify,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				// non-browser clients send no Origin
				return origin == "" || allowed[strings.TrimRight(origin, "/")]
			},
		},
	}
}

// ServeWS authenticates, upgrades and attaches the connection to the hub.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	token := bearerOrQuery(r)
	if token == "" {
		http.Error(w, `{"success":false,"message":"Unauthorized - No token provided"}`, http.StatusUnauthorized)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	userID, err := h.verify(ctx, token)
	cancel()
	if err != nil {
		log.Printf("[WS] rejected connection: %v", err)
		http.Error(w, `{"success":false,"message":"Unauthorized"}`, http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error
		log.Printf("[WS] upgrade failed: %v", err)
		return
	}
	client := NewClient(conn, userID)
	if !h.hub.Attach(client) {
		_ = conn.Close()
		return
	}
	go client.WritePump()
	go client.ReadPump(h.hub)
}

func bearerOrQuery(r *http.Request) string {
	if v := strings.TrimSpace(r.URL.Query().Get("access_token")); v != "" {
		return v
	}
	fields := strings.Fields(r.Header.Get("Authorization"))
	if len(fields) == 2 && strings.EqualFold(fields[0], "Bearer") {
		return strings.Trim(fields[1], `"'`)
	}
	return ""
}

// NewRouter builds the realtime listener's routes.
func NewRouter(h *Handler) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/ws/auth-events", h.ServeWS).Methods(http.MethodGet)
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)
	return r
}
