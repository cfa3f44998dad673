// Package events pushes session changes to connected views over websockets.
package events

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"eduvista/internal/model"
	"eduvista/internal/navigation"
	"eduvista/internal/session"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 16
)

// Message is the frame sent to views.
type Message struct {
	Type  string      `json:"type"`
	Event string      `json:"event"`
	User  *model.User `json:"user"`
	Menu  model.Menu  `json:"menu"`
}

// Hub tracks open view connections.
type Hub struct {
	nav      *navigation.Model
	logger   *zap.Logger
	upgrader websocket.Upgrader

	mu    sync.Mutex
	conns map[*conn]struct{}
}

type conn struct {
	ws   *websocket.Conn
	send chan []byte
	done chan struct{}
}

// NewHub creates a hub. Upgrades are accepted from the API's own host and,
// when set, from allowedOrigin (the dashboard origin also given to CORS).
func NewHub(nav *navigation.Model, allowedOrigin string, logger *zap.Logger) *Hub {
	return &Hub{
		nav:    nav,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigin),
		},
		conns: make(map[*conn]struct{}),
	}
}

func originChecker(allowedOrigin string) func(r *http.Request) bool {
	allowedOrigin = strings.TrimSuffix(allowedOrigin, "/")
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		if allowedOrigin != "" && strings.EqualFold(origin, allowedOrigin) {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return strings.EqualFold(u.Host, r.Host)
	}
}

// Len is the number of open connections.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

// Serve upgrades the request and streams store's events until the view
// disconnects. The first frame is a snapshot of the current session.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, store *session.Store) error {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	c := &conn{ws: ws, send: make(chan []byte, sendBuffer), done: make(chan struct{})}

	h.mu.Lock()
	h.conns[c] = struct{}{}
	h.mu.Unlock()

	unsubscribe := store.Subscribe(func(ev session.Event) {
		h.enqueue(c, h.frame(string(ev.Type), ev.User))
	})
	h.enqueue(c, h.frame("snapshot", store.CurrentUser()))

	go c.writePump(h.logger)
	c.readPump()

	unsubscribe()
	close(c.done)
	h.mu.Lock()
	delete(h.conns, c)
	h.mu.Unlock()
	return nil
}

func (h *Hub) frame(event string, user *model.User) []byte {
	payload, err := json.Marshal(Message{Type: "session", Event: event, User: user, Menu: h.nav.Menu(user)})
	if err != nil {
		h.logger.Error("failed to encode session event", zap.Error(err))
		return nil
	}
	return payload
}

func (h *Hub) enqueue(c *conn, payload []byte) {
	if payload == nil {
		return
	}
	select {
	case c.send <- payload:
	case <-c.done:
	default:
		h.logger.Warn("view too slow, dropping session event")
	}
}

// readPump discards inbound frames and returns when the connection closes.
func (c *conn) readPump() {
	defer c.ws.Close()
	c.ws.SetReadLimit(maxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.ws.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *conn) writePump(logger *zap.Logger) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.ws.Close()
	}()
	for {
		select {
		case <-c.done:
			return
		case msg := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
				logger.Debug("websocket write failed", zap.Error(err))
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
