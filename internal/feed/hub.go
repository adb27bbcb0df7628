// Package feed pushes order events to connected admin dashboards over
// websockets.
package feed

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gofrs/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/sumisonnn/MEDICO/internal/order"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	sendBuffer = 16
)

type client struct {
	id   uuid.UUID
	conn *websocket.Conn
	send chan []byte
}

// Hub fans events out to every connected client. A client that cannot keep
// up is disconnected instead of slowing down publishers.
type Hub struct {
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[uuid.UUID]*client
	closed  bool
}

func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The route is behind admin auth; browsers on other origins
			// still need to connect.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		clients: make(map[uuid.UUID]*client),
	}
}

// ServeWS upgrades the request and blocks until the client goes away.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("feed: websocket upgrade failed")
		return
	}

	id, err := uuid.NewV4()
	if err != nil {
		log.Error().Err(err).Msg("feed: failed to generate client id")
		_ = conn.Close()
		return
	}
	c := &client{id: id, conn: conn, send: make(chan []byte, sendBuffer)}

	if !h.register(c) {
		_ = conn.Close()
		return
	}
	log.Info().Stringer("client_id", id).Msg("feed: client connected")

	go h.writePump(c)
	h.readPump(c)
}

// Publish implements order.Publisher.
func (h *Hub) Publish(e order.Event) {
	payload, err := json.Marshal(e)
	if err != nil {
		log.Error().Err(err).Str("type", e.Type).Msg("feed: failed to marshal event")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for id, c := range h.clients {
		select {
		case c.send <- payload:
		default:
			log.Warn().Stringer("client_id", id).Msg("feed: dropping slow client")
			h.removeLocked(id)
		}
	}
}

func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client and rejects new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for id := range h.clients {
		h.removeLocked(id)
	}
}

func (h *Hub) register(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c.id] = c
	return true
}

func (h *Hub) unregister(id uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(id)
}

// removeLocked closes the send channel; the write pump then closes the
// connection. Callers hold h.mu.
func (h *Hub) removeLocked(id uuid.UUID) {
	c, ok := h.clients[id]
	if !ok {
		return
	}
	delete(h.clients, id)
	close(c.send)
}

// readPump only exists to notice disconnects and answer pings; clients have
// nothing to say.
func (h *Hub) readPump(c *client) {
	defer func() {
		h.unregister(c.id)
		log.Info().Stringer("client_id", c.id).Msg("feed: client disconnected")
	}()

	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				log.Debug().Err(err).Stringer("client_id", c.id).Msg("feed: write failed")
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
