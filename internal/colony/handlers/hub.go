package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"colony-server/internal/colony"
	"colony-server/internal/session"
	"colony-server/internal/shared/response"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	sendBuffer     = 64
	subscribeQueue = 64
)

// Message is the envelope for everything sent over the event socket.
type Message struct {
	Type     string      `json:"type"`
	ColonyID string      `json:"colony_id"`
	Payload  interface{} `json:"payload"`
}

type Client struct {
	hub      *Hub
	colonyID string
	conn     *websocket.Conn
	send     chan []byte

	events <-chan colony.Event
	cancel func()
}

type delivery struct {
	client *Client
	data   []byte
}

// Hub fans colony log events out to websocket clients. Every client holds
// its own log subscription, opened together with its first snapshot.
type Hub struct {
	service *session.Service
	clients map[string]map[*Client]bool

	deliver    chan delivery
	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	upgrader websocket.Upgrader
	logger   *slog.Logger
}

func NewHub(service *session.Service, allowedOrigin string, logger *slog.Logger) *Hub {
	h := &Hub{
		service:    service,
		clients:    make(map[string]map[*Client]bool),
		deliver:    make(chan delivery),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger.With("component", "event_hub"),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || allowedOrigin == "" || origin == allowedOrigin
		},
	}
	return h
}

// Run is the hub's event loop. It returns when ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	h.logger.Info("Event hub started")
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			for _, set := range h.clients {
				for client := range set {
					h.drop(client)
				}
			}
			h.logger.Info("Event hub stopped")
			return

		case client := <-h.register:
			set, ok := h.clients[client.colonyID]
			if !ok {
				set = make(map[*Client]bool)
				h.clients[client.colonyID] = set
			}
			set[client] = true
			h.logger.Debug("Client registered", "colony_id", client.colonyID, "clients", len(set))

		case client := <-h.unregister:
			h.drop(client)

		case d := <-h.deliver:
			if !h.clients[d.client.colonyID][d.client] {
				continue
			}
			select {
			case d.client.send <- d.data:
			default:
				// Slow client: drop it.
				h.drop(d.client)
			}
		}
	}
}

// drop must only be called from Run. It is a no-op for clients already gone.
func (h *Hub) drop(client *Client) {
	set := h.clients[client.colonyID]
	if !set[client] {
		return
	}
	delete(set, client)
	if len(set) == 0 {
		delete(h.clients, client.colonyID)
	}
	close(client.send)
	client.cancel()
}

// forward copies the client's log subscription into the hub. The
// subscription closes when the colony is abandoned or evicted, or when the
// hub drops the client.
func (c *Client) forward() {
	for ev := range c.events {
		data, err := encode("event", c.colonyID, ev)
		if err != nil {
			continue
		}
		select {
		case c.hub.deliver <- delivery{client: c, data: data}:
		case <-c.hub.done:
			return
		}
	}
	select {
	case c.hub.unregister <- c:
	case <-c.hub.done:
	}
}

func encode(kind, colonyID string, payload interface{}) ([]byte, error) {
	return json.Marshal(Message{Type: kind, ColonyID: colonyID, Payload: payload})
}

// ServeEvents upgrades the request and streams the colony's log. The first
// message is a snapshot including the log so far; events follow without a
// gap in their sequence numbers.
func (h *Hub) ServeEvents(w http.ResponseWriter, r *http.Request) {
	colonyID := r.PathValue("id")
	logger := h.logger.With("handler", "colony_events", "colony_id", colonyID)

	snap, events, cancel, err := h.service.SnapshotAndSubscribe(r.Context(), colonyID, subscribeQueue)
	if err != nil {
		response.Error(w, r, logger, translate("failed to open event stream", err))
		return
	}
	first, err := encode("snapshot", colonyID, snap)
	if err != nil {
		cancel()
		response.Error(w, r, logger, translate("failed to encode snapshot", err))
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		cancel()
		// Upgrade has already written the HTTP error.
		logger.Warn("WebSocket upgrade failed", "error", err)
		return
	}

	client := &Client{
		hub:      h,
		colonyID: colonyID,
		conn:     conn,
		send:     make(chan []byte, sendBuffer),
		events:   events,
		cancel:   cancel,
	}
	client.send <- first

	select {
	case h.register <- client:
	case <-h.done:
		cancel()
		_ = conn.Close()
		return
	}

	go client.forward()
	go client.writePump()
	go client.readPump()
}

// readPump only watches for the peer going away; clients do not send
// commands over the socket.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Debug("WebSocket closed unexpectedly", "colony_id", c.colonyID, "error", err)
			}
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
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
