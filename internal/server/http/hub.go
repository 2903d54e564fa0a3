package http

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/dmitrijs2005/rollcall/internal/checkin"
	"github.com/dmitrijs2005/rollcall/internal/logging"
	"github.com/dmitrijs2005/rollcall/internal/rpc"
	"github.com/dmitrijs2005/rollcall/internal/server/services"
	"github.com/gorilla/websocket"
)

const (
	EventCheckIn      = "check_in"
	EventNotification = "notification"

	sendBuffer = 32
	writeWait  = 10 * time.Second
)

// Origins are enforced by the CORS middleware and the bearer token.
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// FeedMessage is one frame of the live feed.
type FeedMessage struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

type checkInData struct {
	Attendee  rpc.Attendee `json:"attendee"`
	StationID string       `json:"station_id"`
	At        time.Time    `json:"at"`
}

type notificationData struct {
	Kind    checkin.Kind `json:"kind"`
	Message string       `json:"message"`
}

type feedClient struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans check-in events out to connected dashboards. It implements
// services.Broadcaster and checkin.Notifier. A client that cannot keep up
// misses frames instead of blocking the check-in path.
type Hub struct {
	mu      sync.RWMutex
	clients map[*feedClient]struct{}
	closed  bool
	logger  logging.Logger
}

func NewHub(l logging.Logger) *Hub {
	return &Hub{
		clients: make(map[*feedClient]struct{}),
		logger:  l.With("module", "feed"),
	}
}

func (h *Hub) Broadcast(ev services.CheckInEvent) {
	h.publish(FeedMessage{Type: EventCheckIn, Data: checkInData{
		Attendee:  rpc.FromAttendee(ev.Attendee),
		StationID: ev.StationID,
		At:        ev.At,
	}})
}

func (h *Hub) Notify(ctx context.Context, n checkin.Notification) {
	h.publish(FeedMessage{Type: EventNotification, Data: notificationData{Kind: n.Kind, Message: n.Message}})
}

func (h *Hub) publish(msg FeedMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error(context.Background(), "feed marshal", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			h.logger.Warn(context.Background(), "feed client too slow, frame dropped")
		}
	}
}

// Clients returns the number of connected listeners.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Serve registers conn and blocks until the peer goes away or the hub is
// closed.
func (h *Hub) Serve(conn *websocket.Conn) {
	c := &feedClient{conn: conn, send: make(chan []byte, sendBuffer)}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	h.logger.Info(context.Background(), "feed client connected", "remote", conn.RemoteAddr().String())

	go h.writeLoop(c)

	// Incoming frames are ignored; reading detects disconnects.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.remove(c)
	h.logger.Info(context.Background(), "feed client disconnected", "remote", conn.RemoteAddr().String())
}

func (h *Hub) writeLoop(c *feedClient) {
	for data := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			c.conn.Close()
			return
		}
	}
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
	c.conn.Close()
}

func (h *Hub) remove(c *feedClient) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

// Close disconnects every listener and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}
