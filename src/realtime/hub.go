package realtime

import (
	"context"
	"sync"
	"time"

	"tradeledger/src/events"

	"github.com/gorilla/websocket"
)

const writeWait = 5 * time.Second

type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) writeJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(v)
}

// Hub tracks websocket subscribers per account and pushes transaction events
// to them.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*websocket.Conn]*client
}

var _ events.Publisher = (*Hub)(nil)

func NewHub() *Hub {
	return &Hub{clients: make(map[string]map[*websocket.Conn]*client)}
}

func (h *Hub) AddClient(accountID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[accountID] == nil {
		h.clients[accountID] = make(map[*websocket.Conn]*client)
	}
	h.clients[accountID][conn] = &client{conn: conn}
}

func (h *Hub) RemoveClient(accountID string, conn *websocket.Conn) {
	h.mu.Lock()
	if subs, ok := h.clients[accountID]; ok {
		delete(subs, conn)
		if len(subs) == 0 {
			delete(h.clients, accountID)
		}
	}
	h.mu.Unlock()
	_ = conn.Close()
}

// Send writes v to one subscriber of accountID.
func (h *Hub) Send(accountID string, conn *websocket.Conn, v any) error {
	h.mu.RLock()
	c, ok := h.clients[accountID][conn]
	h.mu.RUnlock()
	if !ok {
		return websocket.ErrCloseSent
	}
	return c.writeJSON(v)
}

func (h *Hub) ClientCount(accountID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[accountID])
}

// BroadcastJSON writes v to every subscriber of accountID, dropping the ones
// that fail.
func (h *Hub) BroadcastJSON(accountID string, v any) {
	h.mu.RLock()
	subs := make([]*client, 0, len(h.clients[accountID]))
	for _, c := range h.clients[accountID] {
		subs = append(subs, c)
	}
	h.mu.RUnlock()

	for _, c := range subs {
		if err := c.writeJSON(v); err != nil {
			h.RemoveClient(accountID, c.conn)
		}
	}
}

type message struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

func (h *Hub) Publish(_ context.Context, event events.TransactionCompleted) error {
	h.BroadcastJSON(event.AccountID, message{Type: "transaction", Data: event})
	return nil
}

// Message wraps data the way Publish does, for the first frame of a stream.
func Message(kind string, data any) any {
	return message{Type: kind, Data: data}
}
