package ws

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Event types pushed to connected clients.
const (
	EventStockUpdate   = "stock_update"
	EventLowStock      = "low_stock"
	EventPaymentUpdate = "payment_update"
)

// Event is the JSON frame clients receive.
type Event struct {
	Type    string      `json:"type"`
	Action  string      `json:"action"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
	At      time.Time   `json:"at"`
}

// Client is one connection bound to the tenant of the user who opened it.
type Client struct {
	Conn     *websocket.Conn
	TenantID uuid.UUID
	UserID   uuid.UUID
}

type envelope struct {
	tenantID uuid.UUID
	payload  []byte
}

// Hub fans events out to the clients of one tenant at a time.
type Hub struct {
	clients    map[*Client]bool
	Register   chan *Client
	Unregister chan *Client
	broadcast  chan envelope
	stop       chan struct{}
	mutex      sync.Mutex
	log        *zap.Logger
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		broadcast:  make(chan envelope, 256),
		stop:       make(chan struct{}),
		log:        log.Named("ws"),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.mutex.Lock()
			h.clients[client] = true
			h.mutex.Unlock()
			h.log.Debug("client connected", zap.String("tenant_id", client.TenantID.String()), zap.String("user_id", client.UserID.String()))

		case client := <-h.Unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.Conn.Close()
			}
			h.mutex.Unlock()

		case msg := <-h.broadcast:
			h.mutex.Lock()
			for client := range h.clients {
				if client.TenantID != msg.tenantID {
					continue
				}
				if err := client.Conn.WriteMessage(websocket.TextMessage, msg.payload); err != nil {
					client.Conn.Close()
					delete(h.clients, client)
				}
			}
			h.mutex.Unlock()

		case <-h.stop:
			h.mutex.Lock()
			for client := range h.clients {
				client.Conn.Close()
				delete(h.clients, client)
			}
			h.mutex.Unlock()
			return
		}
	}
}

// Stop closes every connection and ends Run.
func (h *Hub) Stop() {
	close(h.stop)
}

// Publish queues event for the tenant's clients. It never blocks; when the
// queue is full the event is dropped.
func (h *Hub) Publish(tenantID uuid.UUID, event Event) {
	if event.At.IsZero() {
		event.At = time.Now()
	}
	payload, err := json.Marshal(event)
	if err != nil {
		h.log.Error("marshal event", zap.String("type", event.Type), zap.Error(err))
		return
	}

	select {
	case h.broadcast <- envelope{tenantID: tenantID, payload: payload}:
	default:
		h.log.Warn("event dropped, broadcast queue full", zap.String("type", event.Type), zap.String("action", event.Action))
	}
}

// Serve registers conn and blocks reading until the client goes away.
// Incoming frames are ignored.
func (h *Hub) Serve(conn *websocket.Conn, tenantID, userID uuid.UUID) {
	client := &Client{Conn: conn, TenantID: tenantID, UserID: userID}
	select {
	case h.Register <- client:
	case <-h.stop:
		conn.Close()
		return
	}
	defer func() {
		select {
		case h.Unregister <- client:
		case <-h.stop:
		}
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
