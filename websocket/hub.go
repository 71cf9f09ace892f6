package websocket

import (
	"context"
	"log"
	"sync"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Conn is the part of a websocket connection the hub writes to.
type Conn interface {
	WriteJSON(v interface{}) error
	Close() error
}

type Client struct {
	ID   string
	Conn Conn
}

type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

const broadcastBuffer = 64

// Hub fans leaderboard updates out to every connected client. Only the Run
// goroutine touches the client set besides ClientCount.
type Hub struct {
	clients    map[string]Conn
	clientsMu  sync.RWMutex
	register   chan *Client
	unregister chan *Client
	broadcast  chan Message
	done       chan struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]Conn),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan Message, broadcastBuffer),
		done:       make(chan struct{}),
	}
}

func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.clientsMu.Lock()
			for id, conn := range h.clients {
				conn.Close()
				delete(h.clients, id)
			}
			h.clientsMu.Unlock()
			return
		case client := <-h.register:
			log.Printf("Leaderboard client registered: %s", client.ID)
			h.clientsMu.Lock()
			h.clients[client.ID] = client.Conn
			h.clientsMu.Unlock()
		case client := <-h.unregister:
			h.clientsMu.Lock()
			if conn, ok := h.clients[client.ID]; ok && conn == client.Conn {
				delete(h.clients, client.ID)
				log.Printf("Leaderboard client unregistered: %s", client.ID)
			}
			h.clientsMu.Unlock()
		case msg := <-h.broadcast:
			h.send(msg)
		}
	}
}

func (h *Hub) send(msg Message) {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()
	for id, conn := range h.clients {
		if err := conn.WriteJSON(msg); err != nil {
			log.Printf("Error sending %s to client %s: %v", msg.Type, id, err)
			conn.Close()
			delete(h.clients, id)
		}
	}
}

// Register returns false once the hub has stopped.
func (h *Hub) Register(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Publish never blocks the caller; a full queue drops the message.
func (h *Hub) Publish(msg Message) bool {
	select {
	case h.broadcast <- msg:
		return true
	default:
		log.Printf("⚠️ Dropping %s update, broadcast queue full", msg.Type)
		return false
	}
}

// Done is closed once Run has returned.
func (h *Hub) Done() <-chan struct{} { return h.done }

func (h *Hub) ClientCount() int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients)
}

// Upgrade rejects plain HTTP requests on the websocket route.
func Upgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// Handler keeps the connection registered until the client goes away. Incoming
// frames are read only to notice the disconnect.
func (h *Hub) Handler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		client := &Client{ID: uuid.NewString(), Conn: conn}
		if !h.Register(client) {
			conn.Close()
			return
		}
		defer h.Unregister(client)

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
}
