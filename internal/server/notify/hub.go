// Package notify pushes notifications to connected clients over
// WebSocket and schedules study reminders.
package notify

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/studyhub-tz/studyhub/internal/logging"
	"github.com/studyhub-tz/studyhub/internal/models"
)

// Client is one connected WebSocket peer.
type Client struct {
	ID     string
	UserID string
	Topics map[string]bool
	Conn   *websocket.Conn
	Send   chan []byte

	hub        *Hub
	mu         sync.Mutex
	closedOnce sync.Once
}

// Hub tracks connected clients and routes notifications to them,
// either per user or to everyone.
type Hub struct {
	log logging.Logger

	clients    map[*Client]bool
	userConns  map[string]map[*Client]bool
	topics     map[string]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan *deliverMsg

	mu sync.RWMutex
}

// deliverMsg routes to one user's connections, one topic's subscribers,
// or everyone when both keys are empty.
type deliverMsg struct {
	userID  string
	topic   string
	message []byte
}

func NewHub(log logging.Logger) *Hub {
	return &Hub{
		log:        log,
		clients:    make(map[*Client]bool),
		userConns:  make(map[string]map[*Client]bool),
		topics:     make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *deliverMsg, 256),
	}
}

// Run processes registrations and deliveries until done is closed.
func (h *Hub) Run(done <-chan struct{}) {
	for {
		select {
		case <-done:
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			if client.UserID != "" {
				if h.userConns[client.UserID] == nil {
					h.userConns[client.UserID] = make(map[*Client]bool)
				}
				h.userConns[client.UserID][client] = true
			}
			h.mu.Unlock()
			h.log.Info(context.Background(), "ws client connected", "client", client.ID, "user", client.UserID)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				for topic := range client.Topics {
					if topicClients, ok := h.topics[topic]; ok {
						delete(topicClients, client)
						if len(topicClients) == 0 {
							delete(h.topics, topic)
						}
					}
				}
				if client.UserID != "" {
					if userClients, ok := h.userConns[client.UserID]; ok {
						delete(userClients, client)
						if len(userClients) == 0 {
							delete(h.userConns, client.UserID)
						}
					}
				}
				close(client.Send)
			}
			h.mu.Unlock()
			h.log.Info(context.Background(), "ws client disconnected", "client", client.ID)

		case msg := <-h.broadcast:
			h.mu.RLock()
			var targets map[*Client]bool
			switch {
			case msg.userID != "":
				targets = h.userConns[msg.userID]
			case msg.topic != "":
				targets = h.topics[msg.topic]
			default:
				targets = h.clients
			}
			for client := range targets {
				select {
				case client.Send <- msg.message:
				default:
					// slow client, drop the connection
					go func(c *Client) { h.unregister <- c }(client)
				}
			}
			h.mu.RUnlock()
		}
	}
}

func (h *Hub) Register(client *Client)   { h.register <- client }
func (h *Hub) Unregister(client *Client) { h.unregister <- client }

// Subscribe adds the client to a topic.
func (h *Hub) Subscribe(client *Client, topic string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	client.Topics[topic] = true
	if h.topics[topic] == nil {
		h.topics[topic] = make(map[*Client]bool)
	}
	h.topics[topic][client] = true
}

// Unsubscribe removes the client from a topic.
func (h *Hub) Unsubscribe(client *Client, topic string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(client.Topics, topic)
	if topicClients, ok := h.topics[topic]; ok {
		delete(topicClients, client)
		if len(topicClients) == 0 {
			delete(h.topics, topic)
		}
	}
}

// BroadcastToTopic delivers a notification to a topic's subscribers.
func (h *Hub) BroadcastToTopic(topic string, n models.Notification) {
	data, err := json.Marshal(n)
	if err != nil {
		h.log.Error(context.Background(), "marshaling notification", "error", err)
		return
	}
	h.broadcast <- &deliverMsg{topic: topic, message: data}
}

// SendToUser delivers a notification to every connection of one user.
func (h *Hub) SendToUser(userID string, n models.Notification) {
	data, err := json.Marshal(n)
	if err != nil {
		h.log.Error(context.Background(), "marshaling notification", "error", err)
		return
	}
	h.broadcast <- &deliverMsg{userID: userID, message: data}
}

// BroadcastAll delivers a notification to every connected client.
func (h *Hub) BroadcastAll(n models.Notification) {
	data, err := json.Marshal(n)
	if err != nil {
		h.log.Error(context.Background(), "marshaling notification", "error", err)
		return
	}
	h.broadcast <- &deliverMsg{message: data}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// NewClient wraps an upgraded connection for this hub.
func (h *Hub) NewClient(id, userID string, conn *websocket.Conn) *Client {
	return &Client{
		ID:     id,
		UserID: userID,
		Topics: make(map[string]bool),
		Conn:   conn,
		Send:   make(chan []byte, 256),
		hub:    h,
	}
}

func (c *Client) Close() {
	c.closedOnce.Do(func() {
		c.hub.Unregister(c)
		c.Conn.Close()
	})
}

// WritePump pumps queued messages to the connection and keeps it alive
// with periodic pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			c.mu.Lock()
			err := c.Conn.WriteMessage(websocket.TextMessage, message)
			c.mu.Unlock()

			if err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ReadPump drains the connection until it closes. Clients only listen,
// so inbound frames are discarded; reading is still required to process
// control frames and detect disconnects.
func (c *Client) ReadPump() {
	defer c.Close()

	c.Conn.SetReadLimit(4 * 1024)
	c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.Warn(context.Background(), "ws read error", "error", err)
			}
			return
		}
	}
}
