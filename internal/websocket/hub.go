package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"matchbot-server/internal/redis"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Gateways are authenticated by token, not origin
	},
}

// Hub relays published match and inbox events to connected gateway clients.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan redis.Event
	done       chan struct{}
	pumps      sync.WaitGroup
	log        logrus.FieldLogger
}

// Client is one gateway connection. A client with no user filter receives every event.
type Client struct {
	hub     *Hub
	conn    *websocket.Conn
	send    chan []byte
	gateway string

	mu      sync.RWMutex
	userIDs map[int64]struct{}
}

// ControlMessage is sent by gateways to narrow or widen the users they receive events for.
type ControlMessage struct {
	Type    string  `json:"type"`
	UserIDs []int64 `json:"user_ids"`
}

func NewHub(log logrus.FieldLogger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan redis.Event, 64),
		done:       make(chan struct{}),
		log:        log,
	}
}

// Run owns the client set until ctx is done. Afterwards new connections are
// refused and running pumps exit on their own.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			return

		case client := <-h.register:
			h.clients[client] = true
			h.log.WithField("gateway", client.gateway).Info("gateway connected")

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				h.log.WithField("gateway", client.gateway).Info("gateway disconnected")
			}

		case ev := <-h.broadcast:
			payload, err := json.Marshal(ev)
			if err != nil {
				h.log.WithError(err).Error("encode event")
				continue
			}
			for client := range h.clients {
				if !client.wants(ev.UserID) {
					continue
				}
				select {
				case client.send <- payload:
				default:
					close(client.send)
					delete(h.clients, client)
				}
			}
		}
	}
}

// Wait blocks until every connection's read and write pumps have returned.
func (h *Hub) Wait() {
	h.pumps.Wait()
}

// Relay forwards events to the hub until the stream closes or ctx is done.
func (h *Hub) Relay(ctx context.Context, events <-chan redis.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			select {
			case h.broadcast <- ev:
			case <-ctx.Done():
				return
			}
		}
	}
}

func (c *Client) wants(userID int64) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.userIDs) == 0 {
		return true
	}
	_, ok := c.userIDs[userID]
	return ok
}

func (c *Client) apply(msg ControlMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch msg.Type {
	case "subscribe":
		for _, id := range msg.UserIDs {
			c.userIDs[id] = struct{}{}
		}
	case "unsubscribe":
		for _, id := range msg.UserIDs {
			delete(c.userIDs, id)
		}
	}
}

func HandleWebSocket(hub *Hub, c *gin.Context) {
	gateway := c.GetString("gateway")
	if gateway == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Gateway identity required"})
		return
	}

	select {
	case <-hub.done:
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Event relay stopped"})
		return
	default:
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		hub.log.WithError(err).Warn("websocket upgrade failed")
		return
	}

	client := &Client{
		hub:     hub,
		conn:    conn,
		send:    make(chan []byte, 256),
		gateway: gateway,
		userIDs: make(map[int64]struct{}),
	}

	select {
	case hub.register <- client:
	case <-hub.done:
		conn.Close()
		return
	}

	hub.pumps.Add(2)
	go client.writePump()
	go client.readPump()
}

func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
		c.hub.pumps.Done()
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, messageBytes, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.WithError(err).WithField("gateway", c.gateway).Warn("websocket read error")
			}
			break
		}

		var msg ControlMessage
		if err := json.Unmarshal(messageBytes, &msg); err != nil {
			c.hub.log.WithError(err).WithField("gateway", c.gateway).Debug("ignoring malformed control message")
			continue
		}
		c.apply(msg)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
		c.hub.pumps.Done()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.hub.log.WithError(err).WithField("gateway", c.gateway).Warn("websocket write error")
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
