package websocket

import (
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for now (should be restricted in production)
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Client is one connected tracker popup.
type Client struct {
	ID       string
	Username string
	Conn     *websocket.Conn
	Send     chan []byte
	Hub      *MatchupHub

	// lastSeen is touched from the pumps and read by the hub goroutine,
	// so it stays atomic rather than living under the hub mutex.
	lastSeen atomic.Int64
}

func (c *Client) touch() {
	c.lastSeen.Store(time.Now().UnixNano())
}

func (c *Client) idleFor(now time.Time) time.Duration {
	return now.Sub(time.Unix(0, c.lastSeen.Load()))
}

// MatchupHub maintains active WebSocket connections and fans live matchup
// updates and scoring events out to them.
type MatchupHub struct {
	clients     map[*Client]bool
	userClients map[string][]*Client
	broadcast   chan *Message
	register    chan *Client
	unregister  chan *Client
	logger      *logrus.Logger
	mutex       sync.RWMutex
}

// Message is the envelope every hub payload travels in.
type Message struct {
	Type      string      `json:"type"` // "matchup_update", "scoring_event", "connected", "pong", "error"
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
	Username  string      `json:"username,omitempty"`
}

// NewMatchupHub creates a new WebSocket hub.
func NewMatchupHub(logger *logrus.Logger) *MatchupHub {
	return &MatchupHub{
		clients:     make(map[*Client]bool),
		userClients: make(map[string][]*Client),
		broadcast:   make(chan *Message, 256),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		logger:      logger,
	}
}

// Run starts the hub and handles client registration/unregistration.
func (h *MatchupHub) Run() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case message := <-h.broadcast:
			h.broadcastMessage(message)

		case <-ticker.C:
			h.dropStaleClients()
		}
	}
}

func (h *MatchupHub) registerClient(client *Client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	h.clients[client] = true
	h.userClients[client.Username] = append(h.userClients[client.Username], client)

	h.logger.WithFields(logrus.Fields{
		"client_id":     client.ID,
		"username":      client.Username,
		"total_clients": len(h.clients),
	}).Info("WebSocket client connected")

	welcome := &Message{
		Type:      "connected",
		Data:      map[string]interface{}{"client_id": client.ID},
		Timestamp: time.Now(),
		Username:  client.Username,
	}
	h.sendToClient(client, welcome)
}

func (h *MatchupHub) unregisterClient(client *Client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if _, ok := h.clients[client]; !ok {
		return
	}

	delete(h.clients, client)
	close(client.Send)

	userClients := h.userClients[client.Username]
	for i, c := range userClients {
		if c == client {
			h.userClients[client.Username] = append(userClients[:i], userClients[i+1:]...)
			break
		}
	}
	if len(h.userClients[client.Username]) == 0 {
		delete(h.userClients, client.Username)
	}

	h.logger.WithFields(logrus.Fields{
		"client_id":     client.ID,
		"total_clients": len(h.clients),
	}).Info("WebSocket client disconnected")
}

func (h *MatchupHub) broadcastMessage(message *Message) {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	// A targeted message only reaches that user's connections.
	if message.Username != "" {
		for _, client := range h.userClients[message.Username] {
			h.sendToClient(client, message)
		}
		return
	}

	for client := range h.clients {
		h.sendToClient(client, message)
	}
}

func (h *MatchupHub) sendToClient(client *Client, message *Message) {
	data, err := json.Marshal(message)
	if err != nil {
		h.logger.WithError(err).Error("Failed to marshal WebSocket message")
		return
	}

	select {
	case client.Send <- data:
		client.touch()
	default:
		// Client's send channel is full, close the connection.
		go func() { h.unregister <- client }()
	}
}

func (h *MatchupHub) dropStaleClients() {
	h.mutex.RLock()
	now := time.Now()
	stale := []*Client{}
	for client := range h.clients {
		if client.idleFor(now) > 2*time.Minute {
			stale = append(stale, client)
		}
	}
	h.mutex.RUnlock()

	for _, client := range stale {
		h.unregisterClient(client)
	}

	if len(stale) > 0 {
		h.logger.WithField("stale_clients", len(stale)).Debug("Removed stale WebSocket clients")
	}
}

// HandleWebSocket upgrades an HTTP request into a tracked hub connection.
func (h *MatchupHub) HandleWebSocket(c *gin.Context) {
	username := c.Param("username")
	if username == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Username is required"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.WithError(err).Error("Failed to upgrade WebSocket connection")
		return
	}

	client := &Client{
		ID:       uuid.New().String(),
		Username: username,
		Conn:     conn,
		Send:     make(chan []byte, 256),
		Hub:      h,
	}
	client.touch()

	client.Hub.register <- client

	go client.writePump()
	go client.readPump()
}

// BroadcastMatchupUpdate pushes a fresh live matchup snapshot to a user's
// connections.
func (h *MatchupHub) BroadcastMatchupUpdate(username string, snapshot interface{}) {
	h.broadcast <- &Message{
		Type:      "matchup_update",
		Data:      snapshot,
		Timestamp: time.Now(),
		Username:  username,
	}
}

// BroadcastScoringEvent pushes a scoring play to every connection.
func (h *MatchupHub) BroadcastScoringEvent(event interface{}) {
	h.broadcast <- &Message{
		Type:      "scoring_event",
		Data:      event,
		Timestamp: time.Now(),
	}
}

// GetConnectionCount returns the total number of active connections.
func (h *MatchupHub) GetConnectionCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

// GetConnectedUsers returns the usernames with at least one connection.
func (h *MatchupHub) GetConnectedUsers() []string {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	users := make([]string, 0, len(h.userClients))
	for username := range h.userClients {
		users = append(users, username)
	}
	return users
}

// readPump pumps messages from the WebSocket connection to the hub.
func (c *Client) readPump() {
	defer func() {
		c.Hub.unregister <- c
		c.Conn.Close()
	}()

	c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		c.touch()
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Hub.logger.WithError(err).Error("WebSocket read error")
			}
			break
		}

		c.handleIncomingMessage(message)
		c.touch()
	}
}

// writePump pumps messages from the hub to the WebSocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.Hub.logger.WithError(err).Error("Failed to write WebSocket message")
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

func (c *Client) handleIncomingMessage(message []byte) {
	var clientMsg map[string]interface{}
	if err := json.Unmarshal(message, &clientMsg); err != nil {
		c.Hub.logger.WithError(err).Warn("Failed to parse client message")
		return
	}

	msgType, ok := clientMsg["type"].(string)
	if !ok {
		return
	}

	if msgType == "ping" {
		response := &Message{
			Type:      "pong",
			Data:      map[string]interface{}{"timestamp": time.Now().Unix()},
			Timestamp: time.Now(),
		}
		c.Hub.sendToClient(c, response)
	}
}
