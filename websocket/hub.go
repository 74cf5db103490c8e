package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Message types exchanged with the browser
const (
	TypeText        = "text"
	TypeAudioChunk  = "audio_chunk"
	TypeEndSession  = "end_session"
	TypeQuestion    = "question"
	TypeEvaluation  = "evaluation"
	TypeUserMessage = "user_message"
	TypeAudio       = "audio"
	TypeError       = "error"
)

const (
	maxMessageSize = 10 * 1024 * 1024 // audio chunks are base64 encoded
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	writeWait      = 10 * time.Second
	inboxSize      = 64
)

var ErrClientClosed = errors.New("websocket client is closed")

type Message struct {
	Type            string  `json:"type"`
	Content         string  `json:"content,omitempty"`
	AudioDataBase64 string  `json:"audio_data_base64,omitempty"`
	MimeType        string  `json:"mime_type,omitempty"`
	ChunkIndex      int     `json:"chunk_index,omitempty"`
	TotalChunks     int     `json:"total_chunks,omitempty"`
	IsLastChunk     bool    `json:"is_last_chunk,omitempty"`
	DurationSeconds float64 `json:"duration_seconds,omitempty"`
	SessionID       string  `json:"session_id,omitempty"`
	Data            any     `json:"data,omitempty"`
}

// Hub tracks connected clients by interview session
type Hub struct {
	clients    map[*Client]bool
	sessions   map[string]*Client
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.RWMutex
}

type Client struct {
	Hub       *Hub
	Conn      *websocket.Conn
	Send      chan []byte
	UserID    string
	SessionID string
	// MessageHandler runs on a single goroutine per client so messages are handled in arrival order
	MessageHandler func(*Client, Message)
	// OnStart runs on the same goroutine before the first message is handled
	OnStart func(*Client)

	inbox       chan Message
	sendClosed  bool
	inboxClosed bool
	mu          sync.Mutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		sessions:   make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				client.close()
				client.closeConn()
			}
			h.clients = make(map[*Client]bool)
			h.sessions = make(map[string]*Client)
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			if previous, ok := h.sessions[client.SessionID]; ok && previous != client {
				// one live connection per session
				previous.closeConn()
			}
			h.clients[client] = true
			h.sessions[client.SessionID] = client
			h.mu.Unlock()
			slog.Info("Client registered", "user_id", client.UserID, "session_id", client.SessionID)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				if h.sessions[client.SessionID] == client {
					delete(h.sessions, client.SessionID)
				}
				client.close()
			}
			h.mu.Unlock()
			slog.Info("Client unregistered", "user_id", client.UserID, "session_id", client.SessionID)
		}
	}
}

func (h *Hub) RegisterClient(conn *websocket.Conn, userID, sessionID string) *Client {
	client := &Client{
		Hub:       h,
		Conn:      conn,
		Send:      make(chan []byte, 256),
		UserID:    userID,
		SessionID: sessionID,
		inbox:     make(chan Message, inboxSize),
	}

	select {
	case h.register <- client:
	case <-h.done:
		client.close()
	}
	return client
}

// SendToSession delivers msg to the client connected for sessionID, if any
func (h *Hub) SendToSession(sessionID string, msg Message) bool {
	h.mu.RLock()
	client, ok := h.sessions[sessionID]
	h.mu.RUnlock()
	if !ok {
		return false
	}
	return client.SendMessage(msg) == nil
}

// Disconnect closes the connection for sessionID after flushing queued messages
func (h *Hub) Disconnect(sessionID string) {
	h.mu.RLock()
	client, ok := h.sessions[sessionID]
	h.mu.RUnlock()
	if ok {
		client.CloseAfterFlush()
	}
}

func (h *Hub) ConnectedSessions() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.sendClosed {
		c.sendClosed = true
		close(c.Send)
	}
	if !c.inboxClosed {
		c.inboxClosed = true
		close(c.inbox)
	}
}

func (c *Client) closeConn() {
	if c.Conn != nil {
		c.Conn.Close()
	}
}

// CloseAfterFlush stops accepting messages and lets WritePump drain Send before closing
func (c *Client) CloseAfterFlush() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.sendClosed {
		c.sendClosed = true
		close(c.Send)
	}
}

// SendMessage queues msg for the write pump without blocking
func (c *Client) SendMessage(msg Message) error {
	if msg.SessionID == "" {
		msg.SessionID = c.SessionID
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sendClosed {
		return ErrClientClosed
	}
	select {
	case c.Send <- payload:
		return nil
	default:
		slog.Warn("Dropping message for slow client", "session_id", c.SessionID, "type", msg.Type)
		return errors.New("send buffer full")
	}
}

func (c *Client) SendError(content string) {
	if err := c.SendMessage(Message{Type: TypeError, Content: content}); err != nil {
		slog.Debug("Failed to send error message", "error", err, "session_id", c.SessionID)
	}
}

// ReadPump reads messages until the connection drops and hands them to the processing loop
func (c *Client) ReadPump() {
	go c.processLoop()
	defer func() {
		select {
		case c.Hub.unregister <- c:
		case <-c.Hub.done:
			c.close()
		}
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, messageBytes, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Error("WebSocket error", "error", err)
			}
			break
		}

		var msg Message
		if err := json.Unmarshal(messageBytes, &msg); err != nil {
			slog.Error("Failed to unmarshal message", "error", err)
			c.SendError("Invalid message format")
			continue
		}

		slog.Debug("Message received", "type", msg.Type, "session_id", c.SessionID, "content_length", len(msg.Content))
		if !c.enqueue(msg) {
			break
		}
	}
}

func (c *Client) enqueue(msg Message) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inboxClosed {
		return false
	}
	select {
	case c.inbox <- msg:
	default:
		slog.Warn("Inbox full, dropping message", "session_id", c.SessionID, "type", msg.Type)
	}
	return true
}

func (c *Client) processLoop() {
	if c.OnStart != nil {
		c.OnStart(c)
	}
	for msg := range c.inbox {
		if c.MessageHandler == nil {
			slog.Warn("No handler for message", "type", msg.Type, "session_id", c.SessionID)
			continue
		}
		c.MessageHandler(c, msg)
	}
}

func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			// one JSON document per frame so the browser can JSON.parse each frame
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
