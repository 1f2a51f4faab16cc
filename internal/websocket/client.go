package websocket

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Connection limits. Clients only send small subscription frames.
const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxFrameSize   = 512
	sendBufferSize = 64
)

const errInvalidTopic = `topic must be a thread id or "inbox"`

// Client is one browser connection
type Client struct {
	id     string
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	logger *slog.Logger
}

// NewClient creates a client for conn. Events queue in a bounded buffer
// until WritePump flushes them.
func NewClient(hub *Hub, conn *websocket.Conn, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	id := uuid.NewString()
	return &Client{
		id:     id,
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, sendBufferSize),
		logger: logger.With(slog.String("client_id", id)),
	}
}

// ID identifies the client in logs
func (c *Client) ID() string {
	return c.id
}

// ReadPump handles client frames until the connection drops, then leaves the hub
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxFrameSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn("websocket closed unexpectedly", slog.Any("error", err))
			}
			return
		}
		c.handleMessage(data)
	}
}

// WritePump flushes queued frames and keeps the connection alive with pings.
// It exits when the hub closes the send channel or a write fails.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			if !ok {
				c.conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
					time.Now().Add(writeWait))
				return
			}
			if !c.write(websocket.TextMessage, data) {
				return
			}
			// drain what queued up meanwhile
			for n := len(c.send); n > 0; n-- {
				queued, ok := <-c.send
				if !ok || !c.write(websocket.TextMessage, queued) {
					return
				}
			}

		case <-ticker.C:
			if !c.write(websocket.PingMessage, nil) {
				return
			}
		}
	}
}

func (c *Client) write(messageType int, data []byte) bool {
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteMessage(messageType, data); err != nil {
		c.logger.Debug("websocket write failed", slog.Any("error", err))
		return false
	}
	return true
}

func (c *Client) handleMessage(data []byte) {
	var msg WSMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		c.sendError("invalid message format")
		return
	}

	switch msg.Type {
	case MessageTypeSubscribe:
		if !validTopic(msg.Topic) {
			c.sendError(errInvalidTopic)
			return
		}
		c.hub.Subscribe(c, msg.Topic)
		c.sendFrame(WSMessage{Type: MessageTypeSubscribed, Topic: msg.Topic})

	case MessageTypeUnsubscribe:
		if !validTopic(msg.Topic) {
			c.sendError(errInvalidTopic)
			return
		}
		c.hub.Unsubscribe(c, msg.Topic)
		c.sendFrame(WSMessage{Type: MessageTypeUnsubscribed, Topic: msg.Topic})

	case MessageTypePing:
		c.sendFrame(WSMessage{Type: MessageTypePong})

	default:
		c.sendError("unknown message type")
	}
}

// validTopic accepts the inbox topic or a thread id
func validTopic(topic string) bool {
	if topic == InboxTopic {
		return true
	}
	_, err := uuid.Parse(topic)
	return err == nil
}

func (c *Client) sendError(errMsg string) {
	c.sendFrame(WSMessage{Type: MessageTypeError, Error: errMsg})
}

// sendFrame queues msg, dropping it when the client is not keeping up
func (c *Client) sendFrame(msg WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		c.logger.Error("failed to marshal websocket frame", slog.Any("error", err))
		return
	}

	select {
	case c.send <- data:
	default:
		c.logger.Warn("websocket client buffer full, dropping frame", slog.String("type", string(msg.Type)))
	}
}
