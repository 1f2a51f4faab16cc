// Package websocket fans inbox changes out to connected browser clients.
package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/welldanyogia/webrana-unibox-backend/internal/metrics"
	"github.com/welldanyogia/webrana-unibox-backend/internal/models"
)

// InboxTopic receives every event regardless of thread.
const InboxTopic = "inbox"

// MessageType represents the type of WebSocket message
type MessageType string

const (
	MessageTypeSubscribe    MessageType = "subscribe"
	MessageTypeUnsubscribe  MessageType = "unsubscribe"
	MessageTypeSubscribed   MessageType = "subscribed"
	MessageTypeUnsubscribed MessageType = "unsubscribed"
	MessageTypePing         MessageType = "ping"
	MessageTypePong         MessageType = "pong"
	MessageTypeNewMessage   MessageType = "new_message"
	MessageTypeStatusUpdate MessageType = "status_update"
	MessageTypeError        MessageType = "error"
)

// WSMessage is the envelope for every frame in both directions
type WSMessage struct {
	Type  MessageType `json:"type"`
	Topic string      `json:"topic,omitempty"`
	Data  interface{} `json:"data,omitempty"`
	Error string      `json:"error,omitempty"`
}

// MessagePayload is the message summary pushed to clients
type MessagePayload struct {
	ID           string     `json:"id"`
	ThreadID     string     `json:"threadId"`
	Channel      string     `json:"channel"`
	Direction    string     `json:"direction"`
	From         string     `json:"from"`
	To           string     `json:"to"`
	Body         *string    `json:"body,omitempty"`
	Subject      *string    `json:"subject,omitempty"`
	Status       string     `json:"status"`
	ExternalID   *string    `json:"externalId,omitempty"`
	ErrorCode    *string    `json:"errorCode,omitempty"`
	ErrorMessage *string    `json:"errorMessage,omitempty"`
	Attachments  int        `json:"attachments"`
	CreatedAt    time.Time  `json:"createdAt"`
	SentAt       *time.Time `json:"sentAt,omitempty"`
	ReadAt       *time.Time `json:"readAt,omitempty"`
}

// NewMessagePayload builds the client payload for a stored message
func NewMessagePayload(m *models.Message) *MessagePayload {
	return &MessagePayload{
		ID:           m.ID,
		ThreadID:     m.ThreadID,
		Channel:      string(m.Channel),
		Direction:    string(m.Direction),
		From:         m.From,
		To:           m.To,
		Body:         m.Body,
		Subject:      m.Subject,
		Status:       string(m.Status),
		ExternalID:   m.ExternalID,
		ErrorCode:    m.ErrorCode,
		ErrorMessage: m.ErrorMessage,
		Attachments:  len(m.Attachments),
		CreatedAt:    m.CreatedAt,
		SentAt:       m.SentAt,
		ReadAt:       m.ReadAt,
	}
}

// Hub maintains the set of active clients and their topic subscriptions
type Hub struct {
	clients map[*Client]bool

	// topic (thread id or InboxTopic) -> subscribers
	subscriptions map[string]map[*Client]bool

	register    chan *Client
	unregister  chan *Client
	subscribe   chan *subscriptionRequest
	unsubscribe chan *subscriptionRequest
	broadcast   chan *broadcastMessage
	done        chan struct{}

	mu     sync.RWMutex
	logger *slog.Logger
}

type subscriptionRequest struct {
	client *Client
	topic  string
}

type broadcastMessage struct {
	topics  []string
	message []byte
}

// NewHub creates a new Hub instance
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		clients:       make(map[*Client]bool),
		subscriptions: make(map[string]map[*Client]bool),
		register:      make(chan *Client),
		unregister:    make(chan *Client),
		subscribe:     make(chan *subscriptionRequest),
		unsubscribe:   make(chan *subscriptionRequest),
		broadcast:     make(chan *broadcastMessage, 256),
		done:          make(chan struct{}),
		logger:        logger,
	}
}

// Run processes hub requests until ctx is cancelled, then disconnects every client.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			metrics.IncrementWebSocketConnections()
			h.logger.Debug("websocket client registered", slog.String("client_id", client.id))

		case client := <-h.unregister:
			h.removeClient(client)

		case req := <-h.subscribe:
			h.mu.Lock()
			if _, ok := h.clients[req.client]; ok {
				if h.subscriptions[req.topic] == nil {
					h.subscriptions[req.topic] = make(map[*Client]bool)
				}
				h.subscriptions[req.topic][req.client] = true
			}
			h.mu.Unlock()
			h.logger.Debug("websocket client subscribed", slog.String("topic", req.topic))

		case req := <-h.unsubscribe:
			h.mu.Lock()
			if subscribers, ok := h.subscriptions[req.topic]; ok {
				delete(subscribers, req.client)
				if len(subscribers) == 0 {
					delete(h.subscriptions, req.topic)
				}
			}
			h.mu.Unlock()
			h.logger.Debug("websocket client unsubscribed", slog.String("topic", req.topic))

		case msg := <-h.broadcast:
			h.deliver(msg)
		}
	}
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	close(client.send)
	for topic, subscribers := range h.subscriptions {
		delete(subscribers, client)
		if len(subscribers) == 0 {
			delete(h.subscriptions, topic)
		}
	}
	metrics.DecrementWebSocketConnections()
	h.logger.Debug("websocket client unregistered", slog.String("client_id", client.id))
}

// deliver sends msg once to every client subscribed to any of its topics
func (h *Hub) deliver(msg *broadcastMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	sent := make(map[*Client]bool)
	for _, topic := range msg.topics {
		for client := range h.subscriptions[topic] {
			if sent[client] {
				continue
			}
			sent[client] = true
			select {
			case client.send <- msg.message:
			default:
				h.logger.Warn("websocket client buffer full, dropping event", slog.String("topic", topic))
			}
		}
	}
}

func (h *Hub) shutdown() {
	close(h.done)

	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		close(client.send)
		metrics.DecrementWebSocketConnections()
	}
	h.clients = make(map[*Client]bool)
	h.subscriptions = make(map[string]map[*Client]bool)
}

// Register adds a client to the hub
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
	}
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Subscribe subscribes a client to a topic
func (h *Hub) Subscribe(client *Client, topic string) {
	select {
	case h.subscribe <- &subscriptionRequest{client: client, topic: topic}:
	case <-h.done:
	}
}

// Unsubscribe removes a client's topic subscription
func (h *Hub) Unsubscribe(client *Client, topic string) {
	select {
	case h.unsubscribe <- &subscriptionRequest{client: client, topic: topic}:
	case <-h.done:
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// NotifyNewMessage pushes a new_message event to the thread and inbox subscribers.
func (h *Hub) NotifyNewMessage(message *models.Message) {
	h.publish(MessageTypeNewMessage, message)
}

// NotifyStatusUpdate pushes a status_update event to the thread and inbox subscribers.
func (h *Hub) NotifyStatusUpdate(message *models.Message) {
	h.publish(MessageTypeStatusUpdate, message)
}

func (h *Hub) publish(eventType MessageType, message *models.Message) {
	if message == nil {
		return
	}

	data, err := json.Marshal(WSMessage{
		Type:  eventType,
		Topic: message.ThreadID,
		Data:  NewMessagePayload(message),
	})
	if err != nil {
		h.logger.Error("failed to marshal websocket event", slog.Any("error", err))
		return
	}

	select {
	case h.broadcast <- &broadcastMessage{topics: []string{message.ThreadID, InboxTopic}, message: data}:
	default:
		h.logger.Warn("websocket broadcast queue full, dropping event",
			slog.String("type", string(eventType)),
			slog.String("message_id", message.ID),
		)
	}
}
