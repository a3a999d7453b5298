// file: internal/realtime/events.go
// version: 2.1.0
// guid: 9e8d7f6a-5c4b-3a21-0f9e-8d7c6b5a4392

package realtime

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jdfalk/book-library/internal/library"
	"github.com/jdfalk/book-library/internal/operations"
	"github.com/jdfalk/book-library/internal/scanner"
)

// EventType defines the type of real-time event
type EventType string

const (
	EventBooksLoaded   EventType = EventType(library.ChangeLoaded)
	EventBookAdded     EventType = EventType(library.ChangeAdded)
	EventBookUpdated   EventType = EventType(library.ChangeUpdated)
	EventBookRemoved   EventType = EventType(library.ChangeRemoved)
	EventBooksImported EventType = EventType(library.ChangeImported)
	EventScanStatus    EventType = "scan.status"
	EventOperation     EventType = "operation.status"
	EventSystemStatus  EventType = "system.status"
)

// Topics a client can narrow its stream to.
const (
	TopicBooks      = "books"
	TopicScan       = "scan"
	TopicOperations = "operations"
)

// clientBuffer is the per-client channel capacity.
const clientBuffer = 100

// Event represents a real-time event to send to clients
type Event struct {
	Type      EventType      `json:"type"`
	Topic     string         `json:"topic,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
	Data      map[string]any `json:"data"`
}

// Client represents a connected SSE client
type Client struct {
	ID      string
	Channel chan *Event
	Topics  map[string]bool // empty means every topic
	mu      sync.RWMutex
}

// NewClient creates a new SSE client
func NewClient(id string) *Client {
	return &Client{
		ID:      id,
		Channel: make(chan *Event, clientBuffer),
		Topics:  make(map[string]bool),
	}
}

// Subscribe narrows the client to topic (in addition to any earlier ones).
func (c *Client) Subscribe(topic string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Topics[topic] = true
	log.Printf("[DEBUG] client %s subscribed to %s", c.ID, topic)
}

// Unsubscribe removes topic from the client's subscriptions.
func (c *Client) Unsubscribe(topic string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.Topics, topic)
	log.Printf("[DEBUG] client %s unsubscribed from %s", c.ID, topic)
}

// Wants reports whether an event on topic should reach the client.
func (c *Client) Wants(topic string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return topic == "" || len(c.Topics) == 0 || c.Topics[topic]
}

// EventHub manages SSE connections and event distribution
type EventHub struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

// NewEventHub creates a new event hub
func NewEventHub() *EventHub {
	return &EventHub{
		clients: make(map[string]*Client),
	}
}

// RegisterClient registers a new client
func (h *EventHub) RegisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client.ID] = client
	log.Printf("[DEBUG] client %s registered, total clients: %d", client.ID, len(h.clients))
}

// UnregisterClient removes a client and closes its channel.
func (h *EventHub) UnregisterClient(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if client, exists := h.clients[clientID]; exists {
		close(client.Channel)
		delete(h.clients, clientID)
		log.Printf("[DEBUG] client %s unregistered, remaining clients: %d", clientID, len(h.clients))
	}
}

// Broadcast sends an event to every client interested in its topic. A full
// client channel drops the event for that client only.
func (h *EventHub) Broadcast(event *Event) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	count := 0
	for _, client := range h.clients {
		if !client.Wants(event.Topic) {
			continue
		}
		select {
		case client.Channel <- event:
			count++
		default:
			log.Printf("[WARN] client %s channel full, dropping %s event", client.ID, event.Type)
		}
	}
	return count
}

// PublishBookChange converts a library change into an event on the books topic.
func (h *EventHub) PublishBookChange(c library.Change) {
	data := map[string]any{}
	switch {
	case c.Book != nil:
		data["book"] = c.Book
	case c.ID != "":
		data["id"] = c.ID
	default:
		data["count"] = len(c.Books)
	}
	h.Broadcast(&Event{
		Type:      EventType(c.Type),
		Topic:     TopicBooks,
		Timestamp: time.Now(),
		Data:      data,
	})
}

// PublishScanStatus sends the scan controller's state on the scan topic.
func (h *EventHub) PublishScanStatus(st scanner.Status) {
	h.Broadcast(&Event{
		Type:      EventScanStatus,
		Topic:     TopicScan,
		Timestamp: time.Now(),
		Data:      map[string]any{"status": st},
	})
}

// PublishOperation sends an operation snapshot on the operations topic.
func (h *EventHub) PublishOperation(op operations.Operation) {
	h.Broadcast(&Event{
		Type:      EventOperation,
		Topic:     TopicOperations,
		Timestamp: time.Now(),
		Data:      map[string]any{"operation": op},
	})
}

// SendSystemStatus sends a system status event to every client.
func (h *EventHub) SendSystemStatus(data map[string]any) {
	h.Broadcast(&Event{
		Type:      EventSystemStatus,
		Timestamp: time.Now(),
		Data:      data,
	})
}

// GetClientCount returns the number of connected clients
func (h *EventHub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func writeEvent(c *gin.Context, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(c.Writer, "data: %s\n\n", data); err != nil {
		return err
	}
	c.Writer.Flush()
	return nil
}

// HeartbeatInterval is how often an idle SSE stream sends a keep-alive.
var HeartbeatInterval = 15 * time.Second

// HandleSSE streams events to one client until the request ends. The
// optional repeated "topic" query parameter narrows the stream.
func (h *EventHub) HandleSSE(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache, no-transform")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	client := NewClient(uuid.NewString())
	for _, topic := range c.QueryArray("topic") {
		client.Subscribe(topic)
	}

	h.RegisterClient(client)
	defer h.UnregisterClient(client.ID)

	_ = writeEvent(c, &Event{
		Type:      "connection.established",
		Timestamp: time.Now(),
		Data:      map[string]any{"client_id": client.ID},
	})

	ticker := time.NewTicker(HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.Request.Context().Done():
			log.Printf("[DEBUG] client %s connection closed", client.ID)
			return
		case event, ok := <-client.Channel:
			if !ok {
				return
			}
			if err := writeEvent(c, event); err != nil {
				log.Printf("[WARN] writing to client %s: %v", client.ID, err)
				return
			}
		case <-ticker.C:
			_ = writeEvent(c, map[string]any{
				"type":      "heartbeat",
				"timestamp": time.Now(),
			})
		}
	}
}
