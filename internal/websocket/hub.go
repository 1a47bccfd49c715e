package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/dom/study-buddy/internal/lib/sl"
	"github.com/dom/study-buddy/internal/metrics"
	"github.com/google/uuid"
)

// Hub fans out events to the open connections of each user.
type Hub struct {
	clients    map[uuid.UUID]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan *userMessage
	stop       chan struct{}
	done       chan struct{} // closed when Run() exits
	stopped    bool
	mu         sync.RWMutex
	metrics    *metrics.Metrics
	log        *slog.Logger
}

type userMessage struct {
	userID uuid.UUID
	data   []byte
}

func NewHub(m *metrics.Metrics, log *slog.Logger) *Hub {
	return &Hub{
		clients:    make(map[uuid.UUID]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *userMessage, 256),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
		metrics:    m,
		log:        sl.OrDiscard(log).With(slog.String("component", "websocket.Hub")),
	}
}

func (h *Hub) Run() {
	defer close(h.done)

	for {
		select {
		case <-h.stop:
			h.mu.Lock()
			h.stopped = true
			for _, set := range h.clients {
				for client := range set {
					client.Close()
					h.metrics.WebsocketDisconnected()
				}
			}
			h.clients = make(map[uuid.UUID]map[*Client]struct{})
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			if h.stopped {
				client.Close()
			} else {
				set, ok := h.clients[client.userID]
				if !ok {
					set = make(map[*Client]struct{})
					h.clients[client.userID] = set
				}
				set[client] = struct{}{}
				h.metrics.WebsocketConnected()
			}
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			h.remove(client)
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients[msg.userID] {
				select {
				case client.send <- msg.data:
				default:
					// slow consumer
					h.log.Warn("dropping websocket client with full buffer", slog.String("user_id", msg.userID.String()))
					h.remove(client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// remove must be called with h.mu held.
func (h *Hub) remove(client *Client) {
	set, ok := h.clients[client.userID]
	if !ok {
		return
	}
	if _, ok := set[client]; !ok {
		return
	}
	delete(set, client)
	if len(set) == 0 {
		delete(h.clients, client.userID)
	}
	client.Close()
	h.metrics.WebsocketDisconnected()
}

// Stop shuts the hub down and closes every client. It blocks until Run
// has returned.
func (h *Hub) Stop() {
	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		return
	}
	h.stopped = true
	h.mu.Unlock()

	close(h.stop)
	<-h.done
}

func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		client.Close()
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// ClientCount returns the number of open connections for userID.
func (h *Hub) ClientCount(userID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// PublishFlashcardsCreated queues a flashcards_created event for userID.
// It never blocks: events are dropped when the hub has stopped or its
// queue is full.
func (h *Hub) PublishFlashcardsCreated(userID uuid.UUID, ids []string, subject string) {
	msg, err := NewMessage(MessageTypeFlashcardsCreated, FlashcardsCreatedPayload{
		FlashcardIDs: ids,
		Subject:      subject,
		Count:        len(ids),
	})
	if err != nil {
		h.log.Error("failed to build message", sl.Err(err))
		return
	}
	data, err := json.Marshal(msg)
	if err != nil {
		h.log.Error("failed to marshal message", sl.Err(err))
		return
	}

	select {
	case <-h.done:
		return
	default:
	}

	select {
	case h.broadcast <- &userMessage{userID: userID, data: data}:
	case <-h.done:
	default:
		h.log.Warn("broadcast queue full, dropping event", slog.String("user_id", userID.String()))
	}
}
