package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/tactics-catalog/internal/domain"
	"github.com/tactics-catalog/internal/search"
)

// Message types
const (
	MessageTypeSearch        = "search"
	MessageTypeSearchResults = "search_results"
	MessageTypeLikeUpdate    = "like_update"
	MessageTypeSubscribe     = "subscribe"
	MessageTypeUnsubscribe   = "unsubscribe"
	MessageTypeSubscribed    = "subscribed"
	MessageTypeUnsubscribed  = "unsubscribed"
	MessageTypePing          = "ping"
	MessageTypePong          = "pong"
	MessageTypeError         = "error"
)

// Message represents a WebSocket message
type Message struct {
	Type       string      `json:"type"`
	PlaylistID string      `json:"playlist_id,omitempty"`
	Data       interface{} `json:"data,omitempty"`
	Timestamp  time.Time   `json:"timestamp"`
}

// LikeUpdate carries a playlist's new like count
type LikeUpdate struct {
	PlaylistID string `json:"playlist_id"`
	Likes      int64  `json:"likes"`
}

// Hub maintains the set of active clients, their live search sessions and
// their playlist subscriptions
type Hub struct {
	// Subscribed clients by playlist ID
	clients map[string]map[*Client]bool

	// All connected clients
	allClients map[*Client]bool

	register    chan *Client
	unregister  chan *Client
	broadcast   chan *Message
	subscribe   chan *subscriptionRequest
	unsubscribe chan *subscriptionRequest

	mu sync.RWMutex

	searcher       search.Searcher
	searchDebounce time.Duration

	logger *slog.Logger

	// Context for shutdown
	ctx    context.Context
	cancel context.CancelFunc
}

type subscriptionRequest struct {
	client     *Client
	playlistID string
}

// NewHub creates a new Hub. Each client gets a live search session over
// searcher with the given quiet interval.
func NewHub(searcher search.Searcher, searchDebounce time.Duration, logger *slog.Logger) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		clients:        make(map[string]map[*Client]bool),
		allClients:     make(map[*Client]bool),
		register:       make(chan *Client),
		unregister:     make(chan *Client),
		broadcast:      make(chan *Message, 256),
		subscribe:      make(chan *subscriptionRequest, 64),
		unsubscribe:    make(chan *subscriptionRequest, 64),
		searcher:       searcher,
		searchDebounce: searchDebounce,
		logger:         logger,
		ctx:            ctx,
		cancel:         cancel,
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	h.logger.Info("WebSocket hub started")
	for {
		select {
		case <-h.ctx.Done():
			h.logger.Info("WebSocket hub stopping")
			return

		case client := <-h.register:
			h.mu.Lock()
			h.allClients[client] = true
			h.mu.Unlock()
			h.logger.Debug("client registered", "client_id", client.id)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.allClients[client]; ok {
				delete(h.allClients, client)
				for playlistID, clients := range h.clients {
					if _, ok := clients[client]; ok {
						delete(clients, client)
						if len(clients) == 0 {
							delete(h.clients, playlistID)
						}
					}
				}
				close(client.send)
			}
			h.mu.Unlock()
			h.logger.Debug("client unregistered", "client_id", client.id)

		case req := <-h.subscribe:
			h.mu.Lock()
			if _, ok := h.clients[req.playlistID]; !ok {
				h.clients[req.playlistID] = make(map[*Client]bool)
			}
			h.clients[req.playlistID][req.client] = true
			h.mu.Unlock()
			h.logger.Debug("client subscribed", "client_id", req.client.id, "playlist_id", req.playlistID)

		case req := <-h.unsubscribe:
			h.mu.Lock()
			if clients, ok := h.clients[req.playlistID]; ok {
				delete(clients, req.client)
				if len(clients) == 0 {
					delete(h.clients, req.playlistID)
				}
			}
			h.mu.Unlock()
			h.logger.Debug("client unsubscribed", "client_id", req.client.id, "playlist_id", req.playlistID)

		case message := <-h.broadcast:
			h.broadcastMessage(message)
		}
	}
}

// Stop stops the hub
func (h *Hub) Stop() {
	h.cancel()
}

// broadcastMessage sends a message to the clients subscribed to its playlist
func (h *Hub) broadcastMessage(message *Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	clients, ok := h.clients[message.PlaylistID]
	if !ok {
		return
	}

	data, err := json.Marshal(message)
	if err != nil {
		h.logger.Error("failed to marshal message", "error", err)
		return
	}

	for client := range clients {
		select {
		case client.send <- data:
		default:
			h.logger.Warn("client buffer full, skipping", "client_id", client.id)
		}
	}
}

// BroadcastLikeUpdate sends a playlist's new like count to its subscribers
func (h *Hub) BroadcastLikeUpdate(playlistID string, likes int64) {
	message := &Message{
		Type:       MessageTypeLikeUpdate,
		PlaylistID: playlistID,
		Data: LikeUpdate{
			PlaylistID: playlistID,
			Likes:      likes,
		},
		Timestamp: time.Now(),
	}

	select {
	case h.broadcast <- message:
	default:
		h.logger.Warn("broadcast channel full, dropping message")
	}
}

// Register adds a client to the hub
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.ctx.Done():
	}
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.ctx.Done():
	}
}

// Subscribe adds a client to a playlist's like updates
func (h *Hub) Subscribe(client *Client, playlistID string) {
	req := &subscriptionRequest{
		client:     client,
		playlistID: playlistID,
	}
	select {
	case h.subscribe <- req:
	case <-h.ctx.Done():
	}
}

// Unsubscribe removes a client from a playlist's like updates
func (h *Hub) Unsubscribe(client *Client, playlistID string) {
	req := &subscriptionRequest{
		client:     client,
		playlistID: playlistID,
	}
	select {
	case h.unsubscribe <- req:
	case <-h.ctx.Done():
	}
}

// GetSubscriberCount returns the number of subscribers for a playlist
func (h *Hub) GetSubscriberCount(playlistID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if clients, ok := h.clients[playlistID]; ok {
		return len(clients)
	}
	return 0
}

// GetTotalConnections returns the total number of connected clients
func (h *Hub) GetTotalConnections() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.allClients)
}

// newSession starts a live search session delivering into deliver
func (h *Hub) newSession(deliver func(domain.SearchResults)) *search.Session {
	debouncer := search.NewDebouncer(h.searchDebounce, nil)
	return search.NewSession(h.ctx, h.searcher, debouncer, deliver, h.logger)
}
