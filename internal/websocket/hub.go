package websocket

import (
	"context"

	"github.com/isdelr/blog-api/internal/models"
	"github.com/rs/zerolog/log"
)

const broadcastBuffer = 64

// Hub maintains the set of active feed clients and broadcasts messages to them.
type Hub struct {
	// Registered clients.
	clients map[*Client]bool

	// Outbound messages for every client.
	Broadcast chan []byte

	// Register requests from the clients.
	Register chan *Client

	// Unregister requests from clients.
	Unregister chan *Client

	// Closed once Run has returned.
	done chan struct{}
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		Broadcast:  make(chan []byte, broadcastBuffer),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		done:       make(chan struct{}),
	}
}

// Attach registers client with the running hub. It reports false, leaving
// the client untouched, once the hub has stopped.
func (h *Hub) Attach(client *Client) bool {
	select {
	case h.Register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Detach unregisters client. After the hub has stopped it returns at once.
func (h *Hub) Detach(client *Client) {
	select {
	case h.Unregister <- client:
	case <-h.done:
	}
}

// Run processes hub traffic until ctx is cancelled, then closes every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				client.close()
				delete(h.clients, client)
			}
			return
		case client := <-h.Register:
			h.clients[client] = true
			log.Info().Str("client_id", client.ID).Int("total_clients", len(h.clients)).Msg("Feed client connected")
		case client := <-h.Unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.close()
				log.Info().Str("client_id", client.ID).Int("total_clients", len(h.clients)).Msg("Feed client disconnected")
			}
		case message := <-h.Broadcast:
			for client := range h.clients {
				if !client.Queue(message) {
					// Slow consumer; drop it rather than stall the feed.
					client.close()
					delete(h.clients, client)
					log.Warn().Str("client_id", client.ID).Msg("Dropped slow feed client")
				}
			}
		}
	}
}

// PublishPost queues a post.published message. It never blocks; when the
// queue is full the message is dropped.
func (h *Hub) PublishPost(view models.PostView) {
	msg := NewPostPublishedMessage(view)
	if msg == nil {
		return
	}
	select {
	case h.Broadcast <- msg:
	default:
		log.Warn().Int64("post_id", view.ID).Msg("Feed broadcast queue full, dropping message")
	}
}
