package websocket

import (
	"encoding/json"

	"github.com/isdelr/blog-api/internal/models"
	"github.com/rs/zerolog/log"
)

// Actions carried by feed messages.
const (
	ActionPostPublished = "post.published"
	ActionPing          = "ping"
	ActionPong          = "pong"
	ActionError         = "error"
)

// Message defines the structure for websocket messages.
type Message struct {
	Action  string      `json:"action"`
	Payload interface{} `json:"payload"`
}

func encode(msg Message) []byte {
	b, err := json.Marshal(msg)
	if err != nil {
		log.Error().Err(err).Str("action", msg.Action).Msg("Failed to encode websocket message")
		return nil
	}
	return b
}

// NewPostPublishedMessage announces a post that just became public.
func NewPostPublishedMessage(view models.PostView) []byte {
	return encode(Message{Action: ActionPostPublished, Payload: view})
}

// NewErrorMessage wraps an error string for the client.
func NewErrorMessage(msg string) []byte {
	return encode(Message{Action: ActionError, Payload: map[string]string{"error": msg}})
}

func NewPongMessage() []byte {
	return encode(Message{Action: ActionPong})
}
