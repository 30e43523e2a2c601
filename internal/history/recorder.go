package history

import (
	"github.com/rs/zerolog/log"

	"github.com/diogo/llmchat/internal/chat"
)

// Recorder appends the user and assistant messages of a chat to a Store
type Recorder struct {
	store *Store
	sub   *chat.Subscription
}

// Record subscribes a Recorder to c
func Record(c *chat.Chat, store *Store) *Recorder {
	r := &Recorder{store: store}
	r.sub = c.Subscribe(r.onMessage)
	return r
}

func (r *Recorder) onMessage(msg chat.Message) {
	if msg.Origin == chat.System {
		return
	}
	if err := r.store.Append(NewEntry(msg.Origin.String(), msg.CreatedAt, msg.Content)); err != nil {
		log.Error().Err(err).Str("path", r.store.Path()).Msg("failed to record history")
	}
}

// Close stops recording
func (r *Recorder) Close() {
	r.sub.Close()
}
