// Package model connects LLM backends to a chat and resolves model names
// across providers.
package model

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/diogo/llmchat/internal/chat"
)

// Backend is one provider endpoint for one model name.
type Backend interface {
	Name() string
	// Send answers the last message of thread; earlier messages are context.
	Send(ctx context.Context, thread []chat.Message) (string, error)
}

// DefaultRequestTimeout bounds a single Send when no option overrides it
const DefaultRequestTimeout = 120 * time.Second

// Model answers messages on the chats it is connected to. It is the
// Producer of its replies.
type Model struct {
	backend        Backend
	requestTimeout time.Duration
	origins        map[chat.Origin]bool

	mu            sync.Mutex
	subscriptions map[*chat.Chat]*chat.Subscription
	inflight      sync.WaitGroup
}

// Option configures a Model
type Option func(*Model)

// WithRequestTimeout bounds each backend call
func WithRequestTimeout(d time.Duration) Option {
	return func(m *Model) {
		if d > 0 {
			m.requestTimeout = d
		}
	}
}

// WithOrigins restricts answering to messages of the given origins.
// Without it every message not produced by the model is answered.
func WithOrigins(origins ...chat.Origin) Option {
	return func(m *Model) {
		m.origins = make(map[chat.Origin]bool, len(origins))
		for _, o := range origins {
			m.origins[o] = true
		}
	}
}

// New wraps backend in a Model
func New(backend Backend, opts ...Option) *Model {
	m := &Model{
		backend:        backend,
		requestTimeout: DefaultRequestTimeout,
		subscriptions:  make(map[*chat.Chat]*chat.Subscription),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Name returns the backend's model name
func (m *Model) Name() string {
	return m.backend.Name()
}

// Backend returns the endpoint the model sends to
func (m *Model) Backend() Backend {
	return m.backend
}

// ProducerName implements chat.Producer
func (m *Model) ProducerName() string {
	return m.backend.Name()
}

// Connect subscribes the model to c. Connecting twice to the same chat is a
// programming error and panics.
func (m *Model) Connect(c *chat.Chat) *Connection {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.subscriptions[c]; ok {
		panic(fmt.Sprintf("model %s is already connected to this chat", m.Name()))
	}
	m.subscriptions[c] = c.Subscribe(func(msg chat.Message) {
		m.onMessage(c, msg)
	})

	log.Debug().Str("model", m.Name()).Msg("connected to chat")
	return &Connection{model: m, chat: c}
}

// Connected reports whether the model is subscribed to c
func (m *Model) Connected(c *chat.Chat) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.subscriptions[c]
	return ok
}

func (m *Model) onMessage(c *chat.Chat, msg chat.Message) {
	if msg.ProducedBy(m) {
		return
	}
	if m.origins != nil && !m.origins[msg.Origin] {
		return
	}

	thread := c.Thread(msg.ID)
	if len(thread) == 0 {
		thread = []chat.Message{msg}
	}

	// The backend call leaves the loop goroutine so that other models and
	// subscribers are not held up by the network.
	m.inflight.Add(1)
	go func() {
		defer m.inflight.Done()

		ctx, cancel := context.WithTimeout(context.Background(), m.requestTimeout)
		defer cancel()

		start := time.Now()
		reply, err := m.backend.Send(ctx, thread)
		if err != nil {
			log.Error().Err(err).Str("model", m.Name()).Int64("message", msg.ID).Msg("error sending message")
			return
		}
		log.Debug().Str("model", m.Name()).Dur("took", time.Since(start)).Msg("reply received")

		c.SendMessage(chat.Assistant, reply, msg.ID, m)
	}()
}

// Wait blocks until every backend call started so far has finished.
func (m *Model) Wait() {
	m.inflight.Wait()
}

func (m *Model) disconnect(c *chat.Chat) {
	m.mu.Lock()
	sub, ok := m.subscriptions[c]
	delete(m.subscriptions, c)
	m.mu.Unlock()

	if ok {
		sub.Close()
		log.Debug().Str("model", m.Name()).Msg("disconnected from chat")
	}
}

// Connection is the handle returned by Connect
type Connection struct {
	model *Model
	chat  *chat.Chat
	once  sync.Once
}

// Close unsubscribes the model from the chat. Safe to call more than once.
func (c *Connection) Close() {
	if c == nil {
		return
	}
	c.once.Do(func() { c.model.disconnect(c.chat) })
}
