package chat

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/diogo/llmchat/internal/eventloop"
)

type subscriber struct {
	key      int64
	callback func(Message)
}

// Chat stores messages and notifies subscribers on its event loop.
//
// Message storage and the subscriber list have separate locks and no
// operation holds both. Callbacks run on the loop goroutine with neither
// lock held, so they may call SendMessage or Subscribe.
type Chat struct {
	loop     *eventloop.Loop
	ownsLoop bool
	now      func() time.Time

	lastID  atomic.Int64
	lastKey atomic.Int64

	msgMu    sync.RWMutex
	messages map[int64]Message

	subMu       sync.Mutex
	subscribers []subscriber
}

// New creates a Chat that schedules its work on loop. The caller keeps
// ownership of loop.
func New(loop *eventloop.Loop) *Chat {
	return &Chat{
		loop:     loop,
		now:      time.Now,
		messages: make(map[int64]Message),
	}
}

// Create creates a Chat with its own event loop, stopped by Close.
func Create() *Chat {
	c := New(eventloop.New())
	c.ownsLoop = true
	return c
}

// SendMessage stores a new message and schedules its delivery to the
// subscribers registered when the delivery task runs.
func (c *Chat) SendMessage(origin Origin, content string, parentID int64, producer Producer) Message {
	msg := Message{
		ID:        c.lastID.Add(1),
		Origin:    origin,
		Content:   content,
		ParentID:  parentID,
		Producer:  producer,
		CreatedAt: c.now().UTC(),
	}

	c.msgMu.Lock()
	c.messages[msg.ID] = msg
	c.msgMu.Unlock()

	c.loop.Run(func() { c.deliver(msg) })
	return msg
}

func (c *Chat) deliver(msg Message) {
	c.subMu.Lock()
	subs := make([]subscriber, len(c.subscribers))
	copy(subs, c.subscribers)
	c.subMu.Unlock()

	for _, s := range subs {
		s.callback(msg)
	}
}

// Subscribe registers callback for every message delivered after the
// registration task has run. Close the returned Subscription to stop.
func (c *Chat) Subscribe(callback func(Message)) *Subscription {
	key := c.lastKey.Add(1)
	c.loop.Run(func() {
		c.subMu.Lock()
		c.subscribers = append(c.subscribers, subscriber{key: key, callback: callback})
		c.subMu.Unlock()
	})
	return &Subscription{chat: c, key: key}
}

func (c *Chat) unsubscribe(key int64) {
	c.loop.Run(func() {
		c.subMu.Lock()
		defer c.subMu.Unlock()
		for i, s := range c.subscribers {
			if s.key == key {
				c.subscribers = append(c.subscribers[:i], c.subscribers[i+1:]...)
				return
			}
		}
	})
}

// FindMessage looks up a message by id
func (c *Chat) FindMessage(id int64) (Message, bool) {
	c.msgMu.RLock()
	defer c.msgMu.RUnlock()
	msg, ok := c.messages[id]
	return msg, ok
}

// Messages returns every stored message ordered by id
func (c *Chat) Messages() []Message {
	c.msgMu.RLock()
	out := make([]Message, 0, len(c.messages))
	for _, msg := range c.messages {
		out = append(out, msg)
	}
	c.msgMu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Thread returns the message with the given id and its ancestors, oldest
// first. It returns nil for an unknown id.
func (c *Chat) Thread(id int64) []Message {
	c.msgMu.RLock()
	defer c.msgMu.RUnlock()

	var thread []Message
	for id != 0 {
		msg, ok := c.messages[id]
		if !ok {
			break
		}
		thread = append(thread, msg)
		// parents are always issued before their children
		if msg.ParentID >= msg.ID {
			break
		}
		id = msg.ParentID
	}

	for i, j := 0, len(thread)-1; i < j; i, j = i+1, j-1 {
		thread[i], thread[j] = thread[j], thread[i]
	}
	return thread
}

// Sync blocks until every task scheduled before the call has run. Must not
// be called from a subscriber callback.
func (c *Chat) Sync() {
	done := make(chan struct{})
	c.loop.Run(func() { close(done) })
	select {
	case <-done:
	case <-c.loop.Done():
	}
}

// Close stops the event loop after pending deliveries when the Chat owns it.
func (c *Chat) Close() {
	if c.ownsLoop {
		c.loop.Close()
	}
}

// Subscription is the handle returned by Subscribe
type Subscription struct {
	chat *Chat
	key  int64
	once sync.Once
}

// Close schedules removal of the callback. Safe to call more than once.
func (s *Subscription) Close() {
	if s == nil {
		return
	}
	s.once.Do(func() { s.chat.unsubscribe(s.key) })
}
