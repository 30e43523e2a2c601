package chat

import (
	"context"
	"sync"
	"time"
)

// Replies is what WaitForReplies collected for one turn
type Replies struct {
	// Answers reply to the awaited message.
	Answers []Message
	// Late are assistant replies to an earlier message that arrived
	// after their own wait had ended.
	Late []Message
	// TimedOut is set when the wait ended before enough answers arrived.
	TimedOut bool
}

// Inbox is a front end's seat on a Chat: it publishes as its own Producer
// and collects every message somebody else publishes.
type Inbox struct {
	chat *Chat
	name string
	sub  *Subscription

	mu      sync.Mutex
	pending []Message
	signal  chan struct{}
}

// NewInbox subscribes a new Inbox to c
func NewInbox(c *Chat, name string) *Inbox {
	in := &Inbox{
		chat:   c,
		name:   name,
		signal: make(chan struct{}, 1),
	}
	in.sub = c.Subscribe(in.receive)
	return in
}

// ProducerName implements Producer
func (in *Inbox) ProducerName() string {
	return in.name
}

func (in *Inbox) receive(msg Message) {
	if msg.ProducedBy(in) {
		return
	}

	in.mu.Lock()
	in.pending = append(in.pending, msg)
	in.mu.Unlock()

	select {
	case in.signal <- struct{}{}:
	default:
	}
}

// Send publishes content on the chat with the Inbox as producer
func (in *Inbox) Send(origin Origin, content string, parentID int64) Message {
	return in.chat.SendMessage(origin, content, parentID, in)
}

// WaitForReplies waits until n messages replying to parentID arrived or
// timeout elapsed, whichever comes first. Messages that reply to anything
// else are reported as late and never count toward n. A timed-out wait
// returns what it has with TimedOut set; only ctx cancellation is an error.
func (in *Inbox) WaitForReplies(ctx context.Context, parentID int64, n int, timeout time.Duration) (Replies, error) {
	var out Replies
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		in.drain(parentID, &out)
		if len(out.Answers) >= n {
			return out, nil
		}

		select {
		case <-in.signal:
		case <-timer.C:
			in.drain(parentID, &out)
			out.TimedOut = len(out.Answers) < n
			return out, nil
		case <-ctx.Done():
			return out, ctx.Err()
		}
	}
}

func (in *Inbox) drain(parentID int64, out *Replies) {
	in.mu.Lock()
	batch := in.pending
	in.pending = nil
	in.mu.Unlock()

	for _, msg := range batch {
		switch {
		case msg.ParentID == parentID && parentID != 0:
			out.Answers = append(out.Answers, msg)
		case msg.Origin == Assistant && msg.HasParent():
			out.Late = append(out.Late, msg)
		}
	}
}

// Close unsubscribes the Inbox
func (in *Inbox) Close() {
	in.sub.Close()
}
