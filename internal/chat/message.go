// Package chat is the message store and publish/subscribe bus shared by the
// user front end and every connected model.
package chat

import (
	"fmt"
	"time"
)

// Origin is the role of a message's author
type Origin int

const (
	User Origin = iota
	System
	Assistant
)

func (o Origin) String() string {
	switch o {
	case User:
		return "user"
	case System:
		return "system"
	case Assistant:
		return "assistant"
	default:
		return fmt.Sprintf("origin(%d)", int(o))
	}
}

// ParseOrigin is the inverse of Origin.String
func ParseOrigin(s string) (Origin, error) {
	switch s {
	case "user":
		return User, nil
	case "system":
		return System, nil
	case "assistant":
		return Assistant, nil
	}
	return 0, fmt.Errorf("unknown origin %q", s)
}

// Producer identifies whoever published a message. Identity is interface
// equality, so implementations should be pointers.
type Producer interface {
	ProducerName() string
}

// Message is one entry on a Chat. ID and ParentID are issued by the Chat;
// ParentID 0 means no parent.
type Message struct {
	ID        int64
	Origin    Origin
	Content   string
	ParentID  int64
	Producer  Producer
	CreatedAt time.Time
}

// HasParent reports whether the message replies to another one
func (m Message) HasParent() bool {
	return m.ParentID != 0
}

// ProducedBy reports whether p published the message. A nil p never matches.
func (m Message) ProducedBy(p Producer) bool {
	return p != nil && m.Producer == p
}

// ProducerName returns the producer's name, or "" for anonymous messages
func (m Message) ProducerName() string {
	if m.Producer == nil {
		return ""
	}
	return m.Producer.ProducerName()
}

func (m Message) String() string {
	return fmt.Sprintf("#%d %s: %s", m.ID, m.Origin, m.Content)
}
