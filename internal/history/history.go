// Package history provides the local chat history file.
package history

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"
)

// TimestampLayout is the on-disk timestamp format, always UTC
const TimestampLayout = "2006-01-02T15:04:05Z"

// ContentTypeText is the only content type written today
const ContentTypeText = "text"

// Authors accepted in the history file
const (
	AuthorUser      = "user"
	AuthorAssistant = "assistant"
	AuthorSystem    = "system"
)

// Timestamp is a second-precision UTC time. A timestamp read from the file
// that does not match TimestampLayout keeps its text and a zero Time.
type Timestamp struct {
	time.Time
	raw string
}

// NewTimestamp truncates t to seconds in UTC
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t.UTC().Truncate(time.Second)}
}

// ParseTimestamp reads a file timestamp. Text in another format is kept
// verbatim so that it is written back unchanged.
func ParseTimestamp(s string) Timestamp {
	t, err := time.Parse(TimestampLayout, s)
	if err != nil {
		return Timestamp{raw: s}
	}
	return Timestamp{Time: t}
}

// Raw returns the unparsed text of a timestamp that did not match the layout
func (ts Timestamp) Raw() string {
	return ts.raw
}

func (ts Timestamp) String() string {
	if ts.raw != "" {
		return ts.raw
	}
	return ts.UTC().Format(TimestampLayout)
}

// MarshalJSON implements json.Marshaler
func (ts Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(ts.String())
}

// UnmarshalJSON implements json.Unmarshaler
func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*ts = ParseTimestamp(s)
	return nil
}

// Entry is one message in the history file. Field order matches the file.
type Entry struct {
	Author      string    `json:"author"`
	Content     string    `json:"content"`
	ContentType string    `json:"content_type"`
	Timestamp   Timestamp `json:"timestamp"`
}

// NewEntry creates a text entry
func NewEntry(author string, at time.Time, content string) Entry {
	return Entry{
		Author:      author,
		Content:     content,
		ContentType: ContentTypeText,
		Timestamp:   NewTimestamp(at),
	}
}

// History is the ordered list of entries
type History []Entry

// Marshal encodes h as a JSON array indented with four spaces
func (h History) Marshal() ([]byte, error) {
	if h == nil {
		h = History{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(h); err != nil {
		return nil, fmt.Errorf("failed to marshal history: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Parse decodes a history file. Empty input is an empty history; input
// that is not a JSON array is an error. Entries with missing fields or an
// unknown author are skipped.
func Parse(data []byte) (History, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return History{}, nil
	}
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("invalid chat history format: malformed JSON")
	}
	doc := gjson.ParseBytes(data)
	if !doc.IsArray() {
		return nil, fmt.Errorf("invalid chat history format: not an array")
	}

	h := History{}
	doc.ForEach(func(idx, item gjson.Result) bool {
		entry, ok := parseEntry(item)
		if !ok {
			log.Warn().Int64("index", idx.Int()).Msg("skipping invalid chat history entry")
			return true
		}
		h = append(h, entry)
		return true
	})
	return h, nil
}

func parseEntry(item gjson.Result) (Entry, bool) {
	if !item.IsObject() {
		return Entry{}, false
	}
	fields := []gjson.Result{
		item.Get("author"),
		item.Get("timestamp"),
		item.Get("content_type"),
		item.Get("content"),
	}
	for _, f := range fields {
		if f.Type != gjson.String {
			return Entry{}, false
		}
	}

	switch fields[0].String() {
	case AuthorUser, AuthorAssistant, AuthorSystem:
	default:
		return Entry{}, false
	}

	return Entry{
		Author:      fields[0].String(),
		Timestamp:   ParseTimestamp(fields[1].String()),
		ContentType: fields[2].String(),
		Content:     fields[3].String(),
	}, true
}
