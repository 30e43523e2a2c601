// Package transcript archives every message of a chat session in SQLite.
package transcript

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"github.com/diogo/llmchat/internal/chat"
)

var ErrSessionNotFound = errors.New("session not found")

const schema = `
CREATE TABLE IF NOT EXISTS messages (
	session_id TEXT NOT NULL,
	message_id INTEGER NOT NULL,
	parent_id INTEGER NOT NULL DEFAULT 0,
	origin TEXT NOT NULL,
	producer TEXT NOT NULL DEFAULT '',
	content TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	PRIMARY KEY (session_id, message_id)
);
CREATE INDEX IF NOT EXISTS idx_messages_created ON messages(created_at);
`

// Archive is a transcript database
type Archive struct {
	db   *sql.DB
	path string
}

// Open opens or creates the database at path
func Open(path string) (*Archive, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("failed to create transcript directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open transcript: %w", err)
	}
	// SQLite allows one writer at a time
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to configure transcript: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create transcript schema: %w", err)
	}

	return &Archive{db: db, path: path}, nil
}

// Path returns the database file path
func (a *Archive) Path() string {
	return a.path
}

// Close closes the database
func (a *Archive) Close() error {
	return a.db.Close()
}

// Record stores msg under sessionID. Storing the same message twice keeps
// the first copy.
func (a *Archive) Record(ctx context.Context, sessionID string, msg chat.Message) error {
	_, err := a.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO messages
			(session_id, message_id, parent_id, origin, producer, content, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sessionID, msg.ID, msg.ParentID, msg.Origin.String(), msg.ProducerName(),
		msg.Content, msg.CreatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to record message %d: %w", msg.ID, err)
	}
	return nil
}

// Session records the messages of one Chat
type Session struct {
	ID      string
	archive *Archive
	sub     *chat.Subscription
}

// Attach starts a new session that records every message delivered on c
func (a *Archive) Attach(c *chat.Chat) *Session {
	s := &Session{ID: uuid.NewString(), archive: a}
	s.sub = c.Subscribe(s.onMessage)
	return s
}

func (s *Session) onMessage(msg chat.Message) {
	if err := s.archive.Record(context.Background(), s.ID, msg); err != nil {
		log.Error().Err(err).Str("session", s.ID).Msg("transcript write failed")
	}
}

// Close stops recording
func (s *Session) Close() {
	s.sub.Close()
}

// SessionInfo summarizes a recorded session
type SessionInfo struct {
	ID       string
	Started  time.Time
	Messages int
}

// Sessions lists recorded sessions, most recent first
func (a *Archive) Sessions(ctx context.Context) ([]SessionInfo, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT session_id, MIN(created_at), COUNT(*)
		FROM messages
		GROUP BY session_id
		ORDER BY MIN(created_at) DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []SessionInfo
	for rows.Next() {
		var info SessionInfo
		var started int64
		if err := rows.Scan(&info.ID, &started, &info.Messages); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		info.Started = time.Unix(0, started).UTC()
		sessions = append(sessions, info)
	}
	return sessions, rows.Err()
}

// Entry is one archived message. Producer is the producer's name, since
// identities do not survive the process.
type Entry struct {
	SessionID string
	MessageID int64
	ParentID  int64
	Origin    chat.Origin
	Producer  string
	Content   string
	CreatedAt time.Time
}

// Messages returns the messages of a session ordered by id
func (a *Archive) Messages(ctx context.Context, sessionID string) ([]Entry, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT message_id, parent_id, origin, producer, content, created_at
		FROM messages
		WHERE session_id = ?
		ORDER BY message_id`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to read session %s: %w", sessionID, err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e := Entry{SessionID: sessionID}
		var origin string
		var created int64
		if err := rows.Scan(&e.MessageID, &e.ParentID, &origin, &e.Producer, &e.Content, &created); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		if e.Origin, err = chat.ParseOrigin(origin); err != nil {
			return nil, err
		}
		e.CreatedAt = time.Unix(0, created).UTC()
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	return entries, nil
}
