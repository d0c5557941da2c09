// Package history records accepted chat messages into SQLite, off the
// broadcast path. It plays the role of the durable collaborator subscribing
// to the event stream; losing a record never affects delivery.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"

	"github.com/deepblue-labs/collab-server/internal/core"
)

const schema = `
CREATE TABLE IF NOT EXISTS chat_messages (
	id         TEXT PRIMARY KEY,
	room_id    TEXT NOT NULL,
	user_id    TEXT NOT NULL,
	content    TEXT NOT NULL,
	kind       TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_chat_messages_room ON chat_messages(room_id, id);
`

// Recorder implements core.ChatSink on a SQLite database. Archive enqueues
// and returns immediately; a single writer goroutine drains the queue.
type Recorder struct {
	db    *sql.DB
	log   *zerolog.Logger
	queue chan core.ChatArchive
}

// New opens (and if needed initializes) the history database at dbPath.
func New(dbPath string, logger *zerolog.Logger) (*Recorder, error) {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &Recorder{
		db:    db,
		log:   logger,
		queue: make(chan core.ChatArchive, 256),
	}, nil
}

// Archive enqueues a chat message for persistence. Never blocks; when the
// queue is full the message is logged and lost, which the coordinator treats
// as an external-collaborator concern.
func (r *Recorder) Archive(msg core.ChatArchive) {
	select {
	case r.queue <- msg:
	default:
		r.log.Warn().Str("id", msg.ID).Msg("history queue full, chat message not archived")
	}
}

// Run drains the queue into SQLite until ctx is cancelled.
func (r *Recorder) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-r.queue:
			if err := r.insert(ctx, msg); err != nil {
				r.log.Warn().Err(err).Str("id", msg.ID).Msg("archive chat message failed")
			}
		}
	}
}

func (r *Recorder) insert(ctx context.Context, msg core.ChatArchive) error {
	query := `
		INSERT OR IGNORE INTO chat_messages (id, room_id, user_id, content, kind, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	if _, err := r.db.ExecContext(ctx, query, msg.ID, msg.Room, msg.User, msg.Content, msg.Kind, msg.At); err != nil {
		return fmt.Errorf("insert chat message: %w", err)
	}
	return nil
}

// Messages returns up to limit archived messages for a room, oldest first.
func (r *Recorder) Messages(ctx context.Context, roomID string, limit int) ([]core.ChatArchive, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT id, room_id, user_id, content, kind, created_at
		FROM chat_messages
		WHERE room_id = ?
		ORDER BY id
		LIMIT ?
	`
	rows, err := r.db.QueryContext(ctx, query, roomID, limit)
	if err != nil {
		return nil, fmt.Errorf("query chat messages: %w", err)
	}
	defer rows.Close()

	var out []core.ChatArchive
	for rows.Next() {
		var msg core.ChatArchive
		var at time.Time
		if err := rows.Scan(&msg.ID, &msg.Room, &msg.User, &msg.Content, &msg.Kind, &at); err != nil {
			return nil, fmt.Errorf("scan chat message: %w", err)
		}
		msg.At = at
		out = append(out, msg)
	}
	return out, rows.Err()
}

// Close closes the database connection.
func (r *Recorder) Close() error {
	return r.db.Close()
}
