package cache

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Cache is a local sqlite store of thread metadata and fetched message
// history. It is write-through after successful API calls; the backend
// remains the source of truth for an active thread load.
type Cache struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS threads (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL,
	message_count INTEGER NOT NULL DEFAULT 0,
	selected_documents TEXT NOT NULL DEFAULT '[]'
);
CREATE TABLE IF NOT EXISTS messages (
	id TEXT NOT NULL,
	thread_id TEXT NOT NULL,
	position INTEGER NOT NULL,
	role TEXT NOT NULL,
	content TEXT NOT NULL,
	timestamp TIMESTAMP NOT NULL,
	visualization TEXT,
	analysis TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (thread_id, position)
);
CREATE INDEX IF NOT EXISTS idx_messages_thread ON messages(thread_id);
`

// New opens (or creates) the cache database at the given path
func New(path string) (*Cache, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}
	// sqlite handles one writer at a time
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping cache: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create cache schema: %w", err)
	}

	return &Cache{db: db}, nil
}

// Reset drops all cached threads and messages
func (c *Cache) Reset(ctx context.Context) error {
	if _, err := c.db.ExecContext(ctx, `DELETE FROM messages`); err != nil {
		return fmt.Errorf("failed to clear messages: %w", err)
	}
	if _, err := c.db.ExecContext(ctx, `DELETE FROM threads`); err != nil {
		return fmt.Errorf("failed to clear threads: %w", err)
	}
	return nil
}

// Close closes the cache database
func (c *Cache) Close() error {
	return c.db.Close()
}
