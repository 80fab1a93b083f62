package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/docsage/cli/internal/api"
)

// PutThread inserts or updates a thread's cached metadata
func (c *Cache) PutThread(ctx context.Context, t *api.Thread) error {
	docs, err := json.Marshal(t.SelectedDocuments)
	if err != nil {
		return fmt.Errorf("failed to marshal selected documents: %w", err)
	}

	_, err = c.db.ExecContext(ctx,
		`INSERT INTO threads (id, title, created_at, updated_at, message_count, selected_documents)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   title = excluded.title,
		   updated_at = excluded.updated_at,
		   message_count = excluded.message_count,
		   selected_documents = excluded.selected_documents`,
		t.ID, t.Title, t.CreatedAt, t.UpdatedAt, t.MessageCount, string(docs),
	)
	if err != nil {
		return fmt.Errorf("failed to cache thread: %w", err)
	}
	return nil
}

// PutThreads caches a full thread listing
func (c *Cache) PutThreads(ctx context.Context, threads []api.Thread) error {
	for i := range threads {
		if err := c.PutThread(ctx, &threads[i]); err != nil {
			return err
		}
	}
	return nil
}

// ListThreads returns cached threads, most recently updated first
func (c *Cache) ListThreads(ctx context.Context) ([]api.Thread, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT id, title, created_at, updated_at, message_count, selected_documents
		 FROM threads ORDER BY updated_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list cached threads: %w", err)
	}
	defer rows.Close()

	var threads []api.Thread
	for rows.Next() {
		var t api.Thread
		var docs string
		if err := rows.Scan(&t.ID, &t.Title, &t.CreatedAt, &t.UpdatedAt, &t.MessageCount, &docs); err != nil {
			return nil, fmt.Errorf("failed to scan thread: %w", err)
		}
		if err := json.Unmarshal([]byte(docs), &t.SelectedDocuments); err != nil {
			return nil, fmt.Errorf("failed to decode selected documents: %w", err)
		}
		threads = append(threads, t)
	}
	return threads, rows.Err()
}

// DeleteThread removes a thread and its cached messages
func (c *Cache) DeleteThread(ctx context.Context, id string) error {
	if _, err := c.db.ExecContext(ctx, `DELETE FROM messages WHERE thread_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete cached messages: %w", err)
	}
	if _, err := c.db.ExecContext(ctx, `DELETE FROM threads WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete cached thread: %w", err)
	}
	return nil
}

// ReplaceMessages swaps a thread's cached history wholesale, preserving
// insertion order via the position column
func (c *Cache) ReplaceMessages(ctx context.Context, threadID string, messages []api.Message) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE thread_id = ?`, threadID); err != nil {
		return fmt.Errorf("failed to clear cached messages: %w", err)
	}

	for i, m := range messages {
		var vizData sql.NullString
		if m.Visualization != nil {
			data, err := json.Marshal(m.Visualization)
			if err != nil {
				return fmt.Errorf("failed to marshal visualization: %w", err)
			}
			vizData = sql.NullString{String: string(data), Valid: true}
		}

		_, err := tx.ExecContext(ctx,
			`INSERT INTO messages (id, thread_id, position, role, content, timestamp, visualization, analysis)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			m.ID, threadID, i, m.Role, m.Content, m.Timestamp, vizData, m.Analysis,
		)
		if err != nil {
			return fmt.Errorf("failed to cache message %d: %w", i, err)
		}
	}

	return tx.Commit()
}

// GetMessages returns a thread's cached history in insertion order
func (c *Cache) GetMessages(ctx context.Context, threadID string) ([]api.Message, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT id, role, content, timestamp, visualization, analysis
		 FROM messages WHERE thread_id = ? ORDER BY position`,
		threadID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get cached messages: %w", err)
	}
	defer rows.Close()

	var messages []api.Message
	for rows.Next() {
		var m api.Message
		var vizData sql.NullString
		if err := rows.Scan(&m.ID, &m.Role, &m.Content, &m.Timestamp, &vizData, &m.Analysis); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		if vizData.Valid {
			if err := json.Unmarshal([]byte(vizData.String), &m.Visualization); err != nil {
				return nil, fmt.Errorf("failed to decode visualization: %w", err)
			}
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}
