package api

import (
	"time"

	"github.com/docsage/cli/internal/viz"
)

// Document is the backend's metadata projection of an uploaded document
type Document struct {
	ID         string    `json:"id"`
	Filename   string    `json:"filename"`
	Type       string    `json:"type"`
	Size       int64     `json:"size"`
	ChunkCount int       `json:"chunk_count"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// Thread is a persisted conversation session
type Thread struct {
	ID                string    `json:"id"`
	Title             string    `json:"title"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
	MessageCount      int       `json:"message_count"`
	SelectedDocuments []string  `json:"selected_documents,omitempty"`
}

// Message is a single entry in a thread's history
type Message struct {
	ID            string             `json:"id"`
	Role          string             `json:"role"` // user, assistant
	Content       string             `json:"content"`
	Timestamp     time.Time          `json:"timestamp"`
	Visualization *viz.Visualization `json:"visualization,omitempty"`
	Analysis      string             `json:"analysis,omitempty"`
	Metadata      map[string]any     `json:"metadata,omitempty"`
}

// CreateThreadRequest seeds a new thread
type CreateThreadRequest struct {
	FirstMessage      string   `json:"first_message"`
	SelectedDocuments []string `json:"selected_documents,omitempty"`
}

// SendMessageRequest posts a user message to a thread
type SendMessageRequest struct {
	Content           string   `json:"content"`
	SelectedDocuments []string `json:"selected_documents,omitempty"`
}

// envelope is the backend's response wrapper. Every endpoint reports
// success explicitly; a payload without the flag is treated as malformed.
type envelope struct {
	Success   *bool      `json:"success"`
	Error     string     `json:"error,omitempty"`
	Document  *Document  `json:"document,omitempty"`
	Documents []Document `json:"documents,omitempty"`
	Thread    *Thread    `json:"thread,omitempty"`
	Threads   []Thread   `json:"threads,omitempty"`
	Message   *Message   `json:"message,omitempty"`
	Messages  []Message  `json:"messages,omitempty"`
}
