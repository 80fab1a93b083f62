package chat

import (
	"time"

	"github.com/google/uuid"

	"github.com/docsage/cli/internal/api"
	"github.com/docsage/cli/internal/viz"
)

// Message roles
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single entry in the controller's log. Entries are appended
// in order and never reordered or edited; the Pending and Failed flags are
// the only mutable fields, flipped exactly once when the network call the
// entry anticipates settles.
type Message struct {
	ID            string
	Role          string
	Content       string
	Timestamp     time.Time
	Visualization *viz.Visualization
	Analysis      string
	Metadata      map[string]any

	// Pending marks a provisional optimistic append awaiting settlement
	Pending bool
	// Failed marks an entry whose network call did not succeed
	Failed bool
	// Local marks an entry that exists only in this client's log and never
	// in the server history: the welcome message, upload notices and
	// acknowledgements, and synthetic error entries
	Local bool
}

// newLocalMessage creates a provisional entry with a client-minted id
func newLocalMessage(role, content string) Message {
	return Message{
		ID:        uuid.New().String(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	}
}

// fromAPI converts a server message into a log entry
func fromAPI(m api.Message) Message {
	return Message{
		ID:            m.ID,
		Role:          m.Role,
		Content:       m.Content,
		Timestamp:     m.Timestamp,
		Visualization: m.Visualization,
		Analysis:      m.Analysis,
		Metadata:      m.Metadata,
	}
}

// ToAPI converts a log entry to the wire shape, used for cache write-through
func (m Message) ToAPI() api.Message {
	return api.Message{
		ID:            m.ID,
		Role:          m.Role,
		Content:       m.Content,
		Timestamp:     m.Timestamp,
		Visualization: m.Visualization,
		Analysis:      m.Analysis,
		Metadata:      m.Metadata,
	}
}
