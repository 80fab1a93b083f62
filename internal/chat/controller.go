package chat

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/docsage/cli/internal/api"
	"github.com/docsage/cli/internal/documents"
)

// Phase is the controller's position in its send/load cycle
type Phase int

const (
	// PhaseIdle means no operation is in flight
	PhaseIdle Phase = iota
	// PhaseSending covers the upload-then-send pipeline
	PhaseSending
	// PhaseLoading covers a thread-context fetch after a thread switch
	PhaseLoading
)

// ToastKind classifies a transient notification
type ToastKind string

const (
	ToastError   ToastKind = "error"
	ToastSuccess ToastKind = "success"
	ToastInfo    ToastKind = "info"
)

// Notifier receives transient, dismissable user notifications
type Notifier interface {
	Toast(kind ToastKind, message string)
}

// Backend is the slice of the API the controller depends on
type Backend interface {
	UploadDocument(ctx context.Context, filename string, r io.Reader, tags []string) (*api.Document, error)
	CreateThread(ctx context.Context, req *api.CreateThreadRequest) (*api.Thread, error)
	SendMessage(ctx context.Context, threadID string, req *api.SendMessageRequest) (*api.Message, error)
	GetThreadContext(ctx context.Context, threadID string) ([]api.Message, error)
}

// Controller owns the active thread's message log and mediates between user
// input and the backend chat API. It tracks at most one thread at a time;
// switching threads replaces the log wholesale. Every failure is converted
// into a toast (plus, on the send path, a synthetic assistant-style error
// entry) and the controller always returns to idle.
type Controller struct {
	backend Backend
	notify  Notifier
	logger  *zap.Logger
	welcome string

	mu       sync.Mutex
	threadID string
	messages []Message
	phase    Phase

	selectedDocs    func() []string
	onThreadCreated func(api.Thread)
	onChange        func()
}

// NewController creates a controller with no active thread. The log is
// seeded with a single welcome message that never touches the backend.
func NewController(backend Backend, notify Notifier, welcome string) *Controller {
	c := &Controller{
		backend: backend,
		notify:  notify,
		logger:  zap.NewNop(),
		welcome: welcome,
	}
	c.seedWelcome()
	return c
}

// SetLogger replaces the controller's logger
func (c *Controller) SetLogger(logger *zap.Logger) {
	if logger != nil {
		c.logger = logger
	}
}

// SetDocumentSource injects the provider of the current document-context
// selection, consulted at send time
func (c *Controller) SetDocumentSource(fn func() []string) {
	c.selectedDocs = fn
}

// SetOnThreadCreated registers a callback invoked when a thread is minted
// lazily on first send, so the owner can update its selection state
func (c *Controller) SetOnThreadCreated(fn func(api.Thread)) {
	c.onThreadCreated = fn
}

// SetOnChange registers a callback invoked after every log or phase change
func (c *Controller) SetOnChange(fn func()) {
	c.onChange = fn
}

// ThreadID returns the active thread id, or "" before the first send
func (c *Controller) ThreadID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.threadID
}

// Phase returns the controller's current phase
func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// Busy reports whether an operation is in flight. The view disables input
// affordances while true; there is no queue and no cancellation.
func (c *Controller) Busy() bool {
	return c.Phase() != PhaseIdle
}

// Messages returns a copy of the ordered message log
func (c *Controller) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Message(nil), c.messages...)
}

// SendMessage sends user text and/or a file to the active thread. A call
// with empty text and no file is a no-op. When a file is given it is
// uploaded first and the minted document id joins the attached context of
// the send. A thread is created lazily on the first send.
//
// The user-visible entry is always appended before the network call that
// depends on it begins; the assistant or failure entry is appended strictly
// after that call settles.
func (c *Controller) SendMessage(ctx context.Context, text string, file *documents.FileInfo) {
	text = strings.TrimSpace(text)
	if text == "" && file == nil {
		return
	}

	c.mu.Lock()
	if c.phase != PhaseIdle {
		c.mu.Unlock()
		return
	}
	c.phase = PhaseSending
	c.mu.Unlock()
	c.changed()
	defer c.toIdle()

	var selected []string
	if c.selectedDocs != nil {
		selected = c.selectedDocs()
	}

	userIdx := -1
	if file != nil {
		doc, ok := c.uploadFile(ctx, file)
		if !ok {
			return
		}
		selected = append(selected, doc.ID)
		if text == "" {
			text = file.Caption()
		}
	} else {
		msg := newLocalMessage(RoleUser, text)
		msg.Pending = true
		userIdx = c.append(msg)
	}

	c.sendTo(ctx, text, selected, userIdx)
}

// uploadFile runs the upload leg of the pipeline: optimistic upload notice,
// upload, then acknowledgement or failure entries
func (c *Controller) uploadFile(ctx context.Context, file *documents.FileInfo) (*api.Document, bool) {
	notice := newLocalMessage(RoleUser, fmt.Sprintf("Uploading %s...", file.Filename))
	notice.Pending = true
	notice.Local = true
	idx := c.append(notice)

	f, err := os.Open(file.Path)
	if err != nil {
		c.failUpload(idx, file.Filename, err)
		return nil, false
	}
	doc, err := c.backend.UploadDocument(ctx, file.Filename, f, nil)
	f.Close()
	if err != nil {
		c.failUpload(idx, file.Filename, err)
		return nil, false
	}

	c.settle(idx, false)
	ack := fmt.Sprintf("%s uploaded successfully", doc.Filename)
	if doc.ChunkCount > 0 {
		ack = fmt.Sprintf("%s uploaded successfully (%d chunks indexed)", doc.Filename, doc.ChunkCount)
	}
	ackMsg := newLocalMessage(RoleAssistant, ack)
	ackMsg.Local = true
	c.append(ackMsg)

	c.logger.Info("document uploaded", zap.String("id", doc.ID), zap.String("filename", doc.Filename))
	return doc, true
}

// sendTo creates the thread if needed, then posts the message and appends
// the assistant reply. userIdx marks the pending user entry to settle, or
// -1 when the upload notice already represents the user's intent.
func (c *Controller) sendTo(ctx context.Context, content string, selected []string, userIdx int) {
	c.mu.Lock()
	threadID := c.threadID
	c.mu.Unlock()

	if threadID == "" {
		thread, err := c.backend.CreateThread(ctx, &api.CreateThreadRequest{
			FirstMessage:      content,
			SelectedDocuments: selected,
		})
		if err != nil {
			c.logger.Warn("thread creation failed", zap.Error(err))
			c.settle(userIdx, true)
			c.append(errorMessage(fmt.Sprintf("I couldn't start a new conversation: %v", err)))
			c.notify.Toast(ToastError, fmt.Sprintf("Couldn't create conversation: %v", err))
			return
		}

		c.mu.Lock()
		c.threadID = thread.ID
		c.mu.Unlock()
		c.logger.Info("thread created", zap.String("id", thread.ID))
		if c.onThreadCreated != nil {
			c.onThreadCreated(*thread)
		}
		threadID = thread.ID
	}

	reply, err := c.backend.SendMessage(ctx, threadID, &api.SendMessageRequest{
		Content:           content,
		SelectedDocuments: selected,
	})
	if err != nil {
		c.logger.Warn("send failed", zap.String("thread", threadID), zap.Error(err))
		c.settle(userIdx, true)
		c.append(errorMessage(fmt.Sprintf("I couldn't process your message: %v. Please try again.", err)))
		c.notify.Toast(ToastError, fmt.Sprintf("Failed to send message: %v", err))
		return
	}

	c.settle(userIdx, false)
	c.append(fromAPI(*reply))
}

// LoadThreadContext replaces the log with the thread's full history. On
// failure the log is left untouched and the error is surfaced as a toast;
// nothing is returned to the caller.
func (c *Controller) LoadThreadContext(ctx context.Context, threadID string) {
	c.mu.Lock()
	if c.phase != PhaseIdle {
		c.mu.Unlock()
		return
	}
	c.phase = PhaseLoading
	c.mu.Unlock()
	c.changed()
	defer c.toIdle()

	history, err := c.backend.GetThreadContext(ctx, threadID)
	if err != nil {
		c.logger.Warn("history load failed", zap.String("thread", threadID), zap.Error(err))
		c.notify.Toast(ToastError, fmt.Sprintf("Failed to load conversation: %v", err))
		return
	}

	log := make([]Message, 0, len(history))
	for _, m := range history {
		log = append(log, fromAPI(m))
	}

	c.mu.Lock()
	c.threadID = threadID
	c.messages = log
	c.mu.Unlock()
	c.changed()
}

// RestoreHistory adopts a locally cached history for a thread without
// contacting the backend, for rendering a conversation while the backend is
// unreachable. Dropped while an operation is in flight, like any other
// re-entrant call.
func (c *Controller) RestoreHistory(threadID string, history []api.Message) {
	if threadID == "" || len(history) == 0 {
		return
	}

	c.mu.Lock()
	if c.phase != PhaseIdle {
		c.mu.Unlock()
		return
	}
	log := make([]Message, 0, len(history))
	for _, m := range history {
		log = append(log, fromAPI(m))
	}
	c.threadID = threadID
	c.messages = log
	c.mu.Unlock()

	c.logger.Info("restored cached history", zap.String("thread", threadID), zap.Int("messages", len(history)))
	c.changed()
}

// SetThread reacts to an externally-supplied thread id change. An empty id
// resets the controller to the seeded welcome state without contacting the
// backend; a new id triggers a full history load.
func (c *Controller) SetThread(ctx context.Context, threadID string) {
	c.mu.Lock()
	current := c.threadID
	c.mu.Unlock()
	if threadID == current {
		return
	}

	if threadID == "" {
		c.mu.Lock()
		if c.phase != PhaseIdle {
			c.mu.Unlock()
			return
		}
		c.threadID = ""
		c.messages = nil
		c.mu.Unlock()
		c.seedWelcome()
		c.changed()
		return
	}

	c.LoadThreadContext(ctx, threadID)
}

// seedWelcome appends the local welcome message to an empty log
func (c *Controller) seedWelcome() {
	if c.welcome == "" {
		return
	}
	c.mu.Lock()
	if len(c.messages) == 0 {
		msg := newLocalMessage(RoleAssistant, c.welcome)
		msg.Local = true
		c.messages = append(c.messages, msg)
	}
	c.mu.Unlock()
}

// append adds a message to the log and returns its index
func (c *Controller) append(m Message) int {
	c.mu.Lock()
	c.messages = append(c.messages, m)
	idx := len(c.messages) - 1
	c.mu.Unlock()
	c.changed()
	return idx
}

// settle flips a pending entry to confirmed or failed. Settling index -1
// is a no-op.
func (c *Controller) settle(idx int, failed bool) {
	if idx < 0 {
		return
	}
	c.mu.Lock()
	if idx < len(c.messages) {
		c.messages[idx].Pending = false
		c.messages[idx].Failed = failed
	}
	c.mu.Unlock()
	c.changed()
}

// failUpload settles the upload notice as failed and reports the error
func (c *Controller) failUpload(idx int, filename string, err error) {
	c.logger.Warn("upload failed", zap.String("filename", filename), zap.Error(err))
	c.settle(idx, true)
	c.append(errorMessage(fmt.Sprintf("I couldn't upload %s: %v. Please try again.", filename, err)))
	c.notify.Toast(ToastError, fmt.Sprintf("Upload failed: %v", err))
}

func (c *Controller) toIdle() {
	c.mu.Lock()
	c.phase = PhaseIdle
	c.mu.Unlock()
	c.changed()
}

func (c *Controller) changed() {
	if c.onChange != nil {
		c.onChange()
	}
}

// errorMessage builds a synthetic assistant-style failure entry so the
// conversation stays legible after an error
func errorMessage(content string) Message {
	m := newLocalMessage(RoleAssistant, content)
	m.Failed = true
	m.Local = true
	return m
}
