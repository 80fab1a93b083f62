package chat

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docsage/cli/internal/api"
	"github.com/docsage/cli/internal/documents"
)

const welcome = "Hello! Upload a document to get started."

type fakeBackend struct {
	uploadFn  func(filename string, data []byte) (*api.Document, error)
	createFn  func(req *api.CreateThreadRequest) (*api.Thread, error)
	sendFn    func(threadID string, req *api.SendMessageRequest) (*api.Message, error)
	contextFn func(threadID string) ([]api.Message, error)

	uploads, creates, sends, loads int
}

func (f *fakeBackend) UploadDocument(_ context.Context, filename string, r io.Reader, _ []string) (*api.Document, error) {
	f.uploads++
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if f.uploadFn != nil {
		return f.uploadFn(filename, data)
	}
	return &api.Document{ID: "doc-1", Filename: filename, Size: int64(len(data))}, nil
}

func (f *fakeBackend) CreateThread(_ context.Context, req *api.CreateThreadRequest) (*api.Thread, error) {
	f.creates++
	if f.createFn != nil {
		return f.createFn(req)
	}
	return &api.Thread{ID: "thread-1", Title: req.FirstMessage}, nil
}

func (f *fakeBackend) SendMessage(_ context.Context, threadID string, req *api.SendMessageRequest) (*api.Message, error) {
	f.sends++
	if f.sendFn != nil {
		return f.sendFn(threadID, req)
	}
	return &api.Message{ID: fmt.Sprintf("srv-%d", f.sends), Role: RoleAssistant, Content: "reply to: " + req.Content, Timestamp: time.Now()}, nil
}

func (f *fakeBackend) GetThreadContext(_ context.Context, threadID string) ([]api.Message, error) {
	f.loads++
	if f.contextFn != nil {
		return f.contextFn(threadID)
	}
	return nil, nil
}

type fakeNotifier struct {
	toasts []string
	kinds  []ToastKind
}

func (n *fakeNotifier) Toast(kind ToastKind, message string) {
	n.kinds = append(n.kinds, kind)
	n.toasts = append(n.toasts, message)
}

func newTestController(backend *fakeBackend) (*Controller, *fakeNotifier) {
	notifier := &fakeNotifier{}
	return NewController(backend, notifier, welcome), notifier
}

func tempAttachment(t *testing.T, name, content string) *documents.FileInfo {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	info, err := documents.Inspect(path, 0)
	require.NoError(t, err)
	return info
}

func roles(msgs []Message) []string {
	var out []string
	for _, m := range msgs {
		out = append(out, m.Role)
	}
	return out
}

func TestNewController_SeedsWelcome(t *testing.T) {
	c, _ := newTestController(&fakeBackend{})

	msgs := c.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, RoleAssistant, msgs[0].Role)
	assert.Equal(t, welcome, msgs[0].Content)
	assert.Empty(t, c.ThreadID())
	assert.False(t, c.Busy())
}

func TestSendMessage_EmptyIsNoOp(t *testing.T) {
	backend := &fakeBackend{}
	c, notifier := newTestController(backend)

	c.SendMessage(context.Background(), "   ", nil)

	assert.Len(t, c.Messages(), 1)
	assert.Zero(t, backend.creates)
	assert.Zero(t, backend.sends)
	assert.Zero(t, backend.uploads)
	assert.Empty(t, notifier.toasts)
}

func TestSendMessage_CreatesThreadLazily(t *testing.T) {
	backend := &fakeBackend{}
	c, _ := newTestController(backend)

	var created *api.Thread
	c.SetOnThreadCreated(func(t api.Thread) { created = &t })

	c.SendMessage(context.Background(), "what is in this report?", nil)

	require.NotNil(t, created)
	assert.Equal(t, "thread-1", created.ID)
	assert.Equal(t, "thread-1", c.ThreadID())
	assert.Equal(t, 1, backend.creates)
	assert.Equal(t, 1, backend.sends)

	msgs := c.Messages()
	require.Len(t, msgs, 3) // welcome, user, assistant
	assert.Equal(t, []string{RoleAssistant, RoleUser, RoleAssistant}, roles(msgs))
	assert.Equal(t, "what is in this report?", msgs[1].Content)
	assert.False(t, msgs[1].Pending)
	assert.False(t, msgs[1].Failed)
	assert.False(t, c.Busy())
}

func TestSendMessage_ReusesActiveThread(t *testing.T) {
	backend := &fakeBackend{}
	c, _ := newTestController(backend)

	c.SendMessage(context.Background(), "first", nil)
	c.SendMessage(context.Background(), "second", nil)

	assert.Equal(t, 1, backend.creates)
	assert.Equal(t, 2, backend.sends)
	assert.Len(t, c.Messages(), 5)
}

func TestSendMessage_OptimisticAppendPrecedesNetworkCall(t *testing.T) {
	backend := &fakeBackend{}
	c, _ := newTestController(backend)

	var logAtSend []Message
	backend.sendFn = func(threadID string, req *api.SendMessageRequest) (*api.Message, error) {
		logAtSend = c.Messages()
		return &api.Message{ID: "srv-1", Role: RoleAssistant, Content: "ok"}, nil
	}

	c.SendMessage(context.Background(), "hello", nil)

	// The user entry was visible, pending, before the send settled.
	require.Len(t, logAtSend, 2)
	assert.Equal(t, RoleUser, logAtSend[1].Role)
	assert.True(t, logAtSend[1].Pending)
}

func TestSendMessage_FailureAppendsExactlyOneError(t *testing.T) {
	backend := &fakeBackend{}
	backend.sendFn = func(string, *api.SendMessageRequest) (*api.Message, error) {
		return nil, fmt.Errorf("backend exploded")
	}
	c, notifier := newTestController(backend)

	c.SendMessage(context.Background(), "hello", nil)

	msgs := c.Messages()
	require.Len(t, msgs, 3) // welcome, user (failed), error
	assert.True(t, msgs[1].Failed)
	assert.False(t, msgs[1].Pending)
	assert.Equal(t, RoleAssistant, msgs[2].Role)
	assert.True(t, msgs[2].Failed)
	assert.Contains(t, msgs[2].Content, "backend exploded")

	require.Len(t, notifier.toasts, 1)
	assert.Equal(t, ToastError, notifier.kinds[0])
	assert.False(t, c.Busy())
}

func TestSendMessage_ThreadCreationFailure(t *testing.T) {
	backend := &fakeBackend{}
	backend.createFn = func(*api.CreateThreadRequest) (*api.Thread, error) {
		return nil, fmt.Errorf("no capacity")
	}
	c, notifier := newTestController(backend)

	c.SendMessage(context.Background(), "hello", nil)

	assert.Zero(t, backend.sends)
	assert.Empty(t, c.ThreadID())

	msgs := c.Messages()
	require.Len(t, msgs, 3)
	assert.True(t, msgs[1].Failed)
	assert.Contains(t, notifier.toasts[0], "no capacity")
	assert.False(t, c.Busy())
}

func TestSendMessage_WithFile_UploadThenSend(t *testing.T) {
	backend := &fakeBackend{}
	backend.uploadFn = func(filename string, data []byte) (*api.Document, error) {
		return &api.Document{ID: "doc-9", Filename: filename, ChunkCount: 4}, nil
	}

	var sentReq *api.SendMessageRequest
	backend.sendFn = func(threadID string, req *api.SendMessageRequest) (*api.Message, error) {
		sentReq = req
		return &api.Message{ID: "srv-1", Role: RoleAssistant, Content: "analyzed"}, nil
	}

	c, _ := newTestController(backend)
	att := tempAttachment(t, "report.csv", "a,b\n1,2\n")

	c.SendMessage(context.Background(), "", att)

	require.NotNil(t, sentReq)
	// The minted document id joins the attached context.
	assert.Contains(t, sentReq.SelectedDocuments, "doc-9")
	// Empty text is rewritten to the synthesized caption.
	assert.Contains(t, sentReq.Content, "report.csv")

	msgs := c.Messages()
	require.Len(t, msgs, 4) // welcome, upload notice, upload ack, assistant
	assert.Equal(t, RoleUser, msgs[1].Role)
	assert.Contains(t, msgs[1].Content, "Uploading report.csv")
	assert.False(t, msgs[1].Pending)
	assert.Contains(t, msgs[2].Content, "uploaded successfully (4 chunks indexed)")
	assert.Equal(t, "analyzed", msgs[3].Content)
}

func TestSendMessage_UploadSucceedsSendFails_ExactOrder(t *testing.T) {
	backend := &fakeBackend{}
	backend.uploadFn = func(filename string, data []byte) (*api.Document, error) {
		return &api.Document{ID: "doc-9", Filename: filename}, nil
	}
	backend.sendFn = func(string, *api.SendMessageRequest) (*api.Message, error) {
		return nil, fmt.Errorf("model unavailable")
	}

	c, notifier := newTestController(backend)
	att := tempAttachment(t, "notes.txt", "hello")

	c.SendMessage(context.Background(), "summarize this", att)

	msgs := c.Messages()
	require.Len(t, msgs, 4)
	// welcome, then: user upload notice, assistant upload ack, error -- in that order.
	assert.Contains(t, msgs[1].Content, "Uploading notes.txt")
	assert.Equal(t, RoleUser, msgs[1].Role)
	assert.False(t, msgs[1].Failed)
	assert.Contains(t, msgs[2].Content, "uploaded successfully")
	assert.True(t, msgs[3].Failed)
	assert.Contains(t, msgs[3].Content, "model unavailable")

	require.Len(t, notifier.toasts, 1)
	assert.False(t, c.Busy())
}

func TestSendMessage_UploadFailure(t *testing.T) {
	backend := &fakeBackend{}
	backend.uploadFn = func(string, []byte) (*api.Document, error) {
		return nil, fmt.Errorf("disk full")
	}
	c, notifier := newTestController(backend)
	att := tempAttachment(t, "notes.txt", "hello")

	c.SendMessage(context.Background(), "", att)

	// Upload failed: no thread creation, no send.
	assert.Zero(t, backend.creates)
	assert.Zero(t, backend.sends)

	msgs := c.Messages()
	require.Len(t, msgs, 3) // welcome, failed notice, error
	assert.True(t, msgs[1].Failed)
	assert.True(t, msgs[2].Failed)
	assert.Contains(t, notifier.toasts[0], "disk full")
	assert.False(t, c.Busy())
}

func TestSendMessage_DroppedWhileBusy(t *testing.T) {
	backend := &fakeBackend{}
	c, _ := newTestController(backend)

	backend.sendFn = func(threadID string, req *api.SendMessageRequest) (*api.Message, error) {
		// Re-entrant send while one is in flight must be dropped.
		c.SendMessage(context.Background(), "sneaky second send", nil)
		return &api.Message{ID: "srv-1", Role: RoleAssistant, Content: "ok"}, nil
	}

	c.SendMessage(context.Background(), "first", nil)

	assert.Equal(t, 1, backend.sends)
	assert.Len(t, c.Messages(), 3)
}

func TestSetThread_SwitchReplacesLogWholesale(t *testing.T) {
	backend := &fakeBackend{}
	histories := map[string][]api.Message{
		"A": {
			{ID: "a1", Role: RoleUser, Content: "about A"},
			{ID: "a2", Role: RoleAssistant, Content: "A it is"},
		},
		"B": {
			{ID: "b1", Role: RoleUser, Content: "about B"},
		},
	}
	backend.contextFn = func(threadID string) ([]api.Message, error) {
		return histories[threadID], nil
	}
	c, _ := newTestController(backend)

	c.SetThread(context.Background(), "A")
	require.Len(t, c.Messages(), 2)
	assert.Equal(t, "A", c.ThreadID())

	c.SetThread(context.Background(), "B")
	msgs := c.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "b1", msgs[0].ID)
	assert.Equal(t, "B", c.ThreadID())

	// Switching to no thread resets to the single welcome message.
	c.SetThread(context.Background(), "")
	msgs = c.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, welcome, msgs[0].Content)
	assert.Empty(t, c.ThreadID())
}

func TestSetThread_SameIDIsNoOp(t *testing.T) {
	backend := &fakeBackend{}
	c, _ := newTestController(backend)

	c.SetThread(context.Background(), "A")
	require.Equal(t, 1, backend.loads)

	c.SetThread(context.Background(), "A")
	assert.Equal(t, 1, backend.loads)
}

func TestLoadThreadContext_FailureLeavesLogUntouched(t *testing.T) {
	backend := &fakeBackend{}
	c, notifier := newTestController(backend)

	c.SendMessage(context.Background(), "hello", nil)
	before := c.Messages()

	backend.contextFn = func(string) ([]api.Message, error) {
		return nil, fmt.Errorf("gateway timeout")
	}
	c.LoadThreadContext(context.Background(), "other-thread")

	assert.Equal(t, before, c.Messages())
	assert.Equal(t, "thread-1", c.ThreadID())
	assert.Contains(t, notifier.toasts[0], "gateway timeout")
	assert.False(t, c.Busy())
}

func TestLoadThreadContext_IdempotentReload(t *testing.T) {
	backend := &fakeBackend{}
	history := []api.Message{
		{ID: "m1", Role: RoleUser, Content: "hi", Timestamp: time.Unix(100, 0)},
		{ID: "m2", Role: RoleAssistant, Content: "hello", Timestamp: time.Unix(101, 0)},
	}
	backend.contextFn = func(string) ([]api.Message, error) { return history, nil }
	c, _ := newTestController(backend)

	c.LoadThreadContext(context.Background(), "T")
	first := c.Messages()

	// Force a reload of the same thread with identical backend data.
	c.LoadThreadContext(context.Background(), "T")
	second := c.Messages()

	assert.Equal(t, first, second)
	assert.Equal(t, 2, backend.loads)
}

func TestMessages_ReturnsCopy(t *testing.T) {
	c, _ := newTestController(&fakeBackend{})

	msgs := c.Messages()
	msgs[0].Content = "mutated"

	assert.Equal(t, welcome, c.Messages()[0].Content)
}

func TestSetThread_ResetDroppedWhileBusy(t *testing.T) {
	backend := &fakeBackend{}
	c, _ := newTestController(backend)

	backend.sendFn = func(threadID string, req *api.SendMessageRequest) (*api.Message, error) {
		// Resetting mid-pipeline must not wipe the log under the send.
		c.SetThread(context.Background(), "")
		return &api.Message{ID: "srv-1", Role: RoleAssistant, Content: "ok"}, nil
	}

	c.SendMessage(context.Background(), "hello", nil)

	require.Equal(t, "thread-1", c.ThreadID())
	msgs := c.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, "hello", msgs[1].Content)
	assert.Equal(t, "ok", msgs[2].Content)
}

func TestRestoreHistory_AdoptsCachedLog(t *testing.T) {
	backend := &fakeBackend{}
	c, _ := newTestController(backend)

	c.RestoreHistory("T", []api.Message{
		{ID: "m1", Role: RoleUser, Content: "cached question"},
		{ID: "m2", Role: RoleAssistant, Content: "cached answer"},
	})

	assert.Equal(t, "T", c.ThreadID())
	msgs := c.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "cached question", msgs[0].Content)
	assert.Equal(t, "cached answer", msgs[1].Content)
	assert.Zero(t, backend.loads)
}

func TestRestoreHistory_EmptyArgsAreNoOps(t *testing.T) {
	c, _ := newTestController(&fakeBackend{})

	c.RestoreHistory("", []api.Message{{ID: "m1", Role: RoleUser, Content: "x"}})
	c.RestoreHistory("T", nil)

	assert.Equal(t, "", c.ThreadID())
	assert.Equal(t, []string{RoleAssistant}, roles(c.Messages()))
}

func TestRestoreHistory_DroppedWhileBusy(t *testing.T) {
	backend := &fakeBackend{}
	c, _ := newTestController(backend)

	backend.sendFn = func(threadID string, req *api.SendMessageRequest) (*api.Message, error) {
		c.RestoreHistory("other", []api.Message{{ID: "m1", Role: RoleUser, Content: "stale"}})
		return &api.Message{ID: "srv-1", Role: RoleAssistant, Content: "ok"}, nil
	}

	c.SendMessage(context.Background(), "hello", nil)

	assert.Equal(t, "thread-1", c.ThreadID())
	assert.Len(t, c.Messages(), 3)
}

func TestLocalEntriesAreFlagged(t *testing.T) {
	backend := &fakeBackend{}
	c, _ := newTestController(backend)

	att := tempAttachment(t, "report.csv", "a,b\n1,2\n")
	c.SendMessage(context.Background(), "", att)

	msgs := c.Messages()
	require.Len(t, msgs, 4)
	assert.True(t, msgs[0].Local, "welcome")
	assert.True(t, msgs[1].Local, "upload notice")
	assert.True(t, msgs[2].Local, "upload ack")
	assert.False(t, msgs[3].Local, "assistant reply")
}
