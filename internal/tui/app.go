package tui

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/docsage/cli/config"
	"github.com/docsage/cli/internal/api"
	"github.com/docsage/cli/internal/auth"
	"github.com/docsage/cli/internal/cache"
	"github.com/docsage/cli/internal/chat"
	"github.com/docsage/cli/internal/documents"
	"github.com/docsage/cli/internal/store"
)

// page identifies the front view
type page int

const (
	pageDashboard page = iota
	pageChat
	pageDocuments
	pageThreads
)

// App wires the client, stores, controller and views together
type App struct {
	model *appModel
}

// NewApp creates the application from configuration
func NewApp(cfg *config.Config, logger *zap.Logger) (*App, error) {
	tokens, err := auth.NewTokenStore(cfg.Auth.TokenFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open token store: %w", err)
	}

	client := api.NewClient(cfg.API.BaseURL, tokens, cfg.Timeout())
	client.SetLogger(logger)

	history, err := cache.New(cfg.Paths.CacheFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open history cache: %w", err)
	}

	sink := &toastSink{}
	controller := chat.NewController(client, sink, cfg.Chat.WelcomeMessage)
	controller.SetLogger(logger)

	m := &appModel{
		cfg:        cfg,
		client:     client,
		cache:      history,
		threads:    store.NewThreadStore(),
		docs:       store.NewDocumentStore(),
		controller: controller,
		sink:       sink,
		logger:     logger,
		width:      80,
		height:     24,
	}

	controller.SetDocumentSource(m.docs.Selected)
	controller.SetOnThreadCreated(func(t api.Thread) {
		m.threads.Upsert(t)
		m.threads.SetActive(t.ID)
	})

	m.chatView = newChatView(m)
	m.documentsView = newDocumentsView(m)
	m.threadsView = newThreadsView(m)
	m.dashboardView = newDashboardView(m)

	return &App{model: m}, nil
}

// Run starts the TUI application
func (a *App) Run() error {
	defer a.model.cache.Close()

	p := tea.NewProgram(a.model, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// appModel is the root bubbletea model
type appModel struct {
	cfg        *config.Config
	client     *api.Client
	cache      *cache.Cache
	threads    *store.ThreadStore
	docs       *store.DocumentStore
	controller *chat.Controller
	sink       *toastSink
	toast      toastModel
	logger     *zap.Logger

	page   page
	width  int
	height int

	chatView      *ChatView
	documentsView *DocumentsView
	threadsView   *ThreadsView
	dashboardView *DashboardView
}

// Init kicks off the initial data refresh
func (m *appModel) Init() tea.Cmd {
	return tea.Batch(m.refreshThreads, m.refreshDocuments, m.chatView.Init())
}

// Update routes messages to the front view and handles global concerns
func (m *appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.chatView.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case toastTickMsg:
		m.toast.tick()
		return m, nil

	case chatSettledMsg:
		m.writeThroughCache()
		// Uploads during a send may have added documents server-side.
		return m, tea.Batch(m.drainToasts(), m.chatView.refresh(), m.refreshDocuments)

	case threadsLoadedMsg:
		m.threads.SetThreads(msg.threads)
		if msg.offline {
			return m, m.showToast(chat.ToastInfo, "Offline: showing cached conversations")
		}
		return m, nil

	case documentsLoadedMsg:
		m.docs.SetDocuments(msg.documents)
		return m, nil

	case documentDeletedMsg:
		m.docs.Remove(msg.id)
		return m, m.showToast(chat.ToastSuccess, "Document deleted")

	case threadUpdatedMsg:
		m.threads.Upsert(msg.thread)
		if err := m.cache.PutThread(context.Background(), &msg.thread); err != nil {
			m.logger.Warn("thread cache write failed", zap.Error(err))
		}
		return m, nil

	case threadDeletedMsg:
		m.threads.Remove(msg.id)
		if m.controller.ThreadID() == msg.id {
			m.controller.SetThread(context.Background(), "")
		}
		return m, tea.Batch(m.showToast(chat.ToastSuccess, "Conversation deleted"), m.chatView.refresh())

	case errorMsg:
		return m, m.showError(msg.error)
	}

	return m, m.updateFrontView(msg)
}

// handleKey implements global navigation; in the chat view all keys except
// esc and ctrl+c pass through to the input
func (m *appModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		if m.toast.current != nil {
			m.toast.dismiss()
			return m, nil
		}
		if m.page == pageDocuments && m.documentsView.uploading {
			return m, m.updateFrontView(msg)
		}
		if m.page == pageDashboard {
			return m, tea.Quit
		}
		m.page = pageDashboard
		return m, nil
	}

	if m.page == pageChat || (m.page == pageDocuments && m.documentsView.uploading) {
		return m, m.updateFrontView(msg)
	}

	switch msg.String() {
	case "0":
		m.page = pageDashboard
		return m, nil
	case "1":
		m.page = pageChat
		return m, nil
	case "2":
		m.page = pageDocuments
		return m, nil
	case "3":
		m.page = pageThreads
		return m, nil
	}

	return m, m.updateFrontView(msg)
}

// updateFrontView forwards a message to the active view
func (m *appModel) updateFrontView(msg tea.Msg) tea.Cmd {
	switch m.page {
	case pageChat:
		return m.chatView.Update(msg)
	case pageDocuments:
		return m.documentsView.Update(msg)
	case pageThreads:
		return m.threadsView.Update(msg)
	default:
		return m.dashboardView.Update(msg)
	}
}

// View renders the active view with the toast overlay below it
func (m *appModel) View() string {
	var body string
	switch m.page {
	case pageChat:
		body = m.chatView.View()
	case pageDocuments:
		body = m.documentsView.View()
	case pageThreads:
		body = m.threadsView.View()
	default:
		body = m.dashboardView.View()
	}

	if t := m.toast.View(); t != "" {
		return lipgloss.JoinVertical(lipgloss.Left, body, t)
	}
	return body
}

// refreshThreads fetches the thread list, falling back to the cache when
// the backend is unreachable
func (m *appModel) refreshThreads() tea.Msg {
	ctx := context.Background()

	threads, err := m.client.ListThreads(ctx)
	if err != nil {
		if errors.Is(err, api.ErrUnauthorized) {
			return errorMsg{error: err}
		}
		m.logger.Warn("thread refresh failed, using cache", zap.Error(err))
		cached, cacheErr := m.cache.ListThreads(ctx)
		if cacheErr != nil {
			return errorMsg{error: err}
		}
		return threadsLoadedMsg{threads: cached, offline: true}
	}

	if err := m.cache.PutThreads(ctx, threads); err != nil {
		m.logger.Warn("thread cache write failed", zap.Error(err))
	}
	return threadsLoadedMsg{threads: threads}
}

// refreshDocuments fetches the document list
func (m *appModel) refreshDocuments() tea.Msg {
	docs, err := m.client.ListDocuments(context.Background())
	if err != nil {
		return errorMsg{error: err}
	}
	return documentsLoadedMsg{documents: docs}
}

// sendChat runs the controller's send pipeline as a background command
func (m *appModel) sendChat(text string, att *documents.FileInfo) tea.Cmd {
	return func() tea.Msg {
		m.controller.SendMessage(context.Background(), text, att)
		return chatSettledMsg{}
	}
}

// switchThread changes the active thread and loads its history. When the
// backend load fails, the locally cached history is shown instead so past
// conversations stay readable offline.
func (m *appModel) switchThread(id string) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		m.controller.SetThread(ctx, id)
		if id != "" && m.controller.ThreadID() != id {
			if history, err := m.cache.GetMessages(ctx, id); err == nil && len(history) > 0 {
				m.controller.RestoreHistory(id, history)
				m.sink.Toast(chat.ToastInfo, "Offline: showing cached history")
			}
		}
		m.threads.SetActive(m.controller.ThreadID())
		return chatSettledMsg{}
	}
}

// syncThreadDocuments pushes the current selection to the active thread so
// the server-side context matches what the next send will use
func (m *appModel) syncThreadDocuments() tea.Cmd {
	threadID := m.controller.ThreadID()
	if threadID == "" {
		return nil
	}
	selected := m.docs.Selected()
	return func() tea.Msg {
		thread, err := m.client.UpdateThreadDocuments(context.Background(), threadID, selected)
		if err != nil {
			return errorMsg{error: err}
		}
		return threadUpdatedMsg{thread: *thread}
	}
}

// deleteThread removes a thread server-side and from the cache
func (m *appModel) deleteThread(id string) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		if err := m.client.DeleteThread(ctx, id); err != nil {
			return errorMsg{error: err}
		}
		if err := m.cache.DeleteThread(ctx, id); err != nil {
			m.logger.Warn("cache delete failed", zap.Error(err))
		}
		return threadDeletedMsg{id: id}
	}
}

// deleteDocument removes a document server-side
func (m *appModel) deleteDocument(id string) tea.Cmd {
	return func() tea.Msg {
		if err := m.client.DeleteDocument(context.Background(), id); err != nil {
			return errorMsg{error: err}
		}
		return documentDeletedMsg{id: id}
	}
}

// writeThroughCache persists the controller's settled log entries. Entries
// that exist only in this client's log (welcome, upload notices) are not
// server history and stay out of the cache.
func (m *appModel) writeThroughCache() {
	threadID := m.controller.ThreadID()
	if threadID == "" {
		return
	}

	var history []api.Message
	for _, msg := range m.controller.Messages() {
		if msg.Pending || msg.Failed || msg.Local {
			continue
		}
		history = append(history, msg.ToAPI())
	}

	ctx := context.Background()
	if err := m.cache.ReplaceMessages(ctx, threadID, history); err != nil {
		m.logger.Warn("history cache write failed", zap.Error(err))
	}
	if t, ok := m.threads.Get(threadID); ok {
		if err := m.cache.PutThread(ctx, &t); err != nil {
			m.logger.Warn("thread cache write failed", zap.Error(err))
		}
	}
}

// drainToasts shows notifications raised during a background command
func (m *appModel) drainToasts() tea.Cmd {
	pending := m.sink.drain()
	if len(pending) == 0 {
		return nil
	}
	// Only the latest is shown; older ones land in the log file.
	return m.toast.show(pending[len(pending)-1])
}

// showToast displays an application-level notification
func (m *appModel) showToast(kind chat.ToastKind, message string) tea.Cmd {
	return m.toast.show(toast{kind: kind, message: message})
}

// showError maps an error to a toast, with a login hint on auth failures
func (m *appModel) showError(err error) tea.Cmd {
	if errors.Is(err, api.ErrUnauthorized) {
		return m.showToast(chat.ToastError, "Session expired. Run docsage -login to sign in again.")
	}
	m.logger.Warn("operation failed", zap.Error(err))
	return m.showToast(chat.ToastError, err.Error())
}
