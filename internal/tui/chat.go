package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/docsage/cli/internal/chat"
	"github.com/docsage/cli/internal/documents"
	"github.com/docsage/cli/internal/viz"
)

var (
	userLabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Bold(true)
	assistantLabelStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("213")).
				Bold(true)
	pendingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243")).
			Italic(true)
	failedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("160"))
	analysisStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("246")).
			Italic(true)
	statusBarStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))
)

// ChatView renders the conversation log and the message input
type ChatView struct {
	app      *appModel
	viewport viewport.Model
	input    textarea.Model
	spinner  spinner.Model
	ready    bool
}

func newChatView(app *appModel) *ChatView {
	input := textarea.New()
	input.Placeholder = "Ask about your documents... (/attach <path> to upload a file)"
	input.CharLimit = 4000
	input.SetHeight(3)
	input.ShowLineNumbers = false
	input.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return &ChatView{
		app:     app,
		input:   input,
		spinner: sp,
	}
}

// Init starts the input cursor blink
func (cv *ChatView) Init() tea.Cmd {
	return textarea.Blink
}

func (cv *ChatView) resize(width, height int) {
	cv.input.SetWidth(width - 2)
	vpHeight := height - cv.input.Height() - 4
	if vpHeight < 3 {
		vpHeight = 3
	}
	if !cv.ready {
		cv.viewport = viewport.New(width, vpHeight)
		cv.ready = true
	} else {
		cv.viewport.Width = width
		cv.viewport.Height = vpHeight
	}
	cv.viewport.SetContent(cv.renderLog())
	cv.viewport.GotoBottom()
}

// refresh re-renders the log after a controller operation settles
func (cv *ChatView) refresh() tea.Cmd {
	if cv.ready {
		cv.viewport.SetContent(cv.renderLog())
		cv.viewport.GotoBottom()
	}
	return nil
}

// Update handles input and scrolling
func (cv *ChatView) Update(msg tea.Msg) tea.Cmd {
	if _, ok := msg.(spinner.TickMsg); ok {
		// Repaint each tick so provisional entries (the pending user
		// message, upload notices) are visible while the call is in flight.
		cv.refresh()
		if !cv.app.controller.Busy() {
			return nil
		}
		var cmd tea.Cmd
		cv.spinner, cmd = cv.spinner.Update(msg)
		return cmd
	}

	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "enter":
			return cv.submit()
		case "pgup", "pgdown":
			var cmd tea.Cmd
			cv.viewport, cmd = cv.viewport.Update(msg)
			return cmd
		}
	}

	var cmd tea.Cmd
	cv.input, cmd = cv.input.Update(msg)
	return cmd
}

// submit dispatches the typed message through the controller. While an
// operation is in flight the input stays as typed and nothing is sent.
func (cv *ChatView) submit() tea.Cmd {
	if cv.app.controller.Busy() {
		return nil
	}

	text := strings.TrimSpace(cv.input.Value())
	if text == "" {
		return nil
	}

	var attachment *documents.FileInfo
	if path, ok := strings.CutPrefix(text, "/attach "); ok {
		info, err := documents.Inspect(strings.TrimSpace(path), cv.app.cfg.MaxBytes())
		if err != nil {
			return cv.app.showToast(chat.ToastError, err.Error())
		}
		attachment = info
		text = ""
	}

	cv.input.Reset()
	cmd := cv.app.sendChat(text, attachment)
	return tea.Batch(cmd, cv.refresh(), cv.spinner.Tick)
}

// View renders the log, the status bar, and the input
func (cv *ChatView) View() string {
	if !cv.ready {
		cv.resize(cv.app.width, cv.app.height)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		cv.viewport.View(),
		cv.statusBar(),
		cv.input.View(),
	)
}

func (cv *ChatView) statusBar() string {
	var parts []string
	if id := cv.app.controller.ThreadID(); id != "" {
		if t, ok := cv.app.threads.Get(id); ok && t.Title != "" {
			parts = append(parts, t.Title)
		} else {
			parts = append(parts, "Conversation "+id)
		}
	} else {
		parts = append(parts, "New conversation")
	}
	if n := len(cv.app.docs.Selected()); n > 0 {
		parts = append(parts, fmt.Sprintf("%d document(s) in context", n))
	}
	switch cv.app.controller.Phase() {
	case chat.PhaseSending:
		parts = append(parts, cv.spinner.View()+"sending")
	case chat.PhaseLoading:
		parts = append(parts, cv.spinner.View()+"loading")
	}
	return statusBarStyle.Render(strings.Join(parts, " | "))
}

func (cv *ChatView) renderLog() string {
	var b strings.Builder
	for i, msg := range cv.app.controller.Messages() {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(renderMessage(msg, cv.viewport.Width))
	}
	return b.String()
}

func renderMessage(msg chat.Message, width int) string {
	var b strings.Builder

	if msg.Role == chat.RoleUser {
		b.WriteString(userLabelStyle.Render("You"))
	} else {
		b.WriteString(assistantLabelStyle.Render("Assistant"))
	}
	b.WriteString("\n")

	switch {
	case msg.Failed:
		b.WriteString(failedStyle.Render(msg.Content + " (failed)"))
	case msg.Pending:
		b.WriteString(pendingStyle.Render(msg.Content + " ..."))
	default:
		b.WriteString(wrapText(msg.Content, width))
	}

	if msg.Visualization != nil {
		b.WriteString("\n")
		b.WriteString(viz.Render(*msg.Visualization))
	}
	if msg.Analysis != "" {
		b.WriteString("\n")
		b.WriteString(analysisStyle.Render(msg.Analysis))
	}

	return b.String()
}

// wrapText is a simple word wrapper; lipgloss handles styling but the
// viewport needs pre-wrapped content for correct scrolling. Operates on
// runes so multibyte characters are never split.
func wrapText(text string, width int) string {
	if width <= 0 {
		return text
	}
	var out []string
	for _, line := range strings.Split(text, "\n") {
		runes := []rune(line)
		for len(runes) > width {
			cut := width
			for i := width - 1; i > 0; i-- {
				if runes[i] == ' ' {
					cut = i
					break
				}
			}
			out = append(out, string(runes[:cut]))
			runes = runes[cut:]
			for len(runes) > 0 && runes[0] == ' ' {
				runes = runes[1:]
			}
		}
		out = append(out, string(runes))
	}
	return strings.Join(out, "\n")
}
