package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// ThreadsView lists past conversations and switches between them
type ThreadsView struct {
	app    *appModel
	cursor int
}

func newThreadsView(app *appModel) *ThreadsView {
	return &ThreadsView{app: app}
}

// Update handles navigation, switching, creation and deletion
func (tv *ThreadsView) Update(msg tea.Msg) tea.Cmd {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil
	}

	threads := tv.app.threads.Threads()
	switch key.String() {
	case "up", "k":
		if tv.cursor > 0 {
			tv.cursor--
		}
	case "down", "j":
		if tv.cursor < len(threads)-1 {
			tv.cursor++
		}
	case "enter":
		if tv.cursor < len(threads) {
			tv.app.page = pageChat
			return tea.Batch(tv.app.switchThread(threads[tv.cursor].ID), tv.app.chatView.spinner.Tick)
		}
	case "n":
		tv.app.page = pageChat
		return tv.app.switchThread("")
	case "d":
		if tv.cursor < len(threads) {
			return tv.app.deleteThread(threads[tv.cursor].ID)
		}
	case "r":
		return tv.app.refreshThreads
	}
	return nil
}

// View renders the conversation list, newest first
func (tv *ThreadsView) View() string {
	var b strings.Builder
	b.WriteString(listTitleStyle.Render("Conversations"))
	b.WriteString("\n\n")

	threads := tv.app.threads.Threads()
	if len(threads) == 0 {
		b.WriteString(dimStyle.Render("No conversations yet. Press n to start one."))
	}
	if tv.cursor >= len(threads) && len(threads) > 0 {
		tv.cursor = len(threads) - 1
	}

	activeID := tv.app.threads.ActiveID()
	for i, t := range threads {
		title := t.Title
		if title == "" {
			title = "Untitled conversation"
		}
		line := title
		if t.MessageCount > 0 {
			line += dimStyle.Render(fmt.Sprintf("  (%d messages)", t.MessageCount))
		}
		if t.ID == activeID {
			line += selectedMarkStyle.Render("  *")
		}
		if i == tv.cursor {
			line = cursorRowStyle.Render("> " + line)
		} else {
			line = "  " + line
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(dimStyle.Render("enter: open  n: new  d: delete  r: refresh  esc: back"))
	return b.String()
}
