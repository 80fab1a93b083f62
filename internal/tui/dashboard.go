package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	bannerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("213")).
			Bold(true).
			Padding(1, 2)
	menuKeyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Bold(true)
	statStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("250"))
)

// DashboardView shows a summary and the navigation menu
type DashboardView struct {
	app *appModel
}

func newDashboardView(app *appModel) *DashboardView {
	return &DashboardView{app: app}
}

// Update handles enter as a shortcut into the chat
func (dv *DashboardView) Update(msg tea.Msg) tea.Cmd {
	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "enter" {
		dv.app.page = pageChat
	}
	return nil
}

// View renders the banner, live counts and the menu
func (dv *DashboardView) View() string {
	var b strings.Builder
	b.WriteString(bannerStyle.Render("DocSage"))
	b.WriteString("\n")
	b.WriteString(statStyle.Render(fmt.Sprintf(
		"  %d documents  |  %d selected for context  |  %d conversations",
		len(dv.app.docs.Documents()),
		len(dv.app.docs.Selected()),
		len(dv.app.threads.Threads()),
	)))
	b.WriteString("\n\n")

	entries := []struct{ key, label string }{
		{"1", "Chat"},
		{"2", "Documents"},
		{"3", "Conversations"},
		{"esc", "Quit"},
	}
	for _, e := range entries {
		b.WriteString(fmt.Sprintf("  %s  %s\n", menuKeyStyle.Render("["+e.key+"]"), e.label))
	}

	b.WriteString("\n")
	b.WriteString(dimStyle.Render("  Server: " + dv.app.cfg.API.BaseURL))
	return b.String()
}
