package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/docsage/cli/internal/chat"
	"github.com/docsage/cli/internal/documents"
)

var (
	listTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Bold(true).
			Padding(0, 1)
	cursorRowStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("231")).
			Background(lipgloss.Color("57"))
	selectedMarkStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("40"))
	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))
)

// DocumentsView lists uploaded documents and manages the chat context
// selection
type DocumentsView struct {
	app       *appModel
	cursor    int
	pathInput textinput.Model
	uploading bool
}

func newDocumentsView(app *appModel) *DocumentsView {
	input := textinput.New()
	input.Placeholder = "Path to file to upload"
	input.CharLimit = 512

	return &DocumentsView{
		app:       app,
		pathInput: input,
	}
}

// Update handles list navigation, selection toggles, uploads and deletes
func (dv *DocumentsView) Update(msg tea.Msg) tea.Cmd {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil
	}

	if dv.uploading {
		switch key.String() {
		case "enter":
			path := strings.TrimSpace(dv.pathInput.Value())
			dv.uploading = false
			dv.pathInput.Reset()
			dv.pathInput.Blur()
			if path == "" {
				return nil
			}
			return dv.upload(path)
		case "esc":
			dv.uploading = false
			dv.pathInput.Reset()
			dv.pathInput.Blur()
			return nil
		}
		var cmd tea.Cmd
		dv.pathInput, cmd = dv.pathInput.Update(msg)
		return cmd
	}

	docs := dv.app.docs.Documents()
	switch key.String() {
	case "up", "k":
		if dv.cursor > 0 {
			dv.cursor--
		}
	case "down", "j":
		if dv.cursor < len(docs)-1 {
			dv.cursor++
		}
	case " ":
		if dv.cursor < len(docs) {
			dv.app.docs.ToggleSelected(docs[dv.cursor].ID)
			return dv.app.syncThreadDocuments()
		}
	case "c":
		dv.app.docs.ClearSelection()
		return dv.app.syncThreadDocuments()
	case "r":
		return dv.app.refreshDocuments
	case "u":
		dv.uploading = true
		dv.pathInput.Focus()
		return textinput.Blink
	case "d":
		if dv.cursor < len(docs) {
			return dv.app.deleteDocument(docs[dv.cursor].ID)
		}
	}
	return nil
}

// upload pushes a local file through the controller's upload pipeline so
// the chat log records the attachment the same way as /attach
func (dv *DocumentsView) upload(path string) tea.Cmd {
	info, err := documents.Inspect(path, dv.app.cfg.MaxBytes())
	if err != nil {
		return dv.app.showToast(chat.ToastError, err.Error())
	}
	return dv.app.sendChat("", info)
}

// View renders the document list
func (dv *DocumentsView) View() string {
	var b strings.Builder
	b.WriteString(listTitleStyle.Render("Documents"))
	b.WriteString("\n\n")

	docs := dv.app.docs.Documents()
	if len(docs) == 0 {
		b.WriteString(dimStyle.Render("No documents uploaded yet. Press u to upload."))
	}
	if dv.cursor >= len(docs) && len(docs) > 0 {
		dv.cursor = len(docs) - 1
	}

	for i, doc := range docs {
		mark := "[ ]"
		if dv.app.docs.IsSelected(doc.ID) {
			mark = selectedMarkStyle.Render("[x]")
		}
		line := fmt.Sprintf("%s %s", mark, doc.Filename)
		if doc.ChunkCount > 0 {
			line += dimStyle.Render(fmt.Sprintf("  (%d chunks)", doc.ChunkCount))
		}
		if i == dv.cursor {
			line = cursorRowStyle.Render("> " + line)
		} else {
			line = "  " + line
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if dv.uploading {
		b.WriteString(dv.pathInput.View())
	} else {
		b.WriteString(dimStyle.Render("space: toggle context  c: clear  u: upload  d: delete  r: refresh  esc: back"))
	}
	return b.String()
}
