package tui

import (
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/docsage/cli/internal/chat"
)

// toastDuration is how long a toast stays visible before auto-dismissing
const toastDuration = 5 * time.Second

// toast is a transient, dismissable notification
type toast struct {
	kind    chat.ToastKind
	message string
	expires time.Time
}

// toastSink collects notifications raised from background commands. The
// controller calls Toast from inside a tea.Cmd goroutine; the app drains
// the sink when the command's settled message arrives.
type toastSink struct {
	mu      sync.Mutex
	pending []toast
}

// Toast implements chat.Notifier
func (s *toastSink) Toast(kind chat.ToastKind, message string) {
	s.mu.Lock()
	s.pending = append(s.pending, toast{kind: kind, message: message})
	s.mu.Unlock()
}

// drain returns and clears the pending notifications
func (s *toastSink) drain() []toast {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.pending
	s.pending = nil
	return out
}

var (
	toastErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("231")).
			Background(lipgloss.Color("160")).
			Padding(0, 1)
	toastSuccessStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("231")).
				Background(lipgloss.Color("28")).
				Padding(0, 1)
	toastInfoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("231")).
			Background(lipgloss.Color("24")).
			Padding(0, 1)
)

// toastModel shows at most one toast at a time; newer toasts replace older
// ones, and esc dismisses early
type toastModel struct {
	current *toast
}

// show displays a toast and schedules its expiry
func (tm *toastModel) show(t toast) tea.Cmd {
	t.expires = time.Now().Add(toastDuration)
	tm.current = &t
	return tea.Tick(toastDuration, func(time.Time) tea.Msg {
		return toastTickMsg{}
	})
}

// tick dismisses the toast once its deadline has passed
func (tm *toastModel) tick() {
	if tm.current != nil && !time.Now().Before(tm.current.expires) {
		tm.current = nil
	}
}

// dismiss clears the toast immediately
func (tm *toastModel) dismiss() {
	tm.current = nil
}

// View renders the toast line, or "" when nothing is showing
func (tm *toastModel) View() string {
	if tm.current == nil {
		return ""
	}
	switch tm.current.kind {
	case chat.ToastError:
		return toastErrorStyle.Render(tm.current.message)
	case chat.ToastSuccess:
		return toastSuccessStyle.Render(tm.current.message)
	default:
		return toastInfoStyle.Render(tm.current.message)
	}
}
