package tui

import (
	"github.com/docsage/cli/internal/api"
)

// errorMsg signals a failed background operation
type errorMsg struct {
	error error
}

// chatSettledMsg signals a controller operation (send/load) has finished
type chatSettledMsg struct{}

// threadsLoadedMsg carries a refreshed thread listing
type threadsLoadedMsg struct {
	threads []api.Thread
	offline bool
}

// documentsLoadedMsg carries a refreshed document listing
type documentsLoadedMsg struct {
	documents []api.Document
}

// documentDeletedMsg signals a document was removed server-side
type documentDeletedMsg struct {
	id string
}

// threadUpdatedMsg carries a thread whose document context changed
type threadUpdatedMsg struct {
	thread api.Thread
}

// threadDeletedMsg signals a thread was removed server-side
type threadDeletedMsg struct {
	id string
}

// toastTickMsg drives toast expiry
type toastTickMsg struct{}
