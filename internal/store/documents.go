package store

import (
	"sync"

	"github.com/docsage/cli/internal/api"
)

// DocumentStore holds the user's document list and the selection set used
// as thread context. Same contract as ThreadStore: actions mutate, every
// change notifies subscribers.
type DocumentStore struct {
	mu       sync.RWMutex
	docs     []api.Document
	selected map[string]bool

	subMu   sync.Mutex
	subs    map[int]func()
	nextSub int
}

// NewDocumentStore creates an empty document store
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		selected: make(map[string]bool),
		subs:     make(map[int]func()),
	}
}

// Subscribe registers a change callback and returns a cancel func
func (s *DocumentStore) Subscribe(fn func()) func() {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

func (s *DocumentStore) notify() {
	s.subMu.Lock()
	fns := make([]func(), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// SetDocuments replaces the document list. Selections for documents that
// no longer exist are dropped.
func (s *DocumentStore) SetDocuments(docs []api.Document) {
	s.mu.Lock()
	s.docs = append([]api.Document(nil), docs...)
	present := make(map[string]bool, len(docs))
	for _, d := range docs {
		present[d.ID] = true
	}
	for id := range s.selected {
		if !present[id] {
			delete(s.selected, id)
		}
	}
	s.mu.Unlock()
	s.notify()
}

// Documents returns a copy of the document list
func (s *DocumentStore) Documents() []api.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]api.Document(nil), s.docs...)
}

// Add inserts a freshly uploaded document at the front of the list
func (s *DocumentStore) Add(d api.Document) {
	s.mu.Lock()
	s.docs = append([]api.Document{d}, s.docs...)
	s.mu.Unlock()
	s.notify()
}

// Remove deletes a document and drops it from the selection
func (s *DocumentStore) Remove(id string) {
	s.mu.Lock()
	for i := range s.docs {
		if s.docs[i].ID == id {
			s.docs = append(s.docs[:i], s.docs[i+1:]...)
			break
		}
	}
	delete(s.selected, id)
	s.mu.Unlock()
	s.notify()
}

// ToggleSelected flips a document's membership in the context selection
func (s *DocumentStore) ToggleSelected(id string) {
	s.mu.Lock()
	if s.selected[id] {
		delete(s.selected, id)
	} else {
		s.selected[id] = true
	}
	s.mu.Unlock()
	s.notify()
}

// IsSelected reports whether a document is in the context selection
func (s *DocumentStore) IsSelected(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selected[id]
}

// Selected returns the selected document ids in list order
func (s *DocumentStore) Selected() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var ids []string
	for _, d := range s.docs {
		if s.selected[d.ID] {
			ids = append(ids, d.ID)
		}
	}
	return ids
}

// ClearSelection empties the context selection
func (s *DocumentStore) ClearSelection() {
	s.mu.Lock()
	s.selected = make(map[string]bool)
	s.mu.Unlock()
	s.notify()
}
