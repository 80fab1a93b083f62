package store

import (
	"sync"

	"github.com/docsage/cli/internal/api"
)

// ThreadStore holds the thread list and the active thread selection.
// It is an explicit, injectable container: state changes go through action
// methods, and every change notifies subscribers.
type ThreadStore struct {
	mu       sync.RWMutex
	threads  []api.Thread
	activeID string

	subMu   sync.Mutex
	subs    map[int]func()
	nextSub int
}

// NewThreadStore creates an empty thread store
func NewThreadStore() *ThreadStore {
	return &ThreadStore{subs: make(map[int]func())}
}

// Subscribe registers a change callback and returns a cancel func.
// Callbacks run synchronously on the mutating goroutine.
func (s *ThreadStore) Subscribe(fn func()) func() {
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

func (s *ThreadStore) notify() {
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

// SetThreads replaces the thread list
func (s *ThreadStore) SetThreads(threads []api.Thread) {
	s.mu.Lock()
	s.threads = append([]api.Thread(nil), threads...)
	s.mu.Unlock()
	s.notify()
}

// Threads returns a copy of the thread list
func (s *ThreadStore) Threads() []api.Thread {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]api.Thread(nil), s.threads...)
}

// Upsert inserts or replaces a thread by id, newest first when inserting
func (s *ThreadStore) Upsert(t api.Thread) {
	s.mu.Lock()
	replaced := false
	for i := range s.threads {
		if s.threads[i].ID == t.ID {
			s.threads[i] = t
			replaced = true
			break
		}
	}
	if !replaced {
		s.threads = append([]api.Thread{t}, s.threads...)
	}
	s.mu.Unlock()
	s.notify()
}

// Remove deletes a thread by id and clears the active selection if it
// pointed at the removed thread
func (s *ThreadStore) Remove(id string) {
	s.mu.Lock()
	for i := range s.threads {
		if s.threads[i].ID == id {
			s.threads = append(s.threads[:i], s.threads[i+1:]...)
			break
		}
	}
	if s.activeID == id {
		s.activeID = ""
	}
	s.mu.Unlock()
	s.notify()
}

// SetActive records the active thread id ("" means no active thread)
func (s *ThreadStore) SetActive(id string) {
	s.mu.Lock()
	changed := s.activeID != id
	s.activeID = id
	s.mu.Unlock()
	if changed {
		s.notify()
	}
}

// ActiveID returns the active thread id, or "" when none is selected
func (s *ThreadStore) ActiveID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeID
}

// Get returns the thread with the given id, if present
func (s *ThreadStore) Get(id string) (api.Thread, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.threads {
		if s.threads[i].ID == id {
			return s.threads[i], true
		}
	}
	return api.Thread{}, false
}
