package impl

import (
	"sort"
	"sync"
	"time"

	"docset/backend/types"
)

// Store maps a document identity to its history. Each history has its own
// lock, so documents never wait on each other.
type Store struct {
	mu   sync.Mutex
	docs map[string]*DocHistory
}

func newStore() *Store {
	return &Store{
		mu:   sync.Mutex{},
		docs: make(map[string]*DocHistory),
	}
}

// Get returns the history of a document if it has one.
func (s *Store) Get(docID string) (*DocHistory, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, exists := s.docs[docID]
	return h, exists
}

// GetOrCreate returns the history of a document, creating an empty one first
// if needed. An empty history is invisible to readers.
func (s *Store) GetOrCreate(docID string) *DocHistory {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, exists := s.docs[docID]
	if !exists {
		h = &DocHistory{}
		s.docs[docID] = h
	}
	return h
}

// DocIDs returns the sorted identities of the documents with a non-empty
// history.
func (s *Store) DocIDs() []string {
	s.mu.Lock()
	histories := make(map[string]*DocHistory, len(s.docs))
	for k, v := range s.docs {
		histories[k] = v
	}
	s.mu.Unlock()

	ids := make([]string, 0, len(histories))
	for docID, h := range histories {
		if h.Len() > 0 {
			ids = append(ids, docID)
		}
	}
	sort.Strings(ids)
	return ids
}

// DocHistory is the append-only list of snapshots of one document. Writers
// hold mu for the whole read-merge-commit sequence.
type DocHistory struct {
	mu      sync.RWMutex
	history types.History
}

// Len returns the number of snapshots.
func (h *DocHistory) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.history)
}

// Copy returns a deep copy of the snapshots.
func (h *DocHistory) Copy() types.History {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return h.history.Copy()
}

// CurrentSnapshot returns a copy of the last snapshot.
func (h *DocHistory) CurrentSnapshot() (types.Snapshot, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	snap, ok := h.history.Current()
	if !ok {
		return types.Snapshot{}, false
	}
	return snap.Copy(), true
}

// The methods below expect mu to be held for writing.

func (h *DocHistory) current() (types.Snapshot, bool) {
	return h.history.Current()
}

// appendSnapshot pushes a new snapshot.
func (h *DocHistory) appendSnapshot(snap types.Snapshot) {
	h.history = append(h.history, snap.Copy())
}

// replaceCurrentDoc swaps the content of the last snapshot, keeping its
// version and timestamp. Without history, it creates the first snapshot at
// version.
func (h *DocHistory) replaceCurrentDoc(doc types.Document, version types.Version, stamp time.Time) {
	if len(h.history) == 0 {
		h.appendSnapshot(types.Snapshot{
			Doc:            doc,
			Version:        version,
			StartTimestamp: stamp,
		})
		return
	}
	h.history[len(h.history)-1].Doc = doc
}
