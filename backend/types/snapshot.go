package types

import (
	"fmt"
	"time"
)

// Document is the opaque content of a collaborative document. Only the merge
// engine knows its shape.
type Document interface{}

// Changes is an opaque change-set understood by the merge engine.
type Changes interface{}

// Snapshot is the state of a document starting at a causal position.
type Snapshot struct {
	Doc            Document
	Version        Version
	StartTimestamp time.Time
}

// Copy returns a snapshot that shares no version state with s. The document is
// immutable and is shared.
func (s Snapshot) Copy() Snapshot {
	if s.Version != nil {
		s.Version = s.Version.Copy()
	}
	return s
}

func (s Snapshot) String() string {
	return fmt.Sprintf("snapshot{version=%v, start=%s}", s.Version, s.StartTimestamp.Format(time.RFC3339))
}

// History is the insertion-ordered list of snapshots of one document.
type History []Snapshot

// Current returns the last snapshot of the history.
func (h History) Current() (Snapshot, bool) {
	if len(h) == 0 {
		return Snapshot{}, false
	}
	return h[len(h)-1], true
}

// Copy returns a deep copy of the history.
func (h History) Copy() History {
	if h == nil {
		return nil
	}
	c := make(History, len(h))
	for i, s := range h {
		c[i] = s.Copy()
	}
	return c
}
