package docset

import (
	"docset/backend/types"
)

// DocSet keeps, per document, an append-only history of snapshots and places
// incoming change-sets relative to it.
type DocSet interface {
	// DocIDs returns the identities of every document with a history, sorted.
	DocIDs() []string

	// History returns a copy of the snapshots of a document. The boolean is
	// false if the document has no history yet.
	History(docID string) (types.History, bool)

	// CurrentSnapshot returns the last snapshot of a document.
	CurrentSnapshot(docID string) (types.Snapshot, bool)

	// CurrentDoc returns the content of the last snapshot of a document.
	CurrentDoc(docID string) (types.Document, bool)

	// CurrentVersion returns the version of the last snapshot of a document.
	CurrentVersion(docID string) (types.Version, bool)

	// ApplyChanges merges a change-set produced at version into the document.
	// A stale change returns ErrStaleChange, a merge engine failure a
	// *MergeError. Neither modifies the document.
	ApplyChanges(docID string, changes types.Changes, version types.Version) (types.Document, error)

	// SetDoc replaces the content of the current snapshot, or creates the
	// first snapshot at version (the scheme's zero when nil).
	SetDoc(docID string, doc types.Document, version types.Version) error

	// CreateSnapshot appends a new snapshot holding doc. When version is nil
	// the successor of the current version is used.
	CreateSnapshot(docID string, doc types.Document, version types.Version) error

	// RegisterHandler adds a handler notified after every accepted mutation.
	// Registering the same handler twice has no effect. Handlers run once the
	// document is unlocked: notifications of one call follow registration
	// order, but notifications of concurrent calls on the same document are
	// not ordered by commit.
	RegisterHandler(h Handler) error

	// UnregisterHandler removes a handler. Unknown handlers are ignored.
	UnregisterHandler(h Handler)
}

// Handler is notified with the committed document after every accepted
// mutation. Handlers are compared with ==, so their values must be comparable.
type Handler interface {
	Handle(docID string, doc types.Document) error
}

// HandlerFunc adapts a function to Handler. Register a *HandlerFunc, function
// values are not comparable.
type HandlerFunc func(docID string, doc types.Document) error

// Handle implements Handler.
func (f HandlerFunc) Handle(docID string, doc types.Document) error {
	return f(docID, doc)
}

// MergeEngine turns a document plus a change-set into a new document. It must
// never modify its input.
type MergeEngine interface {
	// Init returns an empty document owned by actor.
	Init(actor string, version types.Version) types.Document

	// ApplyChanges returns doc with changes merged in.
	ApplyChanges(doc types.Document, changes types.Changes, local bool) (types.Document, error)
}

// IdentityGenerator produces globally unique actor identities.
type IdentityGenerator interface {
	NewActorID() string
}
