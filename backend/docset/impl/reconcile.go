package impl

import (
	"docset/backend/docset"
	"docset/backend/types"

	"golang.org/x/xerrors"
)

// DocIDs implements docset.DocSet
func (d *docSet) DocIDs() []string {
	return d.store.DocIDs()
}

// History implements docset.DocSet
func (d *docSet) History(docID string) (types.History, bool) {
	h, exists := d.store.Get(docID)
	if !exists {
		return nil, false
	}
	history := h.Copy()
	if len(history) == 0 {
		return nil, false
	}
	return history, true
}

// CurrentSnapshot implements docset.DocSet
func (d *docSet) CurrentSnapshot(docID string) (types.Snapshot, bool) {
	h, exists := d.store.Get(docID)
	if !exists {
		return types.Snapshot{}, false
	}
	return h.CurrentSnapshot()
}

// CurrentDoc implements docset.DocSet
func (d *docSet) CurrentDoc(docID string) (types.Document, bool) {
	snap, ok := d.CurrentSnapshot(docID)
	if !ok {
		return nil, false
	}
	return snap.Doc, true
}

// CurrentVersion implements docset.DocSet
func (d *docSet) CurrentVersion(docID string) (types.Version, bool) {
	snap, ok := d.CurrentSnapshot(docID)
	if !ok || snap.Version == nil {
		return nil, false
	}
	return snap.Version, true
}

// ApplyChanges implements docset.DocSet
func (d *docSet) ApplyChanges(docID string, changes types.Changes, version types.Version) (types.Document, error) {
	if version == nil {
		version = d.conf.Scheme.Zero()
	}

	h := d.store.GetOrCreate(docID)

	// read, merge and commit as one step for this document
	h.mu.Lock()
	doc, outcome, err := d.reconcile(h, docID, changes, version)
	h.mu.Unlock()

	d.metrics.change(outcome)
	if err != nil {
		d.logCRDT.Warn().Err(err).Str("doc", docID).Stringer("version", version).Msgf("change %s", outcome)
		return nil, err
	}

	d.logCRDT.Debug().Str("doc", docID).Stringer("version", version).Msgf("change %s", outcome)
	d.notifyAll(docID, doc)
	return doc, nil
}

// reconcile places a change relative to the current snapshot of a document
// and commits the result. h.mu must be held.
func (d *docSet) reconcile(h *DocHistory, docID string, changes types.Changes, version types.Version) (types.Document, string, error) {
	cur, exists := h.current()
	if !exists {
		// first change of the document
		if _, err := d.conf.Scheme.Compare(version, version); err != nil {
			return nil, outcomeFailed, err
		}
		doc := d.conf.Engine.Init(d.conf.Identity.NewActorID(), version)
		doc, err := d.merge(docID, doc, changes)
		if err != nil {
			return nil, outcomeFailed, err
		}
		h.replaceCurrentDoc(doc, version, d.conf.Now())
		d.metrics.snapshots.Inc()
		return doc, outcomeCreated, nil
	}

	if cur.Version == nil {
		return d.extend(h, docID, cur, changes, outcomeExtended)
	}

	order, err := d.conf.Scheme.Compare(cur.Version, version)
	if err != nil {
		return nil, outcomeFailed, err
	}

	switch order {
	case types.Equal:
		return d.extend(h, docID, cur, changes, outcomeExtended)

	case types.Before:
		// the change comes from the causal future: fork a new snapshot
		doc, err := d.merge(docID, cur.Doc, changes)
		if err != nil {
			return nil, outcomeFailed, err
		}
		d.appendSnapshot(h, doc, version)
		d.logCRDT.Info().Str("doc", docID).Msgf("forked snapshot %s -> %s", cur.Version, version)
		return doc, outcomeForked, nil

	case types.After:
		idx, ok, err := d.conf.StaleStrategy.Ancestor(d.conf.Scheme, h.history, version)
		if err != nil {
			return nil, outcomeFailed, err
		}
		if !ok {
			return nil, outcomeStale, xerrors.Errorf("document %s is at %s, change at %s: %w",
				docID, cur.Version, version, docset.ErrStaleChange)
		}
		d.logCRDT.Info().Str("doc", docID).Msgf("rebasing change at %s on snapshot %d (%s)",
			version, idx, h.history[idx].Version)
		return d.extend(h, docID, cur, changes, outcomeRebased)

	default:
		if d.conf.ConcurrentPolicy == nil {
			return nil, outcomeConcurrent, xerrors.Errorf("document %s is at %s, change at %s: %w",
				docID, cur.Version, version, docset.ErrConcurrentChange)
		}
		joined, ok, err := d.conf.ConcurrentPolicy.Resolve(d.conf.Scheme, cur.Version, version)
		if err != nil {
			return nil, outcomeFailed, err
		}
		if !ok {
			return nil, outcomeConcurrent, xerrors.Errorf("document %s is at %s, change at %s: %w",
				docID, cur.Version, version, docset.ErrConcurrentChange)
		}
		doc, err := d.merge(docID, cur.Doc, changes)
		if err != nil {
			return nil, outcomeFailed, err
		}
		d.appendSnapshot(h, doc, joined)
		d.logCRDT.Info().Str("doc", docID).Msgf("merged concurrent change %s into %s at %s", version, cur.Version, joined)
		return doc, outcomeMerged, nil
	}
}

// extend merges the change into the current snapshot in place.
func (d *docSet) extend(h *DocHistory, docID string, cur types.Snapshot, changes types.Changes, outcome string) (types.Document, string, error) {
	doc, err := d.merge(docID, cur.Doc, changes)
	if err != nil {
		return nil, outcomeFailed, err
	}
	h.replaceCurrentDoc(doc, cur.Version, cur.StartTimestamp)
	return doc, outcome, nil
}

func (d *docSet) appendSnapshot(h *DocHistory, doc types.Document, version types.Version) {
	h.appendSnapshot(types.Snapshot{
		Doc:            doc,
		Version:        version,
		StartTimestamp: d.conf.Now(),
	})
	d.metrics.snapshots.Inc()
}

func (d *docSet) merge(docID string, doc types.Document, changes types.Changes) (types.Document, error) {
	merged, err := d.conf.Engine.ApplyChanges(doc, changes, true)
	if err != nil {
		return nil, &docset.MergeError{DocID: docID, Err: err}
	}
	return merged, nil
}

// SetDoc implements docset.DocSet
func (d *docSet) SetDoc(docID string, doc types.Document, version types.Version) error {
	if version == nil {
		version = d.conf.Scheme.Zero()
	}
	if _, err := d.conf.Scheme.Compare(version, version); err != nil {
		return err
	}

	h := d.store.GetOrCreate(docID)

	h.mu.Lock()
	created := len(h.history) == 0
	h.replaceCurrentDoc(doc, version, d.conf.Now())
	h.mu.Unlock()

	if created {
		d.metrics.snapshots.Inc()
	}
	d.log.Debug().Str("doc", docID).Bool("created", created).Msg("document set")
	d.notifyAll(docID, doc)
	return nil
}

// CreateSnapshot implements docset.DocSet
func (d *docSet) CreateSnapshot(docID string, doc types.Document, version types.Version) error {
	if version != nil {
		if _, err := d.conf.Scheme.Compare(version, version); err != nil {
			return err
		}
	}

	h := d.store.GetOrCreate(docID)

	h.mu.Lock()
	if version == nil {
		cur, exists := h.current()
		if !exists || cur.Version == nil {
			version = d.conf.Scheme.Zero()
		} else {
			next, err := d.conf.Scheme.Successor(cur.Version, d.conf.ReplicaID)
			if err != nil {
				h.mu.Unlock()
				return err
			}
			version = next
		}
	}
	d.appendSnapshot(h, doc, version)
	h.mu.Unlock()

	d.log.Info().Str("doc", docID).Stringer("version", version).Msg("snapshot created")
	d.notifyAll(docID, doc)
	return nil
}
