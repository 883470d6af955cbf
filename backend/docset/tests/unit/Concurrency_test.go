package unit

import (
	"fmt"
	"testing"

	"docset/backend/crdt"
	"docset/backend/docset/tests"
	"docset/backend/types"

	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
	"golang.org/x/xerrors"
)

// Concurrent changes at the current version of one document are all kept:
// none of them is lost to a racing read-merge-commit.
func Test_Concurrency_Same_Document(t *testing.T) {
	ds := tests.NewTestDocSet(t)
	spy := &tests.Spy{}
	require.NoError(t, ds.RegisterHandler(spy))

	_, err := ds.ApplyChanges("d1", tests.NewBlock("init", "d1", 1), types.Counter(0))
	require.NoError(t, err)

	numWriters := 16
	numChanges := 20

	var g errgroup.Group
	for w := 0; w < numWriters; w++ {
		origin := fmt.Sprintf("writer-%d", w)
		g.Go(func() error {
			for i := 0; i < numChanges; i++ {
				_, err := ds.ApplyChanges("d1", tests.NewBlock(origin, "d1", uint64(i+1)), types.Counter(0))
				if err != nil {
					return err
				}
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	doc, ok := ds.CurrentDoc("d1")
	require.True(t, ok)
	require.Equal(t, 1+numWriters*numChanges, doc.(*crdt.Doc).Len())
	require.Len(t, doc.(*crdt.Doc).Blocks(), 1+numWriters*numChanges)

	history, _ := ds.History("d1")
	require.Len(t, history, 1)

	require.Equal(t, 1+numWriters*numChanges, spy.Count())
}

// Documents are independent: changes to different documents run in parallel
// and each document ends up with exactly its own changes.
func Test_Concurrency_Separate_Documents(t *testing.T) {
	ds := tests.NewTestDocSet(t)
	spy := &tests.Spy{}
	require.NoError(t, ds.RegisterHandler(spy))

	numDocs := 8
	numChanges := 25

	var g errgroup.Group
	for d := 0; d < numDocs; d++ {
		docID := fmt.Sprintf("doc-%d", d)
		g.Go(func() error {
			for i := 0; i < numChanges; i++ {
				// every other change forks a new snapshot
				version := types.Counter(i / 2)
				_, err := ds.ApplyChanges(docID, tests.NewBlock("alice", docID, uint64(i+1)), version)
				if err != nil {
					return err
				}
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	require.Len(t, ds.DocIDs(), numDocs)
	for _, docID := range ds.DocIDs() {
		doc, ok := ds.CurrentDoc(docID)
		require.True(t, ok)
		require.Equal(t, numChanges, doc.(*crdt.Doc).Len())

		history, _ := ds.History(docID)
		require.Len(t, history, (numChanges+1)/2)
	}

	counts := make(map[string]int)
	for _, call := range spy.Calls() {
		counts[call.DocID]++
	}
	require.Len(t, counts, numDocs)
	for _, n := range counts {
		require.Equal(t, numChanges, n)
	}
}

// Readers never observe a partially committed change.
func Test_Concurrency_Readers(t *testing.T) {
	ds := tests.NewTestDocSet(t)

	_, err := ds.ApplyChanges("d1", tests.NewBlock("init", "d1", 1), types.Counter(0))
	require.NoError(t, err)

	numChanges := 100

	var g errgroup.Group
	g.Go(func() error {
		for i := 0; i < numChanges; i++ {
			_, err := ds.ApplyChanges("d1", tests.NewBlock("alice", "d1", uint64(i+1)), types.Counter(i+1))
			if err != nil {
				return err
			}
		}
		return nil
	})
	g.Go(func() error {
		for i := 0; i < numChanges; i++ {
			history, ok := ds.History("d1")
			if !ok {
				return xerrors.New("history missing")
			}
			cur, _ := history.Current()
			snap, _ := ds.CurrentSnapshot("d1")

			// the snapshot read later is never older
			order, err := types.ScalarScheme{}.Compare(cur.Version, snap.Version)
			if err != nil {
				return err
			}
			if order == types.After {
				return xerrors.Errorf("snapshot went back from %s to %s", cur.Version, snap.Version)
			}
			if cur.Doc.(*crdt.Doc).Len() != int(cur.Version.(types.Counter))+1 {
				return xerrors.Errorf("snapshot %s holds %d operations", cur.Version, cur.Doc.(*crdt.Doc).Len())
			}
		}
		return nil
	})
	require.NoError(t, g.Wait())
}
