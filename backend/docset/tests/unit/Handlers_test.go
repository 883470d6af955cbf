package unit

import (
	"sync"
	"testing"

	"docset/backend/docset"
	"docset/backend/docset/tests"
	"docset/backend/types"

	"github.com/stretchr/testify/require"
	"golang.org/x/xerrors"
)

// Every accepted call notifies every registered handler once, with the
// committed document.
func Test_Handlers_Notified_Per_Mutation(t *testing.T) {
	ds := tests.NewTestDocSet(t)
	spy1 := &tests.Spy{}
	spy2 := &tests.Spy{}
	require.NoError(t, ds.RegisterHandler(spy1))
	require.NoError(t, ds.RegisterHandler(spy2))

	var committed []types.Document

	doc, err := ds.ApplyChanges("d1", tests.NewBlock("alice", "d1", 1), types.Counter(0))
	require.NoError(t, err)
	committed = append(committed, doc)

	doc, err = ds.ApplyChanges("d1", tests.Typing("alice", "d1", "1@alice", "", 2, "a"), types.Counter(0))
	require.NoError(t, err)
	committed = append(committed, doc)

	doc, err = ds.ApplyChanges("d1", tests.Typing("alice", "d1", "1@alice", "2@alice", 3, "b"), types.Counter(1))
	require.NoError(t, err)
	committed = append(committed, doc)

	require.NoError(t, ds.SetDoc("d1", "replaced", nil))
	committed = append(committed, "replaced")

	require.NoError(t, ds.CreateSnapshot("d1", "snapshot", nil))
	committed = append(committed, "snapshot")

	for _, spy := range []*tests.Spy{spy1, spy2} {
		calls := spy.Calls()
		require.Len(t, calls, len(committed))
		for i, call := range calls {
			require.Equal(t, "d1", call.DocID)
			require.Equal(t, committed[i], call.Doc)
		}
	}
}

// The number of notifications follows the handlers registered at call time.
func Test_Handlers_Count_Follows_Registrations(t *testing.T) {
	ds := tests.NewTestDocSet(t)
	spy1 := &tests.Spy{}
	spy2 := &tests.Spy{}

	require.NoError(t, ds.SetDoc("d1", 0, nil))

	require.NoError(t, ds.RegisterHandler(spy1))
	for i := 1; i <= 3; i++ {
		require.NoError(t, ds.SetDoc("d1", i, nil))
	}

	require.NoError(t, ds.RegisterHandler(spy2))
	for i := 4; i <= 5; i++ {
		require.NoError(t, ds.SetDoc("d1", i, nil))
	}

	ds.UnregisterHandler(spy1)
	require.NoError(t, ds.SetDoc("d1", 6, nil))

	require.Equal(t, 5, spy1.Count())
	require.Equal(t, 3, spy2.Count())
}

func Test_Handlers_Register_Idempotent(t *testing.T) {
	ds := tests.NewTestDocSet(t)
	spy := &tests.Spy{}

	require.NoError(t, ds.RegisterHandler(spy))
	require.NoError(t, ds.RegisterHandler(spy))
	require.NoError(t, ds.SetDoc("d1", "x", nil))
	require.Equal(t, 1, spy.Count())

	ds.UnregisterHandler(spy)
	ds.UnregisterHandler(spy)
	require.NoError(t, ds.SetDoc("d1", "y", nil))
	require.Equal(t, 1, spy.Count())
}

func Test_Handlers_Registration_Order(t *testing.T) {
	ds := tests.NewTestDocSet(t)

	var mu sync.Mutex
	var order []string
	record := func(name string) *docset.HandlerFunc {
		h := docset.HandlerFunc(func(string, types.Document) error {
			mu.Lock()
			defer mu.Unlock()
			order = append(order, name)
			return nil
		})
		return &h
	}

	first, second, third := record("first"), record("second"), record("third")
	require.NoError(t, ds.RegisterHandler(third))
	require.NoError(t, ds.RegisterHandler(first))
	require.NoError(t, ds.RegisterHandler(second))
	ds.UnregisterHandler(first)
	require.NoError(t, ds.RegisterHandler(first))

	require.NoError(t, ds.SetDoc("d1", "x", nil))
	require.Equal(t, []string{"third", "second", "first"}, order)
}

// A failing or panicking handler does not stop the others and does not undo
// the commit.
func Test_Handlers_Failures_Isolated(t *testing.T) {
	ds := tests.NewTestDocSet(t)

	failing := &tests.Spy{Err: xerrors.New("boom")}
	panicking := docset.HandlerFunc(func(string, types.Document) error {
		panic("handler bug")
	})
	spy := &tests.Spy{}

	require.NoError(t, ds.RegisterHandler(failing))
	require.NoError(t, ds.RegisterHandler(&panicking))
	require.NoError(t, ds.RegisterHandler(spy))

	doc, err := ds.ApplyChanges("d1", tests.NewBlock("alice", "d1", 1), types.Counter(0))
	require.NoError(t, err)
	require.NotNil(t, doc)

	require.Equal(t, 1, failing.Count())
	require.Equal(t, 1, spy.Count())

	current, ok := ds.CurrentDoc("d1")
	require.True(t, ok)
	require.Same(t, doc, current)
}

type funcHolder struct {
	fn func(string, types.Document) error
}

func (f funcHolder) Handle(docID string, doc types.Document) error {
	return f.fn(docID, doc)
}

// decorated wraps another handler. Its type is comparable, its value is not
// when the wrapped handler is a func.
type decorated struct {
	inner docset.Handler
}

func (d decorated) Handle(docID string, doc types.Document) error {
	return d.inner.Handle(docID, doc)
}

func Test_Handlers_Not_Comparable(t *testing.T) {
	ds := tests.NewTestDocSet(t)
	noop := func(string, types.Document) error { return nil }

	err := ds.RegisterHandler(docset.HandlerFunc(noop))
	require.ErrorIs(t, err, docset.ErrHandlerNotComparable)

	err = ds.RegisterHandler(funcHolder{fn: noop})
	require.ErrorIs(t, err, docset.ErrHandlerNotComparable)

	err = ds.RegisterHandler(nil)
	require.ErrorIs(t, err, docset.ErrHandlerNotComparable)

	// the type is comparable, the value is not: refused every time
	wrapped := decorated{inner: docset.HandlerFunc(noop)}
	require.NotPanics(t, func() {
		require.ErrorIs(t, ds.RegisterHandler(wrapped), docset.ErrHandlerNotComparable)
		require.ErrorIs(t, ds.RegisterHandler(wrapped), docset.ErrHandlerNotComparable)
	})

	// unregistering them is a no-op
	require.NotPanics(t, func() {
		ds.UnregisterHandler(docset.HandlerFunc(noop))
		ds.UnregisterHandler(wrapped)
	})

	require.NoError(t, ds.SetDoc("d1", "x", nil))
}

// A decorator around a comparable handler is itself a valid handler.
func Test_Handlers_Decorated(t *testing.T) {
	ds := tests.NewTestDocSet(t)
	spy := &tests.Spy{}
	wrapped := decorated{inner: spy}

	require.NoError(t, ds.RegisterHandler(wrapped))
	require.NoError(t, ds.RegisterHandler(wrapped))
	require.NoError(t, ds.SetDoc("d1", "x", nil))
	require.Equal(t, 1, spy.Count())

	ds.UnregisterHandler(decorated{inner: spy})
	require.NoError(t, ds.SetDoc("d1", "y", nil))
	require.Equal(t, 1, spy.Count())
}

// Handlers run after the document is unlocked and may read it back.
func Test_Handlers_Read_Back(t *testing.T) {
	ds := tests.NewTestDocSet(t)

	var seen []types.Document
	reader := docset.HandlerFunc(func(docID string, doc types.Document) error {
		current, ok := ds.CurrentDoc(docID)
		if !ok {
			return xerrors.New("document missing")
		}
		seen = append(seen, current)
		return nil
	})
	require.NoError(t, ds.RegisterHandler(&reader))

	doc, err := ds.ApplyChanges("d1", tests.NewBlock("alice", "d1", 1), types.Counter(0))
	require.NoError(t, err)

	require.Len(t, seen, 1)
	require.Same(t, doc, seen[0])
}
