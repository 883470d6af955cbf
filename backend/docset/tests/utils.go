package tests

import (
	"io"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"docset/backend/crdt"
	"docset/backend/docset"
	"docset/backend/docset/impl"
	"docset/backend/types"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

// Option customises the configuration of a test document set.
type Option func(*docset.Configuration)

// WithScheme sets the version scheme. A vector scheme gets the reject policy
// unless another option sets one.
func WithScheme(scheme types.Scheme) Option {
	return func(c *docset.Configuration) {
		c.Scheme = scheme
	}
}

// WithStaleStrategy sets the stale strategy.
func WithStaleStrategy(s docset.StaleStrategy) Option {
	return func(c *docset.Configuration) {
		c.StaleStrategy = s
	}
}

// WithConcurrentPolicy sets the concurrent policy.
func WithConcurrentPolicy(p docset.ConcurrentPolicy) Option {
	return func(c *docset.Configuration) {
		c.ConcurrentPolicy = p
	}
}

// WithEngine replaces the merge engine.
func WithEngine(e docset.MergeEngine) Option {
	return func(c *docset.Configuration) {
		c.Engine = e
	}
}

// WithRegisterer sets the metrics registerer.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(c *docset.Configuration) {
		c.Registerer = reg
	}
}

// WithClock sets the clock stamping snapshots.
func WithClock(now func() time.Time) Option {
	return func(c *docset.Configuration) {
		c.Now = now
	}
}

// WithLogWriter sends logs to w.
func WithLogWriter(w io.Writer) Option {
	return func(c *docset.Configuration) {
		c.LogWriter = w
	}
}

// NewConfiguration returns the default test configuration: scalar versions,
// the operation-log engine, sequential actor ids, silent logs.
func NewConfiguration(opts ...Option) docset.Configuration {
	conf := docset.Configuration{
		Scheme:    types.ScalarScheme{},
		Engine:    crdt.NewEngine(),
		Identity:  NewSeqIdentity("actor"),
		ReplicaID: "replica",
		LogWriter: io.Discard,
	}
	for _, opt := range opts {
		opt(&conf)
	}
	if conf.Scheme.Concurrent() && conf.ConcurrentPolicy == nil {
		conf.ConcurrentPolicy = docset.RejectConcurrent{}
	}
	return conf
}

// NewTestDocSet creates a document set with NewConfiguration.
func NewTestDocSet(t require.TestingT, opts ...Option) docset.DocSet {
	ds, err := impl.NewDocSet(NewConfiguration(opts...))
	require.NoError(t, err)
	return ds
}

// SeqIdentity hands out prefix-1, prefix-2, ...
type SeqIdentity struct {
	prefix string
	next   atomic.Uint64
}

// NewSeqIdentity returns a sequential identity generator.
func NewSeqIdentity(prefix string) *SeqIdentity {
	return &SeqIdentity{prefix: prefix}
}

// NewActorID implements docset.IdentityGenerator
func (s *SeqIdentity) NewActorID() string {
	return s.prefix + "-" + strconv.FormatUint(s.next.Add(1), 10)
}

// Call is one notification received by a Spy.
type Call struct {
	DocID string
	Doc   types.Document
}

// Spy records every notification it receives. Err is returned from Handle.
type Spy struct {
	mu    sync.Mutex
	calls []Call
	Err   error
}

// Handle implements docset.Handler
func (s *Spy) Handle(docID string, doc types.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls = append(s.calls, Call{DocID: docID, Doc: doc})
	return s.Err
}

// Count returns the number of notifications.
func (s *Spy) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.calls)
}

// Calls returns a copy of the notifications.
func (s *Spy) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()

	calls := make([]Call, len(s.calls))
	copy(calls, s.calls)
	return calls
}

// NewBlock returns a change-set creating block opID@origin.
func NewBlock(origin, docID string, opID uint64) types.CRDTOperationsMessage {
	return types.CRDTOperationsMessage{
		Operations: []types.CRDTOperation{crdt.AddBlock(origin, docID, "", opID)},
	}
}

// Typing returns a change-set typing text into block behind the character
// after ("" for the beginning), the first character getting id start.
func Typing(origin, docID, blockID, after string, start uint64, text string) types.CRDTOperationsMessage {
	return types.CRDTOperationsMessage{
		Operations: crdt.InsertText(text, origin, docID, blockID, after, start),
	}
}

// Text renders a document produced by the operation-log engine.
func Text(t require.TestingT, doc types.Document) string {
	d, ok := doc.(*crdt.Doc)
	require.True(t, ok, "document of type %T", doc)
	return d.String()
}
