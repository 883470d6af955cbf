package impl

import (
	"reflect"
	"sync"

	"docset/backend/docset"
	"docset/backend/types"

	"golang.org/x/xerrors"
)

// Handlers is the ordered set of registered handlers.
type Handlers struct {
	mu       sync.Mutex
	handlers []docset.Handler
}

func newHandlers() *Handlers {
	return &Handlers{
		mu:       sync.Mutex{},
		handlers: make([]docset.Handler, 0),
	}
}

// Add appends a handler unless it is already registered.
func (hs *Handlers) Add(h docset.Handler) error {
	if !isComparable(h) {
		return xerrors.Errorf("cannot register %T: %w", h, docset.ErrHandlerNotComparable)
	}

	hs.mu.Lock()
	defer hs.mu.Unlock()

	for _, registered := range hs.handlers {
		if registered == h {
			return nil
		}
	}
	hs.handlers = append(hs.handlers, h)
	return nil
}

// Remove drops a handler, keeping the order of the others.
func (hs *Handlers) Remove(h docset.Handler) {
	if !isComparable(h) {
		return
	}

	hs.mu.Lock()
	defer hs.mu.Unlock()

	for i, registered := range hs.handlers {
		if registered == h {
			hs.handlers = append(hs.handlers[:i:i], hs.handlers[i+1:]...)
			return
		}
	}
}

// isComparable tells if h can be compared with ==. The value is checked, not
// only its type: a struct may hold a func behind an interface field.
func isComparable(h docset.Handler) bool {
	return h != nil && reflect.ValueOf(h).Comparable()
}

// Values returns the handlers in registration order.
func (hs *Handlers) Values() []docset.Handler {
	hs.mu.Lock()
	defer hs.mu.Unlock()

	values := make([]docset.Handler, len(hs.handlers))
	copy(values, hs.handlers)
	return values
}

// RegisterHandler implements docset.DocSet
func (d *docSet) RegisterHandler(h docset.Handler) error {
	return d.handlers.Add(h)
}

// UnregisterHandler implements docset.DocSet
func (d *docSet) UnregisterHandler(h docset.Handler) {
	d.handlers.Remove(h)
}

// notifyAll calls every handler registered at call time, in registration
// order. A failing handler is logged and does not stop the others.
func (d *docSet) notifyAll(docID string, doc types.Document) {
	for _, h := range d.handlers.Values() {
		err := d.notify(h, docID, doc)
		if err != nil {
			d.metrics.handlerFailures.Inc()
			d.log.Error().Err(err).Str("doc", docID).Msgf("handler %T failed", h)
		}
	}
}

func (d *docSet) notify(h docset.Handler, docID string, doc types.Document) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = xerrors.Errorf("handler panicked: %v", r)
		}
	}()
	return h.Handle(docID, doc)
}
