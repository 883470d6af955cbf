package types

import (
	"fmt"
	"strconv"

	"golang.org/x/xerrors"
)

// ErrVersionKind is returned when a version marker of the wrong kind is given
// to a Scheme.
var ErrVersionKind = xerrors.New("version marker of unexpected kind")

// Ordering is the causal relation between two version markers.
type Ordering int

const (
	Before Ordering = iota
	After
	Equal
	Concurrent
)

func (o Ordering) String() string {
	switch o {
	case Before:
		return "before"
	case After:
		return "after"
	case Equal:
		return "equal"
	case Concurrent:
		return "concurrent"
	default:
		return fmt.Sprintf("ordering(%d)", int(o))
	}
}

// Invert returns the relation seen from the other marker.
func (o Ordering) Invert() Ordering {
	switch o {
	case Before:
		return After
	case After:
		return Before
	default:
		return o
	}
}

// Version is a causal position attached to snapshots and incoming changes.
type Version interface {
	String() string
	Copy() Version
}

// Scheme compares and combines version markers of one kind. A deployment
// picks exactly one scheme.
type Scheme interface {
	// Name returns the configuration name of the scheme.
	Name() string

	// Zero returns the marker of a document that has no explicit one.
	Zero() Version

	// Compare tells how a is placed relative to b.
	Compare(a, b Version) (Ordering, error)

	// Join returns the least marker that is not Before either of a and b.
	Join(a, b Version) (Version, error)

	// Successor returns the marker following v once actor produced a change.
	Successor(v Version, actor string) (Version, error)

	// Parse reads a marker from its String form.
	Parse(s string) (Version, error)

	// Concurrent tells if Compare may ever return Concurrent.
	Concurrent() bool
}

// SchemeByName returns the scheme registered under name.
func SchemeByName(name string) (Scheme, error) {
	switch name {
	case ScalarScheme{}.Name():
		return ScalarScheme{}, nil
	case VectorScheme{}.Name():
		return VectorScheme{}, nil
	default:
		return nil, xerrors.Errorf("unknown version scheme %q", name)
	}
}

// -----------------------------------------------------------------------------
// Counter

// Counter is a scalar, totally ordered version marker.
type Counter uint64

func (c Counter) String() string {
	return strconv.FormatUint(uint64(c), 10)
}

// Copy implements Version.
func (c Counter) Copy() Version {
	return c
}

// ScalarScheme orders Counter markers.
//
// - implements types.Scheme
type ScalarScheme struct{}

// Name implements Scheme.
func (ScalarScheme) Name() string { return "scalar" }

// Zero implements Scheme.
func (ScalarScheme) Zero() Version { return Counter(0) }

// Concurrent implements Scheme. Counters are totally ordered.
func (ScalarScheme) Concurrent() bool { return false }

// Compare implements Scheme.
func (s ScalarScheme) Compare(a, b Version) (Ordering, error) {
	x, err := s.counter(a)
	if err != nil {
		return Equal, err
	}
	y, err := s.counter(b)
	if err != nil {
		return Equal, err
	}

	switch {
	case x < y:
		return Before, nil
	case x > y:
		return After, nil
	default:
		return Equal, nil
	}
}

// Join implements Scheme.
func (s ScalarScheme) Join(a, b Version) (Version, error) {
	x, err := s.counter(a)
	if err != nil {
		return nil, err
	}
	y, err := s.counter(b)
	if err != nil {
		return nil, err
	}
	if x > y {
		return x, nil
	}
	return y, nil
}

// Successor implements Scheme. The actor is irrelevant for counters.
func (s ScalarScheme) Successor(v Version, _ string) (Version, error) {
	x, err := s.counter(v)
	if err != nil {
		return nil, err
	}
	return x + 1, nil
}

// Parse implements Scheme.
func (ScalarScheme) Parse(str string) (Version, error) {
	n, err := strconv.ParseUint(str, 10, 64)
	if err != nil {
		return nil, xerrors.Errorf("failed to parse counter %q: %w", str, err)
	}
	return Counter(n), nil
}

func (ScalarScheme) counter(v Version) (Counter, error) {
	c, ok := v.(Counter)
	if !ok {
		return 0, xerrors.Errorf("scalar scheme got %T: %w", v, ErrVersionKind)
	}
	return c, nil
}
