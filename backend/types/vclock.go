package types

import (
	"sort"
	"strconv"
	"strings"

	"golang.org/x/xerrors"
)

// VectorClock maps an actor identity to the number of changes seen from it.
// An actor missing from the map counts as zero.
type VectorClock map[string]uint64

// Increment bumps the counter of actor.
func (vc VectorClock) Increment(actor string) {
	vc[actor]++
}

// Copy implements Version.
func (vc VectorClock) Copy() Version {
	return vc.clone()
}

func (vc VectorClock) clone() VectorClock {
	c := make(VectorClock, len(vc))
	for actor, count := range vc {
		c[actor] = count
	}
	return c
}

// Merge returns the pointwise maximum of both clocks.
func (vc VectorClock) Merge(other VectorClock) VectorClock {
	merged := vc.clone()
	for actor, count := range other {
		if count > merged[actor] {
			merged[actor] = count
		}
	}
	return merged
}

// Compare walks the union of actors of both clocks.
func (vc VectorClock) Compare(other VectorClock) Ordering {
	less := false    // some actor of vc is behind other
	greater := false // some actor of vc is ahead of other

	for actor, count := range vc {
		switch {
		case count < other[actor]:
			less = true
		case count > other[actor]:
			greater = true
		}
	}
	for actor, count := range other {
		if _, ok := vc[actor]; !ok && count > 0 {
			less = true
		}
	}

	switch {
	case less && greater:
		return Concurrent
	case less:
		return Before
	case greater:
		return After
	default:
		return Equal
	}
}

// String returns the clock as "actor:count" pairs joined by ";", sorted by
// actor. Zero entries are left out.
func (vc VectorClock) String() string {
	actors := make([]string, 0, len(vc))
	for actor, count := range vc {
		if count > 0 {
			actors = append(actors, actor)
		}
	}
	sort.Strings(actors)

	pairs := make([]string, len(actors))
	for i, actor := range actors {
		pairs[i] = actor + ":" + strconv.FormatUint(vc[actor], 10)
	}
	return strings.Join(pairs, ";")
}

// ParseVectorClock reads the String form of a vector clock. The empty string
// is the empty clock.
func ParseVectorClock(s string) (VectorClock, error) {
	vc := make(VectorClock)
	if strings.TrimSpace(s) == "" {
		return vc, nil
	}

	for _, pair := range strings.Split(s, ";") {
		idx := strings.LastIndex(pair, ":")
		if idx <= 0 {
			return nil, xerrors.Errorf("malformed vector clock entry %q", pair)
		}
		count, err := strconv.ParseUint(strings.TrimSpace(pair[idx+1:]), 10, 64)
		if err != nil {
			return nil, xerrors.Errorf("malformed vector clock entry %q: %w", pair, err)
		}
		vc[strings.TrimSpace(pair[:idx])] = count
	}
	return vc, nil
}

// VectorScheme orders VectorClock markers.
//
// - implements types.Scheme
type VectorScheme struct{}

// Name implements Scheme.
func (VectorScheme) Name() string { return "vector" }

// Zero implements Scheme.
func (VectorScheme) Zero() Version { return VectorClock{} }

// Concurrent implements Scheme.
func (VectorScheme) Concurrent() bool { return true }

// Compare implements Scheme.
func (s VectorScheme) Compare(a, b Version) (Ordering, error) {
	x, err := s.clock(a)
	if err != nil {
		return Equal, err
	}
	y, err := s.clock(b)
	if err != nil {
		return Equal, err
	}
	return x.Compare(y), nil
}

// Join implements Scheme.
func (s VectorScheme) Join(a, b Version) (Version, error) {
	x, err := s.clock(a)
	if err != nil {
		return nil, err
	}
	y, err := s.clock(b)
	if err != nil {
		return nil, err
	}
	return x.Merge(y), nil
}

// Successor implements Scheme.
func (s VectorScheme) Successor(v Version, actor string) (Version, error) {
	x, err := s.clock(v)
	if err != nil {
		return nil, err
	}
	if actor == "" {
		return nil, xerrors.New("vector clock successor needs an actor")
	}
	next := x.clone()
	next.Increment(actor)
	return next, nil
}

// Parse implements Scheme.
func (VectorScheme) Parse(s string) (Version, error) {
	return ParseVectorClock(s)
}

func (VectorScheme) clock(v Version) (VectorClock, error) {
	vc, ok := v.(VectorClock)
	if !ok {
		return nil, xerrors.Errorf("vector scheme got %T: %w", v, ErrVersionKind)
	}
	return vc, nil
}
