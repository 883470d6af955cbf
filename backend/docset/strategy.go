package docset

import (
	"docset/backend/types"

	"golang.org/x/xerrors"
)

// StaleStrategy decides whether a change older than the current snapshot can
// still be accepted.
type StaleStrategy interface {
	Name() string

	// Ancestor returns the index in history of the snapshot the change is
	// grounded on. ok is false when the change must be rejected.
	Ancestor(scheme types.Scheme, history types.History, version types.Version) (idx int, ok bool, err error)
}

// ConcurrentPolicy decides what happens to a change whose version is
// concurrent with the current snapshot.
type ConcurrentPolicy interface {
	Name() string

	// Resolve returns the version of the snapshot that holds the merged
	// change. ok is false when the change must be rejected.
	Resolve(scheme types.Scheme, current, incoming types.Version) (version types.Version, ok bool, err error)
}

// RejectStale rejects every stale change.
//
// - implements docset.StaleStrategy
type RejectStale struct{}

// Name implements StaleStrategy.
func (RejectStale) Name() string { return "reject" }

// Ancestor implements StaleStrategy.
func (RejectStale) Ancestor(types.Scheme, types.History, types.Version) (int, bool, error) {
	return 0, false, nil
}

// RebaseOnAncestor accepts a stale change when history still holds a snapshot
// the change descends from, i.e. one whose version is Equal or Before the
// change's version. The newest such snapshot is picked.
//
// - implements docset.StaleStrategy
type RebaseOnAncestor struct{}

// Name implements StaleStrategy.
func (RebaseOnAncestor) Name() string { return "rebase" }

// Ancestor implements StaleStrategy.
func (RebaseOnAncestor) Ancestor(scheme types.Scheme, history types.History, version types.Version) (int, bool, error) {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Version == nil {
			continue
		}
		order, err := scheme.Compare(history[i].Version, version)
		if err != nil {
			return 0, false, err
		}
		if order == types.Equal || order == types.Before {
			return i, true, nil
		}
	}
	return 0, false, nil
}

// RejectConcurrent rejects every concurrent change.
//
// - implements docset.ConcurrentPolicy
type RejectConcurrent struct{}

// Name implements ConcurrentPolicy.
func (RejectConcurrent) Name() string { return "reject" }

// Resolve implements ConcurrentPolicy.
func (RejectConcurrent) Resolve(types.Scheme, types.Version, types.Version) (types.Version, bool, error) {
	return nil, false, nil
}

// MergeConcurrent merges a concurrent change into the current content and
// records the result at the join of both versions.
//
// - implements docset.ConcurrentPolicy
type MergeConcurrent struct{}

// Name implements ConcurrentPolicy.
func (MergeConcurrent) Name() string { return "merge" }

// Resolve implements ConcurrentPolicy.
func (MergeConcurrent) Resolve(scheme types.Scheme, current, incoming types.Version) (types.Version, bool, error) {
	joined, err := scheme.Join(current, incoming)
	if err != nil {
		return nil, false, err
	}
	return joined, true, nil
}

// StaleStrategyByName returns the strategy registered under name.
func StaleStrategyByName(name string) (StaleStrategy, error) {
	switch name {
	case RejectStale{}.Name():
		return RejectStale{}, nil
	case RebaseOnAncestor{}.Name():
		return RebaseOnAncestor{}, nil
	default:
		return nil, xerrors.Errorf("unknown stale strategy %q", name)
	}
}

// ConcurrentPolicyByName returns the policy registered under name. The empty
// name means no policy.
func ConcurrentPolicyByName(name string) (ConcurrentPolicy, error) {
	switch name {
	case "":
		return nil, nil
	case RejectConcurrent{}.Name():
		return RejectConcurrent{}, nil
	case MergeConcurrent{}.Name():
		return MergeConcurrent{}, nil
	default:
		return nil, xerrors.Errorf("unknown concurrent policy %q", name)
	}
}
