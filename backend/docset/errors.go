package docset

import (
	"golang.org/x/xerrors"
)

var (
	// ErrStaleChange rejects a change whose version is causally older than the
	// current snapshot. The caller may retry on a fresher base or drop it.
	ErrStaleChange = xerrors.New("stale change")

	// ErrConcurrentChange rejects a change whose version is concurrent with
	// the current snapshot.
	ErrConcurrentChange = xerrors.New("concurrent change")

	// ErrMergeEngine is matched by every *MergeError.
	ErrMergeEngine = xerrors.New("merge engine failure")

	// ErrConcurrencyUnresolved is returned at construction when the version
	// scheme can report concurrent versions but no policy handles them.
	ErrConcurrencyUnresolved = xerrors.New("no policy configured for concurrent versions")

	// ErrHandlerNotComparable is returned when registering a handler that
	// cannot be compared with ==.
	ErrHandlerNotComparable = xerrors.New("handler is not comparable")
)

// MergeError is returned when the merge engine refuses a change-set.
type MergeError struct {
	DocID string
	Err   error
}

func (e *MergeError) Error() string {
	return "merge engine failed on document " + e.DocID + ": " + e.Err.Error()
}

// Unwrap returns the engine error.
func (e *MergeError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrMergeEngine) hold for every MergeError.
func (e *MergeError) Is(target error) bool {
	return target == ErrMergeEngine
}
