package merge

import (
	"errors"
	"fmt"
)

// ErrInvalidOptions is wrapped by every configuration validation
// failure. These are programming errors in the caller and are reported
// before any tree is read.
var ErrInvalidOptions = errors.New("invalid merge options")

// Default bound on directory recursion depth, applied when
// Options.MaxTreeDepth is zero. Deep enough for any sane tree; finite so
// a corrupt self-referencing store cannot recurse forever.
const defaultMaxTreeDepth = 256

// Options configures a merge. Branch1 and Branch2 are display labels for
// the two divergent sides, used only in diagnostics and conflict
// reports, never in algorithmic decisions.
type Options struct {
	Branch1 string
	Branch2 string

	// DetectRenames enables the rename detection pass. Detector supplies
	// the policy; when nil, an identity detector is used, under which a
	// path is "renamed" only if its name is unchanged, i.e. no renames
	// are ever proposed.
	DetectRenames   bool
	Detector        RenameDetector
	RenameThreshold int // similarity threshold, 0..100
	RenameLimit     int // max candidate pairs to consider, -1 = unlimited

	// MaxTreeDepth bounds directory recursion during collection.
	// Zero means the default bound.
	MaxTreeDepth int

	Verbosity int // 0..5

	// PreserveState keeps the merge state alive inside the Result for
	// incremental follow-up merges; the caller must then call
	// Result.Finalize. Only applies at call depth 0.
	PreserveState bool
}

// validate checks every configuration invariant. Violations abort the
// merge before any traversal.
func (o *Options) validate() error {
	if o.Branch1 == "" || o.Branch2 == "" {
		return fmt.Errorf("%w: both branch labels must be set", ErrInvalidOptions)
	}
	if o.RenameThreshold < 0 || o.RenameThreshold > 100 {
		return fmt.Errorf("%w: rename threshold %d out of range [0,100]", ErrInvalidOptions, o.RenameThreshold)
	}
	if o.RenameLimit < -1 {
		return fmt.Errorf("%w: rename limit %d below -1", ErrInvalidOptions, o.RenameLimit)
	}
	if o.MaxTreeDepth < 0 {
		return fmt.Errorf("%w: max tree depth %d negative", ErrInvalidOptions, o.MaxTreeDepth)
	}
	if o.Verbosity < 0 || o.Verbosity > 5 {
		return fmt.Errorf("%w: verbosity %d out of range [0,5]", ErrInvalidOptions, o.Verbosity)
	}
	return nil
}

func (o *Options) maxTreeDepth() int {
	if o.MaxTreeDepth == 0 {
		return defaultMaxTreeDepth
	}
	return o.MaxTreeDepth
}

func (o *Options) detector() RenameDetector {
	if o.Detector != nil {
		return o.Detector
	}
	return noopDetector{}
}
