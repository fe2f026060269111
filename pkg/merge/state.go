package merge

// phase tracks the orchestrator lifecycle. Transitions only move
// forward; a traversal failure jumps straight to phaseFinalized.
type phase int

const (
	phaseUnconfigured phase = iota
	phaseInitialized
	phaseTraversalDone
	phaseResolved
	phaseFinalized
)

// mergeState is the mutable state of one in-flight merge. It is owned
// exclusively by a single MergeTrees call and is never shared between
// concurrent merges.
//
// paths owns every entry. unmerged holds a subset of the same pointers
// and never releases anything on its own. dirnames interns directory
// path strings so that two entries share a directory iff their
// directoryName handles are the same allocation.
type mergeState struct {
	paths    map[string]*conflictInfo
	unmerged map[string]*conflictInfo

	dirnames       map[string]*string
	currentDirName *string

	callDepth int
	phase     phase
}

func newMergeState(callDepth int) *mergeState {
	st := &mergeState{
		paths:     make(map[string]*conflictInfo),
		unmerged:  make(map[string]*conflictInfo),
		dirnames:  make(map[string]*string),
		callDepth: callDepth,
		phase:     phaseInitialized,
	}
	st.currentDirName = st.internDir("")
	return st
}

// internDir returns the shared handle for a directory path, creating it
// on first use.
func (st *mergeState) internDir(dir string) *string {
	if h, ok := st.dirnames[dir]; ok {
		return h
	}
	h := new(string)
	*h = dir
	st.dirnames[dir] = h
	return h
}

// release drops all state. After release the maps are gone; holding on
// to entries past this point is a caller bug.
func (st *mergeState) release() {
	st.paths = nil
	st.unmerged = nil
	st.dirnames = nil
	st.currentDirName = nil
	st.phase = phaseFinalized
}
