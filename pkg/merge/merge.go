package merge

import (
	"fmt"
	"sort"

	"github.com/odvcencio/tern/pkg/object"
)

// TreeReader reads tree objects from an object store.
type TreeReader interface {
	ReadTree(object.Hash) (*object.TreeObj, error)
}

// TreeWriter writes tree objects to an object store.
type TreeWriter interface {
	WriteTree(*object.TreeObj) (object.Hash, error)
}

// TreeStore is the narrow object-store surface the engine needs: the
// collector reads trees, the builder writes them. *object.Store
// satisfies it.
type TreeStore interface {
	TreeReader
	TreeWriter
}

// Merger runs three-way tree merges against one object store.
type Merger struct {
	trees TreeStore
	opts  Options
}

// NewMerger validates opts and returns a Merger. Option violations are
// reported here, before any tree is touched.
func NewMerger(trees TreeStore, opts Options) (*Merger, error) {
	if trees == nil {
		return nil, fmt.Errorf("%w: nil tree store", ErrInvalidOptions)
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}
	return &Merger{trees: trees, opts: opts}, nil
}

// PathConflict is the reportable detail for one conflicting path: the
// three-sided stages (ancestor, ours, theirs) plus per-side pathnames,
// which differ from Path only when a rename proposal moved a side.
type PathConflict struct {
	Path      string
	Pathnames [3]string
	Hashes    [3]object.Hash
	Modes     [3]string
}

// Result is the outcome of a merge. Tree is the merged tree id; Clean
// reports whether every path resolved without caller attention.
// Conflicts lists the unclean paths, sorted.
//
// When Options.PreserveState is set, the Result owns the merge state
// for incremental follow-up merges and the caller must call Finalize;
// otherwise the state is released before MergeTrees returns.
type Result struct {
	Clean     bool
	Tree      object.Hash
	Conflicts []PathConflict

	state *mergeState
}

// Finalize releases any retained merge state. Safe to call repeatedly.
func (r *Result) Finalize() {
	if r.state != nil {
		r.state.release()
		r.state = nil
	}
}

// MergeTrees merges ours and theirs against their common-ancestor base
// tree. Null hashes stand for empty trees. The merge either produces a
// complete Result or fails as a whole; there are no partial trees.
func (m *Merger) MergeTrees(base, ours, theirs object.Hash) (*Result, error) {
	return m.MergeTreesAt(base, ours, theirs, 0)
}

// MergeTreesAt is MergeTrees with an explicit call depth, for drivers
// that recursively merge merge-bases. Only depth 0 transfers state
// ownership into the Result.
func (m *Merger) MergeTreesAt(base, ours, theirs object.Hash, callDepth int) (*Result, error) {
	if callDepth < 0 {
		return nil, fmt.Errorf("%w: negative call depth", ErrInvalidOptions)
	}
	st := newMergeState(callDepth)

	if err := m.collectTrees(st, base, ours, theirs); err != nil {
		st.release()
		return nil, fmt.Errorf("merge trees %s, %s, %s: %w",
			base.Short(), ours.Short(), theirs.Short(), err)
	}

	renamesClean, err := m.detectRenames(st)
	if err != nil {
		st.release()
		return nil, err
	}

	tree, err := m.processEntries(st)
	if err != nil {
		st.release()
		return nil, err
	}

	result := &Result{
		Clean:     renamesClean && len(st.unmerged) == 0,
		Tree:      tree,
		Conflicts: conflictList(st),
	}

	if m.opts.PreserveState && st.callDepth == 0 {
		result.state = st
	} else {
		st.release()
	}
	return result, nil
}

// conflictList snapshots the unmerged set into reportable form, sorted
// by path.
func conflictList(st *mergeState) []PathConflict {
	if len(st.unmerged) == 0 {
		return nil
	}
	out := make([]PathConflict, 0, len(st.unmerged))
	for path, ci := range st.unmerged {
		pc := PathConflict{Path: path, Pathnames: ci.pathnames}
		for i := 0; i < 3; i++ {
			pc.Hashes[i] = ci.stages[i].hash
			pc.Modes[i] = ci.stages[i].mode
		}
		out = append(out, pc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}
