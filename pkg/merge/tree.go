package merge

import (
	"fmt"
	"sort"

	"github.com/odvcencio/tern/pkg/object"
)

// directoryVersions accumulates, per containing directory, the tree
// entries finalized so far. Keys are interned directory handles; a list
// is consumed exactly once, when its owning directory is finalized.
type directoryVersions struct {
	versions map[*string][]object.TreeEntry
}

func newDirectoryVersions() *directoryVersions {
	return &directoryVersions{versions: make(map[*string][]object.TreeEntry)}
}

// record appends a finalized path to its directory's child list. Null
// results (deletions) contribute nothing to the rebuilt tree.
func (dv *directoryVersions) record(path string, ci *conflictInfo) {
	if ci.merged.isNull {
		return
	}
	basename := path[ci.merged.basenameOffset:]
	dv.versions[ci.merged.directoryName] = append(dv.versions[ci.merged.directoryName], object.TreeEntry{
		Name: basename,
		Mode: ci.merged.result.mode,
		Hash: ci.merged.result.hash,
	})
}

// processEntries resolves every collected entry and rebuilds the result
// tree bottom-up, returning its id. Paths are ordered so that every
// child is finalized before its parent directory; each completed
// directory is written as a new tree object and propagated into its own
// parent's child list.
func (m *Merger) processEntries(st *mergeState) (object.Hash, error) {
	if st.phase != phaseTraversalDone {
		return "", fmt.Errorf("process entries: traversal not complete")
	}

	if len(st.paths) == 0 {
		st.phase = phaseResolved
		return m.trees.WriteTree(&object.TreeObj{})
	}

	plist := make([]string, 0, len(st.paths))
	for path := range st.paths {
		plist = append(plist, path)
	}
	sort.Slice(plist, func(i, j int) bool {
		return dfNameCompare(plist[i], plist[j]) < 0
	})

	dv := newDirectoryVersions()

	// Reverse order: paths below a directory are handled before the
	// directory itself.
	for i := len(plist) - 1; i >= 0; i-- {
		path := plist[i]
		ci := st.paths[path]

		switch {
		case ci.merged.clean:
			dv.record(path, ci)

		case ci.filemask == 0:
			// Directory placeholder: all children are finalized, so the
			// directory's own version is whatever they add up to.
			if err := m.finalizeDirectory(st, dv, path, ci); err != nil {
				return "", err
			}
			dv.record(path, ci)

		default:
			resolveEntry(ci)
			if !ci.merged.clean && !ci.merged.isNull && ci.merged.result.isNull() {
				// Every unclean class must leave a provisional result;
				// reaching here means a resolver policy gap.
				return "", fmt.Errorf("process entries: no resolution for %q (filemask=%d dirmask=%d)",
					path, ci.filemask, ci.dirmask)
			}
			if !ci.merged.clean {
				st.unmerged[path] = ci
			}
			dv.record(path, ci)
		}
	}

	root, err := m.writeDirectory(dv, st.dirnames[""])
	if err != nil {
		return "", err
	}
	st.phase = phaseResolved
	return root, nil
}

// finalizeDirectory synthesizes the tree object for a fully-accumulated
// directory and records its id as the directory's own merged result. A
// directory left with no children is dropped entirely; trees cannot
// represent empty directories.
func (m *Merger) finalizeDirectory(st *mergeState, dv *directoryVersions, path string, ci *conflictInfo) error {
	handle, ok := st.dirnames[path]
	if !ok {
		// filemask == 0 entries only exist for paths that were recursed
		// into, which always interns the path.
		return fmt.Errorf("process entries: directory %q was never descended into", path)
	}
	children := dv.versions[handle]
	delete(dv.versions, handle)

	if len(children) == 0 {
		ci.merged.isNull = true
		ci.merged.clean = true
		return nil
	}

	h, err := m.trees.WriteTree(&object.TreeObj{Entries: sortedByName(children)})
	if err != nil {
		return fmt.Errorf("write tree for %q: %w", path, err)
	}
	ci.merged.result = versionInfo{hash: h, mode: object.TreeModeDir}
	ci.merged.clean = true
	return nil
}

func (m *Merger) writeDirectory(dv *directoryVersions, root *string) (object.Hash, error) {
	children := dv.versions[root]
	h, err := m.trees.WriteTree(&object.TreeObj{Entries: sortedByName(children)})
	if err != nil {
		return "", fmt.Errorf("write result tree: %w", err)
	}
	return h, nil
}

func sortedByName(entries []object.TreeEntry) []object.TreeEntry {
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name < entries[j].Name
	})
	return entries
}

// dfNameCompare orders paths as if each carried a trailing slash, so a
// path that is a strict prefix of another always precedes it. Plain
// lexicographic comparison would put "foo.txt" after "foo" but leaves
// "foo" vs "foo/bar" dependent on the byte values around the separator;
// this comparator pins both, which is what reverse processing relies on
// to finalize "foo"'s children before "foo" itself.
func dfNameCompare(one, two string) int {
	n := len(one)
	if len(two) < n {
		n = len(two)
	}
	for i := 0; i < n; i++ {
		if one[i] != two[i] {
			if one[i] < two[i] {
				return -1
			}
			return 1
		}
	}
	c1, c2 := byte('/'), byte('/')
	if len(one) > n {
		c1 = one[n]
	}
	if len(two) > n {
		c2 = two[n]
	}
	if c1 != c2 {
		if c1 < c2 {
			return -1
		}
		return 1
	}
	return len(one) - len(two)
}
