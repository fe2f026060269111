package merge

import (
	"fmt"

	"github.com/odvcencio/tern/pkg/object"
)

// collectTrees drives the synchronized walk of the three input trees,
// producing exactly one path entry per distinct path reachable from any
// side. A null root hash stands for an empty tree (e.g. a merge with no
// common ancestor).
func (m *Merger) collectTrees(st *mergeState, base, ours, theirs object.Hash) error {
	var trees [3]*object.TreeObj
	var err error

	trees[sideAncestor], err = m.readTreeOrEmpty(base)
	if err != nil {
		return fmt.Errorf("collect merge info: %w", err)
	}

	// Reuse the parsed ancestor tree when a side points at the same
	// object; identical subtrees must share handles.
	if ours == base {
		trees[sideOurs] = trees[sideAncestor]
	} else {
		trees[sideOurs], err = m.readTreeOrEmpty(ours)
		if err != nil {
			return fmt.Errorf("collect merge info: %w", err)
		}
	}
	switch theirs {
	case base:
		trees[sideTheirs] = trees[sideAncestor]
	case ours:
		trees[sideTheirs] = trees[sideOurs]
	default:
		trees[sideTheirs], err = m.readTreeOrEmpty(theirs)
		if err != nil {
			return fmt.Errorf("collect merge info: %w", err)
		}
	}

	if err := m.walkTrees(st, trees, 0); err != nil {
		return fmt.Errorf("collect merge info: %w", err)
	}
	st.phase = phaseTraversalDone
	return nil
}

func (m *Merger) readTreeOrEmpty(h object.Hash) (*object.TreeObj, error) {
	if h.IsNull() {
		return &object.TreeObj{}, nil
	}
	tr, err := m.trees.ReadTree(h)
	if err != nil {
		return nil, err
	}
	return tr, nil
}

// walkTrees advances three name-ordered cursors in lockstep. Every
// distinct name across the three trees is visited exactly once; a name
// that is a directory on at least one non-matching side recurses.
func (m *Merger) walkTrees(st *mergeState, trees [3]*object.TreeObj, depth int) error {
	if depth > m.opts.maxTreeDepth() {
		return fmt.Errorf("tree depth exceeds limit (%d)", m.opts.maxTreeDepth())
	}

	var idx [3]int
	for {
		name, ok := nextName(trees, idx)
		if !ok {
			return nil
		}

		var names [3]versionInfo
		var mask uint8
		var dirmask uint8
		for i := 0; i < 3; i++ {
			entries := trees[i].Entries
			if idx[i] < len(entries) && entries[idx[i]].Name == name {
				e := entries[idx[i]]
				names[i] = versionInfo{hash: e.Hash, mode: e.Mode}
				mask |= 1 << i
				if object.IsDirMode(e.Mode) {
					dirmask |= 1 << i
				}
				idx[i]++
			}
		}
		filemask := mask &^ dirmask

		oursMatchesBase := names[sideOurs].equal(names[sideAncestor])
		theirsMatchesBase := names[sideTheirs].equal(names[sideAncestor])
		sidesMatch := names[sideOurs].equal(names[sideTheirs])

		var matchMask uint8
		switch {
		case oursMatchesBase && theirsMatchesBase:
			matchMask = maskAll
		case oursMatchesBase:
			matchMask = maskAncestor | maskOurs
		case theirsMatchesBase:
			matchMask = maskAncestor | maskTheirs
		case sidesMatch:
			matchMask = maskOurs | maskTheirs
		}

		// A file on one side colliding with a directory on another, at
		// this exact path. Parent directories' D/F collisions do not
		// taint their children: directories stay put and files move out
		// of the way.
		dfConflict := filemask != 0 && dirmask != 0

		dir := *st.currentDirName
		fullpath := name
		basenameOffset := 0
		if dir != "" {
			fullpath = dir + "/" + name
			basenameOffset = len(dir) + 1
		}

		// Fast path: all three sides agree. Even for trees there is
		// nothing underneath worth visiting.
		if matchMask == maskAll {
			st.paths[fullpath] = &conflictInfo{
				merged: mergedInfo{
					result:         names[sideAncestor],
					clean:          true,
					directoryName:  st.currentDirName,
					basenameOffset: basenameOffset,
				},
			}
			continue
		}

		ci := &conflictInfo{
			merged: mergedInfo{
				directoryName:  st.currentDirName,
				basenameOffset: basenameOffset,
			},
			stages:     names,
			pathnames:  [3]string{fullpath, fullpath, fullpath},
			filemask:   filemask,
			dirmask:    dirmask,
			matchMask:  matchMask,
			dfConflict: dfConflict,
		}
		st.paths[fullpath] = ci

		if dirmask != 0 {
			// Directory-ness is handled by recursion; only file-level
			// agreement matters to the resolver below this point.
			ci.matchMask &= filemask

			var sub [3]*object.TreeObj
			for i := 0; i < 3; i++ {
				switch {
				case dirmask&(1<<i) == 0:
					sub[i] = &object.TreeObj{}
				case i == sideOurs && oursMatchesBase:
					sub[sideOurs] = sub[sideAncestor]
				case i == sideTheirs && theirsMatchesBase:
					sub[sideTheirs] = sub[sideAncestor]
				case i == sideTheirs && sidesMatch:
					sub[sideTheirs] = sub[sideOurs]
				default:
					tr, err := m.trees.ReadTree(names[i].hash)
					if err != nil {
						return fmt.Errorf("read subtree %s at %q: %w", names[i].hash, fullpath, err)
					}
					sub[i] = tr
				}
			}

			saved := st.currentDirName
			st.currentDirName = st.internDir(fullpath)
			err := m.walkTrees(st, sub, depth+1)
			st.currentDirName = saved
			if err != nil {
				return err
			}
		}
	}
}

// nextName returns the smallest entry name any cursor currently points
// at, or false when all three are exhausted.
func nextName(trees [3]*object.TreeObj, idx [3]int) (string, bool) {
	name := ""
	found := false
	for i := 0; i < 3; i++ {
		entries := trees[i].Entries
		if idx[i] >= len(entries) {
			continue
		}
		if !found || entries[idx[i]].Name < name {
			name = entries[idx[i]].Name
			found = true
		}
	}
	return name, found
}
