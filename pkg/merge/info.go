// Package merge implements an in-core three-way tree merge: given a
// common-ancestor tree and two divergent trees it produces a merged tree
// plus a classification of every path as clean or conflicting. It works
// entirely on tree objects and content ids; it never touches a working
// tree, and content-level merging of conflicting blobs is left to the
// caller.
package merge

import (
	"github.com/odvcencio/tern/pkg/object"
)

// Side ordinals. These are fixed: the ancestor is always index 0, the
// first divergent tree ("ours") index 1, the second ("theirs") index 2.
const (
	sideAncestor = 0
	sideOurs     = 1
	sideTheirs   = 2
)

// Mask bits, one per side.
const (
	maskAncestor = 1 << sideAncestor
	maskOurs     = 1 << sideOurs
	maskTheirs   = 1 << sideTheirs
	maskAll      = maskAncestor | maskOurs | maskTheirs
)

// versionInfo identifies one side's content at a path: a content id plus
// a tree-entry mode. The zero value means "absent on this side"; absence
// never compares equal to presence.
type versionInfo struct {
	hash object.Hash
	mode string
}

func (v versionInfo) isNull() bool {
	return v.hash.IsNull() && v.mode == ""
}

func (v versionInfo) equal(other versionInfo) bool {
	if v.isNull() || other.isNull() {
		return false
	}
	return v.hash == other.hash && v.mode == other.mode
}

// mergedInfo is the resolved outcome for a path. directoryName is the
// interned handle of the containing directory path; all entries in one
// directory share the same allocation and are compared by handle
// identity, never by string content. basenameOffset is the index into
// the full path where the leaf name begins.
type mergedInfo struct {
	result         versionInfo
	isNull         bool
	clean          bool
	directoryName  *string
	basenameOffset int
}

// conflictInfo carries everything known about a not-yet-resolved path:
// all three sides' versions, per-side pathnames (identical unless a
// rename proposal moved one), and the classification masks. Resolved
// paths use only the embedded mergedInfo; the path map stores every
// entry as a *conflictInfo either way, with merged.clean distinguishing
// the two shapes.
type conflictInfo struct {
	merged       mergedInfo
	stages       [3]versionInfo
	pathnames    [3]string
	filemask     uint8 // bit i set iff side i has a non-directory entry
	dirmask      uint8 // bit i set iff side i has a directory
	matchMask    uint8 // which sides agree; see collect.go
	dfConflict   bool  // file on one side, directory on another, same path
	pathConflict bool
}
