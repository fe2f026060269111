package merge

import (
	"github.com/odvcencio/tern/pkg/object"
)

// resolveEntry decides clean/result for one unresolved entry with a
// nonzero filemask. Directory-only placeholders (filemask == 0) are the
// builder's business and never reach here.
//
// The policy is evaluated in precedence order. Conflict classes with no
// automatic resolution (D/F, type, content, modify/delete) still get a
// provisional result so the builder always has something to record; they
// stay unclean and are surfaced through the unmerged set.
func resolveEntry(ci *conflictInfo) {
	switch {
	case ci.dfConflict:
		// A file collides with a directory. Keep the file side's
		// content provisionally (ours preferred) and leave the entry
		// for the caller; the colliding directory's contents are not
		// committed under this path.
		ci.merged.result = ci.stages[dfFileSide(ci)]
		ci.merged.clean = false

	case ci.matchMask != 0:
		ci.merged.clean = true
		if ci.matchMask == maskOurs|maskTheirs {
			// Both sides made the same change.
			ci.merged.result = ci.stages[sideOurs]
		} else {
			// Exactly one side differs from the ancestor; it wins.
			// When only the matching sides have file entries, the
			// differing side's change was a deletion.
			othermask := maskAll &^ ci.matchMask
			side := sideOurs
			if othermask == maskTheirs {
				side = sideTheirs
			}
			ci.merged.isNull = ci.filemask == ci.matchMask
			ci.merged.result = ci.stages[side]
		}

	case ci.filemask >= maskOurs|maskTheirs &&
		object.ModeType(ci.stages[sideOurs].mode) != object.ModeType(ci.stages[sideTheirs].mode):
		// Two different item kinds (file vs symlink). No automatic
		// winner; keep ours provisionally.
		ci.merged.result = ci.stages[sideOurs]
		ci.merged.clean = false

	case ci.filemask >= maskOurs|maskTheirs:
		// Same kind, both contents differ from every agreement case
		// above: needs a content-level merge of the two blobs, which is
		// the caller's job. Keep ours provisionally, unclean.
		ci.merged.result = ci.stages[sideOurs]
		ci.merged.clean = false

	case ci.filemask == maskAncestor|maskOurs || ci.filemask == maskAncestor|maskTheirs:
		// Modify/delete: one side changed the file, the other deleted
		// it. Keep the modification so nothing is silently lost.
		side := sideOurs
		if ci.filemask == maskAncestor|maskTheirs {
			side = sideTheirs
		}
		ci.merged.result = ci.stages[side]
		ci.merged.clean = false

	case ci.filemask == maskOurs || ci.filemask == maskTheirs:
		// Added on exactly one side.
		side := sideOurs
		if ci.filemask == maskTheirs {
			side = sideTheirs
		}
		ci.merged.result = ci.stages[side]
		ci.merged.clean = !ci.dfConflict && !ci.pathConflict

	case ci.filemask == maskAncestor:
		// Deleted on both sides.
		ci.merged.isNull = true
		ci.merged.result = versionInfo{}
		ci.merged.clean = !ci.pathConflict
	}
}

// dfFileSide picks which side's file provisionally represents a D/F
// conflict: ours, then theirs, then the ancestor.
func dfFileSide(ci *conflictInfo) int {
	switch {
	case ci.filemask&maskOurs != 0:
		return sideOurs
	case ci.filemask&maskTheirs != 0:
		return sideTheirs
	default:
		return sideAncestor
	}
}
