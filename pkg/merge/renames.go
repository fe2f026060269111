package merge

import (
	"fmt"

	"github.com/odvcencio/tern/pkg/object"
)

// RenameCandidate is one unresolved path offered to a RenameDetector:
// the path plus each side's content id and mode (null where absent).
type RenameCandidate struct {
	Path   string
	Hashes [3]object.Hash
	Modes  [3]string
}

// Rename is a detector's proposal to pair a deletion at From with an
// addition at To on the given side (1 or 2).
type Rename struct {
	From string
	To   string
	Side int
}

// RenameDetector is a pluggable rename detection policy, run after
// collection and before entry resolution. Implementations pair deletes
// on one path with adds on another by whatever similarity notion they
// like; proposals feed corrected stages back into the affected entries.
type RenameDetector interface {
	// ProposeRenames inspects the collected candidates and returns
	// proposed pairings. An empty result means no renames.
	ProposeRenames(candidates []RenameCandidate) ([]Rename, error)
}

// noopDetector is the identity policy: files are similar iff they have
// the same filename, so there are never any renames to propose.
type noopDetector struct{}

func (noopDetector) ProposeRenames([]RenameCandidate) ([]Rename, error) {
	return nil, nil
}

// detectRenames runs the configured detector over the unresolved entries
// and applies its proposals. It returns whether the rename pass itself
// completed cleanly; the overall merge cleanliness is ANDed with this.
func (m *Merger) detectRenames(st *mergeState) (bool, error) {
	if !m.opts.DetectRenames {
		return true, nil
	}

	det := m.opts.detector()
	candidates := renameCandidates(st)
	if limit := m.opts.RenameLimit; limit >= 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}

	renames, err := det.ProposeRenames(candidates)
	if err != nil {
		return false, fmt.Errorf("detect renames: %w", err)
	}

	clean := true
	for _, rn := range renames {
		if err := st.applyRename(rn); err != nil {
			return false, fmt.Errorf("detect renames: %w", err)
		}
		// A rename pairing always needs caller attention; both ends are
		// surfaced as path conflicts.
		clean = false
	}
	return clean, nil
}

// renameCandidates gathers the unresolved entries whose file content
// differs somewhere, sorted order not guaranteed.
func renameCandidates(st *mergeState) []RenameCandidate {
	var out []RenameCandidate
	for path, ci := range st.paths {
		if ci.merged.clean || ci.filemask == 0 {
			continue
		}
		rc := RenameCandidate{Path: path}
		for i := 0; i < 3; i++ {
			rc.Hashes[i] = ci.stages[i].hash
			rc.Modes[i] = ci.stages[i].mode
		}
		out = append(out, rc)
	}
	return out
}

// applyRename annotates a proposal: both ends are flagged as path
// conflicts and the destination records which path the renaming side's
// content came from, so the resolver surfaces the pairing instead of
// silently resolving either end. Rewriting stages to merge across the
// pair is the real detector's job and stays with it.
func (st *mergeState) applyRename(rn Rename) error {
	if rn.Side != sideOurs && rn.Side != sideTheirs {
		return fmt.Errorf("rename %q -> %q: invalid side %d", rn.From, rn.To, rn.Side)
	}
	src, ok := st.paths[rn.From]
	if !ok {
		return fmt.Errorf("rename %q -> %q: unknown source path", rn.From, rn.To)
	}
	dst, ok := st.paths[rn.To]
	if !ok {
		return fmt.Errorf("rename %q -> %q: unknown destination path", rn.From, rn.To)
	}
	if src.merged.clean || dst.merged.clean {
		return fmt.Errorf("rename %q -> %q: both ends must be unresolved", rn.From, rn.To)
	}

	dst.pathnames[rn.Side] = rn.From
	dst.pathConflict = true
	src.pathConflict = true
	return nil
}
