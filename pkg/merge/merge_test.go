package merge

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/odvcencio/tern/pkg/object"
)

// fileVersion names one file's mode and content id when building test
// trees.
type fileVersion struct {
	mode string
	hash object.Hash
}

func newTestStore(t *testing.T) *object.Store {
	t.Helper()
	return object.NewStore(t.TempDir())
}

func newTestMerger(t *testing.T, trees TreeStore) *Merger {
	t.Helper()
	m, err := NewMerger(trees, Options{
		Branch1:     "main",
		Branch2:     "topic",
		RenameLimit: -1,
	})
	if err != nil {
		t.Fatalf("NewMerger: %v", err)
	}
	return m
}

func writeBlob(t *testing.T, s *object.Store, content string) object.Hash {
	t.Helper()
	h, err := s.WriteBlob(&object.Blob{Data: []byte(content)})
	if err != nil {
		t.Fatalf("WriteBlob(%q): %v", content, err)
	}
	return h
}

// writeTree builds a (possibly nested) tree from path -> content, all
// regular files.
func writeTree(t *testing.T, s *object.Store, files map[string]string) object.Hash {
	t.Helper()
	versions := make(map[string]fileVersion, len(files))
	for p, content := range files {
		versions[p] = fileVersion{mode: object.TreeModeFile, hash: writeBlob(t, s, content)}
	}
	return writeTreeVersions(t, s, versions)
}

// writeTreeVersions builds a nested tree from path -> fileVersion,
// grouping paths by directory and writing subtrees bottom-up.
func writeTreeVersions(t *testing.T, s *object.Store, files map[string]fileVersion) object.Hash {
	t.Helper()
	return buildTestTreeDir(t, s, files, "")
}

func buildTestTreeDir(t *testing.T, s *object.Store, files map[string]fileVersion, prefix string) object.Hash {
	t.Helper()

	direct := make(map[string]fileVersion)
	subdirs := make(map[string]struct{})
	for p, fv := range files {
		rel := p
		if prefix != "" {
			if !strings.HasPrefix(p, prefix+"/") {
				continue
			}
			rel = p[len(prefix)+1:]
		}
		if slash := strings.IndexByte(rel, '/'); slash < 0 {
			direct[rel] = fv
		} else {
			subdirs[rel[:slash]] = struct{}{}
		}
	}

	tr := &object.TreeObj{}
	for name, fv := range direct {
		tr.Entries = append(tr.Entries, object.TreeEntry{Name: name, Mode: fv.mode, Hash: fv.hash})
	}
	for name := range subdirs {
		childPrefix := name
		if prefix != "" {
			childPrefix = prefix + "/" + name
		}
		sub := buildTestTreeDir(t, s, files, childPrefix)
		tr.Entries = append(tr.Entries, object.TreeEntry{Name: name, Mode: object.TreeModeDir, Hash: sub})
	}

	h, err := s.WriteTree(tr)
	if err != nil {
		t.Fatalf("WriteTree(prefix=%q): %v", prefix, err)
	}
	return h
}

// treeEntryAt descends root along a slash-separated path and returns the
// entry found there.
func treeEntryAt(t *testing.T, s *object.Store, root object.Hash, pth string) (object.TreeEntry, bool) {
	t.Helper()

	segs := strings.Split(pth, "/")
	cur := root
	for i, seg := range segs {
		tr, err := s.ReadTree(cur)
		if err != nil {
			t.Fatalf("ReadTree(%s): %v", cur, err)
		}
		idx := -1
		for j, e := range tr.Entries {
			if e.Name == seg {
				idx = j
				break
			}
		}
		if idx < 0 {
			return object.TreeEntry{}, false
		}
		if i == len(segs)-1 {
			return tr.Entries[idx], true
		}
		if !object.IsDirMode(tr.Entries[idx].Mode) {
			return object.TreeEntry{}, false
		}
		cur = tr.Entries[idx].Hash
	}
	return object.TreeEntry{}, false
}

func TestMergeTrees_IdenticalInputs(t *testing.T) {
	s := newTestStore(t)
	tree := writeTree(t, s, map[string]string{
		"README.md":     "docs\n",
		"pkg/a/one.go":  "package a\n",
		"pkg/a/two.go":  "package a // two\n",
		"pkg/b/main.go": "package b\n",
	})

	m := newTestMerger(t, s)
	result, err := m.MergeTrees(tree, tree, tree)
	if err != nil {
		t.Fatalf("MergeTrees: %v", err)
	}
	if !result.Clean {
		t.Fatal("merging a tree with itself should be clean")
	}
	if len(result.Conflicts) != 0 {
		t.Fatalf("unexpected conflicts: %v", result.Conflicts)
	}
	if result.Tree != tree {
		t.Fatalf("result tree = %s, want input tree %s", result.Tree, tree)
	}
}

func TestMergeTrees_EmptyInputs(t *testing.T) {
	s := newTestStore(t)

	m := newTestMerger(t, s)
	result, err := m.MergeTrees("", "", "")
	if err != nil {
		t.Fatalf("MergeTrees: %v", err)
	}
	if !result.Clean {
		t.Fatal("empty merge should be clean")
	}
	if result.Tree != object.EmptyTreeHash() {
		t.Fatalf("result tree = %s, want canonical empty tree", result.Tree)
	}
}

func TestMergeTrees_AddedOnOneSide(t *testing.T) {
	s := newTestStore(t)
	base := writeTree(t, s, map[string]string{"keep.txt": "keep\n"})
	ours := writeTree(t, s, map[string]string{"keep.txt": "keep\n", "a.txt": "added\n"})
	theirs := base

	m := newTestMerger(t, s)
	result, err := m.MergeTrees(base, ours, theirs)
	if err != nil {
		t.Fatalf("MergeTrees: %v", err)
	}
	if !result.Clean {
		t.Fatalf("addition on one side should be clean; conflicts: %v", result.Conflicts)
	}

	e, ok := treeEntryAt(t, s, result.Tree, "a.txt")
	if !ok {
		t.Fatal("result tree missing a.txt")
	}
	if e.Hash != writeBlob(t, s, "added\n") {
		t.Fatalf("a.txt = %s, want the added blob", e.Hash)
	}
}

func TestMergeTrees_BothSidesAddSameContent(t *testing.T) {
	s := newTestStore(t)
	base := writeTree(t, s, nil)
	ours := writeTree(t, s, map[string]string{"same.txt": "identical\n"})
	theirs := writeTree(t, s, map[string]string{"same.txt": "identical\n"})

	m := newTestMerger(t, s)
	result, err := m.MergeTrees(base, ours, theirs)
	if err != nil {
		t.Fatalf("MergeTrees: %v", err)
	}
	if !result.Clean {
		t.Fatalf("identical additions should merge cleanly; conflicts: %v", result.Conflicts)
	}
	if _, ok := treeEntryAt(t, s, result.Tree, "same.txt"); !ok {
		t.Fatal("result tree missing same.txt")
	}
}

func TestMergeTrees_DeletedOnBothSides(t *testing.T) {
	s := newTestStore(t)
	base := writeTree(t, s, map[string]string{"b.txt": "bye\n", "keep.txt": "keep\n"})
	ours := writeTree(t, s, map[string]string{"keep.txt": "keep\n"})
	theirs := ours

	m := newTestMerger(t, s)
	result, err := m.MergeTrees(base, ours, theirs)
	if err != nil {
		t.Fatalf("MergeTrees: %v", err)
	}
	if !result.Clean {
		t.Fatalf("double deletion should be clean; conflicts: %v", result.Conflicts)
	}
	if _, ok := treeEntryAt(t, s, result.Tree, "b.txt"); ok {
		t.Fatal("result tree still contains b.txt")
	}
	if _, ok := treeEntryAt(t, s, result.Tree, "keep.txt"); !ok {
		t.Fatal("result tree missing keep.txt")
	}
}

func TestMergeTrees_OneSideModifies(t *testing.T) {
	s := newTestStore(t)
	base := writeTree(t, s, map[string]string{"f.txt": "v1\n"})
	ours := base
	theirs := writeTree(t, s, map[string]string{"f.txt": "v2\n"})

	m := newTestMerger(t, s)
	result, err := m.MergeTrees(base, ours, theirs)
	if err != nil {
		t.Fatalf("MergeTrees: %v", err)
	}
	if !result.Clean {
		t.Fatalf("single-side modification should be clean; conflicts: %v", result.Conflicts)
	}

	e, ok := treeEntryAt(t, s, result.Tree, "f.txt")
	if !ok {
		t.Fatal("result tree missing f.txt")
	}
	if e.Hash != writeBlob(t, s, "v2\n") {
		t.Fatalf("f.txt = %s, want the modified blob", e.Hash)
	}
}

func TestMergeTrees_OneSideDeletes(t *testing.T) {
	s := newTestStore(t)
	base := writeTree(t, s, map[string]string{"gone.txt": "x\n", "keep.txt": "keep\n"})
	ours := base
	theirs := writeTree(t, s, map[string]string{"keep.txt": "keep\n"})

	m := newTestMerger(t, s)
	result, err := m.MergeTrees(base, ours, theirs)
	if err != nil {
		t.Fatalf("MergeTrees: %v", err)
	}
	if !result.Clean {
		t.Fatalf("unopposed deletion should be clean; conflicts: %v", result.Conflicts)
	}
	if _, ok := treeEntryAt(t, s, result.Tree, "gone.txt"); ok {
		t.Fatal("result tree still contains gone.txt")
	}
}

func TestMergeTrees_ModeOnlyChange(t *testing.T) {
	s := newTestStore(t)
	script := writeBlob(t, s, "#!/bin/sh\n")
	base := writeTreeVersions(t, s, map[string]fileVersion{
		"run.sh": {mode: object.TreeModeFile, hash: script},
	})
	ours := writeTreeVersions(t, s, map[string]fileVersion{
		"run.sh": {mode: object.TreeModeExecutable, hash: script},
	})
	theirs := base

	m := newTestMerger(t, s)
	result, err := m.MergeTrees(base, ours, theirs)
	if err != nil {
		t.Fatalf("MergeTrees: %v", err)
	}
	if !result.Clean {
		t.Fatalf("mode-only change should be clean; conflicts: %v", result.Conflicts)
	}

	e, ok := treeEntryAt(t, s, result.Tree, "run.sh")
	if !ok {
		t.Fatal("result tree missing run.sh")
	}
	if e.Mode != object.TreeModeExecutable {
		t.Fatalf("run.sh mode = %q, want executable", e.Mode)
	}
}

func TestMergeTrees_ContentConflict(t *testing.T) {
	s := newTestStore(t)
	hashA := writeBlob(t, s, "ancestor\n")
	hashB := writeBlob(t, s, "ours\n")
	hashC := writeBlob(t, s, "theirs\n")
	base := writeTree(t, s, map[string]string{"c.txt": "ancestor\n"})
	ours := writeTree(t, s, map[string]string{"c.txt": "ours\n"})
	theirs := writeTree(t, s, map[string]string{"c.txt": "theirs\n"})

	m := newTestMerger(t, s)
	result, err := m.MergeTrees(base, ours, theirs)
	if err != nil {
		t.Fatalf("MergeTrees: %v", err)
	}
	if result.Clean {
		t.Fatal("divergent content should not be clean")
	}

	want := []PathConflict{{
		Path:      "c.txt",
		Pathnames: [3]string{"c.txt", "c.txt", "c.txt"},
		Hashes:    [3]object.Hash{hashA, hashB, hashC},
		Modes:     [3]string{object.TreeModeFile, object.TreeModeFile, object.TreeModeFile},
	}}
	if diff := cmp.Diff(want, result.Conflicts); diff != "" {
		t.Fatalf("conflicts mismatch (-want +got):\n%s", diff)
	}

	// Provisional content is ours' version.
	e, ok := treeEntryAt(t, s, result.Tree, "c.txt")
	if !ok {
		t.Fatal("result tree missing c.txt")
	}
	if e.Hash != hashB {
		t.Fatalf("provisional c.txt = %s, want ours %s", e.Hash, hashB)
	}
}

func TestMergeTrees_ModifyDeleteConflict(t *testing.T) {
	s := newTestStore(t)
	base := writeTree(t, s, map[string]string{"m.txt": "v1\n"})
	ours := writeTree(t, s, map[string]string{"m.txt": "v2\n"})
	theirs := writeTree(t, s, nil)

	m := newTestMerger(t, s)
	result, err := m.MergeTrees(base, ours, theirs)
	if err != nil {
		t.Fatalf("MergeTrees: %v", err)
	}
	if result.Clean {
		t.Fatal("modify/delete should not be clean")
	}
	if len(result.Conflicts) != 1 || result.Conflicts[0].Path != "m.txt" {
		t.Fatalf("conflicts = %v, want m.txt", result.Conflicts)
	}

	// The modification survives; deletion never wins silently.
	e, ok := treeEntryAt(t, s, result.Tree, "m.txt")
	if !ok {
		t.Fatal("result tree dropped the modified file")
	}
	if e.Hash != writeBlob(t, s, "v2\n") {
		t.Fatalf("m.txt = %s, want the modified blob", e.Hash)
	}
}

func TestMergeTrees_TypeConflict(t *testing.T) {
	s := newTestStore(t)
	target := writeBlob(t, s, "target\n")
	base := writeTree(t, s, map[string]string{"l": "old\n"})
	ours := writeTreeVersions(t, s, map[string]fileVersion{
		"l": {mode: object.TreeModeFile, hash: writeBlob(t, s, "file now\n")},
	})
	theirs := writeTreeVersions(t, s, map[string]fileVersion{
		"l": {mode: object.TreeModeSymlink, hash: target},
	})

	m := newTestMerger(t, s)
	result, err := m.MergeTrees(base, ours, theirs)
	if err != nil {
		t.Fatalf("MergeTrees: %v", err)
	}
	if result.Clean {
		t.Fatal("file vs symlink should not be clean")
	}
	if len(result.Conflicts) != 1 || result.Conflicts[0].Path != "l" {
		t.Fatalf("conflicts = %v, want l", result.Conflicts)
	}

	e, ok := treeEntryAt(t, s, result.Tree, "l")
	if !ok {
		t.Fatal("result tree missing l")
	}
	if e.Mode != object.TreeModeFile {
		t.Fatalf("provisional l mode = %q, want ours' file", e.Mode)
	}
}

func TestMergeTrees_DFConflict(t *testing.T) {
	s := newTestStore(t)
	fileHash := writeBlob(t, s, "i am a file\n")
	base := writeTree(t, s, nil)
	ours := writeTree(t, s, map[string]string{"d": "i am a file\n"})
	theirs := writeTree(t, s, map[string]string{"d/e": "nested\n"})

	m := newTestMerger(t, s)
	result, err := m.MergeTrees(base, ours, theirs)
	if err != nil {
		t.Fatalf("MergeTrees: %v", err)
	}
	if result.Clean {
		t.Fatal("file vs directory should not be clean")
	}
	if len(result.Conflicts) != 1 || result.Conflicts[0].Path != "d" {
		t.Fatalf("conflicts = %v, want d", result.Conflicts)
	}
	if result.Conflicts[0].Modes[sideTheirs] != object.TreeModeDir {
		t.Fatalf("theirs' stage mode = %q, want directory", result.Conflicts[0].Modes[sideTheirs])
	}

	// The file side is kept provisionally; the colliding directory's
	// contents are not committed under that path.
	e, ok := treeEntryAt(t, s, result.Tree, "d")
	if !ok {
		t.Fatal("result tree missing d")
	}
	if e.Hash != fileHash || e.Mode != object.TreeModeFile {
		t.Fatalf("d = %s %s, want ours' file", e.Mode, e.Hash)
	}
}

func TestMergeTrees_NestedAdditionsBuildDirectory(t *testing.T) {
	s := newTestStore(t)
	base := writeTree(t, s, nil)
	ours := writeTree(t, s, map[string]string{"d/e": "from ours\n"})
	theirs := writeTree(t, s, map[string]string{"d/f": "from theirs\n"})

	m := newTestMerger(t, s)
	result, err := m.MergeTrees(base, ours, theirs)
	if err != nil {
		t.Fatalf("MergeTrees: %v", err)
	}
	if !result.Clean {
		t.Fatalf("disjoint nested additions should be clean; conflicts: %v", result.Conflicts)
	}

	d, ok := treeEntryAt(t, s, result.Tree, "d")
	if !ok || !object.IsDirMode(d.Mode) {
		t.Fatalf("result tree missing directory d (entry: %+v)", d)
	}
	sub, err := s.ReadTree(d.Hash)
	if err != nil {
		t.Fatalf("ReadTree(d): %v", err)
	}
	if len(sub.Entries) != 2 || sub.Entries[0].Name != "e" || sub.Entries[1].Name != "f" {
		t.Fatalf("d contains %v, want exactly {e, f} sorted", sub.Entries)
	}
}

func TestMergeTrees_DirectoryEmptiedByDeletions(t *testing.T) {
	s := newTestStore(t)
	base := writeTree(t, s, map[string]string{"d/only.txt": "x\n"})
	ours := writeTree(t, s, nil)
	theirs := base

	m := newTestMerger(t, s)
	result, err := m.MergeTrees(base, ours, theirs)
	if err != nil {
		t.Fatalf("MergeTrees: %v", err)
	}
	if !result.Clean {
		t.Fatalf("unopposed deletion should be clean; conflicts: %v", result.Conflicts)
	}
	if _, ok := treeEntryAt(t, s, result.Tree, "d"); ok {
		t.Fatal("emptied directory d should not appear in the result")
	}
}

// recordingStore counts ReadTree calls per hash.
type recordingStore struct {
	inner *object.Store
	reads map[object.Hash]int
}

func (r *recordingStore) ReadTree(h object.Hash) (*object.TreeObj, error) {
	r.reads[h]++
	return r.inner.ReadTree(h)
}

func (r *recordingStore) WriteTree(tr *object.TreeObj) (object.Hash, error) {
	return r.inner.WriteTree(tr)
}

func TestMergeTrees_MatchingSubtreeIsNotRecursed(t *testing.T) {
	s := newTestStore(t)
	vendor := map[string]fileVersion{
		"vendor/dep/a.go": {mode: object.TreeModeFile, hash: writeBlob(t, s, "a\n")},
		"vendor/dep/b.go": {mode: object.TreeModeFile, hash: writeBlob(t, s, "b\n")},
	}
	withTop := func(topContent string) object.Hash {
		files := map[string]fileVersion{
			"top.txt": {mode: object.TreeModeFile, hash: writeBlob(t, s, topContent)},
		}
		for p, fv := range vendor {
			files[p] = fv
		}
		return writeTreeVersions(t, s, files)
	}

	base := withTop("v1\n")
	ours := withTop("v2\n")
	theirs := base

	vendorEntry, ok := treeEntryAt(t, s, base, "vendor")
	if !ok {
		t.Fatal("fixture missing vendor")
	}

	rec := &recordingStore{inner: s, reads: make(map[object.Hash]int)}
	m := newTestMerger(t, rec)
	result, err := m.MergeTrees(base, ours, theirs)
	if err != nil {
		t.Fatalf("MergeTrees: %v", err)
	}
	if !result.Clean {
		t.Fatalf("expected clean merge; conflicts: %v", result.Conflicts)
	}

	// The vendor subtree matches on all three sides: the collector must
	// resolve it in place without reading beneath it.
	if n := rec.reads[vendorEntry.Hash]; n != 0 {
		t.Fatalf("collector read the fully-matching subtree %d time(s)", n)
	}
	got, ok := treeEntryAt(t, s, result.Tree, "vendor")
	if !ok || got.Hash != vendorEntry.Hash {
		t.Fatalf("result vendor = %+v, want reused subtree %s", got, vendorEntry.Hash)
	}
}

func TestMergeTrees_MissingSubtreeAborts(t *testing.T) {
	s := newTestStore(t)

	bogus := object.HashBytes([]byte("no such tree"))
	brokenBase, err := s.WriteTree(&object.TreeObj{Entries: []object.TreeEntry{
		{Name: "d", Mode: object.TreeModeDir, Hash: bogus},
	}})
	if err != nil {
		t.Fatalf("WriteTree: %v", err)
	}
	ours := writeTree(t, s, map[string]string{"d/x": "x\n"})
	theirs := writeTree(t, s, nil)

	m := newTestMerger(t, s)
	result, err := m.MergeTrees(brokenBase, ours, theirs)
	if err == nil {
		t.Fatal("expected the merge to abort on a missing subtree")
	}
	if !errors.Is(err, object.ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound in chain", err)
	}
	if result != nil {
		t.Fatal("aborted merge must not return a partial result")
	}
}

func TestNewMerger_ValidatesOptions(t *testing.T) {
	s := newTestStore(t)
	valid := Options{Branch1: "a", Branch2: "b"}

	cases := []struct {
		name   string
		mutate func(*Options)
	}{
		{"missing branch label", func(o *Options) { o.Branch2 = "" }},
		{"threshold too high", func(o *Options) { o.RenameThreshold = 101 }},
		{"threshold negative", func(o *Options) { o.RenameThreshold = -1 }},
		{"rename limit below -1", func(o *Options) { o.RenameLimit = -2 }},
		{"negative depth", func(o *Options) { o.MaxTreeDepth = -1 }},
		{"verbosity out of range", func(o *Options) { o.Verbosity = 6 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			opts := valid
			tc.mutate(&opts)
			if _, err := NewMerger(s, opts); !errors.Is(err, ErrInvalidOptions) {
				t.Fatalf("NewMerger = %v, want ErrInvalidOptions", err)
			}
		})
	}

	if _, err := NewMerger(nil, valid); !errors.Is(err, ErrInvalidOptions) {
		t.Fatalf("NewMerger(nil store) = %v, want ErrInvalidOptions", err)
	}
	if _, err := NewMerger(s, valid); err != nil {
		t.Fatalf("NewMerger(valid) = %v", err)
	}
}

func TestMergeTrees_PreserveState(t *testing.T) {
	s := newTestStore(t)
	tree := writeTree(t, s, map[string]string{"f": "x\n"})

	m, err := NewMerger(s, Options{Branch1: "a", Branch2: "b", PreserveState: true})
	if err != nil {
		t.Fatalf("NewMerger: %v", err)
	}
	result, err := m.MergeTrees(tree, tree, tree)
	if err != nil {
		t.Fatalf("MergeTrees: %v", err)
	}
	if result.state == nil {
		t.Fatal("PreserveState should hand the merge state to the result")
	}
	result.Finalize()
	if result.state != nil {
		t.Fatal("Finalize should release the state")
	}
	result.Finalize() // safe to repeat
}
