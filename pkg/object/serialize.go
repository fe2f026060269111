package object

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
)

// ---------------------------------------------------------------------------
// Blob
// ---------------------------------------------------------------------------

// MarshalBlob serializes a Blob to raw bytes (identity).
func MarshalBlob(b *Blob) []byte {
	out := make([]byte, len(b.Data))
	copy(out, b.Data)
	return out
}

// UnmarshalBlob deserializes raw bytes into a Blob.
func UnmarshalBlob(data []byte) (*Blob, error) {
	out := make([]byte, len(data))
	copy(out, data)
	return &Blob{Data: out}, nil
}

// ---------------------------------------------------------------------------
// TreeObj
// ---------------------------------------------------------------------------

// MarshalTree serializes a TreeObj. Entries are sorted by Name for
// deterministic output. Each entry is one line:
//
//	name mode hash
//
// where mode is a Git-compatible mode string (e.g. 40000, 100644).
func MarshalTree(tr *TreeObj) []byte {
	sorted := make([]TreeEntry, len(tr.Entries))
	copy(sorted, tr.Entries)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Name < sorted[j].Name
	})

	var buf bytes.Buffer
	for _, e := range sorted {
		mode := e.Mode
		if strings.TrimSpace(mode) == "" {
			mode = TreeModeFile
		}
		fmt.Fprintf(&buf, "%s %s %s\n", e.Name, mode, string(e.Hash))
	}
	return buf.Bytes()
}

// UnmarshalTree parses a TreeObj from its serialized form.
func UnmarshalTree(data []byte) (*TreeObj, error) {
	tr := &TreeObj{}
	text := strings.TrimRight(string(data), "\n")
	if text == "" {
		return tr, nil
	}
	for _, line := range strings.Split(text, "\n") {
		parts := strings.SplitN(line, " ", 3)
		if len(parts) != 3 {
			return nil, fmt.Errorf("unmarshal tree: malformed entry %q", line)
		}
		if !ValidTreeMode(parts[1]) {
			return nil, fmt.Errorf("unmarshal tree: unknown mode %q", parts[1])
		}
		if parts[0] == "" || strings.ContainsAny(parts[0], "/\x00") {
			return nil, fmt.Errorf("unmarshal tree: invalid entry name %q", parts[0])
		}
		tr.Entries = append(tr.Entries, TreeEntry{
			Name: parts[0],
			Mode: parts[1],
			Hash: Hash(parts[2]),
		})
	}
	if !sort.SliceIsSorted(tr.Entries, func(i, j int) bool {
		return tr.Entries[i].Name < tr.Entries[j].Name
	}) {
		return nil, fmt.Errorf("unmarshal tree: entries out of order")
	}
	return tr, nil
}
