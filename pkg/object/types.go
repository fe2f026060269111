package object

// Hash is a 64-character hex-encoded SHA-256 digest. The empty string is
// the null id, meaning "no object".
type Hash string

// IsNull reports whether h is the null id.
func (h Hash) IsNull() bool {
	return h == ""
}

// Short returns an abbreviated form of h for display.
func (h Hash) Short() string {
	if len(h) > 8 {
		return string(h[:8])
	}
	return string(h)
}

// ObjectType identifies the kind of object stored.
type ObjectType string

const (
	TypeBlob ObjectType = "blob"
	TypeTree ObjectType = "tree"
)

const (
	// Tree mode constants compatible with Git's canonical mode strings.
	TreeModeDir        = "40000"
	TreeModeFile       = "100644"
	TreeModeExecutable = "100755"
	TreeModeSymlink    = "120000"
)

// ModeClass is the type class of a tree-entry mode, ignoring permission
// bits. Two modes conflict in type iff their classes differ.
type ModeClass int

const (
	ModeClassNone ModeClass = iota
	ModeClassDir
	ModeClassRegular
	ModeClassSymlink
)

// ModeType collapses a mode string to its type class. Regular and
// executable files share a class; an empty mode means "absent".
func ModeType(mode string) ModeClass {
	switch mode {
	case "":
		return ModeClassNone
	case TreeModeDir:
		return ModeClassDir
	case TreeModeSymlink:
		return ModeClassSymlink
	default:
		return ModeClassRegular
	}
}

// IsDirMode reports whether mode names a subtree.
func IsDirMode(mode string) bool {
	return mode == TreeModeDir
}

// ValidTreeMode reports whether mode is one of the canonical mode
// strings a tree entry may carry.
func ValidTreeMode(mode string) bool {
	switch mode {
	case TreeModeDir, TreeModeFile, TreeModeExecutable, TreeModeSymlink:
		return true
	}
	return false
}

// Blob holds raw file data.
type Blob struct {
	Data []byte
}

// TreeEntry is one entry in a tree object. Mode is one of the TreeMode
// constants; Hash points at a Blob for file modes and at a TreeObj for
// TreeModeDir.
type TreeEntry struct {
	Name string
	Mode string
	Hash Hash
}

// TreeObj holds a list of tree entries, sorted by Name.
type TreeObj struct {
	Entries []TreeEntry // sorted by Name
}
