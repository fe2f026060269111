package main

import (
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/odvcencio/tern/pkg/merge"
)

// optionsFileFormat is the TOML shape of a merge options file:
//
//	branch1 = "main"
//	branch2 = "feature"
//	detect-renames = true
//	rename-threshold = 50
//	rename-limit = 1000
//	max-tree-depth = 128
//	verbosity = 1
type optionsFileFormat struct {
	Branch1         string `toml:"branch1"`
	Branch2         string `toml:"branch2"`
	DetectRenames   bool   `toml:"detect-renames"`
	RenameThreshold int    `toml:"rename-threshold"`
	RenameLimit     int    `toml:"rename-limit"`
	MaxTreeDepth    int    `toml:"max-tree-depth"`
	Verbosity       int    `toml:"verbosity"`
}

func defaultMergeOptions() merge.Options {
	return merge.Options{
		Branch1:     "ours",
		Branch2:     "theirs",
		RenameLimit: -1,
	}
}

func loadOptionsFile(path string) (merge.Options, error) {
	var raw optionsFileFormat
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return merge.Options{}, fmt.Errorf("load options %q: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return merge.Options{}, fmt.Errorf("load options %q: unknown key %q", path, undecoded[0].String())
	}

	opts := defaultMergeOptions()
	if raw.Branch1 != "" {
		opts.Branch1 = raw.Branch1
	}
	if raw.Branch2 != "" {
		opts.Branch2 = raw.Branch2
	}
	opts.DetectRenames = raw.DetectRenames
	opts.RenameThreshold = raw.RenameThreshold
	if meta.IsDefined("rename-limit") {
		opts.RenameLimit = raw.RenameLimit
	}
	opts.MaxTreeDepth = raw.MaxTreeDepth
	opts.Verbosity = raw.Verbosity
	return opts, nil
}
