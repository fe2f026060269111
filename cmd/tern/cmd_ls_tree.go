package main

import (
	"fmt"
	"path"

	"github.com/odvcencio/tern/pkg/object"
	"github.com/spf13/cobra"
)

func newLsTreeCmd() *cobra.Command {
	var recursive bool

	cmd := &cobra.Command{
		Use:   "ls-tree <tree>",
		Short: "List the contents of a tree object",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store := object.NewStore(storeDir(cmd))
			return lsTree(cmd, store, object.Hash(args[0]), "", recursive)
		},
	}

	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "recurse into subtrees")
	addStoreFlag(cmd)
	return cmd
}

func lsTree(cmd *cobra.Command, store *object.Store, h object.Hash, prefix string, recursive bool) error {
	tr, err := store.ReadTree(h)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, e := range tr.Entries {
		fullPath := e.Name
		if prefix != "" {
			fullPath = path.Join(prefix, e.Name)
		}

		if object.IsDirMode(e.Mode) && recursive {
			if err := lsTree(cmd, store, e.Hash, fullPath, recursive); err != nil {
				return err
			}
			continue
		}
		fmt.Fprintf(out, "%s %s\t%s\n", e.Mode, e.Hash, fullPath)
	}
	return nil
}
