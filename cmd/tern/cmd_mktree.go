package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/odvcencio/tern/pkg/object"
	"github.com/spf13/cobra"
)

func newMktreeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mktree",
		Short: "Build a tree object from stdin",
		Long: `Mktree reads lines of the form "name mode hash" from stdin, writes the
resulting tree object to the store, and prints its id. Blank lines are
ignored.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tr := &object.TreeObj{}
			scanner := bufio.NewScanner(cmd.InOrStdin())
			for scanner.Scan() {
				line := strings.TrimSpace(scanner.Text())
				if line == "" {
					continue
				}
				fields := strings.Fields(line)
				if len(fields) != 3 {
					return fmt.Errorf("mktree: malformed line %q (want \"name mode hash\")", line)
				}
				if !object.ValidTreeMode(fields[1]) {
					return fmt.Errorf("mktree: unknown mode %q in line %q", fields[1], line)
				}
				tr.Entries = append(tr.Entries, object.TreeEntry{
					Name: fields[0],
					Mode: fields[1],
					Hash: object.Hash(fields[2]),
				})
			}
			if err := scanner.Err(); err != nil {
				return fmt.Errorf("mktree: %w", err)
			}

			store := object.NewStore(storeDir(cmd))
			h, err := store.WriteTree(tr)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), h)
			return nil
		},
	}
	addStoreFlag(cmd)
	return cmd
}
