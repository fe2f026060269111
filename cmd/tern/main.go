package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:   "tern",
		Short: "Three-way tree merge plumbing for a content-addressable object store",
	}

	root.AddCommand(newVersionCmd())
	root.AddCommand(newHashObjectCmd())
	root.AddCommand(newMktreeCmd())
	root.AddCommand(newLsTreeCmd())
	root.AddCommand(newMergeTreeCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "tern 0.1.0-dev")
		},
	}
}

func addStoreFlag(cmd *cobra.Command) {
	cmd.Flags().String("store", ".tern", "object store directory")
}

func storeDir(cmd *cobra.Command) string {
	dir, err := cmd.Flags().GetString("store")
	if err != nil || dir == "" {
		return ".tern"
	}
	return dir
}
