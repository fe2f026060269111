package main

import (
	"fmt"
	"io"
	"os"

	"github.com/odvcencio/tern/pkg/object"
	"github.com/spf13/cobra"
)

func newHashObjectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hash-object <file>",
		Short: "Store a file as a blob and print its id",
		Long:  "Hash-object writes the file's contents (or stdin, when <file> is \"-\") to the object store as a blob.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var data []byte
			var err error
			if args[0] == "-" {
				data, err = io.ReadAll(cmd.InOrStdin())
			} else {
				data, err = os.ReadFile(args[0])
			}
			if err != nil {
				return fmt.Errorf("hash-object: %w", err)
			}

			store := object.NewStore(storeDir(cmd))
			h, err := store.WriteBlob(&object.Blob{Data: data})
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
