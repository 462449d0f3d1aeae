package main

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newClearCmd(opts *options) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every blob under the cache root",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			blobs, err := listBlobs(opts.root, opts.root)
			if err != nil {
				return err
			}

			var total int64
			for _, b := range blobs {
				total += b.size
			}

			if dryRun {
				fmt.Fprintf(cmd.OutOrStdout(), "would remove %s (%s) from %s\n", pluralize(len(blobs), "blob"), humanize.Bytes(uint64(total)), opts.root)
				return nil
			}

			if err := os.RemoveAll(opts.root); err != nil {
				return err
			}

			opts.logger.Info("cleared cache root", "root", opts.root, "blobs", len(blobs))
			fmt.Fprintf(cmd.OutOrStdout(), "removed %s (%s) from %s\n", pluralize(len(blobs), "blob"), humanize.Bytes(uint64(total)), opts.root)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "report what would be removed")
	return cmd
}
