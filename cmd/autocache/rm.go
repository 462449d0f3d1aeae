package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

func newRmCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "rm PATH...",
		Short: "Remove a cache entry or a function subtree",
		Example: "autocache rm pkg/add/1-2\n" +
			"autocache rm banks/starling/statements",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, arg := range args {
				path, err := opts.resolve(arg)
				if err != nil {
					return err
				}
				if filepath.Clean(path) == filepath.Clean(opts.root) {
					return fmt.Errorf("refusing to remove the cache root, use clear")
				}

				if _, err := os.Stat(path); err != nil {
					return err
				}
				if err := os.RemoveAll(path); err != nil {
					return err
				}

				opts.logger.Info("removed", "path", path)
				fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", path)
			}
			return nil
		},
	}
}
