package main

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

type blobInfo struct {
	path    string
	size    int64
	modTime time.Time
	temp    bool
}

func newLsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "ls [PATH]",
		Short: "List cache blobs with size and age",
		Example: "autocache ls\n" +
			"autocache ls banks/starling",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := opts.root
			if len(args) == 1 {
				var err error
				if dir, err = opts.resolve(args[0]); err != nil {
					return err
				}
			}

			blobs, err := listBlobs(opts.root, dir)
			if err != nil {
				return err
			}
			opts.logger.Debug("listed blobs", "dir", dir, "count", len(blobs))

			out := cmd.OutOrStdout()
			if len(blobs) == 0 {
				fmt.Fprintf(out, "no blobs under %s\n", dir)
				return nil
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, headerStyle.Render("PATH")+"\t"+headerStyle.Render("SIZE")+"\t"+headerStyle.Render("MODIFIED"))

			var total int64
			now := time.Now()
			for _, b := range blobs {
				name := b.path
				if b.temp {
					name += " (partial write)"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\n", name, humanize.Bytes(uint64(b.size)), humanize.RelTime(b.modTime, now, "ago", "from now"))
				total += b.size
			}
			if err := tw.Flush(); err != nil {
				return err
			}

			fmt.Fprintf(out, "%s in %s\n", humanize.Bytes(uint64(total)), pluralize(len(blobs), "blob"))
			return nil
		},
	}
}

// listBlobs walks dir and returns every regular file relative to root.
func listBlobs(root, dir string) ([]blobInfo, error) {
	var blobs []blobInfo

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) && path == dir {
				return filepath.SkipDir
			}
			return err
		}
		if d.IsDir() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}

		blobs = append(blobs, blobInfo{
			path:    filepath.ToSlash(rel),
			size:    info.Size(),
			modTime: info.ModTime(),
			temp:    strings.Contains(d.Name(), ".tmp-"),
		})
		return nil
	})

	return blobs, err
}

func pluralize(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%s %ss", humanize.Comma(int64(n)), noun)
}
