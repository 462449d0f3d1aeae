package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/goliatone/go-autocache/pkg/di"
	"github.com/spf13/cobra"
)

var (
	// Version is set at build time.
	Version = ""

	headerStyle = lipgloss.NewStyle().Bold(true)
)

type options struct {
	root     string
	logLevel string
	logger   *log.Logger
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	settings, err := di.LoadSettings()
	if err != nil {
		settings = di.DefaultSettings()
	}

	opts := &options{}

	cmd := &cobra.Command{
		Use:           "autocache",
		Short:         "Inspect and clear autocache blob stores",
		Long:          "Inspect and clear the on-disk blobs written by autocache decorated functions.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			level, err := log.ParseLevel(opts.logLevel)
			if err != nil {
				return fmt.Errorf("invalid log level %q: %w", opts.logLevel, err)
			}
			opts.logger = log.NewWithOptions(stderr, log.Options{Level: level, Prefix: "autocache"})
			return nil
		},
	}

	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	cmd.PersistentFlags().StringVarP(&opts.root, "root", "r", settings.Root, "cache root directory (env AUTOCACHE_ROOT)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", settings.LogLevel, "log level (env AUTOCACHE_LOG_LEVEL)")

	cmd.AddCommand(
		newLsCmd(opts),
		newCatCmd(opts),
		newRmCmd(opts),
		newClearCmd(opts),
	)

	return cmd
}

// resolve maps a path argument to a location under the root. Arguments that
// already start with the root are used as given.
func (o *options) resolve(arg string) (string, error) {
	path := filepath.Clean(arg)
	if !filepath.IsAbs(path) && !within(o.root, path) {
		path = filepath.Join(o.root, path)
	}
	if !within(o.root, path) {
		return "", fmt.Errorf("%s is outside cache root %s", arg, o.root)
	}
	return path, nil
}

// within reports whether path is root or below it. Both are made absolute
// first so a relative root still contains absolute arguments.
func within(root, path string) bool {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return false
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(absRoot, absPath)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func main() {
	if Version == "" {
		Version = "unknown (built from source)"
	}

	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}
