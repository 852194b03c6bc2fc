package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

// watchedExts are the file types watch re-checks.
var watchedExts = []string{".cue", ".xml"}

// WatchOptions holds flags for the watch command.
type WatchOptions struct {
	*RootOptions
	Debug    bool
	Debounce time.Duration
}

// NewWatchCommand creates the watch command.
func NewWatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WatchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "watch <dir>",
		Short: "Re-check fixtures and notation files as they change",
		Long: `Check every .cue and .xml file under a directory, then keep watching
and re-check each file after it is written. Stops on interrupt.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("debug") {
				opts.Debug = opts.config().Debug
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return runWatch(ctx, opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Debug, "debug", false, "build .cue fixtures without folding")
	cmd.Flags().DurationVar(&opts.Debounce, "debounce", 200*time.Millisecond, "quiet period before re-checking a changed file")

	return cmd
}

func runWatch(ctx context.Context, opts *WatchOptions, dir string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	files, dirs, err := scanWatchDir(dir)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeNotFound, err.Error(), nil)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeWatch, err.Error(), nil)
	}
	defer w.Close()
	for _, d := range dirs {
		if err := w.Add(d); err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeWatch, fmt.Sprintf("watching %s: %v", d, err), nil)
		}
	}

	check := func(path string) { reportCheck(formatter, opts, path) }
	for _, f := range files {
		check(f)
	}
	opts.logger().Info("watching", "dir", dir, "files", len(files))

	return watchLoop(ctx, w.Events, w.Errors, opts.Debounce, check, opts)
}

// scanWatchDir returns the watched files and every directory under dir.
func scanWatchDir(dir string) (files, dirs []string, err error) {
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			dirs = append(dirs, path)
			return nil
		}
		if isWatched(path) {
			files = append(files, path)
		}
		return nil
	})
	return files, dirs, err
}

func isWatched(path string) bool {
	return slices.Contains(watchedExts, filepath.Ext(path))
}

// watchLoop re-checks files named by write and create events. Events for
// the same file within the debounce window are coalesced; pending files are
// checked in lexical order. Returns nil when ctx is done.
func watchLoop(ctx context.Context, events <-chan fsnotify.Event, errs <-chan error,
	debounce time.Duration, check func(string), opts *WatchOptions) error {
	pending := make(map[string]bool)
	var quiet <-chan time.Time // nil until a change is pending

	flush := func() {
		paths := make([]string, 0, len(pending))
		for p := range pending {
			paths = append(paths, p)
		}
		slices.Sort(paths)
		clear(pending)
		for _, p := range paths {
			check(p)
		}
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) || !isWatched(ev.Name) {
				continue
			}
			opts.logger().Debug("file changed", "path", ev.Name, "op", ev.Op.String())
			pending[ev.Name] = true
			if debounce <= 0 {
				flush()
				continue
			}
			quiet = time.After(debounce)
		case <-quiet:
			quiet = nil
			flush()
		case err, ok := <-errs:
			if !ok {
				return nil
			}
			opts.logger().Warn("watch error", "error", err)
		}
	}
}

// reportCheck checks one file and prints a single result.
func reportCheck(formatter *OutputFormatter, opts *WatchOptions, path string) {
	result, err := checkFile(path, opts.Debug, opts.RootOptions)
	switch {
	case err != nil:
		_ = formatter.Error(loadErrorCode(err), err.Error(), map[string]string{"path": path})
	case !result.Valid:
		if formatter.Format == "json" {
			_ = formatter.Error(ErrCodeInvalid, "validation failed", result)
		} else {
			fmt.Fprintf(formatter.Writer, "✗ %s\n", path)
			for _, w := range result.Warnings {
				fmt.Fprintf(formatter.Writer, "  %s\n", w)
			}
		}
	default:
		_ = formatter.Success(result, fmt.Sprintf("✓ %s (%d node(s), root %s)\n", path, result.Stats.Nodes, result.Stats.RootKind))
	}
}

func loadErrorCode(err error) string {
	var le *LoadError
	if errors.As(err, &le) {
		return le.Code
	}
	return ErrCodeGeneric
}
