package cli

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/qgraph/internal/ir"
	"github.com/roach88/qgraph/internal/irxml"
	"github.com/roach88/qgraph/internal/store"
)

// SnapshotInfo is the JSON form of a stored snapshot, without its body.
type SnapshotInfo struct {
	ID              string `json:"id"`
	Seq             int64  `json:"seq"`
	Label           string `json:"label"`
	Fingerprint     string `json:"fingerprint"`
	NotationVersion string `json:"notation_version"`
	ToolVersion     string `json:"tool_version"`
	Nodes           int    `json:"nodes"`
}

func infoOf(s store.Snapshot) SnapshotInfo {
	return SnapshotInfo{
		ID:              s.ID,
		Seq:             s.Seq,
		Label:           s.Label,
		Fingerprint:     s.Fingerprint,
		NotationVersion: s.NotationVersion,
		ToolVersion:     s.ToolVersion,
		Nodes:           s.NodeCount,
	}
}

func openStore(opts *RootOptions, formatter *OutputFormatter) (*store.Store, error) {
	path := opts.database()
	st, err := store.Open(path)
	if err != nil {
		return nil, formatter.Fail(ExitCommandError, ErrCodeStore, fmt.Sprintf("opening %s: %v", path, err), nil)
	}
	opts.logger().Debug("store opened", "path", path)
	return st, nil
}

// NewSaveCommand creates the save command.
func NewSaveCommand(rootOpts *RootOptions) *cobra.Command {
	var label string
	var debug bool

	cmd := &cobra.Command{
		Use:   "save <file>",
		Short: "Store a program in the snapshot database",
		Long: `Store a program (a notation document or a .cue fixture) in the
snapshot database. Saving the same graph under the same label again
returns the existing snapshot.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if label == "" {
				base := filepath.Base(args[0])
				label = strings.TrimSuffix(base, filepath.Ext(base))
			}
			if !cmd.Flags().Changed("debug") {
				debug = rootOpts.config().Debug
			}
			return runSave(rootOpts, args[0], label, debug, cmd)
		},
	}

	cmd.Flags().StringVarP(&label, "label", "l", "", "snapshot label (default: file name)")
	cmd.Flags().BoolVar(&debug, "debug", false, "build .cue fixtures without folding")

	return cmd
}

func runSave(opts *RootOptions, path, label string, debug bool, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	prog, err := loadProgram(path, debug, opts.logger())
	if err != nil {
		return failLoad(formatter, err)
	}

	st, err := openStore(opts, formatter)
	if err != nil {
		return err
	}
	defer st.Close()

	snap, err := st.Save(cmd.Context(), label, prog)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, err.Error(), nil)
	}
	opts.logger().Info("snapshot saved", "id", snap.ID, "seq", snap.Seq, "label", snap.Label)

	return formatter.Success(infoOf(snap), fmt.Sprintf("✓ Saved %s as %s (seq %d, %d node(s))\n",
		path, snap.ID, snap.Seq, snap.NodeCount))
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "show <id>",
		Short:         "Print a stored program in the XML notation",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

// ShowResult is the JSON payload of show.
type ShowResult struct {
	Snapshot SnapshotInfo `json:"snapshot"`
	XML      string       `json:"xml"`
}

func runShow(opts *RootOptions, id string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	st, err := openStore(opts, formatter)
	if err != nil {
		return err
	}
	defer st.Close()

	snap, err := st.Get(cmd.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		return formatter.Fail(ExitCommandError, ErrCodeNoSnapshot, fmt.Sprintf("no snapshot %s", id), nil)
	}
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, err.Error(), nil)
	}
	prog, err := st.Load(cmd.Context(), id, ir.NewFactory())
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeNotation, err.Error(), nil)
	}

	var buf bytes.Buffer
	if err := irxml.Write(&buf, prog, indentOption(nil, opts.config().Indent)...); err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeSerialize, err.Error(), nil)
	}
	return formatter.Success(ShowResult{Snapshot: infoOf(snap), XML: buf.String()}, buf.String())
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	var fingerprint string

	cmd := &cobra.Command{
		Use:           "list",
		Short:         "List stored snapshots in save order",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(rootOpts, fingerprint, cmd)
		},
	}

	cmd.Flags().StringVar(&fingerprint, "fingerprint", "", "only snapshots of this graph")

	return cmd
}

func runList(opts *RootOptions, fingerprint string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	st, err := openStore(opts, formatter)
	if err != nil {
		return err
	}
	defer st.Close()

	var snaps []store.Snapshot
	if fingerprint != "" {
		snaps, err = st.FindByFingerprint(cmd.Context(), fingerprint)
	} else {
		snaps, err = st.List(cmd.Context())
	}
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, err.Error(), nil)
	}

	infos := make([]SnapshotInfo, len(snaps))
	for i, s := range snaps {
		infos[i] = infoOf(s)
	}

	if len(infos) == 0 {
		return formatter.Success(infos, "No snapshots.\n")
	}
	var b strings.Builder
	tw := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SEQ\tID\tLABEL\tNODES\tFINGERPRINT")
	for _, s := range infos {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\n", s.Seq, s.ID, s.Label, s.Nodes, shortFingerprint(s.Fingerprint))
	}
	tw.Flush()
	return formatter.Success(infos, b.String())
}

func shortFingerprint(fp string) string {
	if len(fp) > 12 {
		return fp[:12]
	}
	return fp
}
