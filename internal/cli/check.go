package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/qgraph/internal/ir"
)

// CheckResult is the JSON payload of check.
type CheckResult struct {
	Path     string       `json:"path"`
	Valid    bool         `json:"valid"`
	Warnings []string     `json:"warnings"`
	Stats    ProgramStats `json:"stats"`
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	var debug bool

	cmd := &cobra.Command{
		Use:   "check <file>",
		Short: "Read a program and validate its structure",
		Long: `Read a program from the XML notation (or build it from a .cue fixture),
run structural validation and print summary statistics.

Exit codes:
  0 - Program is valid
  1 - Validation reported warnings
  2 - Input could not be read`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("debug") {
				debug = rootOpts.config().Debug
			}
			return runCheck(rootOpts, args[0], debug, cmd)
		},
	}

	cmd.Flags().BoolVar(&debug, "debug", false, "build .cue fixtures without folding")

	return cmd
}

func runCheck(opts *RootOptions, path string, debug bool, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	result, err := checkFile(path, debug, opts)
	if err != nil {
		return failLoad(formatter, err)
	}

	if !result.Valid {
		if formatter.Format == "json" {
			_ = formatter.Error(ErrCodeInvalid, "validation failed", result)
		} else {
			fmt.Fprintf(formatter.Writer, "✗ %s\n", path)
			for _, w := range result.Warnings {
				fmt.Fprintf(formatter.Writer, "  %s\n", w)
			}
		}
		return NewExitError(ExitFailure, fmt.Sprintf("%s: %d validation warning(s)", ErrCodeInvalid, len(result.Warnings)))
	}

	return formatter.Success(result, formatCheck(result))
}

// checkFile loads and validates one file. It is shared with watch.
func checkFile(path string, debug bool, opts *RootOptions) (CheckResult, error) {
	prog, err := loadProgram(path, debug, opts.logger())
	if err != nil {
		return CheckResult{}, err
	}
	stats, err := statsOf(prog)
	if err != nil {
		return CheckResult{}, &LoadError{Code: ErrCodeSerialize, Message: err.Error(), Err: err}
	}
	res := ir.Validate(prog)
	opts.logger().Debug("program checked", "path", path, "valid", res.Valid, "nodes", stats.Nodes)
	return CheckResult{
		Path:     path,
		Valid:    res.Valid,
		Warnings: res.Warnings,
		Stats:    stats,
	}, nil
}

func formatCheck(r CheckResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "✓ %s\n", r.Path)
	fmt.Fprintf(&b, "  root:          %s (%s)\n", r.Stats.RootKind, r.Stats.RootType)
	fmt.Fprintf(&b, "  nodes:         %d\n", r.Stats.Nodes)
	fmt.Fprintf(&b, "  functions:     %d\n", r.Stats.Functions)
	fmt.Fprintf(&b, "  globals:       %d\n", r.Stats.Globals)
	fmt.Fprintf(&b, "  params:        %d\n", r.Stats.Params)
	if len(r.Stats.ForwardDecls) > 0 {
		fmt.Fprintf(&b, "  forward decls: %s\n", strings.Join(r.Stats.ForwardDecls, ", "))
	}
	fmt.Fprintf(&b, "  fingerprint:   %s\n", r.Stats.Fingerprint)
	return b.String()
}
