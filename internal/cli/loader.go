package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/roach88/qgraph/internal/fixture"
	"github.com/roach88/qgraph/internal/ir"
	"github.com/roach88/qgraph/internal/irxml"
)

// LoadError is an input that could not be turned into a program.
type LoadError struct {
	Code    string
	Message string
	Err     error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *LoadError) Unwrap() error { return e.Err }

// loadProgram builds a program from a CUE fixture (.cue) or reads one from
// the notation (any other extension).
func loadProgram(path string, debug bool, logger *slog.Logger) (*ir.Program, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("file not found: %s", path), Err: err}
	}

	if filepath.Ext(path) == ".cue" {
		prog, err := fixture.LoadFile(path, fixture.WithDebug(debug), fixture.WithLogger(logger))
		if err != nil {
			return nil, &LoadError{Code: ErrCodeFixture, Message: err.Error(), Err: err}
		}
		return prog, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeGeneric, Message: err.Error(), Err: err}
	}
	defer f.Close()

	prog, err := irxml.Read(f, ir.NewFactory())
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotation, Message: err.Error(), Err: err}
	}
	logger.Debug("notation read", "path", path)
	return prog, nil
}

// failLoad reports a loadProgram error.
func failLoad(formatter *OutputFormatter, err error) error {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		return formatter.Fail(ExitCommandError, loadErr.Code, loadErr.Message, nil)
	}
	return formatter.Fail(ExitCommandError, ErrCodeGeneric, err.Error(), nil)
}

// indentOption applies --indent or the configured indent.
func indentOption(flag *string, cfgIndent *string) []irxml.WriteOption {
	switch {
	case flag != nil:
		return []irxml.WriteOption{irxml.WithIndent(*flag)}
	case cfgIndent != nil:
		return []irxml.WriteOption{irxml.WithIndent(*cfgIndent)}
	}
	return nil
}

// ProgramStats summarizes a program for check, build and save output.
type ProgramStats struct {
	RootKind     string   `json:"root_kind"`
	RootType     string   `json:"root_type"`
	Nodes        int      `json:"nodes"`
	Functions    int      `json:"functions"`
	Globals      int      `json:"globals"`
	Params       int      `json:"params"`
	ForwardDecls []string `json:"forward_decls"`
	Fingerprint  string   `json:"fingerprint"`
	Debug        bool     `json:"debug"`
}

func statsOf(prog *ir.Program) (ProgramStats, error) {
	fp, err := ir.Fingerprint(prog)
	if err != nil {
		return ProgramStats{}, err
	}
	forward, err := irxml.ForwardDecls(prog)
	if err != nil {
		return ProgramStats{}, err
	}
	return ProgramStats{
		RootKind:     prog.Root().Kind().String(),
		RootType:     prog.Root().Type().String(),
		Nodes:        ir.Count(prog),
		Functions:    prog.Functions().Len(),
		Globals:      prog.GlobalVariables().Len(),
		Params:       prog.GlobalParameters().Len(),
		ForwardDecls: forward,
		Fingerprint:  fp,
		Debug:        prog.IsDebug(),
	}, nil
}
