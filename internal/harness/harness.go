package harness

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/qgraph/internal/fixture"
	"github.com/roach88/qgraph/internal/ir"
	"github.com/roach88/qgraph/internal/irxml"
)

// Harness is the scenario execution engine.
type Harness struct {
	logger *slog.Logger
}

// Option configures a Harness.
type Option func(*Harness)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(h *Harness) { h.logger = l }
}

// New creates a harness.
func New(opts ...Option) *Harness {
	h := &Harness{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs in tests
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run executes a scenario with a default harness.
func Run(scenario *Scenario) (*Result, error) {
	return New().Run(context.Background(), scenario)
}

// Run executes a test scenario and returns the result.
//
// Execution flow:
// 1. Build the fixture with a fresh factory in the scenario's mode
// 2. Serialize it and collect stats
// 3. Evaluate assertions
//
// An error is returned when the fixture cannot be built or serialized;
// assertion failures are reported in the result.
func (h *Harness) Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	debug := scenario.Mode == ModeDebug
	prog, err := fixture.LoadFile(scenario.Fixture,
		fixture.WithDebug(debug),
		fixture.WithLogger(h.logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build fixture: %w", err)
	}

	result := NewResult()

	var buf bytes.Buffer
	if err := irxml.Write(&buf, prog, irxml.WithoutSource()); err != nil {
		return nil, fmt.Errorf("failed to serialize program: %w", err)
	}
	result.XML = buf.Bytes()

	forward, err := irxml.ForwardDecls(prog)
	if err != nil {
		return nil, fmt.Errorf("failed to plan forward declarations: %w", err)
	}
	fp, err := ir.Fingerprint(prog)
	if err != nil {
		return nil, fmt.Errorf("failed to fingerprint program: %w", err)
	}
	result.Stats = Stats{
		RootKind:     prog.Root().Kind().String(),
		RootType:     prog.Root().Type().String(),
		NodeCount:    ir.Count(prog),
		Fingerprint:  fp,
		ForwardDecls: forward,
	}

	h.logger.Debug("scenario built",
		"scenario", scenario.Name,
		"debug", debug,
		"nodes", result.Stats.NodeCount,
		"forward_decls", len(forward),
	)

	actx := &AssertionContext{
		Ctx:     ctx,
		Program: prog,
		XML:     result.XML,
	}
	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(errMsg)
	}

	h.logger.Info("scenario finished", "scenario", scenario.Name, "pass", result.Pass)
	return result, nil
}
