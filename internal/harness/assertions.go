package harness

import (
	"bytes"
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/qgraph/internal/ir"
	"github.com/roach88/qgraph/internal/irxml"
	"github.com/roach88/qgraph/internal/store"
	"github.com/roach88/qgraph/internal/testutil"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s", e.Actual)
	return buf.String()
}

// AssertionContext carries what assertions need beyond the stats.
type AssertionContext struct {
	Ctx     context.Context
	Program *ir.Program

	// XML is the program as written by the harness.
	XML []byte
}

func assertRootKind(stats Stats, assertion Assertion) error {
	if _, ok := ir.ParseKind(assertion.Kind); !ok {
		return fmt.Errorf("unknown node kind %q", assertion.Kind)
	}
	if stats.RootKind != assertion.Kind {
		return &AssertionError{
			Type:     AssertRootKind,
			Expected: assertion.Kind,
			Actual:   stats.RootKind,
		}
	}
	return nil
}

func assertRootType(stats Stats, assertion Assertion) error {
	if stats.RootType != assertion.XMLType {
		return &AssertionError{
			Type:     AssertRootType,
			Expected: assertion.XMLType,
			Actual:   stats.RootType,
		}
	}
	return nil
}

func assertNodeCount(stats Stats, assertion Assertion) error {
	if assertion.Count != nil && stats.NodeCount != *assertion.Count {
		return &AssertionError{
			Type:     AssertNodeCount,
			Expected: fmt.Sprintf("%d nodes", *assertion.Count),
			Actual:   fmt.Sprintf("%d nodes", stats.NodeCount),
		}
	}
	if stats.NodeCount < assertion.Min {
		return &AssertionError{
			Type:     AssertNodeCount,
			Expected: fmt.Sprintf("at least %d nodes", assertion.Min),
			Actual:   fmt.Sprintf("%d nodes", stats.NodeCount),
		}
	}
	return nil
}

func assertForwardDecls(stats Stats, assertion Assertion) error {
	if assertion.Count != nil && len(stats.ForwardDecls) != *assertion.Count {
		return &AssertionError{
			Type:     AssertForwardDecls,
			Expected: fmt.Sprintf("%d forward declarations", *assertion.Count),
			Actual:   fmt.Sprintf("%d %v", len(stats.ForwardDecls), stats.ForwardDecls),
		}
	}
	if assertion.IDs != nil && !slices.Equal(stats.ForwardDecls, assertion.IDs) {
		return &AssertionError{
			Type:     AssertForwardDecls,
			Expected: fmt.Sprintf("%v", assertion.IDs),
			Actual:   fmt.Sprintf("%v", stats.ForwardDecls),
		}
	}
	return nil
}

// assertRoundTrip saves the program into a throwaway store, loads it with a
// fresh factory and checks that writing the loaded program reproduces the
// harness output byte for byte.
func assertRoundTrip(actx *AssertionContext) error {
	st, err := store.Open(":memory:", store.WithIDGenerator(testutil.NewSequentialIDGenerator("scenario")))
	if err != nil {
		return fmt.Errorf("round_trip: open store: %w", err)
	}
	defer st.Close()

	snap, err := st.Save(actx.Ctx, "scenario", actx.Program)
	if err != nil {
		return fmt.Errorf("round_trip: %w", err)
	}
	loaded, err := st.Load(actx.Ctx, snap.ID, ir.NewFactory())
	if err != nil {
		return &AssertionError{
			Type:     AssertRoundTrip,
			Expected: "stored program loads back",
			Actual:   err.Error(),
		}
	}

	var buf bytes.Buffer
	if err := irxml.Write(&buf, loaded, irxml.WithoutSource()); err != nil {
		return fmt.Errorf("round_trip: rewrite: %w", err)
	}
	if !bytes.Equal(buf.Bytes(), actx.XML) {
		return &AssertionError{
			Type:     AssertRoundTrip,
			Expected: "rewritten program identical to original",
			Actual:   fmt.Sprintf("%d bytes differ from %d", buf.Len(), len(actx.XML)),
		}
	}
	return nil
}

func assertValid(prog *ir.Program) error {
	res := ir.Validate(prog)
	if !res.Valid {
		return &AssertionError{
			Type:     AssertValid,
			Expected: "no validation warnings",
			Actual:   strings.Join(res.Warnings, "; "),
		}
	}
	return nil
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertRootKind:
			err = assertRootKind(result.Stats, assertion)
		case AssertRootType:
			err = assertRootType(result.Stats, assertion)
		case AssertNodeCount:
			err = assertNodeCount(result.Stats, assertion)
		case AssertForwardDecls:
			err = assertForwardDecls(result.Stats, assertion)
		case AssertRoundTrip:
			if actx == nil || actx.Program == nil {
				err = fmt.Errorf("assertion[%d]: round_trip requires the program", i)
			} else {
				err = assertRoundTrip(actx)
			}
		case AssertValid:
			if actx == nil || actx.Program == nil {
				err = fmt.Errorf("assertion[%d]: valid requires the program", i)
			} else {
				err = assertValid(actx.Program)
			}
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
