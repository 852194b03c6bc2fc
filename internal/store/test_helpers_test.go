package store

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/qgraph/internal/ir"
	"github.com/roach88/qgraph/internal/testutil"
	"github.com/roach88/qgraph/internal/xtype"
)

// createTestStore creates a new store in a temp dir with deterministic ids.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, WithIDGenerator(testutil.NewSequentialIDGenerator("snap")))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// countdown builds count(n) = n <= 0 ? 0 : 1 + count(n - 1) applied to start.
func countdown(f *ir.Factory, start int32) *ir.Program {
	n := f.Parameter(nil, f.LiteralQName("n", "", ""), xtype.Int)
	n.SetDebugName("n")
	fn := f.Function(f.FormalParameterList(n), f.Unknown(xtype.Int), f.False(), xtype.Int)
	fn.SetDebugName("count")
	fn.SetDefinition(f.Conditional(
		f.Le(n, f.LiteralInt32(0)),
		f.LiteralInt32(0),
		f.Add(f.LiteralInt32(1), f.Invoke(fn, f.ActualParameterList(f.Subtract(n, f.LiteralInt32(1)))))))

	prog := f.Program(f.Invoke(fn, f.ActualParameterList(f.LiteralInt32(start))))
	prog.Functions().Append(fn)
	return prog
}

// verifyPragma reports an error unless PRAGMA name reads back as want.
func (s *Store) verifyPragma(name, want string) error {
	var got string
	if err := s.db.QueryRow("PRAGMA " + name).Scan(&got); err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	if got != want {
		return fmt.Errorf("%s = %q, want %q", name, got, want)
	}
	return nil
}
