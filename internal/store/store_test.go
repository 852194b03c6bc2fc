package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/qgraph/internal/ir"
	"github.com/roach88/qgraph/internal/testutil"
)

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	_, err = os.Stat(path)
	assert.NoError(t, err, "database file was not created")
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	for i := 0; i < 3; i++ {
		s, err := Open(path)
		require.NoError(t, err, "Open() iteration %d", i)
		s.Close()
	}

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	var name string
	err = s.db.QueryRow(
		"SELECT name FROM sqlite_master WHERE type='index' AND name=?",
		"idx_snapshots_fingerprint",
	).Scan(&name)
	assert.NoError(t, err, "fingerprint index missing after idempotent opens")
	assert.NoError(t, s.verifyPragma("user_version", "1"))
}

func TestOpen_InvalidPath(t *testing.T) {
	_, err := Open("/nonexistent/dir/test.db")
	assert.Error(t, err)
}

func TestClose_NilDB(t *testing.T) {
	s := &Store{db: nil}
	assert.NoError(t, s.Close())
}

func TestPragmas(t *testing.T) {
	s := createTestStore(t)

	assert.NoError(t, s.verifyPragma("journal_mode", "wal"))
	assert.NoError(t, s.verifyPragma("synchronous", "1")) // NORMAL
	assert.NoError(t, s.verifyPragma("busy_timeout", "5000"))
	assert.NoError(t, s.verifyPragma("foreign_keys", "1"))
}

func TestSave_RecordsSnapshot(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	prog := countdown(ir.NewFactory(), 3)

	snap, err := s.Save(ctx, "countdown", prog)
	require.NoError(t, err)

	assert.Equal(t, "snap-0001", snap.ID)
	assert.Equal(t, int64(1), snap.Seq)
	assert.Equal(t, "countdown", snap.Label)
	assert.Equal(t, ir.MustFingerprint(prog), snap.Fingerprint)
	assert.Equal(t, ir.NotationVersion, snap.NotationVersion)
	assert.Equal(t, ir.ToolVersion, snap.ToolVersion)
	assert.Equal(t, ir.Count(prog), snap.NodeCount)
	assert.NotContains(t, string(snap.Body), "\n", "body is stored unindented")

	got, err := s.Get(ctx, snap.ID)
	require.NoError(t, err)
	assert.Equal(t, snap, got)
}

func TestSave_Idempotent(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	first, err := s.Save(ctx, "countdown", countdown(ir.NewFactory(), 3))
	require.NoError(t, err)

	// Same graph built by a different factory.
	second, err := s.Save(ctx, "countdown", countdown(ir.NewFactory(), 3))
	require.NoError(t, err)
	assert.Equal(t, first, second)

	// A new label is a new snapshot.
	third, err := s.Save(ctx, "other", countdown(ir.NewFactory(), 3))
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, third.ID)
	assert.Greater(t, third.Seq, first.Seq)

	all, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestLoad_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	prog := countdown(ir.NewFactory(), 5)

	snap, err := s.Save(ctx, "countdown", prog)
	require.NoError(t, err)

	got, err := s.Load(ctx, snap.ID, ir.NewFactory())
	require.NoError(t, err)
	assert.Equal(t, ir.MustFingerprint(prog), ir.MustFingerprint(got))
	assert.True(t, ir.Validate(got).Valid)
}

func TestLoad_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.Load(context.Background(), "missing", ir.NewFactory())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLoad_FingerprintMismatch(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	snap, err := s.Save(ctx, "countdown", countdown(ir.NewFactory(), 3))
	require.NoError(t, err)
	_, err = s.db.Exec(`UPDATE snapshots SET fingerprint = 'bogus' WHERE id = ?`, snap.ID)
	require.NoError(t, err)

	_, err = s.Load(ctx, snap.ID, ir.NewFactory())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fingerprint mismatch")
}

func TestList_EmptyIsNotNil(t *testing.T) {
	s := createTestStore(t)

	snaps, err := s.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, snaps)
	assert.Empty(t, snaps)
}

func TestList_OrderedBySeq(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	for _, start := range []int32{3, 1, 2} {
		_, err := s.Save(ctx, "countdown", countdown(ir.NewFactory(), start))
		require.NoError(t, err)
	}

	snaps, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, snaps, 3)
	for i, snap := range snaps {
		assert.Equal(t, int64(i+1), snap.Seq)
	}
}

func TestFindByFingerprint(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	a, err := s.Save(ctx, "a", countdown(ir.NewFactory(), 3))
	require.NoError(t, err)
	_, err = s.Save(ctx, "b", countdown(ir.NewFactory(), 4))
	require.NoError(t, err)
	c, err := s.Save(ctx, "c", countdown(ir.NewFactory(), 3))
	require.NoError(t, err)

	found, err := s.FindByFingerprint(ctx, a.Fingerprint)
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, a.ID, found[0].ID)
	assert.Equal(t, c.ID, found[1].ID)

	none, err := s.FindByFingerprint(ctx, "nope")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	snap, err := s.Save(ctx, "countdown", countdown(ir.NewFactory(), 3))
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, snap.ID))
	_, err = s.Get(ctx, snap.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.Delete(ctx, snap.ID), ErrNotFound)
}

func TestOpen_ResumesSeq(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "test.db")
	ids := testutil.NewSequentialIDGenerator("snap")

	s1, err := Open(path, WithIDGenerator(ids))
	require.NoError(t, err)
	_, err = s1.Save(ctx, "one", countdown(ir.NewFactory(), 1))
	require.NoError(t, err)
	require.NoError(t, s1.Close())

	s2, err := Open(path, WithIDGenerator(ids))
	require.NoError(t, err)
	defer s2.Close()
	snap, err := s2.Save(ctx, "two", countdown(ir.NewFactory(), 2))
	require.NoError(t, err)
	assert.Equal(t, int64(2), snap.Seq)
}
