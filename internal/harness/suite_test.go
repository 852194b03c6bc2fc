package harness

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestFindScenarios(t *testing.T) {
	files, err := FindScenarios(filepath.Join("testdata", "scenarios"), "")
	require.NoError(t, err)
	assert.Len(t, files, 4)

	files, err = FindScenarios(filepath.Join("testdata", "scenarios"), "folding*")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join("testdata", "scenarios", "folding.yaml"),
		filepath.Join("testdata", "scenarios", "folding_debug.yaml"),
	}, files)

	_, err = FindScenarios(filepath.Join("testdata", "scenarios"), "[")
	assert.ErrorContains(t, err, "invalid filter pattern")
}

func TestFindScenarios_EmptyDir(t *testing.T) {
	files, err := FindScenarios(t.TempDir(), "")
	require.NoError(t, err)
	assert.NotNil(t, files)
	assert.Empty(t, files)
}

func TestRunSuite_AllPass(t *testing.T) {
	suite, err := New().RunSuite(context.Background(), filepath.Join("testdata", "scenarios"), "")
	require.NoError(t, err)

	assert.Equal(t, 4, suite.Total)
	assert.Equal(t, 4, suite.Passed, "%v", suite.Failures)
	assert.Zero(t, suite.Failed)
	assert.Empty(t, suite.Failures)
}

func TestRunSuite_RecordsFailures(t *testing.T) {
	suite, err := New().RunSuite(context.Background(), filepath.Join("testdata", "invalid"), "")
	require.NoError(t, err)

	assert.Equal(t, 2, suite.Total)
	assert.Equal(t, 2, suite.Failed)
	require.Len(t, suite.Results, 2)

	// Lexical order: missing_fixture before wrong_kind.
	assert.Contains(t, suite.Results[0].Error, "failed to load scenario")
	assert.Nil(t, suite.Results[0].Result)
	assert.Equal(t, "wrong_kind", suite.Results[1].Name)
	assert.False(t, suite.Results[1].Pass())
}

func TestRunSuite_MissingDir(t *testing.T) {
	_, err := New().RunSuite(context.Background(), filepath.Join("testdata", "nope"), "")
	assert.Error(t, err)
}
