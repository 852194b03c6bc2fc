package harness

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadScenario_ResolvesFixture(t *testing.T) {
	s, err := LoadScenario(filepath.Join("testdata", "scenarios", "countdown.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "countdown", s.Name)
	assert.Equal(t, filepath.Join("testdata", "fixtures", "countdown.cue"), s.Fixture)
	assert.Equal(t, ModeNormal, s.Mode)
	require.Len(t, s.Assertions, 6)
	assert.Equal(t, []string{"$count"}, s.Assertions[2].IDs)
}

func TestLoadScenario_MissingFixture(t *testing.T) {
	_, err := LoadScenario(filepath.Join("testdata", "invalid", "missing_fixture.yaml"))

	var nf *FixtureNotFoundError
	require.True(t, errors.As(err, &nf), "got %v", err)
	assert.Equal(t, "../fixtures/nope.cue", nf.FixturePath)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join("testdata", "scenarios", "nope.yaml"))
	assert.ErrorContains(t, err, "failed to read scenario file")
}

func TestParseScenario_Invalid(t *testing.T) {
	base := filepath.Join("testdata", "scenarios")

	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "unknown field",
			yaml:    "name: x\ndescription: d\nfixture: ../fixtures/answer.cue\nasserts: []\n",
			wantErr: "failed to parse YAML",
		},
		{
			name:    "missing name",
			yaml:    "description: d\nfixture: ../fixtures/answer.cue\nassertions: [{type: valid}]\n",
			wantErr: "name is required",
		},
		{
			name:    "missing description",
			yaml:    "name: x\nfixture: ../fixtures/answer.cue\nassertions: [{type: valid}]\n",
			wantErr: "description is required",
		},
		{
			name:    "missing fixture",
			yaml:    "name: x\ndescription: d\nassertions: [{type: valid}]\n",
			wantErr: "fixture is required",
		},
		{
			name:    "bad mode",
			yaml:    "name: x\ndescription: d\nfixture: ../fixtures/answer.cue\nmode: fast\nassertions: [{type: valid}]\n",
			wantErr: `unknown mode "fast"`,
		},
		{
			name:    "no assertions",
			yaml:    "name: x\ndescription: d\nfixture: ../fixtures/answer.cue\n",
			wantErr: "assertions list is required",
		},
		{
			name:    "unknown assertion",
			yaml:    "name: x\ndescription: d\nfixture: ../fixtures/answer.cue\nassertions: [{type: vibes}]\n",
			wantErr: `unknown assertion type "vibes"`,
		},
		{
			name:    "root_kind without kind",
			yaml:    "name: x\ndescription: d\nfixture: ../fixtures/answer.cue\nassertions: [{type: root_kind}]\n",
			wantErr: "kind is required",
		},
		{
			name:    "root_type without type",
			yaml:    "name: x\ndescription: d\nfixture: ../fixtures/answer.cue\nassertions: [{type: root_type}]\n",
			wantErr: "xml_type is required",
		},
		{
			name:    "node_count without bounds",
			yaml:    "name: x\ndescription: d\nfixture: ../fixtures/answer.cue\nassertions: [{type: node_count}]\n",
			wantErr: "count or min is required",
		},
		{
			name:    "negative forward_decls",
			yaml:    "name: x\ndescription: d\nfixture: ../fixtures/answer.cue\nassertions: [{type: forward_decls, count: -1}]\n",
			wantErr: "count must be non-negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml), base)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
