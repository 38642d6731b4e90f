package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadScenario_Valid(t *testing.T) {
	s, err := LoadScenario(filepath.Join("testdata", "scenarios", "publish_then_amend.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "publish_then_amend", s.Name)
	require.Len(t, s.Steps, 4)
	assert.Equal(t, OpPublish, s.Steps[0].Op)
	assert.Equal(t, "C1", s.Steps[0].Caller)
	assert.True(t, s.Steps[0].Positive)
	assert.Equal(t, "ALREADY_PUBLISHED", s.Steps[2].Expect)
	require.Len(t, s.Assertions, 2)
	assert.Equal(t, []string{"published", "updated"}, s.Assertions[0].Kinds)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorContains(t, err, "failed to read scenario file")
}

func TestParseScenario_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "unknown field",
			yaml:    "name: x\ndescription: d\nstep: []\n",
			wantErr: "failed to parse YAML",
		},
		{
			name:    "missing name",
			yaml:    "description: d\nsteps: [{op: publish, caller: C1, subject: s}]\n",
			wantErr: "name is required",
		},
		{
			name:    "missing description",
			yaml:    "name: x\nsteps: [{op: publish, caller: C1, subject: s}]\n",
			wantErr: "description is required",
		},
		{
			name:    "no steps",
			yaml:    "name: x\ndescription: d\n",
			wantErr: "steps list is required",
		},
		{
			name:    "missing op",
			yaml:    "name: x\ndescription: d\nsteps: [{caller: C1, subject: s}]\n",
			wantErr: "steps[0]: op is required",
		},
		{
			name:    "unknown op",
			yaml:    "name: x\ndescription: d\nsteps: [{op: delete, caller: C1, subject: s}]\n",
			wantErr: `unknown op "delete"`,
		},
		{
			name:    "unknown expect",
			yaml:    "name: x\ndescription: d\nsteps: [{op: publish, caller: C1, subject: s, expect: EXPLODED}]\n",
			wantErr: `unknown expect "EXPLODED"`,
		},
		{
			name:    "unknown assertion",
			yaml:    "name: x\ndescription: d\nsteps: [{op: publish, caller: C1, subject: s}]\nassertions: [{type: vibes}]\n",
			wantErr: `unknown assertion type "vibes"`,
		},
		{
			name:    "record without caller",
			yaml:    "name: x\ndescription: d\nsteps: [{op: publish, caller: C1, subject: s}]\nassertions: [{type: record, subject: s}]\n",
			wantErr: "caller is required for record",
		},
		{
			name:    "unknown kind",
			yaml:    "name: x\ndescription: d\nsteps: [{op: publish, caller: C1, subject: s}]\nassertions: [{type: event_order, kinds: [deleted]}]\n",
			wantErr: `unknown kind "deleted"`,
		},
		{
			name:    "negative count",
			yaml:    "name: x\ndescription: d\nsteps: [{op: publish, caller: C1, subject: s}]\nassertions: [{type: event_count, count: -1}]\n",
			wantErr: "count must be non-negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestAllScenarioFilesParse(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("testdata", "scenarios", "*.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		_, err = ParseScenario(data)
		assert.NoError(t, err, path)
	}
}
