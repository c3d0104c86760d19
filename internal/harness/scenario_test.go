package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScenario(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "rules.json"), []byte(`{"version":"1","transformations":[]}`), 0o644))
	p := filepath.Join(dir, "scenario.yaml")
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestLoadScenario_ResolvesPaths(t *testing.T) {
	p := writeScenario(t, `
name: ok
description: resolves rules
rules: rules.json
records:
  - {a: 1}
assertions:
  - type: valid
`)
	s, err := LoadScenario(p)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(filepath.Dir(p), "rules.json"), s.Rules)
	require.Len(t, s.Records, 1)
	assert.Equal(t, 1, s.Records[0]["a"])
}

func TestLoadScenario_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "unknown field",
			content: "name: x\ndescription: y\nrules: rules.json\nassertion: []\n",
			want:    "failed to parse YAML",
		},
		{
			name:    "missing name",
			content: "description: y\nrules: rules.json\nassertions: [{type: valid}]\n",
			want:    "name is required",
		},
		{
			name:    "missing rules file",
			content: "name: x\ndescription: y\nrules: nope.json\nassertions: [{type: valid}]\n",
			want:    "rules file not found",
		},
		{
			name:    "records and source",
			content: "name: x\ndescription: y\nrules: rules.json\nsource: rules.json\nrecords: [{a: 1}]\nassertions: [{type: valid}]\n",
			want:    "mutually exclusive",
		},
		{
			name:    "no assertions",
			content: "name: x\ndescription: y\nrules: rules.json\n",
			want:    "assertions list is required",
		},
		{
			name:    "unknown assertion",
			content: "name: x\ndescription: y\nrules: rules.json\nassertions: [{type: trace_order}]\n",
			want:    `unknown assertion type "trace_order"`,
		},
		{
			name:    "record_contains without expect",
			content: "name: x\ndescription: y\nrules: rules.json\nassertions: [{type: record_contains, node: participant}]\n",
			want:    "expect is required",
		},
		{
			name:    "invalid without message",
			content: "name: x\ndescription: y\nrules: rules.json\nassertions: [{type: invalid}]\n",
			want:    "message is required",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadScenario(writeScenario(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "none.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}
