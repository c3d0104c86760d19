package config

import (
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

func TestLoad_DotEnv(t *testing.T) {
	path := writeFile(t, t.TempDir(), ".env", `JSON_SCHEMA_URL=schema.json
STUDY_CONFIGURATIONS='[{"study": "phs000001", "transformations_url": "rules.json", "transformations": [{"name": "phs000001", "source_file_path": "in.csv", "output_file_path": "out.json", "uuid_seed": 42, "extra_key": "x"}]}]'
STRICT_NUMERIC=true
`)

	s, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, s.Validate())

	assert.Equal(t, path, s.Path)
	assert.Equal(t, "schema.json", s.SchemaURL)
	assert.Equal(t, "harmonizer.log", s.LogFile)
	assert.Equal(t, int64(-999), s.DefaultSentinel)
	assert.True(t, s.StrictNumeric)

	require.Len(t, s.Studies, 1)
	study := s.Studies[0]
	assert.Equal(t, "phs000001", study.Study)
	assert.True(t, study.IsActive())
	require.Len(t, study.Transformations, 1)
	lt := study.Transformations[0]
	require.NotNil(t, lt.UUIDSeed)
	assert.Equal(t, "42", *lt.UUIDSeed)
	assert.Equal(t, "x", lt.Extra["extra_key"])
}

func TestLoad_YAML(t *testing.T) {
	path := writeFile(t, t.TempDir(), "settings.yaml", `
JSON_SCHEMA_URL: https://example.org/schema.json
LEDGER_PATH: runs.db
STUDY_CONFIGURATIONS:
  - study: phs000002
    active: false
    transformations_url: rules.yaml
`)

	s, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, s.Validate())
	assert.Equal(t, "runs.db", s.LedgerPath)
	require.Len(t, s.Studies, 1)
	assert.False(t, s.Studies[0].IsActive())
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	path := writeFile(t, t.TempDir(), ".env", "JSON_SCHEMA_URL=file.json\n")
	t.Setenv(KeySchemaURL, "env.json")

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "env.json", s.SchemaURL)
}

func TestLoad_MissingFileUsesEnvironment(t *testing.T) {
	t.Setenv(KeySchemaURL, "env.json")

	s, err := Load(filepath.Join(t.TempDir(), "absent.env"))
	require.NoError(t, err)
	assert.Empty(t, s.Path)
	assert.Equal(t, "env.json", s.SchemaURL)
}

func TestLoad_MalformedStudies(t *testing.T) {
	path := writeFile(t, t.TempDir(), ".env", "STUDY_CONFIGURATIONS='[{'\n")

	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, IsConfigError(err))
	assert.Contains(t, err.Error(), KeyStudies)
}

func TestSettings_Validate(t *testing.T) {
	tests := []struct {
		name    string
		env     string
		message string
	}{
		{
			name:    "schema missing",
			env:     `STUDY_CONFIGURATIONS='[{"study": "s", "transformations_url": "r.json"}]'`,
			message: KeySchemaURL,
		},
		{
			name:    "studies missing",
			env:     "JSON_SCHEMA_URL=s.json",
			message: KeyStudies,
		},
		{
			name: "rules location missing",
			env: "JSON_SCHEMA_URL=s.json\n" +
				`STUDY_CONFIGURATIONS='[{"study": "s"}]'`,
			message: "transformations_url",
		},
		{
			name: "output path missing",
			env: "JSON_SCHEMA_URL=s.json\n" +
				`STUDY_CONFIGURATIONS='[{"study": "s", "transformations_url": "r.json", "transformations": [{"name": "t", "source_file_path": "in.csv"}]}]'`,
			message: "output_file_path",
		},
		{
			name: "duplicate study",
			env: "JSON_SCHEMA_URL=s.json\n" +
				`STUDY_CONFIGURATIONS='[{"study": "s", "active": false}, {"study": "s", "active": false}]'`,
			message: "more than once",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Load(writeFile(t, t.TempDir(), ".env", tt.env+"\n"))
			require.NoError(t, err)

			err = s.Validate()
			require.Error(t, err)
			assert.True(t, IsConfigError(err))
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}
