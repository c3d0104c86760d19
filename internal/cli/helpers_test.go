package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/harmonizer/internal/testutil"
)

const studyRules = `{
    "version": "1.0",
    "transformations": [
        {
            "name": "participants",
            "mappings": [
                {
                    "output_field": "study.study_id",
                    "source_field": "[string_literal]",
                    "default_value": "phs000001",
                    "replacement_values": []
                },
                {
                    "output_field": "participant.participant_id",
                    "source_field": "subject_id",
                    "default_value": null,
                    "replacement_values": []
                },
                {
                    "output_field": "participant.race",
                    "source_field": "race",
                    "default_value": "Not Reported",
                    "replacement_values": []
                }
            ]
        }
    ]
}`

const brokenRules = `{
    "version": "1.0",
    "transformations": [
        {
            "name": "participants",
            "mappings": [
                {
                    "output_field": "participant.no_such_property",
                    "source_field": "subject_id",
                    "default_value": null,
                    "replacement_values": []
                }
            ]
        }
    ]
}`

const subjectsCSV = "subject_id,race\nP1,white\nP2,asian\n"

// studyFixture is a self-contained study on disk: schema, rules, source
// and a YAML configuration pointing at them.
type studyFixture struct {
	dir     string
	config  string
	rules   string
	output  string
	engine  string
	logFile string
	ledger  string
}

func newStudyFixture(t *testing.T, rules string) *studyFixture {
	t.Helper()
	dir := t.TempDir()
	f := &studyFixture{
		dir:     dir,
		rules:   writeFile(t, dir, "rules.json", rules),
		output:  filepath.Join(dir, "out", "participants.json"),
		engine:  writeFile(t, dir, "harmonizer.bin", "engine"),
		logFile: filepath.Join(dir, "harmonizer.log"),
		ledger:  filepath.Join(dir, "runs.db"),
	}
	schemaPath := writeFile(t, dir, "schema.json", string(testutil.SchemaJSON))
	source := writeFile(t, dir, "subjects.csv", subjectsCSV)

	f.config = writeFile(t, dir, "settings.yaml", fmt.Sprintf(`
JSON_SCHEMA_URL: %s
LOG_FILE: %s
STUDY_CONFIGURATIONS:
  - study: phs000001
    transformations_url: %s
    transformations:
      - name: participants
        source_file_path: %s
        output_file_path: %s
        uuid_seed: "42"
`, schemaPath, f.logFile, f.rules, source, f.output))
	return f
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

// execute runs the root command with args and returns stdout, stderr and
// the command error.
func execute(args ...string) (string, string, error) {
	cmd := NewRootCommand()
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

// decodeResponse decodes a JSON CLI response, re-decoding its data into
// payload when payload is non-nil.
func decodeResponse(t *testing.T, out string, payload any) CLIResponse {
	t.Helper()
	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp), "output: %s", out)
	if payload != nil && resp.Data != nil {
		data, err := json.Marshal(resp.Data)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(data, payload))
	}
	return resp
}
