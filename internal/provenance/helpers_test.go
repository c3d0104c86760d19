package provenance

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/harmonizer/internal/compiler"
	"github.com/roach88/harmonizer/internal/ir"
)

const studyRules = `{
    "version": "1.0",
    "transformations": [
        {
            "name": "phs000001",
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

const subjectsCSV = "subject_id,race\nP1,white\nP2,asian\n"

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func decodeFile(t *testing.T, path string) *ir.RuleDocument {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	doc, err := compiler.DecodeDocument(data, path)
	require.NoError(t, err)
	return doc
}

func decodeRules(t *testing.T, data string) *ir.RuleDocument {
	t.Helper()
	doc, err := compiler.DecodeDocument([]byte(data), "rules.json")
	require.NoError(t, err)
	return doc
}

// groupFacts returns the file_name, size and md5 of every reference_file
// group of the named transformation, keyed by category.
func groupFacts(t *testing.T, doc *ir.RuleDocument, name string) map[string][]Artifact {
	t.Helper()
	tr, ok := doc.Transformation(name)
	require.True(t, ok)
	groups, _, _ := scan(tr)
	out := make(map[string][]Artifact)
	for _, g := range groups {
		rules := groupRules(tr, g.Index)
		size, _ := ir.ParseInt(literalValue(rules[ir.PropFileSize]))
		out[g.Category] = append(out[g.Category], Artifact{
			Category: g.Category,
			Name:     g.Name,
			Size:     size,
			MD5:      ir.Stringify(literalValue(rules[ir.PropMD5Sum])),
		})
	}
	return out
}

func testArtifacts() (engineArt, schemaArt Artifact) {
	engineArt = Artifact{Category: ir.CategoryEngine, Name: "harmonizer", Size: 10, MD5: "e"}
	schemaArt = Artifact{Category: ir.CategorySchema, Name: "schema.json", Type: "json", Size: 20, MD5: "s"}
	return engineArt, schemaArt
}
