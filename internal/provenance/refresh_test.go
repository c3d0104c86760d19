package provenance

import (
	"crypto/md5"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/harmonizer/internal/ir"
)

// sealedRules builds a document with a schema group, an input group and a
// self-referential mapping group, all holding stale facts.
func sealedRules(t *testing.T, dir string) string {
	t.Helper()
	doc := decodeRules(t, studyRules)
	tr, _ := doc.Transformation("phs000001")
	tr.Mappings = append(tr.Mappings, artifactRules(Artifact{
		Category: ir.CategorySchema, Name: "schema.json", Type: "json", Size: 1, MD5: "stale",
	}, 1)...)
	tr.Mappings = append(tr.Mappings, artifactRules(Artifact{
		Category: ir.CategoryInput, Name: "subjects.csv", Type: "csv", Size: 1, MD5: "stale",
	}, 2)...)
	tr.Mappings = append(tr.Mappings, artifactRules(Artifact{
		Category: ir.CategoryMapping, Name: "rules.ref_files.json", Type: "json", Size: 1, MD5: "stale",
	}, 3)...)
	tr.Mappings = append(tr.Mappings, artifactRules(Artifact{
		Category: ir.CategoryEngine, Name: "gone.bin", Type: "bin", Size: 1, MD5: "stale",
	}, 4)...)
	tr.Mappings = append(tr.Mappings, idRule())

	p := filepath.Join(dir, "rules.ref_files.json")
	require.NoError(t, writeRules(p, doc))
	return p
}

func md5Hex(data []byte) string {
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:])
}

func TestRefresh_RecomputesResolvableGroups(t *testing.T) {
	dir := t.TempDir()
	rulesPath := sealedRules(t, dir)
	writeFile(t, dir, "subjects.csv", subjectsCSV)
	schemaArt := BytesArtifact(ir.CategorySchema, "https://example.org/schema.json", []byte("{}"), "")

	res, err := NewRefresher(zerolog.Nop()).Refresh(rulesPath, []Artifact{schemaArt})
	require.NoError(t, err)

	assert.Equal(t, 2, res.Updated)
	assert.Equal(t, 1, res.Sealed)
	assert.Equal(t, []string{"gone.bin"}, res.Unresolved)

	facts := groupFacts(t, decodeFile(t, rulesPath), "phs000001")
	assert.Equal(t, md5Hex([]byte("{}")), facts[ir.CategorySchema][0].MD5)
	assert.Equal(t, int64(2), facts[ir.CategorySchema][0].Size)
	assert.Equal(t, md5Hex([]byte(subjectsCSV)), facts[ir.CategoryInput][0].MD5)
	assert.Equal(t, int64(len(subjectsCSV)), facts[ir.CategoryInput][0].Size)
	assert.Equal(t, "stale", facts[ir.CategoryEngine][0].MD5)
}

func TestRefresh_SealsSelfReference(t *testing.T) {
	dir := t.TempDir()
	rulesPath := sealedRules(t, dir)

	_, err := NewRefresher(zerolog.Nop()).Refresh(rulesPath, nil)
	require.NoError(t, err)

	doc := decodeFile(t, rulesPath)
	mapping := groupFacts(t, doc, "phs000001")[ir.CategoryMapping][0]
	assert.NotEqual(t, "stale", mapping.MD5)

	// The stored pair describes the file as written with placeholders.
	tr, _ := doc.Transformation("phs000001")
	setFacts(tr, 3, 0, "")
	data, err := ir.EncodeRuleDocument(doc)
	require.NoError(t, err)
	assert.Equal(t, md5Hex(data), mapping.MD5)
	assert.Equal(t, int64(len(data)), mapping.Size)
}

func TestRefresh_Idempotent(t *testing.T) {
	dir := t.TempDir()
	rulesPath := sealedRules(t, dir)
	writeFile(t, dir, "subjects.csv", subjectsCSV)
	r := NewRefresher(zerolog.Nop())

	_, err := r.Refresh(rulesPath, nil)
	require.NoError(t, err)
	first, err := os.ReadFile(rulesPath)
	require.NoError(t, err)

	_, err = r.Refresh(rulesPath, nil)
	require.NoError(t, err)
	second, err := os.ReadFile(rulesPath)
	require.NoError(t, err)

	assert.Equal(t, string(first), string(second))
}

func TestRefresh_MissingFile(t *testing.T) {
	_, err := NewRefresher(zerolog.Nop()).Refresh(filepath.Join(t.TempDir(), "none.json"), nil)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "none.json"))
}

func TestMD5File_ChunkedMatchesWhole(t *testing.T) {
	data := strings.Repeat("0123456789", 1000)
	p := writeFile(t, t.TempDir(), "big.txt", data)

	sum, size, err := MD5File(p)
	require.NoError(t, err)
	assert.Equal(t, md5Hex([]byte(data)), sum)
	assert.Equal(t, int64(len(data)), size)
}
