package harness

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/harmonizer/internal/ir"
)

func TestRun_Scenarios(t *testing.T) {
	files, err := filepath.Glob("testdata/scenarios/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, f := range files {
		if strings.HasSuffix(f, ".rules.yaml") {
			continue
		}
		t.Run(filepath.Base(f), func(t *testing.T) {
			scenario, err := LoadScenario(f)
			require.NoError(t, err)

			result, err := Run(scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, "assertion failures:\n%s", strings.Join(result.Errors, "\n"))
		})
	}
}

func TestRun_SeededScenarioIsStable(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/reference_files.yaml")
	require.NoError(t, err)

	first, err := Run(scenario)
	require.NoError(t, err)
	second, err := Run(scenario)
	require.NoError(t, err)

	a, err := ir.DatasetHash(first.Dataset)
	require.NoError(t, err)
	b, err := ir.DatasetHash(second.Dataset)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestRun_FailingAssertionsReported(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/participant_diagnosis.yaml")
	require.NoError(t, err)
	scenario.Assertions = []Assertion{
		{Type: AssertNodeCount, Node: "participant", Count: 5},
		{Type: AssertInvalid, Message: "duplicate identifier"},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 2)
	assert.Contains(t, result.Errors[0], "assertions[0]")
	assert.Contains(t, result.Errors[1], "no validation errors")
}

func TestRun_UnknownTransformation(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/participant_diagnosis.yaml")
	require.NoError(t, err)
	scenario.Transformation = "missing"

	_, err = Run(scenario)
	assert.Error(t, err)
}
