package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/harmonizer/internal/ir"
)

// Snapshot captures a scenario's dataset for golden comparison.
type Snapshot struct {
	ScenarioName string
	Dataset      *ir.HarmonizedDataset
	Validation   []string
}

// toCanonicalMap converts a Snapshot for canonical JSON serialization.
func (s *Snapshot) toCanonicalMap() map[string]any {
	result := map[string]any{
		"scenario": s.ScenarioName,
		"dataset":  s.Dataset,
	}
	if len(s.Validation) > 0 {
		msgs := make([]any, len(s.Validation))
		for i, m := range s.Validation {
			msgs[i] = m
		}
		result["validation"] = msgs
	}
	return result
}

// RunWithGolden executes a scenario and compares the dataset against a
// golden file stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the dataset doesn't match.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against a golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	snapshot := Snapshot{
		ScenarioName: scenarioName,
		Dataset:      result.Dataset,
		Validation:   result.ValidationMessages(),
	}
	data, err := ir.MarshalCanonical(snapshot.toCanonicalMap())
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)
	return nil
}
