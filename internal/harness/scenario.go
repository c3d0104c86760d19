package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario defines a harmonization test scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Rules is the path of the rule document (JSON or YAML).
	// Relative paths are resolved against the scenario file location.
	Rules string `yaml:"rules"`

	// Transformation selects the document entry. Empty means the first.
	Transformation string `yaml:"transformation,omitempty"`

	// UUIDSeed switches from sequence ids to seeded random ids.
	UUIDSeed *string `yaml:"uuid_seed,omitempty"`

	// Records are the inline source records, in order.
	Records []map[string]any `yaml:"records,omitempty"`

	// Source is a source file or directory read instead of Records.
	Source string `yaml:"source,omitempty"`

	// Sheet restricts a workbook source to one sheet.
	Sheet string `yaml:"sheet,omitempty"`

	// Assertions validate the harmonized dataset.
	Assertions []Assertion `yaml:"assertions"`
}

// Assertion validates the dataset.
type Assertion struct {
	// Type specifies the assertion type:
	// - "node_count": node has exactly Count records
	// - "record_contains": a record matching Where also matches Expect
	// - "unique_ids": ids of node are distinct
	// - "linked": records of node carry their parent link
	// - "valid": validation passes
	// - "invalid": validation fails with Message
	Type string `yaml:"type"`

	// Node is the node type (node_count, record_contains, unique_ids, linked).
	Node string `yaml:"node,omitempty"`

	// Count is the expected number of records (node_count).
	Count int `yaml:"count,omitempty"`

	// Where selects records by exact property values (record_contains).
	Where map[string]any `yaml:"where,omitempty"`

	// Expect contains expected property values (record_contains).
	// Subset match - only specified properties are compared.
	Expect map[string]any `yaml:"expect,omitempty"`

	// Message is a substring of an expected validation error (invalid).
	Message string `yaml:"message,omitempty"`
}

// Assertion type constants.
const (
	AssertNodeCount      = "node_count"
	AssertRecordContains = "record_contains"
	AssertUniqueIDs      = "unique_ids"
	AssertLinked         = "linked"
	AssertValid          = "valid"
	AssertInvalid        = "invalid"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
// Rule and source paths are resolved against the file's directory.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving rule and source paths relative to basePath.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if basePath != "" {
		scenario.Rules = resolve(basePath, scenario.Rules)
		scenario.Source = resolve(basePath, scenario.Source)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

func resolve(base, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Rules == "" {
		return fmt.Errorf("rules is required")
	}
	if _, err := os.Stat(s.Rules); os.IsNotExist(err) {
		return fmt.Errorf("rules file not found: %s", s.Rules)
	}

	if len(s.Records) > 0 && s.Source != "" {
		return fmt.Errorf("records and source are mutually exclusive")
	}
	if s.Source != "" {
		if _, err := os.Stat(s.Source); os.IsNotExist(err) {
			return fmt.Errorf("source not found: %s", s.Source)
		}
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertNodeCount:
		if a.Node == "" {
			return fmt.Errorf("assertions[%d]: node is required for node_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for node_count", index)
		}
	case AssertRecordContains:
		if a.Node == "" {
			return fmt.Errorf("assertions[%d]: node is required for record_contains", index)
		}
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for record_contains", index)
		}
	case AssertUniqueIDs, AssertLinked:
		if a.Node == "" {
			return fmt.Errorf("assertions[%d]: node is required for %s", index, a.Type)
		}
	case AssertValid:
	case AssertInvalid:
		if a.Message == "" {
			return fmt.Errorf("assertions[%d]: message is required for invalid", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
