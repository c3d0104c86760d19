// Package harness runs harmonization scenarios as executable contract tests.
//
// A scenario names a rule document, feeds it source records and asserts on
// the harmonized dataset. Datasets can also be compared against golden
// snapshots.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	rules: rules.json            # relative to the scenario file
//	transformation: phs000001    # defaults to the first in the document
//	uuid_seed: "42"              # optional; sequence ids otherwise
//	records:
//	  - { subject_id: P1, race: white }
//	assertions:
//	  - type: node_count
//	    node: participant
//	    count: 1
//	  - type: record_contains
//	    node: participant
//	    where: { participant_id: P1 }
//	    expect: { race: [White] }
//
// A scenario may read a source file (source: subjects.csv) instead of
// inline records.
//
// # Assertion Types
//
//   - node_count: the node has exactly count records
//   - record_contains: some record matching where also matches expect
//   - unique_ids: every record of the node has a distinct <node>_id
//   - linked: every record of the node carries its parent link
//   - valid: the dataset passes schema validation
//   - invalid: validation fails with a message containing message
//
// # Deterministic Testing
//
// Unseeded scenarios draw identifiers from testutil.SequenceIDGenerator,
// so golden snapshots are readable and identical across runs. Seeded
// scenarios use the engine's seeded generator.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/race.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(scenario)
//	if !result.Pass {
//	    for _, e := range result.Errors {
//	        log.Println(e)
//	    }
//	}
package harness
