// Package engine resolves mapping rules against source records.
//
// ARCHITECTURE:
//
// Evaluation is single-threaded and strictly ordered. For one
// transformation the Harmonizer:
//  1. builds a RunContext owning the identifier generator
//  2. assembles the transformation-level nodes (study, reference_file)
//     once against an empty record
//  3. iterates source records in the order the adapter supplies them and
//     assembles every record-level node type in schema order
//  4. links child records to their parents and returns the dataset
//
// Within a node type the Assembler walks type groups in ascending index
// order and rules in declaration order. Wildcard-indexed rules are
// evaluated once per concrete group.
//
// DETERMINISM:
//
// The only mutable state shared across records is the IDGenerator. It is
// owned by the RunContext and advanced exactly once per {uuid} evaluation,
// so a seeded run over identically ordered records reproduces every
// identifier.
package engine
