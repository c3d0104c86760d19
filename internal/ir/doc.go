// Package ir provides the shared types of the harmonizer.
//
// It holds the wire forms of the rule document and the local study
// configuration, the compiled rule representation, source and output
// records, and the harmonized dataset. All other internal packages import
// ir; ir imports nothing internal.
//
// Key constraints:
//   - Compiled rules are immutable once a TransformationConfig is built
//   - OutputRecord and HarmonizedDataset preserve insertion order so output
//     documents are byte-stable
//   - Content hashes use canonical JSON with domain separation
//   - All JSON tags use snake_case
package ir
