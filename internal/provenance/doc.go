// Package provenance makes a harmonized dataset self-describing.
//
// Every output carries reference_file records for the files that produced
// it: the engine artifact, the output schema, the rule document and each
// input data file. The Injector plans the reference_file rule groups a
// transformation is missing. The Pipeline writes the augmented rule
// document to a "<stem>.ref_files<ext>" copy, records the copy's own size
// and MD5 in it (the self-referential pair), and harmonizes again against
// the copy.
//
// The self-referential pair is computed with placeholders 0 and "" in
// place, so a reader can verify it by restoring the placeholders and
// hashing the file.
package provenance
