// Package compiler turns rule documents into compiled ir.Rule values.
//
// Compilation happens once per transformation, before any source record is
// read. The document shape is checked against an embedded CUE schema, then
// each mapping is resolved against the destination schema: output fields
// must name known properties, type group indexes are parsed, old values
// become positional match patterns and new values become either literals or
// one of the closed set of macros. Anything malformed is reported as a
// MappingRuleError so a defective rule file never reaches evaluation.
package compiler
