// Package schema loads the destination data model from a JSON Schema
// document and checks harmonized datasets against it.
//
// Node types are the entries of the root "$defs" object that declare
// "properties". For each property the package records its JSON type, its
// permissible values (from "enum" or "items.enum") and whether the node
// lists it as required. Permissible values written as "code : label" are
// also indexed by code for the enum-lookup macro.
package schema
