package engine

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/roach88/harmonizer/internal/compiler"
	"github.com/roach88/harmonizer/internal/ir"
	"github.com/roach88/harmonizer/internal/schema"
	"github.com/roach88/harmonizer/internal/testutil"
)

func loadSchema(t *testing.T) *schema.Schema {
	t.Helper()
	s, err := schema.Load(testutil.SchemaJSON, "test.schema.json")
	require.NoError(t, err)
	return s
}

func compileRules(t *testing.T, s *schema.Schema, mappings ...ir.MappingRule) []ir.Rule {
	t.Helper()
	rules, err := compiler.New(s).CompileTransformation(&ir.RemoteTransformation{
		Name:     "phs000001",
		Mappings: mappings,
	})
	require.NoError(t, err)
	return rules
}

func testConfig(rules []ir.Rule, seed *string) *ir.TransformationConfig {
	return &ir.TransformationConfig{
		Study:    "phs000001",
		Name:     "phs000001",
		UUIDSeed: seed,
		Rules:    rules,
	}
}

func testContext(ids IDGenerator) *RunContext {
	opts := DefaultOptions()
	opts.Logger = zerolog.Nop()
	return NewRunContextWithIDs(testConfig(nil, nil), opts, ids)
}

func sourceRecord(fields map[string]any) *ir.SourceRecord {
	rec := ir.NewSourceRecord(ir.Origin{File: "subjects.csv", Row: 2})
	for k, v := range fields {
		rec.Set(k, v)
	}
	return rec
}

func rv(old, new any) ir.ReplacementValue {
	return ir.ReplacementValue{OldValue: old, NewValue: new}
}

func strPtr(s string) *string {
	return &s
}
