package harness

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/roach88/harmonizer/internal/compiler"
	"github.com/roach88/harmonizer/internal/engine"
	"github.com/roach88/harmonizer/internal/ir"
	"github.com/roach88/harmonizer/internal/schema"
	"github.com/roach88/harmonizer/internal/source"
	"github.com/roach88/harmonizer/internal/testutil"
)

// Harness executes scenarios against one destination schema.
type Harness struct {
	schema *schema.Schema
	logger zerolog.Logger
}

// New creates a harness for the schema document in schemaJSON.
func New(schemaJSON []byte, location string) (*Harness, error) {
	s, err := schema.Load(schemaJSON, location)
	if err != nil {
		return nil, err
	}
	return &Harness{schema: s, logger: zerolog.Nop()}, nil
}

// WithLogger returns a copy of h that logs through log.
func (h *Harness) WithLogger(log zerolog.Logger) *Harness {
	cp := *h
	cp.logger = log
	return &cp
}

// Run executes a scenario with the test schema (testutil.SchemaJSON).
func Run(scenario *Scenario) (*Result, error) {
	h, err := New(testutil.SchemaJSON, "test.schema.json")
	if err != nil {
		return nil, err
	}
	return h.Run(context.Background(), scenario)
}

// Run executes a scenario and returns the result.
//
// Execution flow:
//  1. Load and compile the scenario's rule document
//  2. Harmonize the records with sequence or seeded ids
//  3. Validate the dataset
//  4. Evaluate assertions
func (h *Harness) Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	cfg, err := h.compile(scenario)
	if err != nil {
		return nil, err
	}

	it, closeFn, err := h.records(scenario)
	if err != nil {
		return nil, err
	}
	defer closeFn()

	opts := engine.DefaultOptions()
	opts.Logger = h.logger
	hz := engine.NewHarmonizer(h.schema, opts)

	var rc *engine.RunContext
	if cfg.Seeded() {
		rc = engine.NewRunContext(cfg, opts)
	} else {
		rc = engine.NewRunContextWithIDs(cfg, opts, testutil.NewSequenceIDGenerator())
	}

	res, err := hz.RunWithContext(ctx, cfg, it, rc)
	if err != nil {
		return nil, fmt.Errorf("failed to harmonize: %w", err)
	}

	result := NewResult(res.Dataset)
	result.Validation = h.schema.Validate(res.Dataset)
	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

func (h *Harness) compile(scenario *Scenario) (*ir.TransformationConfig, error) {
	data, err := os.ReadFile(scenario.Rules)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules: %w", err)
	}
	doc, err := compiler.DecodeDocument(data, scenario.Rules)
	if err != nil {
		return nil, err
	}
	if len(doc.Transformations) == 0 {
		return nil, fmt.Errorf("rule document %s has no transformations", scenario.Rules)
	}

	rt := &doc.Transformations[0]
	if scenario.Transformation != "" {
		var ok bool
		if rt, ok = doc.Transformation(scenario.Transformation); !ok {
			return nil, fmt.Errorf("transformation %q not in %s", scenario.Transformation, scenario.Rules)
		}
	}

	rules, err := compiler.New(h.schema).CompileTransformation(rt)
	if err != nil {
		return nil, err
	}
	return &ir.TransformationConfig{
		Study:         scenario.Name,
		Name:          rt.Name,
		Version:       doc.Version,
		UUIDSeed:      scenario.UUIDSeed,
		RulesLocation: scenario.Rules,
		Document:      doc,
		Rules:         rules,
	}, nil
}

func (h *Harness) records(scenario *Scenario) (engine.RecordIterator, func() error, error) {
	if scenario.Source != "" {
		src, err := source.Open(scenario.Source, scenario.Sheet)
		if err != nil {
			return nil, nil, err
		}
		return src, src.Close, nil
	}

	recs := make([]*ir.SourceRecord, len(scenario.Records))
	for i, fields := range scenario.Records {
		rec := ir.NewSourceRecord(ir.Origin{File: scenario.Name, Row: i + 1})
		for k, v := range fields {
			rec.Set(k, ir.Normalize(v))
		}
		recs[i] = rec
	}
	return engine.NewSliceIterator(recs...), func() error { return nil }, nil
}
