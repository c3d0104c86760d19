package engine

import (
	"context"
	"errors"
	"io"

	"github.com/roach88/harmonizer/internal/ir"
	"github.com/roach88/harmonizer/internal/schema"
)

// RecordIterator yields source records in a stable order. Next returns
// io.EOF after the last record.
type RecordIterator interface {
	Next() (*ir.SourceRecord, error)
}

// FileLister is implemented by iterators that can report the distinct
// input files they read, in first-seen order.
type FileLister interface {
	Files() []string
}

// SliceIterator iterates over an in-memory list of records.
type SliceIterator struct {
	records []*ir.SourceRecord
	pos     int
}

// NewSliceIterator creates an iterator over records.
func NewSliceIterator(records ...*ir.SourceRecord) *SliceIterator {
	return &SliceIterator{records: records}
}

// Next implements RecordIterator.
func (it *SliceIterator) Next() (*ir.SourceRecord, error) {
	if it.pos >= len(it.records) {
		return nil, io.EOF
	}
	rec := it.records[it.pos]
	it.pos++
	return rec, nil
}

// Files implements FileLister.
func (it *SliceIterator) Files() []string {
	var files []string
	seen := make(map[string]bool)
	for _, r := range it.records {
		if f := r.Origin.File; f != "" && !seen[f] {
			seen[f] = true
			files = append(files, f)
		}
	}
	return files
}

// Result is the outcome of harmonizing one transformation.
type Result struct {
	Transformation string
	Dataset        *ir.HarmonizedDataset

	// Records is the number of source records read.
	Records int

	// Inputs are the distinct input files, when the iterator reports them.
	Inputs []string
}

// Harmonizer drives one transformation over its source records.
type Harmonizer struct {
	schema    *schema.Schema
	eval      *Evaluator
	validator schema.Validator
	opts      Options
}

// NewHarmonizer creates a harmonizer for s. The schema also serves as the
// validator unless WithValidator replaces it.
func NewHarmonizer(s *schema.Schema, opts Options) *Harmonizer {
	return &Harmonizer{
		schema:    s,
		eval:      NewEvaluator(s),
		validator: s,
		opts:      opts.withDefaults(),
	}
}

// WithValidator returns a copy of h using v for validation.
func (h *Harmonizer) WithValidator(v schema.Validator) *Harmonizer {
	cp := *h
	cp.validator = v
	return &cp
}

// Run harmonizes cfg with a fresh RunContext, so every call starts the
// identifier sequence from the seed again.
func (h *Harmonizer) Run(ctx context.Context, cfg *ir.TransformationConfig, it RecordIterator) (*Result, error) {
	return h.RunWithContext(ctx, cfg, it, NewRunContext(cfg, h.opts))
}

// RunWithContext harmonizes cfg using rc. The result is not validated.
func (h *Harmonizer) RunWithContext(ctx context.Context, cfg *ir.TransformationConfig, it RecordIterator, rc *RunContext) (*Result, error) {
	asm := NewAssembler(h.eval, h.schema, cfg.Rules)
	ds := h.schema.NewDataset()
	l := newLinker(h.schema, ds, rc)

	static, err := asm.AssembleStatic(rc)
	if err != nil {
		return nil, err
	}
	var refs []*ir.OutputRecord
	for _, nr := range static {
		switch nr.Node {
		case ir.NodeStudy:
			l.addStudies(nr.Records)
		default:
			refs = append(refs, nr.Records...)
		}
	}

	res := &Result{Transformation: cfg.Name, Dataset: ds}
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec, err := it.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &DataError{
				Code:           ErrCodeSourceRead,
				Message:        "failed to read source record",
				Transformation: cfg.Name,
				Err:            err,
			}
		}
		res.Records++

		nodes, err := asm.Assemble(rec, rc)
		if err != nil {
			return nil, err
		}
		l.addRecord(rec, nodes)
	}

	l.addReferenceFiles(refs)

	if fl, ok := it.(FileLister); ok {
		res.Inputs = fl.Files()
	}
	rc.Log.Info().
		Int("records", res.Records).
		Interface("counts", ds.Counts()).
		Msg("transformation harmonized")
	return res, nil
}

// Validate checks ds and returns a ValidationFailure naming transformation
// when anything is wrong.
func (h *Harmonizer) Validate(transformation string, ds *ir.HarmonizedDataset) error {
	if errs := h.validator.Validate(ds); len(errs) > 0 {
		return &schema.ValidationFailure{Transformation: transformation, Errors: errs}
	}
	return nil
}
