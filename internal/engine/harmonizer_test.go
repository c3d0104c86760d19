package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/harmonizer/internal/ir"
	"github.com/roach88/harmonizer/internal/schema"
)

func studyMappings() []ir.MappingRule {
	uuidRule := func(field string) ir.MappingRule {
		return ir.MappingRule{OutputField: field, SourceField: ir.LiteralSource, TypeGroupIndex: "*",
			ReplacementValues: []ir.ReplacementValue{rv("*", "{uuid}")}}
	}
	return []ir.MappingRule{
		{OutputField: "study.study_id", SourceField: ir.LiteralSource, DefaultValue: "phs000001"},
		{OutputField: "participant.participant_id", SourceField: "participant_id"},
		{OutputField: "participant.race", SourceField: "[race, ethnicity]", DefaultValue: "Not Reported",
			ReplacementValues: []ir.ReplacementValue{rv("*", "{race}")}},
		uuidRule("diagnosis.diagnosis_id"),
		{OutputField: "diagnosis.diagnosis", SourceField: "diagnosis"},
		{OutputField: "diagnosis.anatomic_site", SourceField: "site", DefaultValue: "Not Reported",
			ReplacementValues: []ir.ReplacementValue{rv("+", "{find_enum_value}")}},
		uuidRule("reference_file.reference_file_id"),
		{OutputField: "reference_file.file_name", SourceField: ir.LiteralSource, TypeGroupIndex: 1, DefaultValue: "subjects.csv"},
		{OutputField: "reference_file.file_type", SourceField: ir.LiteralSource, TypeGroupIndex: 1, DefaultValue: "csv"},
		{OutputField: "reference_file.file_category", SourceField: ir.LiteralSource, TypeGroupIndex: 1, DefaultValue: ir.CategoryInput},
		{OutputField: "reference_file.file_size", SourceField: ir.LiteralSource, TypeGroupIndex: 1, DefaultValue: 120},
		{OutputField: "reference_file.md5sum", SourceField: ir.LiteralSource, TypeGroupIndex: 1, DefaultValue: "d41d8cd98f00b204e9800998ecf8427e"},
	}
}

func studyRecords() []*ir.SourceRecord {
	mk := func(row int, fields map[string]any) *ir.SourceRecord {
		rec := ir.NewSourceRecord(ir.Origin{File: "subjects.csv", Row: row})
		for _, k := range []string{"participant_id", "race", "ethnicity", "diagnosis", "site"} {
			if v, ok := fields[k]; ok {
				rec.Set(k, v)
			}
		}
		return rec
	}
	return []*ir.SourceRecord{
		mk(2, map[string]any{
			"participant_id": "participant 1",
			"race":           []any{"American Indian or Alaska Native"},
			"ethnicity":      []any{"Hispanic or Latino"},
			"diagnosis":      "Wilms Tumor",
			"site":           "C649",
		}),
		mk(3, map[string]any{
			"participant_id": "participant 1",
			"race":           []any{"American Indian or Alaska Native"},
			"ethnicity":      []any{"Hispanic or Latino"},
			"diagnosis":      "Clear Cell Sarcoma",
			"site":           "C64.9",
		}),
		mk(4, map[string]any{
			"participant_id": "participant 2",
			"race":           "white",
		}),
	}
}

func runStudy(t *testing.T, seed *string) *Result {
	t.Helper()
	s := loadSchema(t)
	cfg := testConfig(compileRules(t, s, studyMappings()...), seed)
	h := NewHarmonizer(s, Options{Logger: zerolog.Nop()})

	res, err := h.Run(context.Background(), cfg, NewSliceIterator(studyRecords()...))
	require.NoError(t, err)
	require.NoError(t, h.Validate(cfg.Name, res.Dataset))
	return res
}

func TestHarmonizer_Run(t *testing.T) {
	res := runStudy(t, strPtr("phs000001"))
	ds := res.Dataset

	assert.Equal(t, 3, res.Records)
	assert.Equal(t, []string{"subjects.csv"}, res.Inputs)
	assert.Equal(t, map[string]int{
		"study":              1,
		"participant":        2,
		"diagnosis":          2,
		"survival":           0,
		"treatment":          0,
		"treatment_response": 0,
		"reference_file":     1,
	}, ds.Counts())

	p1 := ds.Records("participant")[0]
	race, _ := p1.Get("race")
	assert.Equal(t, []any{"American Indian or Alaska Native", "Hispanic or Latino"}, race)
	studyLink, _ := p1.Get("study.study_id")
	assert.Equal(t, "phs000001", studyLink)

	p2 := ds.Records("participant")[1]
	race, _ = p2.Get("race")
	assert.Equal(t, []any{"White"}, race)

	for _, d := range ds.Records("diagnosis") {
		link, _ := d.Get("participant.participant_id")
		assert.Equal(t, "participant 1", link)
		site, _ := d.Get("anatomic_site")
		assert.Equal(t, "C64.9 : Kidney, NOS", site)
	}

	ref := ds.Records("reference_file")[0]
	refLink, _ := ref.Get("study.study_id")
	assert.Equal(t, "phs000001", refLink)
	size, _ := ref.Get("file_size")
	assert.Equal(t, int64(120), size)
}

func TestHarmonizer_SeededRunsAreIdentical(t *testing.T) {
	first, err := ir.EncodeDataset(runStudy(t, strPtr("phs000001")).Dataset)
	require.NoError(t, err)
	second, err := ir.EncodeDataset(runStudy(t, strPtr("phs000001")).Dataset)
	require.NoError(t, err)

	if diff := cmp.Diff(string(first), string(second)); diff != "" {
		t.Errorf("seeded runs differ (-first +second):\n%s", diff)
	}

	other, err := ir.EncodeDataset(runStudy(t, strPtr("another seed")).Dataset)
	require.NoError(t, err)
	assert.NotEqual(t, string(first), string(other))
}

func TestHarmonizer_UnseededRunsDiverge(t *testing.T) {
	first, err := ir.DatasetHash(runStudy(t, nil).Dataset)
	require.NoError(t, err)
	second, err := ir.DatasetHash(runStudy(t, nil).Dataset)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestHarmonizer_ConflictingParticipantFailsValidation(t *testing.T) {
	s := loadSchema(t)
	cfg := testConfig(compileRules(t, s, studyMappings()...), strPtr("1"))
	h := NewHarmonizer(s, Options{Logger: zerolog.Nop()})

	recs := studyRecords()
	recs[1].Set("race", "Asian")
	res, err := h.Run(context.Background(), cfg, NewSliceIterator(recs...))
	require.NoError(t, err)
	assert.Equal(t, 3, res.Dataset.Count("participant"))

	err = h.Validate(cfg.Name, res.Dataset)
	require.Error(t, err)
	assert.True(t, schema.IsValidationFailure(err))
	assert.Contains(t, err.Error(), "duplicate")
}

func TestHarmonizer_Cancelled(t *testing.T) {
	s := loadSchema(t)
	cfg := testConfig(compileRules(t, s, studyMappings()...), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewHarmonizer(s, DefaultOptions()).Run(ctx, cfg, NewSliceIterator(studyRecords()...))
	assert.ErrorIs(t, err, context.Canceled)
}

type failingIterator struct{}

func (failingIterator) Next() (*ir.SourceRecord, error) {
	return nil, errors.New("disk on fire")
}

func TestHarmonizer_SourceReadError(t *testing.T) {
	s := loadSchema(t)
	cfg := testConfig(compileRules(t, s, studyMappings()...), nil)

	_, err := NewHarmonizer(s, DefaultOptions()).Run(context.Background(), cfg, failingIterator{})
	require.Error(t, err)
	assert.True(t, IsDataError(err))
	assert.Contains(t, err.Error(), "disk on fire")
}
