package config

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/harmonizer/internal/compiler"
	"github.com/roach88/harmonizer/internal/ir"
	"github.com/roach88/harmonizer/internal/schema"
	"github.com/roach88/harmonizer/internal/testutil"
)

const rulesJSON = `{
    "version": "1.0.2",
    "transformations": [
        {
            "name": "phs000001",
            "description": "remote description",
            "owner": "remote",
            "mappings": [
                {
                    "output_field": "participant.participant_id",
                    "source_field": "SUBJID",
                    "type_group_index": "*",
                    "default_value": null,
                    "replacement_values": []
                }
            ]
        },
        {
            "name": "retired",
            "active": false,
            "mappings": []
        }
    ]
}`

type countingFetcher struct {
	data  []byte
	err   error
	calls int
}

func (f *countingFetcher) Fetch(context.Context, string) ([]byte, error) {
	f.calls++
	return f.data, f.err
}

func newResolver(t *testing.T, f Fetcher) *Resolver {
	t.Helper()
	s, err := schema.Load(testutil.SchemaJSON, "test.schema.json")
	require.NoError(t, err)
	return NewResolver(f, compiler.New(s), zerolog.Nop())
}

func localStudy(locals ...ir.LocalTransformation) ir.StudyConfig {
	return ir.StudyConfig{Study: "phs000001", TransformationsURL: "rules.json", Transformations: locals}
}

func local(name string) ir.LocalTransformation {
	seed := "7"
	return ir.LocalTransformation{
		Name:           name,
		SourceFilePath: "in.csv",
		OutputFilePath: "out.json",
		UUIDSeed:       &seed,
		Extra:          map[string]any{"owner": "local"},
	}
}

func TestResolve_Merge(t *testing.T) {
	f := &countingFetcher{data: []byte(rulesJSON)}
	cfgs, err := newResolver(t, f).Resolve(context.Background(), localStudy(local("phs000001")))
	require.NoError(t, err)
	require.Len(t, cfgs, 1)

	cfg := cfgs[0]
	assert.Equal(t, "phs000001", cfg.Study)
	assert.Equal(t, "1.0.2", cfg.Version)
	assert.Equal(t, "in.csv", cfg.SourceFilePath)
	assert.Equal(t, "rules.json", cfg.RulesLocation)
	require.NotNil(t, cfg.UUIDSeed)
	assert.Equal(t, "7", *cfg.UUIDSeed)
	require.Len(t, cfg.Rules, 1)
	assert.Equal(t, "participant.participant_id", cfg.Rules[0].OutputField)
	assert.Equal(t, "local", cfg.Settings["owner"], "local wins on collision")
	assert.Equal(t, "remote description", cfg.Settings["description"])
}

func TestResolve_InactiveStudyNotFetched(t *testing.T) {
	f := &countingFetcher{data: []byte(rulesJSON)}
	study := localStudy(local("phs000001"))
	inactive := false
	study.Active = &inactive

	cfgs, err := newResolver(t, f).Resolve(context.Background(), study)
	require.NoError(t, err)
	assert.Empty(t, cfgs)
	assert.Zero(t, f.calls)
}

func TestResolve_InactiveLocalSkipped(t *testing.T) {
	lt := local("phs000001")
	inactive := false
	lt.Active = &inactive

	cfgs, err := newResolver(t, &countingFetcher{data: []byte(rulesJSON)}).Resolve(context.Background(), localStudy(lt))
	require.NoError(t, err)
	assert.Empty(t, cfgs)
}

func TestResolve_Errors(t *testing.T) {
	tests := []struct {
		name    string
		fetcher *countingFetcher
		study   ir.StudyConfig
		message string
	}{
		{
			name:    "local without remote",
			fetcher: &countingFetcher{data: []byte(rulesJSON)},
			study:   localStudy(local("phs000001"), local("missing")),
			message: "no matching transformation",
		},
		{
			name:    "remote without local",
			fetcher: &countingFetcher{data: []byte(rulesJSON)},
			study:   localStudy(),
			message: "has no local configuration",
		},
		{
			name:    "fetch failure",
			fetcher: &countingFetcher{err: errors.New("connection refused")},
			study:   localStudy(local("phs000001")),
			message: "connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newResolver(t, tt.fetcher).Resolve(context.Background(), tt.study)
			require.Error(t, err)
			assert.True(t, IsConfigError(err))
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestResolve_RuleErrorsPassThrough(t *testing.T) {
	doc := `{"version": "1", "transformations": [{"name": "phs000001", "mappings": [
        {"output_field": "participant.nope", "source_field": "x", "replacement_values": []}]}]}`

	_, err := newResolver(t, &countingFetcher{data: []byte(doc)}).Resolve(context.Background(), localStudy(local("phs000001")))
	require.Error(t, err)
	assert.True(t, compiler.IsMappingRuleError(err))
	assert.False(t, IsConfigError(err))
}

func TestLocationFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rules.json" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(rulesJSON))
	}))
	defer srv.Close()

	f := NewLocationFetcher()
	data, err := f.Fetch(context.Background(), srv.URL+"/rules.json")
	require.NoError(t, err)
	assert.JSONEq(t, rulesJSON, string(data))

	_, err = f.Fetch(context.Background(), srv.URL+"/absent.json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")

	path := writeFile(t, t.TempDir(), "rules.json", rulesJSON)
	data, err = f.Fetch(context.Background(), "file://"+filepath.ToSlash(path))
	require.NoError(t, err)
	assert.JSONEq(t, rulesJSON, string(data))

	_, err = f.Fetch(context.Background(), "s3://bucket/rules.json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported")
}
