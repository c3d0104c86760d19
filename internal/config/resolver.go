package config

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/roach88/harmonizer/internal/compiler"
	"github.com/roach88/harmonizer/internal/ir"
)

// Resolver turns a StudyConfig into compiled TransformationConfigs.
type Resolver struct {
	fetch    Fetcher
	compiler *compiler.Compiler
	log      zerolog.Logger
}

// NewResolver creates a resolver.
func NewResolver(f Fetcher, c *compiler.Compiler, log zerolog.Logger) *Resolver {
	return &Resolver{fetch: f, compiler: c, log: log}
}

// Resolve fetches the study's rule document and merges it with the local
// transformations. An inactive study resolves to nothing and its rule
// document is never fetched.
func (r *Resolver) Resolve(ctx context.Context, study ir.StudyConfig) ([]*ir.TransformationConfig, error) {
	if !study.IsActive() {
		r.log.Info().Str("study", study.Study).Msg("study inactive, skipped")
		return nil, nil
	}

	data, err := r.fetch.Fetch(ctx, study.TransformationsURL)
	if err != nil {
		return nil, &ConfigError{
			Study:   study.Study,
			Field:   "transformations_url",
			Message: "failed to fetch rule document",
			Err:     err,
		}
	}
	doc, err := compiler.DecodeDocument(data, study.TransformationsURL)
	if err != nil {
		return nil, err
	}
	return r.ResolveDocument(study, doc, study.TransformationsURL)
}

// ResolveDocument merges an already decoded rule document with the local
// transformations of study. location is recorded as the rules location.
func (r *Resolver) ResolveDocument(study ir.StudyConfig, doc *ir.RuleDocument, location string) ([]*ir.TransformationConfig, error) {
	locals := make(map[string]bool, len(study.Transformations))
	for _, lt := range study.Transformations {
		locals[lt.Name] = true
	}
	for i := range doc.Transformations {
		rt := &doc.Transformations[i]
		if rt.IsActive() && !locals[rt.Name] {
			return nil, &ConfigError{
				Study:          study.Study,
				Transformation: rt.Name,
				Message:        "active rule document transformation has no local configuration",
			}
		}
	}

	var out []*ir.TransformationConfig
	for i := range study.Transformations {
		lt := &study.Transformations[i]
		if !lt.IsActive() {
			r.log.Info().Str("study", study.Study).Str("transformation", lt.Name).Msg("transformation inactive, skipped")
			continue
		}
		if err := validateLocal(study.Study, lt); err != nil {
			return nil, err
		}

		rt, ok := doc.Transformation(lt.Name)
		if !ok {
			return nil, &ConfigError{
				Study:          study.Study,
				Transformation: lt.Name,
				Message:        "no matching transformation in rule document " + location,
			}
		}
		if !rt.IsActive() {
			r.log.Info().Str("study", study.Study).Str("transformation", lt.Name).Msg("transformation inactive in rule document, skipped")
			continue
		}

		rules, err := r.compiler.CompileTransformation(rt)
		if err != nil {
			return nil, err
		}
		cfg := Merge(study.Study, lt, rt)
		cfg.Version = doc.Version
		cfg.RulesLocation = location
		cfg.Document = doc
		cfg.Rules = rules
		out = append(out, cfg)

		r.log.Debug().
			Str("study", study.Study).
			Str("transformation", lt.Name).
			Int("rules", len(rules)).
			Bool("seeded", cfg.Seeded()).
			Msg("transformation resolved")
	}
	return out, nil
}

// Merge overlays the local transformation on the remote one. Remote
// supplies the mappings; local supplies paths, sheet and seed. For any
// other key present in both, local wins.
func Merge(study string, local *ir.LocalTransformation, remote *ir.RemoteTransformation) *ir.TransformationConfig {
	settings := make(map[string]any, len(remote.Extra)+len(local.Extra))
	for k, v := range remote.Extra {
		settings[k] = v
	}
	for k, v := range local.Extra {
		settings[k] = v
	}

	cfg := &ir.TransformationConfig{
		Study:           study,
		Name:            local.Name,
		SourceFilePath:  strings.TrimSpace(local.SourceFilePath),
		SourceFileSheet: local.SourceFileSheet,
		OutputFilePath:  strings.TrimSpace(local.OutputFilePath),
		Settings:        settings,
	}
	if local.UUIDSeed != nil {
		seed := *local.UUIDSeed
		cfg.UUIDSeed = &seed
	}
	return cfg
}
