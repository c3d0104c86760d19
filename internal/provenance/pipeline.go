package provenance

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/roach88/harmonizer/internal/config"
	"github.com/roach88/harmonizer/internal/engine"
	"github.com/roach88/harmonizer/internal/ir"
	"github.com/roach88/harmonizer/internal/source"
)

// Opener opens the records of a transformation's source.
type Opener func(path, sheet string) (source.Source, error)

// Pipeline harmonizes transformations for delivery, making sure each
// output carries reference_file records for the files that produced it.
//
// When the rule document lacks some of those groups, or its mapping group
// still holds placeholders, the run has two stages. Stage 1 harmonizes
// and discards the result, then writes an augmented copy of the rule
// document with its own size and MD5 sealed in. Stage 2 resolves the
// transformation again from that copy and harmonizes for delivery. The
// configuration passed to Run is never modified.
type Pipeline struct {
	resolver   *config.Resolver
	harmonizer *engine.Harmonizer
	injector   *Injector
	open       Opener
	artifacts  []Artifact
	log        zerolog.Logger

	// copies holds the last document written to each copy path, so
	// several transformations of one study accumulate in one file.
	copies map[string]*ir.RuleDocument
}

// NewPipeline creates a pipeline. artifacts are the fixed reference files
// (engine and schema) every output should describe.
func NewPipeline(r *config.Resolver, h *engine.Harmonizer, artifacts []Artifact, log zerolog.Logger) *Pipeline {
	return &Pipeline{
		resolver:   r,
		harmonizer: h,
		injector:   NewInjector(log),
		open:       source.Open,
		artifacts:  artifacts,
		log:        log,
		copies:     make(map[string]*ir.RuleDocument),
	}
}

// WithOpener replaces the source opener.
func (p *Pipeline) WithOpener(o Opener) *Pipeline {
	p.open = o
	return p
}

// Outcome is the result of one delivered transformation.
type Outcome struct {
	// Config is the configuration stage 2 ran with; it equals the input
	// configuration when no copy was needed.
	Config *ir.TransformationConfig
	Result *engine.Result

	// RulesCopy is the path of the written rule document copy, if any.
	RulesCopy string

	Inputs     []Artifact
	RulesMD5   string
	OutputPath string
	OutputHash string
}

// Run harmonizes cfg, validates the result and writes it to the
// configured output path.
func (p *Pipeline) Run(ctx context.Context, study ir.StudyConfig, cfg *ir.TransformationConfig) (*Outcome, error) {
	log := p.log.With().Str("study", study.Study).Str("transformation", cfg.Name).Logger()

	inputs, err := p.discover(cfg)
	if err != nil {
		return nil, err
	}
	refPath, err := RefFilesPath(cfg.RulesLocation, filepath.Dir(cfg.OutputFilePath))
	if err != nil {
		return nil, err
	}

	doc := cfg.Document
	if prev, ok := p.copies[refPath]; ok {
		doc = prev
	}
	fixed := append(append([]Artifact(nil), p.artifacts...), rulesArtifact(refPath))
	plan, err := p.injector.Plan(doc, cfg.Name, fixed, inputs)
	if err != nil {
		return nil, err
	}

	out := &Outcome{Config: cfg, Inputs: inputs, OutputPath: cfg.OutputFilePath}
	if plan.Pending() {
		log.Info().Int("groups_added", plan.Added).Msg("stage 1: harmonizing to plan reference files")
		if _, err := p.harmonize(ctx, cfg); err != nil {
			return nil, err
		}

		if plan.MappingGroup >= 0 {
			setName(plan.target(), plan.MappingGroup, filepath.Base(refPath))
		}
		if _, err := sealRules(plan.Document, refPath); err != nil {
			return nil, err
		}
		p.copies[refPath] = plan.Document
		log.Info().Str("rules_copy", refPath).Msg("rule document copy written")

		final, err := p.reresolve(study, plan.Document, refPath, cfg.Name)
		if err != nil {
			return nil, err
		}
		out.Config = final
		out.RulesCopy = refPath
		log.Info().Msg("stage 2: harmonizing for delivery")
	}

	res, err := p.harmonize(ctx, out.Config)
	if err != nil {
		return nil, err
	}
	if err := p.harmonizer.Validate(cfg.Name, res.Dataset); err != nil {
		return nil, err
	}
	out.Result = res

	if out.RulesMD5, err = documentMD5(out.Config.Document); err != nil {
		return nil, err
	}
	if out.OutputHash, err = ir.DatasetHash(res.Dataset); err != nil {
		return nil, err
	}
	if err := WriteDataset(cfg.OutputFilePath, res.Dataset); err != nil {
		return nil, err
	}
	log.Info().
		Str("output", cfg.OutputFilePath).
		Interface("counts", res.Dataset.Counts()).
		Msg("harmonized output written")
	return out, nil
}

// discover lists the input files of cfg's source as artifacts.
func (p *Pipeline) discover(cfg *ir.TransformationConfig) ([]Artifact, error) {
	src, err := p.open(cfg.SourceFilePath, cfg.SourceFileSheet)
	if err != nil {
		return nil, &engine.DataError{
			Code:           engine.ErrCodeSourceRead,
			Message:        "failed to open source",
			Transformation: cfg.Name,
			Err:            err,
		}
	}
	defer src.Close()

	var out []Artifact
	for _, f := range src.Files() {
		a, err := FileArtifact(ir.CategoryInput, f, InputDescription(f))
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

func (p *Pipeline) harmonize(ctx context.Context, cfg *ir.TransformationConfig) (*engine.Result, error) {
	src, err := p.open(cfg.SourceFilePath, cfg.SourceFileSheet)
	if err != nil {
		return nil, &engine.DataError{
			Code:           engine.ErrCodeSourceRead,
			Message:        "failed to open source",
			Transformation: cfg.Name,
			Err:            err,
		}
	}
	defer src.Close()
	return p.harmonizer.Run(ctx, cfg, src)
}

func (p *Pipeline) reresolve(study ir.StudyConfig, doc *ir.RuleDocument, location, name string) (*ir.TransformationConfig, error) {
	cfgs, err := p.resolver.ResolveDocument(study, doc, location)
	if err != nil {
		return nil, err
	}
	for _, c := range cfgs {
		if c.Name == name {
			return c, nil
		}
	}
	return nil, &config.ConfigError{
		Study:          study.Study,
		Transformation: name,
		Message:        "transformation missing from rule document copy " + location,
	}
}

// setName points group idx at file name.
func setName(t *ir.RemoteTransformation, idx int, name string) {
	if m, ok := groupRules(t, idx)[ir.PropFileName]; ok {
		setLiteral(m, name)
	}
}

// documentMD5 fingerprints the rules a run used.
func documentMD5(doc *ir.RuleDocument) (string, error) {
	if doc == nil {
		return "", nil
	}
	data, err := ir.EncodeRuleDocument(doc)
	if err != nil {
		return "", fmt.Errorf("fingerprint rules: %w", err)
	}
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:]), nil
}
