package cli

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/harmonizer/internal/config"
	"github.com/roach88/harmonizer/internal/ir"
	"github.com/roach88/harmonizer/internal/provenance"
	"github.com/roach88/harmonizer/internal/store"
)

// NewHarmonizeCommand creates the harmonize command.
func NewHarmonizeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "harmonize [config]",
		Short: "Harmonize every active study of a configuration",
		Long: `Harmonize every active study and transformation named in the local
configuration. Rules are fetched from each study's transformations URL, source
files are read, reference_file records describing the rules, schema, engine
and input files are injected, and the validated output is written to each
transformation's output path.

Examples:
  harmonizer harmonize
  harmonizer harmonize study.yaml --ledger runs.db
  harmonizer harmonize .env --format json`,
		Args:          usageArgs(cobra.MaximumNArgs(1)),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHarmonize(cmd, rootOpts, configArg(args))
		},
	}
}

// TransformationSummary describes one delivered transformation.
type TransformationSummary struct {
	Study          string         `json:"study"`
	Transformation string         `json:"transformation"`
	Records        int            `json:"records"`
	Counts         map[string]int `json:"counts"`
	OutputPath     string         `json:"output_path"`
	OutputHash     string         `json:"output_hash"`
	RulesCopy      string         `json:"rules_copy,omitempty"`
	RunID          string         `json:"run_id,omitempty"`
	DriftedFrom    []string       `json:"drifted_from,omitempty"`
}

// HarmonizeReport is the success payload of harmonize.
type HarmonizeReport struct {
	Transformations []TransformationSummary `json:"transformations"`
}

func (r *HarmonizeReport) String() string {
	var b strings.Builder
	for _, s := range r.Transformations {
		fmt.Fprintf(&b, "✓ %s/%s: %d records -> %s\n", s.Study, s.Transformation, s.Records, s.OutputPath)
		if s.RulesCopy != "" {
			fmt.Fprintf(&b, "  rules copy: %s\n", s.RulesCopy)
		}
		if len(s.Counts) > 0 {
			nodes := make([]string, 0, len(s.Counts))
			for n := range s.Counts {
				nodes = append(nodes, n)
			}
			slices.Sort(nodes)
			parts := make([]string, 0, len(nodes))
			for _, n := range nodes {
				parts = append(parts, fmt.Sprintf("%s=%d", n, s.Counts[n]))
			}
			fmt.Fprintf(&b, "  %s\n", strings.Join(parts, " "))
		}
		for _, id := range s.DriftedFrom {
			fmt.Fprintf(&b, "  ! output differs from seeded run %s\n", id)
		}
	}
	if len(r.Transformations) == 0 {
		b.WriteString("No active transformations\n")
	}
	return b.String()
}

func runHarmonize(cmd *cobra.Command, opts *RootOptions, path string) error {
	formatter := newFormatter(cmd, opts)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := loadApp(ctx, opts, path, cmd.ErrOrStderr(), config.NewLocationFetcher())
	if err != nil {
		return fail(formatter, err)
	}
	defer a.Close()

	report, err := harmonize(ctx, a, opts)
	if err != nil {
		a.log.Error().Err(err).Msg("harmonization failed")
		return fail(formatter, err)
	}
	return formatter.Success(report)
}

// harmonize runs every active transformation in configuration order. The
// first error stops the run; outputs already written stay on disk.
func harmonize(ctx context.Context, a *app, opts *RootOptions) (*HarmonizeReport, error) {
	engineArt, err := provenance.EngineArtifact(a.engineLocation(opts))
	if err != nil {
		return nil, &config.ConfigError{Field: config.KeyEngineScriptURL, Message: "cannot describe engine", Err: err}
	}
	artifacts := []provenance.Artifact{
		engineArt,
		provenance.SchemaArtifact(a.settings.SchemaURL, a.schemaData),
	}
	pipeline := provenance.NewPipeline(a.resolver, a.harmonizer, artifacts, a.log)

	var ledger *store.Ledger
	if path := a.ledgerPath(opts); path != "" {
		st, err := store.Open(path)
		if err != nil {
			return nil, &config.ConfigError{Field: config.KeyLedgerPath, Message: "cannot open run ledger", Err: err}
		}
		defer st.Close()
		ledger = store.NewLedger(st, a.log)
	}

	report := &HarmonizeReport{Transformations: []TransformationSummary{}}
	for _, study := range a.settings.Studies {
		if !study.IsActive() {
			a.log.Info().Str("study", study.Study).Msg("study inactive, skipped")
			continue
		}
		cfgs, err := a.resolver.Resolve(ctx, study)
		if err != nil {
			return nil, err
		}
		for _, cfg := range cfgs {
			out, err := pipeline.Run(ctx, study, cfg)
			if err != nil {
				return nil, err
			}
			summary := summarize(out)
			if ledger != nil {
				run, drifted, err := ledger.Record(ctx, ledgerRun(out))
				if err != nil {
					return nil, fmt.Errorf("record run: %w", err)
				}
				summary.RunID = run.ID
				for _, prev := range drifted {
					summary.DriftedFrom = append(summary.DriftedFrom, prev.ID)
				}
			}
			report.Transformations = append(report.Transformations, summary)
		}
	}
	return report, nil
}

func summarize(out *provenance.Outcome) TransformationSummary {
	return TransformationSummary{
		Study:          out.Config.Study,
		Transformation: out.Config.Name,
		Records:        out.Result.Records,
		Counts:         out.Result.Dataset.Counts(),
		OutputPath:     out.OutputPath,
		OutputHash:     out.OutputHash,
		RulesCopy:      out.RulesCopy,
	}
}

func ledgerRun(out *provenance.Outcome) store.Run {
	sums := make([]string, 0, len(out.Inputs))
	for _, in := range out.Inputs {
		sums = append(sums, in.MD5)
	}
	return store.Run{
		Study:          out.Config.Study,
		Transformation: out.Config.Name,
		Seed:           out.Config.UUIDSeed,
		RulesMD5:       out.RulesMD5,
		InputMD5:       store.CombineMD5(sums),
		OutputHash:     out.OutputHash,
		OutputPath:     out.OutputPath,
		Counts:         out.Result.Dataset.Counts(),
		EngineVersion:  ir.EngineVersion,
	}
}
