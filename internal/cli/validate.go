package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/harmonizer/internal/config"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [config]",
		Short: "Check configuration and mapping rules without reading source data",
		Long: `Load the local configuration, fetch the output schema and every active
study's rule document, and compile each transformation. No source file is read
and nothing is written.

Examples:
  harmonizer validate
  harmonizer validate study.yaml --format json`,
		Args:          usageArgs(cobra.MaximumNArgs(1)),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, rootOpts, configArg(args))
		},
	}
}

// RuleSummary describes one compiled transformation.
type RuleSummary struct {
	Study          string `json:"study"`
	Transformation string `json:"transformation"`
	Version        string `json:"version,omitempty"`
	Rules          int    `json:"rules"`
	RulesLocation  string `json:"rules_location"`
}

// ValidateReport is the success payload of validate.
type ValidateReport struct {
	Schema          string        `json:"schema"`
	Transformations []RuleSummary `json:"transformations"`
}

func (r *ValidateReport) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "✓ Configuration valid (schema %s)\n", r.Schema)
	for _, t := range r.Transformations {
		fmt.Fprintf(&b, "  %s/%s: %d rules from %s\n", t.Study, t.Transformation, t.Rules, t.RulesLocation)
	}
	return b.String()
}

func runValidate(cmd *cobra.Command, opts *RootOptions, path string) error {
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

	report := &ValidateReport{Schema: a.settings.SchemaURL, Transformations: []RuleSummary{}}
	for _, study := range a.settings.Studies {
		if !study.IsActive() {
			continue
		}
		cfgs, err := a.resolver.Resolve(ctx, study)
		if err != nil {
			return fail(formatter, err)
		}
		for _, cfg := range cfgs {
			formatter.VerboseLog("compiled %s/%s", cfg.Study, cfg.Name)
			report.Transformations = append(report.Transformations, RuleSummary{
				Study:          cfg.Study,
				Transformation: cfg.Name,
				Version:        cfg.Version,
				Rules:          len(cfg.Rules),
				RulesLocation:  cfg.RulesLocation,
			})
		}
	}
	return formatter.Success(report)
}
