package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/harmonizer/internal/config"
	"github.com/roach88/harmonizer/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Schema string
	Filter string
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenarios-dir>",
		Short: "Run rule scenarios against an output schema",
		Long: `Run every YAML scenario in a directory. A scenario names a rule document,
inline records or a source file, and assertions about the harmonized output.
Rule documents ending in .rules.yaml are skipped.

Examples:
  harmonizer test ./scenarios --schema schema.json
  harmonizer test ./scenarios --schema schema.json --filter participant`,
		Args:          usageArgs(cobra.ExactArgs(1)),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.Schema, "schema", "", "output schema file or URL (required)")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "only scenarios whose file name contains this text")

	return cmd
}

// ScenarioResult is the outcome of one scenario file.
type ScenarioResult struct {
	Name   string   `json:"name"`
	File   string   `json:"file"`
	Pass   bool     `json:"pass"`
	Errors []string `json:"errors,omitempty"`
}

// TestReport is the payload of test.
type TestReport struct {
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Scenarios []ScenarioResult `json:"scenarios"`
}

func (r *TestReport) String() string {
	var b strings.Builder
	for _, s := range r.Scenarios {
		if s.Pass {
			fmt.Fprintf(&b, "✓ %s\n", s.Name)
			continue
		}
		fmt.Fprintf(&b, "✗ %s\n", s.Name)
		for _, e := range s.Errors {
			fmt.Fprintf(&b, "    %s\n", e)
		}
	}
	fmt.Fprintf(&b, "\n%d passed, %d failed\n", r.Passed, r.Failed)
	return b.String()
}

func runTests(cmd *cobra.Command, opts *TestOptions, dir string) error {
	formatter := newFormatter(cmd, opts.RootOptions)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if opts.Schema == "" {
		_ = formatter.Error(ErrCodeGeneric, "--schema is required", nil)
		return reported(NewExitError(ExitCommandError, "--schema is required"))
	}
	files, err := findScenarioFiles(dir, opts.Filter)
	if err != nil {
		_ = formatter.Error(ErrCodeNotFound, "cannot read scenarios", err.Error())
		return reported(WrapExitError(ExitCommandError, "cannot read scenarios", err))
	}

	log, closer, err := newLogger(cmd.ErrOrStderr(), opts.LogFile, opts.Verbose)
	if err != nil {
		return fail(formatter, err)
	}
	defer closer.Close()

	data, err := config.NewLocationFetcher().Fetch(ctx, opts.Schema)
	if err != nil {
		return fail(formatter, &config.ConfigError{Field: "--schema", Message: "cannot fetch schema", Err: err})
	}
	h, err := harness.New(data, opts.Schema)
	if err != nil {
		return fail(formatter, &config.ConfigError{Field: "--schema", Message: "invalid schema", Err: err})
	}
	h = h.WithLogger(log)

	report := &TestReport{Scenarios: make([]ScenarioResult, 0, len(files))}
	for _, f := range files {
		res := runScenario(ctx, h, f)
		formatter.VerboseLog("%s: pass=%v", res.Name, res.Pass)
		if res.Pass {
			report.Passed++
		} else {
			report.Failed++
		}
		report.Scenarios = append(report.Scenarios, res)
	}

	if err := formatter.Success(report); err != nil {
		return err
	}
	if report.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", report.Failed))
	}
	return nil
}

func runScenario(ctx context.Context, h *harness.Harness, file string) ScenarioResult {
	res := ScenarioResult{Name: strings.TrimSuffix(filepath.Base(file), filepath.Ext(file)), File: file}
	scenario, err := harness.LoadScenario(file)
	if err != nil {
		res.Errors = []string{err.Error()}
		return res
	}
	res.Name = scenario.Name

	out, err := h.Run(ctx, scenario)
	if err != nil {
		res.Errors = []string{err.Error()}
		return res
	}
	res.Pass = out.Pass
	res.Errors = out.Errors
	return res
}

// findScenarioFiles lists scenario files in dir, sorted by name.
func findScenarioFiles(dir, filter string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasSuffix(name, ".rules.yaml") || strings.HasSuffix(name, ".rules.yml") {
			continue
		}
		if ext := filepath.Ext(name); ext != ".yaml" && ext != ".yml" {
			continue
		}
		if filter != "" && !strings.Contains(name, filter) {
			continue
		}
		files = append(files, filepath.Join(dir, name))
	}
	slices.Sort(files)
	return files, nil
}
