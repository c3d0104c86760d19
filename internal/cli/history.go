package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/roach88/harmonizer/internal/config"
	"github.com/roach88/harmonizer/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Study          string
	Transformation string
	Limit          int
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history [config]",
		Short: "List runs recorded in the run ledger",
		Long: `List harmonization runs recorded in the run ledger, oldest first. The
ledger is --ledger, else LEDGER_PATH from the configuration.

Examples:
  harmonizer history --ledger runs.db
  harmonizer history --transformation participants --limit 5`,
		Args:          usageArgs(cobra.MaximumNArgs(1)),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(cmd, opts, configArg(args))
		},
	}

	cmd.Flags().StringVar(&opts.Study, "study", "", "only runs of this study")
	cmd.Flags().StringVar(&opts.Transformation, "transformation", "", "only runs of this transformation")
	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "newest runs to show (0 for all)")

	return cmd
}

// RunEntry is one ledger row in history output.
type RunEntry struct {
	Seq            int64          `json:"seq"`
	ID             string         `json:"id"`
	Study          string         `json:"study"`
	Transformation string         `json:"transformation"`
	Seed           *string        `json:"uuid_seed"`
	RulesMD5       string         `json:"rules_md5"`
	InputMD5       string         `json:"input_md5"`
	OutputHash     string         `json:"output_hash"`
	OutputPath     string         `json:"output_path"`
	Counts         map[string]int `json:"counts"`
	EngineVersion  string         `json:"engine_version"`
	RecordedAt     string         `json:"recorded_at"`
}

// HistoryReport is the success payload of history.
type HistoryReport struct {
	Ledger string     `json:"ledger"`
	Runs   []RunEntry `json:"runs"`
}

func (r *HistoryReport) String() string {
	var b strings.Builder
	if len(r.Runs) == 0 {
		fmt.Fprintf(&b, "No runs recorded in %s\n", r.Ledger)
		return b.String()
	}
	for _, run := range r.Runs {
		seed := "random"
		if run.Seed != nil {
			seed = "seed=" + *run.Seed
		}
		hash := run.OutputHash
		if len(hash) > 12 {
			hash = hash[:12]
		}
		fmt.Fprintf(&b, "%4d  %s  %s/%s  %s  %s  %s\n",
			run.Seq, run.RecordedAt, run.Study, run.Transformation, seed, hash, run.OutputPath)
	}
	return b.String()
}

func runHistory(cmd *cobra.Command, opts *HistoryOptions, configPath string) error {
	formatter := newFormatter(cmd, opts.RootOptions)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	path := opts.Ledger
	if path == "" {
		settings, err := config.Load(configPath)
		if err != nil {
			return fail(formatter, err)
		}
		path = settings.LedgerPath
	}
	if path == "" {
		_ = formatter.Error(ErrCodeLedger, "no run ledger configured", "pass --ledger or set "+config.KeyLedgerPath)
		return reported(NewExitError(ExitCommandError, "no run ledger configured"))
	}
	if _, err := os.Stat(path); err != nil {
		_ = formatter.Error(ErrCodeNotFound, "run ledger not found", path)
		return reported(WrapExitError(ExitCommandError, "run ledger not found", err))
	}

	st, err := store.Open(path)
	if err != nil {
		_ = formatter.Error(ErrCodeLedger, "cannot open run ledger", err.Error())
		return reported(WrapExitError(ExitFailure, "cannot open run ledger", err))
	}
	defer st.Close()

	runs, err := store.NewLedger(st, zerolog.Nop()).History(ctx, store.RunFilter{
		Study:          opts.Study,
		Transformation: opts.Transformation,
		Limit:          opts.Limit,
	})
	if err != nil {
		_ = formatter.Error(ErrCodeLedger, "cannot read run ledger", err.Error())
		return reported(WrapExitError(ExitFailure, "cannot read run ledger", err))
	}

	report := &HistoryReport{Ledger: path, Runs: make([]RunEntry, 0, len(runs))}
	for _, r := range runs {
		report.Runs = append(report.Runs, RunEntry{
			Seq:            r.Seq,
			ID:             r.ID,
			Study:          r.Study,
			Transformation: r.Transformation,
			Seed:           r.Seed,
			RulesMD5:       r.RulesMD5,
			InputMD5:       r.InputMD5,
			OutputHash:     r.OutputHash,
			OutputPath:     r.OutputPath,
			Counts:         r.Counts,
			EngineVersion:  r.EngineVersion,
			RecordedAt:     r.RecordedAt.UTC().Format(time.RFC3339),
		})
	}
	return formatter.Success(report)
}
