package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/harmonizer/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"

	// LogFile overrides LOG_FILE from the local configuration.
	LogFile string

	// Ledger overrides LEDGER_PATH. Empty means no run ledger.
	Ledger string

	// EngineFile is described in the engine reference_file group. Empty
	// means ENGINE_SCRIPT_URL, then the running executable.
	EngineFile string
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the harmonizer CLI. Run
// without a subcommand it harmonizes every active study of the named
// configuration file.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "harmonizer [config]",
		Short: "Harmonize clinical study data into the shared data model",
		Long: "Harmonize heterogeneous clinical-study source files into the shared\n" +
			"clinical-data model using declarative mapping rules.\n\n" +
			"The configuration file defaults to " + config.DefaultPath + ".",
		Args:          usageArgs(cobra.MaximumNArgs(1)),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHarmonize(cmd, opts, configArg(args))
		},
	}
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return WrapExitError(ExitCommandError, "invalid flags", err)
	})

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output (debug logging)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.LogFile, "log-file", "", "log artifact file (overrides LOG_FILE)")
	cmd.PersistentFlags().StringVar(&opts.Ledger, "ledger", "", "SQLite run ledger (overrides LEDGER_PATH)")
	cmd.PersistentFlags().StringVar(&opts.EngineFile, "engine-file", "", "engine file described in reference_file output")

	// Add subcommands
	cmd.AddCommand(NewHarmonizeCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewRefreshCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}

// usageArgs turns positional argument errors into command usage errors.
func usageArgs(check cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := check(cmd, args); err != nil {
			return WrapExitError(ExitCommandError, "invalid arguments", err)
		}
		return nil
	}
}

func configArg(args []string) string {
	if len(args) == 0 {
		return config.DefaultPath
	}
	return args[0]
}

func newFormatter(cmd *cobra.Command, opts *RootOptions) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}
