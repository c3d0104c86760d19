package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/harmonizer/internal/config"
	"github.com/roach88/harmonizer/internal/provenance"
)

// RefreshOptions holds flags for the refresh-refs command.
type RefreshOptions struct {
	*RootOptions
	Schema string
}

// NewRefreshCommand creates the refresh-refs command.
func NewRefreshCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RefreshOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "refresh-refs <rules-file>",
		Short: "Recompute file sizes and MD5 sums in a rule document",
		Long: `Recompute the size and MD5 of every reference_file group in a rule
document. Groups are matched to --schema and --engine-file when given, else to
a file of the same name next to the rule document. The rule document's own
group is sealed last so its MD5 describes the rewritten file.

Examples:
  harmonizer refresh-refs out/rules_participants.json
  harmonizer refresh-refs rules.json --schema schema.json --engine-file bin/harmonizer`,
		Args:          usageArgs(cobra.ExactArgs(1)),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRefresh(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.Schema, "schema", "", "schema file or URL to describe")

	return cmd
}

// RefreshReport is the success payload of refresh-refs.
type RefreshReport struct {
	Rules      string   `json:"rules"`
	Updated    int      `json:"updated"`
	Sealed     int      `json:"sealed"`
	Unresolved []string `json:"unresolved,omitempty"`
}

func (r *RefreshReport) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "✓ %s: %d groups updated, %d sealed\n", r.Rules, r.Updated, r.Sealed)
	for _, name := range r.Unresolved {
		fmt.Fprintf(&b, "  ! no file found for %s\n", name)
	}
	return b.String()
}

func runRefresh(cmd *cobra.Command, opts *RefreshOptions, rulesPath string) error {
	formatter := newFormatter(cmd, opts.RootOptions)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	log, closer, err := newLogger(cmd.ErrOrStderr(), opts.LogFile, opts.Verbose)
	if err != nil {
		return fail(formatter, err)
	}
	defer closer.Close()

	var artifacts []provenance.Artifact
	if opts.Schema != "" {
		data, err := config.NewLocationFetcher().Fetch(ctx, opts.Schema)
		if err != nil {
			return fail(formatter, &config.ConfigError{Field: "--schema", Message: "cannot fetch schema", Err: err})
		}
		artifacts = append(artifacts, provenance.SchemaArtifact(opts.Schema, data))
	}
	if opts.EngineFile != "" {
		art, err := provenance.EngineArtifact(opts.EngineFile)
		if err != nil {
			return fail(formatter, &config.ConfigError{Field: "--engine-file", Message: "cannot describe engine", Err: err})
		}
		artifacts = append(artifacts, art)
	}

	res, err := provenance.NewRefresher(log).Refresh(rulesPath, artifacts)
	if err != nil {
		return fail(formatter, err)
	}
	return formatter.Success(&RefreshReport{
		Rules:      rulesPath,
		Updated:    res.Updated,
		Sealed:     res.Sealed,
		Unresolved: res.Unresolved,
	})
}
