package cli

import (
	"context"
	"io"

	"github.com/rs/zerolog"

	"github.com/roach88/harmonizer/internal/compiler"
	"github.com/roach88/harmonizer/internal/config"
	"github.com/roach88/harmonizer/internal/engine"
	"github.com/roach88/harmonizer/internal/schema"
)

// app is everything a run needs that is derived from the local
// configuration: settings, the fetched output schema and the wired
// resolver and harmonizer.
type app struct {
	settings   *config.Settings
	schemaData []byte
	schema     *schema.Schema
	fetcher    config.Fetcher
	resolver   *config.Resolver
	harmonizer *engine.Harmonizer
	log        zerolog.Logger
	logCloser  io.Closer
}

// loadApp reads and validates the configuration at path, opens the log
// artifact and fetches the output schema.
func loadApp(ctx context.Context, opts *RootOptions, path string, console io.Writer, fetcher config.Fetcher) (*app, error) {
	settings, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	logFile := settings.LogFile
	if opts.LogFile != "" {
		logFile = opts.LogFile
	}
	log, closer, err := newLogger(console, logFile, opts.Verbose)
	if err != nil {
		return nil, &config.ConfigError{Field: config.KeyLogFile, Message: "cannot open log file", Err: err}
	}

	a := &app{settings: settings, fetcher: fetcher, log: log, logCloser: closer}
	if err := a.init(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) init(ctx context.Context) error {
	if err := a.settings.Validate(); err != nil {
		return err
	}
	a.log.Debug().Str("config", a.settings.Path).Int("studies", len(a.settings.Studies)).Msg("configuration loaded")

	data, err := a.fetcher.Fetch(ctx, a.settings.SchemaURL)
	if err != nil {
		return &config.ConfigError{Field: config.KeySchemaURL, Message: "cannot fetch schema", Err: err}
	}
	s, err := schema.Load(data, a.settings.SchemaURL)
	if err != nil {
		return &config.ConfigError{Field: config.KeySchemaURL, Message: "invalid schema", Err: err}
	}
	a.schemaData = data
	a.schema = s
	a.log.Info().Str("schema", a.settings.SchemaURL).Int("nodes", len(s.Nodes())).Msg("schema loaded")

	a.resolver = config.NewResolver(a.fetcher, compiler.New(s), a.log)
	a.harmonizer = engine.NewHarmonizer(s, engine.Options{
		Sentinel:      a.settings.DefaultSentinel,
		StrictNumeric: a.settings.StrictNumeric,
		Logger:        a.log,
	})
	return nil
}

// engineLocation picks the engine file described in reference_file output.
func (a *app) engineLocation(opts *RootOptions) string {
	if opts.EngineFile != "" {
		return opts.EngineFile
	}
	return a.settings.EngineScriptURL
}

// ledgerPath is the run ledger to record into, or "" for none.
func (a *app) ledgerPath(opts *RootOptions) string {
	if opts.Ledger != "" {
		return opts.Ledger
	}
	return a.settings.LedgerPath
}

func (a *app) Close() {
	if a.logCloser != nil {
		_ = a.logCloser.Close()
	}
}
