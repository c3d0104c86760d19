package engine

import (
	"github.com/rs/zerolog"

	"github.com/roach88/harmonizer/internal/ir"
)

// DefaultSentinel replaces blank or non-numeric arithmetic inputs.
const DefaultSentinel int64 = -999

// Options configures evaluation for every transformation of a run.
type Options struct {
	// Sentinel is the arithmetic placeholder for missing numbers.
	Sentinel int64

	// StrictNumeric turns a non-blank, non-numeric arithmetic input into a
	// DataError instead of the sentinel.
	StrictNumeric bool

	// Race combines race and ethnicity values. Nil means
	// CombinedRaceEthnicity with DefaultRaceConfig.
	Race RacePolicy

	Logger zerolog.Logger
}

// DefaultOptions returns options with the standard sentinel and race policy
// and a disabled logger.
func DefaultOptions() Options {
	return Options{
		Sentinel: DefaultSentinel,
		Race:     NewCombinedRaceEthnicity(DefaultRaceConfig()),
		Logger:   zerolog.Nop(),
	}
}

func (o Options) withDefaults() Options {
	if o.Sentinel == 0 {
		o.Sentinel = DefaultSentinel
	}
	if o.Race == nil {
		o.Race = NewCombinedRaceEthnicity(DefaultRaceConfig())
	}
	return o
}

// RunContext carries the per-transformation state of an evaluation. One
// RunContext exists per transformation; it is never shared between
// transformations.
type RunContext struct {
	Transformation string
	IDs            IDGenerator
	Sentinel       int64
	Strict         bool
	Race           RacePolicy
	Log            zerolog.Logger
}

// NewRunContext creates the context for cfg. The identifier generator is
// seeded from cfg.UUIDSeed when set.
func NewRunContext(cfg *ir.TransformationConfig, opts Options) *RunContext {
	return NewRunContextWithIDs(cfg, opts, NewIDGenerator(cfg.UUIDSeed))
}

// NewRunContextWithIDs creates a context with an explicit generator.
func NewRunContextWithIDs(cfg *ir.TransformationConfig, opts Options, ids IDGenerator) *RunContext {
	opts = opts.withDefaults()
	return &RunContext{
		Transformation: cfg.Name,
		IDs:            ids,
		Sentinel:       opts.Sentinel,
		Strict:         opts.StrictNumeric,
		Race:           opts.Race,
		Log:            opts.Logger.With().Str("transformation", cfg.Name).Logger(),
	}
}
