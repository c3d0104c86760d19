package store

import (
	"context"

	"github.com/rs/zerolog"
)

// Ledger records runs and reports drift.
type Ledger struct {
	store *Store
	log   zerolog.Logger
}

// NewLedger wraps s.
func NewLedger(s *Store, log zerolog.Logger) *Ledger {
	return &Ledger{store: s, log: log}
}

// Record appends run and returns the earlier runs it drifted from. Drift
// is logged at warn level but never fails the run.
func (l *Ledger) Record(ctx context.Context, run Run) (Run, []Run, error) {
	written, err := l.store.WriteRun(ctx, run)
	if err != nil {
		return Run{}, nil, err
	}

	drifted, err := l.store.Drifted(ctx, written)
	if err != nil {
		return Run{}, nil, err
	}
	for _, prev := range drifted {
		l.log.Warn().
			Str("study", written.Study).
			Str("transformation", written.Transformation).
			Str("run_id", written.ID).
			Str("previous_run_id", prev.ID).
			Str("output_hash", written.OutputHash).
			Str("previous_output_hash", prev.OutputHash).
			Msg("seeded run produced a different output than an identical earlier run")
	}

	l.log.Debug().
		Str("run_id", written.ID).
		Int64("seq", written.Seq).
		Msg("run recorded")
	return written, drifted, nil
}

// History returns recorded runs matching f.
func (l *Ledger) History(ctx context.Context, f RunFilter) ([]Run, error) {
	return l.store.ListRuns(ctx, f)
}
