package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/roach88/harmonizer/internal/ir"
)

// WriteRun appends run to the ledger and returns it with ID, Seq and
// RecordedAt filled in. An empty ID gets a random one; writing an existing
// ID is a no-op.
func (s *Store) WriteRun(ctx context.Context, run Run) (Run, error) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.EngineVersion == "" {
		run.EngineVersion = ir.EngineVersion
	}
	if run.RecordedAt.IsZero() {
		run.RecordedAt = s.now().UTC()
	}

	countsJSON, err := marshalCounts(run.Counts)
	if err != nil {
		return Run{}, fmt.Errorf("write run: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO runs
		(id, study, transformation, uuid_seed, rules_md5, input_md5, output_hash, output_path, counts, engine_version, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		run.ID,
		run.Study,
		run.Transformation,
		nullable(run.Seed),
		run.RulesMD5,
		run.InputMD5,
		run.OutputHash,
		run.OutputPath,
		countsJSON,
		run.EngineVersion,
		run.RecordedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return Run{}, fmt.Errorf("write run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return Run{}, fmt.Errorf("write run: %w", err)
	}
	if n == 0 {
		// already recorded
		err = s.db.QueryRowContext(ctx, "SELECT seq FROM runs WHERE id = ?", run.ID).Scan(&run.Seq)
	} else {
		run.Seq, err = res.LastInsertId()
	}
	if err != nil {
		return Run{}, fmt.Errorf("write run: %w", err)
	}
	return run, nil
}

func nullable(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
