package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

const runColumns = `seq, id, study, transformation, uuid_seed, rules_md5, input_md5,
	output_hash, output_path, counts, engine_version, recorded_at`

// ListRuns returns ledger rows matching f, oldest first.
//
// Returns an empty slice (not nil) if nothing matches.
func (s *Store) ListRuns(ctx context.Context, f RunFilter) ([]Run, error) {
	var where []string
	var args []any
	if f.Study != "" {
		where = append(where, "study = ?")
		args = append(args, f.Study)
	}
	if f.Transformation != "" {
		where = append(where, "transformation = ?")
		args = append(args, f.Transformation)
	}

	query := "SELECT " + runColumns + " FROM runs"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	if f.Limit > 0 {
		// newest f.Limit rows, still returned oldest first
		query = "SELECT * FROM (" + query + " ORDER BY seq DESC LIMIT ?) ORDER BY seq ASC"
		args = append(args, f.Limit)
	} else {
		query += " ORDER BY seq ASC"
	}
	return s.queryRuns(ctx, query, args...)
}

// Drifted returns earlier deterministic runs with the same fingerprint as
// run (transformation, seed, rules MD5, input MD5) but a different output
// hash. Runs with random identifiers never drift.
func (s *Store) Drifted(ctx context.Context, run Run) ([]Run, error) {
	if !run.Deterministic() {
		return []Run{}, nil
	}
	return s.queryRuns(ctx, "SELECT "+runColumns+` FROM runs
		WHERE transformation = ? AND uuid_seed = ? AND rules_md5 = ? AND input_md5 = ?
		AND output_hash != ? AND id != ?
		ORDER BY seq ASC`,
		run.Transformation, *run.Seed, run.RulesMD5, run.InputMD5, run.OutputHash, run.ID)
}

func (s *Store) queryRuns(ctx context.Context, query string, args ...any) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

func scanRun(rows *sql.Rows) (Run, error) {
	var run Run
	var seed sql.NullString
	var counts, recorded string
	err := rows.Scan(
		&run.Seq,
		&run.ID,
		&run.Study,
		&run.Transformation,
		&seed,
		&run.RulesMD5,
		&run.InputMD5,
		&run.OutputHash,
		&run.OutputPath,
		&counts,
		&run.EngineVersion,
		&recorded,
	)
	if err != nil {
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	if seed.Valid {
		v := seed.String
		run.Seed = &v
	}
	if run.Counts, err = unmarshalCounts(counts); err != nil {
		return Run{}, err
	}
	if run.RecordedAt, err = time.Parse(time.RFC3339Nano, recorded); err != nil {
		return Run{}, fmt.Errorf("scan run %s: recorded_at: %w", run.ID, err)
	}
	return run, nil
}
