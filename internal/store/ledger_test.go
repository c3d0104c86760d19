package store

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
)

func TestWriteRun_FillsDefaults(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	run, err := s.WriteRun(ctx, createTestRun("phs000001", "hash-a"))
	if err != nil {
		t.Fatalf("WriteRun() failed: %v", err)
	}
	if run.ID == "" {
		t.Error("run id not assigned")
	}
	if run.Seq != 1 {
		t.Errorf("seq = %d, want 1", run.Seq)
	}
	if run.EngineVersion == "" {
		t.Error("engine version not assigned")
	}

	runs, err := s.ListRuns(ctx, RunFilter{})
	if err != nil {
		t.Fatalf("ListRuns() failed: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("len(runs) = %d, want 1", len(runs))
	}
	got := runs[0]
	if got.ID != run.ID {
		t.Errorf("id = %q, want %q", got.ID, run.ID)
	}
	if got.Seed == nil || *got.Seed != "42" {
		t.Errorf("seed = %v, want 42", got.Seed)
	}
	if got.Counts["participant"] != 2 || got.Counts["study"] != 1 {
		t.Errorf("counts = %v", got.Counts)
	}
	if !got.RecordedAt.Equal(s.now()) {
		t.Errorf("recorded_at = %v, want %v", got.RecordedAt, s.now())
	}
}

func TestWriteRun_DuplicateIDIsNoop(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	first, err := s.WriteRun(ctx, createTestRun("phs000001", "hash-a"))
	if err != nil {
		t.Fatalf("WriteRun() failed: %v", err)
	}
	again := createTestRun("phs000001", "hash-b")
	again.ID = first.ID
	second, err := s.WriteRun(ctx, again)
	if err != nil {
		t.Fatalf("second WriteRun() failed: %v", err)
	}
	if second.Seq != first.Seq {
		t.Errorf("seq = %d, want %d", second.Seq, first.Seq)
	}

	runs, _ := s.ListRuns(ctx, RunFilter{})
	if len(runs) != 1 || runs[0].OutputHash != "hash-a" {
		t.Errorf("runs = %+v, want the first run only", runs)
	}
}

func TestWriteRun_UnseededStoresNull(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	run := createTestRun("phs000001", "hash-a")
	run.Seed = nil
	if _, err := s.WriteRun(ctx, run); err != nil {
		t.Fatalf("WriteRun() failed: %v", err)
	}

	var nulls int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM runs WHERE uuid_seed IS NULL").Scan(&nulls); err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if nulls != 1 {
		t.Errorf("null seeds = %d, want 1", nulls)
	}
}

func TestListRuns_FilterAndLimit(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	for _, name := range []string{"a", "b", "a", "a"} {
		if _, err := s.WriteRun(ctx, createTestRun(name, "hash")); err != nil {
			t.Fatalf("WriteRun() failed: %v", err)
		}
	}

	runs, err := s.ListRuns(ctx, RunFilter{Transformation: "a", Limit: 2})
	if err != nil {
		t.Fatalf("ListRuns() failed: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("len(runs) = %d, want 2", len(runs))
	}
	if runs[0].Seq != 3 || runs[1].Seq != 4 {
		t.Errorf("seqs = %d,%d, want 3,4", runs[0].Seq, runs[1].Seq)
	}

	none, err := s.ListRuns(ctx, RunFilter{Study: "other"})
	if err != nil {
		t.Fatalf("ListRuns() failed: %v", err)
	}
	if none == nil || len(none) != 0 {
		t.Errorf("ListRuns() = %v, want empty slice", none)
	}
}

func TestLedger_ReportsDrift(t *testing.T) {
	s := createTestStore(t)
	l := NewLedger(s, zerolog.Nop())
	ctx := context.Background()

	if _, drifted, err := l.Record(ctx, createTestRun("phs000001", "hash-a")); err != nil || len(drifted) != 0 {
		t.Fatalf("first Record() = %v, %v", drifted, err)
	}
	if _, drifted, err := l.Record(ctx, createTestRun("phs000001", "hash-a")); err != nil || len(drifted) != 0 {
		t.Fatalf("identical Record() = %v, %v", drifted, err)
	}

	_, drifted, err := l.Record(ctx, createTestRun("phs000001", "hash-b"))
	if err != nil {
		t.Fatalf("Record() failed: %v", err)
	}
	if len(drifted) != 2 {
		t.Fatalf("len(drifted) = %d, want 2", len(drifted))
	}
	if drifted[0].OutputHash != "hash-a" {
		t.Errorf("drifted output hash = %q, want hash-a", drifted[0].OutputHash)
	}
}

func TestLedger_DifferentFingerprintNoDrift(t *testing.T) {
	s := createTestStore(t)
	l := NewLedger(s, zerolog.Nop())
	ctx := context.Background()

	if _, _, err := l.Record(ctx, createTestRun("phs000001", "hash-a")); err != nil {
		t.Fatalf("Record() failed: %v", err)
	}

	changed := createTestRun("phs000001", "hash-b")
	changed.RulesMD5 = "edited-rules"
	if _, drifted, err := l.Record(ctx, changed); err != nil || len(drifted) != 0 {
		t.Errorf("Record() with new rules = %v, %v; want no drift", drifted, err)
	}

	unseeded := createTestRun("phs000001", "hash-c")
	unseeded.Seed = nil
	if _, drifted, err := l.Record(ctx, unseeded); err != nil || len(drifted) != 0 {
		t.Errorf("Record() unseeded = %v, %v; want no drift", drifted, err)
	}
}

func TestCombineMD5_OrderSensitive(t *testing.T) {
	a := CombineMD5([]string{"x", "y"})
	b := CombineMD5([]string{"y", "x"})
	if a == b {
		t.Error("CombineMD5 should depend on order")
	}
	if a != CombineMD5([]string{"x", "y"}) {
		t.Error("CombineMD5 should be stable")
	}
}
