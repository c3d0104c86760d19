package store

import (
	"path/filepath"
	"testing"
	"time"
)

// createTestStore creates a new store in a temp directory with a fixed
// clock.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	s.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestRun creates a seeded run with minimal required fields.
func createTestRun(transformation, outputHash string) Run {
	seed := "42"
	return Run{
		Study:          "phs000001",
		Transformation: transformation,
		Seed:           &seed,
		RulesMD5:       "rules-md5",
		InputMD5:       "input-md5",
		OutputHash:     outputHash,
		OutputPath:     "out/" + transformation + ".json",
		Counts:         map[string]int{"participant": 2, "study": 1},
	}
}
