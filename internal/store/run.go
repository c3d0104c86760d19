package store

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
	"time"
)

// Run is one ledger row.
type Run struct {
	Seq            int64
	ID             string
	Study          string
	Transformation string

	// Seed is nil for runs with random identifiers.
	Seed *string

	RulesMD5      string
	InputMD5      string
	OutputHash    string
	OutputPath    string
	Counts        map[string]int
	EngineVersion string
	RecordedAt    time.Time
}

// Deterministic reports whether the run can be compared for drift.
func (r Run) Deterministic() bool {
	return r.Seed != nil
}

// CombineMD5 folds the MD5 sums of a run's input files, in discovery
// order, into one fingerprint.
func CombineMD5(sums []string) string {
	h := md5.New()
	h.Write([]byte(strings.Join(sums, "\n")))
	return hex.EncodeToString(h.Sum(nil))
}

// RunFilter narrows ListRuns. Zero fields match everything.
type RunFilter struct {
	Study          string
	Transformation string
	Limit          int
}
