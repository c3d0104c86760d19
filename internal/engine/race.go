package engine

import (
	"sort"

	"github.com/roach88/harmonizer/internal/ir"
)

// RacePolicy combines the race and ethnicity values of one source record
// into the race list written to the output.
type RacePolicy interface {
	Combine(race, ethnicity []string) []string
}

// RaceConfig parameterizes CombinedRaceEthnicity.
type RaceConfig struct {
	// AllowedEthnicities are folded into the race list when present.
	AllowedEthnicities []string

	// UndeterminedRaces are dropped when an allowed ethnicity is present.
	UndeterminedRaces []string

	// Delimiter separates items packed into one source value.
	Delimiter string
}

// DefaultRaceConfig returns the combination used by the CCDI data model.
func DefaultRaceConfig() RaceConfig {
	return RaceConfig{
		AllowedEthnicities: []string{"Hispanic or Latino"},
		UndeterminedRaces:  []string{"Not Allowed to Collect", "Not Reported", "Unknown"},
		Delimiter:          ir.ListDelimiter,
	}
}

// CombinedRaceEthnicity folds an allowed ethnicity into the race list.
//
// When an allowed ethnicity is present it is added and only determinate
// races follow it; otherwise the race values pass through. The result is
// deduplicated ignoring case and sorted.
type CombinedRaceEthnicity struct {
	cfg          RaceConfig
	allowed      map[string]bool
	undetermined map[string]bool
}

// NewCombinedRaceEthnicity creates the policy for cfg.
func NewCombinedRaceEthnicity(cfg RaceConfig) *CombinedRaceEthnicity {
	if cfg.Delimiter == "" {
		cfg.Delimiter = ir.ListDelimiter
	}
	p := &CombinedRaceEthnicity{
		cfg:          cfg,
		allowed:      make(map[string]bool, len(cfg.AllowedEthnicities)),
		undetermined: make(map[string]bool, len(cfg.UndeterminedRaces)),
	}
	for _, e := range cfg.AllowedEthnicities {
		p.allowed[ir.Fold(e)] = true
	}
	for _, r := range cfg.UndeterminedRaces {
		p.undetermined[ir.Fold(r)] = true
	}
	return p
}

// Delimiter returns the item separator of packed source values.
func (p *CombinedRaceEthnicity) Delimiter() string {
	return p.cfg.Delimiter
}

// Combine implements RacePolicy.
func (p *CombinedRaceEthnicity) Combine(race, ethnicity []string) []string {
	var out []string
	seen := make(map[string]bool)
	add := func(v string) {
		if f := ir.Fold(v); f != "" && !seen[f] {
			seen[f] = true
			out = append(out, v)
		}
	}

	for _, e := range ethnicity {
		if p.allowed[ir.Fold(e)] {
			add(e)
		}
	}
	hasEthnicity := len(out) > 0
	for _, r := range race {
		if hasEthnicity && p.undetermined[ir.Fold(r)] {
			continue
		}
		add(r)
	}

	sort.Strings(out)
	return out
}
