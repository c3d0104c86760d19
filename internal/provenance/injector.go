package provenance

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/roach88/harmonizer/internal/ir"
)

// Injector plans the reference_file groups a transformation is missing.
type Injector struct {
	log zerolog.Logger
}

// NewInjector creates an injector.
func NewInjector(log zerolog.Logger) *Injector {
	return &Injector{log: log}
}

// Plan is the outcome of Injector.Plan.
type Plan struct {
	// Document is an augmented copy; the input document is never modified.
	Document       *ir.RuleDocument
	Transformation string

	// Added counts the groups appended.
	Added int

	// MappingGroup is the index of the "transformation/mapping" group, or -1.
	MappingGroup int
}

// target returns the planned transformation inside Document.
func (p *Plan) target() *ir.RemoteTransformation {
	t, _ := p.Document.Transformation(p.Transformation)
	return t
}

// Pending reports whether the rule document copy has to be written: groups
// were added, or the mapping group still holds its placeholders.
func (p *Plan) Pending() bool {
	if p.Added > 0 {
		return true
	}
	return p.MappingGroup >= 0 && hasPlaceholders(p.target(), p.MappingGroup)
}

// Plan appends reference_file groups to a copy of doc's transformation:
//   - one per fixed artifact whose file_category no existing group has
//   - one per distinct input file, unless an "input source data" group exists
//
// New groups take indexes after the largest one in use. The shared
// {uuid} id rule is added when missing.
func (in *Injector) Plan(doc *ir.RuleDocument, transformation string, fixed, inputs []Artifact) (*Plan, error) {
	out := doc.Clone()
	t, ok := out.Transformation(transformation)
	if !ok {
		return nil, fmt.Errorf("plan reference files: transformation %q not in rule document", transformation)
	}

	groups, next, hasID := scan(t)
	categories := make(map[string]int, len(groups))
	for _, g := range groups {
		if _, seen := categories[g.Category]; !seen {
			categories[g.Category] = g.Index
		}
	}

	plan := &Plan{Document: out, Transformation: transformation, MappingGroup: -1}
	add := func(a Artifact) {
		next++
		t.Mappings = append(t.Mappings, artifactRules(a, next)...)
		categories[a.Category] = next
		plan.Added++
		in.log.Debug().
			Str("transformation", transformation).
			Int("type_group_index", next).
			Str("file_category", a.Category).
			Str("file_name", a.Name).
			Msg("reference file group added")
	}

	for _, a := range fixed {
		if _, exists := categories[a.Category]; exists {
			continue
		}
		add(a)
	}

	if _, exists := categories[ir.CategoryInput]; !exists {
		seen := make(map[string]bool, len(inputs))
		for _, a := range inputs {
			if seen[a.Name] {
				continue
			}
			seen[a.Name] = true
			add(a)
		}
	} else if len(inputs) > 0 {
		in.log.Warn().
			Str("transformation", transformation).
			Msg("input source data reference files already mapped, discovered inputs not added")
	}

	if plan.Added > 0 && !hasID {
		t.Mappings = append(t.Mappings, idRule())
	}
	if idx, ok := categories[ir.CategoryMapping]; ok {
		plan.MappingGroup = idx
	}
	return plan, nil
}
