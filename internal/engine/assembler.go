package engine

import (
	"strings"

	"github.com/roach88/harmonizer/internal/ir"
	"github.com/roach88/harmonizer/internal/schema"
)

// NodeRecords holds the records assembled for one node.
type NodeRecords struct {
	Node    string
	Records []*ir.OutputRecord
}

// Assembler fans rules out into type groups and builds output records.
type Assembler struct {
	eval   *Evaluator
	schema *schema.Schema
	plan   *Plan
}

// NewAssembler creates an assembler for the compiled rules of one
// transformation.
func NewAssembler(eval *Evaluator, s *schema.Schema, rules []ir.Rule) *Assembler {
	return &Assembler{eval: eval, schema: s, plan: BuildPlan(rules, s.Nodes())}
}

// Plan returns the resolved type groups.
func (a *Assembler) Plan() *Plan {
	return a.plan
}

// Assemble builds the record-level nodes for rec in schema order.
// Transformation-level nodes are skipped; see AssembleStatic.
func (a *Assembler) Assemble(rec *ir.SourceRecord, rc *RunContext) ([]NodeRecords, error) {
	return a.assemble(rec, rc, func(node string) bool { return !ir.TransformationLevel(node) })
}

// AssembleStatic builds the transformation-level nodes (study,
// reference_file) once, against an empty record.
func (a *Assembler) AssembleStatic(rc *RunContext) ([]NodeRecords, error) {
	rec := ir.NewSourceRecord(ir.Origin{File: rc.Transformation})
	return a.assemble(rec, rc, ir.TransformationLevel)
}

func (a *Assembler) assemble(rec *ir.SourceRecord, rc *RunContext, include func(string) bool) ([]NodeRecords, error) {
	var out []NodeRecords
	for _, np := range a.plan.Nodes() {
		if !include(np.Node) {
			continue
		}
		nr := NodeRecords{Node: np.Node}
		for _, g := range np.Groups {
			r, err := a.assembleGroup(np.Node, g, rec, rc)
			if err != nil {
				return nil, err
			}
			if r != nil {
				nr.Records = append(nr.Records, r)
			}
		}
		if len(nr.Records) > 0 {
			out = append(out, nr)
		}
	}
	return out, nil
}

// assembleGroup evaluates one group. It returns nil when the group has no
// data for rec: every source-driven rule read blank input and no rule
// supplies a non-blank default, or a mapped required property stayed blank.
// Required properties the group does not map are left to the validator.
func (a *Assembler) assembleGroup(node string, g Group, rec *ir.SourceRecord, rc *RunContext) (*ir.OutputRecord, error) {
	sourceDriven, sourceSeen, hasDefault := false, false, false
	for _, r := range g.Rules {
		if !ir.IsBlank(r.Default) {
			hasDefault = true
		}
		if r.SourceDriven() {
			sourceDriven = true
			if !allBlank(RawValues(r, rec)) {
				sourceSeen = true
			}
		}
	}
	if sourceDriven && !sourceSeen && !hasDefault {
		return nil, nil
	}

	out := ir.NewOutputRecord(node)
	for _, r := range g.Rules {
		v, err := a.eval.Evaluate(r, rec, rc)
		if err != nil {
			return nil, err
		}
		out.Set(r.Property, v)
	}

	if n, ok := a.schema.Node(node); ok {
		for _, req := range n.Required {
			if strings.Contains(req, ".") {
				continue
			}
			if v, mapped := out.Get(req); mapped && ir.IsBlank(v) {
				rc.Log.Debug().
					Str("node", node).
					Int("group", g.Index).
					Str("property", req).
					Str("record", rec.Key()).
					Msg("record dropped, required property is blank")
				return nil, nil
			}
		}
	}
	return out, nil
}
