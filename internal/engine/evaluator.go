package engine

import (
	"fmt"
	"strings"

	"github.com/roach88/harmonizer/internal/ir"
	"github.com/roach88/harmonizer/internal/schema"
)

// Evaluator computes the value of one rule for one source record.
//
// Evaluator holds no mutable state. Everything that changes during a run
// lives in the RunContext.
type Evaluator struct {
	schema *schema.Schema
}

// NewEvaluator creates an evaluator for rules compiled against s.
func NewEvaluator(s *schema.Schema) *Evaluator {
	return &Evaluator{schema: s}
}

// Evaluate returns the harmonized value of rule for rec, converted to the
// destination property's type. A nil value means blank.
//
// Blank or unmatched source data never fails; it resolves to the rule
// default. The only errors are DataErrors raised under strict numeric mode.
func (e *Evaluator) Evaluate(rule *ir.Rule, rec *ir.SourceRecord, rc *RunContext) (any, error) {
	prop, ok := e.schema.PropertyOf(rule.Node, rule.Property)
	if !ok {
		return nil, &DataError{
			Code:           ErrCodeUnknownProperty,
			Message:        "property not defined in schema",
			Transformation: rc.Transformation,
			OutputField:    rule.OutputField,
			RecordKey:      rec.Key(),
		}
	}

	v, err := e.resolve(rule, prop, rec, rc)
	if err != nil {
		return nil, err
	}

	out, complete := prop.Convert(v)
	if !complete {
		rc.Log.Warn().
			Str("output_field", rule.OutputField).
			Str("record", rec.Key()).
			Str("value", ir.Stringify(v)).
			Msg("value is not permissible for property, dropped")
	}
	return out, nil
}

func (e *Evaluator) resolve(rule *ir.Rule, prop *schema.Property, rec *ir.SourceRecord, rc *RunContext) (any, error) {
	raw := RawValues(rule, rec)

	if len(rule.Replacements) == 0 {
		if rule.Source.Literal {
			return rule.Default, nil
		}
		if v := joinRaw(raw); !ir.IsBlank(v) {
			return v, nil
		}
		return rule.Default, nil
	}

	blank := allBlank(raw)
	folded := make([]string, len(raw))
	for i, v := range raw {
		folded[i] = ir.Fold(ir.Stringify(v))
	}

	for _, rep := range rule.Replacements {
		if !rule.Source.Literal {
			if blank && !rep.Old.MatchesBlank() {
				continue
			}
			if !matches(rep.Old, raw, folded) {
				continue
			}
		}
		v, ok, err := e.apply(rep.New, rule, prop, raw, rec, rc)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		return v, nil
	}

	if !blank && !rule.Source.Literal {
		rc.Log.Warn().
			Str("output_field", rule.OutputField).
			Str("record", rec.Key()).
			Str("value", ir.Stringify(joinRaw(raw))).
			Msg("no replacement matched, using default")
	}
	return rule.Default, nil
}

// RawValues returns the values rule reads from rec, one per source field.
// Missing fields are nil. Literal rules read nothing.
func RawValues(rule *ir.Rule, rec *ir.SourceRecord) []any {
	if rule.Source.Literal {
		return nil
	}
	vals := make([]any, len(rule.Source.Fields))
	for i, f := range rule.Source.Fields {
		vals[i], _ = rec.Get(f)
	}
	return vals
}

func allBlank(vals []any) bool {
	for _, v := range vals {
		if !ir.IsBlank(v) {
			return false
		}
	}
	return true
}

// joinRaw collapses the raw values of a rule into one value. A single field
// is returned as read; several fields are joined with ir.ListDelimiter.
func joinRaw(vals []any) any {
	switch len(vals) {
	case 0:
		return nil
	case 1:
		return vals[0]
	}
	parts := make([]string, 0, len(vals))
	for _, v := range vals {
		if s := strings.TrimSpace(ir.Stringify(v)); s != "" {
			parts = append(parts, s)
		}
	}
	if len(parts) == 0 {
		return nil
	}
	return strings.Join(parts, ir.ListDelimiter)
}

// matches reports whether m accepts the raw values. A lone wildcard
// applies to every field; otherwise patterns are matched by position. A
// single-field exact pattern never matches a blank value.
func matches(m ir.Match, raw []any, folded []string) bool {
	if len(m.Patterns) == 1 {
		p := m.Patterns[0]
		if p.Kind != ir.PatternExact {
			for i := range raw {
				if !matchPattern(p, raw[i], folded[i]) {
					return false
				}
			}
			return true
		}
		if len(raw) != 1 {
			return false
		}
		return folded[0] != "" && p.Text == folded[0]
	}
	if len(m.Patterns) != len(raw) {
		return false
	}
	for i, p := range m.Patterns {
		if !matchPattern(p, raw[i], folded[i]) {
			return false
		}
	}
	return true
}

func matchPattern(p ir.Pattern, raw any, folded string) bool {
	switch p.Kind {
	case ir.PatternAny:
		return true
	case ir.PatternNonBlank:
		return !ir.IsBlank(raw)
	default:
		return p.Text == folded
	}
}

// apply evaluates a replacement's new value. ok is false when the
// expression declines to produce a value and the walk should continue.
func (e *Evaluator) apply(expr ir.Expr, rule *ir.Rule, prop *schema.Property, raw []any, rec *ir.SourceRecord, rc *RunContext) (any, bool, error) {
	switch x := expr.(type) {
	case ir.Literal:
		return x.Value, true, nil
	case ir.Macro:
		fn, ok := macros[x.Kind]
		if !ok {
			break
		}
		return fn(macroCall{macro: x, rule: rule, prop: prop, raw: raw, rec: rec, rc: rc})
	}
	return nil, false, &DataError{
		Code:           ErrCodeUnsupportedExpr,
		Message:        fmt.Sprintf("unsupported expression %T", expr),
		Transformation: rc.Transformation,
		OutputField:    rule.OutputField,
		RecordKey:      rec.Key(),
	}
}
