package engine

import (
	"math"
	"sort"

	"github.com/roach88/harmonizer/internal/ir"
	"github.com/roach88/harmonizer/internal/schema"
)

// macroCall bundles the inputs of one macro evaluation.
type macroCall struct {
	macro ir.Macro
	rule  *ir.Rule
	prop  *schema.Property
	raw   []any
	rec   *ir.SourceRecord
	rc    *RunContext
}

// macroFunc evaluates a macro. ok=false continues the replacement walk.
type macroFunc func(c macroCall) (v any, ok bool, err error)

var macros = map[ir.MacroKind]macroFunc{
	ir.MacroUUID:        uuidMacro,
	ir.MacroField:       fieldMacro,
	ir.MacroSum:         sumMacro(false),
	ir.MacroSumAbsFirst: sumMacro(true),
	ir.MacroEnumLookup:  enumLookupMacro,
	ir.MacroRace:        raceMacro,
	ir.MacroLaterality:  lateralityMacro,
}

func uuidMacro(c macroCall) (any, bool, error) {
	return c.rc.IDs.Generate(), true, nil
}

func fieldMacro(c macroCall) (any, bool, error) {
	v, _ := c.rec.Get(c.macro.Field)
	return v, true, nil
}

// sumMacro adds the source fields as numbers; the property conversion
// narrows the total to the destination type. Any missing addend makes the
// result the rule default, or the sentinel when there is none.
func sumMacro(absFirst bool) macroFunc {
	return func(c macroCall) (any, bool, error) {
		var total float64
		for i, v := range c.raw {
			n, ok := addend(v)
			if !ok {
				if c.rc.Strict && !ir.IsBlank(v) {
					return nil, false, NewNonNumericError(c.rc.Transformation, c.rule.OutputField, c.rec.Key(), v)
				}
				if !ir.IsBlank(c.rule.Default) {
					return c.rule.Default, true, nil
				}
				return c.rc.Sentinel, true, nil
			}
			if i == 0 && absFirst {
				n = math.Abs(n)
			}
			total += n
		}
		return total, true, nil
	}
}

// addend parses v as a finite number. Blank and non-numeric values
// report ok=false.
func addend(v any) (float64, bool) {
	if ir.IsBlank(v) {
		return 0, false
	}
	f, ok := ir.ParseNumber(v)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func enumLookupMacro(c macroCall) (any, bool, error) {
	if len(c.raw) == 0 {
		return nil, false, nil
	}
	match, ok := c.prop.LookupCode(ir.Stringify(c.raw[0]))
	if !ok {
		c.rc.Log.Debug().
			Str("output_field", c.rule.OutputField).
			Str("record", c.rec.Key()).
			Str("value", ir.Stringify(c.raw[0])).
			Msg("enum lookup found no permissible value")
		return nil, false, nil
	}
	return match, true, nil
}

// raceMacro combines [race] or [race, ethnicity] through the run's race
// policy. An empty combination resolves to the rule default.
func raceMacro(c macroCall) (any, bool, error) {
	delim := ir.ListDelimiter
	if d, ok := c.rc.Race.(interface{ Delimiter() string }); ok {
		delim = d.Delimiter()
	}

	var race, ethnicity []string
	if len(c.raw) > 0 {
		race = ir.SplitList(c.raw[0], delim)
	}
	if len(c.raw) > 1 {
		ethnicity = ir.SplitList(c.raw[1], delim)
	}

	combined := c.rc.Race.Combine(race, ethnicity)
	if len(combined) == 0 {
		return c.rule.Default, true, nil
	}

	items := make([]any, len(combined))
	for i, r := range combined {
		items[i] = r
	}
	conv, complete := c.prop.Convert(items)
	if !complete {
		c.rc.Log.Warn().
			Str("output_field", c.rule.OutputField).
			Str("record", c.rec.Key()).
			Strs("values", combined).
			Msg("race values outside the permissible list were dropped")
	}
	list, ok := conv.([]any)
	if !ok {
		return c.rule.Default, true, nil
	}
	sort.Slice(list, func(i, j int) bool {
		return ir.Stringify(list[i]) < ir.Stringify(list[j])
	})
	return list, true, nil
}

// lateralityMacro returns the first source field value that is a
// permissible value of the property, falling back to the rule default.
func lateralityMacro(c macroCall) (any, bool, error) {
	for i, v := range c.raw {
		if ir.IsBlank(v) {
			continue
		}
		if match, ok := c.prop.CaseMatch(ir.Stringify(v)); ok {
			return match, true, nil
		}
		c.rc.Log.Warn().
			Str("output_field", c.rule.OutputField).
			Str("source_field", c.rule.Source.Fields[i]).
			Str("record", c.rec.Key()).
			Str("value", ir.Stringify(v)).
			Msg("laterality value is not permissible")
	}
	return c.rule.Default, true, nil
}
