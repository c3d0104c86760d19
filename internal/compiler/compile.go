package compiler

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/roach88/harmonizer/internal/ir"
	"github.com/roach88/harmonizer/internal/schema"
)

// Compiler resolves mapping rules against the destination schema.
type Compiler struct {
	schema *schema.Schema
}

// New creates a compiler for the given schema.
func New(s *schema.Schema) *Compiler {
	return &Compiler{schema: s}
}

// CompileTransformation compiles every mapping of t in declaration order.
func (c *Compiler) CompileTransformation(t *ir.RemoteTransformation) ([]ir.Rule, error) {
	rules := make([]ir.Rule, 0, len(t.Mappings))
	for i, m := range t.Mappings {
		rule, err := c.CompileRule(t.Name, i, m)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

// CompileRule compiles one mapping. index is its declaration position.
func (c *Compiler) CompileRule(transformation string, index int, m ir.MappingRule) (ir.Rule, error) {
	fail := func(format string, args ...any) (ir.Rule, error) {
		return ir.Rule{}, ruleError(transformation, index, m.OutputField, format, args...)
	}

	node, property, ok := ir.SplitOutputField(m.OutputField)
	if !ok {
		return fail("output_field must have the form node.property")
	}
	prop, ok := c.schema.PropertyOf(node, property)
	if !ok {
		return fail("property not defined in schema")
	}

	source, err := parseSource(m.SourceField)
	if err != nil {
		return fail("%v", err)
	}
	group, err := ParseGroupIndex(m.TypeGroupIndex)
	if err != nil {
		return fail("%v", err)
	}

	rule := ir.Rule{
		OutputField: node + "." + property,
		Node:        node,
		Property:    property,
		Source:      source,
		Group:       group,
		Default:     ir.Normalize(m.DefaultValue),
		Position:    index,
	}

	for i, rv := range m.ReplacementValues {
		match, err := parseMatch(rv.OldValue, source)
		if err != nil {
			return fail("replacement %d: %v", i, err)
		}
		expr, err := ParseExpr(rv.NewValue)
		if err != nil {
			return fail("replacement %d: %v", i, err)
		}
		if macro, ok := expr.(ir.Macro); ok {
			if err := checkMacro(macro, source, prop); err != nil {
				return fail("replacement %d: %v", i, err)
			}
		}
		rule.Replacements = append(rule.Replacements, ir.Replacement{Old: match, New: expr})
	}
	return rule, nil
}

// parseSource accepts the literal marker, a bracketed field list such as
// "[race, ethnicity]", or a single field name.
func parseSource(text string) (ir.SourceSpec, error) {
	text = strings.TrimSpace(text)
	switch {
	case text == "":
		return ir.SourceSpec{}, fmt.Errorf("source_field is required")
	case strings.EqualFold(text, ir.LiteralSource):
		return ir.SourceSpec{Literal: true}, nil
	case strings.HasPrefix(text, "[") && strings.HasSuffix(text, "]"):
		var fields []string
		for _, f := range strings.Split(text[1:len(text)-1], ",") {
			if f = strings.TrimSpace(f); f != "" {
				fields = append(fields, f)
			}
		}
		if len(fields) == 0 {
			return ir.SourceSpec{}, fmt.Errorf("source_field %q names no fields", text)
		}
		return ir.SourceSpec{Fields: fields}, nil
	default:
		return ir.SourceSpec{Fields: []string{text}}, nil
	}
}

// ParseGroupIndex accepts null, "*", an integer, or a comma separated list
// of integers such as "1,3".
func ParseGroupIndex(v any) (ir.GroupIndex, error) {
	switch val := ir.Normalize(v).(type) {
	case nil:
		return ir.GroupIndex{Wildcard: true}, nil
	case int64:
		return ir.GroupIndex{Indexes: []int{int(val)}}, nil
	case float64:
		i, ok := ir.ParseInt(val)
		if !ok {
			return ir.GroupIndex{}, fmt.Errorf("type_group_index %v is not an integer", val)
		}
		return ir.GroupIndex{Indexes: []int{int(i)}}, nil
	case string:
		text := strings.TrimSpace(val)
		if text == "" || text == ir.WildcardGroup {
			return ir.GroupIndex{Wildcard: true}, nil
		}
		seen := make(map[int]bool)
		var indexes []int
		for _, part := range strings.Split(text, ",") {
			n, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil {
				return ir.GroupIndex{}, fmt.Errorf("type_group_index %q is not '*' or a list of integers", text)
			}
			if !seen[n] {
				seen[n] = true
				indexes = append(indexes, n)
			}
		}
		sort.Ints(indexes)
		return ir.GroupIndex{Indexes: indexes}, nil
	default:
		return ir.GroupIndex{}, fmt.Errorf("unsupported type_group_index %v", v)
	}
}

// parseMatch compiles an old_value. A whole-value wildcard applies to every
// field of the rule; otherwise multi-field rules need one ';' separated part
// per field.
func parseMatch(old any, source ir.SourceSpec) (ir.Match, error) {
	text := strings.TrimSpace(ir.Stringify(ir.Normalize(old)))
	if p, ok := wildcardPattern(text); ok {
		patterns := []ir.Pattern{p}
		for len(patterns) < len(source.Fields) {
			patterns = append(patterns, p)
		}
		return ir.Match{Patterns: patterns}, nil
	}
	if source.Literal && text != "" {
		return ir.Match{}, fmt.Errorf("literal source only accepts %q or %q old values, got %q",
			ir.WildcardAny, ir.WildcardNonBlank, text)
	}
	if len(source.Fields) <= 1 {
		return ir.Match{Patterns: []ir.Pattern{{Kind: ir.PatternExact, Text: ir.Fold(text)}}}, nil
	}

	parts := strings.Split(text, ir.ListDelimiter)
	if len(parts) != len(source.Fields) {
		return ir.Match{}, fmt.Errorf("old_value %q has %d part(s) but source_field names %d fields",
			text, len(parts), len(source.Fields))
	}
	patterns := make([]ir.Pattern, len(parts))
	for i, part := range parts {
		part = strings.TrimSpace(part)
		if p, ok := wildcardPattern(part); ok {
			patterns[i] = p
			continue
		}
		patterns[i] = ir.Pattern{Kind: ir.PatternExact, Text: ir.Fold(part)}
	}
	return ir.Match{Patterns: patterns}, nil
}

func wildcardPattern(text string) (ir.Pattern, bool) {
	switch text {
	case ir.WildcardAny:
		return ir.Pattern{Kind: ir.PatternAny}, true
	case ir.WildcardNonBlank:
		return ir.Pattern{Kind: ir.PatternNonBlank}, true
	}
	return ir.Pattern{}, false
}

// ParseExpr compiles a new_value. Text wrapped in braces is a macro call;
// everything else is a literal.
func ParseExpr(v any) (ir.Expr, error) {
	v = ir.Normalize(v)
	text, ok := v.(string)
	if !ok {
		return ir.Literal{Value: v}, nil
	}
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "{") || !strings.HasSuffix(trimmed, "}") {
		return ir.Literal{Value: text}, nil
	}

	body := strings.TrimSpace(trimmed[1 : len(trimmed)-1])
	name, arg, hasArg := strings.Cut(body, ":")
	name = strings.TrimSpace(name)
	arg = strings.TrimSpace(arg)

	kind := ir.MacroKind(name)
	switch kind {
	case ir.MacroField:
		if arg == "" {
			return nil, fmt.Errorf("macro %q requires a field name, e.g. {field:race}", trimmed)
		}
		return ir.Macro{Kind: kind, Field: arg}, nil
	case ir.MacroUUID, ir.MacroSum, ir.MacroSumAbsFirst, ir.MacroEnumLookup, ir.MacroRace, ir.MacroLaterality:
		if hasArg {
			return nil, fmt.Errorf("macro %q takes no argument", trimmed)
		}
		return ir.Macro{Kind: kind}, nil
	default:
		return nil, fmt.Errorf("unknown macro %q", trimmed)
	}
}

func checkMacro(m ir.Macro, source ir.SourceSpec, prop *schema.Property) error {
	switch m.Kind {
	case ir.MacroSum, ir.MacroSumAbsFirst:
		if source.Literal || len(source.Fields) < 2 {
			return fmt.Errorf("macro {%s} needs at least two source fields, got %d", m.Kind, len(source.Fields))
		}
	case ir.MacroLaterality:
		if source.Literal {
			return fmt.Errorf("macro {%s} needs source fields, not a literal source", m.Kind)
		}
	case ir.MacroEnumLookup:
		if !prop.HasEnum() {
			return fmt.Errorf("macro {%s} applied to %s, which has no permissible values", m.Kind, prop.OutputField())
		}
		if source.Literal || len(source.Fields) != 1 {
			return fmt.Errorf("macro {%s} needs exactly one source field, got %d", m.Kind, len(source.Fields))
		}
	case ir.MacroRace:
		if source.Literal || len(source.Fields) == 0 || len(source.Fields) > 2 {
			return fmt.Errorf("macro {%s} needs [race] or [race, ethnicity] source fields, got %d", m.Kind, len(source.Fields))
		}
	}
	return nil
}
