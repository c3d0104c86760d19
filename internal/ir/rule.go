package ir

import "strings"

// Markers recognised in rule text.
const (
	// LiteralSource marks a rule driven only by its replacement table.
	LiteralSource = "[string_literal]"

	// WildcardAny matches every value, including blank.
	WildcardAny = "*"

	// WildcardNonBlank matches every non-blank value.
	WildcardNonBlank = "+"

	// WildcardGroup applies a rule to every concrete type group of its node.
	WildcardGroup = "*"
)

// SourceSpec describes where a rule reads its raw value from.
type SourceSpec struct {
	Literal bool
	Fields  []string
}

// GroupIndex is the compiled type_group_index of a rule.
type GroupIndex struct {
	Wildcard bool
	Indexes  []int
}

// PatternKind classifies one position of an old_value.
type PatternKind int

const (
	PatternExact PatternKind = iota
	PatternAny
	PatternNonBlank
)

// Pattern matches one raw value (or one position of a multi-field value).
// Text holds the casefolded, trimmed comparison form for PatternExact.
type Pattern struct {
	Kind PatternKind
	Text string
}

// Match is a compiled old_value. A single pattern matches the whole raw
// value; several patterns match the fields of a multi-field rule by position.
type Match struct {
	Patterns []Pattern
}

// MatchesBlank reports whether the match can succeed on an all-blank value.
// A lone exact pattern never does; by position an empty part matches a
// blank field.
func (m Match) MatchesBlank() bool {
	for _, p := range m.Patterns {
		switch p.Kind {
		case PatternNonBlank:
			return false
		case PatternExact:
			if p.Text != "" || len(m.Patterns) == 1 {
				return false
			}
		}
	}
	return len(m.Patterns) > 0
}

// Expr is a compiled new_value: either a Literal or a Macro.
type Expr interface {
	isExpr()
}

// Literal is a new_value passed through unchanged.
type Literal struct {
	Value any
}

func (Literal) isExpr() {}

// MacroKind names a computed-value function.
type MacroKind string

const (
	MacroUUID        MacroKind = "uuid"
	MacroField       MacroKind = "field"
	MacroSum         MacroKind = "sum"
	MacroSumAbsFirst MacroKind = "sum_abs_first"
	MacroEnumLookup  MacroKind = "find_enum_value"
	MacroRace        MacroKind = "race"
	MacroLaterality  MacroKind = "laterality"
)

// Macro is a new_value computed at evaluation time.
type Macro struct {
	Kind MacroKind
	// Field is the argument of MacroField.
	Field string
}

func (Macro) isExpr() {}

// Replacement is one compiled replacement table entry.
type Replacement struct {
	Old Match
	New Expr
}

// Rule is a compiled MappingRule.
type Rule struct {
	OutputField  string
	Node         string
	Property     string
	Source       SourceSpec
	Group        GroupIndex
	Default      any
	Replacements []Replacement

	// Position is the declaration order within the transformation.
	Position int
}

// SourceDriven reports whether the rule reads source fields.
func (r *Rule) SourceDriven() bool {
	return !r.Source.Literal
}

// SplitOutputField splits "node.property" at the first dot.
func SplitOutputField(field string) (node, property string, ok bool) {
	node, property, ok = strings.Cut(strings.TrimSpace(field), ".")
	if !ok || node == "" || property == "" {
		return "", "", false
	}
	return node, property, true
}
