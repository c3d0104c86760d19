package provenance

import (
	"sort"
	"strconv"

	"github.com/roach88/harmonizer/internal/compiler"
	"github.com/roach88/harmonizer/internal/ir"
)

// refField returns the output field of a reference_file property.
func refField(property string) string {
	return ir.NodeReferenceFile + "." + property
}

// literalValue returns the value a literal rule produces: its first
// replacement's new value, or its default.
func literalValue(m *ir.MappingRule) any {
	if len(m.ReplacementValues) > 0 {
		return m.ReplacementValues[0].NewValue
	}
	return m.DefaultValue
}

// setLiteral replaces the value a literal rule produces.
func setLiteral(m *ir.MappingRule, v any) {
	if len(m.ReplacementValues) == 0 {
		m.DefaultValue = v
		return
	}
	for i := range m.ReplacementValues {
		m.ReplacementValues[i].NewValue = v
	}
}

// groupIndexes returns the concrete type groups a wire rule belongs to.
// Wildcard or malformed indexes yield nil.
func groupIndexes(m *ir.MappingRule) []int {
	g, err := compiler.ParseGroupIndex(m.TypeGroupIndex)
	if err != nil || g.Wildcard {
		return nil
	}
	return g.Indexes
}

// refGroup summarizes one reference_file type group of a transformation.
type refGroup struct {
	Index    int
	Name     string
	Category string
}

// scan collects the reference_file groups of t in ascending index order,
// the largest index in use and whether the shared id rule exists.
func scan(t *ir.RemoteTransformation) (groups []refGroup, maxIndex int, hasID bool) {
	byIndex := make(map[int]*refGroup)
	var order []int
	for i := range t.Mappings {
		m := &t.Mappings[i]
		node, prop, ok := ir.SplitOutputField(m.OutputField)
		if !ok || node != ir.NodeReferenceFile {
			continue
		}
		if prop == ir.IDProperty(ir.NodeReferenceFile) {
			hasID = true
		}
		for _, idx := range groupIndexes(m) {
			if idx > maxIndex {
				maxIndex = idx
			}
			g, ok := byIndex[idx]
			if !ok {
				g = &refGroup{Index: idx}
				byIndex[idx] = g
				order = append(order, idx)
			}
			switch prop {
			case ir.PropFileName:
				g.Name = ir.Stringify(literalValue(m))
			case ir.PropFileCategory:
				g.Category = ir.Stringify(literalValue(m))
			}
		}
	}
	sort.Ints(order)
	for _, idx := range order {
		groups = append(groups, *byIndex[idx])
	}
	return groups, maxIndex, hasID
}

// groupRules returns the rules of t belonging to group idx, keyed by
// reference_file property.
func groupRules(t *ir.RemoteTransformation, idx int) map[string]*ir.MappingRule {
	out := make(map[string]*ir.MappingRule)
	for i := range t.Mappings {
		m := &t.Mappings[i]
		node, prop, ok := ir.SplitOutputField(m.OutputField)
		if !ok || node != ir.NodeReferenceFile {
			continue
		}
		for _, gi := range groupIndexes(m) {
			if gi == idx {
				out[prop] = m
			}
		}
	}
	return out
}

// literalRule builds a "[string_literal]" rule producing v in group idx.
func literalRule(property string, idx int, v any) ir.MappingRule {
	return ir.MappingRule{
		OutputField:    refField(property),
		SourceField:    ir.LiteralSource,
		TypeGroupIndex: strconv.Itoa(idx),
		ReplacementValues: []ir.ReplacementValue{
			{OldValue: ir.WildcardAny, NewValue: v},
		},
	}
}

// artifactRules builds the rules of one reference_file group.
func artifactRules(a Artifact, idx int) []ir.MappingRule {
	rules := []ir.MappingRule{
		literalRule(ir.PropFileName, idx, a.Name),
		literalRule(ir.PropFileType, idx, a.Type),
		literalRule(ir.PropFileCategory, idx, a.Category),
		literalRule(ir.PropFileSize, idx, a.Size),
		literalRule(ir.PropMD5Sum, idx, a.MD5),
		literalRule(ir.PropFileDescription, idx, a.Description),
	}
	if a.URL != "" {
		rules = append(rules, literalRule(ir.PropReferenceURL, idx, a.URL))
	}
	return rules
}

// idRule is the wildcard rule that gives every reference_file group its
// own identifier.
func idRule() ir.MappingRule {
	return ir.MappingRule{
		OutputField:    refField(ir.IDProperty(ir.NodeReferenceFile)),
		SourceField:    ir.LiteralSource,
		TypeGroupIndex: ir.WildcardGroup,
		ReplacementValues: []ir.ReplacementValue{
			{OldValue: ir.WildcardAny, NewValue: "{" + string(ir.MacroUUID) + "}"},
		},
	}
}

// setFacts writes size and MD5 into group idx. It reports false when the
// group lacks either rule.
func setFacts(t *ir.RemoteTransformation, idx int, size int64, sum string) bool {
	rules := groupRules(t, idx)
	sizeRule, ok1 := rules[ir.PropFileSize]
	md5Rule, ok2 := rules[ir.PropMD5Sum]
	if !ok1 || !ok2 {
		return false
	}
	setLiteral(sizeRule, size)
	setLiteral(md5Rule, sum)
	return true
}

// hasPlaceholders reports whether group idx still holds the 0 and ""
// self-referential placeholders.
func hasPlaceholders(t *ir.RemoteTransformation, idx int) bool {
	rules := groupRules(t, idx)
	sizeRule, ok1 := rules[ir.PropFileSize]
	md5Rule, ok2 := rules[ir.PropMD5Sum]
	if !ok1 || !ok2 {
		return false
	}
	size, _ := ir.ParseInt(literalValue(sizeRule))
	return size == 0 && ir.IsBlank(literalValue(md5Rule))
}
