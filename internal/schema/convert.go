package schema

import (
	"math"
	"strconv"
	"strings"

	"github.com/roach88/harmonizer/internal/ir"
)

// Convert coerces a harmonized value to the property's JSON type. Blank
// values become nil. The second result is false when part or all of the
// value could not be converted; the caller decides whether to log it.
func (p *Property) Convert(v any) (any, bool) {
	if ir.IsBlank(v) {
		return nil, true
	}

	switch p.Type {
	case TypeArray:
		return p.convertList(v)
	case TypeInteger:
		text := ir.Stringify(v)
		if i, ok := ir.ParseInt(text); ok {
			return i, true
		}
		if f, ok := ir.ParseNumber(text); ok {
			return int64(math.Trunc(f)), true
		}
		return nil, false
	case TypeNumber:
		if f, ok := ir.ParseNumber(ir.Stringify(v)); ok {
			return f, true
		}
		return nil, false
	case TypeBoolean:
		if b, ok := v.(bool); ok {
			return b, true
		}
		b, err := strconv.ParseBool(strings.TrimSpace(ir.Stringify(v)))
		if err != nil {
			return nil, false
		}
		return b, true
	default:
		text := strings.TrimSpace(ir.Stringify(v))
		if !p.HasEnum() {
			return text, true
		}
		match, ok := p.CaseMatch(text)
		if !ok {
			return nil, false
		}
		return match, true
	}
}

func (p *Property) convertList(v any) (any, bool) {
	items := ir.SplitList(v, ir.ListDelimiter)
	out := make([]any, 0, len(items))
	seen := make(map[string]bool, len(items))
	complete := true
	for _, item := range items {
		if p.HasEnum() {
			match, ok := p.CaseMatch(item)
			if !ok {
				complete = false
				continue
			}
			item = match
		}
		if seen[item] {
			continue
		}
		seen[item] = true
		out = append(out, item)
	}
	if len(out) == 0 {
		return nil, complete
	}
	return out, complete
}
