package schema

import (
	"strings"
	"unicode"

	"github.com/roach88/harmonizer/internal/ir"
)

// CodeSeparator splits a permissible value into its code and label.
const CodeSeparator = " : "

func (p *Property) indexEnum() {
	if len(p.Enum) == 0 {
		return
	}
	p.codes = make(map[string]string, len(p.Enum))
	p.folded = make(map[string][]string, len(p.Enum))
	p.normalized = make(map[string]string, len(p.Enum))
	for _, v := range p.Enum {
		code, _, _ := strings.Cut(v, CodeSeparator)
		// Later entries overwrite earlier ones: the last declared code wins.
		p.codes[code] = v
		p.normalized[normalizeCode(code)] = v
		f := ir.Fold(v)
		p.folded[f] = append(p.folded[f], v)
	}
}

// HasEnum reports whether the property has a permissible-value list.
func (p *Property) HasEnum() bool {
	return len(p.Enum) > 0
}

// Allows reports whether v is one of the permissible values. Properties
// without a list allow everything.
func (p *Property) Allows(v string) bool {
	if !p.HasEnum() {
		return true
	}
	for _, e := range p.Enum {
		if e == v {
			return true
		}
	}
	return false
}

// CaseMatch returns the permissible value equal to v ignoring case and
// surrounding whitespace. Ambiguous or missing matches report false.
func (p *Property) CaseMatch(v string) (string, bool) {
	if !p.HasEnum() {
		return v, true
	}
	matches := p.folded[ir.Fold(v)]
	if len(matches) != 1 {
		return "", false
	}
	return matches[0], true
}

// LookupCode resolves v against the "code : label" index. It tries the
// exact code, then the whole permissible value ignoring case, then the code
// with punctuation removed so that "C649" finds "C64.9 : Kidney, NOS".
func (p *Property) LookupCode(v string) (string, bool) {
	v = strings.TrimSpace(v)
	if v == "" || !p.HasEnum() {
		return "", false
	}
	if match, ok := p.codes[v]; ok {
		return match, true
	}
	if match, ok := p.CaseMatch(v); ok {
		return match, true
	}
	if n := normalizeCode(v); n != "" {
		if match, ok := p.normalized[n]; ok {
			return match, true
		}
	}
	return "", false
}

func normalizeCode(code string) string {
	var b strings.Builder
	for _, r := range code {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToUpper(r))
		}
	}
	return b.String()
}
