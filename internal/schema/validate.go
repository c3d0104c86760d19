package schema

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/harmonizer/internal/ir"
)

// ValidationError reports one property of one record that does not
// conform to the schema. Index is the record's position within its node
// list.
type ValidationError struct {
	Node     string
	Index    int
	Property string
	Message  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s[%d].%s: %s", e.Node, e.Index, e.Property, e.Message)
}

// Validator checks an assembled dataset.
type Validator interface {
	Validate(ds *ir.HarmonizedDataset) []ValidationError
}

// ValidationFailure is the fatal error returned for a dataset with
// validation errors.
type ValidationFailure struct {
	Transformation string
	Errors         []ValidationError
}

func (f *ValidationFailure) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "transformation %q: %d validation error(s)", f.Transformation, len(f.Errors))
	for i, e := range f.Errors {
		if i == 10 {
			fmt.Fprintf(&b, "; ... %d more", len(f.Errors)-i)
			break
		}
		b.WriteString("; ")
		b.WriteString(e.Error())
	}
	return b.String()
}

// IsValidationFailure reports whether err is a ValidationFailure.
func IsValidationFailure(err error) bool {
	var f *ValidationFailure
	return errors.As(err, &f)
}

// Validate checks required properties, JSON types, permissible values,
// unknown nodes or properties, and identifier uniqueness per node.
func (s *Schema) Validate(ds *ir.HarmonizedDataset) []ValidationError {
	var errs []ValidationError
	for _, nodeName := range ds.Nodes() {
		recs := ds.Records(nodeName)
		node, ok := s.nodes[nodeName]
		if !ok {
			if len(recs) > 0 {
				errs = append(errs, ValidationError{Node: nodeName, Index: 0, Property: "*", Message: "node type not defined in schema"})
			}
			continue
		}

		idProp := ir.IDProperty(nodeName)
		seen := make(map[string]int)
		for i, rec := range recs {
			errs = append(errs, validateRecord(node, i, rec)...)

			id, ok := rec.Get(idProp)
			if !ok || ir.IsBlank(id) {
				continue
			}
			key := ir.Stringify(id)
			if first, dup := seen[key]; dup {
				errs = append(errs, ValidationError{
					Node:     nodeName,
					Index:    i,
					Property: idProp,
					Message:  fmt.Sprintf("duplicate identifier %q (first at index %d)", key, first),
				})
				continue
			}
			seen[key] = i
		}
	}
	return errs
}

func validateRecord(node *Node, index int, rec *ir.OutputRecord) []ValidationError {
	var errs []ValidationError
	fail := func(prop, format string, args ...any) {
		errs = append(errs, ValidationError{Node: node.Name, Index: index, Property: prop, Message: fmt.Sprintf(format, args...)})
	}

	for _, req := range node.Required {
		v, ok := rec.Get(req)
		if !ok || ir.IsBlank(v) {
			fail(req, "required property is missing or blank")
		}
	}

	for _, name := range rec.Keys() {
		prop, ok := node.Properties[name]
		if !ok {
			fail(name, "property not defined in schema")
			continue
		}
		v, _ := rec.Get(name)
		if v == nil {
			continue
		}
		if msg := checkValue(prop, v); msg != "" {
			fail(name, "%s", msg)
		}
	}
	return errs
}

func checkValue(p *Property, v any) string {
	switch p.Type {
	case TypeArray:
		items, ok := v.([]any)
		if !ok {
			return fmt.Sprintf("expected array, got %T", v)
		}
		for _, item := range items {
			text, ok := item.(string)
			if !ok {
				return fmt.Sprintf("expected array of strings, got element %T", item)
			}
			if !p.Allows(text) {
				return fmt.Sprintf("value %q is not a permissible value", text)
			}
		}
	case TypeInteger:
		switch n := v.(type) {
		case int64, int:
		case float64:
			if _, ok := ir.ParseInt(n); !ok {
				return fmt.Sprintf("expected integer, got %v", n)
			}
		default:
			return fmt.Sprintf("expected integer, got %T", v)
		}
	case TypeNumber:
		switch v.(type) {
		case int64, int, float64:
		default:
			return fmt.Sprintf("expected number, got %T", v)
		}
	case TypeBoolean:
		if _, ok := v.(bool); !ok {
			return fmt.Sprintf("expected boolean, got %T", v)
		}
	default:
		text, ok := v.(string)
		if !ok {
			return fmt.Sprintf("expected string, got %T", v)
		}
		if !p.Allows(text) {
			return fmt.Sprintf("value %q is not a permissible value", text)
		}
	}
	return ""
}
