package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/roach88/harmonizer/internal/ir"
)

// PropertyType is a JSON Schema primitive type name.
type PropertyType string

const (
	TypeString  PropertyType = "string"
	TypeInteger PropertyType = "integer"
	TypeNumber  PropertyType = "number"
	TypeBoolean PropertyType = "boolean"
	TypeArray   PropertyType = "array"
)

// Property describes one node property.
type Property struct {
	Node     string
	Name     string
	Type     PropertyType
	ItemType PropertyType
	Enum     []string
	Required bool

	codes      map[string]string
	folded     map[string][]string
	normalized map[string]string
}

// OutputField returns "node.property".
func (p *Property) OutputField() string {
	return p.Node + "." + p.Name
}

// Node describes one node type.
type Node struct {
	Name       string
	Properties map[string]*Property
	// Order lists property names in schema declaration order.
	Order    []string
	Required []string
}

// Property returns the named property.
func (n *Node) Property(name string) (*Property, bool) {
	p, ok := n.Properties[name]
	return p, ok
}

// Schema is the loaded destination data model.
type Schema struct {
	// Location is where the schema document was read from.
	Location string

	nodes map[string]*Node
	order []string
}

// Nodes returns node names in declaration order.
func (s *Schema) Nodes() []string {
	return append([]string(nil), s.order...)
}

// Node returns the named node type.
func (s *Schema) Node(name string) (*Node, bool) {
	n, ok := s.nodes[name]
	return n, ok
}

// Property resolves "node.property".
func (s *Schema) Property(outputField string) (*Property, bool) {
	node, prop, ok := ir.SplitOutputField(outputField)
	if !ok {
		return nil, false
	}
	return s.PropertyOf(node, prop)
}

// PropertyOf resolves a property by node and name.
func (s *Schema) PropertyOf(node, prop string) (*Property, bool) {
	n, ok := s.nodes[node]
	if !ok {
		return nil, false
	}
	return n.Property(prop)
}

// Required reports whether node lists prop as required.
func (s *Schema) Required(node, prop string) bool {
	p, ok := s.PropertyOf(node, prop)
	return ok && p.Required
}

// NewDataset returns an empty dataset listing every node in schema order.
func (s *Schema) NewDataset() *ir.HarmonizedDataset {
	return ir.NewHarmonizedDataset(s.order)
}

type rawNode struct {
	Properties json.RawMessage `json:"properties"`
	Required   []string        `json:"required"`
}

type rawProperty struct {
	Type  json.RawMessage `json:"type"`
	Enum  []string        `json:"enum"`
	Items *struct {
		Type json.RawMessage `json:"type"`
		Enum []string        `json:"enum"`
	} `json:"items"`
}

// Load parses a JSON Schema document with a root-level "$defs" object.
func Load(data []byte, location string) (*Schema, error) {
	var root struct {
		Defs json.RawMessage `json:"$defs"`
	}
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("parse schema %s: %w", location, err)
	}
	if len(root.Defs) == 0 {
		return nil, fmt.Errorf("parse schema %s: root-level \"$defs\" not found", location)
	}

	defNames, err := orderedKeys(root.Defs)
	if err != nil {
		return nil, fmt.Errorf("parse schema %s: $defs: %w", location, err)
	}
	var defs map[string]json.RawMessage
	if err := json.Unmarshal(root.Defs, &defs); err != nil {
		return nil, fmt.Errorf("parse schema %s: $defs: %w", location, err)
	}

	s := &Schema{Location: location, nodes: make(map[string]*Node)}
	for _, name := range defNames {
		var rn rawNode
		if err := json.Unmarshal(defs[name], &rn); err != nil {
			return nil, fmt.Errorf("parse schema %s: $defs.%s: %w", location, name, err)
		}
		if len(rn.Properties) == 0 {
			continue
		}
		node, err := buildNode(name, rn)
		if err != nil {
			return nil, fmt.Errorf("parse schema %s: %w", location, err)
		}
		s.nodes[name] = node
		s.order = append(s.order, name)
	}
	if len(s.order) == 0 {
		return nil, fmt.Errorf("parse schema %s: no node definitions with properties", location)
	}
	return s, nil
}

func buildNode(name string, rn rawNode) (*Node, error) {
	propNames, err := orderedKeys(rn.Properties)
	if err != nil {
		return nil, fmt.Errorf("$defs.%s.properties: %w", name, err)
	}
	var props map[string]rawProperty
	if err := json.Unmarshal(rn.Properties, &props); err != nil {
		return nil, fmt.Errorf("$defs.%s.properties: %w", name, err)
	}

	required := make(map[string]bool, len(rn.Required))
	for _, r := range rn.Required {
		required[r] = true
	}

	node := &Node{
		Name:       name,
		Properties: make(map[string]*Property, len(propNames)),
		Order:      propNames,
		Required:   rn.Required,
	}
	for _, pn := range propNames {
		rp := props[pn]
		typ, err := primitiveType(rp.Type)
		if err != nil {
			return nil, fmt.Errorf("$defs.%s.properties.%s: %w", name, pn, err)
		}
		p := &Property{Node: name, Name: pn, Type: typ, Enum: rp.Enum, Required: required[pn]}
		if rp.Items != nil {
			if p.ItemType, err = primitiveType(rp.Items.Type); err != nil {
				return nil, fmt.Errorf("$defs.%s.properties.%s.items: %w", name, pn, err)
			}
			if p.Enum == nil {
				p.Enum = rp.Items.Enum
			}
		}
		if p.Type == "" {
			p.Type = TypeString
		}
		p.indexEnum()
		node.Properties[pn] = p
	}
	return node, nil
}

// primitiveType accepts "string" or ["string", "null"] and returns the
// first non-null entry.
func primitiveType(raw json.RawMessage) (PropertyType, error) {
	if len(raw) == 0 {
		return "", nil
	}
	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		return PropertyType(single), nil
	}
	var many []string
	if err := json.Unmarshal(raw, &many); err != nil {
		return "", fmt.Errorf("unsupported \"type\": %s", string(raw))
	}
	for _, t := range many {
		if t != "null" {
			return PropertyType(t), nil
		}
	}
	return "", nil
}

// orderedKeys returns the keys of a JSON object in document order.
func orderedKeys(raw json.RawMessage) ([]string, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("expected object")
	}
	var keys []string
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("expected object key")
		}
		keys = append(keys, key)
		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return nil, err
		}
	}
	return keys, nil
}

// HasList reports whether the property holds a list.
func (p *Property) HasList() bool {
	return p.Type == TypeArray
}

// String renders the property for log messages.
func (p *Property) String() string {
	var b strings.Builder
	b.WriteString(p.OutputField())
	b.WriteString(" (")
	b.WriteString(string(p.Type))
	if p.ItemType != "" {
		b.WriteString(" of ")
		b.WriteString(string(p.ItemType))
	}
	b.WriteString(")")
	return b.String()
}
