package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// RuleDocument is the remote, environment-agnostic rule configuration.
type RuleDocument struct {
	Version         string                 `json:"version" yaml:"version"`
	Transformations []RemoteTransformation `json:"transformations" yaml:"transformations"`
}

// UnmarshalJSON accepts a numeric or string version.
func (d *RuleDocument) UnmarshalJSON(data []byte) error {
	var raw struct {
		Version         any                    `json:"version"`
		Transformations []RemoteTransformation `json:"transformations"`
	}
	if err := decodeJSON(data, &raw); err != nil {
		return err
	}
	d.Version = Stringify(Normalize(raw.Version))
	d.Transformations = raw.Transformations
	return nil
}

// Transformation returns the remote entry with the given name.
func (d *RuleDocument) Transformation(name string) (*RemoteTransformation, bool) {
	for i := range d.Transformations {
		if d.Transformations[i].Name == name {
			return &d.Transformations[i], true
		}
	}
	return nil, false
}

// Clone returns a deep copy suitable for appending rules without touching d.
func (d *RuleDocument) Clone() *RuleDocument {
	out := &RuleDocument{Version: d.Version}
	out.Transformations = make([]RemoteTransformation, len(d.Transformations))
	for i, t := range d.Transformations {
		c := RemoteTransformation{Name: t.Name, Extra: cloneMap(t.Extra)}
		if t.Active != nil {
			active := *t.Active
			c.Active = &active
		}
		c.Mappings = make([]MappingRule, len(t.Mappings))
		for j, m := range t.Mappings {
			c.Mappings[j] = m.Clone()
		}
		out.Transformations[i] = c
	}
	return out
}

// RemoteTransformation is one named transformation in a RuleDocument.
type RemoteTransformation struct {
	Name     string        `json:"name" yaml:"name"`
	Active   *bool         `json:"active,omitempty" yaml:"active,omitempty"`
	Mappings []MappingRule `json:"mappings" yaml:"mappings"`

	// Extra holds keys not modelled above. They survive a rewrite of the
	// rule file and take part in the local/remote overlay.
	Extra map[string]any `json:"-" yaml:",inline"`
}

// IsActive reports whether the entry is active. Absent means active.
func (t *RemoteTransformation) IsActive() bool {
	return t.Active == nil || *t.Active
}

// UnmarshalJSON captures unmodelled keys into Extra.
func (t *RemoteTransformation) UnmarshalJSON(data []byte) error {
	type plain RemoteTransformation
	var p plain
	if err := decodeJSON(data, &p); err != nil {
		return err
	}
	extra, err := extraKeys(data, "name", "active", "mappings")
	if err != nil {
		return err
	}
	p.Extra = extra
	*t = RemoteTransformation(p)
	return nil
}

// MarshalJSON writes name first, then unmodelled keys, then active and mappings.
func (t RemoteTransformation) MarshalJSON() ([]byte, error) {
	fields := []jsonField{{"name", t.Name}}
	fields = append(fields, sortedFields(t.Extra)...)
	if t.Active != nil {
		fields = append(fields, jsonField{"active", *t.Active})
	}
	mappings := t.Mappings
	if mappings == nil {
		mappings = []MappingRule{}
	}
	fields = append(fields, jsonField{"mappings", mappings})
	return marshalFields(fields)
}

// MappingRule maps one source field (or literal, or field list) to one
// destination property. This is the wire form; see Rule for the compiled form.
type MappingRule struct {
	OutputField       string             `json:"output_field" yaml:"output_field"`
	SourceField       string             `json:"source_field" yaml:"source_field"`
	TypeGroupIndex    any                `json:"type_group_index,omitempty" yaml:"type_group_index,omitempty"`
	DefaultValue      any                `json:"default_value" yaml:"default_value"`
	ReplacementValues []ReplacementValue `json:"replacement_values" yaml:"replacement_values"`
}

// Clone returns a copy that shares no slices with m.
func (m MappingRule) Clone() MappingRule {
	c := m
	c.DefaultValue = cloneValue(m.DefaultValue)
	c.ReplacementValues = make([]ReplacementValue, len(m.ReplacementValues))
	for i, rv := range m.ReplacementValues {
		c.ReplacementValues[i] = ReplacementValue{
			OldValue: cloneValue(rv.OldValue),
			NewValue: cloneValue(rv.NewValue),
		}
	}
	return c
}

// ReplacementValue is one entry of a rule's ordered replacement table.
type ReplacementValue struct {
	OldValue any `json:"old_value" yaml:"old_value"`
	NewValue any `json:"new_value" yaml:"new_value"`
}

// StudyConfig is the local, environment-specific configuration of one study.
type StudyConfig struct {
	Study              string                `json:"study" yaml:"study"`
	Active             *bool                 `json:"active,omitempty" yaml:"active,omitempty"`
	TransformationsURL string                `json:"transformations_url" yaml:"transformations_url"`
	Transformations    []LocalTransformation `json:"transformations" yaml:"transformations"`
}

// IsActive reports whether the study is active. Absent means active.
func (s *StudyConfig) IsActive() bool {
	return s.Active == nil || *s.Active
}

// LocalTransformation carries the runtime paths and seed for one transformation.
type LocalTransformation struct {
	Name            string  `json:"name" yaml:"name"`
	SourceFilePath  string  `json:"source_file_path" yaml:"source_file_path"`
	SourceFileSheet string  `json:"source_file_sheet,omitempty" yaml:"source_file_sheet,omitempty"`
	OutputFilePath  string  `json:"output_file_path" yaml:"output_file_path"`
	UUIDSeed        *string `json:"uuid_seed,omitempty" yaml:"uuid_seed,omitempty"`
	Active          *bool   `json:"active,omitempty" yaml:"active,omitempty"`

	Extra map[string]any `json:"-" yaml:",inline"`
}

// IsActive reports whether the transformation is active. Absent means active.
func (t *LocalTransformation) IsActive() bool {
	return t.Active == nil || *t.Active
}

// UnmarshalJSON accepts a numeric or string uuid_seed and captures
// unmodelled keys into Extra.
func (t *LocalTransformation) UnmarshalJSON(data []byte) error {
	var raw struct {
		Name            string `json:"name"`
		SourceFilePath  string `json:"source_file_path"`
		SourceFileSheet string `json:"source_file_sheet"`
		OutputFilePath  string `json:"output_file_path"`
		UUIDSeed        any    `json:"uuid_seed"`
		Active          *bool  `json:"active"`
	}
	if err := decodeJSON(data, &raw); err != nil {
		return err
	}
	extra, err := extraKeys(data, "name", "source_file_path", "source_file_sheet",
		"output_file_path", "uuid_seed", "active")
	if err != nil {
		return err
	}
	*t = LocalTransformation{
		Name:            raw.Name,
		SourceFilePath:  raw.SourceFilePath,
		SourceFileSheet: raw.SourceFileSheet,
		OutputFilePath:  raw.OutputFilePath,
		Active:          raw.Active,
		Extra:           extra,
	}
	if !IsBlank(raw.UUIDSeed) {
		seed := Stringify(Normalize(raw.UUIDSeed))
		t.UUIDSeed = &seed
	}
	return nil
}

// TransformationConfig is the fully resolved, immutable configuration of
// one study transformation.
type TransformationConfig struct {
	Study           string
	Name            string
	Version         string
	SourceFilePath  string
	SourceFileSheet string
	OutputFilePath  string
	UUIDSeed        *string

	// RulesLocation is where the rule document was fetched from.
	RulesLocation string
	// Document is the decoded rule document the rules were compiled from.
	Document *RuleDocument

	Rules []Rule

	// Settings is the overlay of remote and local unmodelled keys.
	Settings map[string]any
}

// Seeded reports whether identifiers are generated deterministically.
func (c *TransformationConfig) Seeded() bool {
	return c.UUIDSeed != nil
}

// DecodeRuleDocument decodes JSON rule configuration, keeping numbers exact.
func DecodeRuleDocument(data []byte) (*RuleDocument, error) {
	var doc RuleDocument
	if err := decodeJSON(data, &doc); err != nil {
		return nil, fmt.Errorf("decode rule document: %w", err)
	}
	normalizeDocument(&doc)
	return &doc, nil
}

// EncodeRuleDocument writes doc as indented JSON with a trailing newline.
func EncodeRuleDocument(doc *RuleDocument) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encode rule document: %w", err)
	}
	return buf.Bytes(), nil
}

func normalizeDocument(doc *RuleDocument) {
	for i := range doc.Transformations {
		t := &doc.Transformations[i]
		for k, v := range t.Extra {
			t.Extra[k] = Normalize(v)
		}
		for j := range t.Mappings {
			m := &t.Mappings[j]
			m.TypeGroupIndex = Normalize(m.TypeGroupIndex)
			m.DefaultValue = Normalize(m.DefaultValue)
			for k := range m.ReplacementValues {
				rv := &m.ReplacementValues[k]
				rv.OldValue = Normalize(rv.OldValue)
				rv.NewValue = Normalize(rv.NewValue)
			}
		}
	}
}

func decodeJSON(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(v)
}

func extraKeys(data []byte, known ...string) (map[string]any, error) {
	var all map[string]any
	if err := decodeJSON(data, &all); err != nil {
		return nil, err
	}
	for _, k := range known {
		delete(all, k)
	}
	if len(all) == 0 {
		return nil, nil
	}
	for k, v := range all {
		all[k] = Normalize(v)
	}
	return all, nil
}

type jsonField struct {
	key   string
	value any
}

func sortedFields(m map[string]any) []jsonField {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	fields := make([]jsonField, len(keys))
	for i, k := range keys {
		fields[i] = jsonField{k, m[k]}
	}
	return fields
}

func marshalFields(fields []jsonField) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := marshalNoEscape(f.value)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", f.key, err)
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func marshalNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case []any:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = cloneValue(e)
		}
		return out
	case []string:
		return append([]string(nil), val...)
	case map[string]any:
		return cloneMap(val)
	default:
		return v
	}
}
