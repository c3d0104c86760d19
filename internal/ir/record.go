package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Origin locates a source record in the file it was read from.
type Origin struct {
	File  string
	Sheet string
	Row   int
}

// String renders the origin as file[sheet]:row.
func (o Origin) String() string {
	s := o.File
	if o.Sheet != "" {
		s += "[" + o.Sheet + "]"
	}
	if o.Row > 0 {
		s += ":" + strconv.Itoa(o.Row)
	}
	return s
}

// SourceRecord is one raw record handed over by a source adapter. Keys keeps
// the field order the adapter saw. A record is not modified once the engine
// starts evaluating it.
type SourceRecord struct {
	Fields map[string]any
	Keys   []string
	Origin Origin
}

// NewSourceRecord creates an empty record.
func NewSourceRecord(origin Origin) *SourceRecord {
	return &SourceRecord{Fields: make(map[string]any), Origin: origin}
}

// Set adds or replaces a field. Adapters call Set while building the record.
func (r *SourceRecord) Set(name string, value any) {
	if _, exists := r.Fields[name]; !exists {
		r.Keys = append(r.Keys, name)
	}
	r.Fields[name] = value
}

// Get returns the field value. Missing fields report ok=false.
func (r *SourceRecord) Get(name string) (any, bool) {
	if r == nil {
		return nil, false
	}
	v, ok := r.Fields[name]
	return v, ok
}

// Key is the natural key used in error messages.
func (r *SourceRecord) Key() string {
	if r == nil {
		return ""
	}
	return r.Origin.String()
}

// OutputRecord is one instance of a node type's properties in insertion order.
type OutputRecord struct {
	Node   string
	keys   []string
	values map[string]any
}

// NewOutputRecord creates an empty record for node.
func NewOutputRecord(node string) *OutputRecord {
	return &OutputRecord{Node: node, values: make(map[string]any)}
}

// Set assigns a property, keeping its first insertion position.
func (r *OutputRecord) Set(property string, value any) {
	if _, exists := r.values[property]; !exists {
		r.keys = append(r.keys, property)
	}
	r.values[property] = value
}

// Get returns a property value.
func (r *OutputRecord) Get(property string) (any, bool) {
	v, ok := r.values[property]
	return v, ok
}

// Keys returns the property names in insertion order.
func (r *OutputRecord) Keys() []string {
	return append([]string(nil), r.keys...)
}

// Len returns the number of properties.
func (r *OutputRecord) Len() int {
	return len(r.keys)
}

// Map returns a copy of the properties as a plain map.
func (r *OutputRecord) Map() map[string]any {
	out := make(map[string]any, len(r.values))
	for k, v := range r.values {
		out[k] = v
	}
	return out
}

// MarshalJSON writes the properties in insertion order.
func (r *OutputRecord) MarshalJSON() ([]byte, error) {
	fields := make([]jsonField, len(r.keys))
	for i, k := range r.keys {
		fields[i] = jsonField{k, r.values[k]}
	}
	return marshalFields(fields)
}

// HarmonizedDataset maps node types to their records. Node order is fixed
// at construction; nodes seen later are appended.
type HarmonizedDataset struct {
	order   []string
	records map[string][]*OutputRecord
}

// NewHarmonizedDataset creates a dataset whose output lists nodes in order.
func NewHarmonizedDataset(nodes []string) *HarmonizedDataset {
	d := &HarmonizedDataset{records: make(map[string][]*OutputRecord)}
	for _, n := range nodes {
		d.addNode(n)
	}
	return d
}

func (d *HarmonizedDataset) addNode(node string) {
	if _, ok := d.records[node]; !ok {
		d.order = append(d.order, node)
		d.records[node] = nil
	}
}

// Append adds records to node.
func (d *HarmonizedDataset) Append(node string, recs ...*OutputRecord) {
	d.addNode(node)
	d.records[node] = append(d.records[node], recs...)
}

// Nodes returns node names in output order.
func (d *HarmonizedDataset) Nodes() []string {
	return append([]string(nil), d.order...)
}

// Records returns the records of node.
func (d *HarmonizedDataset) Records(node string) []*OutputRecord {
	return d.records[node]
}

// Count returns the number of records of node.
func (d *HarmonizedDataset) Count(node string) int {
	return len(d.records[node])
}

// Counts returns the record count per node.
func (d *HarmonizedDataset) Counts() map[string]int {
	out := make(map[string]int, len(d.order))
	for _, n := range d.order {
		out[n] = len(d.records[n])
	}
	return out
}

// MarshalJSON writes {"<plural node>": [records...], ...} in node order.
func (d *HarmonizedDataset) MarshalJSON() ([]byte, error) {
	fields := make([]jsonField, len(d.order))
	for i, n := range d.order {
		recs := d.records[n]
		if recs == nil {
			recs = []*OutputRecord{}
		}
		fields[i] = jsonField{PluralName(n), recs}
	}
	return marshalFields(fields)
}

// EncodeDataset writes the dataset as indented JSON with a trailing newline.
func EncodeDataset(d *HarmonizedDataset) ([]byte, error) {
	raw, err := d.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("encode dataset: %w", err)
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return nil, fmt.Errorf("encode dataset: %w", err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}
