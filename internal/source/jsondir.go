package source

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/roach88/harmonizer/internal/ir"
)

// OpenJSONDir reads every *.json file directly inside dir, sorted by name.
// Each file holds one record.
func OpenJSONDir(dir string) (Source, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}
	sort.Strings(paths)

	src := &listSource{}
	for _, p := range paths {
		obj, err := readJSON(p)
		if err != nil {
			return nil, err
		}
		m, ok := obj.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("read %s: expected a JSON object", p)
		}
		src.records = append(src.records, flattenRecord(m, ir.Origin{File: p}))
		src.files = append(src.files, p)
	}
	return src, nil
}

// OpenJSONFile reads a file holding one object or an array of objects.
func OpenJSONFile(path string) (Source, error) {
	obj, err := readJSON(path)
	if err != nil {
		return nil, err
	}

	src := &listSource{files: []string{path}}
	switch val := obj.(type) {
	case map[string]any:
		src.records = append(src.records, flattenRecord(val, ir.Origin{File: path}))
	case []any:
		for i, e := range val {
			m, ok := e.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("read %s: element %d is not a JSON object", path, i)
			}
			src.records = append(src.records, flattenRecord(m, ir.Origin{File: path, Row: i + 1}))
		}
	default:
		return nil, fmt.Errorf("read %s: expected a JSON object or array", path)
	}
	return src, nil
}

func readJSON(path string) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return v, nil
}

// flattenRecord turns nested objects into dotted field names. Lists of
// scalars are kept as lists; lists containing objects are flattened with
// the element index as a path segment.
func flattenRecord(obj map[string]any, origin ir.Origin) *ir.SourceRecord {
	rec := ir.NewSourceRecord(origin)
	flattenInto(rec, "", obj)
	return rec
}

func flattenInto(rec *ir.SourceRecord, prefix string, v any) {
	switch val := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			flattenInto(rec, join(prefix, k), val[k])
		}
	case []any:
		if !hasObject(val) {
			rec.Set(prefix, ir.Normalize(val))
			return
		}
		for i, e := range val {
			flattenInto(rec, join(prefix, strconv.Itoa(i)), e)
		}
	default:
		rec.Set(prefix, ir.Normalize(val))
	}
}

func hasObject(list []any) bool {
	for _, e := range list {
		if _, ok := e.(map[string]any); ok {
			return true
		}
	}
	return false
}

func join(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}
