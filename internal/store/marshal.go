package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/harmonizer/internal/ir"
)

// marshalCounts converts per-node counts to canonical JSON TEXT.
func marshalCounts(counts map[string]int) (string, error) {
	obj := make(map[string]any, len(counts))
	for k, v := range counts {
		obj[k] = v
	}
	data, err := ir.MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("marshal counts: %w", err)
	}
	return string(data), nil
}

// unmarshalCounts parses counts TEXT.
func unmarshalCounts(data string) (map[string]int, error) {
	counts := map[string]int{}
	if data == "" || data == "{}" {
		return counts, nil
	}
	if err := json.Unmarshal([]byte(data), &counts); err != nil {
		return nil, fmt.Errorf("unmarshal counts: %w", err)
	}
	return counts, nil
}
