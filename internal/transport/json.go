package transport

import (
	"encoding/json"
	"maps"
)

// MergeExtra marshals v and merges extra into the resulting object. Keys of v
// win over keys of extra.
func MergeExtra(v any, extra map[string]any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil || len(extra) == 0 {
		return data, err
	}

	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}

	merged := maps.Clone(extra)
	maps.Copy(merged, fields)
	return json.Marshal(merged)
}
