package engine

import (
	"encoding/json"
	"fmt"
)

// Raw returns the value stored in domain.Response.Raw: the native object in
// raw verbose mode, its null-omitted map view otherwise.
func Raw(native any, rawVerbose bool) (any, error) {
	if rawVerbose {
		return native, nil
	}
	return RawView(native)
}

// RawView serializes native and returns the resulting object with every null
// value removed, recursively.
func RawView(native any) (map[string]any, error) {
	data, err := json.Marshal(native)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize native response: %w", err)
	}

	var view map[string]any
	if err := json.Unmarshal(data, &view); err != nil {
		return nil, fmt.Errorf("native response is not an object: %w", err)
	}

	prune(view)
	return view, nil
}

func prune(v any) {
	switch t := v.(type) {
	case map[string]any:
		for k, child := range t {
			if child == nil {
				delete(t, k)
				continue
			}
			prune(child)
		}
	case []any:
		for _, child := range t {
			prune(child)
		}
	}
}
