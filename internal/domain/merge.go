package domain

import (
	"encoding/json"
	"fmt"
)

// MergePatch overlays the top-level fields of patch onto current and returns the result.
// The "id" field of current is always preserved. Unknown fields are dropped.
func MergePatch[T any](current T, patch json.RawMessage) (T, error) {
	var merged T

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(patch, &fields); err != nil {
		return merged, fmt.Errorf("%w: patch must be a JSON object", ErrValidation)
	}

	base, err := json.Marshal(current)
	if err != nil {
		return merged, fmt.Errorf("marshal current: %w", err)
	}
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(base, &doc); err != nil {
		return merged, fmt.Errorf("decode current: %w", err)
	}

	for key, value := range fields {
		if key == "id" {
			continue
		}
		doc[key] = value
	}

	out, err := json.Marshal(doc)
	if err != nil {
		return merged, fmt.Errorf("marshal merged: %w", err)
	}
	if err := json.Unmarshal(out, &merged); err != nil {
		return merged, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return merged, nil
}
