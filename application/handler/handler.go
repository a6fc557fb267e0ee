// Package handler provides shared helpers for queued task handlers.
package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"

	"github.com/aleysapc/docsearch/domain/search"
)

// JobRecorder records the successful end of a job.
type JobRecorder interface {
	Succeed(ctx context.Context, id string, result map[string]any) error
}

// ExtractInt64 extracts an int64 value from the payload.
func ExtractInt64(payload map[string]any, key string) (int64, error) {
	val, ok := payload[key]
	if !ok {
		return 0, fmt.Errorf("missing required field: %s", key)
	}

	switch v := val.(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case float64:
		return int64(v), nil
	case json.Number:
		return v.Int64()
	default:
		return 0, fmt.Errorf("invalid type for %s: %T", key, val)
	}
}

// ExtractString extracts a string value from the payload.
func ExtractString(payload map[string]any, key string) (string, error) {
	val, ok := payload[key]
	if !ok {
		return "", fmt.Errorf("missing required field: %s", key)
	}

	s, ok := val.(string)
	if !ok {
		return "", fmt.Errorf("invalid type for %s: expected string, got %T", key, val)
	}

	return s, nil
}

// ExtractVectors extracts a list of vectors. Payloads that went through the
// task store arrive as nested []any of float64.
func ExtractVectors(payload map[string]any, key string) ([]search.Vector, error) {
	val, ok := payload[key]
	if !ok {
		return nil, fmt.Errorf("missing required field: %s", key)
	}

	switch v := val.(type) {
	case []search.Vector:
		return v, nil
	case [][]float64:
		out := make([]search.Vector, len(v))
		for i, vec := range v {
			out[i] = search.Vector(vec)
		}
		return out, nil
	case []any:
		out := make([]search.Vector, len(v))
		for i, item := range v {
			row, ok := item.([]any)
			if !ok {
				return nil, fmt.Errorf("invalid type for %s[%d]: %T", key, i, item)
			}
			vec := make(search.Vector, len(row))
			for j, x := range row {
				f, ok := x.(float64)
				if !ok {
					return nil, fmt.Errorf("invalid type for %s[%d][%d]: %T", key, i, j, x)
				}
				vec[j] = f
			}
			out[i] = vec
		}
		return out, nil
	default:
		return nil, fmt.Errorf("invalid type for %s: %T", key, val)
	}
}

// Next copies payload and sets key to value, producing the payload of the
// following stage.
func Next(payload map[string]any, key string, value any) map[string]any {
	out := make(map[string]any, len(payload)+1)
	maps.Copy(out, payload)
	out[key] = value
	return out
}
