package hubstaff

import (
	"context"
	"encoding/json"
)

type bodyCall func(ctx context.Context, path string, body any) (json.RawMessage, error)

// rawCall issues a body-carrying call and decodes the reply into a map.
// Non-object replies are returned under the "value" key.
func rawCall(ctx context.Context, call bodyCall, path string, body map[string]any) (map[string]any, error) {
	var payload any
	if body != nil {
		payload = body
	}
	raw, err := call(ctx, path, payload)
	if err != nil {
		return nil, err
	}
	out := map[string]any{}
	if err := json.Unmarshal(raw, &out); err != nil {
		var v any
		if err := decode(raw, &v); err != nil {
			return nil, err
		}
		return map[string]any{"value": v}, nil
	}
	return out, nil
}
