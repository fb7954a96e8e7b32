package output

import (
	"encoding/json"
	"fmt"

	"github.com/itchyny/gojq"
)

// writeJQ runs the jq expression against the JSON form of v. String
// results print raw, everything else prints as compact JSON, one per line.
func (w *Writer) writeJQ(v any) error {
	query, err := gojq.Parse(w.opts.JQ)
	if err != nil {
		return ErrUsageHint(fmt.Sprintf("invalid --jq expression: %v", err), "See https://jqlang.org/manual/")
	}

	input, err := toJQInput(v)
	if err != nil {
		return err
	}

	iter := query.Run(input)
	for {
		result, ok := iter.Next()
		if !ok {
			return nil
		}
		if err, isErr := result.(error); isErr {
			return ErrUsage(fmt.Sprintf("jq: %v", err))
		}
		if s, isStr := result.(string); isStr {
			fmt.Fprintln(w.opts.Writer, s)
			continue
		}
		b, err := gojq.Marshal(result)
		if err != nil {
			return err
		}
		fmt.Fprintln(w.opts.Writer, string(b))
	}
}

// toJQInput converts v into the plain map/slice/float64 values gojq accepts.
func toJQInput(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}
