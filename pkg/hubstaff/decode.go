package hubstaff

import (
	"encoding/json"
	"strconv"
)

// decode unmarshals a successful response body into out.
func decode(raw json.RawMessage, out any) error {
	if err := json.Unmarshal(raw, out); err != nil {
		return &Error{
			Code:    CodeAPI,
			Message: "unexpected response body",
			Body:    raw,
			Details: decodeDetails(raw),
			Cause:   err,
		}
	}
	return nil
}

func id(n int64) string {
	return strconv.FormatInt(n, 10)
}
