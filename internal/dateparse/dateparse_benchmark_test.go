package dateparse

import (
	"testing"
	"time"
)

func BenchmarkParse(b *testing.B) {
	ref := time.Date(2024, 1, 17, 12, 0, 0, 0, time.UTC)
	inputs := map[string]string{
		"keyword":  "yesterday",
		"weekday":  "last monday",
		"offset":   "-7d",
		"ago":      "3 days ago",
		"iso_date": "2024-01-01",
		"rfc3339":  "2024-01-01T08:00:00Z",
		"invalid":  "not a date",
	}
	for name, in := range inputs {
		b.Run(name, func(b *testing.B) {
			for b.Loop() {
				_, _ = Parse(in, ref)
			}
		})
	}
}
