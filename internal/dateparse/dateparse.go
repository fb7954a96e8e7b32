// Package dateparse parses the human-friendly times accepted by report
// flags such as --start and --stop.
package dateparse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Parse resolves input relative to now. Supported forms:
//   - now, today, yesterday, tomorrow (day forms resolve to local midnight)
//   - monday ... sunday, last monday (most recent past occurrence)
//   - -N{m,h,d,w} (N minutes/hours/days/weeks before now)
//   - N minutes/hours/days/weeks ago
//   - start of week, start of month
//   - YYYY-MM-DD (local midnight) and RFC 3339 timestamps
func Parse(input string, now time.Time) (time.Time, error) {
	s := strings.ToLower(strings.TrimSpace(input))
	day := midnight(now)

	switch s {
	case "":
		return time.Time{}, fmt.Errorf("empty date")
	case "now":
		return now, nil
	case "today":
		return day, nil
	case "yesterday":
		return day.AddDate(0, 0, -1), nil
	case "tomorrow":
		return day.AddDate(0, 0, 1), nil
	case "start of week", "sow":
		offset := (int(day.Weekday()) + 6) % 7 // weeks start on Monday
		return day.AddDate(0, 0, -offset), nil
	case "start of month", "som":
		return time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, day.Location()), nil
	}

	if wd, ok := parseWeekday(strings.TrimPrefix(s, "last ")); ok {
		return lastWeekday(day, wd), nil
	}

	if m := offsetPattern.FindStringSubmatch(s); m != nil {
		return shift(now, m[1], m[2])
	}
	if m := agoPattern.FindStringSubmatch(s); m != nil {
		return shift(now, m[1], m[2][:1])
	}

	if t, err := time.ParseInLocation("2006-01-02", s, now.Location()); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, strings.TrimSpace(input)); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", input)
}

// ParseDate is Parse formatted as YYYY-MM-DD in now's location.
func ParseDate(input string, now time.Time) (string, error) {
	t, err := Parse(input, now)
	if err != nil {
		return "", err
	}
	return t.In(now.Location()).Format("2006-01-02"), nil
}

var (
	offsetPattern = regexp.MustCompile(`^-(\d+)\s*([mhdw])$`)
	agoPattern    = regexp.MustCompile(`^(\d+)\s+(minutes?|hours?|days?|weeks?)\s+ago$`)
)

func shift(now time.Time, n, unit string) (time.Time, error) {
	count, err := strconv.Atoi(n)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid count %q", n)
	}
	switch unit {
	case "m":
		return now.Add(-time.Duration(count) * time.Minute), nil
	case "h":
		return now.Add(-time.Duration(count) * time.Hour), nil
	case "d":
		return now.AddDate(0, 0, -count), nil
	default:
		return now.AddDate(0, 0, -7*count), nil
	}
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func parseWeekday(s string) (time.Weekday, bool) {
	switch s {
	case "sunday", "sun":
		return time.Sunday, true
	case "monday", "mon":
		return time.Monday, true
	case "tuesday", "tue":
		return time.Tuesday, true
	case "wednesday", "wed":
		return time.Wednesday, true
	case "thursday", "thu":
		return time.Thursday, true
	case "friday", "fri":
		return time.Friday, true
	case "saturday", "sat":
		return time.Saturday, true
	}
	return 0, false
}

// lastWeekday returns the most recent target strictly before day; naming
// today's weekday yields a week ago.
func lastWeekday(day time.Time, target time.Weekday) time.Time {
	back := int(day.Weekday() - target)
	if back <= 0 {
		back += 7
	}
	return day.AddDate(0, 0, -back)
}
