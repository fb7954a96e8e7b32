package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/hubstaff-go/hubstaff/pkg/hubstaff"
)

// filterFlags are the range and ID filters shared by the reporting
// commands.
type filterFlags struct {
	start    string
	stop     string
	users    []string
	projects []string
	tasks    []string
	page     pageFlags
}

func (f *filterFlags) register(cmd *cobra.Command, defaultStart string) {
	cmd.Flags().StringVar(&f.start, "start", "", fmt.Sprintf("Range start (default %q)", defaultStart))
	cmd.Flags().StringVar(&f.stop, "stop", "", "Range end (default now)")
	cmd.Flags().StringSliceVar(&f.users, "user", nil, "Filter by user ID (repeatable or comma-separated)")
	cmd.Flags().StringSliceVar(&f.projects, "project", nil, "Filter by project ID (repeatable or comma-separated)")
	cmd.Flags().StringSliceVar(&f.tasks, "task", nil, "Filter by task ID (repeatable or comma-separated)")
	registerProjectCompletion(cmd, "project")
	f.page.register(cmd)
}

type idFilters struct {
	users, projects, tasks []int64
}

func (f *filterFlags) ids() (idFilters, error) {
	var out idFilters
	var err error
	if out.users, err = parseIDs("user", f.users); err != nil {
		return out, err
	}
	if out.projects, err = parseIDs("project", f.projects); err != nil {
		return out, err
	}
	if out.tasks, err = parseIDs("task", f.tasks); err != nil {
		return out, err
	}
	return out, nil
}

// timeRangeParams builds the SDK filter for time entries and activities.
func (f *filterFlags) timeRangeParams(now time.Time) (hubstaff.TimeRangeParams, error) {
	start, stop, err := timeRange(f.start, f.stop, now)
	if err != nil {
		return hubstaff.TimeRangeParams{}, err
	}
	ids, err := f.ids()
	if err != nil {
		return hubstaff.TimeRangeParams{}, err
	}
	return hubstaff.TimeRangeParams{
		Start:      start,
		Stop:       stop,
		UserIDs:    ids.users,
		ProjectIDs: ids.projects,
		TaskIDs:    ids.tasks,
		Pagination: f.page.pagination(),
	}, nil
}

// cmdLine reconstructs the filter flags for a next-page breadcrumb.
func (f *filterFlags) cmdLine(base string) string {
	var b strings.Builder
	b.WriteString(base)
	if f.start != "" {
		fmt.Fprintf(&b, " --start %q", f.start)
	}
	if f.stop != "" {
		fmt.Fprintf(&b, " --stop %q", f.stop)
	}
	for _, ids := range []struct {
		flag string
		vals []string
	}{{"user", f.users}, {"project", f.projects}, {"task", f.tasks}} {
		if len(ids.vals) > 0 {
			fmt.Fprintf(&b, " --%s %s", ids.flag, strings.Join(ids.vals, ","))
		}
	}
	return b.String()
}

func sumDuration[T any](items []T, seconds func(T) int64) time.Duration {
	var total int64
	for _, it := range items {
		total += seconds(it)
	}
	return time.Duration(total) * time.Second
}
