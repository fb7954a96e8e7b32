package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hubstaff-go/hubstaff/internal/output"
	"github.com/hubstaff-go/hubstaff/pkg/hubstaff"
)

// NewTimeEntriesCmd creates the time-entries command.
func NewTimeEntriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "time-entries",
		Aliases: []string{"time-entry", "entries"},
		Short:   "List tracked time entries",
		Long: `List time entries in a time range.

Ranges accept relative dates: today, yesterday, -7d, "3 days ago",
monday, last friday, 2024-01-15, or an RFC 3339 timestamp.`,
	}

	cmd.AddCommand(newTimeEntriesListCmd())

	return cmd
}

func newTimeEntriesListCmd() *cobra.Command {
	var filters filterFlags

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List time entries",
		Example: `  hubstaff time-entries list
  hubstaff time-entries list --start "start of week" --project 42`,
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := filters.timeRangeParams(time.Now())
			if err != nil {
				return err
			}
			app, c, err := client(cmd)
			if err != nil {
				return err
			}

			list, err := c.TimeEntries.List(cmd.Context(), params)
			if err != nil {
				return err
			}

			total := sumDuration(list.TimeEntries, func(e hubstaff.TimeEntry) int64 { return e.Duration })
			summary := fmt.Sprintf("%s, %s tracked",
				pluralize(len(list.TimeEntries), "time entry", "time entries"), app.Locale.FormatHours(total))

			return app.OK(list.TimeEntries,
				output.WithSummary(summary),
				output.WithContext("start_time", params.Start.Format(time.RFC3339)),
				output.WithContext("stop_time", params.Stop.Format(time.RFC3339)),
				output.WithBreadcrumbs(nextPageBreadcrumb(list.Next(filters.page.limit),
					filters.cmdLine("hubstaff time-entries list"))...),
			)
		},
	}

	filters.register(cmd, "-24h")
	return cmd
}
