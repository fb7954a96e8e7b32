package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/hubstaff-go/hubstaff/internal/dateparse"
	"github.com/hubstaff-go/hubstaff/internal/output"
	"github.com/hubstaff-go/hubstaff/pkg/hubstaff"
)

// NewTimesheetsCmd creates the timesheets command.
func NewTimesheetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "timesheets",
		Aliases: []string{"timesheet"},
		Short:   "Daily time totals",
		Long:    "Summarized tracked time per day, user, project, and task.",
	}

	cmd.AddCommand(newTimesheetsListCmd())

	return cmd
}

func newTimesheetsListCmd() *cobra.Command {
	var filters filterFlags
	var teams []string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List timesheet rows for a date range",
		Example: `  hubstaff timesheets list --start "start of month"
  hubstaff timesheets list --start 2024-01-01 --stop 2024-01-31 --user 7`,
		RunE: func(cmd *cobra.Command, args []string) error {
			now := time.Now()
			start := filters.start
			if start == "" {
				start = "-7d"
			}
			stop := filters.stop
			if stop == "" {
				stop = "today"
			}
			startDate, err := dateparse.ParseDate(start, now)
			if err != nil {
				return output.ErrUsage(fmt.Sprintf("--start: %v", err))
			}
			stopDate, err := dateparse.ParseDate(stop, now)
			if err != nil {
				return output.ErrUsage(fmt.Sprintf("--stop: %v", err))
			}
			if startDate > stopDate {
				return output.ErrUsage("--start must not be after --stop")
			}

			ids, err := filters.ids()
			if err != nil {
				return err
			}
			teamIDs, err := parseIDs("team", teams)
			if err != nil {
				return err
			}

			app, c, err := client(cmd)
			if err != nil {
				return err
			}
			list, err := c.Timesheets.List(cmd.Context(), hubstaff.TimesheetFilters{
				Start:      startDate,
				Stop:       stopDate,
				UserIDs:    ids.users,
				ProjectIDs: ids.projects,
				TaskIDs:    ids.tasks,
				TeamIDs:    teamIDs,
				Pagination: filters.page.pagination(),
			})
			if err != nil {
				return err
			}

			base := "hubstaff timesheets list"
			if len(teams) > 0 {
				base += " --team " + strings.Join(teams, ",")
			}

			total := sumDuration(list.Timesheets, func(r hubstaff.TimesheetRow) int64 { return r.Duration })
			summary := fmt.Sprintf("%s from %s to %s, %s total",
				pluralize(len(list.Timesheets), "row", "rows"), startDate, stopDate, app.Locale.FormatHours(total))

			return app.OK(list.Timesheets,
				output.WithSummary(summary),
				output.WithContext("start_date", startDate),
				output.WithContext("end_date", stopDate),
				output.WithBreadcrumbs(nextPageBreadcrumb(list.Next(filters.page.limit),
					filters.cmdLine(base))...),
			)
		},
	}

	filters.register(cmd, "-7d")
	cmd.Flags().Lookup("stop").Usage = "Range end date (default today)"
	cmd.Flags().StringSliceVar(&teams, "team", nil, "Filter by team ID (repeatable or comma-separated)")

	return cmd
}
