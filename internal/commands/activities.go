package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hubstaff-go/hubstaff/internal/output"
)

// NewActivitiesCmd creates the activities command.
func NewActivitiesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "activities",
		Aliases: []string{"activity"},
		Short:   "List recorded activity",
	}

	cmd.AddCommand(newActivitiesListCmd())

	return cmd
}

func newActivitiesListCmd() *cobra.Command {
	var filters filterFlags

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List activity samples in a time range",
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := filters.timeRangeParams(time.Now())
			if err != nil {
				return err
			}
			app, c, err := client(cmd)
			if err != nil {
				return err
			}

			list, err := c.Activities.List(cmd.Context(), params)
			if err != nil {
				return err
			}

			summary := pluralize(len(list.Activities), "activity", "activities")
			if n := len(list.Activities); n > 0 {
				var sum int
				for _, a := range list.Activities {
					sum += a.Activity
				}
				summary += fmt.Sprintf(", average %s%%", app.Locale.FormatNumber(float64(sum)/float64(n)))
			}

			return app.OK(list.Activities,
				output.WithSummary(summary),
				output.WithContext("start_time", params.Start.Format(time.RFC3339)),
				output.WithContext("stop_time", params.Stop.Format(time.RFC3339)),
				output.WithBreadcrumbs(nextPageBreadcrumb(list.Next(filters.page.limit),
					filters.cmdLine("hubstaff activities list"))...),
			)
		},
	}

	filters.register(cmd, "-24h")
	return cmd
}
