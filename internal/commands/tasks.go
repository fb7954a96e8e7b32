package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hubstaff-go/hubstaff/internal/output"
	"github.com/hubstaff-go/hubstaff/pkg/hubstaff"
)

// NewTasksCmd creates the tasks command and its subcommands.
func NewTasksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tasks",
		Aliases: []string{"task", "t"},
		Short:   "Manage tasks",
		Long:    "List, create, or update the tasks of a project.",
	}

	cmd.AddCommand(
		newTasksListCmd(),
		newTasksCreateCmd(),
		newTasksUpdateCmd(),
	)

	return cmd
}

func newTasksListCmd() *cobra.Command {
	var project string
	var page pageFlags

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks in a project",
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID, err := parseID("project", project)
			if err != nil {
				return err
			}
			app, c, err := client(cmd)
			if err != nil {
				return err
			}

			list, err := c.Tasks.List(cmd.Context(), projectID, page.pagination())
			if err != nil {
				return err
			}

			return app.OK(list.Tasks,
				output.WithSummary(pluralize(len(list.Tasks), "task", "tasks")),
				output.WithContext("project_id", projectID),
				output.WithBreadcrumbs(nextPageBreadcrumb(list.Next(page.limit),
					fmt.Sprintf("hubstaff tasks list --project %d", projectID))...),
			)
		},
	}

	cmd.Flags().StringVarP(&project, "project", "p", "", "Project ID (required)")
	_ = cmd.MarkFlagRequired("project")
	registerProjectCompletion(cmd, "project")
	page.register(cmd)

	return cmd
}

func newTasksCreateCmd() *cobra.Command {
	var project, summary, data string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a task",
		Long: `Create a task in a project.

The --summary flag is required unless --data supplies the full body.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID, err := parseID("project", project)
			if err != nil {
				return err
			}
			app, c, err := client(cmd)
			if err != nil {
				return err
			}

			var created any
			switch {
			case data != "":
				body, err := parseJSONObject(data)
				if err != nil {
					return err
				}
				if summary != "" {
					body["summary"] = summary
				}
				raw, err := c.Tasks.CreateRaw(cmd.Context(), projectID, body, nil)
				if err != nil {
					return err
				}
				created = raw
			case summary != "":
				task, err := c.Tasks.Create(cmd.Context(), hubstaff.CreateTaskInput{ProjectID: projectID, Summary: summary})
				if err != nil {
					return err
				}
				created = task
			default:
				return output.ErrUsageHint("Task summary is required", "Use --summary to describe the task")
			}

			return app.OK(created,
				output.WithSummary("Created task"),
				output.WithBreadcrumbs(output.Breadcrumb{
					Action:      "list",
					Cmd:         fmt.Sprintf("hubstaff tasks list --project %d", projectID),
					Description: "List tasks",
				}),
			)
		},
	}

	cmd.Flags().StringVarP(&project, "project", "p", "", "Project ID (required)")
	cmd.Flags().StringVarP(&summary, "summary", "s", "", "Task summary")
	cmd.Flags().StringVarP(&data, "data", "d", "", "JSON object body (or @file)")
	_ = cmd.MarkFlagRequired("project")
	registerProjectCompletion(cmd, "project")

	return cmd
}

func newTasksUpdateCmd() *cobra.Command {
	var summary, data string
	var query []string

	cmd := &cobra.Command{
		Use:   "update <task-id>",
		Short: "Update a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			taskID, err := parseID("task", args[0])
			if err != nil {
				return err
			}
			body, q, err := updateBody(summary, "summary", data, query)
			if err != nil {
				return err
			}

			app, c, err := client(cmd)
			if err != nil {
				return err
			}
			updated, err := c.Tasks.Update(cmd.Context(), taskID, body, q)
			if err != nil {
				return err
			}
			return app.OK(updated, output.WithSummary(fmt.Sprintf("Updated task #%d", taskID)))
		},
	}

	cmd.Flags().StringVarP(&summary, "summary", "s", "", "New summary")
	cmd.Flags().StringVarP(&data, "data", "d", "", "JSON object body (or @file)")
	cmd.Flags().StringArrayVar(&query, "query", nil, "Query parameter as key=value (repeatable)")

	return cmd
}
