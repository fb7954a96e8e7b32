package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hubstaff-go/hubstaff/internal/output"
	"github.com/hubstaff-go/hubstaff/pkg/hubstaff"
)

// NewProjectsCmd creates the projects command and its subcommands.
func NewProjectsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "projects",
		Aliases: []string{"project", "proj", "p"},
		Short:   "Manage projects",
		Long: `List, create, or update projects.

Projects belong to an organization. Commands that need one use --org, or the
organization_id config key when the flag is absent.`,
	}

	cmd.AddCommand(
		newProjectsListCmd(),
		newProjectsCreateCmd(),
		newProjectsUpdateCmd(),
	)

	return cmd
}

func newProjectsListCmd() *cobra.Command {
	var page pageFlags

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List projects in an organization",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, c, err := client(cmd)
			if err != nil {
				return err
			}
			orgID, err := app.OrganizationID("")
			if err != nil {
				return err
			}

			list, err := c.Projects.List(cmd.Context(), orgID, page.pagination())
			if err != nil {
				return err
			}
			if page.startID == "" {
				cacheProjects(app, orgID, list.Projects)
			}

			breadcrumbs := []output.Breadcrumb{{
				Action:      "tasks",
				Cmd:         "hubstaff tasks list --project <id>",
				Description: "List tasks in a project",
			}}
			breadcrumbs = append(breadcrumbs, nextPageBreadcrumb(list.Next(page.limit),
				fmt.Sprintf("hubstaff projects list --org %d", orgID))...)

			return app.OK(list.Projects,
				output.WithSummary(pluralize(len(list.Projects), "project", "projects")),
				output.WithContext("organization_id", orgID),
				output.WithBreadcrumbs(breadcrumbs...),
			)
		},
	}

	page.register(cmd)
	return cmd
}

func newProjectsCreateCmd() *cobra.Command {
	var name, data string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a project",
		Long: `Create a project in an organization.

The --name flag is required unless --data supplies the full body.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, c, err := client(cmd)
			if err != nil {
				return err
			}
			orgID, err := app.OrganizationID("")
			if err != nil {
				return err
			}

			var created any
			var projectID int64
			switch {
			case data != "":
				body, err := parseJSONObject(data)
				if err != nil {
					return err
				}
				if name != "" {
					body["name"] = name
				}
				raw, err := c.Projects.CreateRaw(cmd.Context(), orgID, body, nil)
				if err != nil {
					return err
				}
				created = raw
			case name != "":
				project, err := c.Projects.Create(cmd.Context(), hubstaff.CreateProjectInput{OrganizationID: orgID, Name: name})
				if err != nil {
					return err
				}
				created, projectID = project, project.ID
			default:
				return output.ErrUsageHint("Project name is required", "Use --name to specify the project name")
			}

			var breadcrumbs []output.Breadcrumb
			if projectID != 0 {
				breadcrumbs = append(breadcrumbs, output.Breadcrumb{
					Action:      "task",
					Cmd:         fmt.Sprintf("hubstaff tasks create --project %d --summary <text>", projectID),
					Description: "Add a task",
				})
			}
			return app.OK(created,
				output.WithSummary("Created project"),
				output.WithBreadcrumbs(breadcrumbs...),
			)
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "Project name")
	cmd.Flags().StringVarP(&data, "data", "d", "", "JSON object body (or @file)")

	return cmd
}

func newProjectsUpdateCmd() *cobra.Command {
	var name, data string
	var query []string

	cmd := &cobra.Command{
		Use:               "update <project-id>",
		Short:             "Update a project",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completer.ProjectCompletion(),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID, err := parseID("project", args[0])
			if err != nil {
				return err
			}
			body, q, err := updateBody(name, "name", data, query)
			if err != nil {
				return err
			}

			app, c, err := client(cmd)
			if err != nil {
				return err
			}
			updated, err := c.Projects.Update(cmd.Context(), projectID, body, q)
			if err != nil {
				return err
			}
			return app.OK(updated, output.WithSummary(fmt.Sprintf("Updated project #%d", projectID)))
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "New name")
	cmd.Flags().StringVarP(&data, "data", "d", "", "JSON object body (or @file)")
	cmd.Flags().StringArrayVar(&query, "query", nil, "Query parameter as key=value (repeatable)")

	return cmd
}
