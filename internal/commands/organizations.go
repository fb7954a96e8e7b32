package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hubstaff-go/hubstaff/internal/output"
	"github.com/hubstaff-go/hubstaff/pkg/hubstaff"
)

// NewOrganizationsCmd creates the organizations command and its subcommands.
func NewOrganizationsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "organizations",
		Aliases: []string{"organization", "orgs", "org"},
		Short:   "Manage organizations",
		Long:    "List, create, or update the organizations you belong to.",
	}

	cmd.AddCommand(
		newOrganizationsListCmd(),
		newOrganizationsCreateCmd(),
		newOrganizationsUpdateCmd(),
	)

	return cmd
}

func newOrganizationsListCmd() *cobra.Command {
	var page pageFlags

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List organizations",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, c, err := client(cmd)
			if err != nil {
				return err
			}

			list, err := c.Organizations.List(cmd.Context(), page.pagination())
			if err != nil {
				return err
			}
			if page.startID == "" {
				cacheOrganizations(app, list.Organizations)
			}

			breadcrumbs := []output.Breadcrumb{{
				Action:      "projects",
				Cmd:         "hubstaff projects list --org <id>",
				Description: "List projects in an organization",
			}}
			breadcrumbs = append(breadcrumbs, nextPageBreadcrumb(list.Next(page.limit), "hubstaff organizations list")...)

			return app.OK(list.Organizations,
				output.WithSummary(pluralize(len(list.Organizations), "organization", "organizations")),
				output.WithBreadcrumbs(breadcrumbs...),
			)
		},
	}

	page.register(cmd)
	return cmd
}

func newOrganizationsCreateCmd() *cobra.Command {
	var name, data string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an organization",
		Long: `Create an organization.

Pass --name for the common case, or --data with a JSON object to send any
fields the API accepts.`,
		RunE: func(cmd *cobra.Command, args []string) error {
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
				if name != "" {
					body["name"] = name
				}
				created, err = c.Organizations.CreateRaw(cmd.Context(), body, nil)
				if err != nil {
					return err
				}
			case name != "":
				org, err := c.Organizations.Create(cmd.Context(), hubstaff.CreateOrganizationInput{Name: name})
				if err != nil {
					return err
				}
				created = org
			default:
				return output.ErrUsageHint("Organization name is required", "Use --name or --data")
			}

			return app.OK(created,
				output.WithSummary("Created organization"),
				output.WithBreadcrumbs(output.Breadcrumb{
					Action:      "list",
					Cmd:         "hubstaff organizations list",
					Description: "List organizations",
				}),
			)
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "Organization name")
	cmd.Flags().StringVarP(&data, "data", "d", "", "JSON object body (or @file)")

	return cmd
}

func newOrganizationsUpdateCmd() *cobra.Command {
	var name, data string
	var query []string

	cmd := &cobra.Command{
		Use:               "update <organization-id>",
		Short:             "Update an organization",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completer.OrganizationCompletion(),
		RunE: func(cmd *cobra.Command, args []string) error {
			orgID, err := parseID("organization", args[0])
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
			updated, err := c.Organizations.Update(cmd.Context(), orgID, body, q)
			if err != nil {
				return err
			}
			return app.OK(updated, output.WithSummary(fmt.Sprintf("Updated organization #%d", orgID)))
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "New name")
	cmd.Flags().StringVarP(&data, "data", "d", "", "JSON object body (or @file)")
	cmd.Flags().StringArrayVar(&query, "query", nil, "Query parameter as key=value (repeatable)")

	return cmd
}

// updateBody merges --data with the single-field shortcut flag shared by
// the update commands.
func updateBody(value, field, data string, query []string) (map[string]any, hubstaff.Query, error) {
	body := map[string]any{}
	if data != "" {
		parsed, err := parseJSONObject(data)
		if err != nil {
			return nil, nil, err
		}
		body = parsed
	}
	if value != "" {
		body[field] = value
	}
	if len(body) == 0 {
		return nil, nil, output.ErrUsageHint("Nothing to update", fmt.Sprintf("Use --%s or --data", field))
	}
	q, err := parseQueryPairs(query)
	if err != nil {
		return nil, nil, err
	}
	return body, q, nil
}
