package commands

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hubstaff-go/hubstaff/internal/output"
	"github.com/hubstaff-go/hubstaff/pkg/hubstaff"
)

// NewAPICmd creates the api command for raw API access.
func NewAPICmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "api",
		Short: "Raw API access",
		Long: `Make authenticated requests to any Hubstaff API endpoint.

Paths without a version segment get the configured API version prepended:
"users/me" and "/v2/users/me" address the same endpoint.`,
	}

	cmd.AddCommand(
		newAPIGetCmd(),
		newAPIBodyCmd("post"),
		newAPIBodyCmd("put"),
	)

	return cmd
}

func newAPIGetCmd() *cobra.Command {
	var query []string

	cmd := &cobra.Command{
		Use:   "get <path>",
		Short: "GET request to API",
		Args:  cobra.ExactArgs(1),
		Example: `  hubstaff api get users/me
  hubstaff api get organizations/42/members --query page_limit=10`,
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := parseQueryPairs(query)
			if err != nil {
				return err
			}
			app, c, err := client(cmd)
			if err != nil {
				return err
			}

			path := c.HTTP().V(args[0])
			resp, err := c.HTTP().Get(cmd.Context(), path, q)
			if err != nil {
				return err
			}

			return app.OK(resp,
				output.WithSummary(apiSummary("GET", path, resp)),
				output.WithBreadcrumbs(apiBreadcrumbs(resp)...),
			)
		},
	}

	cmd.Flags().StringArrayVar(&query, "query", nil, "Query parameter as key=value (repeatable)")

	return cmd
}

func newAPIBodyCmd(method string) *cobra.Command {
	var data string
	var query []string

	upper := strings.ToUpper(method)
	cmd := &cobra.Command{
		Use:   method + " <path>",
		Short: upper + " request to API",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if data == "" {
				return output.ErrUsage("--data is required")
			}
			body, err := parseJSONObject(data)
			if err != nil {
				return err
			}
			q, err := parseQueryPairs(query)
			if err != nil {
				return err
			}
			app, c, err := client(cmd)
			if err != nil {
				return err
			}

			path := c.HTTP().V(args[0]) + c.HTTP().BuildQuery(q)

			var resp json.RawMessage
			if method == "put" {
				resp, err = c.HTTP().Put(cmd.Context(), path, body)
			} else {
				resp, err = c.HTTP().Post(cmd.Context(), path, body)
			}
			if err != nil {
				return err
			}

			return app.OK(resp, output.WithSummary(apiSummary(upper, path, resp)))
		},
	}

	cmd.Flags().StringVarP(&data, "data", "d", "", "JSON object body (or @file)")
	cmd.Flags().StringArrayVar(&query, "query", nil, "Query parameter as key=value (repeatable)")

	return cmd
}

// apiSummary describes a raw response: item count for list responses,
// otherwise the method and path.
func apiSummary(method, path string, resp json.RawMessage) string {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(resp, &obj); err == nil {
		for key, raw := range obj {
			if key == "pagination" {
				continue
			}
			var items []json.RawMessage
			if json.Unmarshal(raw, &items) == nil && len(obj) <= 2 {
				return fmt.Sprintf("%d %s", len(items), strings.ReplaceAll(key, "_", " "))
			}
		}
	}
	return fmt.Sprintf("%s %s", method, path)
}

// apiBreadcrumbs suggests the next page when the response is paginated.
func apiBreadcrumbs(resp json.RawMessage) []output.Breadcrumb {
	var page struct {
		Pagination *hubstaff.PageInfo `json:"pagination"`
	}
	if err := json.Unmarshal(resp, &page); err != nil || page.Pagination == nil || page.Pagination.NextPageStartID == "" {
		return nil
	}
	return []output.Breadcrumb{{
		Action:      "next",
		Cmd:         "--query page_start_id=" + string(page.Pagination.NextPageStartID),
		Description: "Repeat the request with this query to fetch the next page",
	}}
}
