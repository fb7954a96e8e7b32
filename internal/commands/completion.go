package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hubstaff-go/hubstaff/internal/appctx"
	"github.com/hubstaff-go/hubstaff/internal/completion"
	"github.com/hubstaff-go/hubstaff/internal/output"
	"github.com/hubstaff-go/hubstaff/pkg/hubstaff"
)

// NewCompletionCmd creates the completion command group.
func NewCompletionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [shell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for hubstaff.

To load completions:

Bash:
  $ source <(hubstaff completion bash)

Zsh:
  $ hubstaff completion zsh > "${fpath[1]}/_hubstaff"

Fish:
  $ hubstaff completion fish > ~/.config/fish/completions/hubstaff.fish

PowerShell:
  PS> hubstaff completion powershell | Out-String | Invoke-Expression

Organization and project IDs complete from a local cache. It is updated
whenever you list organizations or projects, or explicitly with
"hubstaff completion refresh".`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompletion(cmd, args[0])
		},
	}

	for _, shell := range []string{"bash", "zsh", "fish", "powershell"} {
		cmd.AddCommand(&cobra.Command{
			Use:                   shell,
			Short:                 fmt.Sprintf("Generate %s completion script", shell),
			DisableFlagsInUseLine: true,
			Args:                  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runCompletion(cmd, shell)
			},
		})
	}

	cmd.AddCommand(newCompletionRefreshCmd())
	cmd.AddCommand(newCompletionStatusCmd())

	return cmd
}

func runCompletion(cmd *cobra.Command, shell string) error {
	root, out := cmd.Root(), cmd.OutOrStdout()
	switch shell {
	case "bash":
		return root.GenBashCompletionV2(out, true)
	case "zsh":
		return root.GenZshCompletion(out)
	case "fish":
		return root.GenFishCompletion(out, true)
	case "powershell":
		return root.GenPowerShellCompletionWithDesc(out)
	default:
		return output.ErrUsage(fmt.Sprintf("unknown shell: %s", shell))
	}
}

func newCompletionRefreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Refresh the completion cache",
		Long:  "Fetch organizations and their projects and store them for tab completion. Requires authentication.",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, c, err := client(cmd)
			if err != nil {
				return err
			}

			store := completion.NewStore("")
			result := completion.NewRefresher(store, c).RefreshAll(cmd.Context())
			if result.OrganizationsErr != nil {
				return result.OrganizationsErr
			}

			data := map[string]any{
				"organizations": result.OrganizationsCount,
				"projects":      result.ProjectsCount,
				"cache_path":    store.Path(),
			}
			summary := fmt.Sprintf("Cached %s and %s",
				pluralize(result.OrganizationsCount, "organization", "organizations"),
				pluralize(result.ProjectsCount, "project", "projects"))
			if result.ProjectsErr != nil {
				data["projects_error"] = result.ProjectsErr.Error()
				summary += fmt.Sprintf(" (warning: %v)", result.ProjectsErr)
			}
			return app.OK(data, output.WithSummary(summary))
		},
	}
}

func newCompletionStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show completion cache status",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := appctx.FromContext(cmd.Context())

			store := completion.NewStore("")
			cache, err := store.Load()
			if err != nil {
				return err
			}

			stale := store.IsStale(completion.DefaultMaxAge)
			status := "fresh"
			switch {
			case len(cache.Organizations) == 0 && len(cache.Projects) == 0:
				status = "empty"
			case stale:
				status = "stale"
			}

			return app.OK(map[string]any{
				"organizations":            len(cache.Organizations),
				"projects":                 len(cache.Projects),
				"organizations_updated_at": formatCacheTime(cache.OrganizationsUpdatedAt),
				"projects_updated_at":      formatCacheTime(cache.ProjectsUpdatedAt),
				"status":                   status,
				"stale":                    stale,
				"cache_path":               store.Path(),
			}, output.WithSummary(fmt.Sprintf("%s, %s (%s)",
				pluralize(len(cache.Organizations), "organization", "organizations"),
				pluralize(len(cache.Projects), "project", "projects"), status)))
		},
	}
}

func formatCacheTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

// cacheOrganizations records listed organizations for tab completion.
// Cache failures never fail the command.
func cacheOrganizations(app *appctx.App, orgs []hubstaff.Organization) {
	if err := completion.NewStore("").UpdateOrganizations(completion.ConvertOrganizations(orgs)); err != nil {
		app.Logger.Debug("completion cache update failed", "error", err)
	}
}

// cacheProjects records the first page of an organization's projects.
func cacheProjects(app *appctx.App, orgID int64, projects []hubstaff.Project) {
	if err := completion.NewStore("").UpdateProjects(orgID, completion.ConvertProjects(orgID, projects)); err != nil {
		app.Logger.Debug("completion cache update failed", "error", err)
	}
}

var completer = completion.NewCompleter(nil)

// registerProjectCompletion wires project ID completion to a flag.
func registerProjectCompletion(cmd *cobra.Command, flag string) {
	_ = cmd.RegisterFlagCompletionFunc(flag, completer.ProjectCompletion())
}
