package commands

import (
	"github.com/spf13/cobra"

	"github.com/hubstaff-go/hubstaff/internal/appctx"
	"github.com/hubstaff-go/hubstaff/internal/output"
)

// CommandInfo is one catalog entry. Actions are the command's subcommands.
type CommandInfo struct {
	Name        string   `json:"name"`
	Category    string   `json:"category"`
	Description string   `json:"description"`
	Actions     []string `json:"actions,omitempty"`
}

type CommandCategory struct {
	Name     string        `json:"name"`
	Commands []CommandInfo `json:"commands"`
}

// catalogLayout orders top-level commands into categories. Descriptions and
// actions are read from the command tree itself.
var catalogLayout = []struct {
	title, key string
	names      []string
}{
	{"Core Commands", "core", []string{"organizations", "projects", "tasks"}},
	{"Time & Reports", "time", []string{"time-entries", "activities", "timesheets"}},
	{"Auth & Config", "auth", []string{"auth", "config"}},
	{"Additional Commands", "additional", []string{"api", "demo", "commands", "completion", "help", "version"}},
}

// Built into cobra rather than returned by All.
var builtinCommands = map[string]string{
	"help":    "Help about any command",
	"version": "Show version",
}

func commandCategories() []CommandCategory {
	byName := make(map[string]*cobra.Command)
	for _, cmd := range All() {
		byName[cmd.Name()] = cmd
	}

	out := make([]CommandCategory, 0, len(catalogLayout))
	for _, group := range catalogLayout {
		cat := CommandCategory{Name: group.title}
		for _, name := range group.names {
			info := CommandInfo{Name: name, Category: group.key, Description: builtinCommands[name]}
			if cmd, ok := byName[name]; ok {
				info.Description = cmd.Short
				for _, sub := range cmd.Commands() {
					info.Actions = append(info.Actions, sub.Name())
				}
			}
			cat.Commands = append(cat.Commands, info)
		}
		out = append(out, cat)
	}
	return out
}

// CatalogCommandNames lists every command the catalog documents.
func CatalogCommandNames() []string {
	var names []string
	for _, group := range catalogLayout {
		names = append(names, group.names...)
	}
	return names
}

func NewCommandsCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "commands",
		Aliases: []string{"cmds"},
		Short:   "List all available commands",
		Long:    "List all available hubstaff commands organized by category.",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := appctx.FromContext(cmd.Context())
			return app.OK(commandCategories(),
				output.WithSummary("All available hubstaff commands"),
				output.WithBreadcrumbs(output.Breadcrumb{
					Action:      "help",
					Cmd:         "hubstaff --help",
					Description: "View help",
				}),
			)
		},
	}
}

// All returns every top-level command in registration order.
func All() []*cobra.Command {
	return []*cobra.Command{
		NewAuthCmd(),
		NewOrganizationsCmd(),
		NewProjectsCmd(),
		NewTasksCmd(),
		NewTimeEntriesCmd(),
		NewActivitiesCmd(),
		NewTimesheetsCmd(),
		NewAPICmd(),
		NewConfigCmd(),
		NewDemoCmd(),
		NewCommandsCmd(),
		NewCompletionCmd(),
	}
}
