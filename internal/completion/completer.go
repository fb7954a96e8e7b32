package completion

import (
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

// CacheDirFunc returns the cache directory to use for completion.
type CacheDirFunc func(cmd *cobra.Command) string

// DefaultCacheDirFunc defers to DefaultCacheDir. During __complete the
// root PersistentPreRunE does not run, so only the environment is consulted.
func DefaultCacheDirFunc(*cobra.Command) string {
	return ""
}

// Completer provides tab completion functions for the hubstaff CLI.
// It reads from the file-based cache and never calls the API.
type Completer struct {
	getCacheDir CacheDirFunc
}

// NewCompleter creates a new Completer. If getCacheDir is nil,
// DefaultCacheDirFunc is used.
func NewCompleter(getCacheDir CacheDirFunc) *Completer {
	if getCacheDir == nil {
		getCacheDir = DefaultCacheDirFunc
	}
	return &Completer{getCacheDir: getCacheDir}
}

func (c *Completer) store(cmd *cobra.Command) *Store {
	return NewStore(c.getCacheDir(cmd))
}

// OrganizationCompletion completes organization IDs, described by name.
func (c *Completer) OrganizationCompletion() cobra.CompletionFunc {
	return func(cmd *cobra.Command, args []string, toComplete string) ([]cobra.Completion, cobra.ShellCompDirective) {
		orgs := c.store(cmd).Organizations()
		sorted := make([]CachedOrganization, len(orgs))
		copy(sorted, orgs)
		sort.Slice(sorted, func(i, j int) bool {
			return strings.ToLower(sorted[i].Name) < strings.ToLower(sorted[j].Name)
		})

		var completions []cobra.Completion
		for _, o := range sorted {
			id := strconv.FormatInt(o.ID, 10)
			if matches(toComplete, id, o.Name) {
				completions = append(completions, cobra.CompletionWithDesc(id, o.Name))
			}
		}
		return completions, cobra.ShellCompDirectiveNoFileComp
	}
}

// ProjectCompletion completes project IDs. When the command line already
// carries --org, only that organization's projects are offered.
func (c *Completer) ProjectCompletion() cobra.CompletionFunc {
	return func(cmd *cobra.Command, args []string, toComplete string) ([]cobra.Completion, cobra.ShellCompDirective) {
		var orgID int64
		if f := cmd.Flag("org"); f != nil && f.Changed {
			orgID, _ = strconv.ParseInt(f.Value.String(), 10, 64)
		}

		var completions []cobra.Completion
		for _, p := range rankProjects(c.store(cmd).Projects(orgID)) {
			id := strconv.FormatInt(p.ID, 10)
			if matches(toComplete, id, p.Name) {
				completions = append(completions, cobra.CompletionWithDesc(id, p.Name))
			}
		}
		return completions, cobra.ShellCompDirectiveNoFileComp
	}
}

// matches reports whether the typed prefix selects an item by ID prefix
// or by a case-insensitive substring of its name.
func matches(toComplete, id, name string) bool {
	if toComplete == "" || strings.HasPrefix(id, toComplete) {
		return true
	}
	return strings.Contains(strings.ToLower(name), strings.ToLower(toComplete))
}

// rankProjects returns active projects first, then alphabetical.
func rankProjects(projects []CachedProject) []CachedProject {
	ranked := make([]CachedProject, len(projects))
	copy(ranked, projects)

	sort.SliceStable(ranked, func(i, j int) bool {
		iActive := ranked[i].Status == "" || ranked[i].Status == "active"
		jActive := ranked[j].Status == "" || ranked[j].Status == "active"
		if iActive != jActive {
			return iActive
		}
		return strings.ToLower(ranked[i].Name) < strings.ToLower(ranked[j].Name)
	})
	return ranked
}
