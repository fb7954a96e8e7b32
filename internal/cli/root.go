package cli

import (
	"context"
	"errors"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/hubstaff-go/hubstaff/internal/appctx"
	"github.com/hubstaff-go/hubstaff/internal/auth"
	"github.com/hubstaff-go/hubstaff/internal/commands"
	"github.com/hubstaff-go/hubstaff/internal/completion"
	"github.com/hubstaff-go/hubstaff/internal/config"
	"github.com/hubstaff-go/hubstaff/internal/output"
	"github.com/hubstaff-go/hubstaff/internal/version"
	"github.com/hubstaff-go/hubstaff/pkg/hubstaff"
)

// NewRootCmd creates the root cobra command without subcommands.
func NewRootCmd() *cobra.Command {
	var flags appctx.GlobalFlags
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:           "hubstaff",
		Short:         "Command-line interface for Hubstaff",
		Long:          "hubstaff is a CLI for the Hubstaff time-tracking API: organizations, projects, tasks, time entries, activities, and timesheets.",
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Skip setup for help and version commands
			if cmd.Name() == "help" || cmd.Name() == "version" {
				return nil
			}

			flags.TimeoutMS = int(timeout.Milliseconds())
			cfg, err := config.Load(config.FlagOverrides{
				AuthBaseURL:    flags.AuthURL,
				APIBaseURL:     flags.APIURL,
				APIVersion:     flags.APIVersion,
				TimeoutMS:      flags.TimeoutMS,
				ArrayFormat:    flags.ArrayFormat,
				OrganizationID: flags.Org,
			})
			if err != nil {
				return output.ErrUsage(err.Error())
			}

			backend, err := auth.OpenBackend(cfg)
			if err != nil {
				return output.ErrUsageHint(err.Error(), "Set token_store to file or fix redis_url")
			}

			app := appctx.NewApp(cfg, backend)
			app.Stdin = cmd.InOrStdin()
			app.Stdout = cmd.OutOrStdout()
			app.Stderr = cmd.ErrOrStderr()
			app.Flags = flags
			app.ApplyFlags()

			cmd.SetContext(appctx.WithApp(cmd.Context(), app))
			return nil
		},
	}

	// Allow flags anywhere in the command line; --api_url works like --api-url.
	cmd.Flags().SetInterspersed(true)
	cmd.PersistentFlags().SetInterspersed(true)
	cmd.SetGlobalNormalizationFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	// Output format flags
	cmd.PersistentFlags().BoolVarP(&flags.JSON, "json", "j", false, "Output as JSON")
	cmd.PersistentFlags().BoolVar(&flags.YAML, "yaml", false, "Output as YAML")
	cmd.PersistentFlags().BoolVarP(&flags.Quiet, "quiet", "q", false, "Output data only, no envelope")
	cmd.PersistentFlags().BoolVarP(&flags.MD, "md", "m", false, "Output as Markdown (portable)")
	cmd.PersistentFlags().BoolVar(&flags.MD, "markdown", false, "Output as Markdown (portable)")
	cmd.PersistentFlags().BoolVar(&flags.Styled, "styled", false, "Force styled output (ANSI colors)")
	cmd.PersistentFlags().BoolVar(&flags.IDsOnly, "ids-only", false, "Output only IDs")
	cmd.PersistentFlags().BoolVar(&flags.Count, "count", false, "Output only count")
	cmd.PersistentFlags().BoolVar(&flags.Agent, "agent", false, "Agent mode (JSON + quiet)")
	cmd.PersistentFlags().StringVar(&flags.JQ, "jq", "", "Filter the JSON envelope with a jq expression")

	// Context flags
	cmd.PersistentFlags().StringVarP(&flags.Org, "org", "o", "", "Organization ID")
	cmd.PersistentFlags().StringVar(&flags.APIURL, "api-url", "", "API base URL (e.g. https://api.hubstaff.com)")
	cmd.PersistentFlags().StringVar(&flags.AuthURL, "auth-url", "", "Auth base URL (e.g. https://account.hubstaff.com)")
	cmd.PersistentFlags().StringVar(&flags.APIVersion, "api-version", "", "API version segment (default v2)")
	cmd.PersistentFlags().DurationVar(&timeout, "timeout", 0, "Per-request timeout (e.g. 10s)")
	cmd.PersistentFlags().StringVar(&flags.ArrayFormat, "array-format", "", "Array query encoding: comma or repeat")

	// Behavior flags
	cmd.PersistentFlags().CountVarP(&flags.Verbose, "verbose", "v", "Verbose output (-v for refreshes and retries, -vv for requests)")
	cmd.PersistentFlags().BoolVar(&flags.Stats, "stats", false, "Show session statistics")

	completer := completion.NewCompleter(nil)
	_ = cmd.RegisterFlagCompletionFunc("org", completer.OrganizationCompletion())
	_ = cmd.RegisterFlagCompletionFunc("array-format", cobra.FixedCompletions(
		[]cobra.Completion{"comma", "repeat"}, cobra.ShellCompDirectiveNoFileComp))

	return cmd
}

// New creates the root command with every subcommand registered.
func New() *cobra.Command {
	cmd := NewRootCmd()
	cmd.AddCommand(commands.All()...)
	return cmd
}

// Execute runs the CLI and exits with its status code.
func Execute() {
	os.Exit(Run(context.Background(), New(), os.Args[1:]))
}

// Run executes cmd with args and returns the process exit code. Errors are
// rendered in the selected output format before returning.
func Run(ctx context.Context, cmd *cobra.Command, args []string) int {
	cmd.SetArgs(args)

	// Use ExecuteC to get the executed command (for correct context access)
	executedCmd, err := cmd.ExecuteContextC(ctx)

	var app *appctx.App
	if executedCmd != nil {
		app = appctx.FromContext(executedCmd.Context())
	}
	if app != nil {
		defer func() { _ = app.Close() }()
	}
	if err == nil {
		return output.ExitOK
	}

	err = output.FromSDK(transformCobraError(err))
	apiErr := output.AsError(err)

	// app.Err honors --stats and the selected format
	if app != nil {
		_ = app.Err(err)
		return apiErr.ExitCode()
	}

	// Fallback: output error directly (app not available, e.g., during setup)
	writer := output.New(output.Options{
		Format: fallbackFormat(cmd.PersistentFlags()),
		Writer: cmd.OutOrStdout(),
	})
	_ = writer.Err(err)
	return apiErr.ExitCode()
}

// fallbackFormat picks the error format from raw flags when setup failed
// before the app existed.
func fallbackFormat(pf *pflag.FlagSet) output.Format {
	is := func(name string) bool {
		v, _ := pf.GetBool(name)
		return v
	}
	switch {
	case is("agent") || is("quiet"):
		return output.FormatQuiet
	case is("ids-only"):
		return output.FormatIDs
	case is("count"):
		return output.FormatCount
	case is("json"):
		return output.FormatJSON
	case is("yaml"):
		return output.FormatYAML
	case is("styled"):
		return output.FormatStyled
	case is("md"):
		return output.FormatMarkdown
	default:
		return output.FormatAuto
	}
}

var (
	shorthandFlagRe = regexp.MustCompile(`unknown shorthand flag: '.' in (-\w)`)
	requiredFlagRe  = regexp.MustCompile(`required flag\(s\) "([\w-]+)" not set`)
)

// transformCobraError turns Cobra's parse errors into usage errors with
// consistent wording.
func transformCobraError(err error) error {
	var outErr *output.Error
	if errors.As(err, &outErr) {
		return err
	}
	if _, ok := hubstaff.AsError(err); ok {
		return err
	}
	msg := err.Error()

	// "flag needs an argument: --FLAG" → "--FLAG requires a value"
	if flag, ok := strings.CutPrefix(msg, "flag needs an argument: "); ok {
		return output.ErrUsage(flag + " requires a value")
	}

	// "unknown flag: --FLAG" → "Unknown option: --FLAG"
	if flag, ok := strings.CutPrefix(msg, "unknown flag: "); ok {
		return output.ErrUsage("Unknown option: " + flag)
	}

	// "unknown shorthand flag: 'X' in -X" → "Unknown option: -X"
	if matches := shorthandFlagRe.FindStringSubmatch(msg); len(matches) > 1 {
		return output.ErrUsage("Unknown option: " + matches[1])
	}

	if strings.HasPrefix(msg, "unknown command ") {
		return output.ErrUsageHint(msg, "Run: hubstaff commands")
	}

	if strings.Contains(msg, "invalid argument") {
		return output.ErrUsage(msg)
	}

	// "accepts N arg(s), received 0" → "ID required"
	if strings.Contains(msg, "arg(s), received 0") {
		return output.ErrUsage("ID required")
	}
	if strings.Contains(msg, "arg(s), received") {
		return output.ErrUsage(msg)
	}

	// "required flag(s) "project" not set" → "--project required"
	if matches := requiredFlagRe.FindStringSubmatch(msg); len(matches) > 1 {
		return output.ErrUsage("--" + matches[1] + " required")
	}

	if strings.HasPrefix(msg, "if any flags in the group") {
		return output.ErrUsage(msg)
	}

	return err
}
