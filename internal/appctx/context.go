// Package appctx provides application context helpers.
package appctx

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/x/term"

	"github.com/hubstaff-go/hubstaff/internal/auth"
	"github.com/hubstaff-go/hubstaff/internal/config"
	"github.com/hubstaff-go/hubstaff/internal/observability"
	"github.com/hubstaff-go/hubstaff/internal/output"
	"github.com/hubstaff-go/hubstaff/internal/version"
	"github.com/hubstaff-go/hubstaff/pkg/hubstaff"
)

// contextKey is a private type for context keys.
type contextKey string

const appKey contextKey = "app"

// App holds the shared application context for all commands.
type App struct {
	Config *config.Config
	Auth   *auth.Manager
	Output *output.Writer
	Locale output.Locale
	Logger *slog.Logger

	// Observability
	Collector *observability.SessionCollector
	Hooks     *observability.CLIHooks

	// Flags holds the global flag values
	Flags GlobalFlags

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// ClientOptions are appended when the SDK client is built.
	ClientOptions []hubstaff.Option

	client *hubstaff.Client
}

// GlobalFlags holds values for global CLI flags.
type GlobalFlags struct {
	// Output format flags
	JSON    bool
	YAML    bool
	Quiet   bool
	MD      bool // Literal Markdown syntax output
	Styled  bool // Force ANSI styled output (even when piped)
	IDsOnly bool
	Count   bool
	Agent   bool
	JQ      string

	// Context flags
	Org         string
	APIURL      string
	AuthURL     string
	APIVersion  string
	TimeoutMS   int
	ArrayFormat string

	// Behavior flags
	Verbose int // 0=off, 1=refreshes+retries, 2=every request
	Stats   bool
}

// NewApp creates a new App with the given configuration and credential backend.
func NewApp(cfg *config.Config, backend auth.Backend) *App {
	// Level 0 initially; ApplyFlags sets the actual level from -v flags.
	collector := observability.NewSessionCollector()
	hooks := observability.NewCLIHooks(0, collector, observability.NewTraceWriter())

	app := &App{
		Config:    cfg,
		Auth:      auth.NewManager(cfg, backend),
		Locale:    output.DetectLocale(),
		Logger:    slog.New(slog.DiscardHandler),
		Collector: collector,
		Hooks:     hooks,
		Stdin:     os.Stdin,
		Stdout:    os.Stdout,
		Stderr:    os.Stderr,
	}
	app.Output = output.New(output.Options{Format: formatFromConfig(cfg.Format), Writer: app.Stdout})
	return app
}

// Close releases the credential backend's connections, if it holds any.
func (a *App) Close() error {
	if c, ok := a.Auth.Backend().(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func formatFromConfig(format string) output.Format {
	switch format {
	case "json":
		return output.FormatJSON
	case "yaml":
		return output.FormatYAML
	case "markdown", "md":
		return output.FormatMarkdown
	case "styled":
		return output.FormatStyled
	case "quiet":
		return output.FormatQuiet
	default:
		return output.FormatAuto
	}
}

// ApplyFlags applies global flag values to the app configuration.
func (a *App) ApplyFlags() {
	format := formatFromConfig(a.Config.Format)
	switch {
	case a.Flags.Agent:
		// Agent mode = quiet JSON (data only, no envelope)
		format = output.FormatQuiet
	case a.Flags.IDsOnly:
		format = output.FormatIDs
	case a.Flags.Count:
		format = output.FormatCount
	case a.Flags.Quiet:
		format = output.FormatQuiet
	case a.Flags.JSON:
		format = output.FormatJSON
	case a.Flags.YAML:
		format = output.FormatYAML
	case a.Flags.Styled:
		format = output.FormatStyled
	case a.Flags.MD:
		format = output.FormatMarkdown
	}
	a.Output = output.New(output.Options{
		Format:  format,
		Writer:  a.Stdout,
		Verbose: a.Flags.Verbose > 0,
		JQ:      a.Flags.JQ,
	})

	if !a.Flags.Stats && a.Config.Stats != nil {
		a.Flags.Stats = *a.Config.Stats
	}

	verboseLevel := a.Flags.Verbose
	if verboseLevel == 0 && a.Config.Verbose != nil {
		verboseLevel = *a.Config.Verbose
	}
	// HUBSTAFF_DEBUG can be "1", "2", or "true" (treated as 2)
	if debugEnv := os.Getenv("HUBSTAFF_DEBUG"); debugEnv != "" {
		if level, err := strconv.Atoi(debugEnv); err == nil {
			verboseLevel = max(verboseLevel, level)
		} else if debugEnv == "true" {
			verboseLevel = 2
		}
	}
	a.Flags.Verbose = verboseLevel

	if a.Hooks != nil {
		a.Hooks.SetLevel(verboseLevel)
	}
	if verboseLevel > 0 {
		a.Logger = slog.New(slog.NewTextHandler(a.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
	}
}

// Client returns the SDK client, building it on first use from the stored
// credentials. Commands that never call it work without a login.
func (a *App) Client(ctx context.Context) (*hubstaff.Client, error) {
	if a.client != nil {
		return a.client, nil
	}
	cfg, err := a.Auth.ClientConfig(ctx)
	if err != nil {
		return nil, err
	}
	opts := append([]hubstaff.Option{
		hubstaff.WithHooks(a.Hooks),
		hubstaff.WithLogger(a.Logger),
		hubstaff.WithUserAgent(version.UserAgent()),
	}, a.ClientOptions...)

	client, err := hubstaff.NewClient(cfg, opts...)
	if err != nil {
		return nil, output.FromSDK(err)
	}
	a.client = client
	return client, nil
}

// OrganizationID resolves the organization for commands that need one:
// an explicit argument wins over --org and the organization_id config key.
func (a *App) OrganizationID(explicit string) (int64, error) {
	raw := explicit
	if raw == "" {
		raw = a.Config.OrganizationID
	}
	if raw == "" {
		return 0, output.ErrUsageHint("organization is required",
			"Pass --org <id> or run: hubstaff config set organization_id <id>")
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, output.ErrUsage(fmt.Sprintf("invalid organization id %q", raw))
	}
	return id, nil
}

// OK outputs a success response, automatically including stats if --stats flag is set.
func (a *App) OK(data any, opts ...output.ResponseOption) error {
	if a.Flags.Stats && a.Collector != nil {
		opts = append(opts, output.WithMeta("stats", a.Collector.Summary().ToMap()))
	}
	return a.Output.OK(data, opts...)
}

// Err outputs an error response, printing stats to stderr if --stats flag is set.
func (a *App) Err(err error) error {
	if outputErr := a.Output.Err(err); outputErr != nil {
		return outputErr
	}

	// Machine-consumable modes keep stderr clean.
	if a.Flags.Stats && a.Collector != nil && !a.isMachineOutput() {
		if parts := a.Collector.Summary().FormatParts(); len(parts) > 0 {
			fmt.Fprintf(a.Stderr, "\nStats: %s\n", strings.Join(parts, " | "))
		}
	}
	return nil
}

// isMachineOutput returns true if the output mode is intended for programmatic consumption.
func (a *App) isMachineOutput() bool {
	if a.Flags.Agent || a.Flags.Quiet || a.Flags.IDsOnly || a.Flags.Count || a.Flags.JQ != "" {
		return true
	}
	return a.Config != nil && a.Config.Format == "quiet"
}

// IsInteractive returns true if stdin and stdout are terminals and no
// machine output mode is selected.
func (a *App) IsInteractive() bool {
	if a.Flags.Agent || a.Flags.JSON || a.Flags.YAML || a.Flags.Quiet || a.Flags.IDsOnly || a.Flags.Count || a.Flags.JQ != "" {
		return false
	}
	in, ok := a.Stdin.(*os.File)
	if !ok || !term.IsTerminal(in.Fd()) {
		return false
	}
	out, ok := a.Stdout.(*os.File)
	return ok && term.IsTerminal(out.Fd())
}

// WithApp stores the app in the context.
func WithApp(ctx context.Context, app *App) context.Context {
	return context.WithValue(ctx, appKey, app)
}

// FromContext retrieves the app from the context.
func FromContext(ctx context.Context) *App {
	app, _ := ctx.Value(appKey).(*App)
	return app
}
