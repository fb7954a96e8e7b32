package commands

import (
	"bufio"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/hubstaff-go/hubstaff/internal/appctx"
	"github.com/hubstaff-go/hubstaff/internal/auth"
	"github.com/hubstaff-go/hubstaff/internal/output"
)

// NewAuthCmd creates the auth command.
func NewAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authenticate with Hubstaff",
		Long: `Manage the personal access token used to talk to Hubstaff.

The token is exchanged for short-lived access tokens. Every rotated token
set is stored so later commands skip the exchange until it expires.`,
	}

	cmd.AddCommand(
		newAuthLoginCmd(),
		newAuthLogoutCmd(),
		newAuthStatusCmd(),
		newAuthRefreshCmd(),
		newAuthTokenCmd(),
	)

	return cmd
}

func newAuthLoginCmd() *cobra.Command {
	var token string
	var withToken bool

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store a personal access token",
		Long: `Store a Hubstaff personal access token.

The token is validated by exchanging it for an access token before anything
is saved. Pass it with --token, pipe it with --with-token, or enter it at
the prompt.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := appctx.FromContext(cmd.Context())

			pat, err := readToken(app, token, withToken)
			if err != nil {
				return err
			}

			ts, err := app.Auth.Login(cmd.Context(), pat, app.ClientOptions...)
			if err != nil {
				return err
			}

			st := app.Auth.Status(cmd.Context(), time.Now())
			return app.OK(map[string]any{
				"status":     "authenticated",
				"origin":     st.Origin,
				"backend":    st.Backend,
				"expires_at": time.Unix(ts.ExpiresAt, 0).UTC().Format(time.RFC3339),
			},
				output.WithSummary(fmt.Sprintf("Logged in to %s", st.Origin)),
				output.WithBreadcrumbs(
					output.Breadcrumb{
						Action:      "organizations",
						Cmd:         "hubstaff organizations list",
						Description: "List organizations",
					},
				),
			)
		},
	}

	cmd.Flags().StringVar(&token, "token", "", "Personal access token")
	cmd.Flags().BoolVar(&withToken, "with-token", false, "Read the token from standard input")
	cmd.MarkFlagsMutuallyExclusive("token", "with-token")

	return cmd
}

func readToken(app *appctx.App, token string, withToken bool) (string, error) {
	switch {
	case token != "":
		return token, nil
	case withToken:
		line, err := bufio.NewReader(app.Stdin).ReadString('\n')
		if err != nil && line == "" {
			return "", output.ErrUsage("no token on standard input")
		}
		return strings.TrimSpace(line), nil
	case app.IsInteractive():
		var pat string
		err := huh.NewInput().
			Title("Personal access token").
			Description("Create one at https://developer.hubstaff.com/personal_access_tokens").
			EchoMode(huh.EchoModePassword).
			Value(&pat).
			Validate(func(s string) error {
				if strings.TrimSpace(s) == "" {
					return errors.New("token is required")
				}
				return nil
			}).
			Run()
		if err != nil {
			return "", err
		}
		return pat, nil
	default:
		return "", output.ErrUsageHint("personal access token is required",
			"Pass --token <pat>, pipe it with --with-token, or set "+auth.EnvPAT)
	}
}

func newAuthLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove stored credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := appctx.FromContext(cmd.Context())

			if err := app.Auth.Logout(cmd.Context()); err != nil {
				return err
			}
			return app.OK(map[string]any{
				"status": "logged_out",
				"origin": app.Auth.Origin(),
			}, output.WithSummary("Logged out of "+app.Auth.Origin()))
		},
	}
}

func newAuthStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show authentication status",
		Long:  "Show where credentials come from and when the stored access token expires. The API is not contacted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := appctx.FromContext(cmd.Context())

			st := app.Auth.Status(cmd.Context(), time.Now())
			if !st.Authenticated {
				return app.OK(st,
					output.WithSummary("Not authenticated"),
					output.WithBreadcrumbs(output.Breadcrumb{
						Action:      "login",
						Cmd:         "hubstaff auth login",
						Description: "Store a personal access token",
					}),
				)
			}

			summary := fmt.Sprintf("Authenticated via %s", st.Source)
			switch {
			case st.ExpiresAt == 0:
				summary += " (no access token yet)"
			case st.Expired:
				summary += " (access token expired, refreshed on next call)"
			default:
				summary += fmt.Sprintf(" (access token expires in %s)", time.Duration(st.ExpiresIn)*time.Second)
			}
			return app.OK(st, output.WithSummary(summary))
		},
	}
}

func newAuthRefreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Force a token refresh",
		Long:  "Exchange the current refresh token for a new token set and store it.",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, c, err := client(cmd)
			if err != nil {
				return err
			}

			ts, err := c.HTTP().Refresh(cmd.Context())
			if err != nil {
				return err
			}
			expires := time.Unix(ts.ExpiresAt, 0)
			return app.OK(map[string]any{
				"status":     "refreshed",
				"expires_at": expires.UTC().Format(time.RFC3339),
			}, output.WithSummary(fmt.Sprintf("Token refreshed, expires %s", expires.Format(time.Kitchen))))
		},
	}
}

func newAuthTokenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "token",
		Short: "Print a valid access token",
		Long: `Print an access token, refreshing it first when it is missing or about
to expire. Useful for calling the API with other tools:

  curl -H "Authorization: Bearer $(hubstaff auth token)" https://api.hubstaff.com/v2/users/me`,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, c, err := client(cmd)
			if err != nil {
				return err
			}

			token, err := c.HTTP().AccessToken(cmd.Context())
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}
}
