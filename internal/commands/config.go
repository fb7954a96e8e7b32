package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hubstaff-go/hubstaff/internal/appctx"
	"github.com/hubstaff-go/hubstaff/internal/config"
	"github.com/hubstaff-go/hubstaff/internal/output"
)

// NewConfigCmd creates the config command for managing configuration.
func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
		Long: `Manage hubstaff configuration.

Configuration is loaded from multiple sources with the following precedence:
  flags > env > local > global > system > defaults

Config locations:
  - System: /etc/hubstaff/config.json
  - Global: ~/.config/hubstaff/config.json
  - Local:  .hubstaff/config.json

Keys that decide where credentials are sent or stored (auth_base_url,
api_base_url, token_store, redis_url) are only read from global and
system config.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigShow(cmd)
		},
	}

	cmd.AddCommand(
		newConfigShowCmd(),
		newConfigSetCmd(),
		newConfigUnsetCmd(),
	)

	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show effective configuration",
		Long:  "Display the current effective configuration with source information.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigShow(cmd)
		},
	}
}

func runConfigShow(cmd *cobra.Command) error {
	app := appctx.FromContext(cmd.Context())
	cfg := app.Config

	keys := []struct {
		key     string
		value   string
		include bool
	}{
		{"auth_base_url", cfg.AuthBaseURL, true},
		{"api_base_url", cfg.APIBaseURL, true},
		{"api_version", cfg.APIVersion, true},
		{"timeout_ms", strconv.Itoa(cfg.TimeoutMS), true},
		{"array_format", cfg.ArrayFormat, true},
		{"organization_id", cfg.OrganizationID, cfg.OrganizationID != ""},
		{"token_store", cfg.TokenStore, true},
		{"redis_url", redactURL(cfg.RedisURL), cfg.RedisURL != ""},
		{"format", cfg.Format, true},
		{"stats", fmt.Sprintf("%t", cfg.Stats != nil && *cfg.Stats), cfg.Stats != nil},
		{"verbose", fmt.Sprintf("%d", derefInt(cfg.Verbose)), cfg.Verbose != nil},
	}

	configData := make(map[string]any)
	for _, k := range keys {
		if k.include {
			source := cfg.Sources[k.key]
			if source == "" {
				source = string(config.SourceDefault)
			}
			configData[k.key] = map[string]string{
				"value":  k.value,
				"source": source,
			}
		}
	}

	return app.OK(configData,
		output.WithSummary("Effective configuration"),
		output.WithBreadcrumbs(
			output.Breadcrumb{
				Action:      "set",
				Cmd:         "hubstaff config set <key> <value>",
				Description: "Set config value",
			},
		),
	)
}

// redactURL hides the password of a redis URL.
func redactURL(raw string) string {
	scheme, rest, ok := strings.Cut(raw, "://")
	if !ok {
		return raw
	}
	userinfo, host, ok := strings.Cut(rest, "@")
	if !ok {
		return raw
	}
	if user, _, hasPass := strings.Cut(userinfo, ":"); hasPass {
		return scheme + "://" + user + ":xxxxx@" + host
	}
	return raw
}

func configTarget(global bool) (path, scope string) {
	if global {
		return config.GlobalConfigPath(), string(config.SourceGlobal)
	}
	return filepath.Join(".hubstaff", "config.json"), string(config.SourceLocal)
}

func readConfigFile(path string) map[string]any {
	configData := make(map[string]any)
	if data, err := os.ReadFile(path); err == nil { //nolint:gosec // G304: Path is from trusted config location
		_ = json.Unmarshal(data, &configData) // Ignore error - start fresh if invalid
	}
	return configData
}

func writeConfigFile(path string, configData map[string]any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := json.MarshalIndent(configData, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := atomicWriteFile(path, append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func newConfigSetCmd() *cobra.Command {
	var global bool

	cmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Long: `Set a configuration value in the local or global config file.

Valid keys: ` + strings.Join(config.Keys(), ", "),
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := appctx.FromContext(cmd.Context())
			key, value := args[0], args[1]

			if !slices.Contains(config.Keys(), key) {
				return output.ErrUsage(fmt.Sprintf("Invalid config key %q. Valid keys: %s", key, strings.Join(config.Keys(), ", ")))
			}
			if !global && config.IsAuthorityKey(key) {
				return output.ErrUsageHint(fmt.Sprintf("%s can only be set globally", key),
					fmt.Sprintf("Run: hubstaff config set %s %s --global", key, value))
			}

			// Validate against a scratch config so bad values never reach disk.
			candidate := config.Default()
			valueOut := value
			var stored any = value
			switch key {
			case "stats":
				boolVal, ok := parseBoolFlag(value)
				if !ok {
					return output.ErrUsage(fmt.Sprintf("%s must be true/false (or 1/0)", key))
				}
				stored, valueOut = boolVal, strconv.FormatBool(boolVal)
			case "verbose":
				level, err := strconv.Atoi(value)
				if err != nil || level < 0 || level > 2 {
					return output.ErrUsage("verbose must be 0, 1, or 2")
				}
				stored = level
			case "timeout_ms":
				n, err := strconv.Atoi(value)
				if err != nil || n <= 0 {
					return output.ErrUsage("timeout_ms must be a positive integer")
				}
				stored = n
			default:
				if err := candidate.Set(key, value); err != nil {
					return output.ErrUsage(err.Error())
				}
				if key == "token_store" && value == "redis" {
					candidate.RedisURL = "redis://placeholder"
				}
				if err := candidate.Validate(); err != nil {
					return output.ErrUsage(err.Error())
				}
			}

			path, scope := configTarget(global)
			configData := readConfigFile(path)
			configData[key] = stored
			if err := writeConfigFile(path, configData); err != nil {
				return err
			}

			return app.OK(map[string]any{
				"key":    key,
				"value":  valueOut,
				"scope":  scope,
				"path":   path,
				"status": "set",
			},
				output.WithSummary(fmt.Sprintf("Set %s = %s (%s)", key, valueOut, scope)),
				output.WithBreadcrumbs(
					output.Breadcrumb{
						Action:      "show",
						Cmd:         "hubstaff config show",
						Description: "View config",
					},
				),
			)
		},
	}

	cmd.Flags().BoolVar(&global, "global", false, "Set in global config (~/.config/hubstaff/)")

	return cmd
}

func derefInt(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

func parseBoolFlag(value string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "1", "yes", "on":
		return true, true
	case "false", "0", "no", "off":
		return false, true
	default:
		return false, false
	}
}

func newConfigUnsetCmd() *cobra.Command {
	var global bool

	cmd := &cobra.Command{
		Use:   "unset <key>",
		Short: "Unset a configuration value",
		Long:  "Remove a configuration value from the local or global config file.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := appctx.FromContext(cmd.Context())
			key := args[0]
			path, scope := configTarget(global)

			if _, err := os.Stat(path); err != nil {
				return app.OK(map[string]any{
					"key":    key,
					"status": "not_found",
				}, output.WithSummary(fmt.Sprintf("Config file not found: %s", path)))
			}

			configData := readConfigFile(path)
			if _, exists := configData[key]; !exists {
				return app.OK(map[string]any{
					"key":    key,
					"status": "not_set",
				}, output.WithSummary(fmt.Sprintf("Key not set: %s", key)))
			}

			delete(configData, key)
			if err := writeConfigFile(path, configData); err != nil {
				return err
			}

			return app.OK(map[string]any{
				"key":    key,
				"scope":  scope,
				"status": "unset",
			},
				output.WithSummary(fmt.Sprintf("Unset %s (%s)", key, scope)),
				output.WithBreadcrumbs(
					output.Breadcrumb{
						Action:      "show",
						Cmd:         "hubstaff config show",
						Description: "View config",
					},
				),
			)
		},
	}

	cmd.Flags().BoolVar(&global, "global", false, "Unset from global config")

	return cmd
}
