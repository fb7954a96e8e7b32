// Package config provides layered configuration loading.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/hubstaff-go/hubstaff/internal/hostutil"
	"github.com/hubstaff-go/hubstaff/pkg/hubstaff"
)

// Config holds the resolved configuration.
type Config struct {
	// API settings
	AuthBaseURL string `json:"auth_base_url"`
	APIBaseURL  string `json:"api_base_url"`
	APIVersion  string `json:"api_version"`
	TimeoutMS   int    `json:"timeout_ms"`
	ArrayFormat string `json:"array_format"`

	// Default organization for commands that need one.
	OrganizationID string `json:"organization_id"`

	// Credential storage: auto, keyring, file or redis.
	TokenStore string `json:"token_store"`
	RedisURL   string `json:"redis_url"`

	// Output settings
	Format string `json:"format"`

	// Behavior preferences (persisted via config set, overridable by flags)
	Stats   *bool `json:"stats,omitempty"`
	Verbose *int  `json:"verbose,omitempty"`

	// Sources tracks where each value came from (for debugging).
	Sources map[string]string `json:"-"`
}

// Source indicates where a config value came from.
type Source string

const (
	SourceDefault Source = "default"
	SourceSystem  Source = "system"
	SourceGlobal  Source = "global"
	SourceLocal   Source = "local"
	SourceEnv     Source = "env"
	SourceFlag    Source = "flag"
)

// FlagOverrides holds command-line flag values.
type FlagOverrides struct {
	AuthBaseURL    string
	APIBaseURL     string
	APIVersion     string
	TimeoutMS      int
	ArrayFormat    string
	OrganizationID string
	Format         string
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		AuthBaseURL: hubstaff.DefaultAuthBaseURL,
		APIBaseURL:  hubstaff.DefaultAPIBaseURL,
		APIVersion:  hubstaff.DefaultAPIVersion,
		TimeoutMS:   int(hubstaff.DefaultTimeout.Milliseconds()),
		ArrayFormat: string(hubstaff.ArrayComma),
		TokenStore:  "auto",
		Format:      "auto",
		Sources:     make(map[string]string),
	}
}

// Load loads configuration from all sources with proper precedence.
// Precedence: flags > env > local > global > system > defaults
func Load(overrides FlagOverrides) (*Config, error) {
	cfg := Default()

	loadFromFile(cfg, systemConfigPath(), SourceSystem)
	loadFromFile(cfg, GlobalConfigPath(), SourceGlobal)
	if p := LocalConfigPath(); p != "" {
		loadFromFile(cfg, p, SourceLocal)
	}

	LoadFromEnv(cfg)
	ApplyOverrides(cfg, overrides)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// authorityKeys decide where credentials are sent or stored. They are not
// accepted from a local config file.
var authorityKeys = map[string]bool{
	"auth_base_url": true,
	"api_base_url":  true,
	"redis_url":     true,
	"token_store":   true,
}

// IsAuthorityKey reports whether key is ignored in local config files.
func IsAuthorityKey(key string) bool {
	return authorityKeys[key]
}

func loadFromFile(cfg *Config, path string, source Source) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: Path is from trusted config locations
	if err != nil {
		return
	}

	var fileCfg map[string]any
	if err := json.Unmarshal(data, &fileCfg); err != nil {
		fmt.Fprintf(os.Stderr, "warning: skipping malformed config at %s: %v\n", path, err)
		return
	}

	for key, raw := range fileCfg {
		if source == SourceLocal && authorityKeys[key] {
			fmt.Fprintf(os.Stderr, "warning: ignoring %s from local config at %s (authority keys are not trusted from local config)\n", key, path)
			continue
		}
		v := getStringOrNumber(fileCfg, key)
		switch key {
		case "stats":
			if b, ok := raw.(bool); ok {
				cfg.Stats = &b
				cfg.Sources[key] = string(source)
			}
			continue
		case "verbose":
			fv, ok := raw.(float64)
			iv := int(fv)
			if !ok || iv < 0 || iv > 2 || fv != float64(iv) {
				continue
			}
			cfg.Verbose = &iv
			cfg.Sources[key] = string(source)
			continue
		}
		if v == "" {
			continue
		}
		if cfg.Set(key, v) == nil {
			cfg.Sources[key] = string(source)
		}
	}
}

// envKeys maps environment variables to config keys.
var envKeys = []struct{ env, key string }{
	{"HUBSTAFF_AUTH_URL", "auth_base_url"},
	{"HUBSTAFF_API_URL", "api_base_url"},
	{"HUBSTAFF_API_VERSION", "api_version"},
	{"HUBSTAFF_TIMEOUT_MS", "timeout_ms"},
	{"HUBSTAFF_ARRAY_FORMAT", "array_format"},
	{"HUBSTAFF_ORGANIZATION_ID", "organization_id"},
	{"HUBSTAFF_TOKEN_STORE", "token_store"},
	{"HUBSTAFF_REDIS_URL", "redis_url"},
}

// LoadFromEnv loads configuration from environment variables.
func LoadFromEnv(cfg *Config) {
	for _, e := range envKeys {
		if v := os.Getenv(e.env); v != "" {
			if err := cfg.Set(e.key, v); err != nil {
				fmt.Fprintf(os.Stderr, "warning: ignoring %s: %v\n", e.env, err)
				continue
			}
			cfg.Sources[e.key] = string(SourceEnv)
		}
	}
	if v := os.Getenv("HUBSTAFF_STATS"); v != "" {
		if b, ok := parseEnvBool(v); ok {
			cfg.Stats = &b
			cfg.Sources["stats"] = string(SourceEnv)
		}
	}
}

// Set assigns a string-typed value to the field named by key.
func (cfg *Config) Set(key, v string) error {
	switch key {
	case "auth_base_url":
		cfg.AuthBaseURL = NormalizeBaseURL(v)
	case "api_base_url":
		cfg.APIBaseURL = NormalizeBaseURL(v)
	case "api_version":
		cfg.APIVersion = strings.Trim(v, "/")
	case "timeout_ms":
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return fmt.Errorf("timeout_ms must be a positive integer")
		}
		cfg.TimeoutMS = n
	case "array_format":
		cfg.ArrayFormat = v
	case "organization_id":
		cfg.OrganizationID = v
	case "token_store":
		cfg.TokenStore = v
	case "redis_url":
		cfg.RedisURL = v
	case "format":
		cfg.Format = v
	default:
		return fmt.Errorf("unknown config key %q", key)
	}
	return nil
}

// Validate checks enumerated values and refuses insecure base URLs.
func (cfg *Config) Validate() error {
	for _, u := range []string{cfg.AuthBaseURL, cfg.APIBaseURL} {
		if err := hostutil.RequireSecureURL(u); err != nil {
			return err
		}
	}
	switch hubstaff.ArrayFormat(cfg.ArrayFormat) {
	case hubstaff.ArrayComma, hubstaff.ArrayRepeat:
	default:
		return fmt.Errorf("array_format must be %q or %q, got %q", hubstaff.ArrayComma, hubstaff.ArrayRepeat, cfg.ArrayFormat)
	}
	switch cfg.TokenStore {
	case "auto", "keyring", "file", "redis":
	default:
		return fmt.Errorf("token_store must be one of auto, keyring, file, redis; got %q", cfg.TokenStore)
	}
	if cfg.TokenStore == "redis" && cfg.RedisURL == "" {
		return fmt.Errorf("token_store redis requires redis_url")
	}
	return nil
}

// parseEnvBool parses a boolean environment variable strictly.
// Unrecognized values are ignored to preserve three-state pointer semantics.
func parseEnvBool(v string) (bool, bool) {
	switch strings.ToLower(v) {
	case "true", "1":
		return true, true
	case "false", "0":
		return false, true
	default:
		return false, false
	}
}

// getStringOrNumber extracts a value that may be either a string or number in JSON.
func getStringOrNumber(m map[string]any, key string) string {
	v, ok := m[key]
	if !ok || v == nil {
		return ""
	}
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return ""
	}
}

// ApplyOverrides applies non-empty flag overrides to cfg.
func ApplyOverrides(cfg *Config, o FlagOverrides) {
	apply := func(key, v string) {
		if v == "" {
			return
		}
		if err := cfg.Set(key, v); err == nil {
			cfg.Sources[key] = string(SourceFlag)
		}
	}
	apply("auth_base_url", o.AuthBaseURL)
	apply("api_base_url", o.APIBaseURL)
	apply("api_version", o.APIVersion)
	if o.TimeoutMS > 0 {
		apply("timeout_ms", strconv.Itoa(o.TimeoutMS))
	}
	apply("array_format", o.ArrayFormat)
	apply("organization_id", o.OrganizationID)
	apply("format", o.Format)
}

// Path helpers

func systemConfigPath() string {
	return "/etc/hubstaff/config.json"
}

// GlobalConfigPath returns the per-user config file path.
func GlobalConfigPath() string {
	return filepath.Join(GlobalConfigDir(), "config.json")
}

// LocalConfigPath returns ./.hubstaff/config.json when it exists. Parent
// directories are not searched.
func LocalConfigPath() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	p := filepath.Join(dir, ".hubstaff", "config.json")
	if _, err := os.Stat(p); err != nil {
		return ""
	}
	return p
}

// GlobalConfigDir returns the global config directory path.
func GlobalConfigDir() string {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		home, _ := os.UserHomeDir()
		configDir = filepath.Join(home, ".config")
	}
	return filepath.Join(configDir, "hubstaff")
}

// NormalizeBaseURL ensures consistent URL format: a scheme and no
// trailing slash.
func NormalizeBaseURL(url string) string {
	return hostutil.Normalize(url)
}

// Keys lists the keys accepted by config set, in display order.
func Keys() []string {
	return []string{
		"auth_base_url", "api_base_url", "api_version", "timeout_ms", "array_format",
		"organization_id", "token_store", "redis_url", "format", "stats", "verbose",
	}
}
