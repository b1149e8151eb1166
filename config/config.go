// Package config provides YAML configuration parsing for serverboard.
//
// This package enables running serverboard as a standalone binary with a
// configuration file, as an alternative to the programmatic SDK approach.
//
// Example configuration:
//
//	port: 8080
//	mode: coupled
//	refresh_interval: 5s
//
//	servers:
//	  - "1234567"
//	  - "7654321"
//
//	status_api:
//	  timeout: 10s
//	  max_retries: 3
//	  initial_backoff: 1s
//
//	discord:
//	  token: ${DISCORD_TOKEN}
//	  channel_id: ${DISCORD_CHANNEL_ID}
//
// Environment variables override the file: DISCORD_TOKEN,
// DISCORD_CHANNEL_ID and PORT always win, and SERVER_1_ID, SERVER_2_ID, ...
// supply the server list when the file has none.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"regexp"
	"strconv"
	"text/template"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/jpalmerr/serverboard"
)

// minInterval is the minimum allowed refresh and reconcile interval for
// production configs. This keeps the status API and chat platform from
// being hammered by a typo.
const minInterval = 1 * time.Second

const (
	defaultPort              = 8080
	defaultMaxRetries        = 3
	defaultRefreshInterval   = 5 * time.Second
	defaultReconcileInterval = 1 * time.Second
	defaultInitialBackoff    = 1 * time.Second
	defaultChatRate          = 5
	defaultChatBurst         = 5
)

// Config is the root configuration structure for serverboard.
//
// It maps directly to the YAML configuration file structure.
// Use [Load] or [Parse] to create a Config from YAML.
type Config struct {
	// Port is the HTTP server port. Defaults to 8080.
	Port int `yaml:"port"`

	// Mode is the scheduling mode: coupled, decoupled or on-update.
	// Defaults to coupled.
	Mode string `yaml:"mode"`

	// RefreshInterval is the time between refresh passes. Defaults to 5s.
	RefreshInterval Duration `yaml:"refresh_interval"`

	// ReconcileInterval is the time between reconcile passes in decoupled
	// mode. Defaults to 1s.
	ReconcileInterval Duration `yaml:"reconcile_interval"`

	// Servers are the BattleMetrics server ids, in display order.
	Servers []string `yaml:"servers"`

	StatusAPI StatusAPIConfig `yaml:"status_api"`
	Discord   DiscordConfig   `yaml:"discord"`
	Card      CardConfig      `yaml:"card"`
}

// StatusAPIConfig tunes the status API client.
type StatusAPIConfig struct {
	// URLTemplate is a Go template producing the status URL. The server id
	// is available as {{.ID}}.
	URLTemplate string `yaml:"url_template"`

	// Timeout bounds each request. Defaults to 10s.
	Timeout Duration `yaml:"timeout"`

	// MaxRetries is the number of retries after an HTTP 429. Nil means the
	// default of 3; zero disables retries.
	MaxRetries *int `yaml:"max_retries"`

	// InitialBackoff is the wait before the first retry. Defaults to 1s.
	InitialBackoff Duration `yaml:"initial_backoff"`

	// Headers are sent with every request. Values support environment
	// variable substitution.
	Headers map[string]string `yaml:"headers"`

	// Concurrency is the number of fetches in flight per refresh pass.
	// Defaults to 1.
	Concurrency int `yaml:"concurrency"`
}

// DiscordConfig holds the chat platform credentials.
type DiscordConfig struct {
	Token     string `yaml:"token"`
	ChannelID string `yaml:"channel_id"`

	// Rate is the number of chat operations per second. Defaults to 5.
	Rate float64 `yaml:"rate"`

	// Burst is the number of chat operations allowed at once. Defaults to 5.
	Burst int `yaml:"burst"`

	// DryRun logs cards instead of publishing them.
	DryRun bool `yaml:"dry_run"`
}

// CardConfig overrides the card decorations.
type CardConfig struct {
	ThumbnailURL  string `yaml:"thumbnail_url"`
	FooterText    string `yaml:"footer_text"`
	FooterIconURL string `yaml:"footer_icon_url"`
}

// Duration wraps time.Duration for YAML unmarshalling.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}

	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
// Group 1: variable name
// Group 2: the ":-default" part (if present, indicates a default was specified)
// Group 3: the default value (may be empty for ${VAR:-})
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} patterns with environment values.
func expandEnvVars(s string) (string, error) {
	var firstErr error

	result := envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if firstErr != nil {
			return match
		}

		submatches := envVarPattern.FindStringSubmatch(match)
		if len(submatches) < 2 {
			return match
		}

		varName := submatches[1]
		hasDefault := len(submatches) > 2 && submatches[2] != ""
		defaultVal := ""
		if hasDefault && len(submatches) > 3 {
			defaultVal = submatches[3]
		}

		value, exists := os.LookupEnv(varName)
		if !exists {
			if hasDefault {
				return defaultVal
			}
			firstErr = fmt.Errorf("environment variable %q is not set", varName)
			return match
		}
		return value
	})

	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}

// LoadEnvFile loads KEY=value pairs from a dotenv file into the process
// environment. Variables already set are left alone. A missing file is not
// an error.
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

// Load reads and parses a YAML configuration file.
//
// Environment variables in the file are expanded before parsing.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse parses YAML configuration data.
//
// Environment overrides are applied first, then defaults, then ${VAR}
// expansion and validation. Chat credentials are checked separately by
// [Config.ValidateCredentials] so the CLI can enable dry-run first.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}

	if cfg.Port == 0 {
		cfg.Port = defaultPort
	}
	if cfg.Mode == "" {
		cfg.Mode = string(serverboard.ModeCoupled)
	}
	if cfg.RefreshInterval == 0 {
		cfg.RefreshInterval = Duration(defaultRefreshInterval)
	}
	if cfg.ReconcileInterval == 0 {
		cfg.ReconcileInterval = Duration(defaultReconcileInterval)
	}

	if err := cfg.expandAndValidate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// applyEnvOverrides applies the environment variables that take precedence
// over the file.
func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv("DISCORD_TOKEN"); v != "" {
		c.Discord.Token = v
	}
	if v := os.Getenv("DISCORD_CHANNEL_ID"); v != "" {
		c.Discord.ChannelID = v
	}
	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PORT: invalid port %q", v)
		}
		c.Port = port
	}

	if len(c.Servers) == 0 {
		c.Servers = legacyServerIDs()
	}
	return nil
}

// legacyServerIDs collects SERVER_1_ID, SERVER_2_ID, ... up to the first
// unset or empty index.
func legacyServerIDs() []string {
	var ids []string
	for i := 1; ; i++ {
		v := os.Getenv(fmt.Sprintf("SERVER_%d_ID", i))
		if v == "" {
			return ids
		}
		ids = append(ids, v)
	}
}

// expandAndValidate expands environment variables and validates the config.
func (c *Config) expandAndValidate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}

	if !serverboard.Mode(c.Mode).Valid() {
		return fmt.Errorf("mode must be coupled, decoupled or on-update, got %q", c.Mode)
	}

	if c.RefreshInterval.Duration() < minInterval {
		return fmt.Errorf("refresh_interval must be at least %s, got %s", minInterval, c.RefreshInterval.Duration())
	}
	if c.ReconcileInterval.Duration() < minInterval {
		return fmt.Errorf("reconcile_interval must be at least %s, got %s", minInterval, c.ReconcileInterval.Duration())
	}

	if len(c.Servers) == 0 {
		return errors.New("at least one server must be defined (servers or SERVER_1_ID)")
	}
	seen := make(map[string]struct{}, len(c.Servers))
	for i, id := range c.Servers {
		expanded, err := expandEnvVars(id)
		if err != nil {
			return fmt.Errorf("servers[%d]: %w", i, err)
		}
		if expanded == "" {
			return fmt.Errorf("servers[%d]: id is required", i)
		}
		if _, exists := seen[expanded]; exists {
			return fmt.Errorf("servers[%d]: duplicate server id %q", i, expanded)
		}
		seen[expanded] = struct{}{}
		c.Servers[i] = expanded
	}

	if err := c.StatusAPI.expandAndValidate(); err != nil {
		return err
	}

	var err error
	if c.Discord.Token, err = expandEnvVars(c.Discord.Token); err != nil {
		return fmt.Errorf("discord.token: %w", err)
	}
	if c.Discord.ChannelID, err = expandEnvVars(c.Discord.ChannelID); err != nil {
		return fmt.Errorf("discord.channel_id: %w", err)
	}
	if c.Discord.Rate < 0 {
		return fmt.Errorf("discord.rate cannot be negative, got %v", c.Discord.Rate)
	}
	if c.Discord.Burst < 0 {
		return fmt.Errorf("discord.burst cannot be negative, got %d", c.Discord.Burst)
	}

	for _, f := range []*string{&c.Card.ThumbnailURL, &c.Card.FooterText, &c.Card.FooterIconURL} {
		if *f, err = expandEnvVars(*f); err != nil {
			return fmt.Errorf("card: %w", err)
		}
	}

	return nil
}

func (s *StatusAPIConfig) expandAndValidate() error {
	if s.URLTemplate != "" {
		expanded, err := expandEnvVars(s.URLTemplate)
		if err != nil {
			return fmt.Errorf("status_api.url_template: %w", err)
		}
		s.URLTemplate = expanded

		// fail fast before the client tries to use an invalid template
		tmpl, err := template.New("").Option("missingkey=error").Parse(s.URLTemplate)
		if err != nil {
			return fmt.Errorf("status_api.url_template: invalid template: %w", err)
		}
		var buf bytes.Buffer
		if err := tmpl.Execute(&buf, struct{ ID string }{ID: "0"}); err != nil {
			return fmt.Errorf("status_api.url_template: %w", err)
		}
		u, err := url.Parse(buf.String())
		if err != nil {
			return fmt.Errorf("status_api.url_template: invalid url: %w", err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("status_api.url_template: url scheme must be http or https, got %q", u.Scheme)
		}
	}

	if s.Timeout != 0 && s.Timeout.Duration() < time.Second {
		return fmt.Errorf("status_api.timeout must be at least 1s if specified, got %s", s.Timeout.Duration())
	}
	if s.MaxRetries != nil && *s.MaxRetries < 0 {
		return fmt.Errorf("status_api.max_retries cannot be negative, got %d", *s.MaxRetries)
	}
	if s.InitialBackoff < 0 {
		return fmt.Errorf("status_api.initial_backoff cannot be negative, got %s", s.InitialBackoff.Duration())
	}
	if s.Concurrency < 0 {
		return fmt.Errorf("status_api.concurrency cannot be negative, got %d", s.Concurrency)
	}

	for k, v := range s.Headers {
		expanded, err := expandEnvVars(v)
		if err != nil {
			return fmt.Errorf("status_api.headers[%s]: %w", k, err)
		}
		s.Headers[k] = expanded
	}

	return nil
}

// ValidateCredentials checks that the Discord token and channel are set.
// Dry-run configs need neither.
func (c *Config) ValidateCredentials() error {
	if c.Discord.DryRun {
		return nil
	}
	if c.Discord.Token == "" {
		return errors.New("discord.token is required (or set DISCORD_TOKEN, or enable dry_run)")
	}
	if c.Discord.ChannelID == "" {
		return errors.New("discord.channel_id is required (or set DISCORD_CHANNEL_ID, or enable dry_run)")
	}
	return nil
}
