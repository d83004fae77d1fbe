// Package config provides YAML and environment configuration for skywatch.
//
// This package enables running skywatch as a standalone binary with a
// configuration file, as an alternative to the programmatic SDK approach.
// Every field can also be supplied (or overridden) through SKYWATCH_*
// environment variables, so the binary runs usefully with no file at all.
//
// Example configuration:
//
//	listen: ":8080"
//
//	tracker:
//	  satellite_id: 25544
//	  interval: 5s
//	  history_size: 100
//
//	update:
//	  repo: skywatch-dev/skywatch
//	  current_version: 1.2.0
//	  interval: 6h
package config

import (
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// minInterval is the minimum allowed polling interval. This prevents
// accidental DoS of the public APIs with overly aggressive polling.
const minInterval = 1 * time.Second

// maxHistorySize caps the position trail so a typo cannot pin an
// unbounded amount of memory.
const maxHistorySize = 100000

// Config is the root configuration structure for skywatch.
//
// It maps directly to the YAML configuration file; env struct tags bind
// the same fields to environment variables, applied after the file.
// Use [Load] or [Parse] to create a Config.
type Config struct {
	// Listen is the address for the optional JSON API server,
	// e.g. ":8080". Empty disables the server.
	Listen string `yaml:"listen" env:"SKYWATCH_LISTEN"`

	// Tracker configures satellite-position polling.
	Tracker TrackerConfig `yaml:"tracker"`

	// Update configures release polling.
	Update UpdateConfig `yaml:"update"`
}

// TrackerConfig configures the position tracker.
type TrackerConfig struct {
	// SatelliteID is the NORAD catalog number. Defaults to 25544 (ISS).
	SatelliteID int `yaml:"satellite_id" env:"SKYWATCH_SATELLITE_ID"`

	// Interval is the delay between position polls. Defaults to 5s.
	// Accepts duration strings like "10s", "1m", "500ms".
	Interval Duration `yaml:"interval" env:"SKYWATCH_TRACK_INTERVAL"`

	// HistorySize is the number of fixes retained for the orbit trail.
	// Defaults to 100. Zero disables the trail.
	HistorySize *int `yaml:"history_size" env:"SKYWATCH_HISTORY_SIZE"`

	// API overrides the position API base URL. Supports environment
	// variable substitution: ${VAR} or ${VAR:-default}.
	API string `yaml:"api" env:"SKYWATCH_POSITION_API"`

	// Timeout bounds a single position request. Defaults to 30s.
	Timeout Duration `yaml:"timeout" env:"SKYWATCH_TRACK_TIMEOUT"`
}

// UpdateConfig configures the update checker.
type UpdateConfig struct {
	// Repo is the GitHub repository to watch, as "owner/name".
	// Empty disables update checking.
	Repo string `yaml:"repo" env:"SKYWATCH_UPDATE_REPO"`

	// CurrentVersion is the running version compared against the latest
	// release. Usually injected at build time rather than configured.
	CurrentVersion string `yaml:"current_version" env:"SKYWATCH_CURRENT_VERSION"`

	// Interval is the delay between periodic checks. Defaults to 6h.
	Interval Duration `yaml:"interval" env:"SKYWATCH_CHECK_INTERVAL"`

	// API overrides the release API base URL (e.g. GitHub Enterprise).
	// Supports environment variable substitution.
	API string `yaml:"api" env:"SKYWATCH_RELEASE_API"`

	// Timeout bounds a single releases request. Defaults to 10s.
	Timeout Duration `yaml:"timeout" env:"SKYWATCH_CHECK_TIMEOUT"`
}

// Duration wraps time.Duration for YAML and env unmarshalling.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	return d.UnmarshalText([]byte(s))
}

// UnmarshalText implements encoding.TextUnmarshaler, which is how the env
// parser fills Duration fields.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
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

// expandEnvVars replaces ${VAR} and ${VAR:-default} patterns with
// environment values.
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

// Load reads a YAML configuration file, applies environment overrides,
// and validates the result.
//
// An empty path skips the file entirely and builds the config from
// defaults plus environment variables.
func Load(path string) (*Config, error) {
	if path == "" {
		return Parse(nil)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse parses YAML configuration data (may be nil), applies SKYWATCH_*
// environment variables on top, fills defaults, and validates.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.expandAndValidate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyDefaults fills unset fields with the library defaults.
func (c *Config) applyDefaults() {
	if c.Tracker.SatelliteID == 0 {
		c.Tracker.SatelliteID = 25544
	}
	if c.Tracker.Interval == 0 {
		c.Tracker.Interval = Duration(5 * time.Second)
	}
	if c.Tracker.HistorySize == nil {
		size := 100
		c.Tracker.HistorySize = &size
	}
	if c.Tracker.Timeout == 0 {
		c.Tracker.Timeout = Duration(30 * time.Second)
	}
	if c.Update.Interval == 0 {
		c.Update.Interval = Duration(6 * time.Hour)
	}
	if c.Update.Timeout == 0 {
		c.Update.Timeout = Duration(10 * time.Second)
	}
}

// expandAndValidate expands ${VAR} references in URL fields and validates
// the config.
func (c *Config) expandAndValidate() error {
	if c.Tracker.SatelliteID < 0 {
		return fmt.Errorf("tracker: satellite_id must be positive, got %d", c.Tracker.SatelliteID)
	}
	if c.Tracker.Interval.Duration() < minInterval {
		return fmt.Errorf("tracker: interval must be at least %s, got %s", minInterval, c.Tracker.Interval.Duration())
	}
	if *c.Tracker.HistorySize < 0 || *c.Tracker.HistorySize > maxHistorySize {
		return fmt.Errorf("tracker: history_size must be between 0 and %d, got %d", maxHistorySize, *c.Tracker.HistorySize)
	}
	if c.Tracker.Timeout.Duration() <= 0 {
		return fmt.Errorf("tracker: timeout must be positive, got %s", c.Tracker.Timeout.Duration())
	}

	var err error
	if c.Tracker.API, err = expandAPIURL("tracker", c.Tracker.API); err != nil {
		return err
	}

	if c.Update.Repo != "" {
		owner, name, ok := strings.Cut(c.Update.Repo, "/")
		if !ok || owner == "" || name == "" {
			return fmt.Errorf("update: repo must be \"owner/name\", got %q", c.Update.Repo)
		}
		if c.Update.CurrentVersion == "" {
			return fmt.Errorf("update: current_version is required when repo is set")
		}
	}
	if c.Update.Interval.Duration() < minInterval {
		return fmt.Errorf("update: interval must be at least %s, got %s", minInterval, c.Update.Interval.Duration())
	}
	if c.Update.Timeout.Duration() <= 0 {
		return fmt.Errorf("update: timeout must be positive, got %s", c.Update.Timeout.Duration())
	}
	if c.Update.API, err = expandAPIURL("update", c.Update.API); err != nil {
		return err
	}

	return nil
}

// expandAPIURL env-expands an optional base URL and checks it is an
// absolute http(s) URL.
func expandAPIURL(section, raw string) (string, error) {
	if raw == "" {
		return "", nil
	}

	expanded, err := expandEnvVars(raw)
	if err != nil {
		return "", fmt.Errorf("%s: api: %w", section, err)
	}

	parsed, err := url.Parse(expanded)
	if err != nil {
		return "", fmt.Errorf("%s: invalid api url: %w", section, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", fmt.Errorf("%s: api url scheme must be http or https, got %q", section, parsed.Scheme)
	}
	if parsed.Host == "" {
		return "", fmt.Errorf("%s: api url must have a host", section)
	}
	return expanded, nil
}
