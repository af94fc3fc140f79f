// Package config provides configuration management for the contract suite.
//
// Every key is resolved with the same precedence: environment variable, then
// the properties file (KEY=VALUE lines), then config.yaml, then the built-in
// default. config.yaml values may reference the environment with ${VAR} or
// ${VAR:-default}.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"weathercontract/internal/core"
)

const (
	DefaultConfigFile     = "config/config.yaml"
	DefaultPropertiesFile = "config.properties"
)

// Config holds the suite configuration
type Config struct {
	API     APIConfig
	Stub    StubConfig
	HTTP    HTTPConfig
	Logging LogConfig
	Metrics MetricsConfig
}

// APIConfig describes the weather provider the live suite talks to
type APIConfig struct {
	BaseURL            string
	APIKey             string
	DefaultLocationKey string
	Language           string
}

// StubConfig configures the mock server
type StubConfig struct {
	Host string
	// Port 0 lets the OS assign a free port.
	Port        int
	FixturesDir string
	RulesFile   string
}

// HTTPConfig holds outbound HTTP client settings
type HTTPConfig struct {
	Timeout time.Duration
}

// LogConfig controls the slog handler
type LogConfig struct {
	// Format is auto, pretty or json.
	Format string
	Level  string
}

// MetricsConfig controls the Prometheus endpoint on the stub server
type MetricsConfig struct {
	Enabled  bool
	Endpoint string
}

// LoadResult is what Load returns: the resolved config and the files that fed it.
type LoadResult struct {
	Config  *Config
	Sources []string
}

// LoadOptions overrides where Load looks for its files.
type LoadOptions struct {
	ConfigFile     string
	PropertiesFile string
}

// fileConfig mirrors config.yaml. Values are kept as strings so that every
// layer goes through the same parsing and validation.
type fileConfig struct {
	API struct {
		BaseURL            string `yaml:"base_url"`
		APIKey             string `yaml:"api_key"`
		DefaultLocationKey string `yaml:"default_location_key"`
		Language           string `yaml:"language"`
	} `yaml:"api"`
	Stub struct {
		Host        string `yaml:"host"`
		Port        string `yaml:"port"`
		FixturesDir string `yaml:"fixtures_dir"`
		RulesFile   string `yaml:"rules_file"`
	} `yaml:"stub"`
	HTTP struct {
		Timeout string `yaml:"timeout"`
	} `yaml:"http"`
	Logging struct {
		Format string `yaml:"format"`
		Level  string `yaml:"level"`
	} `yaml:"logging"`
	Metrics struct {
		Enabled  string `yaml:"enabled"`
		Endpoint string `yaml:"endpoint"`
	} `yaml:"metrics"`
}

func (f *fileConfig) values() map[string]string {
	all := map[string]string{
		"BASE_URL":             f.API.BaseURL,
		"API_KEY":              f.API.APIKey,
		"DEFAULT_LOCATION_KEY": f.API.DefaultLocationKey,
		"LANGUAGE":             f.API.Language,
		"STUB_HOST":            f.Stub.Host,
		"STUB_PORT":            f.Stub.Port,
		"FIXTURES_DIR":         f.Stub.FixturesDir,
		"STUB_RULES_FILE":      f.Stub.RulesFile,
		"HTTP_TIMEOUT":         f.HTTP.Timeout,
		"LOG_FORMAT":           f.Logging.Format,
		"LOG_LEVEL":            f.Logging.Level,
		"METRICS_ENABLED":      f.Metrics.Enabled,
		"METRICS_ENDPOINT":     f.Metrics.Endpoint,
	}
	out := make(map[string]string, len(all))
	for k, v := range all {
		if v != "" {
			out[k] = v
		}
	}
	return out
}

type setter func(cfg *Config, value string) error

// settings lists every configurable key in the order it is applied.
var settings = []struct {
	key string
	set setter
}{
	{"BASE_URL", func(c *Config, v string) error { c.API.BaseURL = strings.TrimRight(v, "/"); return nil }},
	{"API_KEY", func(c *Config, v string) error { c.API.APIKey = v; return nil }},
	{"DEFAULT_LOCATION_KEY", func(c *Config, v string) error { c.API.DefaultLocationKey = v; return nil }},
	{"LANGUAGE", func(c *Config, v string) error { c.API.Language = v; return nil }},
	{"STUB_HOST", func(c *Config, v string) error { c.Stub.Host = v; return nil }},
	{"STUB_PORT", func(c *Config, v string) error {
		port, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid port %q", v)
		}
		c.Stub.Port = port
		return nil
	}},
	{"FIXTURES_DIR", func(c *Config, v string) error { c.Stub.FixturesDir = v; return nil }},
	{"STUB_RULES_FILE", func(c *Config, v string) error { c.Stub.RulesFile = v; return nil }},
	{"HTTP_TIMEOUT", func(c *Config, v string) error {
		d, err := parseDuration(v)
		if err != nil {
			return err
		}
		c.HTTP.Timeout = d
		return nil
	}},
	{"LOG_FORMAT", func(c *Config, v string) error { c.Logging.Format = strings.ToLower(v); return nil }},
	{"LOG_LEVEL", func(c *Config, v string) error { c.Logging.Level = strings.ToLower(v); return nil }},
	{"METRICS_ENABLED", func(c *Config, v string) error {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid boolean %q", v)
		}
		c.Metrics.Enabled = b
		return nil
	}},
	{"METRICS_ENDPOINT", func(c *Config, v string) error { c.Metrics.Endpoint = v; return nil }},
}

// Load resolves the configuration using CONFIG_FILE and PROPERTIES_FILE from
// the environment. Without them it uses the default file locations under the
// module root, the nearest directory above the working directory that holds a
// go.mod, so that packages under tests/ see the same files as the commands.
func Load() (*LoadResult, error) {
	root := moduleRoot()
	return LoadWith(LoadOptions{
		ConfigFile:     envOr("CONFIG_FILE", filepath.Join(root, DefaultConfigFile)),
		PropertiesFile: envOr("PROPERTIES_FILE", filepath.Join(root, DefaultPropertiesFile)),
	})
}

// moduleRoot returns the nearest ancestor of the working directory containing
// go.mod, or "" (the working directory itself) when there is none.
func moduleRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		if info, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil && !info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// LoadWith resolves the configuration from the given files. Missing files are
// skipped; unreadable or malformed ones are configuration errors.
func LoadWith(opts LoadOptions) (*LoadResult, error) {
	cfg := buildDefaultConfig()
	result := &LoadResult{Config: cfg}

	if opts.ConfigFile != "" {
		values, found, err := readConfigFile(opts.ConfigFile)
		if err != nil {
			return nil, err
		}
		if found {
			result.Sources = append(result.Sources, opts.ConfigFile)
			if err := applyValues(cfg, mapLookup(values), opts.ConfigFile); err != nil {
				return nil, err
			}
		}
	}

	props := map[string]string{}
	if opts.PropertiesFile != "" {
		values, found, err := readPropertiesFile(opts.PropertiesFile)
		if err != nil {
			return nil, err
		}
		if found {
			result.Sources = append(result.Sources, opts.PropertiesFile)
			props = values
		}
	}
	if err := applyValues(cfg, mapLookup(props), opts.PropertiesFile); err != nil {
		return nil, err
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if cfg.Stub.RulesFile == "" {
		cfg.Stub.RulesFile = filepath.Join(cfg.Stub.FixturesDir, "stubs.yaml")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return result, nil
}

// buildDefaultConfig returns the hardcoded defaults.
func buildDefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:            "https://dataservice.accuweather.com",
			DefaultLocationKey: "294021",
			Language:           "en-us",
		},
		Stub: StubConfig{
			Host:        "127.0.0.1",
			Port:        0,
			FixturesDir: "fixtures/accuweather",
		},
		HTTP: HTTPConfig{
			Timeout: 30 * time.Second,
		},
		Logging: LogConfig{
			Format: "auto",
			Level:  "info",
		},
		Metrics: MetricsConfig{
			Endpoint: "/__admin/metrics",
		},
	}
}

// applyEnvOverrides applies environment variables on top of cfg.
func applyEnvOverrides(cfg *Config) error {
	return applyValues(cfg, os.LookupEnv, "environment")
}

func applyValues(cfg *Config, lookup func(string) (string, bool), source string) error {
	for _, s := range settings {
		v, ok := lookup(s.key)
		if !ok || v == "" {
			continue
		}
		if err := s.set(cfg, v); err != nil {
			return core.NewConfigurationError(s.key, "invalid value from "+source, err)
		}
	}
	return nil
}

func mapLookup(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func readConfigFile(path string) (map[string]string, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, core.NewConfigurationError(path, "failed to read config file", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal([]byte(expandString(string(data))), &fc); err != nil {
		return nil, false, core.NewConfigurationError(path, "failed to parse config file", err)
	}
	return fc.values(), true, nil
}

func readPropertiesFile(path string) (map[string]string, bool, error) {
	values, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, core.NewConfigurationError(path, "failed to parse properties file", err)
	}
	return values, true, nil
}

var placeholderPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(:-([^}]*))?\}`)

// expandString replaces ${VAR} and ${VAR:-default} placeholders. A ${VAR}
// whose variable is unset or empty is left as written.
func expandString(s string) string {
	if !strings.Contains(s, "${") {
		return s
	}
	return placeholderPattern.ReplaceAllStringFunc(s, func(m string) string {
		parts := placeholderPattern.FindStringSubmatch(m)
		name, hasDefault, def := parts[1], parts[2] != "", parts[3]
		if v := os.Getenv(name); v != "" {
			return v
		}
		if hasDefault {
			return def
		}
		return m
	})
}

// parseDuration accepts integer seconds ("30") or a Go duration ("30s").
func parseDuration(v string) (time.Duration, error) {
	v = strings.TrimSpace(v)
	if n, err := strconv.Atoi(v); err == nil {
		if n < 0 {
			return 0, fmt.Errorf("negative duration %q", v)
		}
		return time.Duration(n) * time.Second, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", v)
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %q", v)
	}
	return d, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Validate checks values that would otherwise fail much later.
func (c *Config) Validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return core.NewConfigurationError("BASE_URL", fmt.Sprintf("%q is not an absolute http(s) URL", c.API.BaseURL), err)
	}
	if c.Stub.Port < 0 || c.Stub.Port > 65535 {
		return core.NewConfigurationError("STUB_PORT", fmt.Sprintf("port %d out of range", c.Stub.Port), nil)
	}
	if c.HTTP.Timeout <= 0 {
		return core.NewConfigurationError("HTTP_TIMEOUT", "timeout must be positive", nil)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return core.NewConfigurationError("LOG_LEVEL", fmt.Sprintf("unknown level %q", c.Logging.Level), nil)
	}
	switch c.Logging.Format {
	case "auto", "pretty", "json":
	default:
		return core.NewConfigurationError("LOG_FORMAT", fmt.Sprintf("unknown format %q", c.Logging.Format), nil)
	}
	if !strings.HasPrefix(c.Metrics.Endpoint, "/") {
		return core.NewConfigurationError("METRICS_ENDPOINT", "endpoint must start with /", nil)
	}
	return nil
}

// StubAddr returns host:port for the stub listener.
func (c *Config) StubAddr() string {
	return net.JoinHostPort(c.Stub.Host, strconv.Itoa(c.Stub.Port))
}
