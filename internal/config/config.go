// =============================================================================
// Wave Sales Export - Configuration Module
// =============================================================================
//
// This module loads the export configuration.
//
// SOURCES (later wins):
//   1. Built-in defaults
//   2. YAML config file (config.yaml by default), decoded with yaml.v3
//   3. .env file, loaded into the process environment with godotenv
//   4. Environment variables and command-line flags, read through viper
//
// ENVIRONMENT:
//   WAVE_BUSINESS_ID   business identifier
//   WAVE_KEY           API bearer token (WAVE_API_TOKEN also accepted)
//   WAVE_<KEY>         any other key below, upper-cased (WAVE_PAGE_SIZE, ...)
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/ginjaninja78/wave-sales-export/internal/variant"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of every environment variable the exporter reads.
const EnvPrefix = "WAVE"

// MaxPageSize is the largest page size the Wave API accepts.
const MaxPageSize = 100

// Keys shared by the YAML file, viper and the cobra flag bindings.
const (
	KeyAPIURL         = "api_url"
	KeyBusinessID     = "business_id"
	KeyAPIToken       = "api_token"
	KeyPageSize       = "page_size"
	KeyVariant        = "variant"
	KeyOutputDir      = "output_dir"
	KeyOutputFile     = "output_file"
	KeyArchiveDir     = "archive_dir"
	KeyWriteSummary   = "write_summary"
	KeyRequestTimeout = "request_timeout"
	KeyLogLevel       = "log_level"
	KeyLogFormat      = "log_format"
)

// =============================================================================
// CONFIGURATION STRUCTURE
// =============================================================================

// Config holds everything one export run needs.
type Config struct {
	// APIURL is the GraphQL endpoint.
	// Default: https://gql.waveapps.com/graphql/public
	APIURL string `yaml:"api_url"`

	// BusinessID identifies the Wave business whose invoices are exported.
	BusinessID string `yaml:"business_id"`

	// APIToken is the bearer token. Prefer WAVE_KEY over putting it in the file.
	APIToken string `yaml:"api_token"`

	// PageSize is the number of invoices requested per page (1..100).
	// Default: 50
	PageSize int `yaml:"page_size"`

	// Variant is "basic" or "tax".
	// Default: "tax"
	Variant string `yaml:"variant"`

	// OutputDir is where the export file is written.
	// Default: "."
	OutputDir string `yaml:"output_dir"`

	// OutputFile is the file name template. Supports {date}, {timestamp},
	// {uuid} and {variant}. Empty means the variant's default. A relative
	// path, subdirectories included, resolves under OutputDir.
	OutputFile string `yaml:"output_file"`

	// ArchiveDir, when set, receives a copy of an existing export before it
	// is overwritten.
	ArchiveDir string `yaml:"archive_dir"`

	// WriteSummary writes a plain-text run summary next to the export.
	WriteSummary bool `yaml:"write_summary"`

	// RequestTimeout bounds each HTTP request.
	// Default: 30s
	RequestTimeout time.Duration `yaml:"request_timeout"`

	// LogLevel is trace, debug, info, warn or error.
	// Default: "info"
	LogLevel string `yaml:"log_level"`

	// LogFormat is "console" or "json".
	// Default: "console"
	LogFormat string `yaml:"log_format"`
}

// LoadOptions tells Load where to look.
type LoadOptions struct {
	// Path is the YAML config file.
	Path string

	// Required makes a missing config file an error. Set it when the user
	// named the file explicitly.
	Required bool

	// EnvFile is loaded into the environment before viper reads it.
	// A missing file is ignored.
	EnvFile string

	// Viper carries environment and flag overrides. Nil means NewViper().
	Viper *viper.Viper
}

// =============================================================================
// LOADING
// =============================================================================

// Load assembles the configuration from all sources and validates it.
func Load(opts LoadOptions) (*Config, error) {
	cfg := &Config{}

	if opts.Path != "" {
		if err := loadFile(opts.Path, opts.Required, cfg); err != nil {
			return nil, err
		}
	}

	if opts.EnvFile != "" {
		if err := godotenv.Load(opts.EnvFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to load env file %s: %w", opts.EnvFile, err)
		}
	}

	v := opts.Viper
	if v == nil {
		v = NewViper()
	}
	applyOverrides(cfg, v)

	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// loadFile decodes the YAML file into cfg.
func loadFile(path string, required bool, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !required {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

// NewViper returns a viper instance bound to the WAVE_* environment.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	// The token historically lives in WAVE_KEY.
	_ = v.BindEnv(KeyAPIToken, EnvPrefix+"_KEY", EnvPrefix+"_API_TOKEN")
	return v
}

// applyOverrides copies every key viper knows about (env or changed flag).
func applyOverrides(cfg *Config, v *viper.Viper) {
	if v.IsSet(KeyAPIURL) {
		cfg.APIURL = v.GetString(KeyAPIURL)
	}
	if v.IsSet(KeyBusinessID) {
		cfg.BusinessID = v.GetString(KeyBusinessID)
	}
	if v.IsSet(KeyAPIToken) {
		cfg.APIToken = v.GetString(KeyAPIToken)
	}
	if v.IsSet(KeyPageSize) {
		cfg.PageSize = v.GetInt(KeyPageSize)
	}
	if v.IsSet(KeyVariant) {
		cfg.Variant = v.GetString(KeyVariant)
	}
	if v.IsSet(KeyOutputDir) {
		cfg.OutputDir = v.GetString(KeyOutputDir)
	}
	if v.IsSet(KeyOutputFile) {
		cfg.OutputFile = v.GetString(KeyOutputFile)
	}
	if v.IsSet(KeyArchiveDir) {
		cfg.ArchiveDir = v.GetString(KeyArchiveDir)
	}
	if v.IsSet(KeyWriteSummary) {
		cfg.WriteSummary = v.GetBool(KeyWriteSummary)
	}
	if v.IsSet(KeyRequestTimeout) {
		cfg.RequestTimeout = v.GetDuration(KeyRequestTimeout)
	}
	if v.IsSet(KeyLogLevel) {
		cfg.LogLevel = v.GetString(KeyLogLevel)
	}
	if v.IsSet(KeyLogFormat) {
		cfg.LogFormat = v.GetString(KeyLogFormat)
	}
}

// applyDefaults fills every field left empty.
func applyDefaults(cfg *Config) {
	if cfg.APIURL == "" {
		cfg.APIURL = "https://gql.waveapps.com/graphql/public"
	}
	if cfg.PageSize == 0 {
		cfg.PageSize = 50
	}
	if cfg.Variant == "" {
		cfg.Variant = string(variant.Tax)
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "."
	}
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = "console"
	}
	cfg.BusinessID = strings.TrimSpace(cfg.BusinessID)
	cfg.APIToken = strings.TrimSpace(cfg.APIToken)
}

// =============================================================================
// VALIDATION
// =============================================================================

// Validate reports the first problem found.
func (c *Config) Validate() error {
	if c.BusinessID == "" {
		return errors.New("business id is required (set WAVE_BUSINESS_ID)")
	}
	if c.APIToken == "" {
		return errors.New("api token is required (set WAVE_KEY)")
	}
	if c.PageSize < 1 || c.PageSize > MaxPageSize {
		return fmt.Errorf("page_size must be between 1 and %d, got %d", MaxPageSize, c.PageSize)
	}
	if _, err := variant.Parse(c.Variant); err != nil {
		return err
	}
	u, err := url.Parse(c.APIURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("api_url %q is not an absolute URL", c.APIURL)
	}
	if c.RequestTimeout < 0 {
		return fmt.Errorf("request_timeout must not be negative, got %s", c.RequestTimeout)
	}
	switch c.LogLevel {
	case "trace", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log_level %q", c.LogLevel)
	}
	switch c.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("unknown log_format %q", c.LogFormat)
	}
	return nil
}

// ExportVariant returns the parsed variant. Call after Validate.
func (c *Config) ExportVariant() variant.Variant {
	v, err := variant.Parse(c.Variant)
	if err != nil {
		return variant.Tax
	}
	return v
}

// MaskedToken returns the token with all but the last four characters hidden.
func (c *Config) MaskedToken() string {
	if len(c.APIToken) <= 4 {
		return strings.Repeat("*", len(c.APIToken))
	}
	return strings.Repeat("*", len(c.APIToken)-4) + c.APIToken[len(c.APIToken)-4:]
}
