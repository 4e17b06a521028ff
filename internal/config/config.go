// Package config provides configuration management for econdash.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"econdash/internal/analysis/coverage"
	"econdash/internal/errors"
	"econdash/internal/report"
)

// Config holds all application configuration.
type Config struct {
	Data       DataConfig       `mapstructure:"data"`
	Regions    RegionsConfig    `mapstructure:"regions"`
	Provider   ProviderConfig   `mapstructure:"provider"`
	Classifier ClassifierConfig `mapstructure:"classifier"`
	Coverage   CoverageConfig   `mapstructure:"coverage"`
	History    HistoryConfig    `mapstructure:"history"`
	Server     ServerConfig     `mapstructure:"server"`
	Log        LogConfig        `mapstructure:"log"`
	UI         UIConfig         `mapstructure:"ui"`

	// Path of the file the configuration was read from.
	File string `mapstructure:"-"`
}

// DataConfig holds dataset storage configuration.
type DataConfig struct {
	Dir         string        `mapstructure:"dir" validate:"required"`
	Source      string        `mapstructure:"source" validate:"oneof=sqlite csv"`
	DBFile      string        `mapstructure:"db_file" validate:"required"`
	CacheTTL    time.Duration `mapstructure:"cache_ttl" validate:"gt=0"`
	StaleAfter  time.Duration `mapstructure:"stale_after" validate:"gt=0"`
	MonthsBack  int           `mapstructure:"months_back" validate:"gte=0,lte=240"`
	MonthsAhead int           `mapstructure:"months_ahead" validate:"gte=0,lte=12"`
}

// RegionsConfig holds the tracked currencies.
type RegionsConfig struct {
	Tracked []string          `mapstructure:"tracked" validate:"required,min=1,dive,len=3,uppercase"`
	Names   map[string]string `mapstructure:"names"`
}

// DisplayName returns the configured name for code, or code itself.
// Viper lower-cases map keys, so lookups are case-insensitive.
func (r RegionsConfig) DisplayName(code string) string {
	if name, ok := r.Names[strings.ToLower(code)]; ok && name != "" {
		return name
	}
	return code
}

// ProviderConfig holds calendar provider configuration.
type ProviderConfig struct {
	Name          string        `mapstructure:"name" validate:"required"`
	URL           string        `mapstructure:"url" validate:"required,url"`
	Timeout       time.Duration `mapstructure:"timeout" validate:"gt=0"`
	RatePerSecond float64       `mapstructure:"rate_per_second" validate:"gt=0"`
	Burst         int           `mapstructure:"burst" validate:"gte=1"`
	MaxRetries    int           `mapstructure:"max_retries" validate:"gte=1,lte=10"`
	Concurrency   int           `mapstructure:"concurrency" validate:"gte=1,lte=32"`

	// Consecutive failed fetches that stop calls for BreakerCooldown; 0 disables.
	BreakerThreshold int           `mapstructure:"breaker_threshold" validate:"gte=0"`
	BreakerCooldown  time.Duration `mapstructure:"breaker_cooldown" validate:"gte=0"`
}

// ClassifierConfig holds indicator classification configuration.
type ClassifierConfig struct {
	// RulesFile is an optional YAML rule table. Empty means built-in rules.
	RulesFile string `mapstructure:"rules_file"`
}

// CoverageConfig holds the equivalence groups used for coverage.
type CoverageConfig struct {
	Groups []coverage.EquivalenceGroup `mapstructure:"groups"`
}

// HistoryConfig holds the row layout of the history report.
type HistoryConfig struct {
	Categories []report.Category `mapstructure:"categories"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Addr         string        `mapstructure:"addr" validate:"required"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout" validate:"gt=0"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" validate:"gt=0"`

	// API requests per second across all clients; 0 disables the limit.
	RatePerSecond float64 `mapstructure:"rate_per_second" validate:"gte=0"`
	Burst         int     `mapstructure:"burst" validate:"gte=0"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn warning error"`
	File  bool   `mapstructure:"file"`
	Path  string `mapstructure:"path"`
}

// UIConfig holds terminal output configuration.
type UIConfig struct {
	ColorEnabled bool   `mapstructure:"color_enabled"`
	DateFormat   string `mapstructure:"date_format" validate:"required"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/econdash"
	}
	return filepath.Join(home, ".config", "econdash")
}

// EnvPrefix prefixes environment overrides, e.g. ECONDASH_DATA_SOURCE.
const EnvPrefix = "ECONDASH"

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory. A commented
// template is written when no config.toml exists yet.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	v := newViper(configDir)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("loading config.toml: %w", err)
		}
		if err := createTemplateConfig(configDir); err != nil {
			return nil, err
		}
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("loading config.toml: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config.toml: %w", err)
	}
	cfg.File = v.ConfigFileUsed()
	cfg.resolvePaths(configDir)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// Default returns the built-in configuration rooted at configDir without
// touching the filesystem.
func Default(configDir string) *Config {
	v := newViper(configDir)
	cfg := &Config{}
	_ = v.Unmarshal(cfg)
	cfg.resolvePaths(configDir)
	return cfg
}

func newViper(configDir string) *viper.Viper {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("data.dir", "data")
	v.SetDefault("data.source", "sqlite")
	v.SetDefault("data.db_file", "econdash.db")
	v.SetDefault("data.cache_ttl", "30m")
	v.SetDefault("data.stale_after", "6h")
	v.SetDefault("data.months_back", 59)
	v.SetDefault("data.months_ahead", 1)

	v.SetDefault("regions.tracked", []string{"USD", "JPY", "EUR", "GBP", "AUD"})
	v.SetDefault("regions.names", map[string]string{
		"usd": "US Dollar",
		"jpy": "Japanese Yen",
		"eur": "Euro",
		"gbp": "British Pound",
		"aud": "Australian Dollar",
	})

	v.SetDefault("provider.name", "faireconomy")
	v.SetDefault("provider.url", "https://nfs.faireconomy.media/ff_calendar_thisweek.json")
	v.SetDefault("provider.timeout", "15s")
	v.SetDefault("provider.rate_per_second", 1.0)
	v.SetDefault("provider.burst", 2)
	v.SetDefault("provider.max_retries", 3)
	v.SetDefault("provider.concurrency", 4)
	v.SetDefault("provider.breaker_threshold", 5)
	v.SetDefault("provider.breaker_cooldown", "1m")

	v.SetDefault("classifier.rules_file", "")

	v.SetDefault("server.addr", "127.0.0.1:8888")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.rate_per_second", 20.0)
	v.SetDefault("server.burst", 40)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", true)
	v.SetDefault("log.path", "logs/econdash.log")

	v.SetDefault("ui.color_enabled", true)
	v.SetDefault("ui.date_format", "2006-01-02")
}

// resolvePaths makes relative paths relative to the config directory and
// fills in the default equivalence groups and history categories.
func (c *Config) resolvePaths(configDir string) {
	if c.Data.Dir != "" && !filepath.IsAbs(c.Data.Dir) {
		c.Data.Dir = filepath.Join(configDir, c.Data.Dir)
	}
	if c.Log.Path != "" && !filepath.IsAbs(c.Log.Path) {
		c.Log.Path = filepath.Join(configDir, c.Log.Path)
	}
	if c.Classifier.RulesFile != "" && !filepath.IsAbs(c.Classifier.RulesFile) {
		c.Classifier.RulesFile = filepath.Join(configDir, c.Classifier.RulesFile)
	}
	if len(c.Coverage.Groups) == 0 {
		c.Coverage.Groups = coverage.DefaultEquivalenceGroups()
	}
	if len(c.History.Categories) == 0 {
		c.History.Categories = report.DefaultCategories()
	}
}

// DBPath returns the SQLite database path.
func (c *Config) DBPath() string {
	if filepath.IsAbs(c.Data.DBFile) {
		return c.Data.DBFile
	}
	return filepath.Join(c.Data.Dir, c.Data.DBFile)
}

var validate = validator.New()

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return fmt.Errorf("%w: %s failed %s", errors.ErrConfigInvalid, fe.Namespace(), fe.Tag())
		}
		return fmt.Errorf("%w: %v", errors.ErrConfigInvalid, err)
	}

	for i, g := range c.Coverage.Groups {
		if g.Name == "" || len(g.Tags) == 0 {
			return fmt.Errorf("%w: coverage group %d needs a name and tags", errors.ErrConfigInvalid, i+1)
		}
	}
	for i, cat := range c.History.Categories {
		if cat.Name == "" || len(cat.Tags) == 0 {
			return fmt.Errorf("%w: history category %d needs a name and tags", errors.ErrConfigInvalid, i+1)
		}
	}
	return nil
}
