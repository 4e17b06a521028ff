package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"econdash/internal/errors"
)

func TestLoad_WritesTemplateOnFirstRun(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(dir, "config.toml"))
	assert.Equal(t, filepath.Join(dir, "config.toml"), cfg.File)
	assert.Equal(t, "sqlite", cfg.Data.Source)
	assert.Equal(t, filepath.Join(dir, "data"), cfg.Data.Dir)
	assert.Equal(t, 30*time.Minute, cfg.Data.CacheTTL)
	assert.Equal(t, 6*time.Hour, cfg.Data.StaleAfter)
	assert.Equal(t, []string{"USD", "JPY", "EUR", "GBP", "AUD"}, cfg.Regions.Tracked)
	assert.Equal(t, "Japanese Yen", cfg.Regions.DisplayName("JPY"))
	assert.Equal(t, "CNY", cfg.Regions.DisplayName("CNY"))
	assert.NotEmpty(t, cfg.Coverage.Groups)
	assert.NotEmpty(t, cfg.History.Categories)
	assert.Equal(t, filepath.Join(dir, "data", "econdash.db"), cfg.DBPath())
}

func TestLoad_FileAndEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	content := `
[data]
source = "csv"
months_back = 12

[regions]
tracked = ["USD", "EUR"]

[[coverage.groups]]
name = "Inflation"
tags = ["CPI (YoY)", "Core CPI (YoY)"]

[[history.categories]]
name = "Prices"
tags = ["CPI (YoY)"]
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0644))
	t.Setenv("ECONDASH_SERVER_ADDR", "0.0.0.0:9999")

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "csv", cfg.Data.Source)
	assert.Equal(t, 12, cfg.Data.MonthsBack)
	assert.Equal(t, []string{"USD", "EUR"}, cfg.Regions.Tracked)
	assert.Equal(t, "0.0.0.0:9999", cfg.Server.Addr)
	require.Len(t, cfg.Coverage.Groups, 1)
	assert.Equal(t, "Inflation", cfg.Coverage.Groups[0].Name)
	assert.Equal(t, []string{"CPI (YoY)", "Core CPI (YoY)"}, cfg.Coverage.Groups[0].Tags)
	require.Len(t, cfg.History.Categories, 1)
	assert.Equal(t, "Prices", cfg.History.Categories[0].Name)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad source", func(c *Config) { c.Data.Source = "postgres" }},
		{"no regions", func(c *Config) { c.Regions.Tracked = nil }},
		{"lower-case region", func(c *Config) { c.Regions.Tracked = []string{"usd"} }},
		{"zero ttl", func(c *Config) { c.Data.CacheTTL = 0 }},
		{"bad url", func(c *Config) { c.Provider.URL = "not a url" }},
		{"zero rate", func(c *Config) { c.Provider.RatePerSecond = 0 }},
		{"bad level", func(c *Config) { c.Log.Level = "chatty" }},
		{"empty group", func(c *Config) { c.Coverage.Groups[0].Tags = nil }},
		{"unnamed category", func(c *Config) { c.History.Categories[0].Name = "" }},
	}

	require.NoError(t, Default(t.TempDir()).Validate())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default(t.TempDir())
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrConfigInvalid), "got %v", err)
		})
	}
}

func TestLoad_InvalidFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte("[data]\nsource = \"s3\"\n"), 0644))

	_, err := Load(dir)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrConfigInvalid))
}
