package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# econdash configuration

[data]
# Directory holding monthly CSV files, the combined file and the database.
# Relative paths are resolved against this config directory.
dir = "data"
# Where views read the dataset from: "sqlite" or "csv"
source = "sqlite"
db_file = "econdash.db"
# How long a loaded dataset is reused before it is read again
cache_ttl = "30m"
# A monthly file older than this is fetched again on refresh
stale_after = "6h"
# Months fetched on refresh, counted in 30 day steps from today
months_back = 59
months_ahead = 1

[regions]
# Currencies compared by the coverage filter
tracked = ["USD", "JPY", "EUR", "GBP", "AUD"]

[regions.names]
USD = "US Dollar"
JPY = "Japanese Yen"
EUR = "Euro"
GBP = "British Pound"
AUD = "Australian Dollar"

[provider]
name = "faireconomy"
url = "https://nfs.faireconomy.media/ff_calendar_thisweek.json"
timeout = "15s"
# Requests per second and burst allowed against the provider
rate_per_second = 1.0
burst = 2
max_retries = 3
# Months fetched in parallel
concurrency = 4
# Failed fetches in a row before the provider is left alone, 0 disables
breaker_threshold = 5
breaker_cooldown = "1m"

[classifier]
# Optional YAML rule table, see "econdash tags --help"
rules_file = ""

# Tags counted as one indicator by the coverage filter. When no group is
# listed the built-in groups are used.
# [[coverage.groups]]
# name = "CPI"
# tags = ["CPI (YoY)", "National CPI (YoY)", "Core CPI (YoY)"]

# Row sections of "econdash history". When none is listed the built-in
# layout is used.
# [[history.categories]]
# name = "Inflation"
# tags = ["CPI (YoY)", "Core CPI (YoY)", "PPI (YoY)"]

[server]
addr = "127.0.0.1:8888"
read_timeout = "15s"
write_timeout = "30s"
# API rate limit, 0 disables it
rate_per_second = 20.0
burst = 40

[log]
# debug, info, warn, error
level = "info"
file = true
path = "logs/econdash.log"

[ui]
color_enabled = true
date_format = "2006-01-02"
`

func createTemplateConfig(configDir string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, "config.toml")
	if err := os.WriteFile(path, []byte(configTemplate), 0644); err != nil {
		return fmt.Errorf("writing config template: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Created config template at %s\n", path)
	return nil
}
