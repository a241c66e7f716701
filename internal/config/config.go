// Package config loads the JSON run configuration referenced by
// cmd/mirrorscan's first positional argument.
package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// Config is the on-disk run configuration. Plain encoding/json is used
// here rather than a schema-validating library — see DESIGN.md.
type Config struct {
	DatasetPath string `json:"dataset_path"`
	SymbolsPath string `json:"symbols_path"`
	Mode        string `json:"mode"`
	DatabaseURL string `json:"database_url,omitempty"`

	// AuthToken, if set, is the bearer token --serve requires on the
	// run-results routes. Unset means the dev-mode, no-auth behavior.
	AuthToken string `json:"auth_token,omitempty"`

	// SummaryRateLimitPerMin and ReportRateLimitPerMin bound --serve's two
	// endpoint shapes separately: /runs/latest returns a small fixed JSON
	// body cheaply, while /reports/:category streams a CSV that can run to
	// the full dataset size, so it earns its own, stricter budget. Zero
	// means "use the default for that endpoint".
	SummaryRateLimitPerMin int `json:"summary_rate_limit_per_min,omitempty"`
	ReportRateLimitPerMin  int `json:"report_rate_limit_per_min,omitempty"`
}

// ReportViolation reports whether this config's mode requires the
// per-row user-match violation flag (mode "B" of spec.md §4.7).
func (c Config) ReportViolation() bool {
	return c.Mode == "B"
}

// DefaultSummaryRateLimitPerMin and DefaultReportRateLimitPerMin are used
// when the config leaves the corresponding field at zero.
const (
	DefaultSummaryRateLimitPerMin = 120
	DefaultReportRateLimitPerMin  = 20
)

// RateLimits resolves the two --serve rate limits, substituting defaults
// for any the config left unset.
func (c Config) RateLimits() (summaryPerMin, reportPerMin int) {
	summaryPerMin = c.SummaryRateLimitPerMin
	if summaryPerMin <= 0 {
		summaryPerMin = DefaultSummaryRateLimitPerMin
	}
	reportPerMin = c.ReportRateLimitPerMin
	if reportPerMin <= 0 {
		reportPerMin = DefaultReportRateLimitPerMin
	}
	return summaryPerMin, reportPerMin
}

// Load reads and validates a Config from path.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if cfg.DatasetPath == "" {
		return Config{}, fmt.Errorf("config %s: dataset_path is required", path)
	}
	if cfg.SymbolsPath == "" {
		return Config{}, fmt.Errorf("config %s: symbols_path is required", path)
	}
	if cfg.Mode != "A" && cfg.Mode != "B" {
		return Config{}, fmt.Errorf("config %s: mode must be \"A\" or \"B\", got %q", path, cfg.Mode)
	}

	return cfg, nil
}
