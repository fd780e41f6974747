// Package config provides configuration management for the scan engine.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	yaml "gopkg.in/yaml.v3"
)

const (
	// defaultTimeout is used when provider.timeout is unset.
	defaultTimeout = 10 * time.Second
	// defaultCacheTTL is used when provider.cache_ttl is unset.
	defaultCacheTTL = 5 * time.Minute
	// defaultListen is used when dashboard.listen is unset.
	defaultListen = ":8080"
)

// Config represents the complete application configuration.
type Config struct {
	Environment EnvironmentConfig `yaml:"environment"`
	Provider    ProviderConfig    `yaml:"provider"`
	Scan        ScanConfig        `yaml:"scan"`
	Strategy    StrategyConfig    `yaml:"strategy"`
	Ranking     RankingConfig     `yaml:"ranking"`
	Dashboard   DashboardConfig   `yaml:"dashboard"`
}

// EnvironmentConfig defines the runtime environment settings.
type EnvironmentConfig struct {
	Mode     string `yaml:"mode"`      // mock | sandbox | live
	LogLevel string `yaml:"log_level"` // debug | info | warn | error
}

// ProviderConfig defines market data provider settings. APIKey supports
// ${VAR} expansion so secrets stay out of the file.
type ProviderConfig struct {
	APIKey      string `yaml:"api_key"`
	APIEndpoint string `yaml:"api_endpoint"` // optional base URL override
	Timeout     string `yaml:"timeout"`      // request timeout, duration string
	CacheTTL    string `yaml:"cache_ttl"`    // snapshot cache TTL, duration string
	// CircuitBreaker wraps the provider so repeated upstream failures
	// fail fast instead of hammering the API.
	CircuitBreaker bool `yaml:"circuit_breaker"`
}

// ScanConfig defines what gets scanned by default.
type ScanConfig struct {
	Symbols      []string `yaml:"symbols"`
	MinDays      int      `yaml:"min_days"`
	MaxDays      int      `yaml:"max_days"`
	Relaxed      bool     `yaml:"relaxed"`
	RiskFreeRate float64  `yaml:"risk_free_rate"`
}

// StrategyConfig tunes candidate construction. Zero values mean "use the
// engine default" so a minimal config stays minimal.
type StrategyConfig struct {
	Width           float64   `yaml:"width"`
	StrikeRangePct  float64   `yaml:"strike_range_pct"`
	MinCredit       float64   `yaml:"min_credit"`
	Tolerance       float64   `yaml:"tolerance"`
	SparseTolerance float64   `yaml:"sparse_tolerance"`
	ShortDeltaBand  []float64 `yaml:"short_delta_band"` // [min, max]
	LongDeltaBand   []float64 `yaml:"long_delta_band"`  // [min, max]
	CondorTopK      int       `yaml:"condor_top_k"`
	NearMinDays     int       `yaml:"near_min_days"`
	NearMaxDays     int       `yaml:"near_max_days"`
	FarMinDays      int       `yaml:"far_min_days"`
}

// RankingConfig tunes pick selection.
type RankingConfig struct {
	MinDistancePct float64 `yaml:"min_distance_pct"`
	AggressiveMax  float64 `yaml:"aggressive_max"`
	BalancedMax    float64 `yaml:"balanced_max"`
}

// DashboardConfig defines the HTTP dashboard settings.
type DashboardConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Listen    string `yaml:"listen"`
	AuthToken string `yaml:"auth_token"`
}

// Load reads and parses the configuration file from the specified path.
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config.yaml"
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- configPath is a user-provided config file path
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	var config Config
	dec := yaml.NewDecoder(strings.NewReader(expanded))
	dec.KnownFields(true)
	if err := dec.Decode(&config); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// Validate fills defaults and checks that all configuration values are
// valid and consistent.
func (c *Config) Validate() error {
	c.applyDefaults()

	switch c.Environment.Mode {
	case "mock", "sandbox", "live":
	default:
		return fmt.Errorf("environment.mode must be 'mock', 'sandbox', or 'live'")
	}
	switch c.Environment.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("environment.log_level must be one of debug, info, warn, error")
	}

	if c.Environment.Mode != "mock" && c.Provider.APIKey == "" {
		return fmt.Errorf("provider.api_key is required in %s mode", c.Environment.Mode)
	}
	if _, err := time.ParseDuration(c.Provider.Timeout); err != nil {
		return fmt.Errorf("provider.timeout invalid: %w", err)
	}
	if _, err := time.ParseDuration(c.Provider.CacheTTL); err != nil {
		return fmt.Errorf("provider.cache_ttl invalid: %w", err)
	}

	if len(c.Scan.Symbols) == 0 {
		return fmt.Errorf("scan.symbols must list at least one symbol")
	}
	for _, sym := range c.Scan.Symbols {
		if strings.TrimSpace(sym) == "" {
			return fmt.Errorf("scan.symbols must not contain empty entries")
		}
	}
	if c.Scan.MinDays <= 0 || c.Scan.MaxDays <= 0 || c.Scan.MinDays > c.Scan.MaxDays {
		return fmt.Errorf("scan day window must satisfy 0 < min_days <= max_days, got [%d,%d]",
			c.Scan.MinDays, c.Scan.MaxDays)
	}
	if c.Scan.RiskFreeRate < 0 || c.Scan.RiskFreeRate > 0.25 {
		return fmt.Errorf("scan.risk_free_rate must be between 0 and 0.25")
	}

	if err := c.validateStrategy(); err != nil {
		return err
	}

	if c.Ranking.MinDistancePct < 0 {
		return fmt.Errorf("ranking.min_distance_pct must be >= 0")
	}
	if c.Ranking.AggressiveMax != 0 && c.Ranking.BalancedMax != 0 &&
		c.Ranking.AggressiveMax >= c.Ranking.BalancedMax {
		return fmt.Errorf("ranking.aggressive_max (%.1f) must be < ranking.balanced_max (%.1f)",
			c.Ranking.AggressiveMax, c.Ranking.BalancedMax)
	}

	return nil
}

func (c *Config) validateStrategy() error {
	s := &c.Strategy
	if s.Width < 0 {
		return fmt.Errorf("strategy.width must be >= 0")
	}
	if s.StrikeRangePct < 0 || s.StrikeRangePct > 1 {
		return fmt.Errorf("strategy.strike_range_pct must be between 0 and 1")
	}
	if s.MinCredit < 0 {
		return fmt.Errorf("strategy.min_credit must be >= 0")
	}
	if s.Tolerance < 0 || s.SparseTolerance < 0 {
		return fmt.Errorf("strategy tolerances must be >= 0")
	}
	if err := validateBand("strategy.short_delta_band", s.ShortDeltaBand); err != nil {
		return err
	}
	if err := validateBand("strategy.long_delta_band", s.LongDeltaBand); err != nil {
		return err
	}
	if s.CondorTopK < 0 {
		return fmt.Errorf("strategy.condor_top_k must be >= 0")
	}
	if s.NearMinDays < 0 || s.NearMaxDays < 0 || s.FarMinDays < 0 {
		return fmt.Errorf("strategy day windows must be >= 0")
	}
	if s.NearMinDays > 0 && s.NearMaxDays > 0 && s.NearMinDays > s.NearMaxDays {
		return fmt.Errorf("strategy.near_min_days (%d) must be <= strategy.near_max_days (%d)",
			s.NearMinDays, s.NearMaxDays)
	}
	return nil
}

// validateBand checks an optional [min,max] delta band. An empty band means
// "use the engine default".
func validateBand(name string, band []float64) error {
	if len(band) == 0 {
		return nil
	}
	if len(band) != 2 || band[0] < 0 || band[1] > 1 || band[0] > band[1] {
		return fmt.Errorf("%s must be [min,max] with 0 <= min <= max <= 1", name)
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Environment.Mode == "" {
		c.Environment.Mode = "mock"
	}
	if c.Environment.LogLevel == "" {
		c.Environment.LogLevel = "info"
	}
	if c.Provider.Timeout == "" {
		c.Provider.Timeout = defaultTimeout.String()
	}
	if c.Provider.CacheTTL == "" {
		c.Provider.CacheTTL = defaultCacheTTL.String()
	}
	if len(c.Scan.Symbols) == 0 {
		c.Scan.Symbols = []string{"SPY"}
	}
	if c.Scan.MinDays == 0 {
		c.Scan.MinDays = 14
	}
	if c.Scan.MaxDays == 0 {
		c.Scan.MaxDays = 45
	}
	if c.Scan.RiskFreeRate == 0 {
		c.Scan.RiskFreeRate = 0.045
	}
	if c.Dashboard.Listen == "" {
		c.Dashboard.Listen = defaultListen
	}
}

// IsMock reports whether scans run against the offline mock provider.
func (c *Config) IsMock() bool {
	return c.Environment.Mode == "mock"
}

// IsSandbox reports whether the Tradier sandbox environment is targeted.
func (c *Config) IsSandbox() bool {
	return c.Environment.Mode == "sandbox"
}

// GetTimeout returns the provider request timeout.
func (c *Config) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Provider.Timeout)
	if err != nil {
		return defaultTimeout
	}
	return d
}

// GetCacheTTL returns the snapshot cache TTL.
func (c *Config) GetCacheTTL() time.Duration {
	d, err := time.ParseDuration(c.Provider.CacheTTL)
	if err != nil {
		return defaultCacheTTL
	}
	return d
}
