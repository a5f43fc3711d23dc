// Package config loads the static operational table this repo needs:
// per-provider rate-limit/circuit-breaker/base-URL/enabled settings. The
// sector-to-ETF mapping is not here; it lives in internal/backtest.
// Adapted from the teacher's internal/config/providers.go (same YAML
// shape, same field-by-field Validate cascade), generalized from exchange
// market-data providers to this spec's finance-data providers.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ProvidersConfig is the full operational configuration for every finance
// provider (§4.1, §4.6).
type ProvidersConfig struct {
	Providers map[string]ProviderConfig `yaml:"providers"`
	Global    GlobalConfig              `yaml:"global"`
}

// ProviderConfig is one provider's operational envelope.
type ProviderConfig struct {
	BaseURL     string        `yaml:"base_url"`
	RPS         int           `yaml:"rps"`
	Burst       int           `yaml:"burst"`
	DailyBudget int           `yaml:"daily_budget"`
	Backoff     BackoffConfig `yaml:"backoff_ms"`
	Circuit     CircuitConfig `yaml:"circuit"`
	Enabled     bool          `yaml:"enabled"`
}

// BackoffConfig is exponential backoff configuration for a provider's HTTP
// client retry policy.
type BackoffConfig struct {
	BaseMS   int  `yaml:"base"`
	MaxMS    int  `yaml:"max"`
	Jitter   bool `yaml:"jitter"`
}

// CircuitConfig is sony/gobreaker configuration for a provider.
type CircuitConfig struct {
	FailureThreshold int `yaml:"failure_threshold"`
	SuccessThreshold int `yaml:"success_threshold"`
	TimeoutMS        int `yaml:"timeout_ms"`
}

// GlobalConfig is configuration shared across every provider.
type GlobalConfig struct {
	MaxConcurrentPerHost int    `yaml:"max_concurrent_per_host"`
	UserAgent            string `yaml:"user_agent"`
	HTTPTimeoutMS        int    `yaml:"http_timeout_ms"` // §5: "default 12s for HTTP"
}

// DefaultGlobalConfig returns the §5 defaults.
func DefaultGlobalConfig() GlobalConfig {
	return GlobalConfig{
		MaxConcurrentPerHost: 4,
		UserAgent:            "finscope-aggregator/1.0",
		HTTPTimeoutMS:        12000,
	}
}

// LoadProvidersConfig reads and validates a providers.yaml file.
func LoadProvidersConfig(path string) (*ProvidersConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read providers config: %w", err)
	}

	cfg := ProvidersConfig{Global: DefaultGlobalConfig()}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse providers config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid providers config: %w", err)
	}
	return &cfg, nil
}

// Validate checks every field this config drives at runtime.
func (c *ProvidersConfig) Validate() error {
	if c.Global.MaxConcurrentPerHost <= 0 {
		return fmt.Errorf("global max_concurrent_per_host must be positive, got %d", c.Global.MaxConcurrentPerHost)
	}
	if c.Global.UserAgent == "" {
		return fmt.Errorf("global user_agent cannot be empty")
	}
	for name, provider := range c.Providers {
		if err := provider.Validate(); err != nil {
			return fmt.Errorf("provider %s: %w", name, err)
		}
	}
	return nil
}

// Validate checks one provider's configuration.
func (p *ProviderConfig) Validate() error {
	if p.BaseURL == "" {
		return fmt.Errorf("base_url cannot be empty")
	}
	if p.RPS <= 0 {
		return fmt.Errorf("rps must be positive, got %d", p.RPS)
	}
	if p.Burst < p.RPS {
		return fmt.Errorf("burst (%d) must be >= rps (%d)", p.Burst, p.RPS)
	}
	if err := p.Backoff.Validate(); err != nil {
		return fmt.Errorf("backoff_ms: %w", err)
	}
	if err := p.Circuit.Validate(); err != nil {
		return fmt.Errorf("circuit: %w", err)
	}
	return nil
}

// Validate checks backoff configuration.
func (b *BackoffConfig) Validate() error {
	if b.BaseMS <= 0 {
		return fmt.Errorf("base must be positive, got %d", b.BaseMS)
	}
	if b.MaxMS <= b.BaseMS {
		return fmt.Errorf("max (%d) must be > base (%d)", b.MaxMS, b.BaseMS)
	}
	return nil
}

// Validate checks circuit breaker configuration.
func (c *CircuitConfig) Validate() error {
	if c.FailureThreshold <= 0 {
		return fmt.Errorf("failure_threshold must be positive, got %d", c.FailureThreshold)
	}
	if c.SuccessThreshold <= 0 {
		return fmt.Errorf("success_threshold must be positive, got %d", c.SuccessThreshold)
	}
	if c.TimeoutMS <= 0 {
		return fmt.Errorf("timeout_ms must be positive, got %d", c.TimeoutMS)
	}
	return nil
}

// RequestTimeout returns the circuit breaker's per-request timeout.
func (p *ProviderConfig) RequestTimeout() time.Duration {
	return time.Duration(p.Circuit.TimeoutMS) * time.Millisecond
}

// BaseBackoff returns the starting retry backoff.
func (p *ProviderConfig) BaseBackoff() time.Duration {
	return time.Duration(p.Backoff.BaseMS) * time.Millisecond
}

// MaxBackoff returns the retry backoff ceiling.
func (p *ProviderConfig) MaxBackoff() time.Duration {
	return time.Duration(p.Backoff.MaxMS) * time.Millisecond
}

// GetProvider returns configuration for name, if present.
func (c *ProvidersConfig) GetProvider(name string) (ProviderConfig, bool) {
	cfg, ok := c.Providers[name]
	return cfg, ok
}

// IsProviderEnabled reports whether name is both configured and enabled.
func (c *ProvidersConfig) IsProviderEnabled(name string) bool {
	cfg, ok := c.Providers[name]
	return ok && cfg.Enabled
}

// DefaultProvidersConfig returns a hardcoded configuration covering all
// eight providers, used when no providers.yaml is supplied.
func DefaultProvidersConfig() *ProvidersConfig {
	defaultBackoff := BackoffConfig{BaseMS: 250, MaxMS: 8000, Jitter: true}
	defaultCircuit := CircuitConfig{FailureThreshold: 5, SuccessThreshold: 2, TimeoutMS: 12000}

	mk := func(baseURL string, rps, burst, dailyBudget int) ProviderConfig {
		return ProviderConfig{
			BaseURL:     baseURL,
			RPS:         rps,
			Burst:       burst,
			DailyBudget: dailyBudget,
			Backoff:     defaultBackoff,
			Circuit:     defaultCircuit,
			Enabled:     true,
		}
	}

	return &ProvidersConfig{
		Global: DefaultGlobalConfig(),
		Providers: map[string]ProviderConfig{
			"yahoo":        mk("https://query1.finance.yahoo.com", 5, 10, 100000),
			"alphavantage": mk("https://www.alphavantage.co/query", 1, 1, 500),
			"finnhub":      mk("https://finnhub.io/api/v1", 5, 10, 60000),
			"fmp":          mk("https://financialmodelingprep.com/api", 5, 10, 250),
			"polygon":      mk("https://api.polygon.io", 5, 10, 50000),
			"quartr":       mk("https://api.quartr.com/public/v1", 2, 4, 5000),
			"secedgar":     mk("https://data.sec.gov", 10, 10, 1000000),
			"quiver":       mk("https://api.quiverquant.com/beta", 2, 4, 5000),
		},
	}
}
