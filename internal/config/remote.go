package config

import (
	"fmt"
	"net/url"
	"os"
	"time"
)

// RemoteConfig configures the remote ranking endpoint used ahead of local k-NN.
type RemoteConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	BaseURL    string        `mapstructure:"base_url"`     // e.g. http://ranker:5000
	BaseURLEnv string        `mapstructure:"base_url_env"` // env var holding the base URL
	Timeout    time.Duration `mapstructure:"timeout"`
	HealthTTL  time.Duration `mapstructure:"health_ttl"` // how long a health probe result is reused
	Breaker    BreakerConfig `mapstructure:"breaker"`
}

// BreakerConfig holds circuit breaker settings for the remote ranker.
type BreakerConfig struct {
	MaxRequests  uint32        `mapstructure:"max_requests"` // probes allowed while half-open
	Interval     time.Duration `mapstructure:"interval"`     // closed-state counter reset period
	Timeout      time.Duration `mapstructure:"timeout"`      // open-state duration
	FailureRatio float64       `mapstructure:"failure_ratio"`
	MinRequests  uint32        `mapstructure:"min_requests"`
}

// ResolveEnvVars fills BaseURL from BaseURLEnv when BaseURL is not set directly.
func (c *RemoteConfig) ResolveEnvVars() {
	if c.BaseURLEnv != "" && c.BaseURL == "" {
		if val := os.Getenv(c.BaseURLEnv); val != "" {
			c.BaseURL = val
		}
	}
}

// Validate checks the remote settings. A disabled remote is always valid.
func (c *RemoteConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.BaseURL == "" {
		return fmt.Errorf("ranking.remote: base_url is required when enabled")
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("ranking.remote: base_url %q must be an absolute http(s) URL", c.BaseURL)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("ranking.remote: timeout must be positive")
	}
	if c.HealthTTL < 0 {
		return fmt.Errorf("ranking.remote: health_ttl must not be negative")
	}
	if c.Breaker.FailureRatio <= 0 || c.Breaker.FailureRatio > 1 {
		return fmt.Errorf("ranking.remote: breaker.failure_ratio must be in (0,1]")
	}
	return nil
}
