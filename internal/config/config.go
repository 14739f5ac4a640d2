package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

type Server struct {
	Port              string `json:"port"`
	RequestTimeoutSec int    `json:"request_timeout_sec"`
}

type Coingecko struct {
	BaseURL string `json:"base_url"`
	// TimeoutSeconds bounds a single upstream attempt.
	TimeoutSeconds      float64 `json:"timeout_sec"`
	RetryAttempts       int     `json:"retry_attempts"`
	RetryBackoffSeconds float64 `json:"retry_backoff_sec"`
	CacheTTLSeconds     float64 `json:"cache_ttl_sec"`
	// Optional outbound throttling of upstream calls.
	MaxRequestsPerMinute  int `json:"max_requests_per_minute"`
	MinRequestIntervalSec int `json:"min_request_interval_sec"`
	Burst                 int `json:"burst"`
}

type Config struct {
	Server    Server    `json:"server"`
	Coingecko Coingecko `json:"coingecko"`
}

func Default() Config {
	return Config{
		Server: Server{Port: "8080", RequestTimeoutSec: 10},
		Coingecko: Coingecko{
			BaseURL:             "https://api.coingecko.com/api/v3/simple/price",
			TimeoutSeconds:      3.0,
			RetryAttempts:       2,
			RetryBackoffSeconds: 0.3,
			CacheTTLSeconds:     30,
		},
	}
}

// Load reads JSON config from path. If path is empty or file does not exist,
// it returns defaults. Environment variables override select fields.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		if _, err := os.Stat("config.json"); err == nil {
			path = "config.json"
		}
	}
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err == nil {
			if err := json.Unmarshal(b, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config: %w", err)
			}
		}
	}
	applyEnv(&cfg)
	if cfg.Coingecko.RetryAttempts < 1 {
		cfg.Coingecko.RetryAttempts = 1
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		cfg.Server.Port = v
	}
	if v := os.Getenv("REQUEST_TIMEOUT_SEC"); v != "" {
		var x int
		fmt.Sscanf(v, "%d", &x)
		if x > 0 {
			cfg.Server.RequestTimeoutSec = x
		}
	}
	if v := os.Getenv("COINGECKO_BASE_URL"); v != "" {
		cfg.Coingecko.BaseURL = v
	}
	if v := os.Getenv("COINGECKO_TIMEOUT_SEC"); v != "" {
		var x float64
		fmt.Sscanf(v, "%f", &x)
		if x > 0 {
			cfg.Coingecko.TimeoutSeconds = x
		}
	}
	if v := os.Getenv("RETRY_ATTEMPTS"); v != "" {
		var x int
		fmt.Sscanf(v, "%d", &x)
		if x > 0 {
			cfg.Coingecko.RetryAttempts = x
		}
	}
	if v := os.Getenv("RETRY_BACKOFF_SEC"); v != "" {
		var x float64
		fmt.Sscanf(v, "%f", &x)
		if x >= 0 {
			cfg.Coingecko.RetryBackoffSeconds = x
		}
	}
	if v := os.Getenv("CACHE_TTL_SEC"); v != "" {
		var x float64
		fmt.Sscanf(v, "%f", &x)
		if x >= 0 {
			cfg.Coingecko.CacheTTLSeconds = x
		}
	}
	if v := os.Getenv("COINGECKO_MAX_RPM"); v != "" {
		var x int
		fmt.Sscanf(v, "%d", &x)
		if x >= 0 {
			cfg.Coingecko.MaxRequestsPerMinute = x
		}
	}
	if v := os.Getenv("COINGECKO_MIN_INTERVAL_SEC"); v != "" {
		var x int
		fmt.Sscanf(v, "%d", &x)
		if x >= 0 {
			cfg.Coingecko.MinRequestIntervalSec = x
		}
	}
	if v := os.Getenv("COINGECKO_BURST"); v != "" {
		var x int
		fmt.Sscanf(v, "%d", &x)
		if x > 0 {
			cfg.Coingecko.Burst = x
		}
	}
}
