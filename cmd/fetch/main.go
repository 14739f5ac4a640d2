package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"net/http"
	"os"
	"time"

	"btcquote/internal/config"
	"btcquote/internal/httpx"
	"btcquote/internal/provider/coingecko"
)

// One-shot fetch of the current BTC/USD quote, for ad-hoc upstream checks.
func main() {
	var baseURL string
	var timeoutSec float64
	var attempts int
	var configPath string

	flag.StringVar(&baseURL, "base-url", os.Getenv("COINGECKO_BASE_URL"), "CoinGecko simple price URL (optional)")
	flag.Float64Var(&timeoutSec, "timeout", 0, "per-attempt timeout seconds (0 = config default)")
	flag.IntVar(&attempts, "attempts", 0, "retry attempts (0 = config default)")
	flag.StringVar(&configPath, "config", os.Getenv("CONFIG_FILE"), "path to config.json (optional)")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if baseURL != "" {
		cfg.Coingecko.BaseURL = baseURL
	}
	if timeoutSec > 0 {
		cfg.Coingecko.TimeoutSeconds = timeoutSec
	}
	if attempts > 0 {
		cfg.Coingecko.RetryAttempts = attempts
	}

	httpClient := httpx.New(time.Duration(cfg.Server.RequestTimeoutSec) * time.Second)

	client := coingecko.NewClient(
		coingecko.WithBaseURL(cfg.Coingecko.BaseURL),
		coingecko.WithHTTPClient(httpClient.HTTP),
		coingecko.WithHeader(http.Header{"User-Agent": []string{httpClient.UserAgent}}),
		coingecko.WithTimeout(time.Duration(cfg.Coingecko.TimeoutSeconds*float64(time.Second))),
		coingecko.WithRetryAttempts(cfg.Coingecko.RetryAttempts),
		coingecko.WithRetryBackoff(time.Duration(cfg.Coingecko.RetryBackoffSeconds*float64(time.Second))),
	)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.RequestTimeoutSec)*time.Second)
	defer cancel()

	quote, err := client.Fetch(ctx)
	if err != nil {
		log.Fatalf("fetch: %v", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(quote)
}
