package main

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"log"
	"math"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"btcquote/internal/config"
	"btcquote/internal/httpx"
	"btcquote/internal/metrics"
	"btcquote/internal/provider"
	"btcquote/internal/provider/coingecko"
	"btcquote/internal/provider/ratelimit"
	"btcquote/internal/quotecache"
)

//go:embed index.html
var indexHTML []byte

// priceResponse is the JSON shape consumed by the frontend.
type priceResponse struct {
	Symbol              string  `json:"symbol"`
	Currency            string  `json:"currency"`
	Price               float64 `json:"price"`
	Source              string  `json:"source"`
	ProviderLastUpdated string  `json:"provider_last_updated"`
	ServerLastUpdated   string  `json:"server_last_updated"`
	Stale               bool    `json:"stale"`
	CacheAgeSeconds     float64 `json:"cache_age_seconds"`
	Warning             string  `json:"warning,omitempty"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details"`
}

// quoteGetter is the single call the HTTP layer makes into the core.
type quoteGetter interface {
	GetQuote(ctx context.Context) (quotecache.Result, error)
}

func main() {
	// Config
	cfgPath := os.Getenv("CONFIG_FILE")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	port := cfg.Server.Port
	reqTimeout := time.Duration(cfg.Server.RequestTimeoutSec) * time.Second

	httpClient := httpx.New(reqTimeout)

	m := metrics.New(prometheus.DefaultRegisterer)

	gecko := coingecko.NewClient(
		coingecko.WithBaseURL(cfg.Coingecko.BaseURL),
		coingecko.WithHTTPClient(httpClient.HTTP),
		coingecko.WithHeader(http.Header{"User-Agent": []string{httpClient.UserAgent}}),
		coingecko.WithTimeout(time.Duration(cfg.Coingecko.TimeoutSeconds*float64(time.Second))),
		coingecko.WithRetryAttempts(cfg.Coingecko.RetryAttempts),
		coingecko.WithRetryBackoff(time.Duration(cfg.Coingecko.RetryBackoffSeconds*float64(time.Second))),
	)

	var fetcher provider.Fetcher = gecko
	// Prefer token bucket with burst if RPM is set, otherwise use min-interval
	if cfg.Coingecko.MaxRequestsPerMinute > 0 {
		rate := float64(cfg.Coingecko.MaxRequestsPerMinute) / 60.0
		burst := cfg.Coingecko.Burst
		if burst <= 0 {
			burst = 1
		}
		fetcher = &ratelimit.TokenBucketFetcher{P: fetcher, TB: ratelimit.NewTokenBucket(rate, burst)}
	} else if cfg.Coingecko.MinRequestIntervalSec > 0 {
		interval := time.Duration(cfg.Coingecko.MinRequestIntervalSec) * time.Second
		fetcher = &ratelimit.MinInterval{P: fetcher, Interval: interval}
	}
	fetcher = &metrics.Fetcher{P: fetcher, M: m}

	coordinator := quotecache.New(fetcher, time.Duration(cfg.Coingecko.CacheTTLSeconds*float64(time.Second)))

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(indexHTML)
	})
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/api/prices/btc-usd", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), reqTimeout)
		defer cancel()
		writePrice(w, ctx, coordinator, m)
	})

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           recoverPanic(mux),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("server listening on :%s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server: %v", err)
		}
	}()

	// graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

// writePrice maps the coordinator's answer onto the JSON API:
// quote (fresh or stale) -> 200, classified fetch error with no fallback -> 502.
func writePrice(w http.ResponseWriter, ctx context.Context, quotes quoteGetter, m *metrics.Metrics) {
	res, err := quotes.GetQuote(ctx)
	if err != nil {
		var ferr *provider.FetchError
		if errors.As(err, &ferr) {
			log.Printf("price provider error: %v", err)
			writeJSON(w, http.StatusBadGateway, errorResponse{
				Error:   "Failed to fetch BTC price from upstream provider.",
				Details: err.Error(),
			})
			return
		}
		log.Printf("unexpected error fetching price: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Error:   "Unexpected error while fetching BTC price.",
			Details: err.Error(),
		})
		return
	}

	if m != nil {
		m.CacheServes.WithLabelValues(cacheState(res)).Inc()
		m.LastPrice.Set(res.Quote.Price)
	}
	if res.Stale {
		log.Printf("serving stale cached price (age %.2fs)", res.CacheAge.Seconds())
	}

	writeJSON(w, http.StatusOK, priceResponse{
		Symbol:              "BTC",
		Currency:            "USD",
		Price:               res.Quote.Price,
		Source:              res.Quote.Source,
		ProviderLastUpdated: res.Quote.ProviderUpdatedAt.Format(time.RFC3339),
		ServerLastUpdated:   time.Now().UTC().Format(time.RFC3339),
		Stale:               res.Stale,
		CacheAgeSeconds:     math.Round(res.CacheAge.Seconds()*100) / 100,
		Warning:             res.Warning,
	})
}

func cacheState(res quotecache.Result) string {
	switch {
	case res.Stale:
		return "stale"
	case res.CacheAge == 0:
		return "refresh"
	default:
		return "fresh"
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

// recoverPanic protects handlers from panics.
func recoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Printf("panic serving %s: %v", r.URL.Path, rec)
				writeJSON(w, http.StatusInternalServerError, errorResponse{
					Error:   "Unexpected error while fetching BTC price.",
					Details: "internal server error",
				})
			}
		}()
		next.ServeHTTP(w, r)
	})
}
