package main

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"btcquote/internal/metrics"
	"btcquote/internal/provider"
	"btcquote/internal/quotecache"
)

type fakeCoordinator struct {
	res quotecache.Result
	err error
}

func (f fakeCoordinator) GetQuote(_ context.Context) (quotecache.Result, error) {
	return f.res, f.err
}

func testMetrics() *metrics.Metrics { return metrics.New(prometheus.NewRegistry()) }

func TestPrice_Fresh(t *testing.T) {
	updated := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	coord := fakeCoordinator{res: quotecache.Result{
		Quote:    provider.Quote{Price: 50000.12, Source: "coingecko", ProviderUpdatedAt: updated},
		CacheAge: 12340 * time.Millisecond,
	}}

	rr := httptest.NewRecorder()
	writePrice(rr, t.Context(), coord, testMetrics())
	if rr.Code != 200 {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	var resp priceResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Symbol != "BTC" || resp.Currency != "USD" || resp.Price != 50000.12 {
		t.Fatalf("unexpected: %+v", resp)
	}
	if resp.Stale || resp.Warning != "" {
		t.Fatalf("fresh quote marked stale: %+v", resp)
	}
	if resp.CacheAgeSeconds != 12.34 {
		t.Fatalf("cache_age_seconds=%v, want 12.34", resp.CacheAgeSeconds)
	}
	if resp.ProviderLastUpdated != "2025-06-01T12:00:00Z" {
		t.Fatalf("provider_last_updated=%q", resp.ProviderLastUpdated)
	}
	if resp.ServerLastUpdated == "" {
		t.Fatalf("server_last_updated missing")
	}
}

func TestPrice_StaleWithWarning(t *testing.T) {
	coord := fakeCoordinator{res: quotecache.Result{
		Quote:    provider.Quote{Price: 48000.0, Source: "coingecko", ProviderUpdatedAt: time.Now().UTC()},
		Stale:    true,
		CacheAge: 40 * time.Second,
		Warning:  quotecache.StaleWarning,
	}}

	rr := httptest.NewRecorder()
	writePrice(rr, t.Context(), coord, testMetrics())
	if rr.Code != 200 {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	var resp priceResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Stale || resp.Warning == "" {
		t.Fatalf("expected stale+warning, got %+v", resp)
	}
	if resp.CacheAgeSeconds != 40 {
		t.Fatalf("cache_age_seconds=%v, want 40", resp.CacheAgeSeconds)
	}
}

func TestPrice_FetchErrorIs502(t *testing.T) {
	coord := fakeCoordinator{err: &provider.FetchError{Kind: provider.KindStatus, Message: "coingecko returned status 503"}}

	rr := httptest.NewRecorder()
	writePrice(rr, t.Context(), coord, testMetrics())
	if rr.Code != 502 {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	var resp errorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Error == "" || resp.Details == "" {
		t.Fatalf("missing error fields: %+v", resp)
	}
}

func TestPrice_UnexpectedErrorIs500(t *testing.T) {
	coord := fakeCoordinator{err: context.DeadlineExceeded}

	rr := httptest.NewRecorder()
	writePrice(rr, t.Context(), coord, testMetrics())
	if rr.Code != 500 {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	var resp errorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Error == "" {
		t.Fatalf("missing error field: %+v", resp)
	}
}

func TestPrice_OmitsWarningWhenEmpty(t *testing.T) {
	coord := fakeCoordinator{res: quotecache.Result{
		Quote: provider.Quote{Price: 50000.12, Source: "coingecko", ProviderUpdatedAt: time.Now().UTC()},
	}}

	rr := httptest.NewRecorder()
	writePrice(rr, t.Context(), coord, testMetrics())
	var raw map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &raw); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, ok := raw["warning"]; ok {
		t.Fatalf("warning should be omitted when empty: %v", raw)
	}
}
