package metrics

import (
	"context"
	"time"

	"btcquote/internal/provider"
)

// Fetcher wraps a provider.Fetcher and records outcome and duration of
// each logical upstream fetch.
type Fetcher struct {
	P provider.Fetcher
	M *Metrics
}

func (f *Fetcher) Name() string { return f.P.Name() }

func (f *Fetcher) Fetch(ctx context.Context) (provider.Quote, error) {
	start := time.Now()
	q, err := f.P.Fetch(ctx)
	f.M.FetchDuration.Observe(time.Since(start).Seconds())
	status := "ok"
	if err != nil {
		status = "error"
	}
	f.M.UpstreamRequests.WithLabelValues(f.P.Name(), status).Inc()
	return q, err
}
