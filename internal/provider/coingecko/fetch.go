package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math"
	"net/http"
	"net/url"
	"time"

	"btcquote/internal/provider"
)

// bodyPreviewLimit caps the response body excerpt carried in status errors.
const bodyPreviewLimit = 200

// Fetch retrieves the current BTC/USD quote. It attempts the request up
// to retryAttempts times with a fixed backoff, classifying each failure,
// and surfaces the last failure when all attempts are spent.
func (c *Client) Fetch(ctx context.Context) (provider.Quote, error) {
	query := url.Values{}
	query.Set("ids", "bitcoin")
	query.Set("vs_currencies", "usd")
	query.Set("include_last_updated_at", "true")
	endpoint := fmt.Sprintf("%s?%s", c.baseURL, query.Encode())

	var lastErr *provider.FetchError
	for attempt := 1; attempt <= c.retryAttempts; attempt++ {
		quote, ferr := c.fetchOnce(ctx, endpoint)
		if ferr == nil {
			return quote, nil
		}
		lastErr = ferr
		log.Printf("coingecko: attempt %d/%d failed (%s): %v", attempt, c.retryAttempts, ferr.Kind, ferr)
		if attempt < c.retryAttempts {
			c.sleep(c.retryBackoff)
		}
	}
	return provider.Quote{}, lastErr
}

// fetchOnce performs a single bounded request and classifies the outcome.
func (c *Client) fetchOnce(ctx context.Context, endpoint string) (provider.Quote, *provider.FetchError) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return provider.Quote{}, &provider.FetchError{Kind: provider.KindNetwork, Message: "creating coingecko request", Err: err}
	}
	req.Header = c.header.Clone()

	res, err := c.httpClient.Do(req)
	if err != nil {
		return provider.Quote{}, &provider.FetchError{Kind: provider.KindNetwork, Message: "calling coingecko", Err: err}
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		preview, _ := io.ReadAll(io.LimitReader(res.Body, bodyPreviewLimit))
		return provider.Quote{}, &provider.FetchError{
			Kind:    provider.KindStatus,
			Message: fmt.Sprintf("coingecko returned status %d: %s", res.StatusCode, preview),
		}
	}

	var body map[string]map[string]any
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return provider.Quote{}, &provider.FetchError{Kind: provider.KindMalformed, Message: "decoding coingecko response", Err: err}
	}

	bitcoin, ok := body["bitcoin"]
	if !ok {
		return provider.Quote{}, &provider.FetchError{Kind: provider.KindSchema, Message: "coingecko response missing bitcoin entry"}
	}
	price, ok := bitcoin["usd"].(float64)
	if !ok {
		return provider.Quote{}, &provider.FetchError{Kind: provider.KindSchema, Message: fmt.Sprintf("coingecko response missing numeric bitcoin.usd: %v", bitcoin)}
	}
	if math.IsNaN(price) || math.IsInf(price, 0) || price <= 0 {
		return provider.Quote{}, &provider.FetchError{Kind: provider.KindSchema, Message: fmt.Sprintf("coingecko returned invalid price %v", price)}
	}

	// last_updated_at is epoch seconds; absent means we stamp fetch time.
	updatedAt := time.Now().UTC()
	if ts, ok := bitcoin["last_updated_at"].(float64); ok {
		updatedAt = time.Unix(int64(ts), 0).UTC()
	}

	return provider.Quote{
		Price:             price,
		Source:            c.Name(),
		ProviderUpdatedAt: updatedAt,
	}, nil
}
