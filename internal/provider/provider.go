package provider

import (
	"context"
	"time"
)

// Quote is the normalized BTC/USD record produced by a successful fetch.
// A Quote exists only for a fully valid upstream response; a missing or
// non-positive price is a fetch failure, never a Quote.
type Quote struct {
	Price             float64   `json:"price"`
	Source            string    `json:"source"`
	ProviderUpdatedAt time.Time `json:"provider_last_updated"`
}

// Fetcher performs one logical upstream fetch, retries included.
// Implementations keep no state between calls.
type Fetcher interface {
	Name() string
	Fetch(ctx context.Context) (Quote, error)
}
