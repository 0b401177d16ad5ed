package collector

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/proverbian/trade-score/internal/barstore"
	"github.com/proverbian/trade-score/internal/model"
)

// CachedFetcher serves recent windows from a Store and falls through to the
// wrapped Fetcher on a miss. Cache failures are logged, never returned.
type CachedFetcher struct {
	Next  Fetcher
	Store barstore.Store
	TTL   time.Duration
}

// NewCachedFetcher wraps next with store.
func NewCachedFetcher(next Fetcher, store barstore.Store, ttl time.Duration) *CachedFetcher {
	return &CachedFetcher{Next: next, Store: store, TTL: ttl}
}

func (c *CachedFetcher) Name() string { return c.Next.Name() + "+cache" }

func (c *CachedFetcher) FetchBars(ctx context.Context, pair model.Pair, interval, period string) ([]model.OHLCV, error) {
	logger := log.With().Str("component", "cache").Str("pair", string(pair)).Str("interval", interval).Logger()
	key := barstore.Key(c.Next.Name(), pair, interval, period)

	bars, ok, err := c.Store.Get(ctx, key)
	if err != nil {
		logger.Warn().Err(err).Msg("bar cache read failed")
	} else if ok {
		logger.Debug().Int("bars", len(bars)).Msg("bar cache hit")
		return bars, nil
	}

	bars, err = c.Next.FetchBars(ctx, pair, interval, period)
	if err != nil {
		return nil, err
	}
	if len(bars) > 0 {
		if err := c.Store.Put(ctx, key, bars, c.TTL); err != nil {
			logger.Warn().Err(err).Msg("bar cache write failed")
		}
	}
	return bars, nil
}
