package barstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/proverbian/trade-score/internal/model"
)

// Store caches fetched bar windows for a short time. Get reports a miss for
// entries whose TTL has passed; expired windows are never returned.
type Store interface {
	Get(ctx context.Context, key string) ([]model.OHLCV, bool, error)
	Put(ctx context.Context, key string, bars []model.OHLCV, ttl time.Duration) error
	Close() error
}

// Key builds the cache key of a fetch request.
func Key(source string, pair model.Pair, interval, period string) string {
	return strings.Join([]string{source, string(pair), interval, period}, ":")
}

func encode(bars []model.OHLCV) ([]byte, error) {
	data, err := json.Marshal(bars)
	if err != nil {
		return nil, fmt.Errorf("encode bars: %w", err)
	}
	return data, nil
}

func decode(data []byte) ([]model.OHLCV, error) {
	var bars []model.OHLCV
	if err := json.Unmarshal(data, &bars); err != nil {
		return nil, fmt.Errorf("decode bars: %w", err)
	}
	return bars, nil
}
