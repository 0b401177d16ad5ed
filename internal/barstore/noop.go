package barstore

import (
	"context"
	"time"

	"github.com/proverbian/trade-score/internal/model"
)

// NoopStore is a no-op implementation used when caching is disabled.
type NoopStore struct{}

func NewNoopStore() *NoopStore { return &NoopStore{} }

func (n *NoopStore) Get(_ context.Context, _ string) ([]model.OHLCV, bool, error) {
	return nil, false, nil
}

func (n *NoopStore) Put(_ context.Context, _ string, _ []model.OHLCV, _ time.Duration) error {
	return nil
}

func (n *NoopStore) Close() error { return nil }
