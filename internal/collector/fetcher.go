package collector

import (
	"context"
	"errors"
	"fmt"

	"github.com/proverbian/trade-score/internal/model"
)

var (
	// ErrNoData is returned when a source answers with an empty window.
	ErrNoData = errors.New("no data")
	// ErrInsufficientData is returned when a window is shorter than required.
	ErrInsufficientData = errors.New("insufficient data")
)

// Fetcher defines the interface for fetching market data.
type Fetcher interface {
	// FetchBars returns bars for pair at interval covering period, oldest first.
	FetchBars(ctx context.Context, pair model.Pair, interval, period string) ([]model.OHLCV, error)
	Name() string
}

// FetchError attaches pair and timeframe context to a data failure.
type FetchError struct {
	Pair      model.Pair
	Timeframe string
	Interval  string
	Err       error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s %s (%s): %v", e.Pair, e.Timeframe, e.Interval, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }
