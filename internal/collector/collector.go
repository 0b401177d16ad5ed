package collector

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/proverbian/trade-score/internal/model"
	"github.com/proverbian/trade-score/internal/strategy"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Price float64
	// Bars overrides the generated series per pair.
	Bars map[model.Pair][]model.OHLCV
	// Errs fails fetches keyed by pair ("EURUSD") or by pair and
	// period ("EURUSD/2d").
	Errs map[string]error
	// Count is the number of generated bars. Defaults to 120.
	Count int
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchBars(_ context.Context, pair model.Pair, _, period string) ([]model.OHLCV, error) {
	if err, ok := m.Errs[string(pair)]; ok {
		return nil, err
	}
	if err, ok := m.Errs[string(pair)+"/"+period]; ok {
		return nil, err
	}
	if bars, ok := m.Bars[pair]; ok {
		return bars, nil
	}
	count := m.Count
	if count == 0 {
		count = 120
	}
	return generateMockBars(m.Price, count), nil
}

// generateMockBars produces a gentle oscillation so swing points exist.
func generateMockBars(basePrice float64, count int) []model.OHLCV {
	start := time.Now().UTC().Truncate(time.Minute).Add(-time.Duration(count) * 5 * time.Minute)
	bars := make([]model.OHLCV, count)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + 0.002*math.Sin(float64(i)/4))
		bars[i] = model.OHLCV{
			Time:   start.Add(time.Duration(i) * 5 * time.Minute),
			Open:   p * 0.9999,
			High:   p * 1.0005,
			Low:    p * 0.9995,
			Close:  p,
			Volume: 1000,
		}
	}
	return bars
}

// Timeframe is a named momentum timeframe and the bar interval behind it.
type Timeframe struct {
	Key      string
	Interval string
}

// Options controls which windows a run fetches.
type Options struct {
	Pairs          []model.Pair
	Timeframes     []Timeframe
	MomentumPeriod string
	LevelTimeframe string
	LevelInterval  string
	LevelPeriod    string
	MinBars        int
	LevelMinBars   int
	Concurrency    int
	LotSize        float64
}

// Collector orchestrates data fetching and scorecard computation.
type Collector struct {
	Fetcher Fetcher
	Opts    Options
	Params  strategy.Params
	now     func() time.Time
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, opts Options, params strategy.Params) *Collector {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	if opts.LevelMinBars <= 0 {
		opts.LevelMinBars = opts.MinBars
	}
	return &Collector{Fetcher: fetcher, Opts: opts, Params: params, now: time.Now}
}

type job struct {
	pair      model.Pair
	timeframe string
	interval  string
	period    string
	level     bool
	minBars   int

	bars []model.OHLCV
	err  error
}

// Collect fetches every momentum and level window and evaluates them into a
// scorecard. Fetch failures drop the affected pair, not the run.
func (c *Collector) Collect(ctx context.Context) (*model.Scorecard, error) {
	runID := uuid.NewString()
	logger := log.With().Str("component", "collector").Str("run_id", runID).Logger()
	started := c.now()

	jobs := make([]*job, 0, len(c.Opts.Pairs)*(len(c.Opts.Timeframes)+1))
	for _, tf := range c.Opts.Timeframes {
		for _, pair := range c.Opts.Pairs {
			jobs = append(jobs, &job{pair: pair, timeframe: tf.Key, interval: tf.Interval, period: c.Opts.MomentumPeriod, minBars: c.Opts.MinBars})
		}
	}
	if c.Opts.LevelInterval != "" {
		for _, pair := range c.Opts.Pairs {
			jobs = append(jobs, &job{pair: pair, timeframe: c.Opts.LevelTimeframe, interval: c.Opts.LevelInterval, period: c.Opts.LevelPeriod, level: true, minBars: c.Opts.LevelMinBars})
		}
	}

	var g errgroup.Group
	g.SetLimit(c.Opts.Concurrency)
	for _, j := range jobs {
		j := j
		g.Go(func() error {
			j.bars, j.err = c.fetch(ctx, j.pair, j.timeframe, j.interval, j.period, j.minBars)
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("collect: %w", err)
	}

	in := &strategy.Input{
		Pairs:     c.Opts.Pairs,
		Momentum:  make(map[string]map[model.Pair][]model.OHLCV, len(c.Opts.Timeframes)),
		LevelBars: make(map[model.Pair][]model.OHLCV, len(c.Opts.Pairs)),
	}
	for _, tf := range c.Opts.Timeframes {
		in.Timeframes = append(in.Timeframes, tf.Key)
		in.Momentum[tf.Key] = make(map[model.Pair][]model.OHLCV, len(c.Opts.Pairs))
	}
	for _, j := range jobs {
		if j.err != nil {
			logger.Warn().Err(j.err).Str("pair", string(j.pair)).Str("timeframe", j.timeframe).Msg("window unavailable")
			in.Failures = append(in.Failures, model.Failure{Pair: j.pair, Timeframe: j.timeframe, Reason: j.err.Error()})
			continue
		}
		if j.level {
			in.LevelBars[j.pair] = j.bars
		} else {
			in.Momentum[j.timeframe][j.pair] = j.bars
		}
	}

	sc, err := strategy.Evaluate(in, c.Params)
	if err != nil {
		return nil, err
	}
	sc.RunID = runID
	sc.GeneratedAt = c.now().UTC()
	sc.LotSize = c.Opts.LotSize

	logger.Info().
		Int("pairs", len(sc.Pairs)).
		Int("failures", len(sc.Failures)).
		Dur("elapsed", c.now().Sub(started)).
		Msg("scorecard computed")
	return sc, nil
}

func (c *Collector) fetch(ctx context.Context, pair model.Pair, timeframe, interval, period string, minBars int) ([]model.OHLCV, error) {
	bars, err := c.Fetcher.FetchBars(ctx, pair, interval, period)
	if err == nil && len(bars) == 0 {
		err = ErrNoData
	}
	if err == nil && len(bars) < minBars {
		err = fmt.Errorf("%w: got %d bars, need %d", ErrInsufficientData, len(bars), minBars)
	}
	if err != nil {
		var fe *FetchError
		if errors.As(err, &fe) {
			return nil, err
		}
		return nil, &FetchError{Pair: pair, Timeframe: timeframe, Interval: interval, Err: err}
	}
	return bars, nil
}
