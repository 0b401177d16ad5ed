package model

import "time"

// Bias is the directional stance derived from weighted momentum.
type Bias string

const (
	BiasBuy     Bias = "BUY"
	BiasSell    Bias = "SELL"
	BiasNeutral Bias = "NEUTRAL"
)

// SwingPoint marks a local extremum of the close series.
type SwingPoint struct {
	Index int
	Time  time.Time
	Price float64
}

// ZoneSet holds the selected resistance and support levels.
type ZoneSet struct {
	Resistances []float64
	Supports    []float64
}

// PriceLevel is an optional price. The zero value means "not applicable".
type PriceLevel struct {
	Price float64
	Valid bool
}

// Level returns a valid PriceLevel at p.
func Level(p float64) PriceLevel {
	return PriceLevel{Price: p, Valid: true}
}

// Get returns the price and whether it is set.
func (l PriceLevel) Get() (float64, bool) {
	return l.Price, l.Valid
}

// MarketLevels are entry references placed around the current price.
type MarketLevels struct {
	StopLossBuy    float64
	TakeProfitBuy  float64
	StopLossSell   float64
	TakeProfitSell float64
}

// LevelSet is the per-pair level output of a run.
type LevelSet struct {
	CurrentPrice float64
	Volatility   float64
	Supports     []float64
	Resistances  []float64
	OrderAt      PriceLevel
	TakeProfit   PriceLevel
	StopLoss     PriceLevel
	Market       MarketLevels
}

// Failure describes a pair/timeframe that could not be scored in a run.
type Failure struct {
	Pair      Pair
	Timeframe string
	Reason    string
}

// Scorecard is the complete output of one scoring run.
type Scorecard struct {
	RunID       string
	GeneratedAt time.Time
	Pairs       []Pair
	Timeframes  []string
	Strengths   map[string]map[string]int
	Biases      map[Pair]Bias
	TotalScores map[Pair]float64
	Levels      map[Pair]LevelSet
	Failures    []Failure
	LotSize     float64
}
