package model

import "time"

// OHLCV represents a single candlestick bar.
type OHLCV struct {
	Time   time.Time `json:"t"`
	Open   float64   `json:"o"`
	High   float64   `json:"h"`
	Low    float64   `json:"l"`
	Close  float64   `json:"c"`
	Volume float64   `json:"v"`
}

// Pair is a 6-letter currency pair code such as "EURUSD".
type Pair string

// Base returns the first three letters of the pair.
func (p Pair) Base() string {
	if len(p) < 3 {
		return string(p)
	}
	return string(p[:3])
}

// Quote returns everything after the base currency.
func (p Pair) Quote() string {
	if len(p) < 3 {
		return ""
	}
	return string(p[3:])
}

// PipSize returns the pip increment used for distance display.
func (p Pair) PipSize() float64 {
	if p.Quote() == "JPY" {
		return 0.01
	}
	return 0.0001
}

// Closes extracts the close series from bars.
func Closes(bars []OHLCV) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes
}
