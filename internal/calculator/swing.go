package calculator

import (
	"sort"

	"github.com/proverbian/trade-score/internal/model"
)

// ZoneOrder selects which swing levels survive truncation to top N.
type ZoneOrder string

const (
	// ZoneOrderPrice keeps the highest resistances and lowest supports.
	ZoneOrderPrice ZoneOrder = "price"
	// ZoneOrderRecency keeps the levels whose latest swing is most recent.
	ZoneOrderRecency ZoneOrder = "recency"
)

// DefaultZoneTopN is the number of levels kept per side.
const DefaultZoneTopN = 2

// FindSwingPoints scans the close series for local extrema over a symmetric
// window of radius w. Bar i is a swing high when its close equals the max of
// closes[i-w:i+w+1], a swing low when it equals the min. Every tied center is
// reported. Bars closer than w to either end are never evaluated.
func FindSwingPoints(bars []model.OHLCV, w int) (highs, lows []model.SwingPoint) {
	if w < 0 {
		return nil, nil
	}
	n := len(bars)
	for i := w; i < n-w; i++ {
		c := bars[i].Close
		isHigh, isLow := true, true
		for j := i - w; j <= i+w; j++ {
			if bars[j].Close > c {
				isHigh = false
			}
			if bars[j].Close < c {
				isLow = false
			}
			if !isHigh && !isLow {
				break
			}
		}
		sp := model.SwingPoint{Index: i, Time: bars[i].Time, Price: c}
		if isHigh {
			highs = append(highs, sp)
		}
		if isLow {
			lows = append(lows, sp)
		}
	}
	return highs, lows
}

// PickZones collapses swing points to unique price levels and keeps topN per
// side. With ZoneOrderPrice resistances are descending and supports ascending,
// i.e. the extreme swings win regardless of distance to the current price.
func PickZones(highs, lows []model.SwingPoint, topN int, order ZoneOrder) model.ZoneSet {
	if topN < 0 {
		topN = 0
	}
	var zs model.ZoneSet
	switch order {
	case ZoneOrderRecency:
		zs.Resistances = mostRecentLevels(highs, topN)
		zs.Supports = mostRecentLevels(lows, topN)
	default:
		res := uniquePrices(highs)
		sort.Sort(sort.Reverse(sort.Float64Slice(res)))
		sup := uniquePrices(lows)
		sort.Float64s(sup)
		zs.Resistances = truncate(res, topN)
		zs.Supports = truncate(sup, topN)
	}
	return zs
}

func uniquePrices(points []model.SwingPoint) []float64 {
	seen := make(map[float64]struct{}, len(points))
	out := make([]float64, 0, len(points))
	for _, p := range points {
		if _, ok := seen[p.Price]; ok {
			continue
		}
		seen[p.Price] = struct{}{}
		out = append(out, p.Price)
	}
	return out
}

func mostRecentLevels(points []model.SwingPoint, topN int) []float64 {
	latest := make(map[float64]int, len(points))
	for _, p := range points {
		if idx, ok := latest[p.Price]; !ok || p.Index > idx {
			latest[p.Price] = p.Index
		}
	}
	out := make([]float64, 0, len(latest))
	for price := range latest {
		out = append(out, price)
	}
	sort.Slice(out, func(i, j int) bool {
		if latest[out[i]] != latest[out[j]] {
			return latest[out[i]] > latest[out[j]]
		}
		return out[i] > out[j]
	})
	return truncate(out, topN)
}

func truncate(levels []float64, n int) []float64 {
	if len(levels) > n {
		return levels[:n]
	}
	return levels
}
