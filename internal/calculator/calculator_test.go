package calculator

import (
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/proverbian/trade-score/internal/model"
)

func barsFromCloses(closes []float64) []model.OHLCV {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]model.OHLCV, len(closes))
	for i, c := range closes {
		bars[i] = model.OHLCV{
			Time:  t0.Add(time.Duration(i) * 15 * time.Minute),
			Open:  c,
			High:  c + 0.001,
			Low:   c - 0.001,
			Close: c,
		}
	}
	return bars
}

func TestEMA_KnownValues(t *testing.T) {
	got := EMA([]float64{1, 2, 3}, 3)
	want := []float64{1, 1.5, 2.25}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("EMA = %v, want %v", got, want)
	}
}

func TestEMA_ConstantSeries(t *testing.T) {
	series := make([]float64, 60)
	for i := range series {
		series[i] = 1.0845
	}
	for _, span := range []int{5, 20, 50} {
		for i, v := range EMA(series, span) {
			if math.Abs(v-1.0845) > 1e-12 {
				t.Fatalf("span %d index %d: got %v", span, i, v)
			}
		}
	}
}

func TestEMA_Empty(t *testing.T) {
	if got := EMA(nil, 10); len(got) != 0 {
		t.Errorf("expected empty output, got %v", got)
	}
}

func TestRollingMean(t *testing.T) {
	got := RollingMean([]float64{1, 2, 3, 4}, 2)
	if !math.IsNaN(got[0]) {
		t.Errorf("index 0: expected NaN, got %v", got[0])
	}
	want := []float64{1.5, 2.5, 3.5}
	if !reflect.DeepEqual(got[1:], want) {
		t.Errorf("got %v, want %v", got[1:], want)
	}
}

func TestVolatilityProxy(t *testing.T) {
	bars := barsFromCloses(make([]float64, 20))
	bars[19].High, bars[19].Low = 0.015, -0.001
	v := VolatilityProxy(bars, 14)
	want := (13*0.002 + 0.016) / 14
	if math.Abs(v-want) > 1e-12 {
		t.Errorf("VolatilityProxy = %v, want %v", v, want)
	}

	short := bars[:10]
	if !math.IsNaN(VolatilityProxy(short, 14)) {
		t.Error("expected NaN for a window shorter than 14 bars")
	}
	if got := VolatilityProxyOr(short, 14, DefaultVolatilityFallback); got != 0.001 {
		t.Errorf("fallback = %v, want 0.001", got)
	}
}

func TestFindSwingPoints_Example(t *testing.T) {
	bars := barsFromCloses([]float64{1, 2, 3, 2, 1, 2, 3, 4, 3, 2})
	highs, lows := FindSwingPoints(bars, 2)

	var hi []int
	for _, h := range highs {
		hi = append(hi, h.Index)
	}
	if !reflect.DeepEqual(hi, []int{2, 7}) {
		t.Errorf("swing highs at %v, want [2 7]", hi)
	}
	if len(lows) != 1 || lows[0].Index != 4 || lows[0].Price != 1 {
		t.Errorf("swing lows = %+v, want one at index 4 price 1", lows)
	}
	if !highs[1].Time.Equal(bars[7].Time) {
		t.Errorf("swing high time = %v, want %v", highs[1].Time, bars[7].Time)
	}
}

func TestFindSwingPoints_NeverAtEdges(t *testing.T) {
	closes := []float64{9, 1, 5, 3, 7, 2, 8, 4, 6, 0, 9, 1, 0}
	bars := barsFromCloses(closes)
	for w := 1; w <= 4; w++ {
		highs, lows := FindSwingPoints(bars, w)
		for _, p := range append(highs, lows...) {
			if p.Index < w || p.Index >= len(closes)-w {
				t.Errorf("w=%d: swing reported at edge index %d", w, p.Index)
			}
		}
	}
}

func TestFindSwingPoints_ShortSeries(t *testing.T) {
	bars := barsFromCloses([]float64{1, 2, 3, 2})
	highs, lows := FindSwingPoints(bars, 2)
	if len(highs) != 0 || len(lows) != 0 {
		t.Errorf("expected no swings for n <= 2w, got %v %v", highs, lows)
	}
}

func TestFindSwingPoints_TiesRecordedIndependently(t *testing.T) {
	bars := barsFromCloses([]float64{1, 2, 5, 5, 2, 1, 0})
	highs, _ := FindSwingPoints(bars, 1)
	if len(highs) != 2 || highs[0].Index != 2 || highs[1].Index != 3 {
		t.Errorf("expected both tied centers as highs, got %+v", highs)
	}
}

func points(prices ...float64) []model.SwingPoint {
	out := make([]model.SwingPoint, len(prices))
	for i, p := range prices {
		out[i] = model.SwingPoint{Index: i, Price: p}
	}
	return out
}

func TestPickZones_PriceOrder(t *testing.T) {
	zs := PickZones(points(1.1, 1.2, 1.2, 1.3), points(1.05, 1.0, 1.05, 0.98), 2, ZoneOrderPrice)
	if !reflect.DeepEqual(zs.Resistances, []float64{1.3, 1.2}) {
		t.Errorf("resistances = %v, want [1.3 1.2]", zs.Resistances)
	}
	if !reflect.DeepEqual(zs.Supports, []float64{0.98, 1.0}) {
		t.Errorf("supports = %v, want [0.98 1]", zs.Supports)
	}
}

func TestPickZones_RecencyOrder(t *testing.T) {
	zs := PickZones(points(1.3, 1.1, 1.2, 1.1), points(0.9, 1.0), 2, ZoneOrderRecency)
	if !reflect.DeepEqual(zs.Resistances, []float64{1.1, 1.2}) {
		t.Errorf("resistances = %v, want [1.1 1.2]", zs.Resistances)
	}
	if !reflect.DeepEqual(zs.Supports, []float64{1.0, 0.9}) {
		t.Errorf("supports = %v, want [1 0.9]", zs.Supports)
	}
}

func TestPickZones_Empty(t *testing.T) {
	zs := PickZones(nil, nil, 3, ZoneOrderPrice)
	if len(zs.Resistances) != 0 || len(zs.Supports) != 0 {
		t.Errorf("expected empty zones, got %+v", zs)
	}
}
