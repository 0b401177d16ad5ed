package notifier

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/proverbian/trade-score/internal/model"
)

const disclaimer = "Disclaimer: This is for educational purposes only. Trading involves risk. Not financial advice."

// MarketStatus describes the FX session active at t. Buckets are checked in
// order Tokyo, London, New York so overlaps resolve to the earlier session.
func MarketStatus(t time.Time) string {
	h := t.UTC().Hour()
	switch {
	case h < 9:
		return "Tokyo session (00:00-09:00 UTC) - Lower liquidity for EUR/USD/GBP pairs"
	case h >= 8 && h < 17:
		return "London session (08:00-17:00 UTC) - High liquidity for EUR/GBP pairs"
	case h >= 13 && h < 22:
		return "New York session (13:30-22:00 UTC) - High liquidity for USD pairs"
	default:
		return "Overnight/Thin liquidity (22:00-00:00 UTC) - Avoid major moves"
	}
}

// Pips returns |a-b| in pips of pair, rounded to one decimal.
func Pips(pair model.Pair, a, b float64) string {
	d := decimal.NewFromFloat(math.Abs(a - b))
	return d.Div(decimal.NewFromFloat(pair.PipSize())).StringFixed(1)
}

func price(p float64) string {
	return decimal.NewFromFloat(p).StringFixed(4)
}

// FormatScorecard renders a full scorecard message.
func FormatScorecard(sc *model.Scorecard, now time.Time) string {
	var b strings.Builder

	b.WriteString("==FOREX SCORECARD==\n")
	b.WriteString(fmt.Sprintf("Market Status: %s (UTC %s)\n", MarketStatus(now), now.UTC().Format("15:04")))
	b.WriteString(formatStrengthRows(sc))

	b.WriteString("\nPAIRS:\n")
	for _, pair := range sc.Pairs {
		b.WriteString(formatPairBlock(sc, pair))
		b.WriteString("\n")
	}

	if len(sc.Failures) > 0 {
		b.WriteString("SKIPPED:\n")
		for _, f := range sc.Failures {
			b.WriteString(fmt.Sprintf("  %s %s: %s\n", f.Pair, f.Timeframe, f.Reason))
		}
		b.WriteString("\n")
	}

	b.WriteString(fmt.Sprintf("Lot size: %s\n", decimal.NewFromFloat(sc.LotSize).String()))
	b.WriteString(fmt.Sprintf("Run: %s\n\n", sc.RunID))
	b.WriteString(disclaimer)
	return b.String()
}

// FormatStrength renders only the currency strength table.
func FormatStrength(sc *model.Scorecard) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("CURRENCY STRENGTH (%s UTC)\n", sc.GeneratedAt.UTC().Format("2006-01-02 15:04")))
	b.WriteString(formatStrengthRows(sc))
	return b.String()
}

// FormatPair renders the detail block of one pair. ok is false when the pair
// is not part of the scorecard.
func FormatPair(sc *model.Scorecard, pair model.Pair) (string, bool) {
	if _, ok := sc.Biases[pair]; !ok {
		return "", false
	}
	var b strings.Builder
	b.WriteString(formatPairBlock(sc, pair))
	b.WriteString(fmt.Sprintf("\nAs of %s UTC\n", sc.GeneratedAt.UTC().Format("2006-01-02 15:04")))
	return b.String(), true
}

func formatStrengthRows(sc *model.Scorecard) string {
	seen := make(map[string]struct{})
	for _, m := range sc.Strengths {
		for cur := range m {
			seen[cur] = struct{}{}
		}
	}
	currencies := make([]string, 0, len(seen))
	for cur := range seen {
		currencies = append(currencies, cur)
	}
	sort.Strings(currencies)

	var b strings.Builder
	for _, cur := range currencies {
		parts := make([]string, 0, len(sc.Timeframes))
		for _, tf := range sc.Timeframes {
			parts = append(parts, fmt.Sprintf("%s: %+d", tf, sc.Strengths[tf][cur]))
		}
		b.WriteString(fmt.Sprintf("%s: %s\n", cur, strings.Join(parts, " | ")))
	}
	return b.String()
}

func formatPairBlock(sc *model.Scorecard, pair model.Pair) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s: %s (score %+.2f)\n", pair, sc.Biases[pair], sc.TotalScores[pair]))

	ls, ok := sc.Levels[pair]
	if !ok {
		b.WriteString("Levels: N/A (no level data)\n")
		return b.String()
	}
	b.WriteString(fmt.Sprintf("Current Price: %s\n", price(ls.CurrentPrice)))
	b.WriteString(levelLine("ORDER AT", pair, ls.OrderAt, ls.CurrentPrice))
	b.WriteString(levelLine("TP", pair, ls.TakeProfit, ls.CurrentPrice))
	b.WriteString(levelLine("SL", pair, ls.StopLoss, ls.CurrentPrice))

	m := ls.Market
	b.WriteString(fmt.Sprintf("MARKET BUY: SL %s / TP %s\n", price(m.StopLossBuy), price(m.TakeProfitBuy)))
	b.WriteString(fmt.Sprintf("MARKET SELL: SL %s / TP %s\n", price(m.StopLossSell), price(m.TakeProfitSell)))

	b.WriteString("SUPPORT/RESIST:\n")
	b.WriteString(fmt.Sprintf("  R: %s\n", joinPrices(ls.Resistances)))
	b.WriteString(fmt.Sprintf("  S: %s\n", joinPrices(ls.Supports)))
	return b.String()
}

func levelLine(label string, pair model.Pair, lvl model.PriceLevel, current float64) string {
	p, ok := lvl.Get()
	if !ok {
		return label + ": N/A\n"
	}
	if current == 0 {
		return fmt.Sprintf("%s: %s\n", label, price(p))
	}
	return fmt.Sprintf("%s: %s (%s pips)\n", label, price(p), Pips(pair, p, current))
}

func joinPrices(ps []float64) string {
	if len(ps) == 0 {
		return "-"
	}
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = price(p)
	}
	return strings.Join(out, ", ")
}
