package strategy

import "github.com/proverbian/trade-score/internal/model"

// LevelInput carries everything the level calculator needs for one pair.
type LevelInput struct {
	CurrentPrice float64
	Volatility   float64
	Zones        model.ZoneSet
	Bias         model.Bias
}

// CalculateLevels derives order, take-profit and stop-loss from the zones on
// the side of the bias. The stop sits k volatility units against the trade
// from the order price. Take-profit is only ever an opposite-side zone; when
// the bias is neutral or the entry side has no zone nothing is set.
func CalculateLevels(in LevelInput, k float64) model.LevelSet {
	ls := model.LevelSet{
		CurrentPrice: in.CurrentPrice,
		Volatility:   in.Volatility,
		Supports:     in.Zones.Supports,
		Resistances:  in.Zones.Resistances,
	}

	switch {
	case in.Bias == model.BiasBuy && len(in.Zones.Supports) > 0:
		order := in.Zones.Supports[0]
		ls.OrderAt = model.Level(order)
		if len(in.Zones.Resistances) > 0 {
			ls.TakeProfit = model.Level(in.Zones.Resistances[0])
		}
		ls.StopLoss = model.Level(order - in.Volatility*k)
	case in.Bias == model.BiasSell && len(in.Zones.Resistances) > 0:
		order := in.Zones.Resistances[0]
		ls.OrderAt = model.Level(order)
		if len(in.Zones.Supports) > 0 {
			ls.TakeProfit = model.Level(in.Zones.Supports[0])
		}
		ls.StopLoss = model.Level(order + in.Volatility*k)
	}
	return ls
}

// CalculateMarketLevels places stop/target references around the current
// price for an at-market entry in either direction.
func CalculateMarketLevels(price, volatility, stopMult, targetMult float64) model.MarketLevels {
	return model.MarketLevels{
		StopLossBuy:    price - volatility*stopMult,
		TakeProfitBuy:  price + volatility*targetMult,
		StopLossSell:   price + volatility*stopMult,
		TakeProfitSell: price - volatility*targetMult,
	}
}
