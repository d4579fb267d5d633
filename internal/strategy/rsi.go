package strategy

import (
	"github.com/Krishiv14/AlgoTradeX/internal/indicator"
	"github.com/Krishiv14/AlgoTradeX/internal/model"
)

// RSIReversion goes long when RSI drops below the oversold threshold and
// exits when it rises above the overbought threshold. Between the thresholds
// the prior position persists (hysteresis); undefined RSI values leave the
// state untouched, so a flat price series never trades.
type RSIReversion struct {
	period     int
	oversold   float64
	overbought float64
}

func NewRSI(params map[string]float64) *RSIReversion {
	return &RSIReversion{
		period:     int(param(params, "period", 14)),
		oversold:   param(params, "oversold", 30),
		overbought: param(params, "overbought", 70),
	}
}

func (s *RSIReversion) Name() string { return "rsi" }

func (s *RSIReversion) Positions(series model.PriceSeries) []int {
	rsi := indicator.RSI(series.Closes(), s.period)

	positions := make([]int, len(series))
	pos := 0
	for i := range series {
		// NaN compares false on both branches and keeps the prior state.
		switch {
		case rsi[i] < s.oversold:
			pos = 1
		case rsi[i] > s.overbought:
			pos = 0
		}
		positions[i] = pos
	}
	return positions
}
