package strategy

import (
	"github.com/Krishiv14/AlgoTradeX/internal/indicator"
	"github.com/Krishiv14/AlgoTradeX/internal/model"
)

// Combined is the strictest policy: long only while the MA crossover is
// bullish, the MACD line is above its signal line and RSI is below the
// overbought threshold, all on the same bar.
type Combined struct {
	shortWindow   int
	longWindow    int
	rsiPeriod     int
	rsiOverbought float64
	macdFast      int
	macdSlow      int
	macdSignal    int
}

func NewCombined(params map[string]float64) *Combined {
	return &Combined{
		shortWindow:   int(param(params, "short_window", 50)),
		longWindow:    int(param(params, "long_window", 200)),
		rsiPeriod:     int(param(params, "rsi_period", 14)),
		rsiOverbought: param(params, "rsi_overbought", 70),
		macdFast:      int(param(params, "fast", 12)),
		macdSlow:      int(param(params, "slow", 26)),
		macdSignal:    int(param(params, "signal", 9)),
	}
}

func (s *Combined) Name() string { return "combined" }

func (s *Combined) Positions(series model.PriceSeries) []int {
	closes := series.Closes()
	short := indicator.SMA(closes, s.shortWindow)
	long := indicator.SMA(closes, s.longWindow)
	rsi := indicator.RSI(closes, s.rsiPeriod)
	line, signalLine, _ := indicator.MACD(closes, s.macdFast, s.macdSlow, s.macdSignal)

	positions := make([]int, len(closes))
	for i := range closes {
		maBullish := short[i] > long[i]
		rsiOK := rsi[i] < s.rsiOverbought
		macdBullish := line[i] > signalLine[i]
		if maBullish && rsiOK && macdBullish {
			positions[i] = 1
		}
	}
	return positions
}
