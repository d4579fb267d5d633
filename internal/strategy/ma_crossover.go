package strategy

import (
	"github.com/Krishiv14/AlgoTradeX/internal/indicator"
	"github.com/Krishiv14/AlgoTradeX/internal/model"
)

// MACrossover 双均线策略: long while the short SMA sits above the long SMA.
type MACrossover struct {
	shortWindow int
	longWindow  int
}

func NewMACrossover(params map[string]float64) *MACrossover {
	return &MACrossover{
		shortWindow: int(param(params, "short_window", 50)),
		longWindow:  int(param(params, "long_window", 200)),
	}
}

func (s *MACrossover) Name() string { return "ma_crossover" }

func (s *MACrossover) Positions(series model.PriceSeries) []int {
	closes := series.Closes()
	short := indicator.SMA(closes, s.shortWindow)
	long := indicator.SMA(closes, s.longWindow)

	positions := make([]int, len(closes))
	for i := range closes {
		// NaN warm-up values fail the comparison and stay flat.
		if short[i] > long[i] {
			positions[i] = 1
		}
	}
	return positions
}
