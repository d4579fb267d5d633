package strategy

import (
	"github.com/Krishiv14/AlgoTradeX/internal/indicator"
	"github.com/Krishiv14/AlgoTradeX/internal/model"
)

// MACDMomentum holds a long position while the MACD line is above its
// signal line.
type MACDMomentum struct {
	fast   int
	slow   int
	signal int
}

func NewMACD(params map[string]float64) *MACDMomentum {
	return &MACDMomentum{
		fast:   int(param(params, "fast", 12)),
		slow:   int(param(params, "slow", 26)),
		signal: int(param(params, "signal", 9)),
	}
}

func (s *MACDMomentum) Name() string { return "macd" }

func (s *MACDMomentum) Positions(series model.PriceSeries) []int {
	line, signalLine, _ := indicator.MACD(series.Closes(), s.fast, s.slow, s.signal)

	positions := make([]int, len(series))
	for i := range positions {
		if line[i] > signalLine[i] {
			positions[i] = 1
		}
	}
	return positions
}
