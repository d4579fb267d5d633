// Package strategy turns a price series and a strategy configuration into a
// position/signal series. Every policy reduces to a boolean long-condition
// per bar; the signal is the first difference of the resulting position
// trace, so signal and position can never disagree.
package strategy

import (
	"github.com/Krishiv14/AlgoTradeX/internal/model"
)

// SignalPoint pairs the position held after a bar with the transition that
// produced it.
type SignalPoint struct {
	Position int `json:"position"` // 0 flat, 1 long
	Signal   int `json:"signal"`   // -1 sell, 0 hold, +1 buy
}

// SignalSeries is aligned index-for-index with the price series it was
// generated from.
type SignalSeries []SignalPoint

// Strategy computes a long/flat position for every bar of a series.
type Strategy interface {
	Name() string
	Positions(series model.PriceSeries) []int
}

// Generate builds the strategy named by cfg and produces its signal series.
func Generate(series model.PriceSeries, cfg model.StrategyConfig) (SignalSeries, error) {
	strat, err := New(cfg.StrategyType, cfg.Parameters)
	if err != nil {
		return nil, err
	}
	return fromPositions(strat.Positions(series)), nil
}

// fromPositions differences a position trace into buy/sell/hold signals.
// The first element has no predecessor and is treated as hold.
func fromPositions(positions []int) SignalSeries {
	out := make(SignalSeries, len(positions))
	for i, p := range positions {
		sig := 0
		if i > 0 {
			sig = p - positions[i-1]
		}
		out[i] = SignalPoint{Position: p, Signal: sig}
	}
	return out
}

func param(params map[string]float64, key string, def float64) float64 {
	if v, ok := params[key]; ok {
		return v
	}
	return def
}
