package engine

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/Krishiv14/AlgoTradeX/internal/model"
	"github.com/Krishiv14/AlgoTradeX/internal/strategy"
)

func barsFromCloses(closes ...float64) model.PriceSeries {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	series := make(model.PriceSeries, len(closes))
	for i, c := range closes {
		p := decimal.NewFromFloat(c)
		series[i] = model.PriceBar{
			Symbol:    "TEST",
			Period:    "1d",
			Open:      p,
			High:      p,
			Low:       p,
			Close:     p,
			Volume:    decimal.NewFromInt(1000),
			Timestamp: start.AddDate(0, 0, i),
		}
	}
	return series
}

func signalsOf(sigs ...int) strategy.SignalSeries {
	out := make(strategy.SignalSeries, len(sigs))
	pos := 0
	for i, s := range sigs {
		pos += s
		out[i] = strategy.SignalPoint{Position: pos, Signal: s}
	}
	return out
}

func riskOf(positionSize, stopLoss float64) model.RiskParams {
	return model.RiskParams{PositionSize: positionSize, StopLoss: stopLoss}
}

func TestSimulator_BuyAndForcedLiquidation(t *testing.T) {
	series := barsFromCloses(10, 20, 30, 40, 50)
	signals := signalsOf(0, 1, 0, 0, 0)
	sim := NewSimulator(0, riskOf(1.0, 0))

	curve, trades := sim.Run(series, signals, decimal.NewFromInt(1000))

	assert.Len(t, trades, 1)
	trade := trades[0]
	assert.Equal(t, model.ExitEndOfPeriod, trade.ExitReason)
	assert.Equal(t, int64(50), trade.Quantity)
	assert.True(t, trade.EntryPrice.Equal(decimal.NewFromInt(20)))
	assert.True(t, trade.ExitPrice.Equal(decimal.NewFromInt(50)))
	assert.True(t, trade.PnL.Equal(decimal.NewFromInt(1500)), "pnl = %s", trade.PnL)
	assert.Equal(t, 3, trade.HoldPeriodDays)

	final := curve[len(curve)-1]
	assert.True(t, final.Total.Equal(decimal.NewFromInt(2500)), "final total = %s", final.Total)
}

func TestSimulator_StopLossOverridesSignal(t *testing.T) {
	series := barsFromCloses(100, 100, 94, 96)
	// Bar 2 carries a coincident buy/hold signal; the 6% loss against the
	// 5% stop must force the exit anyway.
	signals := signalsOf(0, 1, 0, 0)
	sim := NewSimulator(0, riskOf(1.0, 0.05))

	_, trades := sim.Run(series, signals, decimal.NewFromInt(1000))

	assert.Len(t, trades, 1)
	assert.Equal(t, model.ExitStopLoss, trades[0].ExitReason)
	assert.True(t, trades[0].ExitPrice.Equal(decimal.NewFromInt(94)))
}

func TestSimulator_SignalExitWithTransactionCosts(t *testing.T) {
	series := barsFromCloses(100, 110, 110)
	signals := signalsOf(1, -1, 0)
	sim := NewSimulator(0.01, riskOf(1.0, 0))

	curve, trades := sim.Run(series, signals, decimal.NewFromInt(1000))

	assert.Len(t, trades, 1)
	trade := trades[0]
	assert.Equal(t, model.ExitSignal, trade.ExitReason)
	// 9 shares at 101 each; exit grosses 990, nets 980.10.
	assert.Equal(t, int64(9), trade.Quantity)
	assert.True(t, trade.TransactionCost.Equal(decimal.NewFromFloat(18.9)), "cost = %s", trade.TransactionCost)
	assert.True(t, trade.PnL.Equal(decimal.NewFromFloat(71.1)), "pnl = %s", trade.PnL)

	final := curve[len(curve)-1]
	assert.True(t, final.Total.Equal(decimal.NewFromFloat(1071.1)), "final total = %s", final.Total)
}

func TestSimulator_InsufficientCapitalIsNoOp(t *testing.T) {
	series := barsFromCloses(100, 100, 100)
	signals := signalsOf(0, 1, 0)
	sim := NewSimulator(0, riskOf(1.0, 0))

	curve, trades := sim.Run(series, signals, decimal.NewFromInt(10))

	assert.Empty(t, trades)
	for _, p := range curve {
		assert.True(t, p.Total.Equal(decimal.NewFromInt(10)))
	}
}

func TestSimulator_Invariants(t *testing.T) {
	series := barsFromCloses(100, 102, 99, 101, 105, 90, 95, 120, 80, 100)
	signals := signalsOf(0, 1, -1, 1, 0, -1, 1, 0, 0, -1)
	sim := NewSimulator(0.0005, riskOf(0.95, 0.1))

	curve, trades := sim.Run(series, signals, decimal.NewFromInt(100000))

	assert.Len(t, curve, len(series))
	for i, p := range curve {
		assert.False(t, p.Cash.IsNegative(), "bar %d: negative cash", i)
		assert.False(t, p.Holdings.IsNegative(), "bar %d: negative holdings", i)
		assert.True(t, p.Total.Equal(p.Cash.Add(p.Holdings)), "bar %d: total != cash+holdings", i)
		assert.LessOrEqual(t, p.Drawdown, 0.0, "bar %d: drawdown must be non-positive", i)
	}
	for _, tr := range trades {
		assert.True(t, tr.EntryTime.Before(tr.ExitTime))
		assert.Positive(t, tr.Quantity)
	}
}

func TestSimulator_Idempotent(t *testing.T) {
	series := barsFromCloses(100, 105, 95, 110, 90, 115)
	signals := signalsOf(0, 1, 0, -1, 1, 0)
	capital := decimal.NewFromInt(50000)

	sim1 := NewSimulator(0.001, riskOf(0.95, 0.05))
	sim2 := NewSimulator(0.001, riskOf(0.95, 0.05))
	curve1, trades1 := sim1.Run(series, signals, capital)
	curve2, trades2 := sim2.Run(series, signals, capital)

	assert.Equal(t, trades1, trades2)
	assert.Equal(t, curve1, curve2)
}
