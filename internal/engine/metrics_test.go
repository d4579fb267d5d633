package engine

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/Krishiv14/AlgoTradeX/internal/model"
)

func curveOf(totals ...float64) []model.EquityPoint {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	curve := make([]model.EquityPoint, len(totals))
	for i, v := range totals {
		d := decimal.NewFromFloat(v)
		curve[i] = model.EquityPoint{
			Timestamp: start.AddDate(0, 0, i),
			Cash:      d,
			Holdings:  decimal.Zero,
			Total:     d,
		}
	}
	fillDrawdown(curve)
	return curve
}

func tradeWithPnL(pnl float64) model.TradeRecord {
	return model.TradeRecord{
		TradeType: "BUY",
		Quantity:  1,
		PnL:       decimal.NewFromFloat(pnl),
	}
}

func TestComputeMetrics_TotalReturn(t *testing.T) {
	curve := curveOf(1000, 1100, 1050)
	got := ComputeMetrics(curve, nil, decimal.NewFromInt(1000), MetricsConfig{})

	assert.InDelta(t, 0.05, got.TotalReturn, 1e-9)
	assert.True(t, got.FinalValue.Equal(decimal.NewFromInt(1050)))
}

func TestComputeMetrics_ConstantCurveIsAllZero(t *testing.T) {
	curve := curveOf(1000, 1000, 1000, 1000)
	got := ComputeMetrics(curve, nil, decimal.NewFromInt(1000), MetricsConfig{})

	assert.Zero(t, got.SharpeRatio)
	assert.Zero(t, got.MaxDrawdown)
	assert.Zero(t, got.TotalReturn)
}

func TestComputeMetrics_MaxDrawdown(t *testing.T) {
	curve := curveOf(1000, 1200, 900, 1100)
	got := ComputeMetrics(curve, nil, decimal.NewFromInt(1000), MetricsConfig{})

	// peak 1200 to trough 900
	assert.InDelta(t, 0.25, got.MaxDrawdown, 1e-9)
}

func TestComputeMetrics_TradeStats(t *testing.T) {
	trades := []model.TradeRecord{
		tradeWithPnL(10),
		tradeWithPnL(-5),
		tradeWithPnL(20),
	}
	got := ComputeMetrics(curveOf(1000, 1025), trades, decimal.NewFromInt(1000), MetricsConfig{})

	assert.Equal(t, 3, got.TotalTrades)
	assert.Equal(t, 2, got.WinningTrades)
	assert.Equal(t, 1, got.LosingTrades)
	assert.InDelta(t, 2.0/3.0, got.WinRate, 1e-9)
	assert.InDelta(t, 15, got.AvgWin, 1e-9)
	assert.InDelta(t, 5, got.AvgLoss, 1e-9)
	assert.InDelta(t, 6, got.ProfitFactor, 1e-9)
}

func TestComputeMetrics_NoLosersGuardsProfitFactor(t *testing.T) {
	trades := []model.TradeRecord{tradeWithPnL(10), tradeWithPnL(5)}
	got := ComputeMetrics(curveOf(1000, 1015), trades, decimal.NewFromInt(1000), MetricsConfig{})

	assert.Zero(t, got.ProfitFactor)
	assert.Zero(t, got.AvgLoss)
	assert.Equal(t, 0, got.LosingTrades)
}

func TestComputeMetrics_EmptyTradesAreZeroNotError(t *testing.T) {
	got := ComputeMetrics(curveOf(1000, 1010), nil, decimal.NewFromInt(1000), MetricsConfig{})

	assert.Zero(t, got.TotalTrades)
	assert.Zero(t, got.WinRate)
	assert.Zero(t, got.AvgWin)
	assert.Zero(t, got.AvgLoss)
	assert.Zero(t, got.ProfitFactor)
	assert.Equal(t, 1.0, got.Beta)
}

func TestFlatRateBenchmark(t *testing.T) {
	b := FlatRateBenchmark{AnnualReturn: 0.12}
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)

	got := b.Return(start, start.AddDate(1, 0, 0))
	assert.InDelta(t, 0.12, got, 0.001)
}
