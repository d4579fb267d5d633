package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Krishiv14/AlgoTradeX/internal/engine"
	"github.com/Krishiv14/AlgoTradeX/internal/model"
	"github.com/Krishiv14/AlgoTradeX/internal/strategy"
)

func row(id int64, totalReturn, sharpe, maxDrawdown float64) model.BacktestRow {
	return model.BacktestRow{
		ID: id,
		Metrics: model.MetricsRecord{
			TotalReturn: totalReturn,
			SharpeRatio: sharpe,
			MaxDrawdown: maxDrawdown,
		},
	}
}

func TestBuildComparison(t *testing.T) {
	rows := []model.BacktestRow{
		row(1, 0.10, 1.2, 0.30),
		row(2, 0.25, 0.8, 0.10),
		row(3, 0.05, 2.0, 0.20),
	}

	cmp := buildComparison(rows)

	require.Len(t, cmp.Backtests, 3)
	assert.Equal(t, int64(2), cmp.BestByReturn)
	assert.Equal(t, int64(3), cmp.BestBySharpe)
	assert.Equal(t, int64(2), cmp.BestByDrawdown, "smallest drawdown wins")
}

func TestBuildComparisonSingleRun(t *testing.T) {
	cmp := buildComparison([]model.BacktestRow{row(7, 0.01, 0.5, 0.02)})
	assert.Equal(t, int64(7), cmp.BestByReturn)
	assert.Equal(t, int64(7), cmp.BestBySharpe)
	assert.Equal(t, int64(7), cmp.BestByDrawdown)
}

func TestTemplateByName(t *testing.T) {
	tpl := templateByName("Golden Cross")
	require.NotNil(t, tpl)
	assert.Equal(t, "ma_crossover", tpl["strategy_type"])

	// strategy type and case-insensitive lookups both resolve
	assert.NotNil(t, templateByName("RSI"))
	assert.NotNil(t, templateByName("golden cross"))

	assert.Nil(t, templateByName("turtle"))
}

func TestBacktestErrorStatus(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, backtestErrorStatus(engine.ErrEmptyPriceSeries))
	assert.Equal(t, http.StatusBadRequest, backtestErrorStatus(engine.ErrInvalidCapital))
	assert.Equal(t, http.StatusBadRequest, backtestErrorStatus(model.ErrInvalidRiskParams))
	assert.Equal(t, http.StatusBadRequest, backtestErrorStatus(strategy.ErrUnknownStrategy))
	assert.Equal(t, http.StatusInternalServerError, backtestErrorStatus(assert.AnError))
}
