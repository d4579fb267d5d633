package engine

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/Krishiv14/AlgoTradeX/internal/model"
	"github.com/Krishiv14/AlgoTradeX/internal/strategy"
)

func TestWorkerPool_RunBatch(t *testing.T) {
	series := barsFromCloses(100, 102, 99, 101, 105, 103, 108, 104, 110, 107)
	jobs := []BacktestJob{
		{
			Series:         series,
			Config:         model.StrategyConfig{StrategyType: "ma_crossover", Parameters: map[string]float64{"short_window": 2, "long_window": 4}},
			InitialCapital: decimal.NewFromInt(10000),
		},
		{
			Series:         series,
			Config:         model.StrategyConfig{StrategyType: "nope"},
			InitialCapital: decimal.NewFromInt(10000),
		},
		{
			Series:         series,
			Config:         model.StrategyConfig{StrategyType: "macd", Parameters: map[string]float64{"fast": 2, "slow": 4, "signal": 3}},
			InitialCapital: decimal.NewFromInt(10000),
		},
	}

	pool := NewWorkerPool(2, newTestBacktester(0), zap.NewNop())
	outcomes := pool.RunBatch(context.Background(), jobs)

	assert.Len(t, outcomes, len(jobs))
	assert.NoError(t, outcomes[0].Err)
	assert.NotNil(t, outcomes[0].Result)
	assert.ErrorIs(t, outcomes[1].Err, strategy.ErrUnknownStrategy)
	assert.Nil(t, outcomes[1].Result)
	assert.NoError(t, outcomes[2].Err)
	assert.Equal(t, "macd", outcomes[2].Result.StrategyType)
}

func TestWorkerPool_ResultsMatchSequentialRuns(t *testing.T) {
	series := barsFromCloses(50, 52, 49, 53, 55, 51, 56, 58, 54, 60)
	cfg := model.StrategyConfig{
		StrategyType: "ma_crossover",
		Parameters:   map[string]float64{"short_window": 2, "long_window": 4},
	}
	jobs := make([]BacktestJob, 4)
	for i := range jobs {
		jobs[i] = BacktestJob{Series: series, Config: cfg, InitialCapital: decimal.NewFromInt(10000)}
	}

	bt := newTestBacktester(0.0005)
	sequential, err := bt.Run(series, cfg, decimal.NewFromInt(10000))
	assert.NoError(t, err)

	pool := NewWorkerPool(4, bt, zap.NewNop())
	outcomes := pool.RunBatch(context.Background(), jobs)

	for _, o := range outcomes {
		assert.NoError(t, o.Err)
		assert.Equal(t, sequential.Trades, o.Result.Trades)
		assert.Equal(t, sequential.Metrics.TotalReturn, o.Result.Metrics.TotalReturn)
	}
}
