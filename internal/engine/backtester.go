package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Krishiv14/AlgoTradeX/internal/model"
	"github.com/Krishiv14/AlgoTradeX/internal/strategy"
)

var (
	// ErrEmptyPriceSeries is returned when no bars exist in the requested window.
	ErrEmptyPriceSeries = errors.New("empty price series")
	// ErrInvalidCapital is returned for a non-positive initial capital.
	ErrInvalidCapital = errors.New("initial capital must be positive")
)

// Backtester sequences signal generation, trade simulation and metrics
// computation into one synchronous pipeline over a single (strategy, symbol,
// date-range) tuple. It holds no per-run state, so independent runs may
// share it concurrently.
type Backtester struct {
	benchmark     BenchmarkSource
	txCost        float64
	annualization float64
	logger        *zap.Logger
}

func NewBacktester(benchmark BenchmarkSource, transactionCost float64, logger *zap.Logger) *Backtester {
	return &Backtester{
		benchmark:     benchmark,
		txCost:        transactionCost,
		annualization: DefaultAnnualization,
		logger:        logger,
	}
}

// Run evaluates one parameter set over a validated price series.
// Configuration errors surface before any simulation work; degenerate
// statistical outcomes never do.
func (b *Backtester) Run(series model.PriceSeries, cfg model.StrategyConfig, initialCapital decimal.Decimal) (*model.BacktestResult, error) {
	start := time.Now()

	if len(series) == 0 {
		return nil, fmt.Errorf("%w: strategy %s", ErrEmptyPriceSeries, cfg.StrategyType)
	}
	symbol := series[0].Symbol
	if !initialCapital.IsPositive() {
		return nil, fmt.Errorf("%w: got %s for %s", ErrInvalidCapital, initialCapital, symbol)
	}
	if err := series.Validate(); err != nil {
		return nil, fmt.Errorf("price series for %s: %w", symbol, err)
	}
	risk, err := model.ResolveRiskParams(cfg.RiskParams)
	if err != nil {
		return nil, fmt.Errorf("strategy %s on %s: %w", cfg.StrategyType, symbol, err)
	}

	signals, err := strategy.Generate(series, cfg)
	if err != nil {
		return nil, fmt.Errorf("strategy %s on %s: %w", cfg.StrategyType, symbol, err)
	}

	sim := NewSimulator(b.txCost, risk)
	curve, trades := sim.Run(series, signals, initialCapital)

	metrics := ComputeMetrics(curve, trades, initialCapital, MetricsConfig{Annualization: b.annualization})
	first := series[0].Timestamp
	last := series[len(series)-1].Timestamp
	metrics.BenchmarkReturn = b.benchmark.Return(first, last)
	metrics.Alpha = metrics.TotalReturn - metrics.BenchmarkReturn

	elapsed := time.Since(start)
	b.logger.Info("backtest completed",
		zap.String("symbol", symbol),
		zap.String("strategy", cfg.StrategyType),
		zap.Int("bars", len(series)),
		zap.Int("trades", len(trades)),
		zap.Duration("elapsed", elapsed),
	)

	return &model.BacktestResult{
		Symbol:          symbol,
		StrategyType:    cfg.StrategyType,
		InitialCapital:  initialCapital,
		Metrics:         metrics,
		Trades:          trades,
		EquityCurve:     curve,
		ExecutionTimeMs: elapsed.Milliseconds(),
	}, nil
}
