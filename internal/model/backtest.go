package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExitReason explains why a position was closed.
type ExitReason string

const (
	ExitSignal      ExitReason = "signal"
	ExitStopLoss    ExitReason = "stop_loss"
	ExitEndOfPeriod ExitReason = "end_of_period"
)

// TradeRecord 回测中的单笔交易记录 (one round trip, entry to exit)
type TradeRecord struct {
	TradeType       string          `json:"trade_type"` // entry side, always "BUY" (long only)
	EntryTime       time.Time       `json:"entry_date"`
	EntryPrice      decimal.Decimal `json:"entry_price"`
	ExitTime        time.Time       `json:"exit_date"`
	ExitPrice       decimal.Decimal `json:"exit_price"`
	Quantity        int64           `json:"quantity"`
	TransactionCost decimal.Decimal `json:"transaction_cost"`
	PnL             decimal.Decimal `json:"pnl"`
	PnLPercent      float64         `json:"pnl_percentage"`
	HoldPeriodDays  int             `json:"hold_period_days"`
	ExitReason      ExitReason      `json:"exit_reason"`
}

// EquityPoint is the portfolio state recorded after each bar.
// Total is always Cash + Holdings.
type EquityPoint struct {
	Timestamp time.Time       `json:"time"`
	Cash      decimal.Decimal `json:"cash"`
	Holdings  decimal.Decimal `json:"holdings"`
	Total     decimal.Decimal `json:"total"`
	Drawdown  float64         `json:"drawdown"` // fractional decline from the running peak, <= 0
}

// MetricsRecord 回测结果报告 (aggregate performance metrics)
type MetricsRecord struct {
	TotalReturn     float64         `json:"total_return"`
	SharpeRatio     float64         `json:"sharpe_ratio"`
	MaxDrawdown     float64         `json:"max_drawdown"`
	WinRate         float64         `json:"win_rate"`
	TotalTrades     int             `json:"total_trades"`
	WinningTrades   int             `json:"winning_trades"`
	LosingTrades    int             `json:"losing_trades"`
	AvgWin          float64         `json:"avg_win"`
	AvgLoss         float64         `json:"avg_loss"`
	ProfitFactor    float64         `json:"profit_factor"`
	BenchmarkReturn float64         `json:"benchmark_return"`
	Alpha           float64         `json:"alpha"`
	Beta            float64         `json:"beta"`
	FinalValue      decimal.Decimal `json:"final_value"`
}

// BacktestRow is one persisted run, as read back from the backtests table.
// StrategyID is nil for ad hoc runs that carried no catalog entry.
type BacktestRow struct {
	ID              int64           `json:"id" db:"id"`
	StrategyID      *int64          `json:"strategy_id,omitempty" db:"strategy_id"`
	Symbol          string          `json:"symbol" db:"symbol"`
	StartDate       time.Time       `json:"start_date" db:"start_date"`
	EndDate         time.Time       `json:"end_date" db:"end_date"`
	InitialCapital  decimal.Decimal `json:"initial_capital" db:"initial_capital"`
	Metrics         MetricsRecord   `json:"metrics"`
	ExecutionTimeMs int64           `json:"execution_time_ms" db:"execution_time_ms"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
}

// BacktestResult is the full bundle one run produces.
type BacktestResult struct {
	Symbol          string          `json:"symbol"`
	StrategyType    string          `json:"strategy_type"`
	InitialCapital  decimal.Decimal `json:"initial_capital"`
	Metrics         MetricsRecord   `json:"metrics"`
	Trades          []TradeRecord   `json:"trades"`
	EquityCurve     []EquityPoint   `json:"equity_curve"`
	ExecutionTimeMs int64           `json:"execution_time_ms"`
}
