// Package storage persists what the backtest core emits: result records,
// discrete trades, the strategy catalog and archived price bars. The core
// itself never touches the database.
package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"go.uber.org/zap"

	"github.com/Krishiv14/AlgoTradeX/internal/infrastructure"
	"github.com/Krishiv14/AlgoTradeX/internal/model"
)

type Store struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewStore(pool *pgxpool.Pool, logger *zap.Logger) *Store {
	return &Store{pool: pool, logger: logger}
}

// SaveBacktest writes the result record and its trades in one transaction
// and returns the new backtest id.
func (s *Store) SaveBacktest(ctx context.Context, strategyID int64, res *model.BacktestResult) (int64, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	// ad hoc runs carry no catalog entry
	var sid *int64
	if strategyID != 0 {
		sid = &strategyID
	}

	m := res.Metrics
	var backtestID int64
	err = tx.QueryRow(ctx, `
		INSERT INTO backtests (
			strategy_id, symbol, start_date, end_date,
			initial_capital, final_capital,
			total_return, sharpe_ratio, max_drawdown,
			win_rate, total_trades, winning_trades, losing_trades,
			avg_win, avg_loss, profit_factor,
			benchmark_return, alpha, beta, execution_time_ms
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20)
		RETURNING id`,
		sid, res.Symbol,
		res.EquityCurve[0].Timestamp, res.EquityCurve[len(res.EquityCurve)-1].Timestamp,
		res.InitialCapital, m.FinalValue,
		m.TotalReturn, m.SharpeRatio, m.MaxDrawdown,
		m.WinRate, m.TotalTrades, m.WinningTrades, m.LosingTrades,
		m.AvgWin, m.AvgLoss, m.ProfitFactor,
		m.BenchmarkReturn, m.Alpha, m.Beta, res.ExecutionTimeMs,
	).Scan(&backtestID)
	if err != nil {
		return 0, fmt.Errorf("insert backtest: %w", err)
	}

	for _, t := range res.Trades {
		_, err = tx.Exec(ctx, `
			INSERT INTO trades (
				backtest_id, trade_type, entry_date, entry_price,
				exit_date, exit_price, quantity, transaction_cost,
				pnl, pnl_percentage, hold_period_days, exit_reason
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
			backtestID, t.TradeType, t.EntryTime, t.EntryPrice,
			t.ExitTime, t.ExitPrice, t.Quantity, t.TransactionCost,
			t.PnL, t.PnLPercent, t.HoldPeriodDays, string(t.ExitReason),
		)
		if err != nil {
			return 0, fmt.Errorf("insert trade: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}

	infrastructure.DBInsertRate.WithLabelValues("backtests").Inc()
	infrastructure.DBInsertRate.WithLabelValues("trades").Add(float64(len(res.Trades)))
	return backtestID, nil
}

const backtestColumns = `
	id, strategy_id, symbol, start_date, end_date,
	initial_capital, final_capital,
	total_return, sharpe_ratio, max_drawdown,
	win_rate, total_trades, winning_trades, losing_trades,
	avg_win, avg_loss, profit_factor,
	benchmark_return, alpha, beta, execution_time_ms, created_at`

func scanBacktestRow(row pgx.Row) (*model.BacktestRow, error) {
	var bt model.BacktestRow
	m := &bt.Metrics
	err := row.Scan(&bt.ID, &bt.StrategyID, &bt.Symbol, &bt.StartDate, &bt.EndDate,
		&bt.InitialCapital, &m.FinalValue,
		&m.TotalReturn, &m.SharpeRatio, &m.MaxDrawdown,
		&m.WinRate, &m.TotalTrades, &m.WinningTrades, &m.LosingTrades,
		&m.AvgWin, &m.AvgLoss, &m.ProfitFactor,
		&m.BenchmarkReturn, &m.Alpha, &m.Beta, &bt.ExecutionTimeMs, &bt.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &bt, nil
}

// GetBacktest reads one persisted run. Returns pgx.ErrNoRows when absent.
func (s *Store) GetBacktest(ctx context.Context, id int64) (*model.BacktestRow, error) {
	return scanBacktestRow(s.pool.QueryRow(ctx,
		`SELECT `+backtestColumns+` FROM backtests WHERE id = $1`, id))
}

// ListBacktests returns persisted runs newest first. Empty symbol and zero
// strategyID disable the respective filter.
func (s *Store) ListBacktests(ctx context.Context, symbol string, strategyID int64, limit, offset int) ([]model.BacktestRow, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+backtestColumns+` FROM backtests
		WHERE ($1 = '' OR symbol = $1)
		  AND ($2::bigint = 0 OR strategy_id = $2)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4`,
		symbol, strategyID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	backtests := make([]model.BacktestRow, 0)
	for rows.Next() {
		bt, err := scanBacktestRow(rows)
		if err != nil {
			return nil, err
		}
		backtests = append(backtests, *bt)
	}
	return backtests, rows.Err()
}

// GetBacktestTrades returns a run's trades in close order.
func (s *Store) GetBacktestTrades(ctx context.Context, backtestID int64) ([]model.TradeRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT trade_type, entry_date, entry_price, exit_date, exit_price,
		       quantity, transaction_cost, pnl, pnl_percentage, hold_period_days, exit_reason
		FROM trades WHERE backtest_id = $1 ORDER BY id ASC`, backtestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	trades := make([]model.TradeRecord, 0)
	for rows.Next() {
		var t model.TradeRecord
		var reason string
		if err := rows.Scan(&t.TradeType, &t.EntryTime, &t.EntryPrice, &t.ExitTime, &t.ExitPrice,
			&t.Quantity, &t.TransactionCost, &t.PnL, &t.PnLPercent, &t.HoldPeriodDays, &reason); err != nil {
			return nil, err
		}
		t.ExitReason = model.ExitReason(reason)
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

// DeleteBacktest removes a run and, via the cascade, its trades.
// Returns pgx.ErrNoRows when the id does not exist.
func (s *Store) DeleteBacktest(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM backtests WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete backtest: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// SaveStrategy inserts a catalog entry and returns its id.
func (s *Store) SaveStrategy(ctx context.Context, strat *model.Strategy) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx, `
		INSERT INTO strategies (name, description, strategy_type, parameters, risk_params, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		strat.Name, strat.Description, strat.StrategyType,
		strat.Parameters, strat.RiskParams, strat.IsActive,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert strategy: %w", err)
	}
	infrastructure.DBInsertRate.WithLabelValues("strategies").Inc()
	return id, nil
}

// GetStrategy fetches one catalog entry. Returns pgx.ErrNoRows when absent.
func (s *Store) GetStrategy(ctx context.Context, id int64) (*model.Strategy, error) {
	var strat model.Strategy
	err := s.pool.QueryRow(ctx, `
		SELECT id, name, description, strategy_type, parameters, risk_params, is_active, created_at
		FROM strategies WHERE id = $1`, id,
	).Scan(&strat.ID, &strat.Name, &strat.Description, &strat.StrategyType,
		&strat.Parameters, &strat.RiskParams, &strat.IsActive, &strat.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &strat, nil
}

// UpdateStrategy rewrites a catalog entry's mutable fields.
// Returns pgx.ErrNoRows when the id does not exist.
func (s *Store) UpdateStrategy(ctx context.Context, strat *model.Strategy) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE strategies
		SET name = $2, description = $3, strategy_type = $4, parameters = $5, risk_params = $6
		WHERE id = $1`,
		strat.ID, strat.Name, strat.Description, strat.StrategyType,
		strat.Parameters, strat.RiskParams)
	if err != nil {
		return fmt.Errorf("update strategy: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// DeactivateStrategy soft-deletes a catalog entry; past backtests keep
// referencing it. Returns pgx.ErrNoRows when the id does not exist.
func (s *Store) DeactivateStrategy(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE strategies SET is_active = FALSE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deactivate strategy: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// ListStrategies returns active catalog entries, newest first.
func (s *Store) ListStrategies(ctx context.Context) ([]model.Strategy, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, description, strategy_type, parameters, risk_params, is_active, created_at
		FROM strategies WHERE is_active ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	strategies := make([]model.Strategy, 0)
	for rows.Next() {
		var strat model.Strategy
		if err := rows.Scan(&strat.ID, &strat.Name, &strat.Description, &strat.StrategyType,
			&strat.Parameters, &strat.RiskParams, &strat.IsActive, &strat.CreatedAt); err != nil {
			return nil, err
		}
		strategies = append(strategies, strat)
	}
	return strategies, rows.Err()
}

// SaveBars upserts fetched history into the klines table.
func (s *Store) SaveBars(ctx context.Context, series model.PriceSeries) (int, error) {
	batch := &pgx.Batch{}
	for _, b := range series {
		batch.Queue(`
			INSERT INTO klines (symbol, period, open, high, low, close, volume, time)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
			ON CONFLICT (symbol, period, time) DO UPDATE SET
				open = EXCLUDED.open, high = EXCLUDED.high, low = EXCLUDED.low,
				close = EXCLUDED.close, volume = EXCLUDED.volume`,
			b.Symbol, b.Period, b.Open, b.High, b.Low, b.Close, b.Volume, b.Timestamp)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()
	for range series {
		if _, err := br.Exec(); err != nil {
			return 0, fmt.Errorf("upsert kline: %w", err)
		}
	}

	infrastructure.DBInsertRate.WithLabelValues("klines").Add(float64(len(series)))
	return len(series), nil
}
