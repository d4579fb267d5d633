package engine

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/Krishiv14/AlgoTradeX/internal/model"
)

// DefaultAnnualization assumes daily bars, 252 trading days a year.
const DefaultAnnualization = 252

// MetricsConfig makes the embedded constants of the calculator explicit so a
// test can override them.
type MetricsConfig struct {
	Annualization float64 // periods per year used to annualize Sharpe
}

// ComputeMetrics derives the aggregate performance record from an equity
// curve and its trade list. The record is assembled once, in full; degenerate
// inputs (no trades, zero variance, no losers) resolve to zeros, never to
// errors or NaN.
func ComputeMetrics(curve []model.EquityPoint, trades []model.TradeRecord, initialCapital decimal.Decimal, cfg MetricsConfig) model.MetricsRecord {
	if cfg.Annualization <= 0 {
		cfg.Annualization = DefaultAnnualization
	}

	rec := model.MetricsRecord{Beta: 1.0, FinalValue: initialCapital}
	if len(curve) > 0 {
		rec.FinalValue = curve[len(curve)-1].Total
		rec.TotalReturn = rec.FinalValue.Sub(initialCapital).Div(initialCapital).InexactFloat64()
		rec.SharpeRatio = sharpe(curve, cfg.Annualization)
		rec.MaxDrawdown = maxDrawdown(curve)
	}

	fillTradeStats(&rec, trades)
	return rec
}

// sharpe annualizes the mean over stddev of per-bar simple returns. Zero or
// undefined variance yields 0.
func sharpe(curve []model.EquityPoint, annualization float64) float64 {
	if len(curve) < 2 {
		return 0
	}
	returns := make([]float64, 0, len(curve)-1)
	for i := 1; i < len(curve); i++ {
		prev := curve[i-1].Total.InexactFloat64()
		if prev == 0 {
			continue
		}
		returns = append(returns, curve[i].Total.InexactFloat64()/prev-1)
	}
	if len(returns) < 2 {
		return 0
	}

	var sum float64
	for _, r := range returns {
		sum += r
	}
	mean := sum / float64(len(returns))

	var sq float64
	for _, r := range returns {
		d := r - mean
		sq += d * d
	}
	std := math.Sqrt(sq / float64(len(returns)-1))
	if std == 0 {
		return 0
	}
	return mean / std * math.Sqrt(annualization)
}

func maxDrawdown(curve []model.EquityPoint) float64 {
	minDD := 0.0
	for _, p := range curve {
		if p.Drawdown < minDD {
			minDD = p.Drawdown
		}
	}
	return math.Abs(minDD)
}

func fillTradeStats(rec *model.MetricsRecord, trades []model.TradeRecord) {
	rec.TotalTrades = len(trades)
	if len(trades) == 0 {
		return
	}

	var totalWins, totalLosses float64
	for _, t := range trades {
		pnl := t.PnL.InexactFloat64()
		switch {
		case pnl > 0:
			rec.WinningTrades++
			totalWins += pnl
		case pnl < 0:
			rec.LosingTrades++
			totalLosses += -pnl
		}
	}

	rec.WinRate = float64(rec.WinningTrades) / float64(rec.TotalTrades)
	if rec.WinningTrades > 0 {
		rec.AvgWin = totalWins / float64(rec.WinningTrades)
	}
	if rec.LosingTrades > 0 {
		rec.AvgLoss = totalLosses / float64(rec.LosingTrades)
	}
	// No losing trades leaves the profit factor at 0 rather than dividing
	// by zero.
	if totalLosses > 0 {
		rec.ProfitFactor = totalWins / totalLosses
	}
}
