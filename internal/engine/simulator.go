package engine

import (
	"github.com/shopspring/decimal"

	"github.com/Krishiv14/AlgoTradeX/internal/model"
	"github.com/Krishiv14/AlgoTradeX/internal/strategy"
)

// Simulator replays a signal series bar by bar as a two-state machine,
// FLAT or LONG. Fills happen at the bar's own close; this is a documented
// simplification kept for compatibility with earlier runs, not an intraday
// fill model.
type Simulator struct {
	txCost       decimal.Decimal // cost fraction per fill side
	positionSize decimal.Decimal // fraction of cash committed per entry
	stopLoss     decimal.Decimal // zero disables the stop
}

// openPosition is the transient LONG-state record. At most one exists at a
// time; it dies on the matching sell fill or the end-of-series liquidation.
type openPosition struct {
	entryTime  int // index into the series
	entryPrice decimal.Decimal
	quantity   decimal.Decimal
	entryCost  decimal.Decimal
}

// NewSimulator builds a simulator for one run. Risk parameters must already
// be validated at the boundary.
func NewSimulator(transactionCost float64, risk model.RiskParams) *Simulator {
	return &Simulator{
		txCost:       decimal.NewFromFloat(transactionCost),
		positionSize: decimal.NewFromFloat(risk.PositionSize),
		stopLoss:     decimal.NewFromFloat(risk.StopLoss),
	}
}

var one = decimal.NewFromInt(1)

// Run simulates trading over the series and returns the equity curve (one
// point per bar) and the closed trades in close order. Cash and shares never
// go negative; every cash delta is backed by a fill.
func (s *Simulator) Run(series model.PriceSeries, signals strategy.SignalSeries, initialCapital decimal.Decimal) ([]model.EquityPoint, []model.TradeRecord) {
	cash := initialCapital
	shares := decimal.Zero
	var open *openPosition

	curve := make([]model.EquityPoint, 0, len(series))
	trades := make([]model.TradeRecord, 0)

	for i, bar := range series {
		sig := signals[i].Signal

		// Risk control pre-empts the strategy signal. The loss fraction is
		// evaluated exactly once; the same evaluation forces the sell and
		// labels the exit reason.
		stopHit := false
		if open != nil && s.stopLoss.IsPositive() {
			lossFrac := open.entryPrice.Sub(bar.Close).Div(open.entryPrice)
			if lossFrac.GreaterThanOrEqual(s.stopLoss) {
				sig = -1
				stopHit = true
			}
		}

		if sig == 1 && shares.IsZero() {
			capitalToUse := cash.Mul(s.positionSize)
			costPerShare := bar.Close.Mul(one.Add(s.txCost))
			qty := capitalToUse.Div(costPerShare).Floor()
			// Too little capital for a single share is a no-op, not an error.
			if qty.IsPositive() {
				totalCost := qty.Mul(costPerShare)
				cash = cash.Sub(totalCost)
				shares = qty
				open = &openPosition{
					entryTime:  i,
					entryPrice: bar.Close,
					quantity:   qty,
					entryCost:  totalCost.Sub(qty.Mul(bar.Close)),
				}
			}
		} else if sig == -1 && shares.IsPositive() {
			reason := model.ExitSignal
			if stopHit {
				reason = model.ExitStopLoss
			}
			trade, proceeds := s.closeTrade(open, series, i, reason)
			trades = append(trades, trade)
			cash = cash.Add(proceeds)
			shares = decimal.Zero
			open = nil
		}

		holdings := shares.Mul(bar.Close)
		curve = append(curve, model.EquityPoint{
			Timestamp: bar.Timestamp,
			Cash:      cash,
			Holdings:  holdings,
			Total:     cash.Add(holdings),
		})
	}

	// Forced liquidation: every run ends flat and every opened trade is
	// recorded. The curve keeps the in-loop values; the final point already
	// carries the position at the last close.
	if shares.IsPositive() {
		trade, proceeds := s.closeTrade(open, series, len(series)-1, model.ExitEndOfPeriod)
		trades = append(trades, trade)
		cash = cash.Add(proceeds)
		shares = decimal.Zero
		open = nil
	}

	fillDrawdown(curve)
	return curve, trades
}

// closeTrade sells the whole open position at bar i's close and builds the
// immutable trade record.
func (s *Simulator) closeTrade(open *openPosition, series model.PriceSeries, i int, reason model.ExitReason) (model.TradeRecord, decimal.Decimal) {
	exitBar := series[i]
	exitGross := open.quantity.Mul(exitBar.Close)
	proceeds := exitGross.Mul(one.Sub(s.txCost))
	exitCost := exitGross.Sub(proceeds)

	entryValue := open.quantity.Mul(open.entryPrice)
	totalCost := open.entryCost.Add(exitCost)
	pnl := exitGross.Sub(entryValue).Sub(totalCost)

	entryBar := series[open.entryTime]
	holdDays := int(exitBar.Timestamp.Sub(entryBar.Timestamp).Hours() / 24)

	pnlPct := 0.0
	if !entryValue.IsZero() {
		pnlPct = pnl.Div(entryValue).InexactFloat64()
	}

	return model.TradeRecord{
		TradeType:       "BUY",
		EntryTime:       entryBar.Timestamp,
		EntryPrice:      open.entryPrice,
		ExitTime:        exitBar.Timestamp,
		ExitPrice:       exitBar.Close,
		Quantity:        open.quantity.IntPart(),
		TransactionCost: totalCost,
		PnL:             pnl,
		PnLPercent:      pnlPct,
		HoldPeriodDays:  holdDays,
		ExitReason:      reason,
	}, proceeds
}

// fillDrawdown derives each point's fractional decline from the running peak.
func fillDrawdown(curve []model.EquityPoint) {
	if len(curve) == 0 {
		return
	}
	peak := curve[0].Total
	for i := range curve {
		if curve[i].Total.GreaterThan(peak) {
			peak = curve[i].Total
		}
		if peak.IsPositive() {
			curve[i].Drawdown = curve[i].Total.Sub(peak).Div(peak).InexactFloat64()
		}
	}
}
