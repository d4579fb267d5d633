package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// PriceBar is one OHLCV sample for a fixed interval.
type PriceBar struct {
	Symbol    string          `json:"symbol" db:"symbol"`
	Period    string          `json:"period" db:"period"` // "1d", "1h"
	Open      decimal.Decimal `json:"o" db:"open"`
	High      decimal.Decimal `json:"h" db:"high"`
	Low       decimal.Decimal `json:"l" db:"low"`
	Close     decimal.Decimal `json:"c" db:"close"`
	Volume    decimal.Decimal `json:"v" db:"volume"`
	Timestamp time.Time       `json:"t" db:"time"`
}

// Validate checks the OHLC bounds of a single bar.
func (b PriceBar) Validate() error {
	if b.Open.IsNegative() || b.High.IsNegative() || b.Low.IsNegative() ||
		b.Close.IsNegative() || b.Volume.IsNegative() {
		return fmt.Errorf("bar at %s: negative field", b.Timestamp.Format(time.RFC3339))
	}
	if b.High.LessThan(b.Low) {
		return fmt.Errorf("bar at %s: high below low", b.Timestamp.Format(time.RFC3339))
	}
	if b.High.LessThan(b.Open) || b.High.LessThan(b.Close) {
		return fmt.Errorf("bar at %s: high below open/close", b.Timestamp.Format(time.RFC3339))
	}
	if b.Low.GreaterThan(b.Open) || b.Low.GreaterThan(b.Close) {
		return fmt.Errorf("bar at %s: low above open/close", b.Timestamp.Format(time.RFC3339))
	}
	return nil
}

// PriceSeries is an ordered sequence of bars, strictly increasing in time.
type PriceSeries []PriceBar

// Validate checks every bar and the timestamp ordering.
func (s PriceSeries) Validate() error {
	for i, bar := range s {
		if err := bar.Validate(); err != nil {
			return err
		}
		if i > 0 && !bar.Timestamp.After(s[i-1].Timestamp) {
			return fmt.Errorf("bar at %s: timestamp not increasing", bar.Timestamp.Format(time.RFC3339))
		}
	}
	return nil
}

// Closes extracts the close column as floats for indicator math.
func (s PriceSeries) Closes() []float64 {
	out := make([]float64, len(s))
	for i, bar := range s {
		out[i] = bar.Close.InexactFloat64()
	}
	return out
}

// Highs extracts the high column.
func (s PriceSeries) Highs() []float64 {
	out := make([]float64, len(s))
	for i, bar := range s {
		out[i] = bar.High.InexactFloat64()
	}
	return out
}

// Lows extracts the low column.
func (s PriceSeries) Lows() []float64 {
	out := make([]float64, len(s))
	for i, bar := range s {
		out[i] = bar.Low.InexactFloat64()
	}
	return out
}

// Volumes extracts the volume column.
func (s PriceSeries) Volumes() []float64 {
	out := make([]float64, len(s))
	for i, bar := range s {
		out[i] = bar.Volume.InexactFloat64()
	}
	return out
}
