package strategy

import (
	"errors"
	"fmt"
)

// ErrUnknownStrategy is returned for a strategy type outside the supported set.
var ErrUnknownStrategy = errors.New("unknown strategy type")

// New constructs a strategy by type name, filling absent parameters with the
// documented defaults.
func New(strategyType string, params map[string]float64) (Strategy, error) {
	switch strategyType {
	case "ma_crossover":
		return NewMACrossover(params), nil
	case "rsi":
		return NewRSI(params), nil
	case "macd":
		return NewMACD(params), nil
	case "combined":
		return NewCombined(params), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownStrategy, strategyType)
	}
}
