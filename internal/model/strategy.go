package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Strategy 策略配置实体 (catalog row, persisted as JSONB)
type Strategy struct {
	ID           int64           `json:"id" db:"id"`
	Name         string          `json:"name" db:"name"`
	Description  string          `json:"description" db:"description"`
	StrategyType string          `json:"strategy_type" db:"strategy_type"`
	Parameters   json.RawMessage `json:"parameters" db:"parameters"`
	RiskParams   json.RawMessage `json:"risk_params" db:"risk_params"`
	IsActive     bool            `json:"is_active" db:"is_active"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
}

// StrategyConfig is the typed input consumed by one backtest run.
type StrategyConfig struct {
	StrategyType string             `json:"strategy_type"`
	Parameters   map[string]float64 `json:"parameters"`
	RiskParams   map[string]float64 `json:"risk_params"`
}

// ErrInvalidRiskParams marks out-of-range risk parameters. They are rejected
// at the boundary, never silently replaced by defaults.
var ErrInvalidRiskParams = errors.New("invalid risk params")

// RiskParams controls position sizing and the protective stop.
type RiskParams struct {
	PositionSize float64 // fraction of cash committed per entry, (0, 1]
	StopLoss     float64 // loss fraction that forces an exit, [0, 1); 0 disables
}

const (
	DefaultPositionSize = 0.95
	DefaultStopLoss     = 0.0
)

// ResolveRiskParams applies defaults for absent keys and validates ranges.
func ResolveRiskParams(raw map[string]float64) (RiskParams, error) {
	rp := RiskParams{PositionSize: DefaultPositionSize, StopLoss: DefaultStopLoss}
	if v, ok := raw["position_size"]; ok {
		rp.PositionSize = v
	}
	if v, ok := raw["stop_loss"]; ok {
		rp.StopLoss = v
	}
	if rp.PositionSize <= 0 || rp.PositionSize > 1 {
		return RiskParams{}, fmt.Errorf("%w: position_size %v not in (0,1]", ErrInvalidRiskParams, rp.PositionSize)
	}
	if rp.StopLoss < 0 || rp.StopLoss >= 1 {
		return RiskParams{}, fmt.Errorf("%w: stop_loss %v not in [0,1)", ErrInvalidRiskParams, rp.StopLoss)
	}
	return rp, nil
}
