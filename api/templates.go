package api

import "strings"

// strategyTemplates are the pre-configured starting points exposed to the
// dashboard. Parameter defaults mirror the strategy factory.
// templateByName matches case-insensitively on the template's display name
// and on its strategy type.
func templateByName(name string) map[string]any {
	for _, tpl := range strategyTemplates {
		if strings.EqualFold(tpl["name"].(string), name) ||
			strings.EqualFold(tpl["strategy_type"].(string), name) {
			return tpl
		}
	}
	return nil
}

var strategyTemplates = []map[string]any{
	{
		"name":          "Golden Cross",
		"strategy_type": "ma_crossover",
		"description":   "Long while the 50-day SMA is above the 200-day SMA",
		"parameters":    map[string]float64{"short_window": 50, "long_window": 200},
		"risk_params":   map[string]float64{"position_size": 0.95, "stop_loss": 0.05},
	},
	{
		"name":          "RSI Mean Reversion",
		"strategy_type": "rsi",
		"description":   "Buy oversold, exit overbought",
		"parameters":    map[string]float64{"period": 14, "oversold": 30, "overbought": 70},
		"risk_params":   map[string]float64{"position_size": 0.95, "stop_loss": 0.05},
	},
	{
		"name":          "MACD Momentum",
		"strategy_type": "macd",
		"description":   "Long while the MACD line is above its signal line",
		"parameters":    map[string]float64{"fast": 12, "slow": 26, "signal": 9},
		"risk_params":   map[string]float64{"position_size": 0.95, "stop_loss": 0.05},
	},
	{
		"name":          "Combined Filter",
		"strategy_type": "combined",
		"description":   "MA crossover, MACD and RSI must all agree",
		"parameters": map[string]float64{
			"short_window": 50, "long_window": 200,
			"rsi_period": 14, "rsi_overbought": 70,
			"fast": 12, "slow": 26, "signal": 9,
		},
		"risk_params": map[string]float64{"position_size": 0.95, "stop_loss": 0.05},
	},
}
