package strategy

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/Krishiv14/AlgoTradeX/internal/model"
)

func seriesFromCloses(closes ...float64) model.PriceSeries {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	series := make(model.PriceSeries, len(closes))
	for i, c := range closes {
		p := decimal.NewFromFloat(c)
		series[i] = model.PriceBar{
			Symbol:    "TEST",
			Period:    "1d",
			Open:      p,
			High:      p,
			Low:       p,
			Close:     p,
			Volume:    decimal.NewFromInt(1000),
			Timestamp: start.AddDate(0, 0, i),
		}
	}
	return series
}

func TestNew_UnknownType(t *testing.T) {
	_, err := New("momentum_ml", nil)
	assert.ErrorIs(t, err, ErrUnknownStrategy)
}

func TestGenerate_SignalIsPositionDiff(t *testing.T) {
	series := seriesFromCloses(100, 102, 99, 101, 105)
	cfg := model.StrategyConfig{
		StrategyType: "ma_crossover",
		Parameters:   map[string]float64{"short_window": 1, "long_window": 2},
	}

	signals, err := Generate(series, cfg)
	assert.NoError(t, err)
	assert.Len(t, signals, len(series))

	assert.Equal(t, 0, signals[0].Signal, "first element has no predecessor")
	for i := 1; i < len(signals); i++ {
		assert.Equal(t, signals[i].Position-signals[i-1].Position, signals[i].Signal)
	}
}

func TestMACrossover_Positions(t *testing.T) {
	// short=1 degenerates to the close itself; long=2 warms up at bar 1.
	series := seriesFromCloses(10, 20, 30, 40, 50)
	s := NewMACrossover(map[string]float64{"short_window": 1, "long_window": 2})

	got := s.Positions(series)
	assert.Equal(t, []int{0, 1, 1, 1, 1}, got)
}

func TestRSIReversion_Hysteresis(t *testing.T) {
	// period=2: bar 2 is deeply oversold (rsi 0), bar 3 sits between the
	// thresholds and must keep the long, bar 4 is overbought (rsi 100).
	series := seriesFromCloses(10, 9, 8, 10, 12)
	s := NewRSI(map[string]float64{"period": 2, "oversold": 30, "overbought": 70})

	got := s.Positions(series)
	assert.Equal(t, []int{0, 0, 1, 1, 0}, got)
}

func TestRSIReversion_ConstantSeriesStaysFlat(t *testing.T) {
	series := seriesFromCloses(50, 50, 50, 50, 50, 50, 50, 50)
	s := NewRSI(map[string]float64{"period": 2})

	got := s.Positions(series)
	for i, p := range got {
		assert.Equal(t, 0, p, "bar %d", i)
	}
}

func TestMACDMomentum_Positions(t *testing.T) {
	series := seriesFromCloses(1, 2, 3, 4, 5, 6, 7, 8)
	s := NewMACD(map[string]float64{"fast": 2, "slow": 4, "signal": 3})

	got := s.Positions(series)
	assert.Equal(t, 0, got[0], "both lines start at zero")
	assert.Equal(t, 1, got[len(got)-1], "steady uptrend ends long")
}

func TestCombined_IsStrictest(t *testing.T) {
	series := seriesFromCloses(10, 9, 8, 9, 10, 11, 12, 13, 14, 15)
	params := map[string]float64{
		"short_window": 2, "long_window": 4,
		"rsi_period": 2, "rsi_overbought": 70,
		"fast": 2, "slow": 4, "signal": 3,
	}

	combined := NewCombined(params).Positions(series)
	ma := NewMACrossover(params).Positions(series)
	macd := NewMACD(params).Positions(series)

	for i := range series {
		if combined[i] == 1 {
			assert.Equal(t, 1, ma[i], "bar %d: combined long requires MA bullish", i)
			assert.Equal(t, 1, macd[i], "bar %d: combined long requires MACD bullish", i)
		}
	}
}
