package model

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bar(o, h, l, c float64, ts time.Time) PriceBar {
	return PriceBar{
		Symbol:    "AAPL",
		Period:    "1d",
		Open:      decimal.NewFromFloat(o),
		High:      decimal.NewFromFloat(h),
		Low:       decimal.NewFromFloat(l),
		Close:     decimal.NewFromFloat(c),
		Volume:    decimal.NewFromInt(1000),
		Timestamp: ts,
	}
}

func TestPriceBarValidate(t *testing.T) {
	ts := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

	assert.NoError(t, bar(10, 12, 9, 11, ts).Validate())

	b := bar(10, 12, 9, 11, ts)
	b.Close = decimal.NewFromInt(-1)
	assert.Error(t, b.Validate())

	assert.Error(t, bar(10, 8, 9, 10, ts).Validate(), "high below low")
	assert.Error(t, bar(10, 10, 9, 11, ts).Validate(), "high below close")
	assert.Error(t, bar(10, 12, 11, 12, ts).Validate(), "low above open")
}

func TestPriceSeriesValidateOrdering(t *testing.T) {
	ts := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	series := PriceSeries{
		bar(10, 12, 9, 11, ts),
		bar(11, 13, 10, 12, ts.AddDate(0, 0, 1)),
	}
	require.NoError(t, series.Validate())

	// duplicate timestamp
	series[1].Timestamp = ts
	assert.Error(t, series.Validate())
}

func TestPriceSeriesColumns(t *testing.T) {
	ts := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	series := PriceSeries{
		bar(10, 12, 9, 11, ts),
		bar(11, 13, 10, 12, ts.AddDate(0, 0, 1)),
	}
	assert.Equal(t, []float64{11, 12}, series.Closes())
	assert.Equal(t, []float64{12, 13}, series.Highs())
	assert.Equal(t, []float64{9, 10}, series.Lows())
}

func TestResolveRiskParams(t *testing.T) {
	rp, err := ResolveRiskParams(nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultPositionSize, rp.PositionSize)
	assert.Equal(t, DefaultStopLoss, rp.StopLoss)

	rp, err = ResolveRiskParams(map[string]float64{"position_size": 0.5, "stop_loss": 0.1})
	require.NoError(t, err)
	assert.Equal(t, 0.5, rp.PositionSize)
	assert.Equal(t, 0.1, rp.StopLoss)

	_, err = ResolveRiskParams(map[string]float64{"position_size": 1.5})
	assert.ErrorIs(t, err, ErrInvalidRiskParams)

	_, err = ResolveRiskParams(map[string]float64{"stop_loss": 1})
	assert.ErrorIs(t, err, ErrInvalidRiskParams)

	_, err = ResolveRiskParams(map[string]float64{"position_size": 0})
	assert.ErrorIs(t, err, ErrInvalidRiskParams)
}
