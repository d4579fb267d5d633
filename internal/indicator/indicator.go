// Package indicator provides technical indicators as pure functions over
// ordered numeric series. Indices inside an indicator's warm-up window are
// NaN, never zero; callers treat NaN as "no signal yet".
package indicator

import "math"

func nans(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

// SMA is the arithmetic mean of the trailing window values. A window
// containing any NaN input yields NaN at that index.
func SMA(series []float64, window int) []float64 {
	out := nans(len(series))
	if window <= 0 {
		return out
	}
	for i := window - 1; i < len(series); i++ {
		sum := 0.0
		ok := true
		for j := i - window + 1; j <= i; j++ {
			if math.IsNaN(series[j]) {
				ok = false
				break
			}
			sum += series[j]
		}
		if ok {
			out[i] = sum / float64(window)
		}
	}
	return out
}

// EMA is the recursively weighted average with smoothing 2/(span+1), seeded
// by the first value (no bias adjustment). Defined from index 0.
func EMA(series []float64, span int) []float64 {
	out := nans(len(series))
	if span <= 0 || len(series) == 0 {
		return out
	}
	alpha := 2.0 / float64(span+1)
	out[0] = series[0]
	for i := 1; i < len(series); i++ {
		out[i] = alpha*series[i] + (1-alpha)*out[i-1]
	}
	return out
}

// RSI is 100 - 100/(1+rs) where rs is the trailing mean of positive deltas
// over the trailing mean of negative-delta magnitudes. When the average loss
// is zero the value is 100 if any gain exists, NaN on a flat window.
func RSI(series []float64, period int) []float64 {
	out := nans(len(series))
	if period <= 0 || len(series) < period+1 {
		return out
	}
	for i := period; i < len(series); i++ {
		var sumGain, sumLoss float64
		for j := i - period + 1; j <= i; j++ {
			delta := series[j] - series[j-1]
			if delta > 0 {
				sumGain += delta
			} else {
				sumLoss -= delta
			}
		}
		avgGain := sumGain / float64(period)
		avgLoss := sumLoss / float64(period)
		switch {
		case avgLoss == 0 && avgGain == 0:
			// flat window, undefined
		case avgLoss == 0:
			out[i] = 100
		default:
			rs := avgGain / avgLoss
			out[i] = 100 - 100/(1+rs)
		}
	}
	return out
}

// MACD returns the MACD line (fast EMA minus slow EMA), its signal line
// (EMA of the MACD line) and the histogram (line minus signal).
func MACD(series []float64, fast, slow, signal int) (line, signalLine, histogram []float64) {
	emaFast := EMA(series, fast)
	emaSlow := EMA(series, slow)

	line = make([]float64, len(series))
	for i := range series {
		line[i] = emaFast[i] - emaSlow[i]
	}
	signalLine = EMA(line, signal)

	histogram = make([]float64, len(series))
	for i := range series {
		histogram[i] = line[i] - signalLine[i]
	}
	return line, signalLine, histogram
}

// BollingerBands returns upper, middle and lower bands, where middle is the
// SMA and the outer bands sit numStd rolling standard deviations away.
func BollingerBands(series []float64, window int, numStd float64) (upper, middle, lower []float64) {
	middle = SMA(series, window)
	std := rollingStd(series, window)

	upper = nans(len(series))
	lower = nans(len(series))
	for i := range series {
		if !math.IsNaN(middle[i]) && !math.IsNaN(std[i]) {
			upper[i] = middle[i] + numStd*std[i]
			lower[i] = middle[i] - numStd*std[i]
		}
	}
	return upper, middle, lower
}

// rollingStd is the trailing sample standard deviation.
func rollingStd(series []float64, window int) []float64 {
	out := nans(len(series))
	if window < 2 {
		return out
	}
	for i := window - 1; i < len(series); i++ {
		mean := 0.0
		ok := true
		for j := i - window + 1; j <= i; j++ {
			if math.IsNaN(series[j]) {
				ok = false
				break
			}
			mean += series[j]
		}
		if !ok {
			continue
		}
		mean /= float64(window)
		var sq float64
		for j := i - window + 1; j <= i; j++ {
			d := series[j] - mean
			sq += d * d
		}
		out[i] = math.Sqrt(sq / float64(window-1))
	}
	return out
}

// ATR is the rolling mean of the true range
// max(high-low, |high-prevClose|, |low-prevClose|).
func ATR(high, low, close []float64, period int) []float64 {
	n := len(close)
	tr := make([]float64, n)
	for i := 0; i < n; i++ {
		hl := high[i] - low[i]
		if i == 0 {
			tr[i] = hl
			continue
		}
		hc := math.Abs(high[i] - close[i-1])
		lc := math.Abs(low[i] - close[i-1])
		tr[i] = math.Max(hl, math.Max(hc, lc))
	}
	return SMA(tr, period)
}

// Stochastic returns %K = 100*(close-lowestLow)/(highestHigh-lowestLow) over
// kPeriod and %D = SMA(%K, dPeriod). A flat range yields NaN, not a panic.
func Stochastic(high, low, close []float64, kPeriod, dPeriod int) (k, d []float64) {
	n := len(close)
	k = nans(n)
	if kPeriod > 0 {
		for i := kPeriod - 1; i < n; i++ {
			lowest := math.Inf(1)
			highest := math.Inf(-1)
			for j := i - kPeriod + 1; j <= i; j++ {
				lowest = math.Min(lowest, low[j])
				highest = math.Max(highest, high[j])
			}
			if highest > lowest {
				k[i] = 100 * (close[i] - lowest) / (highest - lowest)
			}
		}
	}
	d = SMA(k, dPeriod)
	return k, d
}

// VWAP is cumulative typical-price volume over cumulative volume, measured
// from the start of the series.
func VWAP(high, low, close, volume []float64) []float64 {
	n := len(close)
	out := nans(n)
	var cumPV, cumV float64
	for i := 0; i < n; i++ {
		typical := (high[i] + low[i] + close[i]) / 3
		cumPV += typical * volume[i]
		cumV += volume[i]
		if cumV > 0 {
			out[i] = cumPV / cumV
		}
	}
	return out
}
