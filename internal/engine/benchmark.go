package engine

import "time"

// BenchmarkSource supplies the market return for a date span. It is a
// pluggable collaborator; a real index series can replace the estimate
// without touching the orchestrator.
type BenchmarkSource interface {
	Return(start, end time.Time) float64
}

// FlatRateBenchmark approximates the benchmark with a constant annual
// return, pro-rated over the span. A rough estimate, not a real index
// computation.
type FlatRateBenchmark struct {
	AnnualReturn float64
}

func (b FlatRateBenchmark) Return(start, end time.Time) float64 {
	years := end.Sub(start).Hours() / 24 / 365.25
	return b.AnnualReturn * years
}
