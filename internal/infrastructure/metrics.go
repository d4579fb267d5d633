package infrastructure

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BacktestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name: "backtest_duration_seconds",
		Help: "Wall-clock duration of backtest runs",
	}, []string{"strategy", "symbol"})

	BacktestRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "backtest_runs_total",
		Help: "Total number of backtest runs by outcome",
	}, []string{"strategy", "status"})

	WSConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ws_connections_total",
		Help: "Total number of active WebSocket connections",
	})

	DBInsertRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "db_insert_total",
		Help: "Total number of records inserted into DB",
	}, []string{"table"})

	BarsFetched = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "archive_bars_fetched_total",
		Help: "Total number of historical bars fetched into the archive",
	}, []string{"symbol"})
)
