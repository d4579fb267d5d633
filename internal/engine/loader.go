package engine

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/Krishiv14/AlgoTradeX/internal/model"
)

// DataLoader is the price-archive collaborator: it supplies an ordered bar
// series for a symbol and date range. The core never queries the archive
// itself.
type DataLoader struct {
	pool *pgxpool.Pool
}

func NewDataLoader(pool *pgxpool.Pool) *DataLoader {
	return &DataLoader{pool: pool}
}

func (l *DataLoader) LoadBars(ctx context.Context, symbol string, start, end time.Time, period string) (model.PriceSeries, error) {
	rows, err := l.pool.Query(ctx, `
		SELECT symbol, period, open, high, low, close, volume, time
		FROM klines
		WHERE symbol = $1 AND period = $2 AND time >= $3 AND time <= $4
		ORDER BY time ASC`,
		symbol, period, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var series model.PriceSeries
	for rows.Next() {
		var b model.PriceBar
		if err := rows.Scan(&b.Symbol, &b.Period, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume, &b.Timestamp); err != nil {
			return nil, err
		}
		series = append(series, b)
	}
	return series, rows.Err()
}
