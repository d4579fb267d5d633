// Package archive acquires historical daily bars and hands them to the
// storage layer. It fills the price archive the simulator core reads from;
// the core itself never fetches anything.
package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Krishiv14/AlgoTradeX/internal/infrastructure"
	"github.com/Krishiv14/AlgoTradeX/internal/model"
)

const defaultBaseURL = "https://query1.finance.yahoo.com/v8/finance/chart"

// NormalizeSymbol unifies vendor symbol formats (e.g. BRK-B, BRK/B) into one
// canonical form. Exchange suffixes like ".NS" are kept.
func NormalizeSymbol(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "-", "")
	s = strings.ReplaceAll(s, "/", "")
	s = strings.ReplaceAll(s, "_", "")
	return s
}

type Fetcher struct {
	client  *http.Client
	baseURL string
	logger  *zap.Logger
}

func NewFetcher(logger *zap.Logger) *Fetcher {
	return &Fetcher{
		client:  &http.Client{Timeout: 15 * time.Second},
		baseURL: defaultBaseURL,
		logger:  logger,
	}
}

// chartResponse is the subset of the Yahoo chart payload we read. Quote
// columns are pointers because delisted days come back as nulls.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// FetchDaily downloads daily bars for the symbol over [start, end]. Bars
// with null quote columns are skipped.
func (f *Fetcher) FetchDaily(ctx context.Context, symbol string, start, end time.Time) (model.PriceSeries, error) {
	symbol = NormalizeSymbol(symbol)
	url := fmt.Sprintf("%s/%s?period1=%d&period2=%d&interval=1d",
		f.baseURL, symbol, start.Unix(), end.Unix())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "AlgoTradeX/1.0")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", symbol, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", symbol, resp.StatusCode)
	}

	var payload chartResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode %s: %w", symbol, err)
	}
	if payload.Chart.Error != nil {
		return nil, fmt.Errorf("fetch %s: %s (%s)", symbol, payload.Chart.Error.Description, payload.Chart.Error.Code)
	}
	if len(payload.Chart.Result) == 0 || len(payload.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("fetch %s: empty chart result", symbol)
	}

	result := payload.Chart.Result[0]
	quote := result.Indicators.Quote[0]

	series := make(model.PriceSeries, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		// malformed payloads can carry columns shorter than the timestamp list
		if i >= len(quote.Open) || i >= len(quote.High) || i >= len(quote.Low) ||
			i >= len(quote.Close) || i >= len(quote.Volume) {
			continue
		}
		if quote.Open[i] == nil || quote.High[i] == nil ||
			quote.Low[i] == nil || quote.Close[i] == nil || quote.Volume[i] == nil {
			continue
		}
		series = append(series, model.PriceBar{
			Symbol:    symbol,
			Period:    "1d",
			Open:      decimal.NewFromFloat(*quote.Open[i]),
			High:      decimal.NewFromFloat(*quote.High[i]),
			Low:       decimal.NewFromFloat(*quote.Low[i]),
			Close:     decimal.NewFromFloat(*quote.Close[i]),
			Volume:    decimal.NewFromFloat(*quote.Volume[i]),
			Timestamp: time.Unix(ts, 0).UTC(),
		})
	}

	infrastructure.BarsFetched.WithLabelValues(symbol).Add(float64(len(series)))
	f.logger.Info("fetched daily bars",
		zap.String("symbol", symbol),
		zap.Int("bars", len(series)),
	)
	return series, nil
}
