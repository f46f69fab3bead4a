package tools

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/lucidquant/tickerscout/pkg/market"
)

// MarketData is the slice of the market client the tool adapters need.
type MarketData interface {
	GetAggregates(ctx context.Context, ticker string, lookbackDays int) ([]market.Bar, error)
	GetPreviousClose(ctx context.Context, ticker string) (*market.Bar, error)
	GetTickerDetails(ctx context.Context, ticker string) (*market.TickerDetails, error)
	GetNews(ctx context.Context, ticker string, limit int, order market.NewsOrder) []market.Article
	GetRSI(ctx context.Context, ticker string, window, limit int) []market.IndicatorPoint
	GetSMA(ctx context.Context, ticker string, window, limit int) []market.IndicatorPoint
}

// StockMetrics is the snapshot handed to the model as JSON.
type StockMetrics struct {
	Ticker        string   `json:"ticker"`
	AsOf          string   `json:"as_of"`
	Close         float64  `json:"close"`
	PrevClose     float64  `json:"prev_close,omitempty"`
	Change        float64  `json:"change"`
	ChangePercent float64  `json:"change_percent"`
	DayHigh       float64  `json:"day_high"`
	DayLow        float64  `json:"day_low"`
	Volume        float64  `json:"volume"`
	AvgVolume     float64  `json:"avg_volume"`
	PeriodHigh    float64  `json:"period_high"`
	PeriodLow     float64  `json:"period_low"`
	RSI14         *float64 `json:"rsi_14,omitempty"`
	SMA10         *float64 `json:"sma_10,omitempty"`
	SMA20         *float64 `json:"sma_20,omitempty"`
	BarCount      int      `json:"bar_count"`
}

// StockDataTool fetches daily aggregates, the previous close, and a
// small set of technical indicators, and condenses them into one JSON
// snapshot for the model.
type StockDataTool struct {
	data         MarketData
	lookbackDays int
}

func NewStockDataTool(data MarketData, lookbackDays int) *StockDataTool {
	if lookbackDays <= 0 {
		lookbackDays = 30
	}
	return &StockDataTool{data: data, lookbackDays: lookbackDays}
}

func (t *StockDataTool) Name() string {
	return "get_stock_data"
}

func (t *StockDataTool) Description() string {
	return "Get recent price data for a stock ticker: latest close, daily change, volume, 30-day range, RSI and moving averages"
}

func (t *StockDataTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"ticker": map[string]any{
				"type":        "string",
				"description": "Stock ticker symbol, e.g. AAPL",
			},
		},
		"required": []string{"ticker"},
	}
}

func (t *StockDataTool) Execute(ctx context.Context, args map[string]any) *ToolResult {
	ticker, ok := stringArg(args, "ticker")
	if !ok || ticker == "" {
		return ErrorResult("ticker parameter is required")
	}
	ticker = strings.ToUpper(ticker)

	bars, err := t.data.GetAggregates(ctx, ticker, t.lookbackDays)
	if err != nil {
		if errors.Is(err, market.ErrNoData) {
			return ErrorResult("No price data found for %s. The ticker may be invalid or delisted.", ticker).WithError(err)
		}
		return ErrorResult("Failed to fetch price data for %s: %v", ticker, err).WithError(err)
	}

	metrics := buildMetrics(ticker, bars)

	if prev, err := t.data.GetPreviousClose(ctx, ticker); err != nil {
		return ErrorResult("Failed to fetch previous close for %s: %v", ticker, err).WithError(err)
	} else if prev != nil {
		metrics.PrevClose = prev.Close
	}
	if metrics.PrevClose > 0 {
		metrics.Change = metrics.Close - metrics.PrevClose
		metrics.ChangePercent = metrics.Change / metrics.PrevClose * 100
	}

	if points := t.data.GetRSI(ctx, ticker, 14, 1); len(points) > 0 {
		v := points[0].Value
		metrics.RSI14 = &v
	}
	if points := t.data.GetSMA(ctx, ticker, 10, 1); len(points) > 0 {
		v := points[0].Value
		metrics.SMA10 = &v
	}
	if points := t.data.GetSMA(ctx, ticker, 20, 1); len(points) > 0 {
		v := points[0].Value
		metrics.SMA20 = &v
	}

	payload, err := json.Marshal(metrics)
	if err != nil {
		return ErrorResult("Failed to encode stock data for %s: %v", ticker, err).WithError(err)
	}
	return NewToolResult(string(payload))
}

func buildMetrics(ticker string, bars []market.Bar) *StockMetrics {
	last := bars[len(bars)-1]
	m := &StockMetrics{
		Ticker:     ticker,
		AsOf:       last.Timestamp.Format("2006-01-02"),
		Close:      last.Close,
		DayHigh:    last.High,
		DayLow:     last.Low,
		Volume:     last.Volume,
		PeriodHigh: last.High,
		PeriodLow:  last.Low,
		BarCount:   len(bars),
	}
	if len(bars) >= 2 {
		m.PrevClose = bars[len(bars)-2].Close
	}

	var totalVolume float64
	for _, b := range bars {
		totalVolume += b.Volume
		if b.High > m.PeriodHigh {
			m.PeriodHigh = b.High
		}
		if b.Low < m.PeriodLow {
			m.PeriodLow = b.Low
		}
	}
	m.AvgVolume = totalVolume / float64(len(bars))
	return m
}

var _ Tool = (*StockDataTool)(nil)
