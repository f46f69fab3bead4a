package market

import (
	"errors"
	"fmt"
	"time"
)

// ErrNoData marks an empty result set for a dataset the caller
// requires. Use errors.Is to test for it.
var ErrNoData = errors.New("no market data returned")

// UpstreamError reports a non-success HTTP response from the market
// data provider.
type UpstreamError struct {
	Endpoint string
	Status   int
	Body     string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("market upstream error: %s returned status %d: %s", e.Endpoint, e.Status, e.Body)
}

// Bar is one daily OHLCV aggregate.
type Bar struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
}

// TickerDetails is the company profile for a listed ticker.
type TickerDetails struct {
	Ticker         string  `json:"ticker"`
	Name           string  `json:"name"`
	Description    string  `json:"description"`
	Market         string  `json:"market"`
	Exchange       string  `json:"exchange"`
	Type           string  `json:"type"`
	Active         bool    `json:"active"`
	MarketCap      float64 `json:"market_cap"`
	TotalEmployees int     `json:"total_employees"`
	ListDate       string  `json:"list_date"`
	Currency       string  `json:"currency"`
}

// Article is one news item about a ticker. Sentiment is the label of
// the first insight the provider attached, or "neutral" when none.
type Article struct {
	Title       string    `json:"title"`
	Publisher   string    `json:"publisher"`
	Published   time.Time `json:"published"`
	Description string    `json:"description"`
	Sentiment   string    `json:"sentiment"`
	URL         string    `json:"url"`
}

// IndicatorPoint is one value of a technical indicator series.
type IndicatorPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// NewsOrder controls the sort order of GetNews results.
type NewsOrder string

const (
	NewsDescending NewsOrder = "desc"
	NewsAscending  NewsOrder = "asc"
)

// FailurePolicy is the per-endpoint contract for what happens when the
// provider call fails. Price endpoints propagate. News, indicators,
// and ticker details degrade so a non-critical source never blocks a
// turn.
type FailurePolicy int

const (
	Propagate FailurePolicy = iota
	SuppressToEmpty
	SuppressToAbsent
)

var endpointPolicies = map[string]FailurePolicy{
	"aggregates":     Propagate,
	"previous_close": Propagate,
	"ticker_details": SuppressToAbsent,
	"news":           SuppressToEmpty,
	"rsi":            SuppressToEmpty,
	"sma":            SuppressToEmpty,
}

// PolicyFor reports the failure policy applied to a logical endpoint.
// Unknown endpoints propagate.
func PolicyFor(endpoint string) FailurePolicy {
	return endpointPolicies[endpoint]
}
