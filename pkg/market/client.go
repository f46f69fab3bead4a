// Package market is the single point of contact with the external
// market data provider (a Polygon-style REST API). It shapes requests,
// unwraps responses, and applies the per-endpoint failure policy; it
// holds no business logic.
package market

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/lucidquant/tickerscout/pkg/config"
	"github.com/lucidquant/tickerscout/pkg/logger"
	"github.com/lucidquant/tickerscout/pkg/ratelimit"
)

const requestTimeout = 30 * time.Second

type Client struct {
	http    *resty.Client
	apiKey  string
	limiter *ratelimit.Limiter
	retry   RetryConfig
}

type Option func(*Client)

// WithLimiter installs a shared token bucket that every outbound call
// waits on before hitting the provider.
func WithLimiter(l *ratelimit.Limiter) Option {
	return func(c *Client) { c.limiter = l }
}

func WithRetryConfig(rc RetryConfig) Option {
	return func(c *Client) { c.retry = rc }
}

func NewClient(cfg config.MarketConfig, opts ...Option) *Client {
	httpClient := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(requestTimeout)

	c := &Client{
		http:    httpClient,
		apiKey:  cfg.APIKey,
		limiter: ratelimit.PerMinute(cfg.RequestsPerMinute),
		retry:   DefaultRetryConfig(),
	}
	if cfg.MaxRetries > 0 {
		c.retry.MaxRetries = cfg.MaxRetries
	}

	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// get performs one rate-limited, retried GET and decodes the JSON body
// into out. Non-2xx responses come back as *UpstreamError.
func (c *Client) get(ctx context.Context, endpoint string, query map[string]string, out any) error {
	return withRetry(ctx, c.retry, func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		req := c.http.R().
			SetContext(ctx).
			SetQueryParams(query)
		if c.apiKey != "" {
			req.SetQueryParam("apiKey", c.apiKey)
		}

		resp, err := req.Get(endpoint)
		if err != nil {
			return fmt.Errorf("market request failed: %w", err)
		}
		if resp.IsError() {
			return &UpstreamError{
				Endpoint: endpoint,
				Status:   resp.StatusCode(),
				Body:     truncateBody(resp.String()),
			}
		}

		if err := json.Unmarshal(resp.Body(), out); err != nil {
			return permanent(fmt.Errorf("failed to parse market response from %s: %w", endpoint, err))
		}
		return nil
	})
}

type aggsResponse struct {
	Results []struct {
		T int64   `json:"t"` // unix ms
		O float64 `json:"o"`
		H float64 `json:"h"`
		L float64 `json:"l"`
		C float64 `json:"c"`
		V float64 `json:"v"`
	} `json:"results"`
	ResultsCount int `json:"resultsCount"`
}

// GetAggregates returns up to lookbackDays daily bars in ascending
// time order. Policy: propagate. An empty result set is ErrNoData.
func (c *Client) GetAggregates(ctx context.Context, ticker string, lookbackDays int) ([]Bar, error) {
	to := time.Now().UTC()
	from := to.AddDate(0, 0, -lookbackDays)
	endpoint := fmt.Sprintf("/v2/aggs/ticker/%s/range/1/day/%s/%s",
		ticker, from.Format("2006-01-02"), to.Format("2006-01-02"))

	var body aggsResponse
	err := c.get(ctx, endpoint, map[string]string{
		"adjusted": "true",
		"sort":     "asc",
		"limit":    fmt.Sprintf("%d", lookbackDays+10),
	}, &body)
	if err != nil {
		return nil, err
	}

	if len(body.Results) == 0 {
		return nil, fmt.Errorf("%w: no aggregates for %s", ErrNoData, ticker)
	}

	bars := make([]Bar, 0, len(body.Results))
	for _, r := range body.Results {
		bars = append(bars, Bar{
			Timestamp: time.UnixMilli(r.T).UTC(),
			Open:      r.O,
			High:      r.H,
			Low:       r.L,
			Close:     r.C,
			Volume:    r.V,
		})
	}
	return bars, nil
}

// GetPreviousClose returns the prior trading day's bar, or nil when
// the provider has none.
func (c *Client) GetPreviousClose(ctx context.Context, ticker string) (*Bar, error) {
	var body aggsResponse
	err := c.get(ctx, fmt.Sprintf("/v2/aggs/ticker/%s/prev", ticker),
		map[string]string{"adjusted": "true"}, &body)
	if err != nil {
		return nil, err
	}
	if len(body.Results) == 0 {
		return nil, nil
	}

	r := body.Results[0]
	return &Bar{
		Timestamp: time.UnixMilli(r.T).UTC(),
		Open:      r.O,
		High:      r.H,
		Low:       r.L,
		Close:     r.C,
		Volume:    r.V,
	}, nil
}

type tickerDetailsResponse struct {
	Results struct {
		Ticker          string  `json:"ticker"`
		Name            string  `json:"name"`
		Description     string  `json:"description"`
		Market          string  `json:"market"`
		PrimaryExchange string  `json:"primary_exchange"`
		Type            string  `json:"type"`
		Active          bool    `json:"active"`
		MarketCap       float64 `json:"market_cap"`
		TotalEmployees  int     `json:"total_employees"`
		ListDate        string  `json:"list_date"`
		CurrencyName    string  `json:"currency_name"`
	} `json:"results"`
}

// GetTickerDetails returns the company profile, or nil when the ticker
// is unknown. Policy: suppress-to-absent. Every provider failure maps
// to (nil, nil) after logging, so a missing profile never fails a
// turn.
func (c *Client) GetTickerDetails(ctx context.Context, ticker string) (*TickerDetails, error) {
	var body tickerDetailsResponse
	err := c.get(ctx, fmt.Sprintf("/v3/reference/tickers/%s", ticker), nil, &body)
	if err != nil {
		if PolicyFor("ticker_details") != SuppressToAbsent {
			return nil, err
		}
		logger.WarnCF("market", "Ticker details fetch failed, treating as absent",
			map[string]any{"ticker": ticker, "error": err.Error()})
		return nil, nil
	}
	if body.Results.Ticker == "" && body.Results.Name == "" {
		return nil, nil
	}

	return &TickerDetails{
		Ticker:         body.Results.Ticker,
		Name:           body.Results.Name,
		Description:    body.Results.Description,
		Market:         body.Results.Market,
		Exchange:       body.Results.PrimaryExchange,
		Type:           body.Results.Type,
		Active:         body.Results.Active,
		MarketCap:      body.Results.MarketCap,
		TotalEmployees: body.Results.TotalEmployees,
		ListDate:       body.Results.ListDate,
		Currency:       body.Results.CurrencyName,
	}, nil
}

type newsResponse struct {
	Results []struct {
		Title     string `json:"title"`
		Publisher struct {
			Name string `json:"name"`
		} `json:"publisher"`
		PublishedUTC string `json:"published_utc"`
		Description  string `json:"description"`
		ArticleURL   string `json:"article_url"`
		Insights     []struct {
			Sentiment string `json:"sentiment"`
		} `json:"insights"`
	} `json:"results"`
}

// GetNews returns up to limit recent articles. Policy:
// suppress-to-empty. Failures are logged and an empty slice returned,
// because news is a non-critical data source.
func (c *Client) GetNews(ctx context.Context, ticker string, limit int, order NewsOrder) []Article {
	if limit <= 0 {
		limit = 5
	}
	if order == "" {
		order = NewsDescending
	}

	var body newsResponse
	err := c.get(ctx, "/v2/reference/news", map[string]string{
		"ticker": ticker,
		"limit":  fmt.Sprintf("%d", limit),
		"order":  string(order),
		"sort":   "published_utc",
	}, &body)
	if err != nil {
		// Policy: suppress-to-empty, see endpointPolicies.
		logger.WarnCF("market", "News fetch failed, returning empty",
			map[string]any{"ticker": ticker, "error": err.Error()})
		return nil
	}

	articles := make([]Article, 0, len(body.Results))
	for _, r := range body.Results {
		sentiment := "neutral"
		if len(r.Insights) > 0 && r.Insights[0].Sentiment != "" {
			sentiment = r.Insights[0].Sentiment
		}
		published, _ := time.Parse(time.RFC3339, r.PublishedUTC)
		articles = append(articles, Article{
			Title:       r.Title,
			Publisher:   r.Publisher.Name,
			Published:   published,
			Description: r.Description,
			Sentiment:   sentiment,
			URL:         r.ArticleURL,
		})
		if len(articles) >= limit {
			break
		}
	}
	return articles
}

type indicatorResponse struct {
	Results struct {
		Values []struct {
			Timestamp int64   `json:"timestamp"`
			Value     float64 `json:"value"`
		} `json:"values"`
	} `json:"results"`
}

// GetRSI returns the most recent RSI values, newest first. Policy:
// suppress-to-empty.
func (c *Client) GetRSI(ctx context.Context, ticker string, window, limit int) []IndicatorPoint {
	return c.getIndicator(ctx, "rsi", ticker, window, limit)
}

// GetSMA returns the most recent SMA values, newest first. Policy:
// suppress-to-empty.
func (c *Client) GetSMA(ctx context.Context, ticker string, window, limit int) []IndicatorPoint {
	return c.getIndicator(ctx, "sma", ticker, window, limit)
}

func (c *Client) getIndicator(ctx context.Context, kind, ticker string, window, limit int) []IndicatorPoint {
	if limit <= 0 {
		limit = 1
	}

	var body indicatorResponse
	err := c.get(ctx, fmt.Sprintf("/v1/indicators/%s/%s", kind, ticker), map[string]string{
		"timespan":    "day",
		"window":      fmt.Sprintf("%d", window),
		"limit":       fmt.Sprintf("%d", limit),
		"series_type": "close",
		"order":       "desc",
	}, &body)
	if err != nil {
		logger.WarnCF("market", "Indicator fetch failed, returning empty",
			map[string]any{"indicator": kind, "ticker": ticker, "window": window, "error": err.Error()})
		return nil
	}

	points := make([]IndicatorPoint, 0, len(body.Results.Values))
	for _, v := range body.Results.Values {
		points = append(points, IndicatorPoint{
			Timestamp: time.UnixMilli(v.Timestamp).UTC(),
			Value:     v.Value,
		})
	}
	return points
}

func truncateBody(s string) string {
	const max = 300
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
