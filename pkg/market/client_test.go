package market

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucidquant/tickerscout/pkg/config"
	"github.com/lucidquant/tickerscout/pkg/ratelimit"
)

func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewClient(config.MarketConfig{BaseURL: srv.URL, APIKey: "test-key"},
		WithRetryConfig(RetryConfig{
			MaxRetries: 2,
			BaseDelay:  time.Millisecond,
			MaxDelay:   5 * time.Millisecond,
			Multiplier: 2.0,
		}))
}

func TestGetAggregates(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "/v2/aggs/ticker/AAPL/range/1/day/")
		assert.Equal(t, "test-key", r.URL.Query().Get("apiKey"))
		w.Write([]byte(`{"results":[
			{"t":1700000000000,"o":95,"h":101,"l":94,"c":95,"v":1000},
			{"t":1700086400000,"o":96,"h":102,"l":95,"c":100,"v":1200}
		],"resultsCount":2}`))
	}))

	bars, err := c.GetAggregates(context.Background(), "AAPL", 30)
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.Equal(t, 95.0, bars[0].Close)
	assert.Equal(t, 100.0, bars[1].Close)
	assert.Equal(t, 1200.0, bars[1].Volume)
}

func TestGetAggregates_EmptyIsNoData(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results":[],"resultsCount":0}`))
	}))

	_, err := c.GetAggregates(context.Background(), "ZZZZ", 30)
	assert.True(t, errors.Is(err, ErrNoData))
}

func TestGetAggregates_UpstreamErrorPropagates(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))

	_, err := c.GetAggregates(context.Background(), "AAPL", 30)

	var upstream *UpstreamError
	require.True(t, errors.As(err, &upstream))
	assert.Equal(t, http.StatusNotFound, upstream.Status)
}

func TestGet_RetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "upstream blew up", http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"results":[{"t":1700000000000,"c":100}],"resultsCount":1}`))
	}))

	bars, err := c.GetAggregates(context.Background(), "AAPL", 30)
	require.NoError(t, err)
	assert.Len(t, bars, 1)
	assert.Equal(t, int32(2), calls.Load())
}

func TestGet_DoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad ticker", http.StatusBadRequest)
	}))

	_, err := c.GetAggregates(context.Background(), "AAPL", 30)
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestGet_DoesNotRetryMalformedBody(t *testing.T) {
	var calls atomic.Int32
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`{"results":[{"t":`))
	}))

	_, err := c.GetAggregates(context.Background(), "AAPL", 30)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse market response")
	assert.Equal(t, int32(1), calls.Load())
}

func TestGetPreviousClose(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results":[{"t":1700000000000,"o":94,"h":96,"l":93,"c":95,"v":900}]}`))
	}))

	bar, err := c.GetPreviousClose(context.Background(), "AAPL")
	require.NoError(t, err)
	require.NotNil(t, bar)
	assert.Equal(t, 95.0, bar.Close)
}

func TestGetPreviousClose_Empty(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results":[]}`))
	}))

	bar, err := c.GetPreviousClose(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Nil(t, bar)
}

func TestGetTickerDetails(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results":{
			"ticker":"AAPL","name":"Apple Inc.","description":"Designs consumer electronics.",
			"market":"stocks","primary_exchange":"XNAS","type":"CS","active":true,
			"market_cap":2800000000000,"total_employees":161000,
			"list_date":"1980-12-12","currency_name":"usd"
		}}`))
	}))

	details, err := c.GetTickerDetails(context.Background(), "AAPL")
	require.NoError(t, err)
	require.NotNil(t, details)
	assert.Equal(t, "Apple Inc.", details.Name)
	assert.Equal(t, "XNAS", details.Exchange)
	assert.True(t, details.Active)
}

func TestGetTickerDetails_FailureIsAbsent(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))

	details, err := c.GetTickerDetails(context.Background(), "ZZZZ")
	assert.NoError(t, err)
	assert.Nil(t, details)
}

func TestGetNews(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "AAPL", r.URL.Query().Get("ticker"))
		w.Write([]byte(`{"results":[
			{"title":"Apple beats estimates","publisher":{"name":"Newswire"},
			 "published_utc":"2026-08-28T12:00:00Z","description":"Strong quarter.",
			 "article_url":"https://example.com/a",
			 "insights":[{"sentiment":"positive"}]},
			{"title":"Supply chain watch","publisher":{"name":"Daily Ticker"},
			 "published_utc":"2026-08-27T09:30:00Z","description":"",
			 "article_url":"https://example.com/b","insights":[]}
		]}`))
	}))

	articles := c.GetNews(context.Background(), "AAPL", 5, NewsDescending)
	require.Len(t, articles, 2)
	assert.Equal(t, "positive", articles[0].Sentiment)
	assert.Equal(t, "neutral", articles[1].Sentiment)
	assert.Equal(t, "Newswire", articles[0].Publisher)
}

func TestGetNews_FailureIsEmpty(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))

	articles := c.GetNews(context.Background(), "AAPL", 5, NewsDescending)
	assert.Empty(t, articles)
}

func TestGetRSI(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "/v1/indicators/rsi/AAPL")
		assert.Equal(t, "14", r.URL.Query().Get("window"))
		w.Write([]byte(`{"results":{"values":[{"timestamp":1700000000000,"value":55}]}}`))
	}))

	points := c.GetRSI(context.Background(), "AAPL", 14, 1)
	require.Len(t, points, 1)
	assert.Equal(t, 55.0, points[0].Value)
}

func TestGetSMA_FailureIsEmpty(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))

	points := c.GetSMA(context.Background(), "AAPL", 10, 1)
	assert.Empty(t, points)
}

func TestWithLimiter_SharedBucket(t *testing.T) {
	shared := ratelimit.PerMinute(600)
	a := NewClient(config.MarketConfig{BaseURL: "http://localhost"}, WithLimiter(shared))
	b := NewClient(config.MarketConfig{BaseURL: "http://localhost"}, WithLimiter(shared))

	assert.Same(t, shared, a.limiter)
	assert.Same(t, shared, b.limiter)
}

func TestPolicyFor(t *testing.T) {
	assert.Equal(t, Propagate, PolicyFor("aggregates"))
	assert.Equal(t, Propagate, PolicyFor("previous_close"))
	assert.Equal(t, SuppressToAbsent, PolicyFor("ticker_details"))
	assert.Equal(t, SuppressToEmpty, PolicyFor("news"))
	assert.Equal(t, SuppressToEmpty, PolicyFor("rsi"))
	assert.Equal(t, SuppressToEmpty, PolicyFor("sma"))
	assert.Equal(t, Propagate, PolicyFor("unknown"))
}
