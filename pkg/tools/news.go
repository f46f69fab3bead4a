package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/lucidquant/tickerscout/pkg/market"
)

const defaultNewsLimit = 5

// NewsTool fetches recent headlines for a ticker and renders them as a
// compact text digest with publisher, date, and sentiment.
type NewsTool struct {
	data MarketData
}

func NewNewsTool(data MarketData) *NewsTool {
	return &NewsTool{data: data}
}

func (t *NewsTool) Name() string {
	return "get_stock_news"
}

func (t *NewsTool) Description() string {
	return "Get recent news headlines for a stock ticker with publisher, date and sentiment"
}

func (t *NewsTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"ticker": map[string]any{
				"type":        "string",
				"description": "Stock ticker symbol, e.g. AAPL",
			},
			"limit": map[string]any{
				"type":        "integer",
				"description": "Maximum number of articles to return (default 5)",
			},
		},
		"required": []string{"ticker"},
	}
}

func (t *NewsTool) Execute(ctx context.Context, args map[string]any) *ToolResult {
	ticker, ok := stringArg(args, "ticker")
	if !ok || ticker == "" {
		return ErrorResult("ticker parameter is required")
	}
	ticker = strings.ToUpper(ticker)
	limit := intArg(args, "limit", defaultNewsLimit)

	articles := t.data.GetNews(ctx, ticker, limit, market.NewsDescending)
	if len(articles) == 0 {
		return NewToolResult(fmt.Sprintf("No recent news found for %s", ticker))
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Recent news for %s:\n", ticker)
	for i, a := range articles {
		fmt.Fprintf(&sb, "\n%d. %s\n   %s, %s, sentiment: %s\n",
			i+1, a.Title, a.Publisher, a.Published.Format("2006-01-02"), a.Sentiment)
		if a.Description != "" {
			fmt.Fprintf(&sb, "   %s\n", a.Description)
		}
	}
	return NewToolResult(sb.String())
}

var _ Tool = (*NewsTool)(nil)
