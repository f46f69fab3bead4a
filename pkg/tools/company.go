package tools

import (
	"context"
	"fmt"
	"strings"
)

// CompanyTool fetches the reference profile for a ticker. A missing or
// failed lookup degrades to a sentinel message so the turn can finish
// on price data and news alone.
type CompanyTool struct {
	data MarketData
}

func NewCompanyTool(data MarketData) *CompanyTool {
	return &CompanyTool{data: data}
}

func (t *CompanyTool) Name() string {
	return "get_company_details"
}

func (t *CompanyTool) Description() string {
	return "Get company profile for a stock ticker: name, description, market cap, exchange, employees"
}

func (t *CompanyTool) Parameters() map[string]any {
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

func (t *CompanyTool) Execute(ctx context.Context, args map[string]any) *ToolResult {
	ticker, ok := stringArg(args, "ticker")
	if !ok || ticker == "" {
		return ErrorResult("ticker parameter is required")
	}
	ticker = strings.ToUpper(ticker)

	details, err := t.data.GetTickerDetails(ctx, ticker)
	if err != nil || details == nil {
		return NewToolResult(fmt.Sprintf("No company details found for %s", ticker))
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s (%s)\n", details.Name, details.Ticker)
	if details.Description != "" {
		fmt.Fprintf(&sb, "%s\n", details.Description)
	}
	if details.Market != "" {
		fmt.Fprintf(&sb, "Market: %s\n", details.Market)
	}
	fmt.Fprintf(&sb, "Exchange: %s\n", details.Exchange)
	if details.Type != "" {
		fmt.Fprintf(&sb, "Type: %s\n", details.Type)
	}
	if details.MarketCap > 0 {
		fmt.Fprintf(&sb, "Market cap: %s\n", formatMarketCap(details.MarketCap))
	}
	if details.TotalEmployees > 0 {
		fmt.Fprintf(&sb, "Employees: %d\n", details.TotalEmployees)
	}
	if details.ListDate != "" {
		fmt.Fprintf(&sb, "Listed: %s\n", details.ListDate)
	}
	if details.Currency != "" {
		fmt.Fprintf(&sb, "Currency: %s\n", strings.ToUpper(details.Currency))
	}
	if !details.Active {
		sb.WriteString("Status: inactive\n")
	}
	return NewToolResult(sb.String())
}

func formatMarketCap(cap float64) string {
	switch {
	case cap >= 1e12:
		return fmt.Sprintf("$%.2fT", cap/1e12)
	case cap >= 1e9:
		return fmt.Sprintf("$%.2fB", cap/1e9)
	case cap >= 1e6:
		return fmt.Sprintf("$%.2fM", cap/1e6)
	default:
		return fmt.Sprintf("$%.0f", cap)
	}
}

var _ Tool = (*CompanyTool)(nil)
