package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/tool"
	t_utils "github.com/cloudwego/eino/components/tool/utils"
	"github.com/cloudwego/eino/schema"

	"github.com/ikeya/chaincouncil/internal/dataflows"
)

// NewsInput is the argument schema for the crypto news tool.
type NewsInput struct {
	Symbol string `json:"symbol"`
	Limit  int    `json:"limit"`
}

// NewsOutput carries recent headlines for a token.
type NewsOutput struct {
	Articles []*dataflows.NewsArticle `json:"articles"`
	Report   string                   `json:"report"`
}

// NewCryptoNewsTool returns recent news headlines for a token.
func NewCryptoNewsTool(ds *Datasources) tool.BaseTool {
	return t_utils.NewTool(
		&schema.ToolInfo{
			Name: "get_crypto_news",
			Desc: "Get recent news headlines for a crypto token, newest first",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"symbol": {
					Type:     "string",
					Desc:     "Token symbol, e.g. BTC",
					Required: true,
				},
				"limit": {
					Type:     "integer",
					Desc:     "Maximum number of headlines (default: 10)",
					Required: false,
				},
			}),
		},
		func(ctx context.Context, input NewsInput) (*NewsOutput, error) {
			if input.Symbol == "" {
				return nil, fmt.Errorf("symbol parameter is required")
			}
			limit := input.Limit
			if limit <= 0 {
				limit = 10
			}

			articles, err := ds.News.GetNews(input.Symbol, limit)
			if err != nil {
				return nil, Classify("get_crypto_news", err)
			}

			// Pull the body of the top story so the analyst has more
			// than a headline to reason about. Scrape failures only
			// cost the excerpt.
			if len(articles) > 0 && articles[0].URL != "" {
				if body, err := ds.News.ScrapeArticle(articles[0].URL); err == nil {
					articles[0].Content = excerpt(body, 600)
				}
			}

			var b strings.Builder
			fmt.Fprintf(&b, "Recent news for %s (%d items):\n", dataflows.NormalizeSymbol(input.Symbol), len(articles))
			for _, a := range articles {
				fmt.Fprintf(&b, "- [%s] %s (%s)\n",
					a.PublishedAt.Format("2006-01-02"), a.Title, a.Source)
				if a.Content != "" {
					fmt.Fprintf(&b, "  %s\n", a.Content)
				}
			}
			if len(articles) == 0 {
				b.WriteString("No recent coverage found.\n")
			}

			return &NewsOutput{Articles: articles, Report: b.String()}, nil
		},
	)
}

// excerpt truncates s to at most n bytes on a word boundary.
func excerpt(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	cut := s[:n]
	if i := strings.LastIndex(cut, " "); i > 0 {
		cut = cut[:i]
	}
	return cut + "..."
}

// RegulatoryNewsInput is the argument schema for the regulatory news
// tool.
type RegulatoryNewsInput struct {
	Limit int `json:"limit"`
}

// NewRegulatoryNewsTool returns market-wide regulatory and policy
// headlines.
func NewRegulatoryNewsTool(ds *Datasources) tool.BaseTool {
	return t_utils.NewTool(
		&schema.ToolInfo{
			Name: "get_regulatory_news",
			Desc: "Get market-wide regulatory and policy headlines (SEC actions, legislation, ETF decisions, lawsuits)",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"limit": {
					Type:     "integer",
					Desc:     "Maximum number of headlines (default: 10)",
					Required: false,
				},
			}),
		},
		func(ctx context.Context, input RegulatoryNewsInput) (*NewsOutput, error) {
			limit := input.Limit
			if limit <= 0 {
				limit = 10
			}

			articles, err := ds.News.GetRegulatoryNews(limit)
			if err != nil {
				return nil, Classify("get_regulatory_news", err)
			}

			var b strings.Builder
			fmt.Fprintf(&b, "Regulatory and policy headlines (%d items):\n", len(articles))
			for _, a := range articles {
				fmt.Fprintf(&b, "- [%s] %s (%s)\n",
					a.PublishedAt.Format("2006-01-02"), a.Title, a.Source)
			}
			if len(articles) == 0 {
				b.WriteString("No regulatory coverage found this period.\n")
			}

			return &NewsOutput{Articles: articles, Report: b.String()}, nil
		},
	)
}

// GlobalMarketOutput carries the macro market snapshot.
type GlobalMarketOutput struct {
	Global *dataflows.GlobalMarket `json:"global"`
	Report string                  `json:"report"`
}

type emptyInput struct{}

// NewGlobalMarketTool returns the macro crypto market snapshot: total
// market cap, dominance and 24h direction.
func NewGlobalMarketTool(ds *Datasources) tool.BaseTool {
	return t_utils.NewTool(
		&schema.ToolInfo{
			Name:        "get_global_market",
			Desc:        "Get the macro crypto market snapshot: total market cap, BTC/ETH dominance and 24h change",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{}),
		},
		func(ctx context.Context, input emptyInput) (*GlobalMarketOutput, error) {
			global, err := ds.Markets.GetGlobalMarket()
			if err != nil {
				return nil, Classify("get_global_market", err)
			}

			var b strings.Builder
			b.WriteString("Global crypto market:\n")
			fmt.Fprintf(&b, "- total market cap: $%.0f (%.2f%% in 24h)\n",
				global.TotalMarketCapUSD, global.MarketCapChange24h)
			fmt.Fprintf(&b, "- 24h volume: $%.0f\n", global.TotalVolume24hUSD)
			fmt.Fprintf(&b, "- dominance: BTC %.1f%%, ETH %.1f%%\n", global.BTCDominance, global.ETHDominance)
			fmt.Fprintf(&b, "- active currencies: %d\n", global.ActiveCurrencies)

			return &GlobalMarketOutput{Global: global, Report: b.String()}, nil
		},
	)
}
