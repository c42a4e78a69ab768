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

// FearGreedOutput carries the sentiment index reading.
type FearGreedOutput struct {
	Index  *dataflows.FearGreed `json:"index"`
	Report string               `json:"report"`
}

// NewFearGreedTool returns the crypto Fear & Greed index.
func NewFearGreedTool(ds *Datasources) tool.BaseTool {
	return t_utils.NewTool(
		&schema.ToolInfo{
			Name:        "get_fear_greed_index",
			Desc:        "Get the crypto Fear & Greed sentiment index (0 = extreme fear, 100 = extreme greed)",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{}),
		},
		func(ctx context.Context, input emptyInput) (*FearGreedOutput, error) {
			fg, err := ds.Markets.GetFearGreedIndex()
			if err != nil {
				return nil, Classify("get_fear_greed_index", err)
			}

			report := fmt.Sprintf("Fear & Greed index: %d (%s)\n", fg.Value, fg.Classification)
			return &FearGreedOutput{Index: fg, Report: report}, nil
		},
	)
}

// TrendingOutput carries the trending coin list.
type TrendingOutput struct {
	Coins  []*dataflows.TrendingCoin `json:"coins"`
	Report string                    `json:"report"`
}

// NewTrendingCoinsTool returns the coins currently drawing the most
// search attention, a proxy for retail interest.
func NewTrendingCoinsTool(ds *Datasources) tool.BaseTool {
	return t_utils.NewTool(
		&schema.ToolInfo{
			Name:        "get_trending_coins",
			Desc:        "Get the currently trending coins by search volume, a proxy for retail attention",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{}),
		},
		func(ctx context.Context, input emptyInput) (*TrendingOutput, error) {
			coins, err := ds.Markets.GetTrendingCoins()
			if err != nil {
				return nil, Classify("get_trending_coins", err)
			}

			var b strings.Builder
			b.WriteString("Trending coins by search interest:\n")
			for i, c := range coins {
				fmt.Fprintf(&b, "%d. %s (%s), market cap rank #%d\n", i+1, c.Name, c.Symbol, c.MarketCapRank)
			}
			if len(coins) == 0 {
				b.WriteString("No trending data available.\n")
			}

			return &TrendingOutput{Coins: coins, Report: b.String()}, nil
		},
	)
}
