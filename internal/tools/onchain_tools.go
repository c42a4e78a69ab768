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

// OnChainInput is the argument schema for the on-chain stats tool.
type OnChainInput struct {
	Symbol string `json:"symbol"`
}

// OnChainOutput carries network-level statistics.
type OnChainOutput struct {
	Stats  *dataflows.OnChainStats `json:"stats"`
	Report string                  `json:"report"`
}

// NewOnChainStatsTool returns network health metrics for chains that
// expose them (BTC hash rate and mempool, ETH gas oracle).
func NewOnChainStatsTool(ds *Datasources) tool.BaseTool {
	return t_utils.NewTool(
		&schema.ToolInfo{
			Name: "get_onchain_stats",
			Desc: "Get on-chain network statistics for a token: hash rate, difficulty, mempool and transaction counts for BTC, gas prices for ETH",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"symbol": {
					Type:     "string",
					Desc:     "Token symbol; only BTC and ETH have chain-level sources",
					Required: true,
				},
			}),
		},
		func(ctx context.Context, input OnChainInput) (*OnChainOutput, error) {
			if input.Symbol == "" {
				return nil, fmt.Errorf("symbol parameter is required")
			}

			stats, err := ds.Chain.GetStats(input.Symbol)
			if err != nil {
				return nil, Classify("get_onchain_stats", err)
			}

			var b strings.Builder
			fmt.Fprintf(&b, "On-chain statistics for %s:\n", stats.Symbol)
			if stats.HashRateGHs > 0 {
				fmt.Fprintf(&b, "- hash rate: %.2e GH/s\n", stats.HashRateGHs)
				fmt.Fprintf(&b, "- difficulty: %.2e\n", stats.Difficulty)
				fmt.Fprintf(&b, "- avg minutes between blocks: %.1f\n", stats.MinutesBetweenBlocks)
			}
			if stats.TxCount24h > 0 {
				fmt.Fprintf(&b, "- transactions (24h): %d\n", stats.TxCount24h)
			}
			if stats.MempoolCount > 0 {
				fmt.Fprintf(&b, "- mempool backlog: %d transactions\n", stats.MempoolCount)
			}
			if stats.LargeTxCount > 0 {
				fmt.Fprintf(&b, "- whale-sized transactions in mempool: %d\n", stats.LargeTxCount)
			}
			if stats.TotalSupply > 0 {
				fmt.Fprintf(&b, "- circulating supply: %.0f\n", stats.TotalSupply)
			}
			if stats.GasProposeGwei > 0 {
				fmt.Fprintf(&b, "- gas (gwei): safe %.1f / standard %.1f / fast %.1f\n",
					stats.GasSafeGwei, stats.GasProposeGwei, stats.GasFastGwei)
			}

			return &OnChainOutput{Stats: stats, Report: b.String()}, nil
		},
	)
}
