package tools

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/cloudwego/eino/components/tool"
	t_utils "github.com/cloudwego/eino/components/tool/utils"
	"github.com/cloudwego/eino/schema"

	"github.com/ikeya/chaincouncil/internal/dataflows"
)

// PriceDataInput is the argument schema for the price data tool.
type PriceDataInput struct {
	Symbol string `json:"symbol"`
	Days   int    `json:"days"`
}

// PriceDataOutput carries a formatted daily candle table.
type PriceDataOutput struct {
	Symbol  string              `json:"symbol"`
	Candles []*dataflows.Candle `json:"candles"`
	Report  string              `json:"report"`
}

// NewPriceDataTool returns daily OHLCV candles for a token.
func NewPriceDataTool(ds *Datasources) tool.BaseTool {
	return t_utils.NewTool(
		&schema.ToolInfo{
			Name: "get_crypto_price_data",
			Desc: "Get daily OHLCV price candles for a crypto token over a rolling window",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"symbol": {
					Type:     "string",
					Desc:     "Token symbol, e.g. BTC",
					Required: true,
				},
				"days": {
					Type:     "integer",
					Desc:     "Number of days to retrieve (default: 30)",
					Required: false,
				},
			}),
		},
		func(ctx context.Context, input PriceDataInput) (*PriceDataOutput, error) {
			if input.Symbol == "" {
				return nil, fmt.Errorf("symbol parameter is required")
			}
			days := input.Days
			if days <= 0 {
				days = 30
			}

			candles, err := ds.Prices.GetCandleWindow(input.Symbol, days)
			if err != nil {
				return nil, Classify("get_crypto_price_data", err)
			}
			if len(candles) == 0 {
				return nil, Classify("get_crypto_price_data",
					fmt.Errorf("no price data returned for %s", input.Symbol))
			}

			var b strings.Builder
			fmt.Fprintf(&b, "Daily candles for %s (last %d days):\n", dataflows.NormalizeSymbol(input.Symbol), days)
			b.WriteString("date | open | high | low | close | volume\n")
			for _, c := range candles {
				fmt.Fprintf(&b, "%s | %s | %s | %s | %s | %s\n",
					c.Date.Format("2006-01-02"),
					c.Open.StringFixed(2), c.High.StringFixed(2),
					c.Low.StringFixed(2), c.Close.StringFixed(2),
					c.Volume.StringFixed(0))
			}

			return &PriceDataOutput{
				Symbol:  dataflows.NormalizeSymbol(input.Symbol),
				Candles: candles,
				Report:  b.String(),
			}, nil
		},
	)
}

// indicatorNotes describes each supported indicator for the model.
var indicatorNotes = map[string]string{
	"close_10_ema":  "10 EMA: responsive short-term average for momentum shifts. Noisy in choppy crypto markets; filter with longer averages.",
	"close_50_sma":  "50 SMA: medium-term trend direction and dynamic support/resistance.",
	"close_200_sma": "200 SMA: long-term trend benchmark; crypto trades above it in sustained bull phases.",
	"rsi":           "RSI: momentum oscillator, 70/30 thresholds. Crypto can stay pinned at extremes during strong trends.",
	"macd":          "MACD: EMA(12)-EMA(26) momentum; watch zero-line crosses and divergence.",
	"boll_ub":       "Bollinger upper band: 2 standard deviations above the 20 SMA; breakout or overbought zone.",
	"boll_lb":       "Bollinger lower band: 2 standard deviations below the 20 SMA; oversold zone.",
	"atr":           "ATR: volatility gauge for stop placement and position sizing.",
}

// IndicatorsInput is the argument schema for the indicators tool.
type IndicatorsInput struct {
	Symbol string `json:"symbol"`
	Days   int    `json:"days"`
}

// IndicatorsOutput carries the latest indicator readings.
type IndicatorsOutput struct {
	Symbol string `json:"symbol"`
	Report string `json:"report"`
}

// NewTechnicalIndicatorsTool computes the standard indicator set over
// recent candles and reports the latest reading of each.
func NewTechnicalIndicatorsTool(ds *Datasources) tool.BaseTool {
	return t_utils.NewTool(
		&schema.ToolInfo{
			Name: "get_technical_indicators",
			Desc: "Compute technical indicators (SMA, EMA, RSI, MACD, Bollinger, ATR) for a crypto token",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"symbol": {
					Type:     "string",
					Desc:     "Token symbol, e.g. BTC",
					Required: true,
				},
				"days": {
					Type:     "integer",
					Desc:     "History window in days (default: 90; use 250+ for the 200 SMA)",
					Required: false,
				},
			}),
		},
		func(ctx context.Context, input IndicatorsInput) (*IndicatorsOutput, error) {
			if input.Symbol == "" {
				return nil, fmt.Errorf("symbol parameter is required")
			}
			days := input.Days
			if days <= 0 {
				days = 90
			}

			candles, err := ds.Prices.GetCandleWindow(input.Symbol, days)
			if err != nil {
				return nil, Classify("get_technical_indicators", err)
			}

			indicators := dataflows.CalculateAllIndicators(candles)
			if len(indicators) == 0 {
				return nil, Classify("get_technical_indicators",
					fmt.Errorf("not enough price history for %s to compute indicators", input.Symbol))
			}

			names := make([]string, 0, len(indicators))
			for name := range indicators {
				names = append(names, name)
			}
			sort.Strings(names)

			var b strings.Builder
			fmt.Fprintf(&b, "Latest indicator readings for %s:\n", dataflows.NormalizeSymbol(input.Symbol))
			for _, name := range names {
				series := indicators[name]
				latest := series[len(series)-1]
				fmt.Fprintf(&b, "- %s = %.4f (as of %s)\n", name, latest.Value, latest.Date.Format("2006-01-02"))
				if note, ok := indicatorNotes[name]; ok {
					fmt.Fprintf(&b, "  %s\n", note)
				}
			}

			return &IndicatorsOutput{
				Symbol: dataflows.NormalizeSymbol(input.Symbol),
				Report: b.String(),
			}, nil
		},
	)
}

// MarketSummaryInput is the argument schema for the market summary tool.
type MarketSummaryInput struct {
	Symbol string `json:"symbol"`
}

// MarketSummaryOutput carries current market statistics for a token.
type MarketSummaryOutput struct {
	Summary *dataflows.MarketSummary `json:"summary"`
	Report  string                   `json:"report"`
}

// NewMarketSummaryTool returns current price, market cap and supply
// statistics for a token.
func NewMarketSummaryTool(ds *Datasources) tool.BaseTool {
	return t_utils.NewTool(
		&schema.ToolInfo{
			Name: "get_market_summary",
			Desc: "Get current price, market cap, volume and supply statistics for a crypto token",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"symbol": {
					Type:     "string",
					Desc:     "Token symbol, e.g. BTC",
					Required: true,
				},
			}),
		},
		func(ctx context.Context, input MarketSummaryInput) (*MarketSummaryOutput, error) {
			if input.Symbol == "" {
				return nil, fmt.Errorf("symbol parameter is required")
			}

			summary, err := ds.Markets.GetMarketSummary(input.Symbol)
			if err != nil {
				return nil, Classify("get_market_summary", err)
			}

			var b strings.Builder
			fmt.Fprintf(&b, "%s (%s) market summary:\n", summary.Name, summary.Symbol)
			fmt.Fprintf(&b, "- price: $%s\n", summary.PriceUSD.StringFixed(2))
			fmt.Fprintf(&b, "- 24h change: %.2f%%, 7d: %.2f%%, 30d: %.2f%%\n",
				summary.Change24h, summary.Change7d, summary.Change30d)
			fmt.Fprintf(&b, "- market cap: $%s (rank #%d)\n", summary.MarketCapUSD.StringFixed(0), summary.MarketCapRank)
			fmt.Fprintf(&b, "- 24h volume: $%s\n", summary.Volume24hUSD.StringFixed(0))
			fmt.Fprintf(&b, "- circulating supply: %s of %s\n",
				summary.CirculatingSupply.StringFixed(0), summary.TotalSupply.StringFixed(0))
			fmt.Fprintf(&b, "- all-time high: $%s (%s)\n", summary.AthUSD.StringFixed(2), summary.AthDate)

			return &MarketSummaryOutput{Summary: summary, Report: b.String()}, nil
		},
	)
}
