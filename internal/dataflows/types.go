package dataflows

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/ikeya/chaincouncil/internal/config"
)

// Config is an alias for the main application config.
type Config = config.Config

// Candle is one OHLCV bar for a crypto trading pair.
type Candle struct {
	Symbol    string          `json:"symbol"`
	Date      time.Time       `json:"date"`
	Open      decimal.Decimal `json:"open"`
	High      decimal.Decimal `json:"high"`
	Low       decimal.Decimal `json:"low"`
	Close     decimal.Decimal `json:"close"`
	Volume    decimal.Decimal `json:"volume"`
	Timestamp time.Time       `json:"timestamp"`
}

// MarketSummary is current market statistics for one token.
type MarketSummary struct {
	Symbol            string          `json:"symbol"`
	Name              string          `json:"name"`
	PriceUSD          decimal.Decimal `json:"price_usd"`
	Change24h         float64         `json:"change_24h"`
	Change7d          float64         `json:"change_7d"`
	Change30d         float64         `json:"change_30d"`
	MarketCapUSD      decimal.Decimal `json:"market_cap_usd"`
	MarketCapRank     int             `json:"market_cap_rank"`
	Volume24hUSD      decimal.Decimal `json:"volume_24h_usd"`
	CirculatingSupply decimal.Decimal `json:"circulating_supply"`
	TotalSupply       decimal.Decimal `json:"total_supply"`
	AthUSD            decimal.Decimal `json:"ath_usd"`
	AthDate           string          `json:"ath_date"`
}

// GlobalMarket is the macro crypto market snapshot.
type GlobalMarket struct {
	TotalMarketCapUSD  float64 `json:"total_market_cap_usd"`
	MarketCapChange24h float64 `json:"market_cap_change_24h"`
	TotalVolume24hUSD  float64 `json:"total_volume_24h_usd"`
	BTCDominance       float64 `json:"btc_dominance"`
	ETHDominance       float64 `json:"eth_dominance"`
	ActiveCurrencies   int     `json:"active_currencies"`
}

// FearGreed is the alternative.me Fear & Greed index reading.
type FearGreed struct {
	Value          int    `json:"value"`
	Classification string `json:"classification"`
	Timestamp      string `json:"timestamp"`
}

// TrendingCoin is one entry from the trending list.
type TrendingCoin struct {
	Symbol        string `json:"symbol"`
	Name          string `json:"name"`
	MarketCapRank int    `json:"market_cap_rank"`
	Score         int    `json:"score"`
}

// OnChainStats is a chain-agnostic bundle of network metrics. Fields
// that do not apply to a chain stay zero.
type OnChainStats struct {
	Symbol               string  `json:"symbol"`
	HashRateGHs          float64 `json:"hash_rate_ghs"`
	Difficulty           float64 `json:"difficulty"`
	MinutesBetweenBlocks float64 `json:"minutes_between_blocks"`
	TxCount24h           int64   `json:"tx_count_24h"`
	MempoolCount         int64   `json:"mempool_count"`
	LargeTxCount         int     `json:"large_tx_count"`
	TotalSupply          float64 `json:"total_supply"`
	GasSafeGwei          float64 `json:"gas_safe_gwei"`
	GasProposeGwei       float64 `json:"gas_propose_gwei"`
	GasFastGwei          float64 `json:"gas_fast_gwei"`
}

// NewsArticle is a crypto news item.
type NewsArticle struct {
	Title       string    `json:"title"`
	Content     string    `json:"content,omitempty"`
	URL         string    `json:"url"`
	Source      string    `json:"source"`
	Currencies  []string  `json:"currencies,omitempty"`
	PublishedAt time.Time `json:"published_at"`
}
