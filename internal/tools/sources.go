package tools

import (
	"github.com/ikeya/chaincouncil/internal/config"
	"github.com/ikeya/chaincouncil/internal/dataflows"
)

// PriceSource provides OHLCV candle data.
type PriceSource interface {
	GetQuote(symbol string) (*dataflows.Candle, error)
	GetCandleWindow(symbol string, days int) ([]*dataflows.Candle, error)
}

// MarketSource provides market-level statistics and sentiment.
type MarketSource interface {
	GetMarketSummary(symbol string) (*dataflows.MarketSummary, error)
	GetGlobalMarket() (*dataflows.GlobalMarket, error)
	GetFearGreedIndex() (*dataflows.FearGreed, error)
	GetTrendingCoins() ([]*dataflows.TrendingCoin, error)
}

// ChainSource provides on-chain network statistics.
type ChainSource interface {
	GetStats(symbol string) (*dataflows.OnChainStats, error)
}

// NewsSource provides crypto news headlines and article bodies.
type NewsSource interface {
	GetNews(symbol string, limit int) ([]*dataflows.NewsArticle, error)
	GetRegulatoryNews(limit int) ([]*dataflows.NewsArticle, error)
	ScrapeArticle(url string) (string, error)
}

// Datasources bundles the data clients the tools draw from. Tests
// substitute fakes for individual fields.
type Datasources struct {
	Prices  PriceSource
	Markets MarketSource
	Chain   ChainSource
	News    NewsSource
}

// NewDatasources wires up the production data clients.
func NewDatasources(cfg *config.Config) *Datasources {
	return &Datasources{
		Prices:  dataflows.NewYahooClient(cfg),
		Markets: dataflows.NewCoinGeckoClient(cfg),
		Chain:   dataflows.NewOnChainClient(cfg),
		News:    dataflows.NewNewsClient(cfg),
	}
}
