package dataflows

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
)

// symbol → CoinGecko coin id for the supported token set. Unknown
// symbols fall back to a lower-cased guess.
var coinGeckoIDs = map[string]string{
	"BTC":   "bitcoin",
	"ETH":   "ethereum",
	"SOL":   "solana",
	"MATIC": "matic-network",
	"AVAX":  "avalanche-2",
	"BNB":   "binancecoin",
	"ADA":   "cardano",
	"DOT":   "polkadot",
	"LINK":  "chainlink",
	"UNI":   "uniswap",
}

// CoinGeckoClient handles CoinGecko API operations. The free tier
// works without a key at a reduced rate limit.
type CoinGeckoClient struct {
	client    *resty.Client
	altClient *resty.Client // alternative.me, for the Fear & Greed index
	cache     *CacheManager
	apiKey    string
	online    bool
}

// NewCoinGeckoClient creates a new CoinGecko client.
func NewCoinGeckoClient(config *Config) *CoinGeckoClient {
	cacheDir := filepath.Join(config.DataCacheDir, "coingecko")
	cache := NewCacheManager(cacheDir, 30*time.Minute, config.CacheEnabled)

	client := resty.New()
	client.SetBaseURL("https://api.coingecko.com/api/v3")
	client.SetTimeout(15 * time.Second)
	if config.CoinGeckoAPIKey != "" {
		client.SetHeader("x-cg-demo-api-key", config.CoinGeckoAPIKey)
	}

	altClient := resty.New()
	altClient.SetBaseURL("https://api.alternative.me")
	altClient.SetTimeout(15 * time.Second)

	return &CoinGeckoClient{
		client:    client,
		altClient: altClient,
		cache:     cache,
		apiKey:    config.CoinGeckoAPIKey,
		online:    config.OnlineTools,
	}
}

// CoinID resolves a token symbol to a CoinGecko coin id.
func CoinID(symbol string) string {
	if id, ok := coinGeckoIDs[NormalizeSymbol(symbol)]; ok {
		return id
	}
	return strings.ToLower(strings.TrimSpace(symbol))
}

// GetPriceHistory returns daily candles for the last `days` days.
func (cg *CoinGeckoClient) GetPriceHistory(symbol string, days int) ([]*Candle, error) {
	if err := ValidateSymbol(symbol); err != nil {
		return nil, err
	}
	symbol = NormalizeSymbol(symbol)

	cacheKey := map[string]interface{}{"symbol": symbol, "days": days}
	var cached []*Candle
	if cg.cache.Get("coingecko", "price_history", cacheKey, &cached) {
		return cached, nil
	}
	if !cg.online {
		if cg.cache.GetStale("coingecko", "price_history", cacheKey, &cached) {
			return cached, nil
		}
		return nil, offlineError("price history " + symbol)
	}

	var payload struct {
		Prices       [][]float64 `json:"prices"`
		TotalVolumes [][]float64 `json:"total_volumes"`
	}

	var result []*Candle
	err := WithRetry(DefaultRetryConfig(), func() error {
		resp, err := cg.client.R().
			SetQueryParams(map[string]string{
				"vs_currency": "usd",
				"days":        fmt.Sprintf("%d", days),
				"interval":    "daily",
			}).
			SetResult(&payload).
			Get(fmt.Sprintf("/coins/%s/market_chart", CoinID(symbol)))
		if err != nil {
			return fmt.Errorf("failed to fetch price history for %s: %w", symbol, err)
		}
		if resp.IsError() {
			return fmt.Errorf("coingecko market_chart for %s: status %d", symbol, resp.StatusCode())
		}

		result = make([]*Candle, 0, len(payload.Prices))
		for i, point := range payload.Prices {
			if len(point) < 2 {
				continue
			}
			ts := time.UnixMilli(int64(point[0]))
			price := decimal.NewFromFloat(point[1])
			volume := decimal.Zero
			if i < len(payload.TotalVolumes) && len(payload.TotalVolumes[i]) >= 2 {
				volume = decimal.NewFromFloat(payload.TotalVolumes[i][1])
			}
			// market_chart returns close prices only; each daily
			// point becomes a flat candle.
			result = append(result, &Candle{
				Symbol:    symbol,
				Date:      ts,
				Open:      price,
				High:      price,
				Low:       price,
				Close:     price,
				Volume:    volume,
				Timestamp: time.Now(),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	cg.cache.Set("coingecko", "price_history", cacheKey, result)
	return result, nil
}

// GetMarketSummary returns current market statistics for a token.
func (cg *CoinGeckoClient) GetMarketSummary(symbol string) (*MarketSummary, error) {
	if err := ValidateSymbol(symbol); err != nil {
		return nil, err
	}
	symbol = NormalizeSymbol(symbol)

	var cached MarketSummary
	if cg.cache.Get("coingecko", "market_summary", symbol, &cached) {
		return &cached, nil
	}
	if !cg.online {
		if cg.cache.GetStale("coingecko", "market_summary", symbol, &cached) {
			return &cached, nil
		}
		return nil, offlineError("market summary " + symbol)
	}

	var payload struct {
		Name       string `json:"name"`
		MarketData struct {
			CurrentPrice      map[string]float64 `json:"current_price"`
			MarketCap         map[string]float64 `json:"market_cap"`
			TotalVolume       map[string]float64 `json:"total_volume"`
			PriceChange24h    float64            `json:"price_change_percentage_24h"`
			PriceChange7d     float64            `json:"price_change_percentage_7d"`
			PriceChange30d    float64            `json:"price_change_percentage_30d"`
			CirculatingSupply float64            `json:"circulating_supply"`
			TotalSupply       float64            `json:"total_supply"`
			Ath               map[string]float64 `json:"ath"`
			AthDate           map[string]string  `json:"ath_date"`
		} `json:"market_data"`
		MarketCapRank int `json:"market_cap_rank"`
	}

	var result *MarketSummary
	err := WithRetry(DefaultRetryConfig(), func() error {
		resp, err := cg.client.R().
			SetQueryParams(map[string]string{
				"localization":   "false",
				"tickers":        "false",
				"community_data": "false",
				"developer_data": "false",
			}).
			SetResult(&payload).
			Get(fmt.Sprintf("/coins/%s", CoinID(symbol)))
		if err != nil {
			return fmt.Errorf("failed to fetch market data for %s: %w", symbol, err)
		}
		if resp.IsError() {
			return fmt.Errorf("coingecko coins/%s: status %d", CoinID(symbol), resp.StatusCode())
		}

		md := payload.MarketData
		result = &MarketSummary{
			Symbol:            symbol,
			Name:              payload.Name,
			PriceUSD:          decimal.NewFromFloat(md.CurrentPrice["usd"]),
			Change24h:         md.PriceChange24h,
			Change7d:          md.PriceChange7d,
			Change30d:         md.PriceChange30d,
			MarketCapUSD:      decimal.NewFromFloat(md.MarketCap["usd"]),
			MarketCapRank:     payload.MarketCapRank,
			Volume24hUSD:      decimal.NewFromFloat(md.TotalVolume["usd"]),
			CirculatingSupply: decimal.NewFromFloat(md.CirculatingSupply),
			TotalSupply:       decimal.NewFromFloat(md.TotalSupply),
			AthUSD:            decimal.NewFromFloat(md.Ath["usd"]),
			AthDate:           md.AthDate["usd"],
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	cg.cache.Set("coingecko", "market_summary", symbol, result)
	return result, nil
}

// GetGlobalMarket returns the macro crypto market snapshot.
func (cg *CoinGeckoClient) GetGlobalMarket() (*GlobalMarket, error) {
	var cached GlobalMarket
	if cg.cache.Get("coingecko", "global", "snapshot", &cached) {
		return &cached, nil
	}
	if !cg.online {
		if cg.cache.GetStale("coingecko", "global", "snapshot", &cached) {
			return &cached, nil
		}
		return nil, offlineError("global market snapshot")
	}

	var payload struct {
		Data struct {
			TotalMarketCap         map[string]float64 `json:"total_market_cap"`
			TotalVolume            map[string]float64 `json:"total_volume"`
			MarketCapPercentage    map[string]float64 `json:"market_cap_percentage"`
			MarketCapChange24hUSD  float64            `json:"market_cap_change_percentage_24h_usd"`
			ActiveCryptocurrencies int                `json:"active_cryptocurrencies"`
		} `json:"data"`
	}

	var result *GlobalMarket
	err := WithRetry(DefaultRetryConfig(), func() error {
		resp, err := cg.client.R().SetResult(&payload).Get("/global")
		if err != nil {
			return fmt.Errorf("failed to fetch global market data: %w", err)
		}
		if resp.IsError() {
			return fmt.Errorf("coingecko global: status %d", resp.StatusCode())
		}

		d := payload.Data
		result = &GlobalMarket{
			TotalMarketCapUSD:  d.TotalMarketCap["usd"],
			MarketCapChange24h: d.MarketCapChange24hUSD,
			TotalVolume24hUSD:  d.TotalVolume["usd"],
			BTCDominance:       d.MarketCapPercentage["btc"],
			ETHDominance:       d.MarketCapPercentage["eth"],
			ActiveCurrencies:   d.ActiveCryptocurrencies,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	cg.cache.Set("coingecko", "global", "snapshot", result)
	return result, nil
}

// GetFearGreedIndex returns the crypto Fear & Greed index. This hits
// alternative.me, not CoinGecko.
func (cg *CoinGeckoClient) GetFearGreedIndex() (*FearGreed, error) {
	var cached FearGreed
	if cg.cache.Get("alternative", "fear_greed", "latest", &cached) {
		return &cached, nil
	}
	if !cg.online {
		if cg.cache.GetStale("alternative", "fear_greed", "latest", &cached) {
			return &cached, nil
		}
		return nil, offlineError("fear & greed index")
	}

	var payload struct {
		Data []struct {
			Value          string `json:"value"`
			Classification string `json:"value_classification"`
			Timestamp      string `json:"timestamp"`
		} `json:"data"`
	}

	var result *FearGreed
	err := WithRetry(DefaultRetryConfig(), func() error {
		resp, err := cg.altClient.R().
			SetQueryParam("limit", "1").
			SetResult(&payload).
			Get("/fng/")
		if err != nil {
			return fmt.Errorf("failed to fetch fear & greed index: %w", err)
		}
		if resp.IsError() {
			return fmt.Errorf("alternative.me fng: status %d", resp.StatusCode())
		}
		if len(payload.Data) == 0 {
			return fmt.Errorf("fear & greed index returned no data")
		}

		value := 0
		fmt.Sscanf(payload.Data[0].Value, "%d", &value)
		result = &FearGreed{
			Value:          value,
			Classification: payload.Data[0].Classification,
			Timestamp:      payload.Data[0].Timestamp,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	cg.cache.Set("alternative", "fear_greed", "latest", result)
	return result, nil
}

// GetTrendingCoins returns the currently trending coins on CoinGecko.
func (cg *CoinGeckoClient) GetTrendingCoins() ([]*TrendingCoin, error) {
	var cached []*TrendingCoin
	if cg.cache.Get("coingecko", "trending", "latest", &cached) {
		return cached, nil
	}
	if !cg.online {
		if cg.cache.GetStale("coingecko", "trending", "latest", &cached) {
			return cached, nil
		}
		return nil, offlineError("trending coins")
	}

	var payload struct {
		Coins []struct {
			Item struct {
				Symbol        string `json:"symbol"`
				Name          string `json:"name"`
				MarketCapRank int    `json:"market_cap_rank"`
				Score         int    `json:"score"`
			} `json:"item"`
		} `json:"coins"`
	}

	var result []*TrendingCoin
	err := WithRetry(DefaultRetryConfig(), func() error {
		resp, err := cg.client.R().SetResult(&payload).Get("/search/trending")
		if err != nil {
			return fmt.Errorf("failed to fetch trending coins: %w", err)
		}
		if resp.IsError() {
			return fmt.Errorf("coingecko trending: status %d", resp.StatusCode())
		}

		result = make([]*TrendingCoin, 0, len(payload.Coins))
		for _, c := range payload.Coins {
			result = append(result, &TrendingCoin{
				Symbol:        strings.ToUpper(c.Item.Symbol),
				Name:          c.Item.Name,
				MarketCapRank: c.Item.MarketCapRank,
				Score:         c.Item.Score,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	cg.cache.Set("coingecko", "trending", "latest", result)
	return result, nil
}

// SetBaseURL points the client at a different endpoint. Used in tests.
func (cg *CoinGeckoClient) SetBaseURL(url string) {
	cg.client.SetBaseURL(url)
	cg.altClient.SetBaseURL(url)
}
