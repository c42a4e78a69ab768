package dataflows

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"
	"github.com/piquette/finance-go/quote"
	"github.com/shopspring/decimal"
)

// YahooClient reads crypto quotes through Yahoo Finance, which lists
// the majors as USD pairs (BTC-USD, ETH-USD). It serves as the OHLC
// source because CoinGecko's free history endpoint only returns close
// prices.
type YahooClient struct {
	cache  *CacheManager
	online bool
}

// NewYahooClient creates a new Yahoo Finance client.
func NewYahooClient(config *Config) *YahooClient {
	cacheDir := filepath.Join(config.DataCacheDir, "yahoo")
	cache := NewCacheManager(cacheDir, 24*time.Hour, config.CacheEnabled)
	return &YahooClient{cache: cache, online: config.OnlineTools}
}

// PairSymbol converts a token symbol to its Yahoo USD pair.
func PairSymbol(symbol string) string {
	return NormalizeSymbol(symbol) + "-USD"
}

// GetQuote returns the latest quote for a token as a single candle.
func (yc *YahooClient) GetQuote(symbol string) (*Candle, error) {
	if err := ValidateSymbol(symbol); err != nil {
		return nil, err
	}
	symbol = NormalizeSymbol(symbol)

	var cached Candle
	if yc.cache.Get("yahoo", "quote", symbol, &cached) {
		return &cached, nil
	}
	if !yc.online {
		if yc.cache.GetStale("yahoo", "quote", symbol, &cached) {
			return &cached, nil
		}
		return nil, offlineError("quote " + symbol)
	}

	var result *Candle
	err := WithRetry(DefaultRetryConfig(), func() error {
		q, err := quote.Get(PairSymbol(symbol))
		if err != nil {
			return fmt.Errorf("failed to get quote for %s: %w", symbol, err)
		}
		result = &Candle{
			Symbol:    symbol,
			Date:      time.Now(),
			Open:      decimal.NewFromFloat(q.RegularMarketOpen),
			High:      decimal.NewFromFloat(q.RegularMarketDayHigh),
			Low:       decimal.NewFromFloat(q.RegularMarketDayLow),
			Close:     decimal.NewFromFloat(q.RegularMarketPrice),
			Volume:    decimal.NewFromInt(int64(q.RegularMarketVolume)),
			Timestamp: time.Now(),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	yc.cache.Set("yahoo", "quote", symbol, result)
	return result, nil
}

// GetHistoricalCandles returns daily OHLCV bars between start and end.
func (yc *YahooClient) GetHistoricalCandles(symbol string, start, end time.Time) ([]*Candle, error) {
	if err := ValidateSymbol(symbol); err != nil {
		return nil, err
	}
	symbol = NormalizeSymbol(symbol)

	cacheKey := map[string]interface{}{
		"symbol": symbol,
		"start":  start.Format("2006-01-02"),
		"end":    end.Format("2006-01-02"),
	}
	var cached []*Candle
	if yc.cache.Get("yahoo", "historical", cacheKey, &cached) {
		return cached, nil
	}
	if !yc.online {
		if yc.cache.GetStale("yahoo", "historical", cacheKey, &cached) {
			return cached, nil
		}
		return nil, offlineError("historical candles " + symbol)
	}

	var result []*Candle
	err := WithRetry(DefaultRetryConfig(), func() error {
		params := &chart.Params{
			Symbol:   PairSymbol(symbol),
			Start:    datetime.New(&start),
			End:      datetime.New(&end),
			Interval: datetime.OneDay,
		}

		iter := chart.Get(params)
		result = make([]*Candle, 0)
		for iter.Next() {
			bar := iter.Bar()
			result = append(result, &Candle{
				Symbol:    symbol,
				Date:      time.Unix(int64(bar.Timestamp), 0),
				Open:      bar.Open,
				High:      bar.High,
				Low:       bar.Low,
				Close:     bar.Close,
				Volume:    decimal.NewFromInt(int64(bar.Volume)),
				Timestamp: time.Now(),
			})
		}
		if err := iter.Err(); err != nil {
			return fmt.Errorf("failed to get historical candles for %s: %w", symbol, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	yc.cache.Set("yahoo", "historical", cacheKey, result)
	return result, nil
}

// GetCandleWindow returns daily candles for a rolling window of days.
func (yc *YahooClient) GetCandleWindow(symbol string, days int) ([]*Candle, error) {
	end := time.Now()
	start := end.AddDate(0, 0, -days)
	return yc.GetHistoricalCandles(symbol, start, end)
}
