package dataflows

import (
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
)

// OnChainClient fetches network-level statistics: Bitcoin chain stats
// from blockchain.info and Ethereum gas data from Etherscan.
type OnChainClient struct {
	btcClient *resty.Client
	ethClient *resty.Client
	cache     *CacheManager
	ethAPIKey string
	online    bool
}

// NewOnChainClient creates a new on-chain data client.
func NewOnChainClient(config *Config) *OnChainClient {
	cacheDir := filepath.Join(config.DataCacheDir, "onchain")
	cache := NewCacheManager(cacheDir, 60*time.Minute, config.CacheEnabled)

	btcClient := resty.New()
	btcClient.SetBaseURL("https://api.blockchain.info")
	btcClient.SetTimeout(15 * time.Second)

	ethClient := resty.New()
	ethClient.SetBaseURL("https://api.etherscan.io")
	ethClient.SetTimeout(15 * time.Second)

	return &OnChainClient{
		btcClient: btcClient,
		ethClient: ethClient,
		cache:     cache,
		ethAPIKey: config.EtherscanAPIKey,
		online:    config.OnlineTools,
	}
}

// GetBitcoinStats returns current Bitcoin network statistics.
func (oc *OnChainClient) GetBitcoinStats() (*OnChainStats, error) {
	var cached OnChainStats
	if oc.cache.Get("blockchain_info", "stats", "BTC", &cached) {
		return &cached, nil
	}
	if !oc.online {
		if oc.cache.GetStale("blockchain_info", "stats", "BTC", &cached) {
			return &cached, nil
		}
		return nil, offlineError("bitcoin network stats")
	}

	var payload struct {
		HashRate             float64 `json:"hash_rate"`
		Difficulty           float64 `json:"difficulty"`
		MinutesBetweenBlocks float64 `json:"minutes_between_blocks"`
		NTx                  int64   `json:"n_tx"`
		MempoolSize          int64   `json:"mempool_size"`
		TotalBTC             float64 `json:"totalbc"`
	}

	var result *OnChainStats
	err := WithRetry(DefaultRetryConfig(), func() error {
		resp, err := oc.btcClient.R().SetResult(&payload).Get("/stats")
		if err != nil {
			return fmt.Errorf("failed to fetch bitcoin network stats: %w", err)
		}
		if resp.IsError() {
			return fmt.Errorf("blockchain.info stats: status %d", resp.StatusCode())
		}

		result = &OnChainStats{
			Symbol:               "BTC",
			HashRateGHs:          payload.HashRate,
			Difficulty:           payload.Difficulty,
			MinutesBetweenBlocks: payload.MinutesBetweenBlocks,
			TxCount24h:           payload.NTx,
			MempoolCount:         payload.MempoolSize,
			// totalbc is reported in satoshi
			TotalSupply: payload.TotalBTC / 1e8,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Whale activity is a separate feed; failures there leave the
	// count at zero instead of failing the stats call.
	if count, err := oc.getBitcoinLargeTxCount(); err == nil {
		result.LargeTxCount = count
	}

	oc.cache.Set("blockchain_info", "stats", "BTC", result)
	return result, nil
}

// largeTxThresholdSatoshi marks a mempool transaction as whale-sized
// (100 BTC).
const largeTxThresholdSatoshi = int64(100 * 1e8)

// getBitcoinLargeTxCount counts whale-sized transactions currently in
// the mempool.
func (oc *OnChainClient) getBitcoinLargeTxCount() (int, error) {
	var payload struct {
		Txs []struct {
			Out []struct {
				Value int64 `json:"value"`
			} `json:"out"`
		} `json:"txs"`
	}

	resp, err := oc.btcClient.R().
		SetQueryParam("format", "json").
		SetResult(&payload).
		Get("/unconfirmed-transactions")
	if err != nil {
		return 0, fmt.Errorf("failed to fetch unconfirmed transactions: %w", err)
	}
	if resp.IsError() {
		return 0, fmt.Errorf("blockchain.info unconfirmed-transactions: status %d", resp.StatusCode())
	}

	count := 0
	for _, tx := range payload.Txs {
		var total int64
		for _, out := range tx.Out {
			total += out.Value
		}
		if total >= largeTxThresholdSatoshi {
			count++
		}
	}
	return count, nil
}

// GetEthereumGas returns current Ethereum gas oracle readings in gwei.
func (oc *OnChainClient) GetEthereumGas() (*OnChainStats, error) {
	var cached OnChainStats
	if oc.cache.Get("etherscan", "gas_oracle", "ETH", &cached) {
		return &cached, nil
	}
	if !oc.online {
		if oc.cache.GetStale("etherscan", "gas_oracle", "ETH", &cached) {
			return &cached, nil
		}
		return nil, offlineError("ethereum gas oracle")
	}

	var payload struct {
		Status  string `json:"status"`
		Message string `json:"message"`
		Result  struct {
			SafeGasPrice    string `json:"SafeGasPrice"`
			ProposeGasPrice string `json:"ProposeGasPrice"`
			FastGasPrice    string `json:"FastGasPrice"`
		} `json:"result"`
	}

	var result *OnChainStats
	err := WithRetry(DefaultRetryConfig(), func() error {
		resp, err := oc.ethClient.R().
			SetQueryParams(map[string]string{
				"module": "gastracker",
				"action": "gasoracle",
				"apikey": oc.ethAPIKey,
			}).
			SetResult(&payload).
			Get("/api")
		if err != nil {
			return fmt.Errorf("failed to fetch ethereum gas oracle: %w", err)
		}
		if resp.IsError() {
			return fmt.Errorf("etherscan gasoracle: status %d", resp.StatusCode())
		}
		if payload.Status != "1" {
			return fmt.Errorf("etherscan gasoracle: %s", payload.Message)
		}

		safe, _ := strconv.ParseFloat(payload.Result.SafeGasPrice, 64)
		propose, _ := strconv.ParseFloat(payload.Result.ProposeGasPrice, 64)
		fast, _ := strconv.ParseFloat(payload.Result.FastGasPrice, 64)
		result = &OnChainStats{
			Symbol:         "ETH",
			GasSafeGwei:    safe,
			GasProposeGwei: propose,
			GasFastGwei:    fast,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Supply is a separate Etherscan module; a failure there degrades
	// the reading rather than failing the whole call.
	if supply, err := oc.getEthereumSupply(); err == nil {
		result.TotalSupply = supply
	}

	oc.cache.Set("etherscan", "gas_oracle", "ETH", result)
	return result, nil
}

// getEthereumSupply reads the total ETH supply in ether.
func (oc *OnChainClient) getEthereumSupply() (float64, error) {
	var payload struct {
		Status string `json:"status"`
		Result string `json:"result"`
	}

	resp, err := oc.ethClient.R().
		SetQueryParams(map[string]string{
			"module": "stats",
			"action": "ethsupply",
			"apikey": oc.ethAPIKey,
		}).
		SetResult(&payload).
		Get("/api")
	if err != nil {
		return 0, fmt.Errorf("failed to fetch ethereum supply: %w", err)
	}
	if resp.IsError() || payload.Status != "1" {
		return 0, fmt.Errorf("etherscan ethsupply: status %d", resp.StatusCode())
	}

	// reported in wei
	wei, err := strconv.ParseFloat(payload.Result, 64)
	if err != nil {
		return 0, fmt.Errorf("parse ethereum supply: %w", err)
	}
	return wei / 1e18, nil
}

// GetStats returns on-chain statistics for a symbol. Only BTC and ETH
// have chain-level data sources; other tokens report no coverage.
func (oc *OnChainClient) GetStats(symbol string) (*OnChainStats, error) {
	switch NormalizeSymbol(symbol) {
	case "BTC":
		return oc.GetBitcoinStats()
	case "ETH":
		return oc.GetEthereumGas()
	default:
		return nil, fmt.Errorf("no on-chain data source for %s", NormalizeSymbol(symbol))
	}
}

// SetBaseURLs points both chain clients at a different endpoint. Used
// in tests.
func (oc *OnChainClient) SetBaseURLs(url string) {
	oc.btcClient.SetBaseURL(url)
	oc.ethClient.SetBaseURL(url)
}
