package dataflows

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ikeya/chaincouncil/internal/config"
)

func testConfig(t *testing.T) *Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.DataCacheDir = t.TempDir()
	cfg.CacheEnabled = false
	return cfg
}

func TestCoinGeckoGetMarketSummary(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/coins/bitcoin" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"name": "Bitcoin",
			"market_cap_rank": 1,
			"market_data": {
				"current_price": {"usd": 65000.5},
				"market_cap": {"usd": 1280000000000},
				"total_volume": {"usd": 30000000000},
				"price_change_percentage_24h": 2.4,
				"price_change_percentage_7d": -1.1,
				"price_change_percentage_30d": 8.7,
				"circulating_supply": 19700000,
				"total_supply": 21000000,
				"ath": {"usd": 73000},
				"ath_date": {"usd": "2024-03-14T07:10:36.635Z"}
			}
		}`)
	}))
	defer server.Close()

	cg := NewCoinGeckoClient(testConfig(t))
	cg.SetBaseURL(server.URL)

	summary, err := cg.GetMarketSummary("btc")
	if err != nil {
		t.Fatalf("GetMarketSummary failed: %v", err)
	}
	if summary.Symbol != "BTC" {
		t.Errorf("got symbol %q, want BTC", summary.Symbol)
	}
	if summary.Name != "Bitcoin" {
		t.Errorf("got name %q, want Bitcoin", summary.Name)
	}
	if summary.PriceUSD.InexactFloat64() != 65000.5 {
		t.Errorf("got price %s, want 65000.5", summary.PriceUSD)
	}
	if summary.MarketCapRank != 1 {
		t.Errorf("got rank %d, want 1", summary.MarketCapRank)
	}
	if summary.Change24h != 2.4 {
		t.Errorf("got 24h change %v, want 2.4", summary.Change24h)
	}
}

func TestCoinGeckoGetPriceHistory(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/coins/ethereum/market_chart" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"prices": [[1700000000000, 2000.0], [1700086400000, 2100.0]],
			"total_volumes": [[1700000000000, 9e9], [1700086400000, 8e9]]
		}`)
	}))
	defer server.Close()

	cg := NewCoinGeckoClient(testConfig(t))
	cg.SetBaseURL(server.URL)

	candles, err := cg.GetPriceHistory("ETH", 2)
	if err != nil {
		t.Fatalf("GetPriceHistory failed: %v", err)
	}
	if len(candles) != 2 {
		t.Fatalf("got %d candles, want 2", len(candles))
	}
	if candles[1].Close.InexactFloat64() != 2100.0 {
		t.Errorf("got close %s, want 2100", candles[1].Close)
	}
}

func TestCoinGeckoGetFearGreedIndex(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"data": [{"value": "72", "value_classification": "Greed", "timestamp": "1700000000"}]}`)
	}))
	defer server.Close()

	cg := NewCoinGeckoClient(testConfig(t))
	cg.SetBaseURL(server.URL)

	fg, err := cg.GetFearGreedIndex()
	if err != nil {
		t.Fatalf("GetFearGreedIndex failed: %v", err)
	}
	if fg.Value != 72 {
		t.Errorf("got value %d, want 72", fg.Value)
	}
	if fg.Classification != "Greed" {
		t.Errorf("got classification %q, want Greed", fg.Classification)
	}
}

func TestCoinGeckoServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer server.Close()

	cg := NewCoinGeckoClient(testConfig(t))
	cg.SetBaseURL(server.URL)

	if _, err := cg.GetGlobalMarket(); err == nil {
		t.Fatal("expected error on 429 response")
	}
}

func TestOnChainGetBitcoinStats(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/stats":
			fmt.Fprint(w, `{
				"hash_rate": 600000000,
				"difficulty": 88000000000000,
				"minutes_between_blocks": 9.8,
				"n_tx": 450000,
				"mempool_size": 12000,
				"totalbc": 1970000000000000
			}`)
		case "/unconfirmed-transactions":
			// one whale (150 BTC across two outputs), one retail tx
			fmt.Fprint(w, `{"txs": [
				{"out": [{"value": 10000000000}, {"value": 5000000000}]},
				{"out": [{"value": 250000}]}
			]}`)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	oc := NewOnChainClient(testConfig(t))
	oc.SetBaseURLs(server.URL)

	stats, err := oc.GetBitcoinStats()
	if err != nil {
		t.Fatalf("GetBitcoinStats failed: %v", err)
	}
	if stats.Symbol != "BTC" {
		t.Errorf("got symbol %q, want BTC", stats.Symbol)
	}
	if stats.TxCount24h != 450000 {
		t.Errorf("got tx count %d, want 450000", stats.TxCount24h)
	}
	if stats.TotalSupply != 19700000 {
		t.Errorf("got supply %v, want 19700000", stats.TotalSupply)
	}
	if stats.LargeTxCount != 1 {
		t.Errorf("got %d large transactions, want 1", stats.LargeTxCount)
	}
}

func TestOnChainGetEthereumGas(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Query().Get("module") {
		case "gastracker":
			fmt.Fprint(w, `{
				"status": "1",
				"message": "OK",
				"result": {"SafeGasPrice": "12", "ProposeGasPrice": "14.5", "FastGasPrice": "18"}
			}`)
		case "stats":
			fmt.Fprint(w, `{"status": "1", "message": "OK", "result": "120450000000000000000000000"}`)
		default:
			t.Errorf("unexpected module %q", r.URL.Query().Get("module"))
		}
	}))
	defer server.Close()

	oc := NewOnChainClient(testConfig(t))
	oc.SetBaseURLs(server.URL)

	stats, err := oc.GetEthereumGas()
	if err != nil {
		t.Fatalf("GetEthereumGas failed: %v", err)
	}
	if stats.GasProposeGwei != 14.5 {
		t.Errorf("got propose gas %v, want 14.5", stats.GasProposeGwei)
	}
	if stats.TotalSupply < 120000000 || stats.TotalSupply > 121000000 {
		t.Errorf("got total supply %v, want ~120.45M", stats.TotalSupply)
	}
}

func TestOnChainUnsupportedSymbol(t *testing.T) {
	oc := NewOnChainClient(testConfig(t))
	if _, err := oc.GetStats("SOL"); err == nil {
		t.Fatal("expected error for chain without a data source")
	}
}

func TestNewsClientGetNews(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("currencies"); got != "BTC" {
			t.Errorf("got currencies %q, want BTC", got)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"results": [
				{
					"title": "Bitcoin breaks resistance",
					"url": "https://example.com/a",
					"published_at": "2026-08-30T12:00:00Z",
					"source": {"title": "Example Wire"},
					"currencies": [{"code": "btc"}]
				},
				{
					"title": "Miners under pressure",
					"url": "https://example.com/b",
					"published_at": "2026-08-29T09:00:00Z",
					"source": {"title": "Example Wire"},
					"currencies": [{"code": "btc"}]
				}
			]
		}`)
	}))
	defer server.Close()

	nc := NewNewsClient(testConfig(t))
	nc.SetBaseURL(server.URL)

	articles, err := nc.GetNews("btc", 1)
	if err != nil {
		t.Fatalf("GetNews failed: %v", err)
	}
	if len(articles) != 1 {
		t.Fatalf("got %d articles, want 1 (limit)", len(articles))
	}
	if articles[0].Title != "Bitcoin breaks resistance" {
		t.Errorf("got title %q", articles[0].Title)
	}
	if articles[0].Currencies[0] != "BTC" {
		t.Errorf("got currency %q, want BTC", articles[0].Currencies[0])
	}
}

func TestNewsClientScrapeArticle(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><article>
			<p>Bitcoin rallied sharply on Tuesday as spot volumes rose across major venues.</p>
			<p>short</p>
			<p>Analysts pointed to renewed inflows into exchange traded products as the driver.</p>
		</article></body></html>`)
	}))
	defer server.Close()

	nc := NewNewsClient(testConfig(t))
	content, err := nc.ScrapeArticle(server.URL)
	if err != nil {
		t.Fatalf("ScrapeArticle failed: %v", err)
	}
	if content == "" {
		t.Fatal("expected scraped content")
	}
	// the short paragraph is filtered out
	if want := "Bitcoin rallied sharply"; len(content) < len(want) {
		t.Errorf("content too short: %q", content)
	}
}

func TestOfflineModeServesStaleCache(t *testing.T) {
	hits := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"data":{"total_market_cap":{"usd":2500000000000},"total_volume":{"usd":90000000000},"market_cap_percentage":{"btc":54.2,"eth":17.1},"market_cap_change_percentage_24h_usd":1.3,"active_cryptocurrencies":9000}}`)
	}))
	defer server.Close()

	cfg := config.DefaultConfig()
	cfg.DataCacheDir = t.TempDir()
	cfg.CacheEnabled = true

	// Warm the cache online.
	online := NewCoinGeckoClient(cfg)
	online.SetBaseURL(server.URL)
	if _, err := online.GetGlobalMarket(); err != nil {
		t.Fatalf("online fetch failed: %v", err)
	}
	if hits != 1 {
		t.Fatalf("expected 1 upstream hit, got %d", hits)
	}

	// An offline client pointed at a dead endpoint must serve the
	// cached snapshot.
	cfg.OnlineTools = false
	offline := NewCoinGeckoClient(cfg)
	offline.SetBaseURL("http://127.0.0.1:1")

	global, err := offline.GetGlobalMarket()
	if err != nil {
		t.Fatalf("offline fetch should use cache: %v", err)
	}
	if global.BTCDominance != 54.2 {
		t.Errorf("got BTC dominance %v, want 54.2", global.BTCDominance)
	}
	if hits != 1 {
		t.Errorf("offline client hit upstream %d extra time(s)", hits-1)
	}
}

func TestOfflineModeWithoutCacheFails(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.DataCacheDir = t.TempDir()
	cfg.CacheEnabled = true
	cfg.OnlineTools = false

	cg := NewCoinGeckoClient(cfg)
	cg.SetBaseURL("http://127.0.0.1:1")

	if _, err := cg.GetGlobalMarket(); err == nil {
		t.Fatal("expected an error with no cache and online tools disabled")
	}

	oc := NewOnChainClient(cfg)
	oc.SetBaseURLs("http://127.0.0.1:1")
	if _, err := oc.GetBitcoinStats(); err == nil {
		t.Fatal("expected an error for offline bitcoin stats")
	}
}

func TestNewsClientGetRegulatoryNews(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("filter"); got != "important" {
			t.Errorf("got filter %q, want important", got)
		}
		if got := r.URL.Query().Get("currencies"); got != "" {
			t.Errorf("regulatory feed should not be currency-scoped, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"results": [
				{
					"title": "SEC delays decision on spot ETF",
					"url": "https://example.com/a",
					"published_at": "2026-08-30T12:00:00Z",
					"source": {"title": "Example Wire"},
					"currencies": []
				},
				{
					"title": "Whale moves 10k BTC",
					"url": "https://example.com/b",
					"published_at": "2026-08-30T11:00:00Z",
					"source": {"title": "Example Wire"},
					"currencies": []
				},
				{
					"title": "Senate schedules stablecoin legislation vote",
					"url": "https://example.com/c",
					"published_at": "2026-08-29T09:00:00Z",
					"source": {"title": "Example Wire"},
					"currencies": []
				}
			]
		}`)
	}))
	defer server.Close()

	nc := NewNewsClient(testConfig(t))
	nc.SetBaseURL(server.URL)

	articles, err := nc.GetRegulatoryNews(5)
	if err != nil {
		t.Fatalf("GetRegulatoryNews failed: %v", err)
	}
	if len(articles) != 2 {
		t.Fatalf("got %d regulatory articles, want 2", len(articles))
	}
	for _, a := range articles {
		if a.Title == "Whale moves 10k BTC" {
			t.Errorf("non-regulatory headline passed the filter: %q", a.Title)
		}
	}
}
