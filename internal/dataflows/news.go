package dataflows

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
)

// NewsClient fetches crypto news headlines from CryptoPanic and can
// scrape article bodies for headlines that link to full pages.
type NewsClient struct {
	client  *resty.Client
	scraper *resty.Client
	cache   *CacheManager
	apiKey  string
	online  bool
}

// NewNewsClient creates a new crypto news client.
func NewNewsClient(config *Config) *NewsClient {
	cacheDir := filepath.Join(config.DataCacheDir, "news")
	cache := NewCacheManager(cacheDir, 30*time.Minute, config.CacheEnabled)

	client := resty.New()
	client.SetBaseURL("https://cryptopanic.com/api/v1")
	client.SetTimeout(15 * time.Second)

	scraper := resty.New()
	scraper.SetTimeout(20 * time.Second)
	scraper.SetHeader("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36")

	return &NewsClient{
		client:  client,
		scraper: scraper,
		cache:   cache,
		apiKey:  config.CryptoPanicAPIKey,
		online:  config.OnlineTools,
	}
}

// regulatoryKeywords flag policy-relevant headlines.
var regulatoryKeywords = []string{
	"sec", "regulation", "regulatory", "ban", "legal", "lawsuit",
	"compliance", "government", "legislation", "policy", "etf",
	"securities", "cftc", "congress", "senate", "court",
}

// GetNews returns recent news items for a token symbol, newest first.
func (nc *NewsClient) GetNews(symbol string, limit int) ([]*NewsArticle, error) {
	if err := ValidateSymbol(symbol); err != nil {
		return nil, err
	}
	return nc.fetchNews(NormalizeSymbol(symbol), "hot", limit)
}

// GetRegulatoryNews returns market-wide headlines matching regulatory
// and policy keywords.
func (nc *NewsClient) GetRegulatoryNews(limit int) ([]*NewsArticle, error) {
	if limit <= 0 {
		limit = 10
	}
	// Over-fetch before filtering; most headlines are not regulatory.
	articles, err := nc.fetchNews("", "important", limit*4)
	if err != nil {
		return nil, err
	}

	filtered := make([]*NewsArticle, 0, limit)
	for _, a := range articles {
		if len(filtered) >= limit {
			break
		}
		title := strings.ToLower(a.Title)
		for _, kw := range regulatoryKeywords {
			if strings.Contains(title, kw) {
				filtered = append(filtered, a)
				break
			}
		}
	}
	return filtered, nil
}

func (nc *NewsClient) fetchNews(currencies, filter string, limit int) ([]*NewsArticle, error) {
	if limit <= 0 {
		limit = 10
	}

	cacheKey := map[string]interface{}{"currencies": currencies, "filter": filter, "limit": limit}
	var cached []*NewsArticle
	if nc.cache.Get("cryptopanic", "news", cacheKey, &cached) {
		return cached, nil
	}
	if !nc.online {
		if nc.cache.GetStale("cryptopanic", "news", cacheKey, &cached) {
			return cached, nil
		}
		return nil, offlineError("news (" + filter + ")")
	}

	var payload struct {
		Results []struct {
			Title       string `json:"title"`
			URL         string `json:"url"`
			PublishedAt string `json:"published_at"`
			Source      struct {
				Title string `json:"title"`
			} `json:"source"`
			Currencies []struct {
				Code string `json:"code"`
			} `json:"currencies"`
		} `json:"results"`
	}

	var result []*NewsArticle
	err := WithRetry(DefaultRetryConfig(), func() error {
		params := map[string]string{
			"auth_token": nc.apiKey,
			"public":     "true",
			"kind":       "news",
			"filter":     filter,
		}
		if currencies != "" {
			params["currencies"] = currencies
		}

		resp, err := nc.client.R().
			SetQueryParams(params).
			SetResult(&payload).
			Get("/posts/")
		if err != nil {
			return fmt.Errorf("failed to fetch news (%s): %w", filter, err)
		}
		if resp.IsError() {
			return fmt.Errorf("cryptopanic posts (%s): status %d", filter, resp.StatusCode())
		}

		result = make([]*NewsArticle, 0, limit)
		for _, r := range payload.Results {
			if len(result) >= limit {
				break
			}
			published, _ := time.Parse(time.RFC3339, r.PublishedAt)
			codes := make([]string, 0, len(r.Currencies))
			for _, c := range r.Currencies {
				codes = append(codes, strings.ToUpper(c.Code))
			}
			result = append(result, &NewsArticle{
				Title:       r.Title,
				URL:         r.URL,
				Source:      r.Source.Title,
				Currencies:  codes,
				PublishedAt: published,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	nc.cache.Set("cryptopanic", "news", cacheKey, result)
	return result, nil
}

// ScrapeArticle fetches an article page and extracts its paragraph
// text. Best effort: pages that render mostly with javascript come
// back short or empty.
func (nc *NewsClient) ScrapeArticle(url string) (string, error) {
	var cached string
	if nc.cache.Get("scraper", "article", url, &cached) {
		return cached, nil
	}
	if !nc.online {
		if nc.cache.GetStale("scraper", "article", url, &cached) {
			return cached, nil
		}
		return "", offlineError("article " + url)
	}

	resp, err := nc.scraper.R().Get(url)
	if err != nil {
		return "", fmt.Errorf("failed to fetch article %s: %w", url, err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("article %s: status %d", url, resp.StatusCode())
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(resp.String()))
	if err != nil {
		return "", fmt.Errorf("failed to parse article %s: %w", url, err)
	}

	var paragraphs []string
	doc.Find("article p, main p, .article-body p, p").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := strings.TrimSpace(s.Text())
		if len(text) > 40 {
			paragraphs = append(paragraphs, text)
		}
		return len(paragraphs) < 20
	})

	content := strings.Join(paragraphs, "\n\n")
	nc.cache.Set("scraper", "article", url, content)
	return content, nil
}

// SetBaseURL points the news client at a different endpoint. Used in
// tests.
func (nc *NewsClient) SetBaseURL(url string) {
	nc.client.SetBaseURL(url)
}
