package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/ikeya/chaincouncil/consts"
)

// AnalystKinds lists every analyst the pipeline knows how to run.
var AnalystKinds = []string{
	consts.MarketAnalyst,
	consts.OnChainAnalyst,
	consts.NewsAnalyst,
	consts.SocialAnalyst,
}

// Config holds all process-wide settings. It is constructed once at
// startup, validated, and never mutated during a run.
type Config struct {
	ProjectDir   string `json:"project_dir"`
	ResultsDir   string `json:"results_dir"`
	DataDir      string `json:"data_dir"`
	DataCacheDir string `json:"data_cache_dir"`

	LLMProvider    string `json:"llm_provider"`
	DeepThinkLLM   string `json:"deep_think_llm"`
	QuickThinkLLM  string `json:"quick_think_llm"`
	BackendURL     string `json:"backend_url"`
	OpenAIAPIKey   string `json:"openai_api_key"`
	DeepSeekAPIKey string `json:"deepseek_api_key"`

	MaxDebateRounds      int `json:"max_debate_rounds"`
	MaxRiskDiscussRounds int `json:"max_risk_discuss_rounds"`
	MaxToolCallsPerAgent int `json:"max_tool_calls_per_agent"`

	OnlineTools  bool `json:"online_tools"`
	CacheEnabled bool `json:"cache_enabled"`
	Debug        bool `json:"debug"`

	// Eino visual debugging.
	EinoDebugEnabled bool `json:"eino_debug_enabled"`
	EinoDebugPort    int  `json:"eino_debug_port"`

	EnabledAnalysts []string `json:"enabled_analysts"`
	SupportedTokens []string `json:"supported_tokens"`

	// Memory settings. TopKReflections bounds how many past
	// reflections a debater sees per turn.
	MemoryEnabled   bool   `json:"memory_enabled"`
	TopKReflections int    `json:"top_k_reflections"`
	EmbeddingModel  string `json:"embedding_model"`

	// Risk policy: a trader BUY is downgraded to HOLD when the risk
	// debate transcript contains any of these signals.
	RiskOverrideKeywords []string `json:"risk_override_keywords"`

	// Per-call budget for tool and generation I/O.
	CallTimeout time.Duration `json:"call_timeout"`

	// Data source credentials. All optional; free tiers work.
	CoinGeckoAPIKey   string `json:"coingecko_api_key"`
	EtherscanAPIKey   string `json:"etherscan_api_key"`
	CryptoPanicAPIKey string `json:"cryptopanic_api_key"`
}

func DefaultConfig() *Config {
	currentDir, _ := os.Getwd()

	return &Config{
		ProjectDir:   currentDir,
		ResultsDir:   filepath.Join(currentDir, "results"),
		DataDir:      filepath.Join(currentDir, "data"),
		DataCacheDir: filepath.Join(currentDir, "data", "cache"),

		LLMProvider:   "openai",
		DeepThinkLLM:  "o4-mini",
		QuickThinkLLM: "gpt-4o-mini",
		BackendURL:    "https://api.openai.com/v1",

		MaxDebateRounds:      1,
		MaxRiskDiscussRounds: 1,
		MaxToolCallsPerAgent: 8,

		OnlineTools:  true,
		CacheEnabled: true,
		Debug:        false,

		EinoDebugEnabled: false,
		EinoDebugPort:    52330,

		EnabledAnalysts: append([]string(nil), AnalystKinds...),
		SupportedTokens: []string{
			"BTC", "ETH", "SOL", "MATIC", "AVAX",
			"BNB", "ADA", "DOT", "LINK", "UNI",
		},

		MemoryEnabled:   true,
		TopKReflections: 2,
		EmbeddingModel:  "text-embedding-3-small",

		RiskOverrideKeywords: []string{
			"liquidity risk",
			"severe drawdown",
			"exchange insolvency",
			"regulatory ban",
		},

		CallTimeout: 60 * time.Second,
	}
}

// LoadFromEnv builds a config from defaults plus environment
// overrides. A .env file in the working directory is honored when
// present.
func LoadFromEnv() *Config {
	_ = godotenv.Load()

	cfg := DefaultConfig()

	if v := os.Getenv("LLM_PROVIDER"); v != "" {
		cfg.LLMProvider = v
	}
	if v := os.Getenv("BACKEND_URL"); v != "" {
		cfg.BackendURL = v
	}
	if v := os.Getenv("DEEP_THINK_LLM"); v != "" {
		cfg.DeepThinkLLM = v
	}
	if v := os.Getenv("QUICK_THINK_LLM"); v != "" {
		cfg.QuickThinkLLM = v
	}
	cfg.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	cfg.DeepSeekAPIKey = os.Getenv("DEEPSEEK_API_KEY")
	cfg.CoinGeckoAPIKey = os.Getenv("COINGECKO_API_KEY")
	cfg.EtherscanAPIKey = os.Getenv("ETHERSCAN_API_KEY")
	cfg.CryptoPanicAPIKey = os.Getenv("CRYPTOPANIC_API_KEY")

	if v := os.Getenv("MAX_DEBATE_ROUNDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxDebateRounds = n
		}
	}
	if v := os.Getenv("MAX_RISK_DISCUSS_ROUNDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxRiskDiscussRounds = n
		}
	}
	if v := os.Getenv("EINO_DEBUG"); v != "" {
		cfg.EinoDebugEnabled = v == "true" || v == "1"
	}
	if v := os.Getenv("ONLINE_TOOLS"); v != "" {
		cfg.OnlineTools = v == "true" || v == "1"
	}
	if v := os.Getenv("ENABLED_ANALYSTS"); v != "" {
		cfg.EnabledAnalysts = splitList(v)
	}
	if v := os.Getenv("SUPPORTED_TOKENS"); v != "" {
		cfg.SupportedTokens = splitList(v)
	}

	return cfg
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ConfigurationError is fatal at run start: no partial run is
// attempted when configuration is invalid.
type ConfigurationError struct {
	Option string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Option, e.Reason)
}

// Validate checks every recognized option. It returns the first
// violation as a *ConfigurationError.
func (c *Config) Validate() error {
	if c.MaxDebateRounds < 1 {
		return &ConfigurationError{Option: "max_debate_rounds", Reason: "must be >= 1"}
	}
	if c.MaxRiskDiscussRounds < 1 {
		return &ConfigurationError{Option: "max_risk_discuss_rounds", Reason: "must be >= 1"}
	}
	if c.MaxToolCallsPerAgent < 1 {
		return &ConfigurationError{Option: "max_tool_calls_per_agent", Reason: "must be >= 1"}
	}
	if len(c.EnabledAnalysts) == 0 {
		return &ConfigurationError{Option: "enabled_analysts", Reason: "at least one analyst must be enabled"}
	}
	for _, a := range c.EnabledAnalysts {
		if !contains(AnalystKinds, a) {
			return &ConfigurationError{
				Option: "enabled_analysts",
				Reason: fmt.Sprintf("unknown analyst kind %q", a),
			}
		}
	}
	if len(c.SupportedTokens) == 0 {
		return &ConfigurationError{Option: "supported_tokens", Reason: "token list is empty"}
	}
	if c.MemoryEnabled && c.TopKReflections < 1 {
		return &ConfigurationError{Option: "top_k_reflections", Reason: "must be >= 1 when memory is enabled"}
	}
	if c.CallTimeout <= 0 {
		return &ConfigurationError{Option: "call_timeout", Reason: "must be positive"}
	}
	return nil
}

// SupportsToken reports whether symbol is tradable under this config.
func (c *Config) SupportsToken(symbol string) bool {
	return contains(c.SupportedTokens, strings.ToUpper(symbol))
}

// AnalystEnabled reports whether the given analyst kind runs in the
// CollectingAnalysts stage.
func (c *Config) AnalystEnabled(kind string) bool {
	return contains(c.EnabledAnalysts, kind)
}

func (c *Config) EnsureDirectories() error {
	dirs := []string{c.ResultsDir, c.DataDir, c.DataCacheDir}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return nil
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
