package config

import (
	"errors"
	"testing"
	"time"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate, got %v", err)
	}
}

func TestValidateRejectsBadOptions(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		option string
	}{
		{"zero debate rounds", func(c *Config) { c.MaxDebateRounds = 0 }, "max_debate_rounds"},
		{"zero risk rounds", func(c *Config) { c.MaxRiskDiscussRounds = 0 }, "max_risk_discuss_rounds"},
		{"zero tool budget", func(c *Config) { c.MaxToolCallsPerAgent = 0 }, "max_tool_calls_per_agent"},
		{"no analysts", func(c *Config) { c.EnabledAnalysts = nil }, "enabled_analysts"},
		{"unknown analyst", func(c *Config) { c.EnabledAnalysts = []string{"astrology"} }, "enabled_analysts"},
		{"no tokens", func(c *Config) { c.SupportedTokens = nil }, "supported_tokens"},
		{"bad top-k with memory", func(c *Config) { c.TopKReflections = 0 }, "top_k_reflections"},
		{"no timeout", func(c *Config) { c.CallTimeout = 0 }, "call_timeout"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected a validation error")
			}
			var cfgErr *ConfigurationError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("expected *ConfigurationError, got %T", err)
			}
			if cfgErr.Option != tc.option {
				t.Errorf("expected option %q, got %q", tc.option, cfgErr.Option)
			}
		})
	}
}

func TestValidateAllowsZeroTopKWhenMemoryDisabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MemoryEnabled = false
	cfg.TopKReflections = 0

	if err := cfg.Validate(); err != nil {
		t.Fatalf("top_k should be ignored when memory is off, got %v", err)
	}
}

func TestSupportsToken(t *testing.T) {
	cfg := DefaultConfig()

	if !cfg.SupportsToken("BTC") {
		t.Error("BTC should be supported")
	}
	if !cfg.SupportsToken("btc") {
		t.Error("symbol matching should be case-insensitive")
	}
	if cfg.SupportsToken("DOGE") {
		t.Error("DOGE is not in the default token list")
	}
}

func TestAnalystEnabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.EnabledAnalysts = []string{"market", "news"}

	if !cfg.AnalystEnabled("market") {
		t.Error("market should be enabled")
	}
	if cfg.AnalystEnabled("onchain") {
		t.Error("onchain should be disabled")
	}
}

func TestLoadFromEnvOverrides(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "deepseek")
	t.Setenv("DEEPSEEK_API_KEY", "sk-test")
	t.Setenv("MAX_DEBATE_ROUNDS", "3")
	t.Setenv("ENABLED_ANALYSTS", "market, news")
	t.Setenv("SUPPORTED_TOKENS", "BTC,ETH")
	t.Setenv("EINO_DEBUG", "1")

	cfg := LoadFromEnv()

	if cfg.LLMProvider != "deepseek" {
		t.Errorf("expected provider deepseek, got %q", cfg.LLMProvider)
	}
	if cfg.DeepSeekAPIKey != "sk-test" {
		t.Errorf("expected API key from env, got %q", cfg.DeepSeekAPIKey)
	}
	if cfg.MaxDebateRounds != 3 {
		t.Errorf("expected 3 debate rounds, got %d", cfg.MaxDebateRounds)
	}
	if len(cfg.EnabledAnalysts) != 2 || cfg.EnabledAnalysts[1] != "news" {
		t.Errorf("expected trimmed analyst list, got %v", cfg.EnabledAnalysts)
	}
	if len(cfg.SupportedTokens) != 2 {
		t.Errorf("expected 2 tokens, got %v", cfg.SupportedTokens)
	}
	if !cfg.EinoDebugEnabled {
		t.Error("EINO_DEBUG=1 should enable the debug server")
	}
}

func TestLoadFromEnvIgnoresMalformedNumbers(t *testing.T) {
	t.Setenv("MAX_DEBATE_ROUNDS", "lots")

	cfg := LoadFromEnv()
	if cfg.MaxDebateRounds != DefaultConfig().MaxDebateRounds {
		t.Errorf("malformed value should keep the default, got %d", cfg.MaxDebateRounds)
	}
}

func TestCallTimeoutDefault(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.CallTimeout != 60*time.Second {
		t.Errorf("unexpected default call timeout %v", cfg.CallTimeout)
	}
}
