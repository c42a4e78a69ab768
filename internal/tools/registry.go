package tools

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"

	"github.com/ikeya/chaincouncil/internal/config"
)

// analystCapabilities maps each analyst kind to the capabilities it is
// allowed to call.
var analystCapabilities = map[string][]string{
	"market":  {"get_crypto_price_data", "get_technical_indicators", "get_market_summary"},
	"onchain": {"get_onchain_stats", "get_market_summary"},
	"news":    {"get_crypto_news", "get_regulatory_news", "get_global_market"},
	"social":  {"get_fear_greed_index", "get_trending_coins"},
}

// Registry holds the full capability set and the per-analyst slices of
// it. It is built once at startup and read-only afterwards.
type Registry struct {
	tools map[string]tool.BaseTool
}

// NewRegistry builds the registry from a datasource bundle.
func NewRegistry(ds *Datasources) *Registry {
	r := &Registry{tools: make(map[string]tool.BaseTool)}
	for _, t := range []tool.BaseTool{
		NewPriceDataTool(ds),
		NewTechnicalIndicatorsTool(ds),
		NewMarketSummaryTool(ds),
		NewOnChainStatsTool(ds),
		NewCryptoNewsTool(ds),
		NewRegulatoryNewsTool(ds),
		NewGlobalMarketTool(ds),
		NewFearGreedTool(ds),
		NewTrendingCoinsTool(ds),
	} {
		info, err := t.Info(context.Background())
		if err != nil {
			continue
		}
		r.tools[info.Name] = t
	}
	return r
}

// Lookup returns the tool registered under a capability name.
func (r *Registry) Lookup(name string) (tool.BaseTool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// Capabilities returns all registered capability names.
func (r *Registry) Capabilities() []string {
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	return names
}

// ToolsForAnalyst returns the tool set an analyst kind may call.
func (r *Registry) ToolsForAnalyst(kind string) ([]tool.BaseTool, error) {
	caps, ok := analystCapabilities[kind]
	if !ok {
		return nil, fmt.Errorf("unknown analyst kind: %s", kind)
	}
	result := make([]tool.BaseTool, 0, len(caps))
	for _, name := range caps {
		t, ok := r.tools[name]
		if !ok {
			return nil, fmt.Errorf("capability %s required by %s analyst is not registered", name, kind)
		}
		result = append(result, t)
	}
	return result, nil
}

// InfosForAnalyst returns the tool schemas to bind to the chat model.
func (r *Registry) InfosForAnalyst(ctx context.Context, kind string) ([]*schema.ToolInfo, error) {
	ts, err := r.ToolsForAnalyst(kind)
	if err != nil {
		return nil, err
	}
	infos := make([]*schema.ToolInfo, 0, len(ts))
	for _, t := range ts {
		info, err := t.Info(ctx)
		if err != nil {
			return nil, fmt.Errorf("tool info: %w", err)
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// Validate checks at startup that every enabled analyst has its full
// capability set registered. A miss is a configuration error, not a
// runtime tool failure.
func (r *Registry) Validate(cfg *config.Config) error {
	for _, kind := range cfg.EnabledAnalysts {
		if _, err := r.ToolsForAnalyst(kind); err != nil {
			return &config.ConfigurationError{
				Option: "enabled_analysts",
				Reason: err.Error(),
			}
		}
	}
	return nil
}
