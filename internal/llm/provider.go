package llm

import (
	"context"
	"fmt"

	openaiemb "github.com/cloudwego/eino-ext/components/embedding/openai"
	"github.com/cloudwego/eino-ext/components/model/deepseek"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/embedding"
	"github.com/cloudwego/eino/components/model"

	"github.com/ikeya/chaincouncil/internal/config"
)

// Provider hands out the two chat models the pipeline uses: a deep
// thinking model for judges and synthesis, a quick one for analysts
// and debaters.
type Provider struct {
	deepThink  model.ToolCallingChatModel
	quickThink model.ToolCallingChatModel
}

// NewProvider builds chat models for the configured backend.
func NewProvider(ctx context.Context, cfg *config.Config) (*Provider, error) {
	switch cfg.LLMProvider {
	case "deepseek":
		deep, err := newDeepSeekModel(ctx, cfg, cfg.DeepThinkLLM)
		if err != nil {
			return nil, err
		}
		quick, err := newDeepSeekModel(ctx, cfg, cfg.QuickThinkLLM)
		if err != nil {
			return nil, err
		}
		return &Provider{deepThink: deep, quickThink: quick}, nil
	case "openai":
		deep, err := newOpenAIModel(ctx, cfg, cfg.DeepThinkLLM)
		if err != nil {
			return nil, err
		}
		quick, err := newOpenAIModel(ctx, cfg, cfg.QuickThinkLLM)
		if err != nil {
			return nil, err
		}
		return &Provider{deepThink: deep, quickThink: quick}, nil
	default:
		return nil, &config.ConfigurationError{
			Option: "llm_provider",
			Reason: fmt.Sprintf("unsupported provider %q", cfg.LLMProvider),
		}
	}
}

// NewProviderFromModels wraps already-built chat models. Useful for
// custom backends and for wiring stand-ins.
func NewProviderFromModels(deep, quick model.ToolCallingChatModel) *Provider {
	return &Provider{deepThink: deep, quickThink: quick}
}

// DeepThink returns the model used for judge and synthesis steps.
func (p *Provider) DeepThink() model.ToolCallingChatModel {
	return p.deepThink
}

// QuickThink returns the model used for analyst and debate steps.
func (p *Provider) QuickThink() model.ToolCallingChatModel {
	return p.quickThink
}

func newDeepSeekModel(ctx context.Context, cfg *config.Config, name string) (model.ToolCallingChatModel, error) {
	m, err := deepseek.NewChatModel(ctx, &deepseek.ChatModelConfig{
		APIKey:    cfg.DeepSeekAPIKey,
		Model:     name,
		MaxTokens: 8192,
	})
	if err != nil {
		return nil, fmt.Errorf("create deepseek model %s: %w", name, err)
	}
	return m, nil
}

func newOpenAIModel(ctx context.Context, cfg *config.Config, name string) (model.ToolCallingChatModel, error) {
	maxTokens := 8192
	m, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		BaseURL:   cfg.BackendURL,
		APIKey:    cfg.OpenAIAPIKey,
		Model:     name,
		MaxTokens: &maxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("create openai model %s: %w", name, err)
	}
	return m, nil
}

// NewEmbedder builds the embedding backend for agent memory. Memory
// runs on OpenAI-compatible embeddings regardless of chat provider.
func NewEmbedder(ctx context.Context, cfg *config.Config) (embedding.Embedder, error) {
	emb, err := openaiemb.NewEmbedder(ctx, &openaiemb.EmbeddingConfig{
		APIKey: cfg.OpenAIAPIKey,
		Model:  cfg.EmbeddingModel,
	})
	if err != nil {
		return nil, fmt.Errorf("create embedder %s: %w", cfg.EmbeddingModel, err)
	}
	return emb, nil
}
