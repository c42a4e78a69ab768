package graph

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"github.com/ikeya/chaincouncil/internal/config"
	"github.com/ikeya/chaincouncil/internal/llm"
	"github.com/ikeya/chaincouncil/internal/memory"
	"github.com/ikeya/chaincouncil/internal/models"
	"github.com/ikeya/chaincouncil/internal/storage"
	"github.com/ikeya/chaincouncil/internal/tools"
	"github.com/ikeya/chaincouncil/internal/utils"
)

// TradingAgentsGraph is the top-level entry point: it owns the model
// provider, tool registry, memory bank and storage, and runs full
// evaluations through the orchestrator.
type TradingAgentsGraph struct {
	cfg          *config.Config
	provider     *llm.Provider
	orchestrator *Orchestrator
	bank         *memory.Bank
	store        *storage.Store
}

// NewTradingAgentsGraph wires the full pipeline from configuration.
func NewTradingAgentsGraph(ctx context.Context, cfg *config.Config) (*TradingAgentsGraph, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("prepare directories: %w", err)
	}

	provider, err := llm.NewProvider(ctx, cfg)
	if err != nil {
		return nil, err
	}

	registry := tools.NewRegistry(tools.NewDatasources(cfg))
	invoker := tools.NewInvoker(registry, cfg.CallTimeout)

	var bank *memory.Bank
	if cfg.MemoryEnabled {
		embedder, err := llm.NewEmbedder(ctx, cfg)
		if err != nil {
			return nil, err
		}
		bank = memory.NewBank(embedder)
	}

	store, err := storage.NewStore(filepath.Join(cfg.DataDir, "agent.db"))
	if err != nil {
		return nil, err
	}

	orchestrator, err := NewOrchestrator(cfg, provider, registry, invoker, bank)
	if err != nil {
		store.Close()
		return nil, err
	}

	g := &TradingAgentsGraph{
		cfg:          cfg,
		provider:     provider,
		orchestrator: orchestrator,
		bank:         bank,
		store:        store,
	}

	if bank != nil {
		if err := g.replayReflections(ctx); err != nil {
			log.Printf("[TradingGraph] memory replay failed, starting cold: %v", err)
		}
	}
	return g, nil
}

// Close releases the storage handle.
func (g *TradingAgentsGraph) Close() error {
	return g.store.Close()
}

// Propagate evaluates one token for one trade date, persists the run
// and writes the report files. The state is returned even on failure
// so callers can inspect the partial trace.
func (g *TradingAgentsGraph) Propagate(ctx context.Context, symbol string, date time.Time) (*models.TradingState, error) {
	state, runErr := g.orchestrator.Run(ctx, symbol, date)
	if state == nil {
		return nil, runErr
	}

	if _, err := g.store.SaveRun(state); err != nil {
		log.Printf("[TradingGraph] failed to persist run: %v", err)
	}
	g.writeReports(state)

	return state, runErr
}

// writeReports dumps per-stage markdown files under the results dir.
func (g *TradingAgentsGraph) writeReports(state *models.TradingState) {
	dir := filepath.Join(g.cfg.ResultsDir, state.CompanyOfInterest, state.TradeDate)

	for kind, report := range state.AnalystReports {
		g.writeReport(dir, kind+"_report.md", report)
	}
	if state.InvestmentDebateState.History != "" {
		g.writeReport(dir, "research_debate.md", state.InvestmentDebateState.History)
	}
	if state.InvestmentPlan != "" {
		g.writeReport(dir, "investment_plan.md", state.InvestmentPlan)
	}
	if state.TraderInvestmentPlan != "" {
		g.writeReport(dir, "trader_plan.md", state.TraderInvestmentPlan)
	}
	if state.RiskDebateState.History != "" {
		g.writeReport(dir, "risk_debate.md", state.RiskDebateState.History)
	}
	if state.FinalTradeDecision != "" {
		g.writeReport(dir, "final_decision.md", state.FinalTradeDecision)
	}
}

func (g *TradingAgentsGraph) writeReport(dir, name, content string) {
	if err := utils.WriteMarkdown(dir, name, content); err != nil {
		log.Printf("[TradingGraph] failed to write %s: %v", name, err)
	}
}

// ReflectAndRemember reviews a finished run against its realized
// returns and stores one lesson per reflective agent. With memory
// disabled it is a no-op.
func (g *TradingAgentsGraph) ReflectAndRemember(ctx context.Context, state *models.TradingState, returns string) error {
	if g.bank == nil {
		return nil
	}
	situation := state.Situation()
	if strings.TrimSpace(situation) == "" {
		return fmt.Errorf("cannot reflect: no analyst reports on state")
	}

	components := []struct {
		memoryName string
		report     string
	}{
		{memory.BullMemory, state.InvestmentDebateState.BullHistory},
		{memory.BearMemory, state.InvestmentDebateState.BearHistory},
		{memory.TraderMemory, state.TraderInvestmentPlan},
		{memory.InvestJudgeMemory, state.InvestmentDebateState.JudgeDecision},
		{memory.RiskManagerMemory, state.FinalTradeDecision},
	}

	for _, c := range components {
		if strings.TrimSpace(c.report) == "" {
			continue
		}
		lesson, err := g.reflect(ctx, g.provider.DeepThink(), situation, c.report, returns)
		if err != nil {
			log.Printf("[TradingGraph] reflection for %s failed: %v", c.memoryName, err)
			continue
		}

		store := g.bank.Store(c.memoryName)
		if err := store.Add(ctx, memory.Record{Situation: situation, Recommendation: lesson}); err != nil {
			log.Printf("[TradingGraph] storing %s lesson failed: %v", c.memoryName, err)
			continue
		}
		if err := g.store.SaveReflection(c.memoryName, situation, lesson); err != nil {
			log.Printf("[TradingGraph] persisting %s lesson failed: %v", c.memoryName, err)
		}
	}
	return nil
}

func (g *TradingAgentsGraph) reflect(ctx context.Context, chatModel model.ToolCallingChatModel,
	situation, report, returns string) (string, error) {

	tpl, err := utils.LoadPrompt("managers/reflector")
	if err != nil {
		return "", err
	}
	template := prompt.FromMessages(schema.FString, schema.UserMessage(tpl))
	messages, err := template.Format(ctx, map[string]any{
		"situation": situation,
		"report":    report,
		"returns":   returns,
	})
	if err != nil {
		return "", err
	}

	resp, err := chatModel.Generate(ctx, messages)
	if err != nil {
		return "", err
	}
	lesson := strings.TrimSpace(resp.Content)
	if lesson == "" {
		return "", fmt.Errorf("reflection produced no lesson")
	}
	return lesson, nil
}

// replayReflections reloads persisted lessons into the in-process
// memory stores so learning survives restarts.
func (g *TradingAgentsGraph) replayReflections(ctx context.Context) error {
	for _, name := range []string{
		memory.BullMemory, memory.BearMemory, memory.TraderMemory,
		memory.InvestJudgeMemory, memory.RiskManagerMemory,
	} {
		lessons, err := g.store.ListReflections(name)
		if err != nil {
			return err
		}
		store := g.bank.Store(name)
		for _, l := range lessons {
			if err := store.Add(ctx, memory.Record{Situation: l.Situation, Recommendation: l.Recommendation}); err != nil {
				return err
			}
		}
		if len(lessons) > 0 {
			log.Printf("[TradingGraph] replayed %d lessons into %s", len(lessons), name)
		}
	}
	return nil
}
