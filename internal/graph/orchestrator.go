package graph

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/ikeya/chaincouncil/internal/agents"
	"github.com/ikeya/chaincouncil/internal/config"
	"github.com/ikeya/chaincouncil/internal/llm"
	"github.com/ikeya/chaincouncil/internal/memory"
	"github.com/ikeya/chaincouncil/internal/models"
	"github.com/ikeya/chaincouncil/internal/tools"
)

// UnavailableReport stands in for an analyst that could not settle.
// Downstream agents see the gap explicitly instead of silence.
const UnavailableReport = "Report unavailable: the analyst failed to produce output for this session."

// Orchestrator drives one evaluation through its stages: analyst
// fan-out, research debate, trader proposal, risk debate, final
// decision. It is the only writer of the state's Stage field.
type Orchestrator struct {
	cfg      *config.Config
	provider *llm.Provider
	registry *tools.Registry
	invoker  *tools.Invoker
	bank     *memory.Bank
}

// NewOrchestrator wires an orchestrator. The memory bank may be nil
// when memory is disabled.
func NewOrchestrator(cfg *config.Config, provider *llm.Provider, registry *tools.Registry,
	invoker *tools.Invoker, bank *memory.Bank) (*Orchestrator, error) {

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := registry.Validate(cfg); err != nil {
		return nil, err
	}
	return &Orchestrator{
		cfg:      cfg,
		provider: provider,
		registry: registry,
		invoker:  invoker,
		bank:     bank,
	}, nil
}

// Run evaluates one token for one trade date. The returned state is
// always usable for inspection: on abort it carries the partial trace
// and the stage that failed.
func (o *Orchestrator) Run(ctx context.Context, symbol string, date time.Time) (*models.TradingState, error) {
	if !o.cfg.SupportsToken(symbol) {
		return nil, &config.ConfigurationError{
			Option: "supported_tokens",
			Reason: fmt.Sprintf("token %s is not supported", symbol),
		}
	}

	state := models.NewTradingState(symbol, date, o.cfg)
	log.Printf("[Orchestrator] starting evaluation of %s for %s", symbol, state.TradeDate)

	if err := o.collectAnalystReports(ctx, state); err != nil {
		return o.abort(state, "collecting_analysts", err)
	}

	state.Stage = models.StageResearchDebate
	if err := o.runResearchDebate(ctx, state); err != nil {
		return o.abort(state, "research_debate", err)
	}

	state.Stage = models.StageTraderDecision
	trader := agents.NewTrader(o.provider.DeepThink(), o.bank, o.cfg)
	if err := trader.Propose(ctx, state); err != nil {
		return o.abort(state, "trader_decision", err)
	}

	state.Stage = models.StageRiskDebate
	if err := o.runRiskDebate(ctx, state); err != nil {
		return o.abort(state, "risk_debate", err)
	}

	state.Stage = models.StageFinalDecision
	riskManager := agents.NewRiskManager(o.provider.DeepThink(), o.bank, o.cfg)
	if err := riskManager.Decide(ctx, state); err != nil {
		return o.abort(state, "final_decision", err)
	}

	state.Stage = models.StageComplete
	log.Printf("[Orchestrator] %s %s: %s (overridden=%v)",
		symbol, state.TradeDate, state.Decision.Verdict, state.Decision.Overridden)
	return state, nil
}

// collectAnalystReports runs every enabled analyst concurrently and
// waits for all of them to settle. A failed analyst contributes a
// placeholder report; the pipeline proceeds regardless of how many
// fail.
func (o *Orchestrator) collectAnalystReports(ctx context.Context, state *models.TradingState) error {
	kinds := o.cfg.EnabledAnalysts

	type outcome struct {
		kind   string
		report *agents.AnalystReport
		err    error
	}

	var wg sync.WaitGroup
	results := make(chan outcome, len(kinds))

	for _, kind := range kinds {
		analyst, err := agents.NewAnalyst(ctx, kind, o.provider.QuickThink(), o.registry, o.invoker, o.cfg)
		if err != nil {
			return err
		}

		wg.Add(1)
		go func(kind string, analyst *agents.Analyst) {
			defer wg.Done()
			report, err := analyst.Run(ctx, state.CompanyOfInterest, state.TradeDate)
			results <- outcome{kind: kind, report: report, err: err}
		}(kind, analyst)
	}

	wg.Wait()
	close(results)

	if err := ctx.Err(); err != nil {
		return err
	}

	for res := range results {
		switch {
		case res.err != nil:
			log.Printf("[Orchestrator] %s analyst failed: %v", res.kind, res.err)
			state.AnalystReports[res.kind] = UnavailableReport
		case res.report.Degraded:
			log.Printf("[Orchestrator] %s analyst settled degraded", res.kind)
			state.AnalystReports[res.kind] = res.report.Content
		default:
			state.AnalystReports[res.kind] = res.report.Content
		}
	}
	return nil
}

func (o *Orchestrator) runResearchDebate(ctx context.Context, state *models.TradingState) error {
	speakers := []agents.Speaker{
		agents.NewBullSpeaker(o.provider.QuickThink(), state, o.bank, o.cfg),
		agents.NewBearSpeaker(o.provider.QuickThink(), state, o.bank, o.cfg),
	}

	record := func(role string, round int, text string, degraded bool) {
		state.AppendInvestTurn(models.DebateTurn{
			Role: role, Round: round, Text: text, Degraded: degraded, Timestamp: time.Now(),
		})
	}

	dc := agents.NewDebateController("research", speakers, o.cfg.MaxDebateRounds, record)
	if err := dc.Run(ctx); err != nil {
		return err
	}

	manager := agents.NewResearchManager(o.provider.DeepThink(), o.bank, o.cfg)
	return manager.Decide(ctx, state)
}

func (o *Orchestrator) runRiskDebate(ctx context.Context, state *models.TradingState) error {
	speakers := []agents.Speaker{
		agents.NewRiskySpeaker(o.provider.QuickThink(), state, o.bank, o.cfg),
		agents.NewSafeSpeaker(o.provider.QuickThink(), state, o.bank, o.cfg),
		agents.NewNeutralSpeaker(o.provider.QuickThink(), state, o.bank, o.cfg),
	}

	record := func(role string, round int, text string, degraded bool) {
		state.AppendRiskTurn(models.DebateTurn{
			Role: role, Round: round, Text: text, Degraded: degraded, Timestamp: time.Now(),
		})
	}

	dc := agents.NewDebateController("risk", speakers, o.cfg.MaxRiskDiscussRounds, record)
	return dc.Run(ctx)
}

func (o *Orchestrator) abort(state *models.TradingState, stage string, err error) (*models.TradingState, error) {
	state.Stage = models.StageAborted
	state.FailedStage = stage
	log.Printf("[Orchestrator] aborted at %s: %v", stage, err)
	return state, fmt.Errorf("evaluation aborted at %s: %w", stage, err)
}
