package agents

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/cloudwego/eino/components/model"

	"github.com/ikeya/chaincouncil/internal/config"
	"github.com/ikeya/chaincouncil/internal/memory"
	"github.com/ikeya/chaincouncil/internal/models"
)

// ResearchManager judges the bull/bear debate and writes the
// investment plan the trader works from.
type ResearchManager struct {
	model model.ToolCallingChatModel
	bank  *memory.Bank
	cfg   *config.Config
}

func NewResearchManager(chatModel model.ToolCallingChatModel, bank *memory.Bank, cfg *config.Config) *ResearchManager {
	return &ResearchManager{model: chatModel, bank: bank, cfg: cfg}
}

// Decide weighs the debate and records its verdict on the state.
func (rm *ResearchManager) Decide(ctx context.Context, state *models.TradingState) error {
	ds := state.InvestmentDebateState

	args := reportArgs(state)
	args["history"] = ds.History
	args["past_memory_str"] = pastMemories(ctx, rm.bank, memory.InvestJudgeMemory, state.Situation(), rm.cfg.TopKReflections)

	decision, err := generateFromTemplate(ctx, rm.model, "managers/research_manager", args)
	if err != nil {
		return fmt.Errorf("research manager decision: %w", err)
	}
	decision = strings.TrimSpace(decision)
	if decision == "" {
		return fmt.Errorf("research manager: %w", ErrSynthesisFailure)
	}

	ds.JudgeDecision = decision
	ds.Complete = true
	state.InvestmentPlan = decision
	return nil
}

// RiskManager judges the risk debate and issues the final
// risk-adjusted decision.
type RiskManager struct {
	model model.ToolCallingChatModel
	bank  *memory.Bank
	cfg   *config.Config
}

func NewRiskManager(chatModel model.ToolCallingChatModel, bank *memory.Bank, cfg *config.Config) *RiskManager {
	return &RiskManager{model: chatModel, bank: bank, cfg: cfg}
}

// Decide produces the final trade decision. A BUY that the risk
// discussion flagged with a configured override keyword is downgraded
// to HOLD.
func (rm *RiskManager) Decide(ctx context.Context, state *models.TradingState) error {
	ds := state.RiskDebateState

	args := map[string]any{
		"trader_decision": state.TraderInvestmentPlan,
		"history":         ds.History,
		"past_memory_str": pastMemories(ctx, rm.bank, memory.RiskManagerMemory, state.Situation(), rm.cfg.TopKReflections),
	}

	decision, err := generateFromTemplate(ctx, rm.model, "managers/risk_judge", args)
	if err != nil {
		return fmt.Errorf("risk manager decision: %w", err)
	}
	decision = strings.TrimSpace(decision)
	if decision == "" {
		return fmt.Errorf("risk manager: %w", ErrSynthesisFailure)
	}

	ds.JudgeDecision = decision
	ds.Complete = true
	state.FinalTradeDecision = decision

	verdict := models.ExtractVerdict(decision)
	rationale := decision
	overridden := false
	if verdict == models.VerdictBuy {
		if keyword, hit := rm.overrideKeyword(ds.History + "\n" + decision); hit {
			log.Printf("[RiskManager] overriding BUY to HOLD: flagged %q", keyword)
			verdict = models.VerdictHold
			overridden = true
			rationale += fmt.Sprintf(
				"\n\nRisk override: BUY downgraded to HOLD after the risk discussion flagged %q.", keyword)
		}
	}

	state.Decision = &models.TradingDecision{
		Symbol:     state.CompanyOfInterest,
		Date:       state.TradeDate,
		Verdict:    verdict,
		Rationale:  rationale,
		Overridden: overridden,
	}
	return nil
}

// overrideKeyword reports the first configured risk keyword present in
// the text, if any.
func (rm *RiskManager) overrideKeyword(text string) (string, bool) {
	lower := strings.ToLower(text)
	for _, keyword := range rm.cfg.RiskOverrideKeywords {
		if keyword != "" && strings.Contains(lower, strings.ToLower(keyword)) {
			return keyword, true
		}
	}
	return "", false
}
