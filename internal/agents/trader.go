package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"

	"github.com/ikeya/chaincouncil/internal/config"
	"github.com/ikeya/chaincouncil/internal/memory"
	"github.com/ikeya/chaincouncil/internal/models"
)

// Trader turns the research manager's investment plan into a concrete
// trading proposal for the risk debate to stress-test.
type Trader struct {
	model model.ToolCallingChatModel
	bank  *memory.Bank
	cfg   *config.Config
}

func NewTrader(chatModel model.ToolCallingChatModel, bank *memory.Bank, cfg *config.Config) *Trader {
	return &Trader{model: chatModel, bank: bank, cfg: cfg}
}

// Propose writes the trader's plan onto the state.
func (t *Trader) Propose(ctx context.Context, state *models.TradingState) error {
	args := reportArgs(state)
	args["investment_plan"] = state.InvestmentPlan
	args["past_memory_str"] = pastMemories(ctx, t.bank, memory.TraderMemory, state.Situation(), t.cfg.TopKReflections)

	plan, err := generateFromTemplate(ctx, t.model, "trader/trader", args)
	if err != nil {
		return fmt.Errorf("trader proposal: %w", err)
	}
	plan = strings.TrimSpace(plan)
	if plan == "" {
		return fmt.Errorf("trader: %w", ErrSynthesisFailure)
	}

	state.TraderInvestmentPlan = plan
	return nil
}
