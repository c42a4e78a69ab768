package agents

import (
	"context"

	"github.com/cloudwego/eino/components/model"

	"github.com/ikeya/chaincouncil/consts"
	"github.com/ikeya/chaincouncil/internal/config"
	"github.com/ikeya/chaincouncil/internal/memory"
	"github.com/ikeya/chaincouncil/internal/models"
)

// NewRiskySpeaker pushes for aggressive positioning in the risk
// debate.
func NewRiskySpeaker(chatModel model.ToolCallingChatModel, state *models.TradingState,
	bank *memory.Bank, cfg *config.Config) Speaker {
	return newRiskSpeaker(consts.RiskyAnalyst, "risk/risky_debate", chatModel, state, bank, cfg)
}

// NewSafeSpeaker pushes for capital preservation in the risk debate.
func NewSafeSpeaker(chatModel model.ToolCallingChatModel, state *models.TradingState,
	bank *memory.Bank, cfg *config.Config) Speaker {
	return newRiskSpeaker(consts.SafeAnalyst, "risk/safe_debate", chatModel, state, bank, cfg)
}

// NewNeutralSpeaker weighs both sides in the risk debate.
func NewNeutralSpeaker(chatModel model.ToolCallingChatModel, state *models.TradingState,
	bank *memory.Bank, cfg *config.Config) Speaker {
	return newRiskSpeaker(consts.NeutralAnalyst, "risk/neutral_debate", chatModel, state, bank, cfg)
}

func newRiskSpeaker(role, promptName string, chatModel model.ToolCallingChatModel,
	state *models.TradingState, bank *memory.Bank, cfg *config.Config) Speaker {

	return Speaker{
		Role: role,
		Respond: func(ctx context.Context, round int) (string, error) {
			ds := state.RiskDebateState
			args := reportArgs(state)
			args["trader_decision"] = state.TraderInvestmentPlan
			args["history"] = ds.History
			args["current_risky_response"] = latestArgument(ds, consts.RiskyAnalyst)
			args["current_safe_response"] = latestArgument(ds, consts.SafeAnalyst)
			args["current_neutral_response"] = latestArgument(ds, consts.NeutralAnalyst)
			args["past_memory_str"] = pastMemories(ctx, bank, memory.RiskManagerMemory, state.Situation(), cfg.TopKReflections)

			return generateFromTemplate(ctx, chatModel, promptName, args)
		},
	}
}

// latestArgument finds the most recent turn a role has taken.
func latestArgument(ds *models.RiskDebateState, role string) string {
	for i := len(ds.Transcript) - 1; i >= 0; i-- {
		if ds.Transcript[i].Role == role {
			return ds.Transcript[i].Text
		}
	}
	return ""
}
